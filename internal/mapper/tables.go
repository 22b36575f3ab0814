// Package mapper owns the per-sheet column contracts and turns validated
// rows into API-bound payloads. Each destination entity has its own mapper;
// all of them share the vocabulary tables and the tax/discount precedence
// rule.
package mapper

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/getpulpo/fleet-importer/internal/model"
)

// Product maps a feed product code to a typed catalog reference.
type Product struct {
	Code          int64  `yaml:"code"`
	ReferenceCode int64  `yaml:"reference_code"`
	Description   string `yaml:"description"`
}

// Tables holds the field vocabularies: label-to-id and label-to-enum maps
// used while building payloads. Keys are matched after trimming and
// lowercasing. A YAML mapping file can add to or replace any entry.
type Tables struct {
	ExpenseTypes       map[string]int64            `yaml:"expense_types"`
	Frequencies        map[string]string           `yaml:"frequencies"`
	Priorities         map[string]string           `yaml:"priorities"`
	EntityTypes        map[string]string           `yaml:"entity_types"`
	TimeUnits          map[string]string           `yaml:"time_units"`
	TaxTypes           map[string]model.AmountType `yaml:"tax_types"`
	PaymentFrequencies map[string]string           `yaml:"payment_frequencies"`
	FuelProducts       []Product                   `yaml:"fuel_products"`
	ExpenseProducts    []Product                   `yaml:"expense_products"`

	// Locations maps a feed establishment fiscal code to a location id.
	Locations map[string]int64 `yaml:"locations"`
}

// DefaultTables returns the built-in vocabularies for the Spanish source
// sheets.
func DefaultTables() *Tables {
	return &Tables{
		ExpenseTypes: map[string]int64{
			"bonificaciones":             74079,
			"bombonas":                   74080,
			"compra":                     74081,
			"donativos":                  74082,
			"lavado/limpieza":            74083,
			"leasing":                    74084,
			"lubricantes":                74085,
			"multas":                     74086,
			"ocupación recarga eléctrica": 74087,
			"otros":                      74088,
			"parking":                    74089,
			"peajes":                     74090,
			"penalizaciones":             74091,
			"recargas":                   74092,
			"renting":                    74093,
			"taller":                     74095,
			"tienda":                     74096,
			"trámites del vehículo":      74097,
			"itv":                        74098,
			"recarga eléctrica":          80613,
		},
		Frequencies: map[string]string{
			"día":    "day",
			"dia":    "day",
			"semana": "week",
			"mes":    "month",
			"año":    "year",
			"ano":    "year",
		},
		Priorities: map[string]string{
			"alta":  "high",
			"media": "medium",
			"baja":  "low",
		},
		EntityTypes: map[string]string{
			"conductores": "drivers",
			"vehículos":   "vehicles",
			"vehiculos":   "vehicles",
		},
		TimeUnits: map[string]string{
			"minutos": "minutes",
			"horas":   "hours",
			"días":    "days",
			"dias":    "days",
		},
		TaxTypes: map[string]model.AmountType{
			"porcentaje": model.AmountPercentage,
			"moneda":     model.AmountCurrency,
		},
		PaymentFrequencies: map[string]string{
			"diario":  "day",
			"semanal": "week",
			"mensual": "month",
			"anual":   "year",
		},
	}
}

// LoadTables returns the defaults merged with the overrides from path.
// An empty path returns the defaults untouched.
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "mapper: read mapping file")
	}
	var override Tables
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, eris.Wrap(err, "mapper: parse mapping file")
	}

	tables.merge(&override)
	return tables, nil
}

func (t *Tables) merge(o *Tables) {
	for k, v := range o.ExpenseTypes {
		t.ExpenseTypes[key(k)] = v
	}
	for k, v := range o.Frequencies {
		t.Frequencies[key(k)] = v
	}
	for k, v := range o.Priorities {
		t.Priorities[key(k)] = v
	}
	for k, v := range o.EntityTypes {
		t.EntityTypes[key(k)] = v
	}
	for k, v := range o.TimeUnits {
		t.TimeUnits[key(k)] = v
	}
	for k, v := range o.TaxTypes {
		t.TaxTypes[key(k)] = v
	}
	for k, v := range o.PaymentFrequencies {
		t.PaymentFrequencies[key(k)] = v
	}
	t.FuelProducts = append(t.FuelProducts, o.FuelProducts...)
	t.ExpenseProducts = append(t.ExpenseProducts, o.ExpenseProducts...)
	if len(o.Locations) > 0 {
		if t.Locations == nil {
			t.Locations = make(map[string]int64, len(o.Locations))
		}
		for k, v := range o.Locations {
			t.Locations[strings.TrimSpace(k)] = v
		}
	}
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ExpenseTypeID maps an expense type label to its catalog id.
func (t *Tables) ExpenseTypeID(label string) (int64, bool) {
	id, ok := t.ExpenseTypes[key(label)]
	return id, ok
}

// Frequency maps a recurrence label ("mes") to its API value ("month").
func (t *Tables) Frequency(label string) (string, bool) {
	f, ok := t.Frequencies[key(label)]
	return f, ok
}

// Priority maps a priority label, defaulting to medium.
func (t *Tables) Priority(label string) string {
	if p, ok := t.Priorities[key(label)]; ok {
		return p
	}
	return "medium"
}

// EntityType maps an entity type label, defaulting to drivers.
func (t *Tables) EntityType(label string) string {
	if e, ok := t.EntityTypes[key(label)]; ok {
		return e
	}
	return "drivers"
}

// TimeUnit maps a notification unit label, defaulting to hours.
func (t *Tables) TimeUnit(label string) string {
	if u, ok := t.TimeUnits[key(label)]; ok {
		return u
	}
	return "hours"
}

// TaxType maps a tax type label (Porcentaje/Moneda).
func (t *Tables) TaxType(label string) (model.AmountType, bool) {
	tt, ok := t.TaxTypes[key(label)]
	return tt, ok
}

// PaymentFrequency maps a payment frequency label (Mensual, Anual...).
func (t *Tables) PaymentFrequency(label string) (string, bool) {
	f, ok := t.PaymentFrequencies[key(label)]
	return f, ok
}

// FuelProduct returns the fuel product for a feed product code.
func (t *Tables) FuelProduct(code int64) (Product, bool) {
	for _, p := range t.FuelProducts {
		if p.Code == code {
			return p, true
		}
	}
	return Product{}, false
}

// ExpenseProduct returns the expense product for a feed product code.
func (t *Tables) ExpenseProduct(code int64) (Product, bool) {
	for _, p := range t.ExpenseProducts {
		if p.Code == code {
			return p, true
		}
	}
	return Product{}, false
}

// Location maps a feed establishment fiscal code to a location id.
func (t *Tables) Location(fiscalCode string) (int64, bool) {
	id, ok := t.Locations[strings.TrimSpace(fiscalCode)]
	return id, ok
}
