// Package catalog fetches reference data from the fleet API once per run
// and serves pure in-memory lookups keyed by business identifiers.
package catalog

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

// Kind identifies a reference catalog.
type Kind string

const (
	KindVehicles       Kind = "vehicles"
	KindDrivers        Kind = "drivers"
	KindSuppliers      Kind = "suppliers"
	KindPaymentMethods Kind = "payment-methods"

	// Typed catalogs, addressed by their API catalog type.
	KindExpenseTypes   Kind = "EXPENSES-TYPES"
	KindFuelTypes      Kind = "FUEL-TYPES-OF-FUELS"
	KindInsuranceTypes Kind = "INSURANCE-TYPES"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lowercases and strips diacritics so "Peña" and "pena" index the
// same entry. Spanish source sheets mix both spellings freely.
func foldKey(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// CleanPlate strips everything but letters and digits from a registration
// number and uppercases the rest.
func CleanPlate(plate string) string {
	var b strings.Builder
	for _, r := range plate {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Index holds one catalog's entries in API insertion order plus exact-match
// maps over primary and secondary keys. Insertion order is the documented
// tie-break for partial matching: first entry returned by the API wins.
type Index struct {
	kind    Kind
	entries []pulpo.Entry
	keyFn   func(string) string
	byName  map[string]int
	byKey   map[string]int
}

func newIndex(kind Kind, entries []pulpo.Entry, keyFn func(string) string) *Index {
	idx := &Index{
		kind:    kind,
		entries: entries,
		keyFn:   keyFn,
		byName:  make(map[string]int, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		name := foldKey(e.Name)
		if _, dup := idx.byName[name]; !dup && name != "" {
			idx.byName[name] = i
		}
		if e.SecondaryKey == "" {
			continue
		}
		key := keyFn(e.SecondaryKey)
		if _, dup := idx.byKey[key]; !dup && key != "" {
			idx.byKey[key] = i
		}
	}
	return idx
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Entries returns the entries in API insertion order.
func (x *Index) Entries() []pulpo.Entry {
	return x.entries
}

// ByName returns the entry whose folded name matches exactly.
func (x *Index) ByName(name string) (pulpo.Entry, bool) {
	if i, ok := x.byName[foldKey(name)]; ok {
		return x.entries[i], true
	}
	return pulpo.Entry{}, false
}

// ByKey returns the entry whose normalized secondary key matches exactly.
// The query is normalized with the same function used to build the index
// (plate cleaning for vehicles, diacritic folding elsewhere).
func (x *Index) ByKey(key string) (pulpo.Entry, bool) {
	if i, ok := x.byKey[x.keyFn(key)]; ok {
		return x.entries[i], true
	}
	return pulpo.Entry{}, false
}

// Substring returns the first entry (in insertion order) whose folded name
// or secondary key contains the folded query. Deliberately last-resort: the
// caller logs every hit because substring matches can be ambiguous.
func (x *Index) Substring(query string) (pulpo.Entry, int) {
	q := foldKey(query)
	if q == "" {
		return pulpo.Entry{}, 0
	}
	var first pulpo.Entry
	count := 0
	for _, e := range x.entries {
		if strings.Contains(foldKey(e.Name), q) || strings.Contains(foldKey(e.SecondaryKey), q) {
			if count == 0 {
				first = e
			}
			count++
		}
	}
	return first, count
}

// Cache holds all catalogs loaded for one run. Immutable after Load.
type Cache struct {
	indexes map[Kind]*Index
}

// Load fetches the requested catalog kinds. Every requested kind is
// mandatory: an HTTP failure or an empty result aborts the run with
// *model.CatalogLoadError.
func Load(ctx context.Context, client pulpo.Client, kinds ...Kind) (*Cache, error) {
	cache := &Cache{indexes: make(map[Kind]*Index, len(kinds))}

	for _, kind := range kinds {
		entries, err := fetch(ctx, client, kind)
		if err != nil {
			return nil, &model.CatalogLoadError{Kind: string(kind), Err: err}
		}
		if len(entries) == 0 {
			return nil, &model.CatalogLoadError{Kind: string(kind)}
		}

		keyFn := foldKey
		if kind == KindVehicles {
			keyFn = CleanPlate
		}
		cache.indexes[kind] = newIndex(kind, entries, keyFn)
		zap.L().Info("catalog loaded",
			zap.String("kind", string(kind)),
			zap.Int("entries", len(entries)),
		)
	}

	return cache, nil
}

func fetch(ctx context.Context, client pulpo.Client, kind Kind) ([]pulpo.Entry, error) {
	switch kind {
	case KindVehicles:
		return client.ListVehicles(ctx)
	case KindDrivers:
		return client.ListDrivers(ctx)
	case KindSuppliers:
		return client.ListSuppliers(ctx)
	case KindPaymentMethods:
		return client.ListPaymentMethods(ctx)
	default:
		return client.ListCatalog(ctx, string(kind))
	}
}

// Index returns the index for a kind, nil if the kind was not loaded.
func (c *Cache) Index(kind Kind) *Index {
	return c.indexes[kind]
}

// VehicleByPlate looks up a vehicle by punctuation-stripped plate.
func (c *Cache) VehicleByPlate(plate string) (pulpo.Entry, bool) {
	idx := c.indexes[KindVehicles]
	if idx == nil {
		return pulpo.Entry{}, false
	}
	return idx.ByKey(plate)
}

// DriverByName looks up a driver by exact folded name.
func (c *Cache) DriverByName(name string) (pulpo.Entry, bool) {
	idx := c.indexes[KindDrivers]
	if idx == nil {
		return pulpo.Entry{}, false
	}
	return idx.ByName(name)
}

// DriverByEmail looks up a driver by email.
func (c *Cache) DriverByEmail(email string) (pulpo.Entry, bool) {
	idx := c.indexes[KindDrivers]
	if idx == nil {
		return pulpo.Entry{}, false
	}
	return idx.ByKey(email)
}

// PaymentMethodBySlug looks up a payment method by slug (e.g. card number).
func (c *Cache) PaymentMethodBySlug(slug string) (pulpo.Entry, bool) {
	idx := c.indexes[KindPaymentMethods]
	if idx == nil {
		return pulpo.Entry{}, false
	}
	return idx.ByKey(slug)
}

// SupplierByName looks up a supplier by exact folded name.
func (c *Cache) SupplierByName(name string) (pulpo.Entry, bool) {
	idx := c.indexes[KindSuppliers]
	if idx == nil {
		return pulpo.Entry{}, false
	}
	return idx.ByName(name)
}

// CatalogItemByReferenceCode looks up a typed catalog item by its reference
// code.
func (c *Cache) CatalogItemByReferenceCode(kind Kind, code string) (pulpo.Entry, bool) {
	idx := c.indexes[kind]
	if idx == nil {
		return pulpo.Entry{}, false
	}
	return idx.ByKey(code)
}
