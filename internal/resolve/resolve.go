// Package resolve matches normalized identifiers against the catalog cache.
// Matching order is exact primary key, exact secondary key, then substring
// containment; the first entry in catalog insertion order wins, which makes
// ties deterministic for a fixed API response.
package resolve

import (
	"go.uber.org/zap"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

// Resolver performs entity lookups against a loaded catalog cache.
type Resolver struct {
	cache *catalog.Cache
}

// New creates a Resolver over the given cache.
func New(cache *catalog.Cache) *Resolver {
	return &Resolver{cache: cache}
}

// find runs the three-stage lookup for one field. The substring stage can
// silently pick the wrong entity when several names share the query as a
// fragment, so every substring hit is logged with the candidate count.
func (r *Resolver) find(idx *catalog.Index, field, value string) (pulpo.Entry, bool) {
	if idx == nil || value == "" {
		return pulpo.Entry{}, false
	}

	if e, ok := idx.ByName(value); ok {
		return e, true
	}
	if e, ok := idx.ByKey(value); ok {
		return e, true
	}

	e, count := idx.Substring(value)
	if count == 0 {
		return pulpo.Entry{}, false
	}
	zap.L().Warn("resolved by substring fallback",
		zap.String("field", field),
		zap.String("value", value),
		zap.Int64("matched_id", e.ID),
		zap.String("matched_name", e.Name),
		zap.Int("candidates", count),
	)
	return e, true
}

// Vehicle resolves a vehicle by name or plate. Required: a miss is an
// EntityNotFoundError.
func (r *Resolver) Vehicle(field, value string) (pulpo.Entry, error) {
	if e, ok := r.cache.VehicleByPlate(value); ok {
		return e, nil
	}
	if e, ok := r.find(r.cache.Index(catalog.KindVehicles), field, value); ok {
		return e, nil
	}
	return pulpo.Entry{}, &model.EntityNotFoundError{Field: field, Value: value}
}

// Driver resolves a driver by name or email.
func (r *Resolver) Driver(field, value string) (pulpo.Entry, error) {
	if e, ok := r.cache.DriverByEmail(value); ok {
		return e, nil
	}
	if e, ok := r.find(r.cache.Index(catalog.KindDrivers), field, value); ok {
		return e, nil
	}
	return pulpo.Entry{}, &model.EntityNotFoundError{Field: field, Value: value}
}

// OptionalDriver resolves a driver, reporting absence without error.
func (r *Resolver) OptionalDriver(field, value string) (pulpo.Entry, bool) {
	if value == "" {
		return pulpo.Entry{}, false
	}
	e, err := r.Driver(field, value)
	if err != nil {
		return pulpo.Entry{}, false
	}
	return e, true
}

// Supplier resolves a supplier by name.
func (r *Resolver) Supplier(field, value string) (pulpo.Entry, error) {
	if e, ok := r.find(r.cache.Index(catalog.KindSuppliers), field, value); ok {
		return e, nil
	}
	return pulpo.Entry{}, &model.EntityNotFoundError{Field: field, Value: value}
}

// PaymentMethod resolves a payment method by slug (typically a card number).
func (r *Resolver) PaymentMethod(field, value string) (pulpo.Entry, error) {
	if e, ok := r.cache.PaymentMethodBySlug(value); ok {
		return e, nil
	}
	if e, ok := r.find(r.cache.Index(catalog.KindPaymentMethods), field, value); ok {
		return e, nil
	}
	return pulpo.Entry{}, &model.EntityNotFoundError{Field: field, Value: value}
}

// CatalogItem resolves a typed catalog item by reference code, falling back
// to the name lookup chain.
func (r *Resolver) CatalogItem(kind catalog.Kind, field, value string) (pulpo.Entry, error) {
	if e, ok := r.cache.CatalogItemByReferenceCode(kind, value); ok {
		return e, nil
	}
	if e, ok := r.find(r.cache.Index(kind), field, value); ok {
		return e, nil
	}
	return pulpo.Entry{}, &model.EntityNotFoundError{Field: field, Value: value}
}
