package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

type fakeClient struct {
	pulpo.Client
}

func (fakeClient) ListVehicles(context.Context) ([]pulpo.Entry, error) {
	return []pulpo.Entry{
		{ID: 100, Name: "Furgoneta Norte", SecondaryKey: "1234-ABC"},
		{ID: 101, Name: "Furgoneta Sur", SecondaryKey: "5678-DEF"},
	}, nil
}

func (fakeClient) ListDrivers(context.Context) ([]pulpo.Entry, error) {
	return []pulpo.Entry{
		{ID: 200, Name: "José Peña", SecondaryKey: "jose@fleet.es"},
		{ID: 201, Name: "María García", SecondaryKey: "maria@fleet.es"},
	}, nil
}

func (fakeClient) ListSuppliers(context.Context) ([]pulpo.Entry, error) {
	return []pulpo.Entry{
		{ID: 300, Name: "Repsol Comercial S.A."},
		{ID: 301, Name: "Talleres López"},
	}, nil
}

func (fakeClient) ListPaymentMethods(context.Context) ([]pulpo.Entry, error) {
	return []pulpo.Entry{
		{ID: 400, Name: "Tarjeta flota", SecondaryKey: "7701234567"},
	}, nil
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	cache, err := catalog.Load(context.Background(), fakeClient{},
		catalog.KindVehicles,
		catalog.KindDrivers,
		catalog.KindSuppliers,
		catalog.KindPaymentMethods,
	)
	require.NoError(t, err)
	return New(cache)
}

func TestVehicle(t *testing.T) {
	t.Parallel()
	r := testResolver(t)

	t.Run("by plate with punctuation", func(t *testing.T) {
		t.Parallel()
		e, err := r.Vehicle("Matricula", "1234 abc")
		require.NoError(t, err)
		assert.Equal(t, int64(100), e.ID)
	})

	t.Run("by exact name", func(t *testing.T) {
		t.Parallel()
		e, err := r.Vehicle("Matricula", "furgoneta norte")
		require.NoError(t, err)
		assert.Equal(t, int64(100), e.ID)
	})

	t.Run("miss is fatal to the row", func(t *testing.T) {
		t.Parallel()
		_, err := r.Vehicle("Matricula", "9999-ZZZ")
		var nfErr *model.EntityNotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, "Matricula", nfErr.Field)
		assert.Equal(t, "9999-ZZZ", nfErr.Value)
	})
}

func TestDriver(t *testing.T) {
	t.Parallel()
	r := testResolver(t)

	t.Run("by email", func(t *testing.T) {
		t.Parallel()
		e, err := r.Driver("Email conductor", "JOSE@fleet.es")
		require.NoError(t, err)
		assert.Equal(t, int64(200), e.ID)
	})

	t.Run("by folded name", func(t *testing.T) {
		t.Parallel()
		e, err := r.Driver("Responsable", "maria garcia")
		require.NoError(t, err)
		assert.Equal(t, int64(201), e.ID)
	})

	t.Run("optional absence is not an error", func(t *testing.T) {
		t.Parallel()
		_, ok := r.OptionalDriver("Email conductor", "")
		assert.False(t, ok)
		_, ok = r.OptionalDriver("Email conductor", "nobody@fleet.es")
		assert.False(t, ok)
		e, ok := r.OptionalDriver("Email conductor", "maria@fleet.es")
		require.True(t, ok)
		assert.Equal(t, int64(201), e.ID)
	})
}

func TestSupplierSubstringFallback(t *testing.T) {
	t.Parallel()
	r := testResolver(t)

	e, err := r.Supplier("Proveedor", "Repsol")
	require.NoError(t, err)
	assert.Equal(t, int64(300), e.ID)

	e, err = r.Supplier("Proveedor", "lópez")
	require.NoError(t, err)
	assert.Equal(t, int64(301), e.ID)
}

func TestPaymentMethodBySlug(t *testing.T) {
	t.Parallel()
	r := testResolver(t)

	e, err := r.PaymentMethod("Medio de pago", "7701234567")
	require.NoError(t, err)
	assert.Equal(t, int64(400), e.ID)

	_, err = r.PaymentMethod("Medio de pago", "0000000000")
	var nfErr *model.EntityNotFoundError
	require.ErrorAs(t, err, &nfErr)
}
