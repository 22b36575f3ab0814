package pulpo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpulpo/fleet-importer/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token",
		WithBaseURL(srv.URL),
		WithBaseURLV2(srv.URL+"/v2"),
		WithRateLimit(1000),
	)
}

func TestListVehicles(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vehicles", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "0", r.URL.Query().Get("skip"))
		assert.Equal(t, "0", r.URL.Query().Get("take"))

		json.NewEncoder(w).Encode(map[string]any{
			"vehicles": []map[string]any{
				{"id": 1, "name": "Furgoneta", "registrationNumber": "1234-ABC"},
			},
		})
	}))

	entries, err := client.ListVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{ID: 1, Name: "Furgoneta", SecondaryKey: "1234-ABC"}, entries[0])
}

func TestListDriversTwoPhase(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("userType"))

		switch calls.Add(1) {
		case 1:
			assert.Equal(t, "1", r.URL.Query().Get("take"))
			json.NewEncoder(w).Encode(map[string]any{
				"_metadata": map[string]any{"_total_rows": 2},
				"list":      []map[string]any{{"id": 1}},
			})
		default:
			assert.Equal(t, "2", r.URL.Query().Get("take"))
			json.NewEncoder(w).Encode(map[string]any{
				"list": []map[string]any{
					{"id": 1, "name": "José Peña", "email": "jose@fleet.es"},
					{"id": 2, "name": "María García", "email": "maria@fleet.es"},
				},
			})
		}
	}))

	entries, err := client.ListDrivers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, entries, 2)
	assert.Equal(t, "jose@fleet.es", entries[0].SecondaryKey)
}

func TestListSuppliersFiltersCollectionType(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "supplier", r.URL.Query().Get("collectionType"))
		json.NewEncoder(w).Encode(map[string]any{
			"suppliers": []map[string]any{{"id": 9, "name": "Repsol"}},
		})
	}))

	entries, err := client.ListSuppliers(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(9), entries[0].ID)
}

func TestListCatalog(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalogs/FUEL-TYPES-OF-FUELS", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 7, "name": "Gasóleo A", "referenceCode": "1"},
		})
	}))

	entries, err := client.ListCatalog(context.Background(), "FUEL-TYPES-OF-FUELS")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{ID: 7, Name: "Gasóleo A", SecondaryKey: "1"}, entries[0])
}

func TestCreateExpense(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/expenses", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("omitOdometerIfFails"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var e model.Expense
		require.NoError(t, json.NewDecoder(r.Body).Decode(&e))
		assert.Equal(t, int64(100), e.VehicleID)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 555})
	}))

	id, err := client.CreateExpense(context.Background(), &model.Expense{VehicleID: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)
}

func TestCreateRejectionIsAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"vehicleId is required"}`))
	}))

	_, err := client.CreateExpense(context.Background(), &model.Expense{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Body, "vehicleId is required")
}

func TestRetryOnTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 7})
	}))
	t.Cleanup(srv.Close)

	client := NewClient("test-token", WithBaseURL(srv.URL), WithRateLimit(1000))

	id, err := client.CreateScheduledExpense(context.Background(), &model.ScheduledExpense{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int32(3), calls.Load())
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/scheduled-expenses/", r.URL.Path)
			w.Write([]byte(`[]`))
		}))
		assert.NoError(t, client.ValidateToken(context.Background()))
	})

	t.Run("unauthorized", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		err := client.ValidateToken(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	})
}

func TestCreateReminderUsesV2(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/reminders", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"id": 31})
	}))

	id, err := client.CreateReminder(context.Background(), &model.Reminder{Name: "ITV"})
	require.NoError(t, err)
	assert.Equal(t, int64(31), id)
}

func TestUpdateVehicleInsurance(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/vehicles/100/properties", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "POL-1", body["insurancePolicyNumber"])
		assert.NotContains(t, body, "VehicleID")

		w.WriteHeader(http.StatusOK)
	}))

	id, err := client.UpdateVehicleInsurance(context.Background(), &model.Insurance{
		VehicleID:    100,
		PolicyNumber: "POL-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), id)
}
