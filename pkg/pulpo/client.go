// Package pulpo provides a client for the fleet-management REST API: list
// endpoints for reference catalogs and create/update endpoints for the
// records the importer submits.
package pulpo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/getpulpo/fleet-importer/internal/model"
)

// Entry is the projection of any reference entity the importer needs:
// id, display name, and an optional secondary key (plate, email, slug,
// or catalog reference code).
type Entry struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SecondaryKey string `json:"secondaryKey,omitempty"`
}

// Client defines the fleet API operations used by the import pipeline.
type Client interface {
	ValidateToken(ctx context.Context) error

	ListVehicles(ctx context.Context) ([]Entry, error)
	ListDrivers(ctx context.Context) ([]Entry, error)
	ListSuppliers(ctx context.Context) ([]Entry, error)
	ListPaymentMethods(ctx context.Context) ([]Entry, error)
	ListCatalog(ctx context.Context, kind string) ([]Entry, error)

	CreateExpense(ctx context.Context, e *model.Expense) (int64, error)
	CreateFuel(ctx context.Context, f *model.Fuel) (int64, error)
	CreateScheduledExpense(ctx context.Context, s *model.ScheduledExpense) (int64, error)
	CreateReminder(ctx context.Context, r *model.Reminder) (int64, error)
	UpdateVehicleInsurance(ctx context.Context, ins *model.Insurance) (int64, error)
}

// APIError is a non-2xx response from the fleet API. It is not transient:
// the payload is routed to the submission-error artifact, never retried
// within the run.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pulpo: status %d: %s", e.Status, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom v1 base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithBaseURLV2 sets a custom v2 base URL (for testing).
func WithBaseURLV2(u string) Option {
	return func(c *httpClient) {
		c.baseURLV2 = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit caps the outbound request rate.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

type httpClient struct {
	token     string
	baseURL   string
	baseURLV2 string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a fleet API client authenticated with a bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:     token,
		baseURL:   "https://eu1.getpulpo.com/api/v1",
		baseURLV2: "https://eu1.getpulpo.com/api/v2",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes a request with exponential backoff on transient failures
// (429, 5xx, transport errors). Request bodies are re-materialized from the
// given byte slice on each attempt.
func (c *httpClient) retryDo(ctx context.Context, method, rawURL string, body []byte) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, eris.Wrap(err, "pulpo: rate limiter wait")
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, 0, eris.Wrap(err, "pulpo: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				zap.L().Warn("pulpo request failed, retrying",
					zap.String("url", rawURL),
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "pulpo: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("pulpo: status %d: %s", resp.StatusCode, string(respBody))
			zap.L().Warn("pulpo transient status, retrying",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt),
			)
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return respBody, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) ValidateToken(ctx context.Context) error {
	body, status, err := c.retryDo(ctx, http.MethodGet, c.baseURL+"/scheduled-expenses/", nil)
	if err != nil {
		return eris.Wrap(err, "pulpo: validate token")
	}
	if status != http.StatusOK {
		return &APIError{Status: status, Body: string(body)}
	}
	return nil
}

// listParams is the skip/take query shared by the paginated list endpoints.
// take=0 asks for all rows.
func listParams(extra url.Values) string {
	q := url.Values{}
	q.Set("skip", "0")
	q.Set("take", "0")
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return q.Encode()
}

func (c *httpClient) ListVehicles(ctx context.Context) ([]Entry, error) {
	body, status, err := c.retryDo(ctx, http.MethodGet, c.baseURL+"/vehicles?"+listParams(nil), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pulpo: list vehicles")
	}
	if status != http.StatusOK {
		return nil, &APIError{Status: status, Body: string(body)}
	}

	var result struct {
		Vehicles []struct {
			ID                 int64  `json:"id"`
			Name               string `json:"name"`
			RegistrationNumber string `json:"registrationNumber"`
		} `json:"vehicles"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pulpo: unmarshal vehicles")
	}

	entries := make([]Entry, 0, len(result.Vehicles))
	for _, v := range result.Vehicles {
		entries = append(entries, Entry{ID: v.ID, Name: v.Name, SecondaryKey: v.RegistrationNumber})
	}
	return entries, nil
}

// ListDrivers fetches all driver users. The users endpoint caps take, so it
// is a two-phase retrieval: count via take=1, then fetch all rows.
func (c *httpClient) ListDrivers(ctx context.Context) ([]Entry, error) {
	countURL := c.baseURL + "/users?skip=0&take=1&userType=4"
	body, status, err := c.retryDo(ctx, http.MethodGet, countURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pulpo: count drivers")
	}
	if status != http.StatusOK {
		return nil, &APIError{Status: status, Body: string(body)}
	}

	var meta struct {
		Metadata struct {
			TotalRows int `json:"_total_rows"`
		} `json:"_metadata"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, eris.Wrap(err, "pulpo: unmarshal driver count")
	}
	if meta.Metadata.TotalRows == 0 {
		return nil, nil
	}

	fetchURL := c.baseURL + "/users?skip=0&take=" + strconv.Itoa(meta.Metadata.TotalRows) + "&userType=4"
	body, status, err = c.retryDo(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pulpo: list drivers")
	}
	if status != http.StatusOK {
		return nil, &APIError{Status: status, Body: string(body)}
	}

	var result struct {
		List []struct {
			ID    int64  `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"list"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pulpo: unmarshal drivers")
	}

	entries := make([]Entry, 0, len(result.List))
	for _, d := range result.List {
		entries = append(entries, Entry{ID: d.ID, Name: d.Name, SecondaryKey: d.Email})
	}
	return entries, nil
}

func (c *httpClient) ListSuppliers(ctx context.Context) ([]Entry, error) {
	extra := url.Values{}
	extra.Set("collectionType", "supplier")
	body, status, err := c.retryDo(ctx, http.MethodGet, c.baseURL+"/suppliers?"+listParams(extra), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pulpo: list suppliers")
	}
	if status != http.StatusOK {
		return nil, &APIError{Status: status, Body: string(body)}
	}

	var result struct {
		Suppliers []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"suppliers"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pulpo: unmarshal suppliers")
	}

	entries := make([]Entry, 0, len(result.Suppliers))
	for _, s := range result.Suppliers {
		entries = append(entries, Entry{ID: s.ID, Name: s.Name})
	}
	return entries, nil
}

func (c *httpClient) ListPaymentMethods(ctx context.Context) ([]Entry, error) {
	body, status, err := c.retryDo(ctx, http.MethodGet, c.baseURL+"/payment-methods?"+listParams(nil), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pulpo: list payment methods")
	}
	if status != http.StatusOK {
		return nil, &APIError{Status: status, Body: string(body)}
	}

	var result struct {
		PaymentMethods []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"paymentMethods"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pulpo: unmarshal payment methods")
	}

	entries := make([]Entry, 0, len(result.PaymentMethods))
	for _, p := range result.PaymentMethods {
		entries = append(entries, Entry{ID: p.ID, Name: p.Name, SecondaryKey: p.Slug})
	}
	return entries, nil
}

// ListCatalog fetches a typed catalog (e.g. EXPENSES-TYPES,
// FUEL-TYPES-OF-FUELS, INSURANCE-TYPES) projected to id, name, and
// reference code.
func (c *httpClient) ListCatalog(ctx context.Context, kind string) ([]Entry, error) {
	body, status, err := c.retryDo(ctx, http.MethodGet, c.baseURL+"/catalogs/"+url.PathEscape(kind), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "pulpo: list catalog %s", kind)
	}
	if status != http.StatusOK {
		return nil, &APIError{Status: status, Body: string(body)}
	}

	var items []struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		ReferenceCode string `json:"referenceCode"`
	}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, eris.Wrapf(err, "pulpo: unmarshal catalog %s", kind)
	}

	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, Entry{ID: it.ID, Name: it.Name, SecondaryKey: it.ReferenceCode})
	}
	return entries, nil
}

// create posts a payload and returns the created record's id. A non-2xx
// status yields *APIError so callers can distinguish rejection from
// transport failure.
func (c *httpClient) create(ctx context.Context, rawURL string, payload any) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, eris.Wrap(err, "pulpo: marshal payload")
	}

	respBody, status, err := c.retryDo(ctx, http.MethodPost, rawURL, body)
	if err != nil {
		return 0, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return 0, &APIError{Status: status, Body: string(respBody)}
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		// Some create endpoints return an empty body on 201.
		return 0, nil
	}
	return result.ID, nil
}

func (c *httpClient) CreateExpense(ctx context.Context, e *model.Expense) (int64, error) {
	return c.create(ctx, c.baseURL+"/expenses?omitOdometerIfFails=true", e)
}

func (c *httpClient) CreateFuel(ctx context.Context, f *model.Fuel) (int64, error) {
	return c.create(ctx, c.baseURL+"/fuels?omitOdometerIfFails=true", f)
}

func (c *httpClient) CreateScheduledExpense(ctx context.Context, s *model.ScheduledExpense) (int64, error) {
	return c.create(ctx, c.baseURL+"/scheduled-expenses/", s)
}

func (c *httpClient) CreateReminder(ctx context.Context, r *model.Reminder) (int64, error) {
	return c.create(ctx, c.baseURLV2+"/reminders", r)
}

func (c *httpClient) UpdateVehicleInsurance(ctx context.Context, ins *model.Insurance) (int64, error) {
	body, err := json.Marshal(ins)
	if err != nil {
		return 0, eris.Wrap(err, "pulpo: marshal insurance")
	}

	rawURL := c.baseURL + "/vehicles/" + strconv.FormatInt(ins.VehicleID, 10) + "/properties"
	respBody, status, err := c.retryDo(ctx, http.MethodPut, rawURL, body)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return 0, &APIError{Status: status, Body: string(respBody)}
	}
	return ins.VehicleID, nil
}
