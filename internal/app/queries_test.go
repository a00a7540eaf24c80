package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"owner_portal/internal/app"
	"owner_portal/internal/domain"
)

// ---- fakes ----

// fakeVendor pops one scripted error per call; a nil entry (or running out
// of entries) means success with the canned body. It records every request.
type fakeVendor struct {
	body     json.RawMessage
	errs     []error
	calls    int
	requests []domain.VendorRequest
}

func (f *fakeVendor) Execute(ctx context.Context, req domain.VendorRequest) (json.RawMessage, error) {
	f.calls++
	f.requests = append(f.requests, req)
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err != nil {
		return nil, err
	}
	if f.body == nil {
		return json.RawMessage(`{"result":[]}`), nil
	}
	return f.body, nil
}

type fakeSamples struct {
	listings     []domain.Listing
	reservations []domain.Reservation
	err          error
}

func (f *fakeSamples) Listings(ctx context.Context) ([]domain.Listing, error) {
	return f.listings, f.err
}

func (f *fakeSamples) ListingByID(ctx context.Context, id int64) (domain.Listing, error) {
	if f.err != nil {
		return domain.Listing{}, f.err
	}
	for _, l := range f.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Listing{}, domain.ErrNotFound
}

func (f *fakeSamples) Reservations(ctx context.Context, _ domain.ReservationFilter) (domain.ReservationPage, error) {
	if f.err != nil {
		return domain.ReservationPage{}, f.err
	}
	return domain.ReservationPage{Items: f.reservations, Meta: domain.PageMeta{Total: len(f.reservations), Limit: 10}}, nil
}

func (f *fakeSamples) ReservationByID(ctx context.Context, id int64) (domain.Reservation, error) {
	if f.err != nil {
		return domain.Reservation{}, f.err
	}
	for _, r := range f.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}

type fakeCache struct {
	store  map[string][]byte
	setErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.setErr != nil {
		return c.setErr
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func unavailableErr() *domain.VendorError {
	return domain.NewVendorError(domain.VendorUnavailable, 503, "", "vendor unavailable, retry later")
}

func authErr() *domain.VendorError {
	return domain.NewVendorError(domain.VendorAuth, 401, "", "vendor authentication failed, retry")
}

// ---- tests ----

func TestListings_FallbackMasksVendorError(t *testing.T) {
	vendor := &fakeVendor{errs: []error{unavailableErr()}}
	samples := &fakeSamples{listings: []domain.Listing{{ID: 101, Name: "Seabreeze Cottage"}}}
	q := app.NewQueryService(vendor, samples, &fakeCache{}, time.Minute)

	raw, err := q.Listings(context.Background())
	if err != nil {
		t.Fatalf("expected masked error, got %v", err)
	}
	var out struct {
		Result []domain.Listing `json:"result"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if len(out.Result) != 1 || out.Result[0].Name != "Seabreeze Cottage" {
		t.Fatalf("unexpected fallback payload: %s", raw)
	}
}

func TestListings_DoubleFailureSurfacesVendorError(t *testing.T) {
	vendor := &fakeVendor{errs: []error{unavailableErr()}}
	samples := &fakeSamples{err: errors.New("dataset corrupted")}
	q := app.NewQueryService(vendor, samples, nil, time.Minute)

	_, err := q.Listings(context.Background())
	if !domain.IsVendorKind(err, domain.VendorUnavailable) {
		t.Fatalf("expected the original vendor error, got %v", err)
	}
}

func TestListings_VendorSuccessPassesThrough(t *testing.T) {
	body := json.RawMessage(`{"result":[{"id":7,"name":"Live Listing"}]}`)
	vendor := &fakeVendor{body: body}
	q := app.NewQueryService(vendor, &fakeSamples{}, nil, time.Minute)

	raw, err := q.Listings(context.Background())
	if err != nil {
		t.Fatalf("Listings: %v", err)
	}
	if string(raw) != string(body) {
		t.Fatalf("vendor body altered: %s", raw)
	}
}

func TestListings_CacheHitSkipsVendor(t *testing.T) {
	vendor := &fakeVendor{body: json.RawMessage(`{"result":[1]}`)}
	cache := &fakeCache{}
	q := app.NewQueryService(vendor, &fakeSamples{}, cache, time.Minute)

	if _, err := q.Listings(context.Background()); err != nil {
		t.Fatalf("first Listings: %v", err)
	}
	if _, err := q.Listings(context.Background()); err != nil {
		t.Fatalf("second Listings: %v", err)
	}
	if vendor.calls != 1 {
		t.Fatalf("expected 1 vendor call, got %d", vendor.calls)
	}
}

func TestListings_CacheWriteFailureIsSoft(t *testing.T) {
	vendor := &fakeVendor{body: json.RawMessage(`{"result":[{"id":101}]}`)}
	cache := &fakeCache{setErr: errors.New("redis down")}
	q := app.NewQueryService(vendor, &fakeSamples{}, cache, time.Minute)

	raw, err := q.Listings(context.Background())
	if err != nil {
		t.Fatalf("cache write failure surfaced: %v", err)
	}
	if string(raw) != `{"result":[{"id":101}]}` {
		t.Fatalf("body = %s", raw)
	}
}

func TestCallVendor_RetriesOnceAfterAuthFailure(t *testing.T) {
	vendor := &fakeVendor{errs: []error{authErr()}, body: json.RawMessage(`{"result":[]}`)}
	q := app.NewQueryService(vendor, &fakeSamples{}, nil, time.Minute)

	if _, err := q.Calendar(context.Background(), "101", "2024-01-01", "2024-01-31"); err != nil {
		t.Fatalf("expected success after reauth retry, got %v", err)
	}
	if vendor.calls != 2 {
		t.Fatalf("expected 2 vendor calls, got %d", vendor.calls)
	}
}

func TestCallVendor_NoSecondRetry(t *testing.T) {
	vendor := &fakeVendor{errs: []error{authErr(), authErr()}}
	samples := &fakeSamples{}
	q := app.NewQueryService(vendor, samples, nil, time.Minute)

	_, err := q.Calendar(context.Background(), "101", "2024-01-01", "2024-01-31")
	if !domain.IsVendorKind(err, domain.VendorAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if vendor.calls != 2 {
		t.Fatalf("expected exactly 2 vendor calls, got %d", vendor.calls)
	}
}

func TestCalendar_ValidatesBeforeVendorCall(t *testing.T) {
	vendor := &fakeVendor{}
	q := app.NewQueryService(vendor, &fakeSamples{}, nil, time.Minute)

	_, err := q.Calendar(context.Background(), "", "2024-01-01", "")
	var ve *app.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, want := range []string{"listingId", "endDate"} {
		if !strings.Contains(ve.Error(), want) {
			t.Fatalf("message %q does not name %s", ve.Error(), want)
		}
	}
	if vendor.calls != 0 {
		t.Fatalf("vendor must not be called, got %d calls", vendor.calls)
	}
}

func TestCalendar_NoFallbackPropagatesVendorError(t *testing.T) {
	vendor := &fakeVendor{errs: []error{unavailableErr()}}
	q := app.NewQueryService(vendor, &fakeSamples{}, nil, time.Minute)

	_, err := q.Calendar(context.Background(), "101", "2024-01-01", "2024-01-31")
	verr := domain.AsVendorError(err)
	if verr == nil || verr.Message != "vendor unavailable, retry later" {
		t.Fatalf("expected mapped vendor error, got %v", err)
	}
}

func TestReservations_FallbackUsesParsedFilter(t *testing.T) {
	vendor := &fakeVendor{errs: []error{unavailableErr()}}
	samples := &fakeSamples{reservations: []domain.Reservation{{ID: 9001, GuestName: "Alice"}}}
	q := app.NewQueryService(vendor, samples, nil, time.Minute)

	raw, err := q.Reservations(context.Background(), app.ReservationsParams{Limit: "not-a-number", Offset: "-3"})
	if err != nil {
		t.Fatalf("Reservations: %v", err)
	}
	var out struct {
		Result []domain.Reservation `json:"result"`
		Meta   domain.PageMeta      `json:"meta"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if len(out.Result) != 1 {
		t.Fatalf("unexpected fallback payload: %s", raw)
	}
}

func TestReservations_VendorQueryKeepsRawParams(t *testing.T) {
	vendor := &fakeVendor{}
	q := app.NewQueryService(vendor, &fakeSamples{}, nil, time.Minute)

	_, err := q.Reservations(context.Background(), app.ReservationsParams{
		ListingID: "101",
		Status:    "confirmed",
		Limit:     "5",
	})
	if err != nil {
		t.Fatalf("Reservations: %v", err)
	}
	req := vendor.requests[0]
	want := []domain.QueryParam{
		{Key: "listingId", Value: "101"},
		{Key: "status", Value: "confirmed"},
		{Key: "limit", Value: "5"},
	}
	if len(req.Query) != len(want) {
		t.Fatalf("query = %+v", req.Query)
	}
	for i := range want {
		if req.Query[i] != want[i] {
			t.Fatalf("query[%d] = %+v, want %+v", i, req.Query[i], want[i])
		}
	}
}

func TestReservations_ActingUserScopesVendorCall(t *testing.T) {
	vendor := &fakeVendor{}
	q := app.NewQueryService(vendor, &fakeSamples{}, nil, time.Minute)

	_, err := q.Reservations(context.Background(), app.ReservationsParams{
		Status:       "confirmed",
		ActingUserID: "55",
	})
	if err != nil {
		t.Fatalf("Reservations: %v", err)
	}
	if got := vendor.requests[0].ActingUserID; got != "55" {
		t.Fatalf("ActingUserID = %q, want %q", got, "55")
	}
}

func TestFinanceReport_NormalizesRequest(t *testing.T) {
	cases := []struct {
		name string
		ids  any
		want []int64
	}{
		{"array of numbers", []any{float64(1), float64(2)}, []int64{1, 2}},
		{"array of strings", []any{"3", "4"}, []int64{3, 4}},
		{"csv string", "1, 2,3", []int64{1, 2, 3}},
		{"scalar number", float64(9), []int64{9}},
		{"scalar string", "42", []int64{42}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vendor := &fakeVendor{}
			q := app.NewQueryService(vendor, &fakeSamples{}, nil, time.Minute)

			_, err := q.ConsolidatedReport(context.Background(), app.ReportRequest{
				ListingMapIDs: tc.ids,
				FromDate:      "2024-01-15T10:30:00Z",
				ToDate:        "2024-02-15",
				DateType:      "arrivalDate",
			})
			if err != nil {
				t.Fatalf("ConsolidatedReport: %v", err)
			}

			body := vendor.requests[0].Body.(map[string]any)
			gotIDs := body["listingMapIds"].([]int64)
			if len(gotIDs) != len(tc.want) {
				t.Fatalf("ids = %v, want %v", gotIDs, tc.want)
			}
			for i := range tc.want {
				if gotIDs[i] != tc.want[i] {
					t.Fatalf("ids = %v, want %v", gotIDs, tc.want)
				}
			}
			if body["fromDate"] != "2024-01-15" || body["toDate"] != "2024-02-15" {
				t.Fatalf("dates not reformatted: %v", body)
			}
			statuses := body["statuses"].([]string)
			if len(statuses) != 1 || statuses[0] != "confirmed" {
				t.Fatalf("statuses = %v", statuses)
			}
		})
	}
}

func TestFinanceReport_InvalidDateFailsBeforeVendorCall(t *testing.T) {
	vendor := &fakeVendor{}
	q := app.NewQueryService(vendor, &fakeSamples{}, nil, time.Minute)

	_, err := q.ConsolidatedReport(context.Background(), app.ReportRequest{
		ListingMapIDs: []any{float64(1)},
		FromDate:      "not-a-date",
		ToDate:        "2024-02-15",
	})
	var ve *app.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vendor.calls != 0 {
		t.Fatalf("vendor must not be called, got %d calls", vendor.calls)
	}
}

func TestFinanceReport_MissingIDsFails(t *testing.T) {
	q := app.NewQueryService(&fakeVendor{}, &fakeSamples{}, nil, time.Minute)
	_, err := q.ConsolidatedReport(context.Background(), app.ReportRequest{FromDate: "2024-01-01", ToDate: "2024-02-01"})
	var ve *app.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
