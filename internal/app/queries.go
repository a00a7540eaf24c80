package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"owner_portal/internal/adapters/observability"
	"owner_portal/internal/domain"
)

// QueryService composes the vendor client and the sample-data fallback
// behind one contract. Per request: validate → vendor attempt (one
// re-invocation after a 401-triggered token invalidation) → on success pass
// the vendor body through untouched → on failure serve sample data where a
// fallback exists. When the fallback also fails, the original vendor error
// surfaces; fallback failures are swallowed in favor of the upstream cause.
type QueryService struct {
	vendor   domain.VendorClient
	samples  domain.SampleData
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(v domain.VendorClient, s domain.SampleData, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{vendor: v, samples: s, cache: c, cacheTTL: ttl}
}

// envelope mirrors the vendor's response wrapper so fallback payloads are
// indistinguishable in shape from live ones.
type envelope struct {
	Result any `json:"result"`
	Meta   any `json:"meta,omitempty"`
}

// callVendor executes one vendor request, re-invoking exactly once after an
// auth failure. The 401 already invalidated the cached token, so the retry
// runs on fresh credentials. No other kind is retried here; rate-limit and
// unavailable are backoff signals for the client, not for us.
func (s *QueryService) callVendor(ctx context.Context, req domain.VendorRequest) (json.RawMessage, error) {
	out, err := s.vendor.Execute(ctx, req)
	if err != nil && domain.IsVendorKind(err, domain.VendorAuth) {
		out, err = s.vendor.Execute(ctx, req)
	}
	return out, err
}

func (s *QueryService) Listings(ctx context.Context) (json.RawMessage, error) {
	var cached json.RawMessage
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, "listings", &cached); ok {
			return cached, nil
		}
	}

	raw, verr := s.callVendor(ctx, domain.VendorRequest{Method: http.MethodGet, Path: "/listings"})
	if verr == nil {
		if s.cache != nil {
			if err := s.cache.Set(ctx, "listings", raw, int(s.cacheTTL.Seconds())); err != nil {
				log.Warn().Err(err).Msg("listings cache write failed")
			}
		}
		return raw, nil
	}

	items, ferr := s.samples.Listings(ctx)
	if ferr != nil {
		log.Error().Err(ferr).Msg("listings fallback failed")
		return nil, verr
	}
	log.Warn().Err(verr).Msg("serving sample listings, vendor unavailable")
	observability.ObserveFallback("listings")
	return json.Marshal(envelope{Result: items})
}

func (s *QueryService) ListingByID(ctx context.Context, id int64) (json.RawMessage, error) {
	key := fmt.Sprintf("listing:%d", id)
	var cached json.RawMessage
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	raw, verr := s.callVendor(ctx, domain.VendorRequest{Method: http.MethodGet, Path: fmt.Sprintf("/listings/%d", id)})
	if verr == nil {
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, raw, int(s.cacheTTL.Seconds())); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("listing cache write failed")
			}
		}
		return raw, nil
	}

	item, ferr := s.samples.ListingByID(ctx, id)
	if ferr != nil {
		if ferr != domain.ErrNotFound {
			log.Error().Err(ferr).Int64("id", id).Msg("listing fallback failed")
		}
		return nil, verr
	}
	log.Warn().Err(verr).Int64("id", id).Msg("serving sample listing, vendor unavailable")
	observability.ObserveFallback("listing")
	return json.Marshal(envelope{Result: item})
}

// ReservationsParams carries the raw query-string values. The vendor gets
// them verbatim; the fallback parses them, ignoring unparsable dates and
// falling back to default pagination on non-numeric limit/offset.
// ActingUserID scopes the vendor call to the authenticated owner's Hostaway
// account; the fallback dataset has no per-owner dimension, so it is
// vendor-only.
type ReservationsParams struct {
	ListingID        string
	ArrivalStartDate string
	DepartureEndDate string
	Status           string
	Search           string
	Limit            string
	Offset           string
	ActingUserID     string
}

func (p ReservationsParams) vendorQuery() []domain.QueryParam {
	var q []domain.QueryParam
	add := func(k, v string) {
		if v != "" {
			q = append(q, domain.QueryParam{Key: k, Value: v})
		}
	}
	add("listingId", p.ListingID)
	add("arrivalStartDate", p.ArrivalStartDate)
	add("departureEndDate", p.DepartureEndDate)
	add("status", p.Status)
	add("search", p.Search)
	add("limit", p.Limit)
	add("offset", p.Offset)
	return q
}

func (p ReservationsParams) fallbackFilter() domain.ReservationFilter {
	var f domain.ReservationFilter
	if id, err := strconv.ParseInt(p.ListingID, 10, 64); err == nil && p.ListingID != "" {
		f.ListingID = &id
	}
	if d, err := domain.ParseDate(p.ArrivalStartDate); err == nil && p.ArrivalStartDate != "" {
		f.ArrivalStart = &d
	}
	if d, err := domain.ParseDate(p.DepartureEndDate); err == nil && p.DepartureEndDate != "" {
		f.DepartureEnd = &d
	}
	f.Status = p.Status
	f.Search = p.Search
	f.Limit = intOrDefault(p.Limit, 10)
	f.Offset = intOrDefault(p.Offset, 0)
	return f
}

func intOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (s *QueryService) Reservations(ctx context.Context, p ReservationsParams) (json.RawMessage, error) {
	raw, verr := s.callVendor(ctx, domain.VendorRequest{
		Method:       http.MethodGet,
		Path:         "/reservations",
		Query:        p.vendorQuery(),
		ActingUserID: p.ActingUserID,
	})
	if verr == nil {
		return raw, nil
	}

	page, ferr := s.samples.Reservations(ctx, p.fallbackFilter())
	if ferr != nil {
		log.Error().Err(ferr).Msg("reservations fallback failed")
		return nil, verr
	}
	log.Warn().Err(verr).Msg("serving sample reservations, vendor unavailable")
	observability.ObserveFallback("reservations")
	return json.Marshal(envelope{Result: page.Items, Meta: page.Meta})
}

func (s *QueryService) ReservationByID(ctx context.Context, id int64) (json.RawMessage, error) {
	raw, verr := s.callVendor(ctx, domain.VendorRequest{Method: http.MethodGet, Path: fmt.Sprintf("/reservations/%d", id)})
	if verr == nil {
		return raw, nil
	}

	item, ferr := s.samples.ReservationByID(ctx, id)
	if ferr != nil {
		if ferr != domain.ErrNotFound {
			log.Error().Err(ferr).Int64("id", id).Msg("reservation fallback failed")
		}
		return nil, verr
	}
	log.Warn().Err(verr).Int64("id", id).Msg("serving sample reservation, vendor unavailable")
	observability.ObserveFallback("reservation")
	return json.Marshal(envelope{Result: item})
}

// Calendar has no fallback tier: vendor failures propagate to the client
// with their mapped message.
func (s *QueryService) Calendar(ctx context.Context, listingID, startDate, endDate string) (json.RawMessage, error) {
	var missing []string
	if listingID == "" {
		missing = append(missing, "listingId")
	}
	if startDate == "" {
		missing = append(missing, "startDate")
	}
	if endDate == "" {
		missing = append(missing, "endDate")
	}
	if len(missing) > 0 {
		return nil, missingParamsError(missing)
	}

	return s.callVendor(ctx, domain.VendorRequest{
		Method: http.MethodGet,
		Path:   "/calendar",
		Query: []domain.QueryParam{
			{Key: "listingId", Value: listingID},
			{Key: "startDate", Value: startDate},
			{Key: "endDate", Value: endDate},
		},
	})
}

// ReportRequest is the body of the finance report endpoints. ListingMapIDs
// tolerates an array, a comma-separated string, or a scalar.
type ReportRequest struct {
	ListingMapIDs any    `json:"listingMapIds"`
	FromDate      string `json:"fromDate" validate:"required"`
	ToDate        string `json:"toDate" validate:"required"`
	DateType      string `json:"dateType"`
}

func (s *QueryService) ConsolidatedReport(ctx context.Context, req ReportRequest) (json.RawMessage, error) {
	return s.financeReport(ctx, "/finance/report/consolidated", req)
}

func (s *QueryService) ListingFinancials(ctx context.Context, req ReportRequest) (json.RawMessage, error) {
	return s.financeReport(ctx, "/finance/report/listingFinancials", req)
}

// financeReport validates and normalizes the request, then posts it to the
// vendor. Confirmed-only is a product rule: statuses is always injected.
// No fallback tier for financial data.
func (s *QueryService) financeReport(ctx context.Context, path string, req ReportRequest) (json.RawMessage, error) {
	ids, err := normalizeListingIDs(req.ListingMapIDs)
	if err != nil {
		return nil, err
	}
	from, err := reformatDate("fromDate", req.FromDate)
	if err != nil {
		return nil, err
	}
	to, err := reformatDate("toDate", req.ToDate)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"listingMapIds": ids,
		"fromDate":      from,
		"toDate":        to,
		"statuses":      []string{"confirmed"},
	}
	if req.DateType != "" {
		body["dateType"] = req.DateType
	}

	return s.callVendor(ctx, domain.VendorRequest{Method: http.MethodPost, Path: path, Body: body})
}

// normalizeListingIDs accepts an array (numbers or strings), a
// comma-separated string, or a single scalar, and returns a flat id slice.
func normalizeListingIDs(v any) ([]int64, error) {
	switch t := v.(type) {
	case nil:
		return nil, newValidationError("listingMapIds is required")
	case []any:
		out := make([]int64, 0, len(t))
		for _, e := range t {
			id, err := scalarID(e)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
		if len(out) == 0 {
			return nil, newValidationError("listingMapIds is empty")
		}
		return out, nil
	case string:
		out := make([]int64, 0, 4)
		for _, p := range strings.Split(t, ",") {
			if strings.TrimSpace(p) == "" {
				continue
			}
			id, err := scalarID(p)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
		if len(out) == 0 {
			return nil, newValidationError("listingMapIds is empty")
		}
		return out, nil
	default:
		id, err := scalarID(t)
		if err != nil {
			return nil, err
		}
		return []int64{id}, nil
	}
}

func scalarID(v any) (int64, error) {
	switch t := v.(type) {
	case float64: // encoding/json's number type
		return int64(t), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case json.Number:
		return t.Int64()
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, newValidationError(fmt.Sprintf("invalid listing id %q", t))
		}
		return id, nil
	default:
		return 0, newValidationError(fmt.Sprintf("invalid listing id %v", v))
	}
}

// reformatDate parses and re-emits YYYY-MM-DD; unparsable input is a
// validation error and never reaches the vendor.
func reformatDate(field, value string) (string, error) {
	d, err := domain.ParseDate(value)
	if err != nil {
		return "", newValidationError(fmt.Sprintf("invalid %s: %q", field, value))
	}
	return d.String(), nil
}
