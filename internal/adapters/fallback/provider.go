// internal/adapters/fallback/provider.go
package fallback

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"owner_portal/internal/domain"
)

//go:embed data/sample_data.json
var sampleJSON []byte

const (
	defaultLimit  = 10
	defaultOffset = 0
)

// Provider serves the bundled sample dataset when the vendor is unreachable
// or erroring. It is not live vendor state; filtering and pagination emulate
// the vendor's query semantics so clients see the same shape either way.
type Provider struct {
	listings     []domain.Listing
	reservations []domain.Reservation
}

// New loads the embedded dataset. City/country are derived from each
// listing's full address via the best-effort comma-segment split.
func New() (*Provider, error) {
	var data struct {
		Listings     []domain.Listing     `json:"listings"`
		Reservations []domain.Reservation `json:"reservations"`
	}
	if err := json.Unmarshal(sampleJSON, &data); err != nil {
		return nil, fmt.Errorf("fallback: malformed sample dataset: %w", err)
	}
	for i := range data.Listings {
		data.Listings[i].City, data.Listings[i].Country = SplitAddress(data.Listings[i].Address)
	}
	return &Provider{listings: data.Listings, reservations: data.Reservations}, nil
}

// NewWithData builds a provider over caller-supplied records. Used in tests.
func NewWithData(listings []domain.Listing, reservations []domain.Reservation) *Provider {
	for i := range listings {
		listings[i].City, listings[i].Country = SplitAddress(listings[i].Address)
	}
	return &Provider{listings: listings, reservations: reservations}
}

func (p *Provider) Listings(ctx context.Context) ([]domain.Listing, error) {
	out := make([]domain.Listing, len(p.listings))
	copy(out, p.listings)
	return out, nil
}

func (p *Provider) ListingByID(ctx context.Context, id int64) (domain.Listing, error) {
	for _, l := range p.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Listing{}, domain.ErrNotFound
}

// Reservations applies the filter predicates conjunctively, then paginates.
// Filtering always happens before pagination so meta.total reflects the
// filtered set.
func (p *Provider) Reservations(ctx context.Context, f domain.ReservationFilter) (domain.ReservationPage, error) {
	var matched []domain.Reservation
	for _, r := range p.reservations {
		if f.ListingID != nil && r.ListingMapID != *f.ListingID {
			continue
		}
		if f.ArrivalStart != nil && r.CheckIn.Before(f.ArrivalStart.Time) {
			continue
		}
		if f.DepartureEnd != nil && r.CheckOut.After(f.DepartureEnd.Time) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(r.GuestName), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, r)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = defaultOffset
	}

	total := len(matched)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	items := matched[start:end]
	if items == nil {
		items = []domain.Reservation{}
	}
	return domain.ReservationPage{
		Items: items,
		Meta: domain.PageMeta{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+limit < total,
		},
	}, nil
}

func (p *Provider) ReservationByID(ctx context.Context, id int64) (domain.Reservation, error) {
	for _, r := range p.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}
