package domain

import (
	"context"
	"encoding/json"
)

// QueryParam preserves insertion order; the vendor query string is built in
// the order parameters were added.
type QueryParam struct {
	Key, Value string
}

// VendorRequest describes one call to the vendor API. Immutable, built per
// call. ActingUserID, when set, is injected as a `userId` query parameter
// (vendor-side user scoping).
type VendorRequest struct {
	Method       string
	Path         string
	Query        []QueryParam
	Body         any
	ActingUserID string
}

// VendorClient executes authenticated vendor calls. Failures are always
// *VendorError. The client never retries; a caller may re-invoke once after
// an auth failure (the 401 already invalidated the cached token) and should
// treat rate-limit/unavailable kinds as backoff signals.
type VendorClient interface {
	Execute(ctx context.Context, req VendorRequest) (json.RawMessage, error)
}

// SampleData serves the locally bundled fallback records.
type SampleData interface {
	Listings(ctx context.Context) ([]Listing, error)
	ListingByID(ctx context.Context, id int64) (Listing, error)
	Reservations(ctx context.Context, f ReservationFilter) (ReservationPage, error)
	ReservationByID(ctx context.Context, id int64) (Reservation, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// UserRepository mediates the local relational store. Single-row consistency
// is all the portal needs; no multi-row transactions.
type UserRepository interface {
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	SaveDeviceToken(ctx context.Context, t DeviceToken) error
	UsersForListing(ctx context.Context, listingMapID int64) ([]User, error)
	DeviceTokensForUsers(ctx context.Context, userIDs []int64) ([]string, error)
	PartnershipForUser(ctx context.Context, userID int64) ([]PartnershipEarning, error)
	LogReservation(ctx context.Context, ev ReservationEvent) error
}

// Notifier pushes a payload to a set of device tokens. Fire-and-forget from
// the caller's perspective; errors are logged, not surfaced.
type Notifier interface {
	Notify(ctx context.Context, tokens []string, n Notification) error
}

// IncomeEstimator is the seam for the external rental-income estimate
// capability. Implementations may return ErrEstimateUnavailable.
type IncomeEstimator interface {
	EstimateIncome(ctx context.Context, address string, details PropertyDetails) (Estimate, error)
}
