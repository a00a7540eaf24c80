package domain

import "time"

// User is a portal account persisted in the local store. ListingMapIDs maps
// the account to the vendor listings it owns.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	HostawayUserID *int64    `json:"hostawayUserId,omitempty"`
	ListingMapIDs  []int64   `json:"listingMapIds"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DeviceToken registers a mobile device for push notifications.
type DeviceToken struct {
	UserID   int64  `json:"userId"`
	Token    string `json:"token"`
	Platform string `json:"platform"` // ios|android
}

// PartnershipEarning is one referral/partnership rollup row.
type PartnershipEarning struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"userId"`
	ListingMapID int64  `json:"listingMapId"`
	Period       string `json:"period"` // YYYY-MM
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
}

// Notification is a push payload handed to the dispatcher.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// PropertyDetails feeds the income estimator.
type PropertyDetails struct {
	Bedrooms     int `json:"bedrooms"`
	Bathrooms    int `json:"bathrooms"`
	Accommodates int `json:"accommodates"`
}

// Estimate is a rental-income projection for an address.
type Estimate struct {
	MonthlyRevenue float64 `json:"monthlyRevenue"`
	Currency       string  `json:"currency"`
	Confidence     string  `json:"confidence"`
}
