package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Reservation is a booking record from the bundled sample dataset. The total
// price is derived, never stored; see TotalPrice.
type Reservation struct {
	ID           int64   `json:"id"`
	ListingMapID int64   `json:"listingMapId"`
	GuestName    string  `json:"guestName"`
	Status       string  `json:"status"`
	CheckIn      Date    `json:"arrivalDate"`
	CheckOut     Date    `json:"departureDate"`
	BasePrice    float64 `json:"basePrice"`
	CleaningFee  float64 `json:"cleaningFee"`
	AmenitiesFee float64 `json:"amenitiesFee"`
	ExtraFees    float64 `json:"extraFees"`
	Currency     string  `json:"currencyCode"`
}

// Nights is the length of the stay, rounded up to whole days.
func (r Reservation) Nights() int {
	span := r.CheckOut.Sub(r.CheckIn.Time)
	if span < 0 {
		span = -span
	}
	return int(math.Ceil(span.Hours() / 24))
}

// TotalPrice = basePrice x nights + cleaningFee + amenitiesFee + extraFees.
func (r Reservation) TotalPrice() float64 {
	return r.BasePrice*float64(r.Nights()) + r.CleaningFee + r.AmenitiesFee + r.ExtraFees
}

// MarshalJSON includes the derived nights/totalPrice fields so sample
// reservations carry the same figures the vendor computes server-side.
func (r Reservation) MarshalJSON() ([]byte, error) {
	type alias Reservation
	return json.Marshal(struct {
		alias
		Nights     int     `json:"nights"`
		TotalPrice float64 `json:"totalPrice"`
	}{alias(r), r.Nights(), r.TotalPrice()})
}

// ReservationFilter narrows sample reservations. All predicates are optional
// and conjunctive; Limit/Offset paginate after filtering.
type ReservationFilter struct {
	ListingID     *int64
	ArrivalStart  *Date // check-in on or after
	DepartureEnd  *Date // check-out on or before
	Status        string
	Search        string // case-insensitive guest-name substring
	Limit, Offset int
}

type PageMeta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type ReservationPage struct {
	Items []Reservation `json:"items"`
	Meta  PageMeta      `json:"meta"`
}

// ReservationEvent is the payload of the internal new-reservation webhook.
type ReservationEvent struct {
	ReservationID int64     `json:"reservationId"`
	ListingMapID  int64     `json:"listingMapId" validate:"required"`
	GuestName     string    `json:"guestName"`
	CheckIn       Date      `json:"arrivalDate"`
	CheckOut      Date      `json:"departureDate"`
	ReceivedAt    time.Time `json:"-"`
}
