package domain

// Listing is a rentable property record from the bundled sample dataset,
// shaped to match the vendor's listing payload.
type Listing struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	Country        string  `json:"country"`
	Bedrooms       int     `json:"bedroomsNumber"`
	Bathrooms      int     `json:"bathroomsNumber"`
	PersonCapacity int     `json:"personCapacity"`
	Price          float64 `json:"price"`
	CleaningFee    float64 `json:"cleaningFee"`
	Currency       string  `json:"currencyCode"`
}
