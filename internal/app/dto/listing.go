package dto

import (
	"time"

	domainlistings "stayloop/internal/domain/listings"
)

// ListingAddress is the public location snapshot.
type ListingAddress struct {
	Line1   string  `json:"line1"`
	Line2   string  `json:"line2"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type ListingHost struct {
	ID string `json:"id"`
}

type HouseRulesDTO struct {
	PetsAllowed    bool     `json:"pets_allowed"`
	SmokingAllowed bool     `json:"smoking_allowed"`
	PartiesAllowed bool     `json:"parties_allowed"`
	Additional     []string `json:"additional,omitempty"`
}

type ListingRating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ListingOverview aggregates the listing details returned on a detail page.
type ListingOverview struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	PropertyType string         `json:"property_type"`
	Address      ListingAddress `json:"address"`
	Amenities    []string       `json:"amenities"`
	Photos       []string       `json:"photos"`
	GuestsLimit  int            `json:"guests_limit"`
	MinStay      int            `json:"min_stay"`
	MaxStay      int            `json:"max_stay"`
	HouseRules   HouseRulesDTO  `json:"house_rules"`
	BasePrice    MoneyDTO       `json:"base_price"`
	CleaningFee  MoneyDTO       `json:"cleaning_fee"`
	Rating       ListingRating  `json:"rating"`
	Host         ListingHost    `json:"host"`
	State        string         `json:"state"`
	InstantBook  bool           `json:"instant_book"`
	CreatedAt    time.Time      `json:"created_at"`
}

// MapListingOverview builds a detail-page DTO from a domain listing.
func MapListingOverview(listing *domainlistings.Listing) ListingOverview {
	if listing == nil {
		return ListingOverview{}
	}
	return ListingOverview{
		ID:           string(listing.ID),
		Title:        listing.Title,
		Description:  listing.Description,
		PropertyType: listing.PropertyType,
		Address: ListingAddress{
			Line1:   listing.Address.Line1,
			Line2:   listing.Address.Line2,
			City:    listing.Address.City,
			Region:  listing.Address.Region,
			Country: listing.Address.Country,
			Lat:     listing.Address.Lat,
			Lon:     listing.Address.Lon,
		},
		Amenities: append([]string(nil), listing.Amenities...),
		Photos:    append([]string(nil), listing.Photos...),
		GuestsLimit: listing.GuestsLimit,
		MinStay:     listing.MinStay,
		MaxStay:     listing.MaxStay,
		HouseRules: HouseRulesDTO{
			PetsAllowed:    listing.HouseRules.PetsAllowed,
			SmokingAllowed: listing.HouseRules.SmokingAllowed,
			PartiesAllowed: listing.HouseRules.PartiesAllowed,
			Additional:     append([]string(nil), listing.HouseRules.Additional...),
		},
		BasePrice:   MapMoney(listing.Pricing.BasePrice),
		CleaningFee: MapMoney(listing.Pricing.CleaningFee),
		Rating:      ListingRating{Average: listing.Rating.Average, Count: listing.Rating.Count},
		Host:        ListingHost{ID: string(listing.Host)},
		State:       string(listing.State),
		InstantBook: listing.InstantBook,
		CreatedAt:   listing.CreatedAt,
	}
}
