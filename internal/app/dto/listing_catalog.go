package dto

import (
	domainlistings "stayloop/internal/domain/listings"
)

// ListingCatalog is a paginated collection of listing cards.
type ListingCatalog struct {
	Items   []ListingCard   `json:"items"`
	Filters CatalogFilters  `json:"filters"`
	Meta    CatalogMetadata `json:"meta"`
}

// ListingCard is a lightweight representation for catalog cards.
type ListingCard struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	PropertyType  string   `json:"property_type"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	AddressLine   string   `json:"address_line"`
	GuestsLimit   int      `json:"guests_limit"`
	MinStay       int      `json:"min_stay"`
	MaxStay       int      `json:"max_stay"`
	BasePrice     MoneyDTO `json:"base_price"`
	Amenities     []string `json:"amenities"`
	ThumbnailURL  string   `json:"thumbnail_url"`
	RatingAverage float64  `json:"rating_average"`
	RatingCount   int      `json:"rating_count"`
	InstantBook   bool     `json:"instant_book"`
	State         string   `json:"state"`
}

// CatalogFilters echoes back the applied filters.
type CatalogFilters struct {
	City          string   `json:"city"`
	Country       string   `json:"country"`
	Amenities     []string `json:"amenities"`
	PropertyTypes []string `json:"property_types"`
	MinGuests     int      `json:"min_guests"`
	PriceMinCents int64    `json:"price_min_cents"`
	PriceMaxCents int64    `json:"price_max_cents"`
}

// CatalogMetadata describes pagination.
type CatalogMetadata struct {
	Total  int    `json:"total"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Sort   string `json:"sort"`
}

// MapCatalog builds a DTO collection from a search result.
func MapCatalog(result domainlistings.SearchResult, params domainlistings.SearchParams) ListingCatalog {
	normalized := params.Normalized()
	items := make([]ListingCard, 0, len(result.Items))
	for _, listing := range result.Items {
		items = append(items, MapListingCard(listing))
	}
	return ListingCatalog{
		Items: items,
		Filters: CatalogFilters{
			City:          normalized.City,
			Country:       normalized.Country,
			Amenities:     append([]string(nil), normalized.Amenities...),
			PropertyTypes: append([]string(nil), normalized.PropertyTypes...),
			MinGuests:     normalized.MinGuests,
			PriceMinCents: normalized.PriceMinCents,
			PriceMaxCents: normalized.PriceMaxCents,
		},
		Meta: CatalogMetadata{
			Total:  result.Total,
			Count:  len(items),
			Limit:  normalized.Limit,
			Offset: normalized.Offset,
			Sort:   string(normalized.Sort),
		},
	}
}

func MapListingCard(listing *domainlistings.Listing) ListingCard {
	if listing == nil {
		return ListingCard{}
	}
	card := ListingCard{
		ID:            string(listing.ID),
		Title:         listing.Title,
		PropertyType:  listing.PropertyType,
		City:          listing.Address.City,
		Country:       listing.Address.Country,
		AddressLine:   listing.Address.Line1,
		GuestsLimit:   listing.GuestsLimit,
		MinStay:       listing.MinStay,
		MaxStay:       listing.MaxStay,
		BasePrice:     MapMoney(listing.Pricing.BasePrice),
		Amenities:     append([]string(nil), listing.Amenities...),
		RatingAverage: listing.Rating.Average,
		RatingCount:   listing.Rating.Count,
		InstantBook:   listing.InstantBook,
		State:         string(listing.State),
	}
	if len(listing.Photos) > 0 {
		card.ThumbnailURL = listing.Photos[0]
	}
	return card
}
