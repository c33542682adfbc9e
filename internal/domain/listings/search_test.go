package listings

import (
	"reflect"
	"testing"
	"time"

	"stayloop/internal/domain/shared/money"
)

func TestSearchParamsNormalizedClampsPaging(t *testing.T) {
	cases := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, defaultSearchLimit, 0},
		{"negative", -3, -7, defaultSearchLimit, 0},
		{"capped", 500, 10, maxSearchLimit, 10},
		{"passthrough", 15, 30, 15, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SearchParams{Limit: tc.limit, Offset: tc.offset}.Normalized()
			if got.Limit != tc.wantLimit || got.Offset != tc.wantOffset {
				t.Fatalf("got limit=%d offset=%d", got.Limit, got.Offset)
			}
		})
	}
}

func TestSearchParamsNormalizedFoldsFilters(t *testing.T) {
	got := SearchParams{
		City:          "  Amsterdam ",
		Country:       "NL",
		Amenities:     []string{" WiFi ", "wifi", "", "Parking"},
		PropertyTypes: []string{"Apartment", "apartment"},
	}.Normalized()

	if got.City != "amsterdam" || got.Country != "nl" {
		t.Fatalf("location filters: %q / %q", got.City, got.Country)
	}
	if !reflect.DeepEqual(got.Amenities, []string{"wifi", "parking"}) {
		t.Fatalf("amenities: %v", got.Amenities)
	}
	if !reflect.DeepEqual(got.PropertyTypes, []string{"apartment"}) {
		t.Fatalf("property types: %v", got.PropertyTypes)
	}
}

func TestSearchParamsNormalizedDropsInvertedPriceBounds(t *testing.T) {
	got := SearchParams{PriceMinCents: 10000, PriceMaxCents: 5000}.Normalized()
	if got.PriceMaxCents != 0 {
		t.Fatalf("inverted max should be dropped, got %d", got.PriceMaxCents)
	}
	if got.PriceMinCents != 10000 {
		t.Fatalf("min should survive, got %d", got.PriceMinCents)
	}
}

func TestSearchParamsNormalizedDefaultsSort(t *testing.T) {
	if got := (SearchParams{Sort: "surprise_me"}).Normalized(); got.Sort != SortByPriceAsc {
		t.Fatalf("sort: %q", got.Sort)
	}
	if got := (SearchParams{Sort: SortByRating}).Normalized(); got.Sort != SortByRating {
		t.Fatalf("sort: %q", got.Sort)
	}
}

func TestListingPhotoRoundTrip(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	listing, err := NewListing(CreateListingParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Canal loft",
		GuestsLimit: 2,
		MaxStay:     30,
		Pricing:     Pricing{BasePrice: money.Must(12000, "EUR")},
		Now:         now,
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}

	if err := listing.AddPhoto("https://cdn.test/listings/lst-1/a.jpg", now); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := listing.AddPhoto("https://cdn.test/listings/lst-1/a.jpg", now); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if len(listing.Photos) != 1 {
		t.Fatalf("duplicate photo stored: %v", listing.Photos)
	}
	if err := listing.AddPhoto("  ", now); err == nil {
		t.Fatal("blank photo url accepted")
	}

	listing.RemovePhoto("https://cdn.test/listings/lst-1/a.jpg", now)
	if len(listing.Photos) != 0 {
		t.Fatalf("photo not removed: %v", listing.Photos)
	}
	listing.RemovePhoto("https://cdn.test/listings/lst-1/missing.jpg", now)
}
