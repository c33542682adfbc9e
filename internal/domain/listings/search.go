package listings

import "strings"

// CatalogSort selects the ordering of catalog search results.
type CatalogSort string

const (
	SortByPriceAsc  CatalogSort = "price_asc"
	SortByPriceDesc CatalogSort = "price_desc"
	SortByRating    CatalogSort = "rating_desc"
	SortByNewest    CatalogSort = "newest"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// SearchParams carries catalog filters and paging. Zero values mean
// "no filter"; repositories receive params already passed through
// Normalized.
type SearchParams struct {
	Host          HostID
	States        []ListingState
	City          string
	Country       string
	LocationQuery string
	Amenities     []string
	MinGuests     int
	PriceMinCents int64
	PriceMaxCents int64
	PropertyTypes []string
	Sort          CatalogSort
	Limit         int
	Offset        int
	OnlyActive    bool
}

// Normalized lowercases text filters, deduplicates token lists, drops
// inconsistent price bounds and clamps paging to sane limits.
func (p SearchParams) Normalized() SearchParams {
	out := p
	out.City = foldFilter(p.City)
	out.Country = foldFilter(p.Country)
	out.LocationQuery = foldFilter(p.LocationQuery)
	out.Amenities = foldTokens(p.Amenities)
	out.PropertyTypes = foldTokens(p.PropertyTypes)
	out.MinGuests = max(p.MinGuests, 0)
	out.PriceMinCents = max(p.PriceMinCents, 0)
	// An upper bound below the lower bound is treated as absent rather
	// than producing an empty result set.
	if out.PriceMaxCents > 0 && out.PriceMaxCents < out.PriceMinCents {
		out.PriceMaxCents = 0
	}
	out.Offset = max(p.Offset, 0)
	if out.Limit <= 0 {
		out.Limit = defaultSearchLimit
	} else if out.Limit > maxSearchLimit {
		out.Limit = maxSearchLimit
	}
	if !out.Sort.valid() {
		out.Sort = SortByPriceAsc
	}
	return out
}

func (s CatalogSort) valid() bool {
	switch s {
	case SortByPriceAsc, SortByPriceDesc, SortByRating, SortByNewest:
		return true
	}
	return false
}

func foldFilter(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func foldTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, raw := range tokens {
		token := foldFilter(raw)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// SearchResult is a page of catalog hits plus the total match count.
type SearchResult struct {
	Items []*Listing
	Total int
}
