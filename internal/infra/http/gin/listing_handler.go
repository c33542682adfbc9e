package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"stayloop/internal/app/dto"
	listingapp "stayloop/internal/app/handlers/listings"
	"stayloop/internal/app/queries"
	domainlistings "stayloop/internal/domain/listings"
)

// ListingHandler wires the public listing queries to HTTP.
type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Catalog responds with a filtered collection of active listings.
func (h ListingHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := listingapp.SearchCatalogQuery{
		Params: domainlistings.SearchParams{
			City:          c.Query("city"),
			Country:       c.Query("country"),
			LocationQuery: c.Query("location"),
			Amenities:     splitCSV(c.Query("amenities")),
			PropertyTypes: splitCSV(c.Query("property_types")),
			MinGuests:     parseInt(c.Query("min_guests")),
			PriceMinCents: parseInt64(c.Query("price_min_cents")),
			PriceMaxCents: parseInt64(c.Query("price_max_cents")),
			Sort:          domainlistings.CatalogSort(c.Query("sort")),
			Limit:         parseIntWithDefault(c.Query("limit"), 24),
			Offset:        parseInt(c.Query("offset")),
		},
	}
	result, err := queries.Ask[listingapp.SearchCatalogQuery, dto.ListingCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Overview(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	listingID := c.Param("id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	query := listingapp.GetListingOverviewQuery{ListingID: listingID}
	result, err := queries.Ask[listingapp.GetListingOverviewQuery, dto.ListingOverview](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseIntWithDefault(raw string, fallback int) int {
	value := parseInt(raw)
	if value == 0 {
		return fallback
	}
	return value
}

func parseInt64(raw string) int64 {
	value, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if value < 0 {
		return 0
	}
	return value
}
