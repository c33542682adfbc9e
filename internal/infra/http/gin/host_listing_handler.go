package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/dto"
	listingapp "stayloop/internal/app/handlers/listings"
	"stayloop/internal/app/queries"
	domainlistings "stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/money"
)

type HostListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type hostListingRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	PropertyType string `json:"property_type"`
	Address      struct {
		Line1   string  `json:"line1"`
		Line2   string  `json:"line2"`
		City    string  `json:"city"`
		Region  string  `json:"region"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	} `json:"address"`
	Amenities   []string `json:"amenities"`
	Photos      []string `json:"photos"`
	GuestsLimit int      `json:"guests_limit" binding:"required,min=1"`
	MinStay     int      `json:"min_stay"`
	MaxStay     int      `json:"max_stay"`
	HouseRules  struct {
		PetsAllowed    bool     `json:"pets_allowed"`
		SmokingAllowed bool     `json:"smoking_allowed"`
		PartiesAllowed bool     `json:"parties_allowed"`
		Additional     []string `json:"additional"`
	} `json:"house_rules"`
	BasePriceCents   int64  `json:"base_price_cents" binding:"required,min=0"`
	CleaningFeeCents int64  `json:"cleaning_fee_cents"`
	Currency         string `json:"currency" binding:"required,len=3"`
	InstantBook      bool   `json:"instant_book"`
}

func (r hostListingRequest) toPayload() listingapp.HostListingPayload {
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	return listingapp.HostListingPayload{
		Title:        r.Title,
		Description:  r.Description,
		PropertyType: r.PropertyType,
		Address: domainlistings.Address{
			Line1:   r.Address.Line1,
			Line2:   r.Address.Line2,
			City:    r.Address.City,
			Region:  r.Address.Region,
			Country: r.Address.Country,
			Lat:     r.Address.Lat,
			Lon:     r.Address.Lon,
		},
		Amenities:   r.Amenities,
		Photos:      r.Photos,
		GuestsLimit: r.GuestsLimit,
		MinStay:     r.MinStay,
		MaxStay:     r.MaxStay,
		HouseRules: domainlistings.HouseRules{
			PetsAllowed:    r.HouseRules.PetsAllowed,
			SmokingAllowed: r.HouseRules.SmokingAllowed,
			PartiesAllowed: r.HouseRules.PartiesAllowed,
			Additional:     r.HouseRules.Additional,
		},
		Pricing: domainlistings.Pricing{
			BasePrice:   money.Money{Amount: r.BasePriceCents, Currency: currency},
			CleaningFee: money.Money{Amount: r.CleaningFeeCents, Currency: currency},
		},
		InstantBook: r.InstantBook,
	}
}

func (h HostListingHandler) List(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := listingapp.ListHostListingsQuery{HostID: host.ID}
	result, err := queries.Ask[listingapp.ListHostListingsQuery, listingapp.HostListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Create(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req hostListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingapp.CreateHostListingCommand{
		HostID:  host.ID,
		Payload: req.toPayload(),
	}
	result, err := commands.Dispatch[listingapp.CreateHostListingCommand, *dto.ListingOverview](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HostListingHandler) Update(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req hostListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingapp.UpdateHostListingCommand{
		HostID:    host.ID,
		ListingID: strings.TrimSpace(c.Param("id")),
		Payload:   req.toPayload(),
	}
	result, err := commands.Dispatch[listingapp.UpdateHostListingCommand, *dto.ListingOverview](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Activate(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := listingapp.ActivateHostListingCommand{
		HostID:    host.ID,
		ListingID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[listingapp.ActivateHostListingCommand, *listingapp.ListingStateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Deactivate(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := listingapp.DeactivateHostListingCommand{
		HostID:    host.ID,
		ListingID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[listingapp.DeactivateHostListingCommand, *listingapp.ListingStateResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) UploadPhoto(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	listingID := strings.TrimSpace(c.Param("id"))
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read photo"})
		return
	}
	defer file.Close()

	objectKey := fmt.Sprintf("listings/%s/%s%s", listingID, uuid.NewString(), filepath.Ext(fileHeader.Filename))
	cmd := listingapp.UploadHostListingPhotoCommand{
		HostID:      host.ID,
		ListingID:   listingID,
		ObjectKey:   objectKey,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Reader:      file,
	}
	result, err := commands.Dispatch[listingapp.UploadHostListingPhotoCommand, *listingapp.HostListingPhotoUploadResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HostListingHandler) RemovePhoto(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := listingapp.RemoveHostListingPhotoCommand{
		HostID:    host.ID,
		ListingID: strings.TrimSpace(c.Param("id")),
		PhotoURL:  strings.TrimSpace(c.Query("url")),
	}
	result, err := commands.Dispatch[listingapp.RemoveHostListingPhotoCommand, *listingapp.HostListingPhotoRemoveResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostListingHTTP = HostListingHandler{}
