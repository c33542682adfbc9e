package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/dto"
	reviewsapp "stayloop/internal/app/handlers/reviews"
	"stayloop/internal/app/queries"
	domainreviews "stayloop/internal/domain/reviews"
)

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	Comment    string `json:"comment" binding:"required"`
	Categories struct {
		Cleanliness   int `json:"cleanliness"`
		Accuracy      int `json:"accuracy"`
		CheckIn       int `json:"check_in"`
		Communication int `json:"communication"`
		Location      int `json:"location"`
		Value         int `json:"value"`
	} `json:"categories"`
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	bookingID := strings.TrimSpace(c.Param("id"))
	if bookingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking id is required"})
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewsapp.SubmitReviewCommand{
		BookingID: bookingID,
		AuthorID:  user.ID,
		Rating:    req.Rating,
		Categories: domainreviews.CategoryRatings{
			Cleanliness:   req.Categories.Cleanliness,
			Accuracy:      req.Categories.Accuracy,
			CheckIn:       req.Categories.CheckIn,
			Communication: req.Categories.Communication,
			Location:      req.Categories.Location,
			Value:         req.Categories.Value,
		},
		Comment: req.Comment,
		Now:     time.Now().UTC(),
	}
	review, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

type respondReviewRequest struct {
	Comment string `json:"comment" binding:"required"`
}

func (h ReviewsHandler) Respond(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req respondReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewsapp.RespondToReviewCommand{
		ReviewID: strings.TrimSpace(c.Param("id")),
		AuthorID: user.ID,
		Comment:  req.Comment,
	}
	review, err := commands.Dispatch[reviewsapp.RespondToReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h ReviewsHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := reviewsapp.DeleteReviewCommand{
		ReviewID: strings.TrimSpace(c.Param("id")),
		AuthorID: user.ID,
	}
	result, err := commands.Dispatch[reviewsapp.DeleteReviewCommand, *reviewsapp.DeleteReviewResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) ListByListing(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := reviewsapp.ListListingReviewsQuery{
		ListingID: c.Param("id"),
		Limit:     parsePositiveInt(c.Query("limit"), 20),
		Offset:    parsePositiveInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[reviewsapp.ListListingReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) ListByUser(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := reviewsapp.ListUserReviewsQuery{
		UserID: c.Param("id"),
		Limit:  parsePositiveInt(c.Query("limit"), 20),
		Offset: parsePositiveInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[reviewsapp.ListUserReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

var _ ReviewsHTTP = ReviewsHandler{}
