package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayloop/internal/infra/config"
	"stayloop/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	Calendar(c *gin.Context)
}

type ListingHTTP interface {
	Catalog(c *gin.Context)
	Overview(c *gin.Context)
}

type HostListingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Activate(c *gin.Context)
	Deactivate(c *gin.Context)
	UploadPhoto(c *gin.Context)
	RemovePhoto(c *gin.Context)
}

type HostBookingHTTP interface {
	List(c *gin.Context)
	Stats(c *gin.Context)
	Confirm(c *gin.Context)
	Reject(c *gin.Context)
}

type MeHTTP interface {
	ListBookings(c *gin.Context)
	UpdateProfile(c *gin.Context)
	ToggleFavorite(c *gin.Context)
	SetFCMToken(c *gin.Context)
}

type ReviewsHTTP interface {
	Submit(c *gin.Context)
	Respond(c *gin.Context)
	Delete(c *gin.Context)
	ListByListing(c *gin.Context)
	ListByUser(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Availability   AvailabilityHTTP
	Listing        ListingHTTP
	HostListing    HostListingHTTP
	HostBooking    HostBookingHTTP
	Reviews        ReviewsHTTP
	Auth           AuthHTTP
	Me             MeHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
		api.POST("/auth/become-host", h.Auth.BecomeHost)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/complete", h.Booking.Complete)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Check)
		api.GET("/listings/:id/calendar", h.Availability.Calendar)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Catalog)
		api.GET("/listings/:id/overview", h.Listing.Overview)
	}
	if h.Reviews != nil {
		api.POST("/bookings/:id/reviews", h.Reviews.Submit)
		api.POST("/reviews/:id/response", h.Reviews.Respond)
		api.DELETE("/reviews/:id", h.Reviews.Delete)
		api.GET("/listings/:id/reviews", h.Reviews.ListByListing)
		api.GET("/users/:id/reviews", h.Reviews.ListByUser)
	}
	if h.HostListing != nil {
		hostListings := api.Group("/host/listings")
		hostListings.GET("", h.HostListing.List)
		hostListings.POST("", h.HostListing.Create)
		hostListings.PUT("/:id", h.HostListing.Update)
		hostListings.POST("/:id/activate", h.HostListing.Activate)
		hostListings.POST("/:id/deactivate", h.HostListing.Deactivate)
		hostListings.POST("/:id/photos", h.HostListing.UploadPhoto)
		hostListings.DELETE("/:id/photos", h.HostListing.RemovePhoto)
	}
	if h.HostBooking != nil {
		hostBookings := api.Group("/host/bookings")
		hostBookings.GET("", h.HostBooking.List)
		hostBookings.GET("/stats", h.HostBooking.Stats)
		hostBookings.POST("/:id/confirm", h.HostBooking.Confirm)
		hostBookings.POST("/:id/reject", h.HostBooking.Reject)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
		meGroup.PATCH("/profile", h.Me.UpdateProfile)
		meGroup.POST("/favorites/:id", h.Me.ToggleFavorite)
		meGroup.PUT("/fcm-token", h.Me.SetFCMToken)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
