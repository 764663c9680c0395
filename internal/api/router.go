package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"facility-reservation-backend/internal/availability"
	"facility-reservation-backend/internal/booking"
	"facility-reservation-backend/internal/catalog"
	"facility-reservation-backend/internal/mw"
	"facility-reservation-backend/internal/schedule"
)

// Deps bundles what the router needs.
type Deps struct {
	Catalog    catalog.Service
	Schedule   *schedule.Store
	Resolver   *availability.Resolver
	Controller *booking.Controller

	RateLimit rate.Limit
	Burst     int
	CacheTTL  time.Duration
}

// NewRouter creates and configures a new Gin router.
//
// Caching applies to the read-mostly catalog routes only; availability
// and reservation endpoints are always served fresh so committed
// bookings and cancellations are visible immediately.
func NewRouter(d Deps) *gin.Engine {
	registerValidators()

	r := gin.Default()

	respCache := cache.New(d.CacheTTL, 2*d.CacheTTL)
	caching := mw.Cache(respCache, d.CacheTTL)
	rateLimiter := mw.RateLimiter(d.RateLimit, d.Burst)

	handler := NewHandler(d.Catalog, d.Schedule, d.Resolver, d.Controller, respCache)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Catalog (cached)
		api.GET("/facilities", caching, handler.GetFacilities)
		api.GET("/facilities/:facility_id", caching, handler.GetFacility)
		api.GET("/facilities/:facility_id/slots", caching, handler.GetFacilitySlots)

		// Availability (never cached)
		api.GET("/facilities/:facility_id/availability", handler.GetAvailability)

		// Requester-facing reservation lifecycle
		api.POST("/requesters/:requester_id/reservations", handler.BookReservation)
		api.GET("/requesters/:requester_id/reservations", handler.ListReservations)
		api.PUT("/requesters/:requester_id/reservations/:reservation_id", handler.EditReservation)
		api.PATCH("/requesters/:requester_id/reservations/:reservation_id/cancel", handler.CancelReservation)

		// Authorizer side
		admin := api.Group("/admin")
		{
			admin.PATCH("/reservations/:reservation_id/approve", handler.ApproveReservation)
			admin.PATCH("/reservations/:reservation_id/reject", handler.RejectReservation)
			admin.GET("/reservations/lookup", handler.LookupReservation)
			admin.POST("/facilities", handler.CreateFacility)
			admin.POST("/facilities/:facility_id/slots", handler.CreateFacilitySlot)
		}
	}

	return r
}
