package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"facility-reservation-backend/internal/apperror"
	"facility-reservation-backend/internal/availability"
	"facility-reservation-backend/internal/booking"
	"facility-reservation-backend/internal/catalog"
	"facility-reservation-backend/internal/schedule"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	catalog    catalog.Service
	schedule   *schedule.Store
	resolver   *availability.Resolver
	controller *booking.Controller
	respCache  *cache.Cache
}

// NewHandler creates a new API handler.
func NewHandler(cat catalog.Service, sched *schedule.Store, resolver *availability.Resolver, controller *booking.Controller, respCache *cache.Cache) *Handler {
	return &Handler{
		catalog:    cat,
		schedule:   sched,
		resolver:   resolver,
		controller: controller,
		respCache:  respCache,
	}
}

// respondError maps a classified error onto an HTTP status. Internal
// details are not leaked for unclassified failures.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
