package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetFacilities handles GET /api/facilities.
func (h *Handler) GetFacilities(c *gin.Context) {
	facilities, err := h.catalog.ListFacilities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, facilities)
}

// GetFacility handles GET /api/facilities/{facility_id}.
func (h *Handler) GetFacility(c *gin.Context) {
	facilityID, ok := paramInt64(c, "facility_id")
	if !ok {
		return
	}
	facility, err := h.catalog.GetFacility(c.Request.Context(), facilityID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, facility)
}

// GetFacilitySlots handles GET /api/facilities/{facility_id}/slots,
// returning the facility's full weekly template.
func (h *Handler) GetFacilitySlots(c *gin.Context) {
	facilityID, ok := paramInt64(c, "facility_id")
	if !ok {
		return
	}
	slots, err := h.schedule.SlotsForFacility(c.Request.Context(), facilityID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// paramInt64 parses a numeric path parameter, writing a 400 on failure.
func paramInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}
