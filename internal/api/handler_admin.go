package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"facility-reservation-backend/internal/model"
	"facility-reservation-backend/internal/mw"
	"facility-reservation-backend/internal/store"
)

// authorizerActor builds the acting authorizer from the identity
// headers supplied by the session layer. The core trusts them as
// already authenticated and authorized.
func authorizerActor(c *gin.Context) store.Actor {
	id, _ := strconv.ParseInt(c.GetHeader("X-Actor-ID"), 10, 64)
	return store.Actor{ID: id, Role: store.RoleAuthorizer}
}

// ApproveReservation handles
// PATCH /api/admin/reservations/{reservation_id}/approve.
func (h *Handler) ApproveReservation(c *gin.Context) {
	res, err := h.controller.Approve(c.Request.Context(), c.Param("reservation_id"), authorizerActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RejectReservation handles
// PATCH /api/admin/reservations/{reservation_id}/reject.
func (h *Handler) RejectReservation(c *gin.Context) {
	res, err := h.controller.Reject(c.Request.Context(), c.Param("reservation_id"), authorizerActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// LookupReservation handles
// GET /api/admin/reservations/lookup?slot_id=&date=, returning the
// active reservation on a slot-date or 404 when the pair is free.
func (h *Handler) LookupReservation(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Query("slot_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid slot_id"})
		return
	}
	date := c.Query("date")
	if _, err := model.ParseDate(date); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	res, err := h.controller.ActiveOnSlotDate(c.Request.Context(), slotID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	if res == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active reservation for this slot and date"})
		return
	}
	c.JSON(http.StatusOK, res)
}

type createFacilityRequest struct {
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required"`
	SiteID    int64  `json:"site_id"`
	Available *bool  `json:"available"`
}

// CreateFacility handles POST /api/admin/facilities.
func (h *Handler) CreateFacility(c *gin.Context) {
	var req createFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	facility := model.Facility{
		Name:      req.Name,
		Type:      req.Type,
		SiteID:    req.SiteID,
		Available: available,
	}
	if err := h.catalog.CreateFacility(c.Request.Context(), &facility); err != nil {
		respondError(c, err)
		return
	}
	mw.FlushCache(h.respCache)
	c.JSON(http.StatusCreated, facility)
}

type createSlotRequest struct {
	Weekday   string `json:"weekday" binding:"required,weekday"`
	StartTime string `json:"start_time" binding:"required,clocktime"`
	EndTime   string `json:"end_time" binding:"required,clocktime"`
}

// CreateFacilitySlot handles POST /api/admin/facilities/{facility_id}/slots.
func (h *Handler) CreateFacilitySlot(c *gin.Context) {
	facilityID, ok := paramInt64(c, "facility_id")
	if !ok {
		return
	}
	var req createSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot := model.WeeklySlot{
		FacilityID: facilityID,
		Weekday:    model.Weekday(req.Weekday),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := h.schedule.CreateSlot(c.Request.Context(), &slot); err != nil {
		respondError(c, err)
		return
	}
	mw.FlushCache(h.respCache)
	c.JSON(http.StatusCreated, slot)
}
