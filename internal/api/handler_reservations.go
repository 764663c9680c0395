package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facility-reservation-backend/internal/booking"
	"facility-reservation-backend/internal/store"
)

type bookRequest struct {
	SlotID        int64  `json:"slot_id" binding:"required"`
	Date          string `json:"date" binding:"required,isodate"`
	Justification string `json:"justification" binding:"required,min=5,max=300"`
}

type editRequest struct {
	SlotID        int64  `json:"slot_id" binding:"required"`
	Date          string `json:"date" binding:"required,isodate"`
	Justification string `json:"justification" binding:"required,min=5,max=300"`
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required,min=5,max=300"`
}

// BookReservation handles POST /api/requesters/{requester_id}/reservations.
// A 409 response means the slot was taken between resolve and book; the
// client re-fetches availability and retries with a different slot.
func (h *Handler) BookReservation(c *gin.Context) {
	requesterID, ok := paramInt64(c, "requester_id")
	if !ok {
		return
	}
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.controller.Book(c.Request.Context(), booking.BookRequest{
		RequesterID:   requesterID,
		SlotID:        req.SlotID,
		Date:          req.Date,
		Justification: req.Justification,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListReservations handles GET /api/requesters/{requester_id}/reservations.
func (h *Handler) ListReservations(c *gin.Context) {
	requesterID, ok := paramInt64(c, "requester_id")
	if !ok {
		return
	}
	reservations, err := h.controller.ListForRequester(c.Request.Context(), requesterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// EditReservation handles
// PUT /api/requesters/{requester_id}/reservations/{reservation_id}.
func (h *Handler) EditReservation(c *gin.Context) {
	requesterID, ok := paramInt64(c, "requester_id")
	if !ok {
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.controller.Edit(c.Request.Context(), booking.EditRequest{
		ReservationID:    c.Param("reservation_id"),
		Actor:            store.Actor{ID: requesterID, Role: store.RoleRequester},
		NewSlotID:        req.SlotID,
		NewDate:          req.Date,
		NewJustification: req.Justification,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelReservation handles
// PATCH /api/requesters/{requester_id}/reservations/{reservation_id}/cancel.
func (h *Handler) CancelReservation(c *gin.Context) {
	requesterID, ok := paramInt64(c, "requester_id")
	if !ok {
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.controller.Cancel(c.Request.Context(), booking.CancelRequest{
		ReservationID: c.Param("reservation_id"),
		Actor:         store.Actor{ID: requesterID, Role: store.RoleRequester},
		Reason:        req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
