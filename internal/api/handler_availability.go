package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// slotStatusResponse is the flattened availability entry for one slot.
type slotStatusResponse struct {
	SlotID    int64  `json:"slot_id"`
	Weekday   string `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// GetAvailability handles
// GET /api/facilities/{facility_id}/availability?date=YYYY-MM-DD[&exclude=id].
//
// The optional exclude parameter carries a reservation id whose own
// booking should be treated as free, used by the edit flow.
func (h *Handler) GetAvailability(c *gin.Context) {
	facilityID, ok := paramInt64(c, "facility_id")
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	resolved, err := h.resolver.Resolve(c.Request.Context(), facilityID, date, c.Query("exclude"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]slotStatusResponse, 0, len(resolved))
	for _, sa := range resolved {
		response = append(response, slotStatusResponse{
			SlotID:    sa.Slot.ID,
			Weekday:   string(sa.Slot.Weekday),
			StartTime: sa.Slot.StartTime,
			EndTime:   sa.Slot.EndTime,
			Status:    string(sa.Status),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"date":        date,
		"resolved_at": time.Now().UTC(),
		"slots":       response,
	})
}
