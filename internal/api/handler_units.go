package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"metro-status-backend/internal/model"
)

// unitResponse is the flattened structure for a unit list entry.
type unitResponse struct {
	model.Unit
	LastSymptom  string     `json:"lastSymptom"`
	LastCategory string     `json:"lastCategory"`
	LastChange   *time.Time `json:"lastChange"`
}

// ListUnits handles the GET /api/units request.
func (h *Handler) ListUnits(c *gin.Context) {
	ctx := c.Request.Context()

	units, err := h.store.ListUnits(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve units"})
		return
	}

	snapshot, err := h.store.KeyStatusSnapshot(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve key statuses"})
		return
	}

	response := make([]unitResponse, 0, len(units))
	for _, unit := range units {
		entry := unitResponse{Unit: unit}
		if keys, ok := snapshot[unit.UnitID]; ok {
			entry.LastSymptom = keys.LastSymptom
			entry.LastCategory = keys.LastCategory
			t := keys.UpdatedAt
			entry.LastChange = &t
		}
		response = append(response, entry)
	}
	c.JSON(http.StatusOK, response)
}

// GetUnit handles the GET /api/units/{unit_id} request, returning the unit
// with its full ordered status history.
func (h *Handler) GetUnit(c *gin.Context) {
	ctx := c.Request.Context()
	unitID := c.Param("unit_id")

	unit, err := h.store.GetUnit(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Unit not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve unit"})
		}
		return
	}

	history, err := h.store.UnitHistory(ctx, unitID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unit":    unit,
		"history": history,
	})
}

// RecentUpdates handles the GET /api/updates request.
func (h *Handler) RecentUpdates(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	statuses, err := h.store.RecentStatuses(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve updates"})
		return
	}
	c.JSON(http.StatusOK, statuses)
}
