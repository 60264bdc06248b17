package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RecentHotCars handles the GET /api/hotcars request.
func (h *Handler) RecentHotCars(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	reports, err := h.store.RecentReports(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// HotCarsForCar handles the GET /api/hotcars/{car_number} request.
func (h *Handler) HotCarsForCar(c *gin.Context) {
	carNumber, err := strconv.Atoi(c.Param("car_number"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid car number"})
		return
	}

	reports, err := h.store.ReportsForCar(c.Request.Context(), carNumber)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}
