package handlers

import (
	"net/http"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
	"github.com/SscSPs/multicurrency_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type statisticsHandler struct {
	statistics portssvc.StatisticsSvc
}

// RegisterStatisticsRoutes registers reporting routes.
func RegisterStatisticsRoutes(rg *gin.RouterGroup, statistics portssvc.StatisticsSvc) {
	h := &statisticsHandler{statistics: statistics}
	rg.GET("/statistics/categories", h.categoryStatistics)
}

// categoryStatistics godoc
// @Summary USD totals per category
// @Description Sums income and expense in USD per category within [from, to]. Balance adjustments are excluded.
// @Tags statistics
// @Produce  json
// @Param   from query string true "First day (YYYY-MM-DD)"
// @Param   to query string true "Last day (YYYY-MM-DD)"
// @Success 200 {object} dto.CategoryStatisticsResponse
// @Failure 400 {object} map[string]string "Invalid date range"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute statistics"
// @Security BearerAuth
// @Router /statistics/categories [get]
func (h *statisticsHandler) categoryStatistics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.StatisticsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	from, err := domain.ParseDate(params.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date: " + err.Error()})
		return
	}
	to, err := domain.ParseDate(params.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date: " + err.Error()})
		return
	}

	stats, err := h.statistics.CategoryStatistics(c.Request.Context(), userID, from, to)
	if err != nil {
		respondError(c, logger, err, "Failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, dto.ToCategoryStatisticsResponse(stats))
}
