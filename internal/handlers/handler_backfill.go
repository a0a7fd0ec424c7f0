package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
	"github.com/SscSPs/multicurrency_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type backfillHandler struct {
	backfill portssvc.BackfillSvc
}

// RegisterBackfillRoutes registers the valuation backfill trigger.
func RegisterBackfillRoutes(rg *gin.RouterGroup, backfill portssvc.BackfillSvc) {
	h := &backfillHandler{backfill: backfill}
	rg.POST("/maintenance/backfill-valuations", h.runBackfill)
}

// runBackfill godoc
// @Summary Backfill missing USD valuations
// @Description Values transactions stored without amountUsd, one provider lookup per distinct date. Dates without a quote are reported and retried on the next run.
// @Tags maintenance
// @Accept  json
// @Produce  json
// @Param   request body dto.BackfillRequest false "Batch size"
// @Success 200 {object} dto.BackfillResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Backfill failed"
// @Security BearerAuth
// @Router /maintenance/backfill-valuations [post]
func (h *backfillHandler) runBackfill(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for Backfill", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	report, err := h.backfill.RunBackfill(c.Request.Context(), req.Limit)
	if err != nil {
		respondError(c, logger, err, "Backfill failed")
		return
	}
	logger.Info("Backfill completed",
		slog.Int("scanned", report.Scanned),
		slog.Int("updated", report.Updated),
		slog.Int("skipped_dates", len(report.SkippedDates)))
	c.JSON(http.StatusOK, dto.ToBackfillResponse(report))
}
