package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
	"github.com/SscSPs/multicurrency_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ratesHandler struct {
	rates      portssvc.RateResolverSvc
	conversion portssvc.ConversionSvc
	location   *time.Location
}

// RegisterRateRoutes registers exchange quote and conversion routes. loc
// decides which calendar day "today" is when no date is given.
func RegisterRateRoutes(rg *gin.RouterGroup, rates portssvc.RateResolverSvc, conversion portssvc.ConversionSvc, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	h := &ratesHandler{rates: rates, conversion: conversion, location: loc}

	r := rg.Group("/rates")
	{
		r.GET("/current", h.getCurrentQuote)
		r.GET("/:date", h.getQuoteByDate)
	}
	rg.GET("/conversions/usd", h.convertToUSD)
}

// getCurrentQuote godoc
// @Summary Get the current exchange quote
// @Description Fetched from the provider at most once per day unless refresh is set. Falls back to the last stored quote when the provider fails.
// @Tags rates
// @Produce  json
// @Param   refresh query bool false "Force a provider refresh"
// @Success 200 {object} dto.ExchangeQuoteResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No quote available"
// @Security BearerAuth
// @Router /rates/current [get]
func (h *ratesHandler) getCurrentQuote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.CurrentQuoteParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	quote, err := h.rates.CurrentQuote(c.Request.Context(), params.Refresh)
	if err != nil {
		respondError(c, logger, err, "Failed to get current quote")
		return
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No exchange quote available"})
		return
	}
	c.JSON(http.StatusOK, dto.ToExchangeQuoteResponse(quote))
}

// getQuoteByDate godoc
// @Summary Get the exchange quote in effect on a date
// @Description Uses the closest earlier quote within the fallback window when the date itself has none.
// @Tags rates
// @Produce  json
// @Param   date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.ExchangeQuoteResponse
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No quote within the fallback window"
// @Security BearerAuth
// @Router /rates/{date} [get]
func (h *ratesHandler) getQuoteByDate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	date, err := domain.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
		return
	}

	quote, err := h.rates.ResolveQuote(c.Request.Context(), date)
	if err != nil {
		respondError(c, logger, err, "Failed to resolve exchange quote")
		return
	}
	if quote == nil {
		logger.Info("No exchange quote for date", slog.String("date", date.String()))
		c.JSON(http.StatusNotFound, gin.H{"error": "No exchange quote available for " + date.String()})
		return
	}
	c.JSON(http.StatusOK, dto.ToExchangeQuoteResponse(quote))
}

// convertToUSD godoc
// @Summary Convert an amount to USD
// @Description Converts at the quote in effect on date (default today). amountUsd is null when no quote is available.
// @Tags rates
// @Produce  json
// @Param   amount query string true "Amount"
// @Param   currency query string true "Currency (USD, EUR, VES)"
// @Param   date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.ConversionResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /conversions/usd [get]
func (h *ratesHandler) convertToUSD(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ConvertParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	amount, err := decimal.NewFromString(params.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount: " + err.Error()})
		return
	}
	date := civil.DateOf(time.Now().In(h.location))
	if params.Date != "" {
		if date, err = domain.ParseDate(params.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
			return
		}
	}
	currency := domain.Currency(params.Currency)

	usd, err := h.conversion.ResolveUSDAmount(c.Request.Context(), amount, currency, date)
	if err != nil {
		respondError(c, logger, err, "Failed to convert amount")
		return
	}
	c.JSON(http.StatusOK, dto.ConversionResponse{
		Amount:    amount,
		Currency:  currency,
		Date:      date.String(),
		AmountUSD: usd,
		Available: usd != nil,
	})
}
