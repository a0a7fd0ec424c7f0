// Package ratesource talks to the external VES quote provider over HTTP.
package ratesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/middleware"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// Config describes where the provider lives.
type Config struct {
	BaseURL     string
	CurrentPath string
	HistoryPath string
	Timeout     time.Duration
}

// Client implements portssvc.RateSource.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a provider client. A zero timeout defaults to 10 seconds.
func NewClient(cfg Config, options ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
	for _, option := range options {
		option(c)
	}
	return c
}

var _ portssvc.RateSource = (*Client)(nil)

// ratePayload is one quote as published by the provider, in VES per unit.
type ratePayload struct {
	Date string          `json:"date"`
	USD  decimal.Decimal `json:"usd"`
	EUR  decimal.Decimal `json:"eur"`
}

type currentPayload struct {
	Current *ratePayload `json:"current"`
}

type historyPayload struct {
	Rates []ratePayload `json:"rates"`
}

func (p ratePayload) toQuote() (*domain.ExchangeQuote, bool) {
	date, err := civil.ParseDate(p.Date)
	if err != nil || !p.USD.IsPositive() {
		return nil, false
	}
	// A missing or non-positive EUR rate is stored as zero.
	eur := p.EUR
	if !eur.IsPositive() {
		eur = decimal.Zero
	}
	return &domain.ExchangeQuote{Date: date, SourceDate: date, VESPerUSD: p.USD, VESPerEUR: eur}, true
}

func (c *Client) Name() string {
	return "ratesource:" + c.cfg.BaseURL
}

// FetchCurrent returns the provider's latest quote, or nil if it published none.
func (c *Client) FetchCurrent(ctx context.Context) (*domain.ExchangeQuote, error) {
	var payload currentPayload
	found, err := c.getJSON(ctx, c.cfg.CurrentPath, nil, &payload)
	if err != nil || !found {
		return nil, err
	}
	if payload.Current == nil {
		return nil, nil
	}
	q, ok := payload.Current.toQuote()
	if !ok {
		return nil, fmt.Errorf("%w: malformed current quote", apperrors.ErrRateUnavailable)
	}
	return q, nil
}

// FetchByDate asks the history endpoint for a single day.
func (c *Client) FetchByDate(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error) {
	query := url.Values{}
	query.Set("from", date.String())
	query.Set("to", date.String())

	var payload historyPayload
	found, err := c.getJSON(ctx, c.cfg.HistoryPath, query, &payload)
	if err != nil || !found {
		return nil, err
	}
	for _, r := range payload.Rates {
		q, ok := r.toQuote()
		if ok && q.Date == date {
			return q, nil
		}
	}
	return nil, nil
}

// getJSON performs a GET and decodes the body into data. It reports false
// without an error when the provider answered with a non-200, non-5xx status.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, data any) (bool, error) {
	if c.cfg.BaseURL == "" {
		return false, nil
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("cannot create request to %s: %w", u, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrProviderTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return false, fmt.Errorf("%w: %s returned %s", apperrors.ErrProviderTransient, path, resp.Status)
	case resp.StatusCode != http.StatusOK:
		logger.Debug("Rate provider returned no quote", slog.String("path", path), slog.Int("status", resp.StatusCode))
		return false, nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(data); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("%w: %v", apperrors.ErrProviderTransient, err)
		}
		return false, fmt.Errorf("%w: cannot decode %s response: %v", apperrors.ErrRateUnavailable, path, err)
	}
	return true, nil
}
