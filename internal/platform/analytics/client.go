package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/phrazzld/task-service/internal/config"
	"github.com/phrazzld/task-service/internal/platform/logger"
)

const storeReportPath = "/api/analytics/store-report"

// ErrDelivery is returned when the analytics service did not store a report.
var ErrDelivery = errors.New("analytics delivery failed")

// Report is the payload accepted by the store-report endpoint.
type Report struct {
	UserID     uuid.UUID `json:"user_id"`
	ReportData any       `json:"report_data"`
	Period     string    `json:"period"`
}

// Client posts reports to the analytics service.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a client with a pooled transport and the configured timeout.
func NewClient(cfg config.AnalyticsConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout()
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		logger:  logger.With(slog.String("component", "analytics_client")),
	}
}

// StoreReport delivers one report. Any failure wraps ErrDelivery.
func (c *Client) StoreReport(ctx context.Context, report Report) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+storeReportPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn("report request failed",
			slog.String("user_id", report.UserID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Warn("analytics service rejected report",
			slog.String("user_id", report.UserID.String()),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: analytics service returned %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}
