package notification

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

const sendEmailPath = "/api/notifications/send-email"

// ErrDelivery is returned when the notification service did not accept a
// message: transport failure, timeout or a status other than 200/201.
// Callers treat it as transient.
var ErrDelivery = errors.New("notification delivery failed")

// Notification types understood by the notification service.
const (
	TypeTaskReminder = "task_reminder"
)

// PriorityHigh marks a message for expedited delivery.
const PriorityHigh = "high"

// Message is the payload accepted by the send-email endpoint.
type Message struct {
	UserID           uuid.UUID `json:"user_id"`
	Email            string    `json:"email"`
	Subject          string    `json:"subject"`
	HTMLMessage      string    `json:"html_message"`
	TaskID           uuid.UUID `json:"task_id"`
	NotificationType string    `json:"notification_type"`
	Priority         string    `json:"priority,omitempty"`
}

// Client posts messages to the notification service.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a client with a pooled transport and the configured timeout.
func NewClient(cfg config.NotificationConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout()
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		logger:  logger.With(slog.String("component", "notification_client")),
	}
}

// Send delivers one message. Any failure wraps ErrDelivery.
func (c *Client) Send(ctx context.Context, msg Message) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendEmailPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn("notification request failed",
			slog.String("task_id", msg.TaskID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Warn("notification service rejected message",
			slog.String("task_id", msg.TaskID.String()),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: notification service returned %d", ErrDelivery, resp.StatusCode)
	}

	log.Debug("notification delivered",
		slog.String("task_id", msg.TaskID.String()),
		slog.String("notification_type", msg.NotificationType))
	return nil
}
