package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"zone-safety-service/internal/config"
	"zone-safety-service/internal/model"
)

const notificationsPath = "/internal/notifications"

type notificationResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Error string `json:"error"`
}

// NotificationClient forwards contact requests to the notification gateway.
type NotificationClient struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewNotificationClient(cfg config.NotificationConfig, log zerolog.Logger) *NotificationClient {
	client := resty.New().
		SetBaseURL(cfg.ServiceURL).
		SetTimeout(10*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.InternalToken != "" {
		client.SetHeader("X-Internal-Token", cfg.InternalToken)
	}

	return &NotificationClient{http: client, log: log}
}

func (c *NotificationClient) Notify(ctx context.Context, notification model.Notification) error {
	if c.http.BaseURL == "" {
		return fmt.Errorf("notification service URL is not configured")
	}

	var response notificationResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(notification).
		SetResult(&response).
		SetError(&response).
		Post(notificationsPath)
	if err != nil {
		return fmt.Errorf("failed to call notification service: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("notification service returned status %d: %s", resp.StatusCode(), response.Error)
	}

	c.log.Debug().
		Str("audience", string(notification.Audience)).
		Str("violation_id", notification.ViolationID.String()).
		Str("notification_id", response.Data.ID).
		Msg("notification accepted")

	return nil
}
