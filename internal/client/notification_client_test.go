package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-safety-service/internal/config"
	"zone-safety-service/internal/model"
)

func TestNotifyPostsNotification(t *testing.T) {
	var received model.Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/internal/notifications", r.URL.Path)
		assert.Equal(t, "internal-token", r.Header.Get("X-Internal-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"n-1"}}`))
	}))
	defer server.Close()

	c := NewNotificationClient(config.NotificationConfig{
		ServiceURL:    server.URL,
		InternalToken: "internal-token",
	}, zerolog.Nop())

	notification := model.Notification{
		Audience:      model.AudienceStaff,
		ZoneID:        uuid.New(),
		ViolationID:   uuid.New(),
		ViolationType: "RUNNING",
		Severity:      model.ViolationSeverityLow,
		Message:       "RUNNING in Play Area",
	}
	require.NoError(t, c.Notify(context.Background(), notification))

	assert.Equal(t, notification.ViolationID, received.ViolationID)
	assert.Equal(t, model.AudienceStaff, received.Audience)
}

func TestNotifyRejectedRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown recipient"}`))
	}))
	defer server.Close()

	c := NewNotificationClient(config.NotificationConfig{ServiceURL: server.URL}, zerolog.Nop())

	err := c.Notify(context.Background(), model.Notification{Audience: model.AudienceParent})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "unknown recipient")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNotifyWithoutURL(t *testing.T) {
	c := NewNotificationClient(config.NotificationConfig{}, zerolog.Nop())

	err := c.Notify(context.Background(), model.Notification{})
	require.Error(t, err)
}
