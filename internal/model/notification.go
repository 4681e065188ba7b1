package model

import "github.com/google/uuid"

type NotificationAudience string

const (
	AudienceStaff      NotificationAudience = "STAFF"
	AudienceParent     NotificationAudience = "PARENT"
	AudienceEscalation NotificationAudience = "ESCALATION"
)

// Notification is a contact request handed to the notification gateway, which
// owns recipient lookup and the delivery channel.
type Notification struct {
	Audience      NotificationAudience `json:"audience"`
	VenueID       uuid.UUID            `json:"venue_id"`
	ZoneID        uuid.UUID            `json:"zone_id"`
	ViolationID   uuid.UUID            `json:"violation_id"`
	ViolationType string               `json:"violation_type"`
	Severity      ViolationSeverity    `json:"severity"`
	RecipientID   *string              `json:"recipient_id,omitempty"`
	Message       string               `json:"message"`
}

// AlertAck identifies where an emitted alert was accepted.
type AlertAck struct {
	Channel   string `json:"channel"`
	MessageID string `json:"message_id"`
}
