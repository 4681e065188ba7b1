package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"zone-safety-service/internal/config"
	"zone-safety-service/internal/model"
	"zone-safety-service/internal/service"
)

const (
	subscribeQoS      = 1
	disconnectQuiesce = 250
	handleTimeout     = 10 * time.Second
)

type OccupancyRecorder interface {
	RecordOccupancy(ctx context.Context, principal model.Principal, input service.RecordOccupancyInput) (*service.OccupancyResult, error)
}

// OccupancyMessage is published by counting cameras on zones/<zone id>/occupancy.
type OccupancyMessage struct {
	ZoneID         string   `json:"zone_id"`
	OccupancyCount *int     `json:"occupancy_count"`
	EventType      string   `json:"event_type"`
	ChildID        *string  `json:"child_id,omitempty"`
	CameraID       string   `json:"camera_id"`
	Confidence     *float64 `json:"confidence,omitempty"`
}

// OccupancyConsumer feeds detector occupancy counts into the capacity service.
type OccupancyConsumer struct {
	client   mqtt.Client
	topic    string
	recorder OccupancyRecorder
	log      zerolog.Logger
}

func NewOccupancyConsumer(cfg config.MQTTConfig, recorder OccupancyRecorder, log zerolog.Logger) *OccupancyConsumer {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	c := &OccupancyConsumer{
		topic:    cfg.OccupancyTopic,
		recorder: recorder,
		log:      log,
	}
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		// subscriptions are lost with a clean session, so resubscribe on every connect
		if err := c.subscribe(client); err != nil {
			c.log.Error().Err(err).Msg("failed to subscribe to occupancy topic")
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.log.Warn().Err(err).Msg("mqtt connection lost")
	})

	c.client = mqtt.NewClient(opts)
	return c
}

func (c *OccupancyConsumer) Start() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	c.log.Info().Str("topic", c.topic).Msg("occupancy consumer started")
	return nil
}

func (c *OccupancyConsumer) Stop() {
	c.client.Disconnect(disconnectQuiesce)
}

func (c *OccupancyConsumer) subscribe(client mqtt.Client) error {
	token := client.Subscribe(c.topic, subscribeQoS, func(_ mqtt.Client, msg mqtt.Message) {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		if err := c.Handle(ctx, msg.Topic(), msg.Payload()); err != nil {
			c.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("dropped occupancy message")
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.topic, token.Error())
	}
	return nil
}

// Handle decodes one message and records it. Malformed messages are rejected
// with an error; they are never retried.
func (c *OccupancyConsumer) Handle(ctx context.Context, topic string, payload []byte) error {
	var msg OccupancyMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode occupancy message: %w", err)
	}
	if msg.OccupancyCount == nil {
		return fmt.Errorf("occupancy message without occupancy_count")
	}

	zoneID := strings.TrimSpace(msg.ZoneID)
	if zoneID == "" {
		zoneID = zoneFromTopic(topic)
	}
	if zoneID == "" {
		return fmt.Errorf("occupancy message without zone id")
	}

	camera := strings.TrimSpace(msg.CameraID)
	if camera == "" {
		camera = "unknown"
	}

	result, err := c.recorder.RecordOccupancy(ctx, model.SystemPrincipal("detector:"+camera), service.RecordOccupancyInput{
		ZoneID:         zoneID,
		OccupancyCount: *msg.OccupancyCount,
		EventType:      model.OccupancyEventType(strings.ToUpper(msg.EventType)),
		ChildID:        msg.ChildID,
		EntryMethod:    model.EntryMethodCamera,
		Detection: &model.DetectionMetadata{
			CameraID:   camera,
			Confidence: msg.Confidence,
		},
	})
	if err != nil {
		return err
	}

	c.log.Debug().
		Str("zone_id", zoneID).
		Int("occupancy", *msg.OccupancyCount).
		Str("status", string(result.Status)).
		Msg("occupancy recorded")
	return nil
}

// zoneFromTopic reads the zone segment of zones/<zone id>/occupancy.
func zoneFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 3 && parts[0] == "zones" {
		return parts[1]
	}
	return ""
}
