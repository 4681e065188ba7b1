package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"zone-safety-service/internal/model"
)

const (
	ChannelStream = "redis-stream"
	ChannelStore  = "database"
)

// StreamWriter is the subset of *redis.Client used for publishing.
type StreamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamEmitter publishes alerts as JSON entries of a Redis stream.
type StreamEmitter struct {
	client StreamWriter
	stream string
	now    func() time.Time
}

func NewStreamEmitter(client StreamWriter, stream string) *StreamEmitter {
	return &StreamEmitter{
		client: client,
		stream: stream,
		now:    time.Now,
	}
}

func (e *StreamEmitter) Emit(ctx context.Context, alert *model.Alert) (model.AlertAck, error) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return model.AlertAck{}, fmt.Errorf("encode alert: %w", err)
	}

	id, err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: e.stream,
		Values: map[string]interface{}{
			"type":      string(alert.SubType),
			"data":      string(payload),
			"timestamp": e.now().Unix(),
		},
	}).Result()
	if err != nil {
		return model.AlertAck{}, fmt.Errorf("publish alert to %s: %w", e.stream, err)
	}

	return model.AlertAck{Channel: ChannelStream, MessageID: id}, nil
}

type AlertWriter interface {
	Create(ctx context.Context, alert *model.Alert) error
}

// StoreEmitter keeps an alert row so alerts survive a stream outage.
type StoreEmitter struct {
	alerts AlertWriter
}

func NewStoreEmitter(alerts AlertWriter) *StoreEmitter {
	return &StoreEmitter{alerts: alerts}
}

func (e *StoreEmitter) Emit(ctx context.Context, alert *model.Alert) (model.AlertAck, error) {
	if err := e.alerts.Create(ctx, alert); err != nil {
		return model.AlertAck{}, fmt.Errorf("store alert: %w", err)
	}
	return model.AlertAck{Channel: ChannelStore, MessageID: alert.ID.String()}, nil
}

type Emitter interface {
	Emit(ctx context.Context, alert *model.Alert) (model.AlertAck, error)
}

// Fanout hands every alert to all emitters in order. The returned ack is the
// first successful one; errors of the others are joined.
type Fanout struct {
	emitters []Emitter
	log      zerolog.Logger
}

func NewFanout(log zerolog.Logger, emitters ...Emitter) *Fanout {
	return &Fanout{emitters: emitters, log: log}
}

func (f *Fanout) Emit(ctx context.Context, alert *model.Alert) (model.AlertAck, error) {
	var (
		ack  model.AlertAck
		errs []error
	)
	for _, emitter := range f.emitters {
		got, err := emitter.Emit(ctx, alert)
		if err != nil {
			f.log.Warn().Err(err).Str("alert_id", alert.ID.String()).Msg("alert emitter failed")
			errs = append(errs, err)
			continue
		}
		if ack.Channel == "" {
			ack = got
		}
	}
	return ack, errors.Join(errs...)
}
