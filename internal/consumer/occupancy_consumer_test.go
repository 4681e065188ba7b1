package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-safety-service/internal/model"
	"zone-safety-service/internal/service"
)

type fakeRecorder struct {
	principal model.Principal
	input     service.RecordOccupancyInput
	calls     int
	err       error
}

func (f *fakeRecorder) RecordOccupancy(ctx context.Context, principal model.Principal, input service.RecordOccupancyInput) (*service.OccupancyResult, error) {
	f.calls++
	f.principal = principal
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &service.OccupancyResult{Status: model.CapacityStatusNormal}, nil
}

func newTestConsumer(recorder OccupancyRecorder) *OccupancyConsumer {
	return &OccupancyConsumer{recorder: recorder, log: zerolog.Nop()}
}

func TestHandleRecordsCameraCount(t *testing.T) {
	recorder := &fakeRecorder{}
	c := newTestConsumer(recorder)

	payload := []byte(`{"zone_id":"4f1b7c1e-6a7e-4d7a-9b0e-2f0c2d1e9a11","occupancy_count":7,"event_type":"entry","camera_id":"cam-3","confidence":0.92}`)
	require.NoError(t, c.Handle(context.Background(), "zones/4f1b7c1e-6a7e-4d7a-9b0e-2f0c2d1e9a11/occupancy", payload))

	require.Equal(t, 1, recorder.calls)
	assert.True(t, recorder.principal.IsSystem())
	assert.Equal(t, "detector:cam-3", recorder.principal.UserID)
	assert.Equal(t, 7, recorder.input.OccupancyCount)
	assert.Equal(t, model.OccupancyEventEntry, recorder.input.EventType)
	assert.Equal(t, model.EntryMethodCamera, recorder.input.EntryMethod)
	require.NotNil(t, recorder.input.Detection)
	assert.Equal(t, "cam-3", recorder.input.Detection.CameraID)
	require.NotNil(t, recorder.input.Detection.Confidence)
	assert.InDelta(t, 0.92, *recorder.input.Detection.Confidence, 1e-9)
}

func TestHandleFallsBackToTopicZone(t *testing.T) {
	recorder := &fakeRecorder{}
	c := newTestConsumer(recorder)

	require.NoError(t, c.Handle(context.Background(), "zones/zone-from-topic/occupancy", []byte(`{"occupancy_count":0}`)))
	assert.Equal(t, "zone-from-topic", recorder.input.ZoneID)
	assert.Equal(t, "detector:unknown", recorder.principal.UserID)
}

func TestHandleRejectsBadPayloads(t *testing.T) {
	recorder := &fakeRecorder{}
	c := newTestConsumer(recorder)

	cases := map[string]struct {
		topic   string
		payload string
	}{
		"not json":      {"zones/z/occupancy", `{`},
		"missing count": {"zones/z/occupancy", `{"zone_id":"z"}`},
		"missing zone":  {"cameras/cam-1", `{"occupancy_count":3}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.Handle(context.Background(), tc.topic, []byte(tc.payload)))
		})
	}
	assert.Zero(t, recorder.calls)
}

func TestHandlePropagatesRecorderError(t *testing.T) {
	recorder := &fakeRecorder{err: service.ErrNotFound}
	c := newTestConsumer(recorder)

	err := c.Handle(context.Background(), "zones/z/occupancy", []byte(`{"occupancy_count":3}`))
	assert.True(t, errors.Is(err, service.ErrNotFound))
}
