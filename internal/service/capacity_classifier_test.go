package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zone-safety-service/internal/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		occupancy int
		max       int
		status    model.CapacityStatus
		rate      float64
	}{
		{"empty", 0, 10, model.CapacityStatusEmpty, 0},
		{"below quarter", 2, 10, model.CapacityStatusLow, 0.2},
		{"quarter is normal", 25, 100, model.CapacityStatusNormal, 0.25},
		{"just under high", 84, 100, model.CapacityStatusNormal, 0.84},
		{"high boundary", 85, 100, model.CapacityStatusHigh, 0.85},
		{"nine of ten", 9, 10, model.CapacityStatusHigh, 0.9},
		{"full", 10, 10, model.CapacityStatusFull, 1},
		{"over capacity", 12, 10, model.CapacityStatusFull, 1.2},
		{"unconfigured capacity", 5, 0, model.CapacityStatusLow, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.occupancy, tc.max)
			assert.Equal(t, tc.status, got.Status)
			assert.InDelta(t, tc.rate, got.UtilizationRate, 1e-9)
		})
	}
}

func TestTrend(t *testing.T) {
	assert.Equal(t, model.CapacityTrendStable, Trend(nil))
	assert.Equal(t, model.CapacityTrendStable, Trend([]int{5, 4}))
	assert.Equal(t, model.CapacityTrendStable, Trend([]int{5, 5, 5}))

	// running averages 10, 9, 8
	assert.Equal(t, model.CapacityTrendDecreasing, Trend([]int{10, 8, 6}))
	// running averages 2, 3, 4
	assert.Equal(t, model.CapacityTrendIncreasing, Trend([]int{2, 4, 6}))

	assert.Equal(t, model.CapacityTrendStable, Trend([]int{5, 9, 1}))
	// only the three most recent samples count
	assert.Equal(t, model.CapacityTrendIncreasing, Trend([]int{2, 4, 6, 100, 0}))
}
