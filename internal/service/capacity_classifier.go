package service

import "zone-safety-service/internal/model"

const (
	lowUtilization  = 0.25
	highUtilization = 0.85
	fullUtilization = 1.0
)

type Classification struct {
	UtilizationRate float64              `json:"utilization_rate"`
	Status          model.CapacityStatus `json:"status"`
}

// Classify maps an occupancy count onto a capacity status. Thresholds are
// checked in order and the first match wins.
func Classify(occupancyCount, maxCapacity int) Classification {
	var rate float64
	if maxCapacity > 0 {
		rate = float64(occupancyCount) / float64(maxCapacity)
	}

	var status model.CapacityStatus
	switch {
	case occupancyCount == 0:
		status = model.CapacityStatusEmpty
	case rate < lowUtilization:
		status = model.CapacityStatusLow
	case rate >= fullUtilization:
		status = model.CapacityStatusFull
	case rate >= highUtilization:
		status = model.CapacityStatusHigh
	default:
		status = model.CapacityStatusNormal
	}

	return Classification{UtilizationRate: rate, Status: status}
}

// Trend compares the running averages of the three most recent samples
// (samples are most recent first). It is a coarse heuristic: no smoothing.
func Trend(samples []int) model.CapacityTrend {
	if len(samples) < 3 {
		return model.CapacityTrendStable
	}

	s0, s1, s2 := float64(samples[0]), float64(samples[1]), float64(samples[2])
	avg1 := s0
	avg2 := (s0 + s1) / 2
	avg3 := (s0 + s1 + s2) / 3

	if avg1 > avg2 && avg2 > avg3 {
		return model.CapacityTrendDecreasing
	}
	if avg1 < avg2 && avg2 < avg3 {
		return model.CapacityTrendIncreasing
	}
	return model.CapacityTrendStable
}
