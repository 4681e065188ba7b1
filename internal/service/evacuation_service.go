package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"zone-safety-service/internal/model"
)

const inspectionMaxAgeDays = 30

type ReadinessStatus string

const (
	ReadinessReady       ReadinessStatus = "READY"
	ReadinessMostlyReady ReadinessStatus = "MOSTLY_READY"
	ReadinessNotReady    ReadinessStatus = "NOT_READY"
)

type IssueSeverity string

const (
	IssueSeverityHigh   IssueSeverity = "HIGH"
	IssueSeverityMedium IssueSeverity = "MEDIUM"
)

type RecommendationPriority string

const (
	PriorityImmediate RecommendationPriority = "IMMEDIATE"
	PriorityHigh      RecommendationPriority = "HIGH"
	PriorityMedium    RecommendationPriority = "MEDIUM"
)

type RouteIssue struct {
	RouteID   uuid.UUID     `json:"route_id"`
	RouteName string        `json:"route_name"`
	Issue     string        `json:"issue"`
	Severity  IssueSeverity `json:"severity"`
}

type RouteReadiness struct {
	ReadyRoutes         int             `json:"ready_routes"`
	TotalRoutes         int             `json:"total_routes"`
	ReadinessPercentage int             `json:"readiness_percentage"`
	Issues              []RouteIssue    `json:"issues"`
	OverallStatus       ReadinessStatus `json:"overall_status"`
}

type Recommendation struct {
	Type     string                 `json:"type"`
	Message  string                 `json:"message"`
	Action   string                 `json:"action"`
	Priority RecommendationPriority `json:"priority"`
}

type RouteStatistics struct {
	TotalRoutes       int     `json:"total_routes"`
	PrimaryRoutes     int     `json:"primary_routes"`
	ActiveAssignments int     `json:"active_assignments"`
	AverageDistance   float64 `json:"average_distance"`
	AverageTime       float64 `json:"average_time"`
	TotalCapacity     int     `json:"total_capacity"`
}

type ReadinessReport struct {
	Zone            ZoneInfo                `json:"zone"`
	Routes          []model.EvacuationRoute `json:"routes"`
	Statistics      RouteStatistics         `json:"statistics"`
	Readiness       RouteReadiness          `json:"readiness"`
	Recommendations []Recommendation        `json:"recommendations"`
	AssessedAt      time.Time               `json:"assessed_at"`
}

type EvacuationService struct {
	zones  ZoneStore
	routes EvacuationRouteStore
	now    func() time.Time
}

func NewEvacuationService(zones ZoneStore, routes EvacuationRouteStore) *EvacuationService {
	return &EvacuationService{
		zones:  zones,
		routes: routes,
		now:    time.Now,
	}
}

// AssessEvacuationReadiness is recomputed on every call; nothing is stored.
func (s *EvacuationService) AssessEvacuationReadiness(ctx context.Context, principal model.Principal, rawZoneID string) (*ReadinessReport, error) {
	zoneID, err := parseID(rawZoneID, "zone id")
	if err != nil {
		return nil, err
	}

	zone, err := loadZone(ctx, s.zones, principal, zoneID)
	if err != nil {
		return nil, err
	}

	routes, err := s.routes.ListActiveFromZone(ctx, zone.ID)
	if err != nil {
		return nil, dependencyError("load evacuation routes", err)
	}

	routeIDs := make([]uuid.UUID, len(routes))
	for i, r := range routes {
		routeIDs[i] = r.ID
	}
	assignments, err := s.routes.CountActiveAssignments(ctx, routeIDs)
	if err != nil {
		return nil, dependencyError("count route assignments", err)
	}

	now := s.now().UTC()
	return &ReadinessReport{
		Zone:            zoneInfo(zone),
		Routes:          routes,
		Statistics:      routeStatistics(routes, assignments),
		Readiness:       AssessRoutes(routes, now),
		Recommendations: Recommend(routes, zone.MaxCapacity()),
		AssessedAt:      now,
	}, nil
}

// AssessRoutes checks every route against the operational criteria. A route is
// ready only if none of the checks raised an issue.
func AssessRoutes(routes []model.EvacuationRoute, now time.Time) RouteReadiness {
	readiness := RouteReadiness{
		TotalRoutes: len(routes),
		Issues:      []RouteIssue{},
	}

	for _, route := range routes {
		ready := true
		issue := func(text string, severity IssueSeverity) {
			ready = false
			readiness.Issues = append(readiness.Issues, RouteIssue{
				RouteID:   route.ID,
				RouteName: route.Name,
				Issue:     text,
				Severity:  severity,
			})
		}

		if route.ObstacleStatus != model.ObstacleClear {
			issue(fmt.Sprintf("Route has obstacles: %s", route.ObstacleStatus), IssueSeverityHigh)
		}
		if !route.Lighting {
			issue("Inadequate lighting", IssueSeverityMedium)
		}
		if !route.Signage {
			issue("Missing emergency signage", IssueSeverityHigh)
		}
		if route.LastInspection == nil {
			issue("Route never inspected", IssueSeverityHigh)
		} else if days := int(now.Sub(*route.LastInspection).Hours() / 24); days > inspectionMaxAgeDays {
			issue(fmt.Sprintf("Route not inspected for %d days", days), IssueSeverityMedium)
		}

		if ready {
			readiness.ReadyRoutes++
		}
	}

	total := readiness.TotalRoutes
	ready := readiness.ReadyRoutes
	switch {
	case total == 0:
		readiness.OverallStatus = ReadinessNotReady
	case ready == total:
		readiness.OverallStatus = ReadinessReady
	case float64(ready) > 0.7*float64(total):
		readiness.OverallStatus = ReadinessMostlyReady
	default:
		readiness.OverallStatus = ReadinessNotReady
	}
	if total > 0 {
		readiness.ReadinessPercentage = int(math.Round(float64(ready) / float64(total) * 100))
	}

	return readiness
}

// Recommend runs independent checks; several recommendations may apply at once.
func Recommend(routes []model.EvacuationRoute, zoneCapacity int) []Recommendation {
	recommendations := []Recommendation{}

	if len(routes) == 0 {
		recommendations = append(recommendations, Recommendation{
			Type:     "critical",
			Message:  "No evacuation routes defined for this zone. This is a critical safety issue.",
			Action:   "Create evacuation routes immediately",
			Priority: PriorityImmediate,
		})
	}

	var primary, accessible, hazardous, totalCapacity int
	for _, r := range routes {
		if r.IsPrimary {
			primary++
		}
		if r.IsAccessible {
			accessible++
		}
		if r.HazardLevel == model.HazardHigh || r.HazardLevel == model.HazardExtreme {
			hazardous++
		}
		totalCapacity += r.MaxCapacity
	}

	if primary == 0 {
		recommendations = append(recommendations, Recommendation{
			Type:     "warning",
			Message:  "No primary evacuation route designated.",
			Action:   "Designate at least one primary evacuation route",
			Priority: PriorityHigh,
		})
	}

	if accessible == 0 {
		recommendations = append(recommendations, Recommendation{
			Type:     "warning",
			Message:  "No wheelchair accessible evacuation routes.",
			Action:   "Ensure at least one route is wheelchair accessible",
			Priority: PriorityHigh,
		})
	}

	if totalCapacity < zoneCapacity {
		recommendations = append(recommendations, Recommendation{
			Type:     "warning",
			Message:  fmt.Sprintf("Evacuation capacity (%d) is less than zone capacity (%d).", totalCapacity, zoneCapacity),
			Action:   "Increase evacuation route capacity or add additional routes",
			Priority: PriorityMedium,
		})
	}

	if hazardous > 0 {
		recommendations = append(recommendations, Recommendation{
			Type:     "info",
			Message:  fmt.Sprintf("%d evacuation routes have high hazard levels.", hazardous),
			Action:   "Review and mitigate hazards or provide alternative routes",
			Priority: PriorityMedium,
		})
	}

	return recommendations
}

func routeStatistics(routes []model.EvacuationRoute, assignments map[uuid.UUID]int) RouteStatistics {
	stats := RouteStatistics{TotalRoutes: len(routes)}
	if len(routes) == 0 {
		return stats
	}

	var distance float64
	var minutes int
	for _, r := range routes {
		if r.IsPrimary {
			stats.PrimaryRoutes++
		}
		stats.ActiveAssignments += assignments[r.ID]
		stats.TotalCapacity += r.MaxCapacity
		distance += r.Distance
		minutes += r.EstimatedTime
	}
	stats.AverageDistance = distance / float64(len(routes))
	stats.AverageTime = float64(minutes) / float64(len(routes))
	return stats
}
