package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"zone-safety-service/internal/model"
	"zone-safety-service/internal/repository"
)

const (
	defaultViolationDays  = 30
	defaultViolationLimit = 20
	maxViolationLimit     = 100
	autoResolveNotes      = "Auto-resolved violation"
)

type ViolationService struct {
	zones      ZoneStore
	rules      AccessRuleStore
	violations ViolationStore
	alerts     AlertEmitter
	notifier   ContactNotifier
	dispatcher *Dispatcher
	log        zerolog.Logger
	now        func() time.Time
}

func NewViolationService(
	zones ZoneStore,
	rules AccessRuleStore,
	violations ViolationStore,
	alerts AlertEmitter,
	notifier ContactNotifier,
	dispatcher *Dispatcher,
	log zerolog.Logger,
) *ViolationService {
	return &ViolationService{
		zones:      zones,
		rules:      rules,
		violations: violations,
		alerts:     alerts,
		notifier:   notifier,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

type ViolationReport struct {
	ZoneID          string
	ViolationType   string
	Severity        model.ViolationSeverity
	Description     string
	ViolatorID      *string
	ViolatorType    model.ViolatorType
	RuleViolated    string
	DetectionMethod model.DetectionMethod
	Confidence      *float64
	AutoResolve     bool
}

type ViolationResult struct {
	Violation *model.Violation        `json:"violation"`
	Actions   []model.ViolationAction `json:"actions"`
	Outcomes  []TaskOutcome           `json:"outcomes"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// ReportViolation persists the violation, runs the resolved actions and applies
// the auto-resolution policy. Once the violation is stored, failures of
// secondary steps only produce warnings.
func (s *ViolationService) ReportViolation(ctx context.Context, principal model.Principal, report ViolationReport) (*ViolationResult, error) {
	violation, zoneID, err := newViolation(report)
	if err != nil {
		return nil, err
	}

	zone, err := loadZone(ctx, s.zones, principal, zoneID)
	if err != nil {
		return nil, err
	}

	rules, err := s.rules.ListActiveByZone(ctx, zone.ID)
	if err != nil {
		return nil, dependencyError("load access rules", err)
	}

	actions := ResolveActions(violation, rules)

	violation.ZoneID = zone.ID
	violation.ReportedBy = principal.UserID
	violation.Timestamp = s.now().UTC()
	violation.ActionsTaken = actions.String()

	if err := s.violations.Create(ctx, violation); err != nil {
		return nil, dependencyError("create violation", err)
	}

	outcomes := s.dispatcher.Dispatch(ctx, s.actionTasks(zone, violation, actions))

	result := &ViolationResult{
		Violation: violation,
		Actions:   actions.Actions(),
		Outcomes:  outcomes,
		Warnings:  failedOutcomes(outcomes),
	}

	if report.AutoResolve && CanAutoResolve(violation) {
		resolved := *violation
		resolved.Resolve(violation.Timestamp, model.SystemResolver, stringPtr(autoResolveNotes))
		ok, err := s.violations.MarkResolved(context.WithoutCancel(ctx), &resolved)
		switch {
		case err != nil:
			s.log.Error().Err(err).Str("violation_id", violation.ID.String()).Msg("failed to auto-resolve violation")
			result.Warnings = append(result.Warnings, "auto-resolution could not be saved")
		case !ok:
			result.Warnings = append(result.Warnings, "violation was resolved concurrently")
		default:
			result.Violation = &resolved
		}
	}

	return result, nil
}

func newViolation(report ViolationReport) (*model.Violation, uuid.UUID, error) {
	zoneID, err := parseID(report.ZoneID, "zone id")
	if err != nil {
		return nil, uuid.Nil, err
	}

	violationType := strings.TrimSpace(report.ViolationType)
	description := strings.TrimSpace(report.Description)
	ruleViolated := strings.TrimSpace(report.RuleViolated)

	var missing []string
	if violationType == "" {
		missing = append(missing, "violationType")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if ruleViolated == "" {
		missing = append(missing, "ruleViolated")
	}
	if len(missing) > 0 {
		return nil, uuid.Nil, invalidInput("missing required fields: %s", strings.Join(missing, ", "))
	}

	severity := report.Severity
	if severity == "" {
		severity = model.ViolationSeverityMedium
	}
	if !severity.Valid() {
		return nil, uuid.Nil, invalidInput("unknown severity %q", severity)
	}

	if report.Confidence != nil && (*report.Confidence < 0 || *report.Confidence > 1) {
		return nil, uuid.Nil, invalidInput("confidence must be between 0 and 1")
	}

	violatorType := report.ViolatorType
	if violatorType == "" {
		violatorType = model.ViolatorChild
	}
	detection := report.DetectionMethod
	if detection == "" {
		detection = model.DetectionStaffReport
	}

	return &model.Violation{
		ID:              uuid.New(),
		ViolationType:   violationType,
		Severity:        severity,
		Description:     description,
		ViolatorID:      report.ViolatorID,
		ViolatorType:    violatorType,
		RuleViolated:    ruleViolated,
		DetectionMethod: detection,
		Confidence:      report.Confidence,
	}, zoneID, nil
}

func (s *ViolationService) actionTasks(zone *model.Zone, violation *model.Violation, actions *ActionSet) []Task {
	tasks := make([]Task, 0, actions.Len())
	for _, action := range actions.Actions() {
		task := Task{Name: string(action)}

		switch action {
		case model.ActionAlert:
			task.Run = func(ctx context.Context) error {
				_, err := s.alerts.Emit(ctx, violationAlert(zone, violation, model.AlertSubTypeZoneViolation, s.now().UTC()))
				return err
			}
		case model.ActionCreateIncident:
			task.Run = func(ctx context.Context) error {
				_, err := s.alerts.Emit(ctx, violationAlert(zone, violation, model.AlertSubTypeIncident, s.now().UTC()))
				return err
			}
		case model.ActionContactStaff:
			task.Run = s.notifyTask(zone, violation, model.AudienceStaff, nil)
		case model.ActionEscalate:
			task.Run = s.notifyTask(zone, violation, model.AudienceEscalation, nil)
		case model.ActionContactParent:
			task.Run = s.notifyTask(zone, violation, model.AudienceParent, violation.ViolatorID)
		default:
			task.Run = func(ctx context.Context) error {
				s.log.Warn().
					Str("action", string(action)).
					Str("violation_id", violation.ID.String()).
					Msg("unknown violation action, skipping")
				return nil
			}
		}

		tasks = append(tasks, task)
	}
	return tasks
}

func (s *ViolationService) notifyTask(zone *model.Zone, violation *model.Violation, audience model.NotificationAudience, recipient *string) func(context.Context) error {
	return func(ctx context.Context) error {
		if audience == model.AudienceParent && (recipient == nil || *recipient == "") {
			return errors.New("violation has no violator id to contact a parent for")
		}
		return s.notifier.Notify(ctx, model.Notification{
			Audience:      audience,
			VenueID:       zone.VenueID,
			ZoneID:        zone.ID,
			ViolationID:   violation.ID,
			ViolationType: violation.ViolationType,
			Severity:      violation.Severity,
			RecipientID:   recipient,
			Message:       fmt.Sprintf("%s in %s: %s", violation.ViolationType, zone.Name, violation.Description),
		})
	}
}

func violationAlert(zone *model.Zone, violation *model.Violation, subType model.AlertSubType, now time.Time) *model.Alert {
	title := fmt.Sprintf("Zone Violation: %s", violation.ViolationType)
	if subType == model.AlertSubTypeIncident {
		title = fmt.Sprintf("Incident: %s", violation.ViolationType)
	}
	return &model.Alert{
		ID:          uuid.New(),
		VenueID:     zone.VenueID,
		ZoneID:      zone.ID,
		Type:        model.AlertTypeSafety,
		SubType:     subType,
		Title:       title,
		Description: violation.Description,
		Severity:    AlertSeverityFor(violation.Severity),
		Priority:    "HIGH",
		Trigger: model.AlertTrigger{
			Violation: &model.ViolationTrigger{
				ViolationID:   violation.ID,
				ViolationType: violation.ViolationType,
				ViolatorID:    violation.ViolatorID,
			},
		},
		CreatedAt: now,
	}
}

// ResolveViolation closes an open violation. A second resolution fails with
// ErrConflict and leaves the first one untouched.
func (s *ViolationService) ResolveViolation(ctx context.Context, principal model.Principal, rawID, resolvedBy string, notes *string) (*model.Violation, error) {
	if !principal.IsAdmin() && !principal.IsStaff() && !principal.IsSystem() {
		return nil, ErrPermissionDenied
	}

	id, err := parseID(rawID, "violation id")
	if err != nil {
		return nil, err
	}
	resolvedBy = strings.TrimSpace(resolvedBy)
	if resolvedBy == "" {
		return nil, invalidInput("resolvedBy is required")
	}

	violation, err := s.violations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, dependencyError("load violation", err)
	}

	if _, err := loadZone(ctx, s.zones, principal, violation.ZoneID); err != nil {
		return nil, err
	}

	if violation.IsResolved {
		return nil, ErrConflict
	}

	violation.Resolve(s.now().UTC(), resolvedBy, notes)
	ok, err := s.violations.MarkResolved(ctx, violation)
	if err != nil {
		return nil, dependencyError("resolve violation", err)
	}
	if !ok {
		return nil, ErrConflict
	}

	return violation, nil
}

type ViolationFilter struct {
	Status        string
	Severity      string
	ViolationType string
	DaysBack      int
	Page          int
	Limit         int
}

type ViolationSummary struct {
	Total                 int64            `json:"total"`
	Unresolved            int64            `json:"unresolved"`
	Resolved              int64            `json:"resolved"`
	BySeverity            map[string]int64 `json:"by_severity"`
	ByType                map[string]int64 `json:"by_type"`
	AverageResolutionTime int64            `json:"average_resolution_time"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ViolationList struct {
	Zone       ZoneInfo          `json:"zone"`
	Violations []model.Violation `json:"violations"`
	Summary    ViolationSummary  `json:"summary"`
	Pagination Pagination        `json:"pagination"`
}

func (s *ViolationService) ListViolations(ctx context.Context, principal model.Principal, rawZoneID string, filter ViolationFilter) (*ViolationList, error) {
	zoneID, err := parseID(rawZoneID, "zone id")
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = defaultViolationLimit
	}
	if limit > maxViolationLimit {
		limit = maxViolationLimit
	}
	daysBack := filter.DaysBack
	if daysBack <= 0 {
		daysBack = defaultViolationDays
	}

	since := s.now().UTC().AddDate(0, 0, -daysBack)
	query := repository.ViolationListFilter{
		Since:  since,
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	switch strings.ToLower(filter.Status) {
	case "":
	case "resolved":
		query.IsResolved = boolPtr(true)
	case "unresolved":
		query.IsResolved = boolPtr(false)
	default:
		return nil, invalidInput("unknown status %q", filter.Status)
	}
	if filter.Severity != "" {
		severity := model.ViolationSeverity(strings.ToUpper(filter.Severity))
		if !severity.Valid() {
			return nil, invalidInput("unknown severity %q", filter.Severity)
		}
		query.Severity = &severity
	}
	if filter.ViolationType != "" {
		query.ViolationType = &filter.ViolationType
	}

	zone, err := loadZone(ctx, s.zones, principal, zoneID)
	if err != nil {
		return nil, err
	}
	query.ZoneID = zone.ID

	violations, total, err := s.violations.List(ctx, query)
	if err != nil {
		return nil, dependencyError("list violations", err)
	}

	stats, err := s.violations.Stats(ctx, zone.ID, since)
	if err != nil {
		return nil, dependencyError("violation stats", err)
	}

	avg, err := s.violations.AverageResolutionTime(ctx, zone.ID, since)
	if err != nil {
		return nil, dependencyError("violation resolution time", err)
	}

	summary := ViolationSummary{
		Total:                 total,
		BySeverity:            make(map[string]int64),
		ByType:                make(map[string]int64),
		AverageResolutionTime: avg,
	}
	for _, stat := range stats {
		summary.BySeverity[string(stat.Severity)] += stat.Count
		summary.ByType[stat.ViolationType] += stat.Count
		if stat.IsResolved {
			summary.Resolved += stat.Count
		} else {
			summary.Unresolved += stat.Count
		}
	}

	return &ViolationList{
		Zone:       zoneInfo(zone),
		Violations: violations,
		Summary:    summary,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
