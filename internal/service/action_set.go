package service

import (
	"strings"

	"zone-safety-service/internal/model"
)

// ActionSet is an insertion-ordered set of violation actions. ALERT is always
// the first member.
type ActionSet struct {
	actions []model.ViolationAction
	seen    map[model.ViolationAction]struct{}
}

func NewActionSet() *ActionSet {
	s := &ActionSet{seen: make(map[model.ViolationAction]struct{})}
	s.Add(model.ActionAlert)
	return s
}

// Add appends the action unless it is empty or already present.
func (s *ActionSet) Add(actions ...model.ViolationAction) {
	for _, a := range actions {
		if a == "" {
			continue
		}
		if _, ok := s.seen[a]; ok {
			continue
		}
		s.seen[a] = struct{}{}
		s.actions = append(s.actions, a)
	}
}

func (s *ActionSet) Contains(a model.ViolationAction) bool {
	_, ok := s.seen[a]
	return ok
}

func (s *ActionSet) Len() int {
	return len(s.actions)
}

func (s *ActionSet) Actions() []model.ViolationAction {
	out := make([]model.ViolationAction, len(s.actions))
	copy(out, s.actions)
	return out
}

func (s *ActionSet) String() string {
	parts := make([]string, len(s.actions))
	for i, a := range s.actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

// ResolveActions decides the response to a violation: ALERT, the violated
// rule's configured action, then severity-based additions.
func ResolveActions(violation *model.Violation, rules []model.AccessRule) *ActionSet {
	set := NewActionSet()

	if rule := matchRule(violation.RuleViolated, rules); rule != nil {
		set.Add(rule.ViolationAction)
	}

	switch violation.Severity {
	case model.ViolationSeverityCritical, model.ViolationSeverityEmergency:
		set.Add(model.ActionEscalate, model.ActionContactStaff)
	case model.ViolationSeverityHigh:
		set.Add(model.ActionContactStaff)
	case model.ViolationSeverityMedium:
		if violation.ViolatorType == model.ViolatorChild {
			set.Add(model.ActionContactParent)
		}
	}

	return set
}

// matchRule finds an active rule by id, falling back to a case-insensitive name match.
func matchRule(ref string, rules []model.AccessRule) *model.AccessRule {
	ref = strings.TrimSpace(ref)
	for i := range rules {
		if rules[i].IsActive && rules[i].ID.String() == ref {
			return &rules[i]
		}
	}
	for i := range rules {
		if rules[i].IsActive && strings.EqualFold(rules[i].Name, ref) {
			return &rules[i]
		}
	}
	return nil
}

var alertSeverityByViolation = map[model.ViolationSeverity]model.AlertSeverity{
	model.ViolationSeverityLow:       model.AlertSeverityLow,
	model.ViolationSeverityMedium:    model.AlertSeverityMedium,
	model.ViolationSeverityHigh:      model.AlertSeverityHigh,
	model.ViolationSeverityCritical:  model.AlertSeverityCritical,
	model.ViolationSeverityEmergency: model.AlertSeverityCritical,
}

// AlertSeverityFor collapses EMERGENCY into CRITICAL.
func AlertSeverityFor(severity model.ViolationSeverity) model.AlertSeverity {
	if s, ok := alertSeverityByViolation[severity]; ok {
		return s
	}
	return model.AlertSeverityMedium
}

var autoResolvableTypes = map[string]struct{}{
	model.ViolationNoise:           {},
	model.ViolationDressCode:       {},
	model.ViolationFoodRestriction: {},
}

// CanAutoResolve holds only for low-severity violations of low-impact types.
func CanAutoResolve(violation *model.Violation) bool {
	_, ok := autoResolvableTypes[violation.ViolationType]
	return ok && violation.Severity == model.ViolationSeverityLow
}
