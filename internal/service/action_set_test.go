package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"zone-safety-service/internal/model"
)

func TestActionSetKeepsOrderAndDeduplicates(t *testing.T) {
	set := NewActionSet()
	set.Add(model.ActionContactStaff, model.ActionAlert, "", model.ActionContactStaff, model.ActionEscalate)

	assert.Equal(t, []model.ViolationAction{model.ActionAlert, model.ActionContactStaff, model.ActionEscalate}, set.Actions())
	assert.Equal(t, "ALERT,CONTACT_STAFF,ESCALATE", set.String())
	assert.True(t, set.Contains(model.ActionEscalate))
	assert.False(t, set.Contains(model.ActionContactParent))
	assert.Equal(t, 3, set.Len())
}

func TestResolveActions(t *testing.T) {
	cases := []struct {
		name     string
		severity model.ViolationSeverity
		violator model.ViolatorType
		want     []model.ViolationAction
	}{
		{"critical adult", model.ViolationSeverityCritical, model.ViolatorAdult,
			[]model.ViolationAction{model.ActionAlert, model.ActionEscalate, model.ActionContactStaff}},
		{"emergency child", model.ViolationSeverityEmergency, model.ViolatorChild,
			[]model.ViolationAction{model.ActionAlert, model.ActionEscalate, model.ActionContactStaff}},
		{"high", model.ViolationSeverityHigh, model.ViolatorChild,
			[]model.ViolationAction{model.ActionAlert, model.ActionContactStaff}},
		{"medium child", model.ViolationSeverityMedium, model.ViolatorChild,
			[]model.ViolationAction{model.ActionAlert, model.ActionContactParent}},
		{"medium adult", model.ViolationSeverityMedium, model.ViolatorAdult,
			[]model.ViolationAction{model.ActionAlert}},
		{"low", model.ViolationSeverityLow, model.ViolatorChild,
			[]model.ViolationAction{model.ActionAlert}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &model.Violation{Severity: tc.severity, ViolatorType: tc.violator, RuleViolated: "none"}
			assert.Equal(t, tc.want, ResolveActions(v, nil).Actions())
		})
	}
}

func TestResolveActionsUsesMatchingRule(t *testing.T) {
	ruleID := uuid.New()
	rules := []model.AccessRule{
		{ID: uuid.New(), Name: "Inactive", ViolationAction: model.ActionEscalate, IsActive: false},
		{ID: ruleID, Name: "Max occupancy", ViolationAction: model.ActionCreateIncident, IsActive: true},
	}

	byID := &model.Violation{Severity: model.ViolationSeverityHigh, RuleViolated: ruleID.String()}
	assert.Equal(t,
		[]model.ViolationAction{model.ActionAlert, model.ActionCreateIncident, model.ActionContactStaff},
		ResolveActions(byID, rules).Actions())

	byName := &model.Violation{Severity: model.ViolationSeverityLow, RuleViolated: "max OCCUPANCY"}
	assert.Equal(t,
		[]model.ViolationAction{model.ActionAlert, model.ActionCreateIncident},
		ResolveActions(byName, rules).Actions())

	inactive := &model.Violation{Severity: model.ViolationSeverityLow, RuleViolated: "Inactive"}
	assert.Equal(t, []model.ViolationAction{model.ActionAlert}, ResolveActions(inactive, rules).Actions())
}

func TestAlertSeverityFor(t *testing.T) {
	assert.Equal(t, model.AlertSeverityCritical, AlertSeverityFor(model.ViolationSeverityEmergency))
	assert.Equal(t, model.AlertSeverityCritical, AlertSeverityFor(model.ViolationSeverityCritical))
	assert.Equal(t, model.AlertSeverityLow, AlertSeverityFor(model.ViolationSeverityLow))
	assert.Equal(t, model.AlertSeverityMedium, AlertSeverityFor("BOGUS"))
}

func TestCanAutoResolve(t *testing.T) {
	assert.True(t, CanAutoResolve(&model.Violation{ViolationType: model.ViolationNoise, Severity: model.ViolationSeverityLow}))
	assert.True(t, CanAutoResolve(&model.Violation{ViolationType: model.ViolationFoodRestriction, Severity: model.ViolationSeverityLow}))
	assert.False(t, CanAutoResolve(&model.Violation{ViolationType: model.ViolationNoise, Severity: model.ViolationSeverityMedium}))
	assert.False(t, CanAutoResolve(&model.Violation{ViolationType: "RUNNING", Severity: model.ViolationSeverityLow}))
}
