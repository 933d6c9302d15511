package detector

import (
	"fmt"
	"strings"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// ScopeDetector flags unconstrained-breadth phrases and third-party
// integration verbs lacking a constraint term. Configured explicit
// boundary-violation phrases escalate to High.
type ScopeDetector struct {
	base
}

// NewScope builds the scope detector over cfg.
func NewScope(cfg *rules.Config) Detector {
	return &ScopeDetector{base: newBase(cfg, model.CategoryScope, "Scope Detector")}
}

func (d *ScopeDetector) Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error) {
	if d.skip(req) {
		return nil, nil
	}

	var risks []model.Risk
	risks = append(risks, d.detectOutOfScopeTerms(req, ids)...)
	risks = append(risks, d.detectUndefinedBoundary(req, ids)...)
	risks = append(risks, d.detectUnconstrainedIntegration(req, ids)...)
	return risks, nil
}

func (d *ScopeDetector) detectOutOfScopeTerms(req model.Requirement, ids *IDGen) []model.Risk {
	rule := d.rule("out_of_scope_terms")

	var risks []model.Risk
	for _, term := range d.containsKeywords(req.Text, rule.Keywords) {
		sev := d.severityFor(rule)
		if d.isEscalated(term, rule.EscalateTerms) {
			sev = model.SeverityHigh
		}
		risks = append(risks, d.newRisk(ids, req, sev,
			fmt.Sprintf("Potential scope creep term %q detected", term),
			term,
			"Constrain scope with explicit platforms, versions, providers, or acceptance criteria",
		))
	}
	return risks
}

func (d *ScopeDetector) detectUndefinedBoundary(req model.Requirement, ids *IDGen) []model.Risk {
	rule := d.rule("undefined_system_boundary")

	var risks []model.Risk
	for _, term := range d.containsKeywords(req.Text, rule.Keywords) {
		risks = append(risks, d.newRisk(ids, req, d.severityFor(rule),
			fmt.Sprintf("External dependency %q without defined boundary/constraints", term),
			term,
			"Specify interfaces, limits, SLAs, supported providers, or versions",
		))
	}
	return risks
}

func (d *ScopeDetector) detectUnconstrainedIntegration(req model.Requirement, ids *IDGen) []model.Risk {
	rule := d.rule("third_party_dependency_without_spec")
	triggers := d.containsKeywords(req.Text, rule.Triggers)
	if len(triggers) == 0 || d.containsAny(req.Text, rule.RequiredWith) {
		return nil
	}

	return []model.Risk{d.newRisk(ids, req, d.severityFor(rule),
		"Third-party integration mentioned without specifying provider, version, or protocol",
		triggers[0],
		"Add constraints (specific provider, supported versions, protocol/contract, SLA)",
	)}
}

func (d *ScopeDetector) isEscalated(term string, escalate []string) bool {
	for _, e := range escalate {
		if strings.EqualFold(term, e) {
			return true
		}
	}
	return false
}
