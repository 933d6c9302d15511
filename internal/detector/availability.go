package detector

import (
	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// AvailabilityDetector flags service language without an uptime or SLO
// quantifier nearby.
type AvailabilityDetector struct {
	base
}

// NewAvailability builds the availability detector over cfg.
func NewAvailability(cfg *rules.Config) Detector {
	return &AvailabilityDetector{base: newBase(cfg, model.CategoryAvailability, "Availability Detector")}
}

func (d *AvailabilityDetector) Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error) {
	if d.skip(req) {
		return nil, nil
	}

	rule := d.rule("missing_uptime_specs")
	triggers := d.containsKeywords(req.Text, rule.Triggers)
	if len(triggers) == 0 || d.containsAny(req.Text, rule.RequiredWith) {
		return nil, nil
	}

	return []model.Risk{d.newRisk(ids, req, d.severityFor(rule),
		"Service mention without availability/uptime specification",
		triggers[0],
		"Specify an uptime target (e.g., 99.9%), maintenance windows, or SLOs",
	)}, nil
}
