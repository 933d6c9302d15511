package detector

import (
	"fmt"
	"regexp"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// boundPattern recognizes a quantified bound: a number followed by a time,
// rate, or percentage unit.
var boundPattern = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(ms|milliseconds?|s\b|seconds?|minutes?|hours?|%|rps|tps|requests per second)`)

// PerformanceDetector flags capacity/responsiveness keywords unaccompanied
// by a quantified bound (number+unit or a configured guard term).
type PerformanceDetector struct {
	base
}

// NewPerformance builds the performance detector over cfg.
func NewPerformance(cfg *rules.Config) Detector {
	return &PerformanceDetector{base: newBase(cfg, model.CategoryPerformance, "Performance Detector")}
}

func (d *PerformanceDetector) Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error) {
	if d.skip(req) {
		return nil, nil
	}

	rule := d.rule("missing_performance_specs")
	triggers := d.containsKeywords(req.Text, rule.Triggers)
	if len(triggers) == 0 {
		return nil, nil
	}
	if d.containsAny(req.Text, rule.RequiredWith) || boundPattern.MatchString(req.Text) {
		return nil, nil
	}

	return []model.Risk{d.newRisk(ids, req, d.severityFor(rule),
		"Performance-related feature without measurable performance specification",
		triggers[0],
		fmt.Sprintf("Specify response time, throughput, or latency targets for %q", triggers[0]),
	)}, nil
}
