package detector

import (
	"regexp"
	"strings"
	"sync"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// builtinIDPatterns are the fallback identifier shapes when the rules file
// supplies none. Conservative, to avoid matching single letters.
var builtinIDPatterns = []string{
	`\bR\d{3,}\b`,
	`\bREQ-\d+\b`,
	`\bUS-\d+\b`,
	`\bFR-\d+\b`,
	`\b[A-Z]{2,}-\d+\b`,
}

var listMarkers = []string{"- ", "* ", "1. ", "2. "}

var acActionWords = []string{"given", "when", "then", "acceptance", "criteria", "ac:"}

// TraceabilityDetector checks three independent signal classes: identifier
// tokens, acceptance-criteria markers, and test references. It tracks which
// classes matched: no signals at all yield one risk at the category default
// severity; a partial set yields one Medium risk per missing class; all
// three present yield nothing.
type TraceabilityDetector struct {
	base

	once       sync.Once
	idPatterns []*regexp.Regexp
}

// NewTraceability builds the traceability detector over cfg.
func NewTraceability(cfg *rules.Config) Detector {
	return &TraceabilityDetector{base: newBase(cfg, model.CategoryTraceability, "Traceability Detector")}
}

func (d *TraceabilityDetector) Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error) {
	if d.skip(req) {
		return nil, nil
	}

	hasID := d.hasRequirementID(req.Text)
	hasAC := d.hasAcceptanceCriteria(req.Text)
	hasTest := d.hasTestReference(req.Text)

	if !hasID && !hasAC && !hasTest {
		rule := d.rule("missing_requirement_id")
		return []model.Risk{d.newRisk(ids, req, d.severityFor(rule),
			"No traceability signals found (ID, acceptance criteria, or test reference)",
			req.Text,
			"Add a stable identifier, acceptance criteria, and a test reference",
		)}, nil
	}

	// Partial coverage: each missing class is reported at downgraded severity.
	var risks []model.Risk
	if !hasID {
		risks = append(risks, d.newRisk(ids, req, model.SeverityMedium,
			"Missing requirement ID (e.g., R001, REQ-123, ABC-123)",
			req.Text,
			"Add a stable identifier (R###, REQ-#, US-#, FR-#, or ABC-123)",
		))
	}
	if !hasAC {
		risks = append(risks, d.newRisk(ids, req, model.SeverityMedium,
			"Missing acceptance criteria (e.g., Given/When/Then or 'Acceptance Criteria')",
			req.Text,
			"Add AC with Given/When/Then or a short checklist under the requirement",
		))
	}
	if !hasTest {
		risks = append(risks, d.newRisk(ids, req, model.SeverityMedium,
			"Missing test reference (e.g., TC-123, 'Test Case', 'validated by QA')",
			req.Text,
			"Reference a test artifact (TC-###) or note how it will be verified",
		))
	}
	return risks, nil
}

// hasRequirementID matches the configured identifier patterns against the
// raw (case-preserving) text: identifier shapes are case-significant.
func (d *TraceabilityDetector) hasRequirementID(text string) bool {
	d.once.Do(func() {
		patterns := d.rule("missing_requirement_id").Patterns
		if len(patterns) == 0 {
			patterns = builtinIDPatterns
		}
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				continue
			}
			d.idPatterns = append(d.idPatterns, re)
		}
	})
	for _, re := range d.idPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (d *TraceabilityDetector) hasAcceptanceCriteria(text string) bool {
	rule := d.rule("missing_acceptance_criteria")
	if d.containsAny(text, rule.Keywords) {
		return true
	}
	// Bullet-list heuristic: a list marker plus an AC action word.
	hasMarker := false
	for _, m := range listMarkers {
		if strings.Contains(text, m) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return false
	}
	norm := d.normalize(text)
	for _, w := range acActionWords {
		if strings.Contains(norm, w) {
			return true
		}
	}
	return false
}

func (d *TraceabilityDetector) hasTestReference(text string) bool {
	rule := d.rule("missing_test_reference")
	return d.containsAny(text, rule.Keywords)
}
