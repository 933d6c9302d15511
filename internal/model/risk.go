package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the shared 5-level ordinal scale used for both display and
// additive scoring. The scale is totally ordered across all categories so
// per-requirement sums stay comparable.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
	SeverityBlocker
)

var severityNames = map[Severity]string{
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
	SeverityBlocker:  "blocker",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Valid reports whether s is inside the 1..5 scale.
func (s Severity) Valid() bool {
	return s >= SeverityLow && s <= SeverityBlocker
}

// ParseSeverity maps a severity name (case-insensitive) to its ordinal.
func ParseSeverity(name string) (Severity, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for sev, s := range severityNames {
		if s == n {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity level %q", name)
}

// Category is one of the eight fixed risk classes.
type Category string

const (
	CategoryAmbiguity     Category = "ambiguity"
	CategoryMissingDetail Category = "missing_detail"
	CategorySecurity      Category = "security"
	CategoryConflict      Category = "conflict"
	CategoryPerformance   Category = "performance"
	CategoryAvailability  Category = "availability"
	CategoryTraceability  Category = "traceability"
	CategoryScope         Category = "scope"
)

// KnownCategories returns the eight built-in categories in a stable order.
func KnownCategories() []Category {
	return []Category{
		CategoryAmbiguity,
		CategoryMissingDetail,
		CategorySecurity,
		CategoryConflict,
		CategoryPerformance,
		CategoryAvailability,
		CategoryTraceability,
		CategoryScope,
	}
}

// Prefix returns the 3-letter uppercase fragment used inside risk ids,
// e.g. "AMB" for ambiguity or "MIS" for missing_detail.
func (c Category) Prefix() string {
	s := strings.ToUpper(string(c))
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

// Risk is one flagged concern from one detector for one requirement.
// Immutable once created.
type Risk struct {
	// ID is deterministic per run: "<requirement id>-<category prefix>-NNN".
	ID string `json:"id"`

	Category Category `json:"category"`
	Severity Severity `json:"severity"`

	// Description is the human-readable explanation of the concern.
	Description string `json:"description"`

	// RequirementID and LineNumber locate the flagged requirement.
	RequirementID string `json:"requirement_id"`
	LineNumber    int    `json:"line_number"`

	// Evidence is the specific text that triggered the risk.
	Evidence string `json:"evidence"`

	// Suggestion is an optional hint on how to fix the requirement.
	Suggestion string `json:"suggestion,omitempty"`
}

// MarshalJSON adds a severity_name field next to the ordinal so renderers
// do not need to know the scale.
func (r Risk) MarshalJSON() ([]byte, error) {
	type alias Risk
	return json.Marshal(struct {
		alias
		SeverityName string `json:"severity_name"`
	}{alias(r), r.Severity.String()})
}

func (r Risk) String() string {
	return fmt.Sprintf("%s: %s in %s", strings.ToUpper(r.Severity.String()), r.Description, r.RequirementID)
}
