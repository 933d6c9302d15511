package detector

import (
	"strings"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// base carries the shared template workflow every concrete detector embeds:
// enabled check, text normalization per the global case-sensitivity setting,
// rule lookup, severity resolution and risk synthesis. Matching itself is
// the only per-detector step.
type base struct {
	cfg      *rules.Config
	category model.Category
	name     string
}

func newBase(cfg *rules.Config, category model.Category, name string) base {
	return base{cfg: cfg, category: category, name: name}
}

func (b base) Category() model.Category { return b.category }

func (b base) Name() string { return b.name }

// skip reports whether the requirement should produce no risks at all:
// the category is disabled, or the text is below the configured minimum
// length. Skipping is expected behavior, never an error.
func (b base) skip(req model.Requirement) bool {
	if !b.cfg.IsEnabled(string(b.category)) {
		return true
	}
	if min := b.cfg.Globals().MinRequirementLength; min > 0 && len(req.Text) < min {
		return true
	}
	return false
}

// normalize lowercases unless the run is case sensitive, and trims space.
func (b base) normalize(text string) string {
	if !b.cfg.Globals().CaseSensitive {
		text = strings.ToLower(text)
	}
	return strings.TrimSpace(text)
}

// containsKeywords returns the subset of keywords present in text under the
// run's normalization. The returned terms keep their configured spelling.
func (b base) containsKeywords(text string, keywords []string) []string {
	normalized := b.normalize(text)
	var found []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(normalized, b.normalize(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

// containsAny reports whether any of the terms occurs in text.
func (b base) containsAny(text string, terms []string) bool {
	return len(b.containsKeywords(text, terms)) > 0
}

// rule returns this category's named rule; the zero Rule when unset.
func (b base) rule(name string) rules.Rule {
	return b.cfg.Rule(string(b.category), name)
}

// severityFor resolves the severity for a risk: explicit per-rule override
// first, then the category default, then Medium.
func (b base) severityFor(r rules.Rule) model.Severity {
	if r.Severity != "" {
		return b.cfg.Severity(r.Severity, b.cfg.CategorySeverity(string(b.category)))
	}
	return b.cfg.CategorySeverity(string(b.category))
}

// newRisk synthesizes one Risk for req with a deterministic run-scoped id.
func (b base) newRisk(ids *IDGen, req model.Requirement, sev model.Severity, description, evidence, suggestion string) model.Risk {
	return model.Risk{
		ID:            ids.Next(req.ID, b.category),
		Category:      b.category,
		Severity:      sev,
		Description:   description,
		RequirementID: req.ID,
		LineNumber:    req.LineNumber,
		Evidence:      evidence,
		Suggestion:    suggestion,
	}
}

// truncate shortens s for evidence strings.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
