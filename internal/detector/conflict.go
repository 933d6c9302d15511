package detector

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// ConflictDetector runs two independent checks. Per requirement, it flags
// contradictory term pairs and stacked urgency markers. Across the whole
// collection it flags near-duplicate pairs; that pass needs all requirements
// at once, so it lives behind the CollectionDetector capability and is run
// separately by the orchestrator.
type ConflictDetector struct {
	base
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewConflict builds the conflict detector over cfg.
func NewConflict(cfg *rules.Config) Detector {
	dmp := diffmatchpatch.New()
	// The default 1s DiffTimeout lets DiffMain cut the diff short under
	// load, which would make similarity scores vary between runs.
	dmp.DiffTimeout = 0
	return &ConflictDetector{
		base: newBase(cfg, model.CategoryConflict, "Conflict Detector"),
		dmp:  dmp,
	}
}

func (d *ConflictDetector) Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error) {
	if d.skip(req) {
		return nil, nil
	}

	var risks []model.Risk
	risks = append(risks, d.detectContradictoryTerms(req, ids)...)
	risks = append(risks, d.detectConflictingPriorities(req, ids)...)
	return risks, nil
}

// detectContradictoryTerms flags a requirement that states both sides of a
// configured pair, e.g. "must" and "must not". The positive term must still
// be present once occurrences of the negative phrase are removed, so that
// "must not" alone does not read as containing "must".
func (d *ConflictDetector) detectContradictoryTerms(req model.Requirement, ids *IDGen) []model.Risk {
	rule := d.rule("contradictory_terms")
	text := d.normalize(req.Text)

	var risks []model.Risk
	for _, pair := range rule.Pairs {
		if len(pair) != 2 {
			continue
		}
		positive, negative := d.normalize(pair[0]), d.normalize(pair[1])
		if positive == "" || negative == "" || !strings.Contains(text, negative) {
			continue
		}
		stripped := strings.ReplaceAll(text, negative, "")
		if !strings.Contains(stripped, positive) {
			continue
		}
		risks = append(risks, d.newRisk(ids, req, d.severityFor(rule),
			fmt.Sprintf("Contradictory terms found: %q and %q", pair[0], pair[1]),
			fmt.Sprintf("%q and %q", pair[0], pair[1]),
			fmt.Sprintf("Clarify the requirement - it cannot both %s and %s", pair[0], pair[1]),
		))
	}
	return risks
}

// detectConflictingPriorities flags two or more urgency markers in one
// requirement.
func (d *ConflictDetector) detectConflictingPriorities(req model.Requirement, ids *IDGen) []model.Risk {
	rule := d.rule("conflicting_priorities")
	found := d.containsKeywords(req.Text, rule.Keywords)
	if len(found) < 2 {
		return nil
	}
	return []model.Risk{d.newRisk(ids, req, d.severityFor(rule),
		fmt.Sprintf("Multiple urgent priority terms found: %s", strings.Join(found, ", ")),
		strings.Join(found, ", "),
		"Clarify the actual priority level - multiple urgent terms may indicate confusion",
	)}
}

// DetectCollection performs the pairwise near-duplicate check across the
// whole collection. Both members of a pair at or above the configured
// similarity threshold receive a risk citing the other's id. Results are
// grouped by requirement id; the orchestrator merges them in one
// synchronized step.
func (d *ConflictDetector) DetectCollection(reqs []model.Requirement, ids *IDGen) (map[string][]model.Risk, error) {
	out := make(map[string][]model.Risk)
	if !d.cfg.IsEnabled(string(d.category)) {
		return out, nil
	}

	rule := d.rule("duplicate_requirements")
	threshold := rule.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.8
	}

	// Bound the O(n²) comparison per the global cap.
	limit := len(reqs)
	if max := d.cfg.Globals().MaxSimilarityCheck; max > 0 && max < limit {
		limit = max
	}

	for i := 0; i < limit; i++ {
		for j := i + 1; j < limit; j++ {
			a, b := reqs[i], reqs[j]
			sim := d.similarity(a.Text, b.Text)
			if sim < threshold {
				continue
			}
			out[a.ID] = append(out[a.ID], d.duplicateRisk(ids, a, b, sim, rule))
			out[b.ID] = append(out[b.ID], d.duplicateRisk(ids, b, a, sim, rule))
		}
	}
	return out, nil
}

func (d *ConflictDetector) duplicateRisk(ids *IDGen, req, other model.Requirement, sim float64, rule rules.Rule) model.Risk {
	return d.newRisk(ids, req, d.severityFor(rule),
		fmt.Sprintf("Duplicate requirement detected - %.0f%% similar to %s", sim*100, other.ID),
		fmt.Sprintf("similar to %s: %q", other.ID, truncate(other.Text, 50)),
		fmt.Sprintf("Consider merging or clarifying the difference between %s and %s", req.ID, other.ID),
	)
}

// similarity is a deterministic, symmetric measure in [0,1]: a Myers diff of
// the normalized texts reduced to Levenshtein distance and scaled by the
// longer length. Identical text scores 1.
func (d *ConflictDetector) similarity(a, b string) float64 {
	na, nb := d.normalize(a), d.normalize(b)
	if na == nb {
		return 1
	}
	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	if longest == 0 {
		return 1
	}
	diffs := d.dmp.DiffMain(na, nb, false)
	dist := d.dmp.DiffLevenshtein(diffs)
	return 1 - float64(dist)/float64(longest)
}
