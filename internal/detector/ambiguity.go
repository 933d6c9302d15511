package detector

import (
	"fmt"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// AmbiguityDetector flags vague modal terms, imprecise quantifiers and weak
// requirement language. One risk per distinct matched term.
type AmbiguityDetector struct {
	base
}

// NewAmbiguity builds the ambiguity detector over cfg.
func NewAmbiguity(cfg *rules.Config) Detector {
	return &AmbiguityDetector{base: newBase(cfg, model.CategoryAmbiguity, "Ambiguity Detector")}
}

func (d *AmbiguityDetector) Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error) {
	if d.skip(req) {
		return nil, nil
	}

	var risks []model.Risk

	vague := d.rule("vague_terms")
	for _, term := range d.containsKeywords(req.Text, vague.Keywords) {
		risks = append(risks, d.newRisk(ids, req, d.severityFor(vague),
			fmt.Sprintf("Vague term %q found - consider using more precise language", term),
			term,
			fmt.Sprintf("Replace %q with more specific language (e.g., 'shall', 'must', 'will')", term),
		))
	}

	quant := d.rule("imprecise_quantifiers")
	for _, term := range d.containsKeywords(req.Text, quant.Keywords) {
		risks = append(risks, d.newRisk(ids, req, d.severityFor(quant),
			fmt.Sprintf("Imprecise quantifier %q found - specify exact values or criteria", term),
			term,
			fmt.Sprintf("Replace %q with specific values (e.g., 'at least 5', 'within 2 seconds')", term),
		))
	}

	weak := d.rule("weak_requirements")
	for _, term := range d.containsKeywords(req.Text, weak.Keywords) {
		risks = append(risks, d.newRisk(ids, req, d.severityFor(weak),
			fmt.Sprintf("Weak requirement language %q found - requirements should be definitive", term),
			term,
			fmt.Sprintf("Replace %q with stronger language (e.g., 'shall', 'must', 'will')", term),
		))
	}

	return risks, nil
}
