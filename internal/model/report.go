package model

import "time"

// ScoreSummary is the derived per-requirement score. Fully recomputed each
// run, never persisted on its own.
type ScoreSummary struct {
	RequirementID string  `json:"requirement_id"`
	TotalScore    int     `json:"total_score"`
	RiskCount     int     `json:"risk_count"`
	AvgSeverity   float64 `json:"avg_severity"`
}

// RankedRequirement is one entry in the Top-N list: the requirement bundled
// with its summary and full risk list, so renderers need nothing else.
type RankedRequirement struct {
	Requirement Requirement  `json:"requirement"`
	Summary     ScoreSummary `json:"summary"`
	Risks       []Risk       `json:"risks"`
}

// Report is the complete analysis output handed to reporting collaborators.
// All fields are plain serializable data with no behavior.
type Report struct {
	SourceFile  string    `json:"source_file"`
	GeneratedAt time.Time `json:"generated_at"`

	Requirements []Requirement `json:"requirements"`

	// Risks maps requirement id to the risks detected for it. Order within
	// a list is insertion order and carries no meaning.
	Risks map[string][]Risk `json:"risks_by_requirement"`

	Summaries map[string]ScoreSummary `json:"summaries"`

	// TopRisks is the ranked Top-N list, highest score first.
	TopRisks []RankedRequirement `json:"top_riskiest"`
}

// TotalRisks counts every risk in the report.
func (r *Report) TotalRisks() int {
	n := 0
	for _, risks := range r.Risks {
		n += len(risks)
	}
	return n
}

// RisksByCategory tallies risk counts per category.
func (r *Report) RisksByCategory() map[Category]int {
	out := make(map[Category]int)
	for _, risks := range r.Risks {
		for _, risk := range risks {
			out[risk.Category]++
		}
	}
	return out
}
