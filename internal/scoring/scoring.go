// Package scoring derives per-requirement score summaries from detected
// risks and ranks the riskiest requirements. Scores are recomputed from
// scratch every run; nothing here is stateful.
package scoring

import (
	"sort"

	"github.com/avendel/reqstress/internal/model"
)

// DefaultTopN is the ranked-list length when the caller does not choose one.
const DefaultTopN = 5

// Summarize computes one ScoreSummary per requirement, including a
// zero-valued summary for requirements without risks. TotalScore is the sum
// of severity ordinals, so a single blocker (5) outweighs four lows (4);
// AvgSeverity is 0 when there are no risks.
func Summarize(reqs []model.Requirement, risks map[string][]model.Risk) map[string]model.ScoreSummary {
	out := make(map[string]model.ScoreSummary, len(reqs))
	for _, req := range reqs {
		rs := risks[req.ID]
		total := 0
		for _, r := range rs {
			total += int(r.Severity)
		}
		sum := model.ScoreSummary{
			RequirementID: req.ID,
			TotalScore:    total,
			RiskCount:     len(rs),
		}
		if len(rs) > 0 {
			sum.AvgSeverity = float64(total) / float64(len(rs))
		}
		out[req.ID] = sum
	}
	return out
}

// TopN ranks every requirement by total score descending and returns the
// first n. Ties break on risk count descending, then requirement id
// ascending, so the ranking is deterministic for identical inputs and
// requirements without risks sort last with score 0. n <= 0 selects
// DefaultTopN; n larger than the candidate set returns everything.
func TopN(reqs []model.Requirement, risks map[string][]model.Risk, summaries map[string]model.ScoreSummary, n int) []model.RankedRequirement {
	if n <= 0 {
		n = DefaultTopN
	}

	ranked := make([]model.RankedRequirement, 0, len(reqs))
	for _, req := range reqs {
		sum, ok := summaries[req.ID]
		if !ok {
			sum = model.ScoreSummary{RequirementID: req.ID}
		}
		ranked = append(ranked, model.RankedRequirement{
			Requirement: req,
			Summary:     sum,
			Risks:       risks[req.ID],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i].Summary, ranked[j].Summary
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.RiskCount != b.RiskCount {
			return a.RiskCount > b.RiskCount
		}
		return a.RequirementID < b.RequirementID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
