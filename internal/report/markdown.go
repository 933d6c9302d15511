package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/avendel/reqstress/internal/model"
)

type markdownRenderer struct{}

func (markdownRenderer) Format() string { return "markdown" }

func (markdownRenderer) Render(w io.Writer, rep *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Requirements Risk Report\n\n")
	fmt.Fprintf(&b, "- **Source:** %s\n", rep.SourceFile)
	fmt.Fprintf(&b, "- **Generated:** %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Requirements analyzed:** %d\n", len(rep.Requirements))
	fmt.Fprintf(&b, "- **Risks found:** %d\n\n", rep.TotalRisks())

	if counts := categoryCounts(rep); len(counts) > 0 {
		fmt.Fprintf(&b, "## Risks by Category\n\n")
		fmt.Fprintf(&b, "| Category | Count |\n|---|---|\n")
		for _, cc := range counts {
			fmt.Fprintf(&b, "| %s | %d |\n", cc.Category, cc.Count)
		}
		fmt.Fprintln(&b)
	}

	if len(rep.TopRisks) > 0 {
		fmt.Fprintf(&b, "## Top %d Riskiest Requirements\n\n", len(rep.TopRisks))
		for i, rr := range rep.TopRisks {
			fmt.Fprintf(&b, "### %d. %s (score %d, %d risks)\n\n", i+1,
				rr.Requirement.ID, rr.Summary.TotalScore, rr.Summary.RiskCount)
			fmt.Fprintf(&b, "> %s\n\n", rr.Requirement.Text)
			for _, r := range rr.Risks {
				fmt.Fprintf(&b, "- **[%s]** %s (%s)\n", strings.ToUpper(r.Severity.String()), r.Description, r.ID)
				if r.Suggestion != "" {
					fmt.Fprintf(&b, "  - Suggestion: %s\n", r.Suggestion)
				}
			}
			fmt.Fprintln(&b)
		}
	}

	fmt.Fprintf(&b, "## All Findings\n\n")
	clean := true
	for _, id := range sortedRequirementIDs(rep) {
		risks := rep.Risks[id]
		if len(risks) == 0 {
			continue
		}
		clean = false
		fmt.Fprintf(&b, "### %s (line %d)\n\n", id, risks[0].LineNumber)
		for _, r := range risks {
			fmt.Fprintf(&b, "- `%s` **%s/%s**: %s\n", r.ID, r.Category, r.Severity, r.Description)
			if r.Evidence != "" {
				fmt.Fprintf(&b, "  - Evidence: %s\n", r.Evidence)
			}
		}
		fmt.Fprintln(&b)
	}
	if clean {
		fmt.Fprintf(&b, "No risks detected.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
