package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/avendel/reqstress/internal/model"
)

type csvRenderer struct{}

func (csvRenderer) Format() string { return "csv" }

// Render writes one row per risk, in document order, so the file diffs
// cleanly between runs.
func (csvRenderer) Render(w io.Writer, rep *model.Report) error {
	cw := csv.NewWriter(w)

	header := []string{"risk_id", "requirement_id", "line_number", "category", "severity", "severity_name", "description", "evidence", "suggestion"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, id := range sortedRequirementIDs(rep) {
		for _, r := range rep.Risks[id] {
			row := []string{
				r.ID,
				r.RequirementID,
				strconv.Itoa(r.LineNumber),
				string(r.Category),
				strconv.Itoa(int(r.Severity)),
				r.Severity.String(),
				r.Description,
				r.Evidence,
				r.Suggestion,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
