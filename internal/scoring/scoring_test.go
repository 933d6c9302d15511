package scoring

import (
	"testing"

	"github.com/avendel/reqstress/internal/model"
)

func risk(reqID string, sev model.Severity) model.Risk {
	return model.Risk{
		ID:            reqID + "-AMB-001",
		Category:      model.CategoryAmbiguity,
		Severity:      sev,
		RequirementID: reqID,
	}
}

func TestSummarizeSumsSeverityOrdinals(t *testing.T) {
	reqs := []model.Requirement{
		{ID: "R001", LineNumber: 1, Text: "a"},
		{ID: "R002", LineNumber: 2, Text: "b"},
		{ID: "R003", LineNumber: 3, Text: "c"},
	}
	risks := map[string][]model.Risk{
		"R001": {risk("R001", model.SeverityLow), risk("R001", model.SeverityHigh)},
		"R002": {risk("R002", model.SeverityBlocker)},
	}

	sums := Summarize(reqs, risks)

	if got := sums["R001"]; got.TotalScore != 4 || got.RiskCount != 2 || got.AvgSeverity != 2 {
		t.Errorf("R001 summary = %+v", got)
	}
	if got := sums["R002"]; got.TotalScore != 5 || got.RiskCount != 1 || got.AvgSeverity != 5 {
		t.Errorf("R002 summary = %+v", got)
	}
	got, ok := sums["R003"]
	if !ok {
		t.Fatal("requirement without risks must still get a summary")
	}
	if got.TotalScore != 0 || got.RiskCount != 0 || got.AvgSeverity != 0 {
		t.Errorf("R003 summary = %+v, want all zero", got)
	}
}

func TestSingleBlockerOutweighsFourLows(t *testing.T) {
	reqs := []model.Requirement{
		{ID: "R001", LineNumber: 1, Text: "a"},
		{ID: "R002", LineNumber: 2, Text: "b"},
	}
	risks := map[string][]model.Risk{
		"R001": {risk("R001", model.SeverityLow), risk("R001", model.SeverityLow), risk("R001", model.SeverityLow), risk("R001", model.SeverityLow)},
		"R002": {risk("R002", model.SeverityBlocker)},
	}
	sums := Summarize(reqs, risks)

	top := TopN(reqs, risks, sums, 2)
	if len(top) != 2 || top[0].Requirement.ID != "R002" {
		t.Fatalf("blocker should rank first: %+v", top)
	}
}

func TestTopNTieBreaks(t *testing.T) {
	// R002 and R001 tie on score 4; R002 has more risks. R003 and R004 tie
	// completely, so id order decides.
	risks := map[string][]model.Risk{
		"R001": {risk("R001", model.SeverityCritical)},
		"R002": {risk("R002", model.SeverityMedium), risk("R002", model.SeverityMedium)},
		"R003": {risk("R003", model.SeverityLow)},
		"R004": {risk("R004", model.SeverityLow)},
	}
	reqs := []model.Requirement{
		{ID: "R004", LineNumber: 4, Text: "d"},
		{ID: "R003", LineNumber: 3, Text: "c"},
		{ID: "R002", LineNumber: 2, Text: "b"},
		{ID: "R001", LineNumber: 1, Text: "a"},
	}
	sums := Summarize(reqs, risks)

	top := TopN(reqs, risks, sums, 10)
	want := []string{"R002", "R001", "R003", "R004"}
	if len(top) != len(want) {
		t.Fatalf("got %d entries, want %d", len(top), len(want))
	}
	for i, id := range want {
		if top[i].Requirement.ID != id {
			t.Errorf("rank %d = %s, want %s", i, top[i].Requirement.ID, id)
		}
	}
}

func TestZeroRiskRequirementsRankLastWithZeroScore(t *testing.T) {
	reqs := []model.Requirement{
		{ID: "R001", LineNumber: 1, Text: "a"},
		{ID: "R002", LineNumber: 2, Text: "b"},
	}
	risks := map[string][]model.Risk{
		"R001": {risk("R001", model.SeverityMedium)},
	}
	sums := Summarize(reqs, risks)

	top := TopN(reqs, risks, sums, 5)
	if len(top) != 2 {
		t.Fatalf("got %d entries, want 2", len(top))
	}
	if top[0].Requirement.ID != "R001" {
		t.Errorf("risky requirement should rank first: %+v", top)
	}
	clean := top[1]
	if clean.Requirement.ID != "R002" {
		t.Fatalf("clean requirement missing from ranking: %+v", top)
	}
	if clean.Summary.TotalScore != 0 || clean.Summary.RiskCount != 0 || clean.Summary.AvgSeverity != 0 {
		t.Errorf("clean summary = %+v, want all zero", clean.Summary)
	}
	if len(clean.Risks) != 0 {
		t.Errorf("clean requirement carries risks: %+v", clean.Risks)
	}
}

func TestTopNTruncatesAndDefaults(t *testing.T) {
	risks := make(map[string][]model.Risk)
	var reqs []model.Requirement
	for _, id := range []string{"R001", "R002", "R003", "R004", "R005", "R006", "R007"} {
		risks[id] = []model.Risk{risk(id, model.SeverityMedium)}
		reqs = append(reqs, model.Requirement{ID: id, LineNumber: 1, Text: "x"})
	}
	sums := Summarize(reqs, risks)

	if got := TopN(reqs, risks, sums, 3); len(got) != 3 {
		t.Fatalf("n=3: got %d entries", len(got))
	}
	if got := TopN(reqs, risks, sums, 0); len(got) != DefaultTopN {
		t.Fatalf("n=0: got %d entries, want %d", len(got), DefaultTopN)
	}
	if got := TopN(reqs, risks, sums, 100); len(got) != 7 {
		t.Fatalf("n=100: got %d entries, want 7", len(got))
	}
}
