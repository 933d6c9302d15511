package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/avendel/reqstress/internal/detector"
	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
	"github.com/avendel/reqstress/internal/testutil"
)

// stubDetector returns one fixed-severity risk per requirement, or fails in
// the configured way.
type stubDetector struct {
	category model.Category
	err      error
	panics   bool
}

func (s *stubDetector) Category() model.Category { return s.category }
func (s *stubDetector) Name() string             { return "stub " + string(s.category) }

func (s *stubDetector) Detect(req model.Requirement, ids *detector.IDGen) ([]model.Risk, error) {
	if s.panics {
		panic("stub detector exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return []model.Risk{{
		ID:            ids.Next(req.ID, s.category),
		Category:      s.category,
		Severity:      model.SeverityMedium,
		Description:   "stub finding",
		RequirementID: req.ID,
		LineNumber:    req.LineNumber,
	}}, nil
}

func makeReqs(n int) []model.Requirement {
	reqs := make([]model.Requirement, n)
	for i := range reqs {
		reqs[i] = model.Requirement{
			ID:         fmt.Sprintf("R%03d", i+1),
			LineNumber: i + 1,
			Text:       fmt.Sprintf("requirement number %d does something concrete", i+1),
		}
	}
	return reqs
}

func TestAnalyzeCollectsRisksPerRequirement(t *testing.T) {
	e := NewEngine([]detector.Detector{
		&stubDetector{category: model.CategoryAmbiguity},
		&stubDetector{category: model.CategorySecurity},
	}, 3, &testutil.DummyLogger{})

	reqs := makeReqs(10)
	out, err := e.Analyze(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(out) != len(reqs) {
		t.Fatalf("got results for %d requirements, want %d", len(out), len(reqs))
	}
	for _, req := range reqs {
		risks := out[req.ID]
		if len(risks) != 2 {
			t.Fatalf("%s: got %d risks, want 2", req.ID, len(risks))
		}
		// Detectors run sequentially per item, so order is stable.
		if risks[0].Category != model.CategoryAmbiguity || risks[1].Category != model.CategorySecurity {
			t.Errorf("%s: unexpected category order: %v, %v", req.ID, risks[0].Category, risks[1].Category)
		}
	}
}

func TestAnalyzeIsolatesFailingDetector(t *testing.T) {
	logger := &testutil.DummyLogger{}
	e := NewEngine([]detector.Detector{
		&stubDetector{category: model.CategoryAmbiguity, err: errors.New("rule table corrupt")},
		&stubDetector{category: model.CategoryPerformance, panics: true},
		&stubDetector{category: model.CategorySecurity},
	}, 2, logger)

	reqs := makeReqs(4)
	out, err := e.Analyze(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	for _, req := range reqs {
		risks := out[req.ID]
		if len(risks) != 1 || risks[0].Category != model.CategorySecurity {
			t.Fatalf("%s: healthy detector output lost: %+v", req.ID, risks)
		}
	}
	// One error log per failing invocation: 2 failing detectors x 4 items.
	if got := logger.ErrorCount(); got != 8 {
		t.Errorf("logged %d errors, want 8", got)
	}
}

func TestAnalyzeRunsCollectionPass(t *testing.T) {
	cfg := rules.Default()
	e := NewEngine([]detector.Detector{detector.NewConflict(cfg)}, 2, &testutil.DummyLogger{})

	reqs := []model.Requirement{
		{ID: "R001", LineNumber: 1, Text: "The gateway shall retry failed deliveries up to three times."},
		{ID: "R002", LineNumber: 2, Text: "The gateway shall retry failed deliveries up to five times."},
	}
	out, err := e.Analyze(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(out["R001"]) != 1 || len(out["R002"]) != 1 {
		t.Fatalf("duplicate pass results missing: %+v", out)
	}
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine([]detector.Detector{&stubDetector{category: model.CategoryAmbiguity}}, 2, &testutil.DummyLogger{})
	_, err := e.Analyze(ctx, makeReqs(50))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAnalyzeReportsProgress(t *testing.T) {
	e := NewEngine([]detector.Detector{&stubDetector{category: model.CategoryAmbiguity}}, 4, &testutil.DummyLogger{})

	var (
		mu    sync.Mutex
		calls int
		last  int
	)
	e.OnProgress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if done > last {
			last = done
		}
		if total != 20 {
			t.Errorf("total = %d, want 20", total)
		}
	}

	if _, err := e.Analyze(context.Background(), makeReqs(20)); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if calls != 20 || last != 20 {
		t.Fatalf("progress calls = %d (last done %d), want 20/20", calls, last)
	}
}
