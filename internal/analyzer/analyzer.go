// Package analyzer runs the enabled detector set over a requirement
// collection: requirements are processed in parallel by a bounded worker
// pool, detectors run sequentially per requirement, and collection-scoped
// detectors get one extra pass over the whole set.
package analyzer

import (
	"context"
	"fmt"
	"sync"

	"github.com/avendel/reqstress/internal/detector"
	"github.com/avendel/reqstress/internal/logging"
	"github.com/avendel/reqstress/internal/model"
)

// DefaultWorkers bounds the per-item pool when the caller does not.
const DefaultWorkers = 4

// Engine fans a fixed detector set out over requirement collections. One
// Engine is safe for concurrent Analyze calls; all run state (risk ids,
// result maps, progress) is scoped per call.
type Engine struct {
	detectors []detector.Detector
	workers   int
	logger    logging.Logger

	// OnProgress, when set, is called after each requirement finishes its
	// per-item pass. It may be called from multiple goroutines.
	OnProgress func(done, total int)
}

// NewEngine builds an engine over an already-constructed detector set.
func NewEngine(detectors []detector.Detector, workers int, logger logging.Logger) *Engine {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Engine{
		detectors: detectors,
		workers:   workers,
		logger:    logger.With(logging.Field{Key: "component", Value: "analyzer"}),
	}
}

// Detectors returns the engine's detector set, in execution order.
func (e *Engine) Detectors() []detector.Detector { return e.detectors }

// Analyze runs every detector over every requirement and returns the risks
// grouped by requirement id. A detector failure (error or panic) is logged
// with the requirement, detector, and cause, then skipped; one bad detector
// never aborts the run. The only error returned is context cancellation.
func (e *Engine) Analyze(ctx context.Context, reqs []model.Requirement) (map[string][]model.Risk, error) {
	ids := detector.NewIDGen()
	out := make(map[string][]model.Risk, len(reqs))

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done int
	)

	work := make(chan model.Requirement)
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range work {
				risks := e.analyzeOne(req, ids)

				mu.Lock()
				if len(risks) > 0 {
					out[req.ID] = append(out[req.ID], risks...)
				}
				done++
				n := done
				mu.Unlock()

				if e.OnProgress != nil {
					e.OnProgress(n, len(reqs))
				}
			}
		}()
	}

	var cancelErr error
dispatch:
	for _, req := range reqs {
		select {
		case <-ctx.Done():
			cancelErr = ctx.Err()
			break dispatch
		case work <- req:
		}
	}
	close(work)
	wg.Wait()

	if cancelErr != nil {
		return nil, cancelErr
	}

	// Collection pass: detectors needing the whole set run once, after the
	// per-item pass, so their risks merge in a single synchronized step.
	for _, d := range e.detectors {
		cd, ok := d.(detector.CollectionDetector)
		if !ok {
			continue
		}
		grouped, err := e.runCollection(cd, reqs, ids)
		if err != nil {
			e.logger.Error("collection detector failed, skipping",
				logging.Field{Key: "detector", Value: d.Name()},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		for reqID, risks := range grouped {
			out[reqID] = append(out[reqID], risks...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// analyzeOne runs the detector chain sequentially over one requirement.
func (e *Engine) analyzeOne(req model.Requirement, ids *detector.IDGen) []model.Risk {
	var risks []model.Risk
	for _, d := range e.detectors {
		found, err := e.runDetector(d, req, ids)
		if err != nil {
			e.logger.Error("detector failed, skipping",
				logging.Field{Key: "detector", Value: d.Name()},
				logging.Field{Key: "requirement", Value: req.ID},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		risks = append(risks, found...)
	}
	return risks
}

// runDetector converts a detector panic into an error so the run survives.
func (e *Engine) runDetector(d detector.Detector, req model.Requirement, ids *detector.IDGen) (risks []model.Risk, err error) {
	defer func() {
		if r := recover(); r != nil {
			risks = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Detect(req, ids)
}

func (e *Engine) runCollection(cd detector.CollectionDetector, reqs []model.Requirement, ids *detector.IDGen) (grouped map[string][]model.Risk, err error) {
	defer func() {
		if r := recover(); r != nil {
			grouped = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cd.DetectCollection(reqs, ids)
}
