// Package detector holds the risk detector strategies, their shared
// template workflow, and the registry that builds the enabled set from a
// rules.Config.
package detector

import (
	"fmt"
	"sync"

	"github.com/avendel/reqstress/internal/model"
)

// Detector is the single capability all detectors are polymorphic over:
// analyze one requirement, return zero or more risks. Absence of risk is not
// an error. Implementations must be safe for concurrent Detect calls.
type Detector interface {
	// Category reports which risk class this detector produces.
	Category() model.Category

	// Name is the human-readable detector name used in logs.
	Name() string

	// Detect analyzes a single requirement. ids scopes risk-id generation to
	// the current analysis run so parallel runs never share counters.
	Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error)
}

// CollectionDetector is the second, explicit capability for checks that need
// the whole requirement collection at once (currently only Conflict's
// near-duplicate pass). The orchestrator invokes it once per run, in a
// separate pass, and merges the grouped results.
type CollectionDetector interface {
	Detector

	// DetectCollection analyzes the full collection and returns risks grouped
	// by requirement id.
	DetectCollection(reqs []model.Requirement, ids *IDGen) (map[string][]model.Risk, error)
}

// IDGen hands out deterministic risk ids of the form
// "<requirement id>-<category prefix>-NNN". Counters are scoped to one
// analysis run; create a fresh IDGen per run. Safe for concurrent use.
type IDGen struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewIDGen returns an empty, run-scoped id generator.
func NewIDGen() *IDGen {
	return &IDGen{counters: make(map[string]int)}
}

// Next returns the next risk id for a (requirement, category) pair.
func (g *IDGen) Next(requirementID string, cat model.Category) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := requirementID + "/" + string(cat)
	g.counters[key]++
	return fmt.Sprintf("%s-%s-%03d", requirementID, cat.Prefix(), g.counters[key])
}
