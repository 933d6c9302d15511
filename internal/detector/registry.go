package detector

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// ErrUnknownCategory is returned when the registry is asked to build a
// detector type nothing has registered.
var ErrUnknownCategory = errors.New("unknown detector category")

// Constructor builds one detector over a loaded rules config.
type Constructor func(cfg *rules.Config) Detector

// Registry maps categories to detector constructors and caches the built
// instances for the most recent rules.Config, so one run reuses one detector
// set. Building with a different config evicts the previous set; configs are
// replaced wholesale on every toggle or reload, so only the live one is
// worth keeping. New categories extend the system through Register without
// touching existing ones.
type Registry struct {
	mu           sync.Mutex
	constructors map[model.Category]Constructor
	cacheCfg     *rules.Config
	cached       map[model.Category]Detector
}

// NewRegistry returns a registry preloaded with the eight built-in
// detectors.
func NewRegistry() *Registry {
	r := &Registry{
		constructors: make(map[model.Category]Constructor),
	}
	r.Register(model.CategoryAmbiguity, NewAmbiguity)
	r.Register(model.CategoryMissingDetail, NewMissingDetail)
	r.Register(model.CategorySecurity, NewSecurity)
	r.Register(model.CategoryConflict, NewConflict)
	r.Register(model.CategoryPerformance, NewPerformance)
	r.Register(model.CategoryAvailability, NewAvailability)
	r.Register(model.CategoryTraceability, NewTraceability)
	r.Register(model.CategoryScope, NewScope)
	return r
}

// Register adds (or replaces) a constructor for a category.
func (r *Registry) Register(cat model.Category, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[cat] = ctor
}

// Categories returns every registered category, sorted for determinism.
func (r *Registry) Categories() []model.Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Category, 0, len(r.constructors))
	for cat := range r.constructors {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Build returns the detector for one category, constructing and caching it
// on first use for the given config.
func (r *Registry) Build(cat model.Category, cfg *rules.Config) (Detector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctor, ok := r.constructors[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}

	if r.cacheCfg != cfg {
		r.cacheCfg = cfg
		r.cached = make(map[model.Category]Detector)
	}
	if d, ok := r.cached[cat]; ok {
		return d, nil
	}

	d := ctor(cfg)
	r.cached[cat] = d
	return d, nil
}

// BuildEnabled constructs exactly the detector set enabled in cfg, in a
// stable category order. Categories present in the config but never
// registered are an error; disabled ones are simply absent.
func (r *Registry) BuildEnabled(cfg *rules.Config) ([]Detector, error) {
	var out []Detector
	for _, cat := range r.Categories() {
		if !cfg.IsEnabled(string(cat)) {
			continue
		}
		d, err := r.Build(cat, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
