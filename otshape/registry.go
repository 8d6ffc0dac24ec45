package otshape

import (
	"fmt"
	"strings"
	"sync"
)

// Registry holds the shaping engines available for plan compilation. It is
// safe for concurrent use.
//
// Resolution asks every engine for its confidence and picks the highest
// one, breaking ties by engine name and then by registration order. If no
// engine matches, an internal default engine is used.
type Registry struct {
	mu        sync.RWMutex
	entries   []registration
	nextOrder int
	resolved  map[SelectionContext]ShapingEngine // memoized prototypes
}

type registration struct {
	prototype ShapingEngine
	order     int
}

// NewRegistry creates a registry holding the given engines.
func NewRegistry(engines ...ShapingEngine) (*Registry, error) {
	r := &Registry{}
	for _, e := range engines {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry is used by plan compilation if no registry is given.
// Script engines register themselves with it by calling Register.
var DefaultRegistry = &Registry{}

// Register adds an engine. Names must be unique.
func (r *Registry) Register(engine ShapingEngine) error {
	if engine == nil {
		return errShaper("cannot register nil shaping engine")
	}
	name := strings.TrimSpace(engine.Name())
	if name == "" {
		return errShaper("cannot register shaping engine with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.prototype.Name() == name {
			return fmt.Errorf("%w: %q", ErrEngineAlreadyRegistered, name)
		}
	}
	r.entries = append(r.entries, registration{prototype: engine, order: r.nextOrder})
	r.nextOrder++
	r.resolved = nil
	return nil
}

// Clear removes all engines.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.entries = nil
	r.nextOrder = 0
	r.resolved = nil
	r.mu.Unlock()
}

// Names lists the registered engine names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, entry := range r.entries {
		names[i] = entry.prototype.Name()
	}
	return names
}

// Resolve returns a fresh instance of the best engine for ctx.
func (r *Registry) Resolve(ctx SelectionContext) ShapingEngine {
	r.mu.RLock()
	best, ok := r.resolved[ctx]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if best, ok = r.resolved[ctx]; !ok {
			best = r.selectLocked(ctx)
			if r.resolved == nil {
				r.resolved = make(map[SelectionContext]ShapingEngine)
			}
			r.resolved[ctx] = best
		}
		r.mu.Unlock()
	}
	if best == nil {
		return defaultEngine{}
	}
	if instance := best.New(); instance != nil {
		return instance
	}
	return defaultEngine{}
}

func (r *Registry) selectLocked(ctx SelectionContext) ShapingEngine {
	var (
		best      ShapingEngine
		bestScore ShaperConfidence
		bestName  string
		bestOrder int
	)
	for _, entry := range r.entries {
		score := entry.prototype.Match(ctx)
		if score <= ShaperConfidenceNone {
			continue
		}
		name := entry.prototype.Name()
		if best == nil || score > bestScore ||
			(score == bestScore && (name < bestName || (name == bestName && entry.order < bestOrder))) {
			best, bestScore, bestName, bestOrder = entry.prototype, score, name, entry.order
		}
	}
	if best != nil {
		tracer().Debugf("selected shaping engine %q for %s (confidence %d)", bestName, ctx.Props, bestScore)
	}
	return best
}

// defaultEngine is used when no registered engine matches. It has no hooks
// and the default policy.
type defaultEngine struct{}

func (defaultEngine) Name() string                            { return "default" }
func (defaultEngine) Match(SelectionContext) ShaperConfidence { return ShaperConfidenceLow }
func (defaultEngine) New() ShapingEngine                      { return defaultEngine{} }
