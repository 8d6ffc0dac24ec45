package otshape_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-text/typesetting/language"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

// votingEngine answers Match with a fixed confidence for one script.
type votingEngine struct {
	name   string
	script language.Script
	vote   otshape.ShaperConfidence
}

func (e *votingEngine) Name() string { return e.name }

func (e *votingEngine) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	if ctx.Props.Script != e.script {
		return otshape.ShaperConfidenceNone
	}
	return e.vote
}

func (e *votingEngine) New() otshape.ShapingEngine {
	clone := *e
	return &clone
}

func selection(script language.Script) otshape.SelectionContext {
	return otshape.SelectionContext{Props: otbuffer.SegmentProperties{
		Direction: otbuffer.LeftToRight,
		Script:    script,
	}}
}

func TestRegistryPicksHighestConfidence(t *testing.T) {
	reg, err := otshape.NewRegistry(
		&votingEngine{name: "low", script: language.Latin, vote: otshape.ShaperConfidenceLow},
		&votingEngine{name: "high", script: language.Latin, vote: otshape.ShaperConfidenceHigh},
		&votingEngine{name: "greek", script: language.Greek, vote: otshape.ShaperConfidenceCertain},
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := reg.Resolve(selection(language.Latin)).Name(); got != "high" {
		t.Errorf("Latin resolves to %q, want high", got)
	}
	if got := reg.Resolve(selection(language.Greek)).Name(); got != "greek" {
		t.Errorf("Greek resolves to %q, want greek", got)
	}
	if got := reg.Resolve(selection(language.Thai)).Name(); got != "default" {
		t.Errorf("unmatched script resolves to %q, want default", got)
	}
}

func TestRegistryBreaksTiesByName(t *testing.T) {
	for _, order := range [][]string{{"beta", "alpha"}, {"alpha", "beta"}} {
		reg := &otshape.Registry{}
		for _, name := range order {
			if err := reg.Register(&votingEngine{name: name, script: language.Latin,
				vote: otshape.ShaperConfidenceMedium}); err != nil {
				t.Fatal(err)
			}
		}
		if got := reg.Resolve(selection(language.Latin)).Name(); got != "alpha" {
			t.Errorf("registration order %v resolves to %q, want alpha", order, got)
		}
	}
}

func TestRegistryRejectsDuplicatesAndBadEngines(t *testing.T) {
	reg, err := otshape.NewRegistry(&votingEngine{name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&votingEngine{name: "x"}); !errors.Is(err, otshape.ErrEngineAlreadyRegistered) {
		t.Errorf("duplicate registration error = %v", err)
	}
	if err := reg.Register(&votingEngine{name: "  "}); err == nil {
		t.Errorf("expected error for empty engine name")
	}
	if err := reg.Register(nil); err == nil {
		t.Errorf("expected error for nil engine")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "x" {
		t.Errorf("names = %v, want [x]", names)
	}
	reg.Clear()
	if len(reg.Names()) != 0 {
		t.Errorf("Clear left engines behind")
	}
}

func TestRegistryResolvesFreshInstances(t *testing.T) {
	reg, _ := otshape.NewRegistry(&votingEngine{name: "latin", script: language.Latin,
		vote: otshape.ShaperConfidenceHigh})
	ctx := selection(language.Latin)
	var wg sync.WaitGroup
	engines := make([]otshape.ShapingEngine, 8)
	for i := range engines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			engines[i] = reg.Resolve(ctx)
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(engines); i++ {
		if engines[i] == engines[0] {
			t.Fatalf("Resolve returned a shared engine instance")
		}
		if engines[i].Name() != "latin" {
			t.Fatalf("engine %d = %q", i, engines[i].Name())
		}
	}
}
