package otshape_test

import (
	"sync"
	"testing"

	"github.com/go-text/typesetting/language"

	"github.com/npillmayer/otshaping/internal/synthfont"
	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

func props(dir otbuffer.Direction, script language.Script) otbuffer.SegmentProperties {
	return otbuffer.SegmentProperties{Direction: dir, Script: script}
}

func TestPlanCacheHitsAndEviction(t *testing.T) {
	face := mapFace()
	cache := otshape.NewPlanCache(2, &otshape.Registry{})
	a := props(otbuffer.LeftToRight, language.Latin)
	b := props(otbuffer.RightToLeft, language.Latin)
	c := props(otbuffer.LeftToRight, language.Greek)

	p1, err := cache.Get(face, a, nil, otshape.Options{})
	if err != nil {
		t.Fatal(err)
	}
	p2, _ := cache.Get(face, a, nil, otshape.Options{})
	if p1 != p2 {
		t.Errorf("second lookup compiled a new plan")
	}
	_, _ = cache.Get(face, b, nil, otshape.Options{})
	_, _ = cache.Get(face, c, nil, otshape.Options{}) // evicts a
	if cache.Len() != 2 {
		t.Errorf("cache holds %d plans, want 2", cache.Len())
	}
	p3, _ := cache.Get(face, a, nil, otshape.Options{})
	if p3 == p1 {
		t.Errorf("evicted plan returned from cache")
	}
	if !p3.Equivalent(p1) {
		t.Errorf("recompiled plan differs:\n%s\n%s", p1, p3)
	}
	hits, misses := cache.Stats()
	if hits != 1 || misses != 4 {
		t.Errorf("stats = %d hits, %d misses, want 1/4", hits, misses)
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear left %d plans", cache.Len())
	}
}

func TestPlanCacheKeysOnFeaturesAndOptions(t *testing.T) {
	face := mapFace()
	cache := otshape.NewPlanCache(0, &otshape.Registry{})
	p := props(otbuffer.LeftToRight, language.Latin)
	noLiga, _ := otshape.ParseFeature("-liga")

	plain, _ := cache.Get(face, p, nil, otshape.Options{})
	withFeature, _ := cache.Get(face, p, []otshape.Feature{noLiga}, otshape.Options{})
	withOption, _ := cache.Get(face, p, nil, otshape.Options{ZeroWidthInvisibles: true})
	if plain == withFeature || plain == withOption || withFeature == withOption {
		t.Errorf("distinct inputs share a plan")
	}
	if plain.Equivalent(withFeature) {
		t.Errorf("disabling liga should change the plan")
	}
	if _, err := cache.Get(nil, p, nil, otshape.Options{}); err != otshape.ErrNoFace {
		t.Errorf("nil face error = %v, want ErrNoFace", err)
	}
}

func TestPlanCacheKeysOnVariationCoords(t *testing.T) {
	build := func(coords []float32) *synthfont.Face {
		b := synthfont.NewBuilder("var")
		b.Glyphs("ab", 1, 500)
		b.Single("liga", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{1: 2})
		b.Variation(otshape.LayoutGSUB, 0, coords, "liga", 0)
		return b.Face()
	}
	cache := otshape.NewPlanCache(4, &otshape.Registry{})
	p := props(otbuffer.LeftToRight, language.Latin)
	face := build([]float32{0.2})
	p1, _ := cache.Get(face, p, nil, otshape.Options{})
	if p1.VariationIndex[otshape.LayoutGSUB] != 0 {
		t.Errorf("variation index = %v, want 0 for GSUB", p1.VariationIndex)
	}
	p2, _ := cache.Get(face, p, nil, otshape.Options{})
	if p1 != p2 {
		t.Errorf("same face and coords missed the cache")
	}
}

func TestPlanCacheConcurrentGet(t *testing.T) {
	face := mapFace()
	cache := otshape.NewPlanCache(8, &otshape.Registry{})
	p := props(otbuffer.LeftToRight, language.Latin)
	plans := make([]*otshape.Plan, 16)
	var wg sync.WaitGroup
	for i := range plans {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plans[i], _ = cache.Get(face, p, nil, otshape.Options{})
		}(i)
	}
	wg.Wait()
	for i := range plans {
		if plans[i] == nil || !plans[i].Equivalent(plans[0]) {
			t.Fatalf("plan %d differs from plan 0", i)
		}
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d plans, want 1", cache.Len())
	}
}
