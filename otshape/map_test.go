package otshape_test

import (
	"testing"

	ot "github.com/go-text/typesetting/font/opentype"

	"github.com/npillmayer/otshaping/internal/synthfont"
	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

var latn = []ot.Tag{otshape.T("latn")}

func mapFace() *synthfont.Face {
	b := synthfont.NewBuilder("map")
	b.Glyphs("ab", 1, 500)
	b.Single("liga", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{1: 2}) // GSUB 0
	b.Single("smcp", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{2: 1}) // GSUB 1
	b.PairPos("kern", map[[2]otbuffer.GlyphIndex]int32{{1, 2}: -20})    // GPOS 0
	return b.Face()
}

func TestMapAllocatesGlobalBitAndFeatureBits(t *testing.T) {
	b := otshape.NewMapBuilder(mapFace(), latn, nil)
	b.EnableFeature(otshape.T("liga"))
	b.AddFeature(otshape.T("smcp"), otshape.FeatureNone, 1)
	b.EnableFeature(otshape.T("kern"))
	m := b.Compile([2]int{-1, -1})

	if got := m.Mask1(otshape.T("liga")); got != 1<<3 {
		t.Errorf("liga mask = %#x, want the global bit", got)
	}
	if got := m.Mask1(otshape.T("kern")); got != 1<<3 {
		t.Errorf("kern mask = %#x, want the global bit", got)
	}
	mask, shift := m.Mask(otshape.T("smcp"))
	if mask != 1<<4 || shift != 4 {
		t.Errorf("smcp mask = %#x shift %d, want %#x shift 4", mask, shift, 1<<4)
	}
	if m.GlobalMask != 1<<3 {
		t.Errorf("global mask = %#x, smcp must stay off", m.GlobalMask)
	}
	if mask&otbuffer.GlyphFlagDefined != 0 {
		t.Errorf("feature bits overlap glyph flags")
	}
}

func TestMapSkipsDisabledAndMissingFeatures(t *testing.T) {
	b := otshape.NewMapBuilder(mapFace(), latn, nil)
	b.EnableFeature(otshape.T("liga"))
	b.DisableFeature(otshape.T("liga"))
	b.EnableFeature(otshape.T("xxxx"))
	b.AddFeature(otshape.T("trak"), otshape.FeatureGlobal|otshape.FeatureHasFallback, 1)
	m := b.Compile([2]int{-1, -1})

	if m.Mask1(otshape.T("liga")) != 0 {
		t.Errorf("disabled feature got mask bits")
	}
	if m.Mask1(otshape.T("xxxx")) != 0 {
		t.Errorf("feature missing from font got mask bits")
	}
	if m.Mask1(otshape.T("trak")) == 0 || !m.NeedsFallback(otshape.T("trak")) {
		t.Errorf("fallback feature should be allocated and flagged")
	}
	if m.NeedsFallback(otshape.T("xxxx")) {
		t.Errorf("dropped feature reports fallback")
	}
	if n := m.LookupCount(otshape.LayoutGSUB); n != 0 {
		t.Errorf("GSUB lookup count = %d, want 0", n)
	}
}

func TestMapStagesAndPauses(t *testing.T) {
	var calls []string
	b := otshape.NewMapBuilder(mapFace(), latn, nil)
	b.EnableFeature(otshape.T("liga"))
	b.AddGSUBPause(func(otshape.PauseContext) error {
		calls = append(calls, "first")
		return nil
	})
	b.AddGSUBPause(nil) // empty stage without hook
	b.AddGSUBPause(func(otshape.PauseContext) error {
		calls = append(calls, "empty")
		return nil
	})
	b.EnableFeature(otshape.T("smcp"))
	m := b.Compile([2]int{-1, -1})

	stages := m.Stages(otshape.LayoutGSUB)
	if len(stages) != 3 {
		t.Fatalf("GSUB stages = %d, want 3:\n%s", len(stages), m)
	}
	if len(stages[0].Lookups) != 1 || stages[0].Lookups[0].Index != 0 || stages[0].Pause == nil {
		t.Errorf("stage 0 = %+v, want liga lookup and pause", stages[0])
	}
	if len(stages[1].Lookups) != 0 || stages[1].Pause == nil {
		t.Errorf("stage 1 = %+v, want pause without lookups", stages[1])
	}
	if len(stages[2].Lookups) != 1 || stages[2].Lookups[0].Index != 1 || stages[2].Pause != nil {
		t.Errorf("stage 2 = %+v, want smcp lookup", stages[2])
	}
	a := m.Allocation()
	if len(a) != 2 || a[0].Tag != otshape.T("liga") || a[0].Stage[otshape.LayoutGSUB] != 0 ||
		a[1].Stage[otshape.LayoutGSUB] != 3 {
		t.Errorf("allocation = %v", a)
	}
	for _, st := range stages {
		if st.Pause != nil {
			_ = st.Pause(nil)
		}
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "empty" {
		t.Errorf("pause hooks = %v", calls)
	}
}

func TestMapMergesSharedLookups(t *testing.T) {
	b := synthfont.NewBuilder("shared")
	b.Glyphs("ab", 1, 500)
	b.Single("liga", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{1: 2})
	b.Feature(otshape.LayoutGSUB, "dlig", 0)
	mb := otshape.NewMapBuilder(b.Face(), latn, nil)
	mb.EnableFeature(otshape.T("liga"))
	mb.AddFeature(otshape.T("dlig"), otshape.FeatureManualZWJ, 1)
	m := mb.Compile([2]int{-1, -1})

	stages := m.Stages(otshape.LayoutGSUB)
	if len(stages) != 1 || len(stages[0].Lookups) != 1 {
		t.Fatalf("expected a single merged lookup:\n%s", m)
	}
	op := stages[0].Lookups[0]
	want := m.Mask1(otshape.T("liga")) | m.Mask1(otshape.T("dlig"))
	if op.Mask != want {
		t.Errorf("merged mask = %#x, want %#x", op.Mask, want)
	}
	if op.AutoZWJ {
		t.Errorf("merged lookup skips ZWJ although dlig handles it manually")
	}
}

func TestMapRangedMentionMakesFeatureNonGlobal(t *testing.T) {
	b := otshape.NewMapBuilder(mapFace(), latn, nil)
	b.EnableFeature(otshape.T("liga"))
	b.AddFeature(otshape.T("liga"), otshape.FeatureNone, 2)
	m := b.Compile([2]int{-1, -1})
	mask, shift := m.Mask(otshape.T("liga"))
	if shift != 4 || mask != 3<<4 {
		t.Errorf("liga mask = %#x shift %d, want two bits at 4", mask, shift)
	}
	if m.GlobalMask&mask != 1<<4 {
		t.Errorf("global mask %#x does not carry the default value 1", m.GlobalMask)
	}
}

func TestMapRequiredFeatureAndVariations(t *testing.T) {
	b := synthfont.NewBuilder("required")
	b.Glyphs("ab", 1, 500)
	b.Single("", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{1: 2}) // 0
	b.Single("liga", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{2: 1})
	b.Required(otshape.LayoutGSUB, otshape.T("latn"), "ccmp", 0)
	b.Variation(otshape.LayoutGSUB, 2, []float32{0.5}, "liga", 0)
	face := b.Face()

	mb := otshape.NewMapBuilder(face, latn, nil)
	mb.EnableFeature(otshape.T("ccmp"))
	m := mb.Compile([2]int{-1, -1})
	ops := m.Stages(otshape.LayoutGSUB)[0].Lookups
	if len(ops) != 1 || ops[0].Index != 0 || ops[0].FeatureTag != otshape.T("ccmp") {
		t.Errorf("required lookups = %+v", ops)
	}

	mb = otshape.NewMapBuilder(face, latn, nil)
	mb.EnableFeature(otshape.T("liga"))
	m = mb.Compile([2]int{2, -1})
	// liga's variation lookup coincides with the required lookup
	ops = m.Stages(otshape.LayoutGSUB)[0].Lookups
	if len(ops) != 1 || ops[0].Index != 0 || ops[0].Mask&m.Mask1(otshape.T("liga")) == 0 {
		t.Errorf("lookups under variation 2 = %+v", ops)
	}
}
