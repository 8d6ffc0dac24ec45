package otshape_test

import (
	"testing"

	"github.com/go-text/typesetting/language"

	"github.com/npillmayer/otshaping/internal/synthfont"
	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

func compile(t *testing.T, face otshape.Face, p otbuffer.SegmentProperties, opts otshape.Options,
	features ...otshape.Feature) *otshape.Plan {
	//
	t.Helper()
	plan, err := otshape.Compile(otshape.PlanRequest{
		Face:     face,
		Props:    p,
		Features: features,
		Options:  opts,
		Registry: &otshape.Registry{},
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return plan
}

func TestPlanRejectsMissingInputs(t *testing.T) {
	if _, err := otshape.Compile(otshape.PlanRequest{Props: props(otbuffer.LeftToRight, language.Latin)}); err != otshape.ErrNoFace {
		t.Errorf("error without face = %v, want ErrNoFace", err)
	}
	if _, err := otshape.Compile(otshape.PlanRequest{Face: mapFace()}); err == nil {
		t.Errorf("expected error for invalid direction")
	}
}

func TestPlanCompilationIsDeterministic(t *testing.T) {
	p := props(otbuffer.LeftToRight, language.Latin)
	a := compile(t, mapFace(), p, otshape.Options{})
	b := compile(t, mapFace(), p, otshape.Options{})
	if !a.Equivalent(b) {
		t.Errorf("equal inputs give different plans:\n%s\n%s", a.Map, b.Map)
	}
	if a.String() != b.String() || a.Map.String() != b.Map.String() {
		t.Errorf("plan dumps differ")
	}
	rtl := compile(t, mapFace(), props(otbuffer.RightToLeft, language.Latin), otshape.Options{})
	if a.Equivalent(rtl) {
		t.Errorf("LTR and RTL plans reported equivalent")
	}
}

func TestPlanSelectsGPOSOverLegacyKern(t *testing.T) {
	b := synthfont.NewBuilder("gpos+kern")
	b.Glyphs("AV", 1, 500)
	b.PairPos("kern", map[[2]otbuffer.GlyphIndex]int32{{1, 2}: -50})
	b.Kern(1, 2, -80)
	plan := compile(t, b.Face(), props(otbuffer.LeftToRight, language.Latin), otshape.Options{})
	if !plan.ApplyGPOS || plan.ApplyKern {
		t.Errorf("GPOS kerning must win over kern table: %s", plan)
	}
	if !plan.RequestedKerning || plan.KernMask == 0 {
		t.Errorf("kerning not requested")
	}
}

func TestPlanFallsBackToLegacyTables(t *testing.T) {
	b := synthfont.NewBuilder("legacy")
	b.Glyphs("AV", 1, 500)
	b.Kern(1, 2, -80)
	b.Tracking(20)
	face := b.Face()
	p := props(otbuffer.LeftToRight, language.Latin)
	plan := compile(t, face, p, otshape.Options{})
	if plan.ApplyGPOS || !plan.ApplyKern || !plan.ApplyTrak {
		t.Errorf("expected legacy kern and trak: %s", plan)
	}
	if !plan.FallbackMarkPositioning || !plan.FallbackGlyphClasses {
		t.Errorf("font without GPOS and GDEF needs fallbacks: %s", plan)
	}
	noKern, _ := otshape.ParseFeature("-kern")
	plan = compile(t, face, p, otshape.Options{}, noKern)
	if plan.RequestedKerning || plan.KernMask != 0 {
		t.Errorf("-kern should switch off legacy kerning")
	}
	if !plan.ApplyKern {
		t.Errorf("kern table should stay selected, masked off by -kern")
	}
}

func TestPlanMorxKeepsZeroedMarksInPlace(t *testing.T) {
	b := synthfont.NewBuilder("morx marks")
	b.Glyphs("a", 1, 500)
	b.Morx(1, 3)
	plan := compile(t, b.Face(), props(otbuffer.LeftToRight, language.Latin), otshape.Options{})
	if !plan.ApplyMorx {
		t.Fatalf("expected morx: %s", plan)
	}
	if plan.AdjustMarkPositioningWhenZeroing {
		t.Errorf("morx plan must not adjust offsets of zeroed marks")
	}
	if !plan.FallbackMarkPositioning {
		t.Errorf("morx font without GPOS still needs fallback mark positioning")
	}
}

func TestPlanLegacyKernKeepsMarkZeroing(t *testing.T) {
	b := synthfont.NewBuilder("kern marks")
	b.Glyphs("AV", 1, 500)
	b.Kern(1, 2, -80)
	plan := compile(t, b.Face(), props(otbuffer.LeftToRight, language.Latin), otshape.Options{})
	if !plan.ApplyKern || !plan.AdjustMarkPositioningWhenZeroing {
		t.Errorf("pair kerning must not block mark offset adjustment: %s", plan)
	}
}

func TestPlanMorxPreference(t *testing.T) {
	build := func() otshape.Face {
		b := synthfont.NewBuilder("morx")
		b.Glyphs("a", 1, 500)
		b.Single("liga", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{1: 2})
		b.Morx(1, 3)
		return b.Face()
	}
	p := props(otbuffer.LeftToRight, language.Latin)
	if plan := compile(t, build(), p, otshape.Options{}); plan.ApplyMorx {
		t.Errorf("GSUB should win over morx by default")
	}
	if plan := compile(t, build(), p, otshape.Options{PreferMorx: true}); !plan.ApplyMorx {
		t.Errorf("PreferMorx ignored")
	}
}

func TestPlanNormalizationMode(t *testing.T) {
	b := synthfont.NewBuilder("marks")
	b.Glyphs("a\u0301", 1, 500)
	b.Class(otshape.ClassBase, 1)
	b.Class(otshape.ClassMark, 2)
	b.MarkToBase("mark", map[otbuffer.GlyphIndex][2]int32{2: {250, 600}})
	face := b.Face()
	p := props(otbuffer.LeftToRight, language.Latin)

	plan := compile(t, face, p, otshape.Options{})
	if !plan.HasGPOSMark || plan.Normalization != otshape.NormalizationDecomposed {
		t.Errorf("GPOS mark positioning should select decomposed normalization: %s", plan)
	}
	if plan.FallbackGlyphClasses {
		t.Errorf("face has GDEF classes")
	}
	plan = compile(t, mapFace(), p, otshape.Options{})
	if plan.Normalization != otshape.NormalizationComposed {
		t.Errorf("normalization without mark feature = %d, want composed", plan.Normalization)
	}
	plan = compile(t, face, p, otshape.Options{Normalization: otshape.NormalizationNone})
	if plan.Normalization != otshape.NormalizationNone {
		t.Errorf("option did not override normalization")
	}
}

func TestPlanFractionAndDirectionMasks(t *testing.T) {
	b := synthfont.NewBuilder("frac")
	b.Glyphs("12", 1, 500)
	b.Single("numr", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{1: 11})
	b.Single("dnom", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{2: 12})
	b.Single("rtlm", map[otbuffer.GlyphIndex]otbuffer.GlyphIndex{1: 2})
	face := b.Face()

	plan := compile(t, face, props(otbuffer.LeftToRight, language.Latin), otshape.Options{})
	if !plan.HasFrac || plan.NumrMask == 0 || plan.DnomMask == 0 || plan.FracMask != 0 {
		t.Errorf("numr and dnom alone should enable fractions: %+v", plan)
	}
	if plan.NumrMask&plan.Map.GlobalMask != 0 {
		t.Errorf("numr must be off by default")
	}
	if plan.RtlmMask != 0 {
		t.Errorf("rtlm allocated for a left-to-right plan")
	}
	plan = compile(t, face, props(otbuffer.RightToLeft, language.Arabic), otshape.Options{})
	if plan.RtlmMask == 0 || plan.RtlmMask&plan.Map.GlobalMask != 0 {
		t.Errorf("rtlm should be allocated but off for right-to-left plans")
	}
}

func TestPlanUserFeaturesAreCopied(t *testing.T) {
	f, _ := otshape.ParseFeature("smcp[1:3]")
	features := []otshape.Feature{f}
	plan := compile(t, mapFace(), props(otbuffer.LeftToRight, language.Latin), otshape.Options{}, features...)
	features[0].Value = 0
	if got := plan.UserFeatures(); len(got) != 1 || got[0].Value != 1 {
		t.Errorf("plan features changed with caller's slice: %v", got)
	}
	if plan.FeatureMask1(otshape.T("smcp")) == 0 {
		t.Errorf("ranged smcp did not get mask bits")
	}
	if plan.FeatureMask1(otshape.T("smcp"))&plan.Map.GlobalMask != 0 {
		t.Errorf("ranged feature on by default")
	}
}
