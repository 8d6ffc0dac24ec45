package otcore_test

import (
	"testing"

	"github.com/go-text/typesetting/language"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/otshaping/internal/synthfont"
	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
	"github.com/npillmayer/otshaping/otshape/otcore"
)

func latinFace() *synthfont.Face {
	b := synthfont.NewBuilder("latin")
	b.Glyphs("fiAV", 1, 500) // f=1 i=2 A=3 V=4
	b.Advance(10, 800)
	b.Ligature("liga", []otbuffer.GlyphIndex{1, 2}, 10)
	b.PairPos("kern", map[[2]otbuffer.GlyphIndex]int32{{3, 4}: -80})
	return b.Face()
}

func shapeLatin(t *testing.T, face otshape.Face, text string, features ...otshape.Feature) *otbuffer.Buffer {
	t.Helper()
	reg, err := otshape.NewRegistry(otcore.New())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	buf := otbuffer.New()
	buf.AddString(text)
	buf.SetProps(otbuffer.SegmentProperties{Direction: otbuffer.LeftToRight, Script: language.Latin})
	if err := otshape.NewShaper(otshape.WithRegistry(reg)).Shape(face, buf, features); err != nil {
		t.Fatalf("shape failed: %v", err)
	}
	return buf
}

func TestShapeAppliesGSUBFromCoreShaper(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otshaping.shaper")
	defer teardown()
	//
	buf := shapeLatin(t, latinFace(), "fi")
	infos := buf.GlyphInfos()
	if len(infos) != 1 {
		t.Fatalf("shaped glyph count = %d, want 1", len(infos))
	}
	if got := infos[0].Glyph(); got != 10 {
		t.Fatalf("shaped glyph id = %d, want 10", got)
	}
	if got := buf.GlyphPositions()[0].XAdvance; got != 800 {
		t.Fatalf("ligature advance = %d, want 800", got)
	}
}

func TestShapeUserFeatureDisablesLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otshaping.shaper")
	defer teardown()
	//
	noLiga, err := otshape.ParseFeature("-liga")
	if err != nil {
		t.Fatal(err)
	}
	buf := shapeLatin(t, latinFace(), "fi", noLiga)
	if got := buf.Len(); got != 2 {
		t.Fatalf("shaped glyph count = %d, want 2", got)
	}
}

func TestShapeAppliesGPOSKerning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otshaping.shaper")
	defer teardown()
	//
	buf := shapeLatin(t, latinFace(), "AV")
	pos := buf.GlyphPositions()
	if len(pos) != 2 {
		t.Fatalf("shaped glyph count = %d, want 2", len(pos))
	}
	if pos[0].XAdvance != 420 || pos[1].XAdvance != 500 {
		t.Fatalf("advances = [%d %d], want [420 500]", pos[0].XAdvance, pos[1].XAdvance)
	}
	if buf.GlyphInfos()[1].Mask&otbuffer.GlyphUnsafeToBreak == 0 {
		t.Fatalf("expected kerned glyph to be unsafe to break")
	}
}

func TestMatch(t *testing.T) {
	s := otcore.Shaper{}
	latin := otshape.SelectionContext{Props: otbuffer.SegmentProperties{
		Direction: otbuffer.LeftToRight, Script: language.Latin}}
	if got := s.Match(latin); got != otshape.ShaperConfidenceHigh {
		t.Fatalf("Latin confidence = %d, want high", got)
	}
	greek := otshape.SelectionContext{Props: otbuffer.SegmentProperties{
		Direction: otbuffer.LeftToRight, Script: language.Greek}}
	if got := s.Match(greek); got != otshape.ShaperConfidenceLow {
		t.Fatalf("Greek confidence = %d, want low", got)
	}
	rtl := otshape.SelectionContext{Props: otbuffer.SegmentProperties{
		Direction: otbuffer.RightToLeft, Script: language.Hebrew}}
	if got := s.Match(rtl); got != otshape.ShaperConfidenceNone {
		t.Fatalf("RTL confidence = %d, want none", got)
	}
}
