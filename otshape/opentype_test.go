package otshape_test

import (
	"testing"

	td "github.com/go-text/typesetting-utils/opentype"
	"github.com/go-text/typesetting/language"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otfont"
	"github.com/npillmayer/otshaping/otshape"
)

// Plans for fonts with real GSUB and GPOS tables resolve the lookups of
// the default features.
func TestPlanWithOpenTypeLayoutFonts(t *testing.T) {
	props := otbuffer.SegmentProperties{Direction: otbuffer.LeftToRight, Script: language.Latin}
	for _, path := range td.WithOTLayout {
		data, err := td.Files.ReadFile(path)
		if err != nil {
			t.Fatalf("cannot read %s: %v", path, err)
		}
		f, err := otfont.Parse(data)
		if err != nil {
			t.Fatalf("cannot parse %s: %v", path, err)
		}
		plan, err := otshape.Compile(otshape.PlanRequest{Face: f, Props: props, Registry: &otshape.Registry{}})
		if err != nil {
			t.Fatalf("%s: compile: %v", path, err)
		}
		if hasLatinScript(f) && plan.Map.LookupCount(otshape.LayoutGSUB) == 0 {
			t.Errorf("%s: GSUB present but no lookups in plan", path)
		}
		if f.Capabilities()&otshape.HasGPOS != 0 && !plan.ApplyGPOS {
			t.Errorf("%s: GPOS present but not applied", path)
		}
		for _, table := range []otshape.LayoutTable{otshape.LayoutGSUB, otshape.LayoutGPOS} {
			for i, stage := range plan.Map.Stages(table) {
				for _, op := range stage.Lookups {
					if op.Mask == 0 {
						t.Errorf("%s: %s stage %d: lookup %d (%s) has no mask", path, table, i, op.Index, op.FeatureTag)
					}
				}
			}
		}

		buf := otbuffer.New()
		buf.AddString("office")
		buf.SetProps(props)
		if err := otshape.NewShaper().Shape(f, buf, nil); err != nil {
			t.Fatalf("%s: shape: %v", path, err)
		}
		if buf.ContentType() != otbuffer.ContentGlyphs || buf.Len() == 0 {
			t.Errorf("%s: shaping produced no glyphs", path)
		}
	}
}

func hasLatinScript(f *otfont.Font) bool {
	for _, tag := range f.ScriptTags(otshape.LayoutGSUB) {
		if tag == otshape.T("latn") || tag == otshape.T("DFLT") {
			return true
		}
	}
	return false
}
