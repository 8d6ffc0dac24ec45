package otfont_test

import (
	"errors"
	"testing"

	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	td "github.com/go-text/typesetting-utils/opentype"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otfont"
	"github.com/npillmayer/otshaping/otshape"
)

// candidate system fonts, tried in order
var systemFonts = []string{"DejaVuSans.ttf", "LiberationSans-Regular.ttf", "Arial.ttf", "Helvetica.ttc"}

func loadTestFont(t testing.TB, path string) *otfont.Font {
	t.Helper()
	data, err := td.Files.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read test font %s: %v", path, err)
	}
	f, err := otfont.Parse(data)
	if err != nil {
		t.Fatalf("cannot parse test font %s: %v", path, err)
	}
	f.Path = path
	return f
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := otfont.Parse([]byte("certainly not a font")); err == nil {
		t.Fatalf("expected error parsing garbage")
	}
	if _, err := otfont.Load("testdata/does-not-exist.ttf"); err == nil {
		t.Fatalf("expected error loading a missing file")
	}
}

func TestFindUnknownFont(t *testing.T) {
	_, err := otfont.Find("no-such-font-9f8e7d.ttf")
	if !errors.Is(err, otfont.ErrFontNotFound) {
		t.Fatalf("error = %v, want ErrFontNotFound", err)
	}
}

func TestFindSystemFont(t *testing.T) {
	for _, name := range systemFonts {
		f, err := otfont.Find(name)
		if err != nil {
			continue
		}
		if f.Path == "" || f.Fontname == "" {
			t.Fatalf("system font %s loaded without path or name", name)
		}
		return
	}
	t.Skip("no system font available")
}

// --- Test Suite Preparation ------------------------------------------------

type FontTestEnviron struct {
	suite.Suite
	font   *otfont.Font // DejaVu Sans
	arabic *otfont.Font // Noto Sans Arabic
}

// listen for 'go test' command --> run test methods
func TestFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otshaping.fonts")
	defer teardown()
	suite.Run(t, new(FontTestEnviron))
}

// run once, before test suite methods
func (env *FontTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("otshaping.fonts").SetTraceLevel(tracing.LevelInfo)
	env.font = loadTestFont(env.T(), "common/DejaVuSans.ttf")
	env.arabic = loadTestFont(env.T(), "common/NotoSansArabic.ttf")
}

// --- Tests -----------------------------------------------------------------

func (env *FontTestEnviron) TestMetrics() {
	f := env.font
	env.NotEmpty(f.Fontname)
	env.NotEmpty(f.Path)
	gid, ok := f.NominalGlyph('A')
	env.True(ok, "font has no glyph for 'A'")
	env.NotEqual(otshape.NOTDEF, gid)
	env.Greater(f.HorizontalAdvance(gid), int32(0))
	env.Greater(f.UnitsPerEm(), uint16(0))
	_, ok = f.NominalGlyph(0x10FFFD)
	env.False(ok, "private use plane codepoint mapped")
}

func (env *FontTestEnviron) TestGlyphClassesMatchCapabilities() {
	f := env.font
	gid, _ := f.NominalGlyph('A')
	class := f.GlyphClass(gid)
	if f.Capabilities()&otshape.HasGlyphClasses == 0 {
		env.Equal(otshape.ClassUnclassified, class)
		return
	}
	env.Contains([]otshape.GlyphClass{otshape.ClassUnclassified, otshape.ClassBase}, class)
}

func (env *FontTestEnviron) TestPlanAndShape() {
	f := env.font
	shaper := otshape.NewShaper()
	props := otbuffer.SegmentProperties{Direction: otbuffer.LeftToRight, Script: language.Latin}
	plan, err := shaper.Plan(f, props, nil)
	env.Require().NoError(err)
	env.Equal(f.Capabilities()&otshape.HasGPOS != 0, plan.ApplyGPOS)

	buf := otbuffer.New()
	buf.AddString("Hello")
	buf.SetProps(props)
	env.Require().NoError(shaper.Shape(f, buf, nil))
	env.Equal(otbuffer.ContentGlyphs, buf.ContentType())
	env.Equal(5, buf.Len())
	for i, info := range buf.GlyphInfos() {
		env.NotEqual(otshape.NOTDEF, info.Glyph(), "glyph %d is .notdef", i)
		env.Greater(buf.GlyphPositions()[i].XAdvance, int32(0))
	}
}

func (env *FontTestEnviron) TestSharedBetweenGoroutines() {
	f := env.font
	done := make(chan otbuffer.GlyphIndex, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			gid, _ := f.NominalGlyph('x')
			_ = f.HorizontalAdvance(gid)
			done <- gid
		}()
	}
	first := <-done
	for i := 1; i < cap(done); i++ {
		env.Equal(first, <-done)
	}
}

func (env *FontTestEnviron) TestLayoutScriptsAndFeatures() {
	f := env.arabic
	env.NotZero(f.Capabilities() & otshape.HasGSUB)
	env.Contains(f.ScriptTags(otshape.LayoutGSUB), otshape.T("arab"))
	features := f.FeatureTags(otshape.LayoutGSUB)
	for _, tag := range []string{"init", "medi", "fina"} {
		env.Contains(features, otshape.T(tag))
		lookups, ok := f.FeatureLookups(otshape.LayoutGSUB, []ot.Tag{otshape.T("arab")}, nil, otshape.T(tag), -1)
		env.True(ok, "feature %s not found for script arab", tag)
		env.NotEmpty(lookups, "feature %s has no lookups", tag)
	}
}

func (env *FontTestEnviron) TestArabicPlanResolvesLookups() {
	f := env.arabic
	props := otbuffer.SegmentProperties{Direction: otbuffer.RightToLeft, Script: language.Arabic}
	plan, err := otshape.NewShaper().Plan(f, props, nil)
	env.Require().NoError(err)
	env.True(plan.ApplyGPOS)
	env.Greater(plan.Map.LookupCount(otshape.LayoutGSUB), 0)
	env.Greater(plan.Map.LookupCount(otshape.LayoutGPOS), 0)

	buf := otbuffer.New()
	buf.AddString("\u0628\u062a\u062b")
	buf.SetProps(props)
	env.Require().NoError(otshape.NewShaper().Shape(f, buf, nil))
	env.Equal(3, buf.Len())
	clusters := make([]uint32, buf.Len())
	for i, info := range buf.GlyphInfos() {
		env.NotEqual(otshape.NOTDEF, info.Glyph(), "glyph %d is .notdef", i)
		clusters[i] = info.Cluster
	}
	env.Equal([]uint32{4, 2, 0}, clusters, "visual order")
}

func (env *FontTestEnviron) TestVariableFont() {
	f := loadTestFont(env.T(), "common/Commissioner-VF.ttf")
	env.Empty(f.Coords())
	f.SetVariations(font.Variation{Tag: otshape.T("wght"), Value: 700})
	env.NotEmpty(f.Coords())
	f.SetVariations()
	for _, c := range f.Coords() {
		env.Zero(c)
	}
}
