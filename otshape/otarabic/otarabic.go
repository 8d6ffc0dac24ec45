package otarabic

import (
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

// tracer writes to trace with key 'otshaping.shaper'
func tracer() tracing.Trace {
	return tracing.Select("otshaping.shaper")
}

var (
	tagStch = otshape.T("stch")
	tagCCMP = otshape.T("ccmp")
	tagLocl = otshape.T("locl")
	tagRlig = otshape.T("rlig")
	tagCalt = otshape.T("calt")
	tagRclt = otshape.T("rclt")
	tagMset = otshape.T("mset")
)

// formFeatures are ordered like the joining actions which select them.
var formFeatures = [...]ot.Tag{
	otshape.T("isol"),
	otshape.T("fina"),
	otshape.T("fin2"),
	otshape.T("fin3"),
	otshape.T("medi"),
	otshape.T("med2"),
	otshape.T("init"),
}

func featureIsSyriac(tag ot.Tag) bool {
	c := byte(tag)
	return c == '2' || c == '3'
}

// scratchHasStch marks buffers with glyphs recorded for stretching.
const scratchHasStch = otbuffer.ScratchComplex0

// Shaper is the Arabic shaping engine. It covers Arabic, Syriac and
// Mongolian, all of which use cursive joining.
type Shaper struct {
	script  language.Script
	maskOf  [actionNone + 1]uint32 // mask per joining action
	hasStch bool

	fallback *fallbackTables // nil unless the font lacks form features
}

var (
	_ otshape.ShapingEngine                = (*Shaper)(nil)
	_ otshape.ShapingEnginePolicy          = (*Shaper)(nil)
	_ otshape.ShapingEnginePlanHooks       = (*Shaper)(nil)
	_ otshape.ShapingEngineReorderHook     = (*Shaper)(nil)
	_ otshape.ShapingEngineMaskHook        = (*Shaper)(nil)
	_ otshape.ShapingEnginePostprocessHook = (*Shaper)(nil)
)

// New returns the Arabic shaping engine.
func New() otshape.ShapingEngine {
	return &Shaper{}
}

// Register adds the Arabic engine to reg.
func Register(reg *otshape.Registry) error {
	return reg.Register(New())
}

func (*Shaper) Name() string {
	return "arabic"
}

func (*Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	if !ctx.Props.Direction.IsHorizontal() {
		return otshape.ShaperConfidenceNone
	}
	switch {
	case ctx.Props.Script == language.Arabic || ctx.ScriptTag == otshape.T("arab"):
		return otshape.ShaperConfidenceCertain
	case ctx.Props.Script == language.Syriac || ctx.ScriptTag == otshape.T("syrc"):
		return otshape.ShaperConfidenceHigh
	case ctx.Props.Script == language.Mongolian || ctx.ScriptTag == otshape.T("mong"):
		return otshape.ShaperConfidenceMedium
	}
	return otshape.ShaperConfidenceNone
}

func (*Shaper) New() otshape.ShapingEngine {
	return &Shaper{}
}

func (*Shaper) NormalizationPreference() otshape.NormalizationMode {
	return otshape.NormalizationAuto
}

func (*Shaper) ApplyGPOS() bool {
	return true
}

func (*Shaper) ZeroWidthMarks() otshape.ZeroWidthMarks {
	return otshape.ZeroWidthMarksByGDEFLate
}

func (*Shaper) FallbackPosition() bool {
	return true
}

// CollectFeatures stages the Arabic features with pauses between most of
// them. The pause between the form features and rlig is required. Only
// Arabic pauses between rlig and calt.
func (s *Shaper) CollectFeatures(plan otshape.FeaturePlanner, ctx otshape.SelectionContext) {
	s.script = ctx.Props.Script
	plan.AddFeature(tagStch, otshape.FeatureGlobal, 1)
	plan.AddGSUBPause(s.recordStch)

	plan.AddFeature(tagCCMP, otshape.FeatureGlobal, 1)
	plan.AddFeature(tagLocl, otshape.FeatureGlobal, 1)
	plan.AddGSUBPause(nil)

	for _, tag := range formFeatures {
		flags := otshape.FeatureNone
		if s.script == language.Arabic && !featureIsSyriac(tag) {
			flags = otshape.FeatureHasFallback
		}
		plan.AddFeature(tag, flags, 1)
		plan.AddGSUBPause(nil)
	}

	// ZWJ means "don't ligate" in Arabic as well
	plan.AddFeature(tagRlig, otshape.FeatureGlobal|otshape.FeatureManualZWJ|otshape.FeatureHasFallback, 1)
	if s.script == language.Arabic {
		plan.AddGSUBPause(s.fallbackShape)
	}
	plan.AddFeature(tagRclt, otshape.FeatureGlobal|otshape.FeatureManualZWJ, 1)
	plan.AddFeature(tagCalt, otshape.FeatureGlobal|otshape.FeatureManualZWJ, 1)
	plan.AddGSUBPause(nil)

	plan.AddFeature(tagMset, otshape.FeatureGlobal, 1)
}

func (*Shaper) OverrideFeatures(otshape.FeaturePlanner) {}

// InitPlan records the form masks and, for Arabic fonts lacking form
// features, prepares fallback substitutions from presentation forms.
func (s *Shaper) InitPlan(plan otshape.PlanContext) {
	s.hasStch = plan.FeatureMask1(tagStch) != 0
	needsFallback := false
	for i, tag := range formFeatures {
		s.maskOf[i] = plan.FeatureMask1(tag)
		needsFallback = needsFallback || plan.FeatureNeedsFallback(tag)
	}
	needsFallback = needsFallback || plan.FeatureNeedsFallback(tagRlig)
	if needsFallback && s.script == language.Arabic {
		s.fallback = newFallbackTables(plan, s.maskOf)
		tracer().Debugf("arabic fallback shaping with %d single and %d ligature substitutions",
			s.fallback.singleCount(), len(s.fallback.ligatures))
	}
}

// SetupMasks runs the joining state machine over the characters and sets
// the mask of the form feature each character takes.
func (s *Shaper) SetupMasks(run otshape.RunContext) {
	buf := run.Buffer()
	joinArabic(buf)
	if s.script == language.Mongolian {
		copyMongolianVariationActions(buf)
	}
	infos := buf.GlyphInfos()
	for i := range infos {
		a := action(infos[i].ComplexAux())
		if a <= actionNone {
			infos[i].Mask |= s.maskOf[a]
		}
	}
}

func (*Shaper) ReorderMarks(run otshape.RunContext, start, end int) {
	reorderModifierMarks(run.Buffer(), start, end)
}

// PostprocessRun stretches glyphs recorded by stch over their word.
func (s *Shaper) PostprocessRun(run otshape.RunContext) {
	applyStch(run)
}

// recordStch marks the glyphs stch just multiplied. Odd components repeat,
// even components stay fixed.
func (s *Shaper) recordStch(ctx otshape.PauseContext) error {
	if !s.hasStch {
		return nil
	}
	buf := ctx.Run().Buffer()
	infos := buf.GlyphInfos()
	found := false
	for i := 0; i < len(infos); {
		if infos[i].GlyphProps()&otbuffer.GlyphPropsMultiplied == 0 {
			i++
			continue
		}
		comp := 0
		for i < len(infos) && infos[i].GlyphProps()&otbuffer.GlyphPropsMultiplied != 0 &&
			(comp == 0 || infos[i].Cluster == infos[i-1].Cluster) {
			a := actionStretchFixed
			if comp%2 != 0 {
				a = actionStretchRepeating
			}
			infos[i].SetComplexAux(uint8(a))
			comp++
			i++
		}
		found = true
	}
	if found {
		buf.AddScratchFlags(scratchHasStch)
	}
	return nil
}
