package otshape

import (
	"fmt"
	"strings"

	ot "github.com/go-text/typesetting/font/opentype"

	"github.com/npillmayer/otshaping/otbuffer"
)

// Options configure plan compilation. The zero value is the default.
type Options struct {
	// PreferMorx selects AAT morx over GSUB if a face has both.
	PreferMorx bool
	// Normalization overrides the engine's normalization preference unless
	// it is NormalizationAuto.
	Normalization NormalizationMode
	// ZeroWidthInvisibles zeroes the advances of default ignorables even if
	// the buffer preserves them.
	ZeroWidthInvisibles bool
}

// PlanRequest holds the inputs of plan compilation.
type PlanRequest struct {
	Face     Face
	Props    otbuffer.SegmentProperties
	Features []Feature
	Options  Options
	// Registry selects the shaping engine. If nil, DefaultRegistry is used.
	Registry *Registry
}

// Plan is a compiled shaping plan. It is immutable and safe for concurrent
// use by any number of shaping runs.
type Plan struct {
	Props   otbuffer.SegmentProperties
	Map     *Map
	Engine  ShapingEngine
	Options Options

	FracMask uint32
	NumrMask uint32
	DnomMask uint32
	RtlmMask uint32
	KernMask uint32
	TrakMask uint32

	HasFrac           bool
	HasVert           bool
	HasGPOSMark       bool
	RequestedKerning  bool
	RequestedTracking bool

	ApplyGPOS bool
	ApplyKern bool
	ApplyKerx bool
	ApplyMorx bool
	ApplyTrak bool

	ZeroMarks                        bool
	ZeroMarksMode                    ZeroWidthMarks
	FallbackGlyphClasses             bool
	FallbackMarkPositioning          bool
	AdjustMarkPositioningWhenZeroing bool
	Normalization                    NormalizationMode

	// VariationIndex selects GSUB and GPOS feature variations, -1 for none.
	VariationIndex [2]int

	face         Face
	selection    SelectionContext
	userFeatures []Feature
}

var _ PlanContext = (*Plan)(nil)

// Face returns the face the plan was compiled for.
func (p *Plan) Face() Face { return p.face }

// Selection returns the segment metadata used for engine selection.
func (p *Plan) Selection() SelectionContext { return p.selection }

// FeatureMask1 returns the mask for value 1 of a feature.
func (p *Plan) FeatureMask1(tag ot.Tag) uint32 { return p.Map.Mask1(tag) }

// FeatureMask returns mask and shift of a feature.
func (p *Plan) FeatureMask(tag ot.Tag) (uint32, uint) { return p.Map.Mask(tag) }

// FeatureNeedsFallback reports whether an engine has to emulate a feature.
func (p *Plan) FeatureNeedsFallback(tag ot.Tag) bool { return p.Map.NeedsFallback(tag) }

// UserFeatures returns a copy of the features the plan was compiled with.
func (p *Plan) UserFeatures() []Feature {
	return append([]Feature(nil), p.userFeatures...)
}

// --- Compiling plans -------------------------------------------------------

var (
	commonFeatures = [...]struct {
		tag   ot.Tag
		flags FeatureFlags
	}{
		{T("abvm"), FeatureGlobal},
		{T("blwm"), FeatureGlobal},
		{T("ccmp"), FeatureGlobal},
		{T("locl"), FeatureGlobal},
		{T("mark"), FeatureGlobalManualJoiners},
		{T("mkmk"), FeatureGlobalManualJoiners},
		{T("rlig"), FeatureGlobal},
	}

	horizontalFeatures = [...]struct {
		tag   ot.Tag
		flags FeatureFlags
	}{
		{T("calt"), FeatureGlobal},
		{T("clig"), FeatureGlobal},
		{T("curs"), FeatureGlobal},
		{T("dist"), FeatureGlobal},
		{T("kern"), FeatureGlobal | FeatureHasFallback},
		{T("liga"), FeatureGlobal},
		{T("rclt"), FeatureGlobal},
	}
)

const maxFeatureValue = 1<<maxFeatureBits - 1

type planner struct {
	face      Face
	props     otbuffer.SegmentProperties
	selection SelectionContext
	engine    ShapingEngine
	builder   *MapBuilder
}

func newPlanner(face Face, props otbuffer.SegmentProperties, reg *Registry) *planner {
	scriptTags, langTags := TagsFromScriptAndLanguage(props.Script, props.Language)
	sel := SelectionContext{Props: props, ScriptTag: TagDefaultScript, LangTag: TagDefaultLanguage}
	if len(scriptTags) > 0 {
		sel.ScriptTag = scriptTags[0]
	}
	if len(langTags) > 0 {
		sel.LangTag = langTags[0]
	}
	return &planner{
		face:      face,
		props:     props,
		selection: sel,
		engine:    reg.Resolve(sel),
		builder:   NewMapBuilder(face, scriptTags, langTags),
	}
}

func (pl *planner) collectFeatures(userFeatures []Feature) {
	b := pl.builder
	b.EnableFeature(T("rvrn"))
	b.AddGSUBPause(nil)

	switch pl.props.Direction {
	case otbuffer.LeftToRight:
		b.EnableFeature(T("ltra"))
		b.EnableFeature(T("ltrm"))
	case otbuffer.RightToLeft:
		b.EnableFeature(T("rtla"))
		b.AddFeature(T("rtlm"), FeatureNone, 1)
	}

	// automatic fractions
	b.AddFeature(T("frac"), FeatureNone, 1)
	b.AddFeature(T("numr"), FeatureNone, 1)
	b.AddFeature(T("dnom"), FeatureNone, 1)

	b.AddFeature(T("rand"), FeatureGlobal|FeatureRandom, maxFeatureValue)
	b.AddFeature(T("trak"), FeatureGlobal|FeatureHasFallback, 1)

	b.EnableFeature(T("Harf")) // considered required
	b.EnableFeature(T("HARF")) // considered discretionary

	if hooks, ok := pl.engine.(ShapingEnginePlanHooks); ok {
		hooks.CollectFeatures(b, pl.selection)
	}

	b.EnableFeature(T("Buzz")) // considered required
	b.EnableFeature(T("BUZZ")) // considered discretionary

	for _, f := range commonFeatures {
		b.AddFeature(f.tag, f.flags, 1)
	}
	if pl.props.Direction.IsHorizontal() {
		for _, f := range horizontalFeatures {
			b.AddFeature(f.tag, f.flags, 1)
		}
	} else {
		// find 'vert' anywhere in the font, not only for the segment's script
		b.AddFeature(T("vert"), FeatureGlobal|FeatureGlobalSearch, 1)
	}

	for _, f := range userFeatures {
		flags := FeatureNone
		if f.IsGlobal() {
			flags = FeatureGlobal
		}
		b.AddFeature(f.Tag, flags, f.Value)
	}

	if hooks, ok := pl.engine.(ShapingEnginePlanHooks); ok {
		hooks.OverrideFeatures(b)
	}
}

type enginePolicy struct {
	normalization NormalizationMode
	applyGPOS     bool
	zeroMarks     ZeroWidthMarks
	fallbackPos   bool
}

func policyOf(engine ShapingEngine) enginePolicy {
	if p, ok := engine.(ShapingEnginePolicy); ok {
		return enginePolicy{
			normalization: p.NormalizationPreference(),
			applyGPOS:     p.ApplyGPOS(),
			zeroMarks:     p.ZeroWidthMarks(),
			fallbackPos:   p.FallbackPosition(),
		}
	}
	return enginePolicy{
		normalization: NormalizationAuto,
		applyGPOS:     true,
		zeroMarks:     ZeroWidthMarksByGDEFLate,
		fallbackPos:   true,
	}
}

// Compile builds a plan. It selects a shaping engine, collects default,
// engine and user features, allocates mask bits and decides which font
// tables do substitution and positioning.
func Compile(req PlanRequest) (*Plan, error) {
	if req.Face == nil {
		return nil, ErrNoFace
	}
	if !req.Props.Direction.IsValid() {
		return nil, errShaper("plan compile needs a valid direction")
	}
	reg := req.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	pl := newPlanner(req.Face, req.Props, reg)
	pl.collectFeatures(req.Features)

	varIndex := [2]int{-1, -1}
	if vi, ok := req.Face.(VariationIndexer); ok {
		varIndex = [2]int{vi.VariationIndex(LayoutGSUB), vi.VariationIndex(LayoutGPOS)}
	}
	p := &Plan{
		Props:          req.Props,
		Map:            pl.builder.Compile(varIndex),
		Engine:         pl.engine,
		Options:        req.Options,
		VariationIndex: varIndex,
		face:           req.Face,
		selection:      pl.selection,
		userFeatures:   append([]Feature(nil), req.Features...),
	}
	p.decideCapabilities(req.Face, policyOf(pl.engine))

	if hooks, ok := pl.engine.(ShapingEnginePlanHooks); ok {
		hooks.InitPlan(p)
	}
	tracer().Debugf("compiled plan %s", p)
	return p, nil
}

func (p *Plan) decideCapabilities(face Face, policy enginePolicy) {
	caps := face.Capabilities()
	m := p.Map

	p.FracMask = m.Mask1(T("frac"))
	p.NumrMask = m.Mask1(T("numr"))
	p.DnomMask = m.Mask1(T("dnom"))
	p.HasFrac = p.FracMask != 0 || (p.NumrMask != 0 && p.DnomMask != 0)
	p.RtlmMask = m.Mask1(T("rtlm"))
	p.HasVert = m.Mask1(T("vert")) != 0

	kernTag := T("kern")
	if !p.Props.Direction.IsHorizontal() {
		kernTag = T("vkrn")
	}
	p.KernMask = m.Mask1(kernTag)
	p.RequestedKerning = p.KernMask != 0
	p.TrakMask = m.Mask1(T("trak"))
	p.RequestedTracking = p.TrakMask != 0

	hasGposKern := false
	if layout, ok := face.(LayoutTables); ok {
		_, hasGposKern = layout.FeatureLookups(LayoutGPOS, nil, nil, kernTag, p.VariationIndex[LayoutGPOS])
	}

	p.ApplyMorx = caps&HasMorx != 0 && (caps&HasGSUB == 0 || p.Options.PreferMorx)
	hasGSUB := caps&HasGSUB != 0 && !p.ApplyMorx
	hasGPOS := caps&HasGPOS != 0 && policy.applyGPOS
	hasKerx := caps&HasKerx != 0
	switch {
	case hasKerx && !(hasGSUB && hasGPOS):
		p.ApplyKerx = true
	case hasGPOS:
		p.ApplyGPOS = true
	}
	// The kern table is chosen even if kerning is switched off; KernMask
	// then keeps the pair kerner from touching any glyph.
	if !p.ApplyKerx && (!hasGposKern || !p.ApplyGPOS) {
		if hasKerx {
			p.ApplyKerx = true
		} else if caps&HasKern != 0 {
			p.ApplyKern = true
		}
	}
	p.ApplyTrak = p.RequestedTracking && caps&HasTrak != 0

	// PairKerner only knows format 0 pairs: there is no state machine
	// kerning and no cross-stream kerning, so a kern table never blocks
	// mark zeroing or the mark offset adjustment.
	p.FallbackGlyphClasses = caps&HasGlyphClasses == 0
	p.ZeroMarksMode = policy.zeroMarks
	p.ZeroMarks = policy.zeroMarks != ZeroWidthMarksNone && !p.ApplyKerx
	p.HasGPOSMark = m.Mask1(T("mark")) != 0 && p.ApplyGPOS
	p.AdjustMarkPositioningWhenZeroing = !p.ApplyGPOS && !p.ApplyKerx
	p.FallbackMarkPositioning = p.AdjustMarkPositioningWhenZeroing && policy.fallbackPos
	// morx fonts (emoji sequences in particular) expect zeroed marks to
	// stay where they are.
	if p.ApplyMorx {
		p.AdjustMarkPositioningWhenZeroing = false
	}

	p.Normalization = p.Options.Normalization
	if p.Normalization == NormalizationAuto {
		p.Normalization = policy.normalization
	}
	if p.Normalization == NormalizationAuto {
		if p.HasGPOSMark {
			p.Normalization = NormalizationDecomposed
		} else {
			p.Normalization = NormalizationComposed
		}
	}
}

// Equivalent reports whether two plans shape identically: same segment,
// engine, capability decisions, mask allocations and lookup stages.
func (p *Plan) Equivalent(other *Plan) bool {
	if p == nil || other == nil {
		return p == other
	}
	if !p.Props.Equal(other.Props) || p.Engine.Name() != other.Engine.Name() ||
		p.selection.ScriptTag != other.selection.ScriptTag ||
		p.selection.LangTag != other.selection.LangTag ||
		p.VariationIndex != other.VariationIndex || p.Options != other.Options {
		return false
	}
	if p.flags() != other.flags() || p.masks() != other.masks() {
		return false
	}
	if p.Map.GlobalMask != other.Map.GlobalMask {
		return false
	}
	a, b := p.Map.features, other.Map.features
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	for t := LayoutGSUB; t <= LayoutGPOS; t++ {
		sa, sb := p.Map.stages[t], other.Map.stages[t]
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if (sa[i].Pause == nil) != (sb[i].Pause == nil) || len(sa[i].Lookups) != len(sb[i].Lookups) {
				return false
			}
			for j := range sa[i].Lookups {
				if sa[i].Lookups[j] != sb[i].Lookups[j] {
					return false
				}
			}
		}
	}
	return true
}

type planFlags struct {
	hasFrac, hasVert, hasGPOSMark, kerning, tracking  bool
	gpos, kern, kerx, morx, trak                      bool
	zeroMarks, fallbackClasses, fallbackMarks, adjust bool
	zeroMarksMode                                     ZeroWidthMarks
	normalization                                     NormalizationMode
}

func (p *Plan) flags() planFlags {
	return planFlags{
		p.HasFrac, p.HasVert, p.HasGPOSMark, p.RequestedKerning, p.RequestedTracking,
		p.ApplyGPOS, p.ApplyKern, p.ApplyKerx, p.ApplyMorx, p.ApplyTrak,
		p.ZeroMarks, p.FallbackGlyphClasses, p.FallbackMarkPositioning, p.AdjustMarkPositioningWhenZeroing,
		p.ZeroMarksMode, p.Normalization,
	}
}

func (p *Plan) masks() [6]uint32 {
	return [6]uint32{p.FracMask, p.NumrMask, p.DnomMask, p.RtlmMask, p.KernMask, p.TrakMask}
}

func (p *Plan) String() string {
	var apply []string
	for _, a := range []struct {
		on   bool
		name string
	}{
		{p.ApplyMorx, "morx"}, {p.ApplyGPOS, "GPOS"}, {p.ApplyKerx, "kerx"},
		{p.ApplyKern, "kern"}, {p.ApplyTrak, "trak"},
	} {
		if a.on {
			apply = append(apply, a.name)
		}
	}
	return fmt.Sprintf("{%s engine=%s script=%s lang=%s apply=[%s] zero-marks=%v fallback-marks=%v var=%v}",
		p.Props, p.Engine.Name(), strings.TrimSpace(tagString(p.selection.ScriptTag)),
		strings.TrimSpace(tagString(p.selection.LangTag)), strings.Join(apply, ","),
		p.ZeroMarks, p.FallbackMarkPositioning, p.VariationIndex)
}
