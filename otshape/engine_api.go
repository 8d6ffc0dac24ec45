package otshape

import (
	ot "github.com/go-text/typesetting/font/opentype"

	"github.com/npillmayer/otshaping/otbuffer"
)

// SelectionContext carries the segment metadata for engine selection and
// feature collection.
type SelectionContext struct {
	Props     otbuffer.SegmentProperties
	ScriptTag ot.Tag // chosen OpenType script tag, TagDefaultScript if none
	LangTag   ot.Tag // chosen OpenType language tag, TagDefaultLanguage if none
}

// NormalizationMode controls Unicode normalization before GSUB.
type NormalizationMode uint8

const (
	NormalizationAuto NormalizationMode = iota
	NormalizationNone
	NormalizationComposed
	NormalizationDecomposed
)

// ZeroWidthMarks tells when mark advances are zeroed.
type ZeroWidthMarks uint8

const (
	ZeroWidthMarksNone ZeroWidthMarks = iota
	ZeroWidthMarksByGDEFEarly
	ZeroWidthMarksByGDEFLate
)

// FeatureFlags guide feature resolution and lookup behavior in plan compilation.
type FeatureFlags uint16

const FeatureNone FeatureFlags = 0

const (
	FeatureGlobal FeatureFlags = 1 << iota
	FeatureHasFallback
	FeatureManualZWNJ
	FeatureManualZWJ
	FeatureGlobalSearch
	FeatureRandom
	FeaturePerSyllable
)

// FeatureManualJoiners disables automatic skipping for both ZWJ and ZWNJ.
const FeatureManualJoiners = FeatureManualZWNJ | FeatureManualZWJ

// FeatureGlobalManualJoiners is the usual flag set of joiner sensitive
// global features.
const FeatureGlobalManualJoiners = FeatureGlobal | FeatureManualJoiners

// FeaturePlanner is the plan-time interface for collecting features into a
// map. Features added before a pause go into an earlier stage than features
// added after it.
type FeaturePlanner interface {
	// EnableFeature adds a global feature with value 1.
	EnableFeature(tag ot.Tag)
	// AddFeature adds a feature. Without FeatureGlobal the feature gets mask
	// bits but is off until an engine sets them per glyph.
	AddFeature(tag ot.Tag, flags FeatureFlags, value uint32)
	// DisableFeature turns a feature off globally.
	DisableFeature(tag ot.Tag)
	AddGSUBPause(fn PauseHook)
	AddGPOSPause(fn PauseHook)
	HasFeature(tag ot.Tag) bool
}

// PlanContext is the plan view available to engines once the map is
// compiled.
type PlanContext interface {
	Face() Face
	Selection() SelectionContext
	FeatureMask1(tag ot.Tag) uint32
	FeatureMask(tag ot.Tag) (mask uint32, shift uint)
	FeatureNeedsFallback(tag ot.Tag) bool
}

// RunContext is the runtime view of a buffer available to engine hooks.
type RunContext interface {
	Buffer() *otbuffer.Buffer
	Face() Face
	Len() int
	Codepoint(i int) rune
	SetCodepoint(i int, cp rune)
	Glyph(i int) otbuffer.GlyphIndex
	Cluster(i int) uint32
	MergeClusters(start, end int)
	Mask(i int) uint32
	SetMask(i int, mask uint32)
	Pos(i int) *otbuffer.GlyphPosition
	DuplicateGlyph(i, count int)
	Swap(i, j int)
}

// NormalizeContext is the callback context for custom composition.
type NormalizeContext interface {
	Face() Face
	Selection() SelectionContext
	ComposeUnicode(a, b rune) (rune, bool)
	HasGposMark() bool
}

// PauseContext is the callback context for stage pauses.
type PauseContext interface {
	Face() Face
	Run() RunContext
}

// PauseHook may mutate run data between stages.
type PauseHook func(ctx PauseContext) error

// ShaperConfidence is an engine's vote for a segment.
type ShaperConfidence int

const (
	ShaperConfidenceNone ShaperConfidence = iota
	ShaperConfidenceLow
	ShaperConfidenceMedium
	ShaperConfidenceHigh
	ShaperConfidenceCertain
)

// ShapingEngine is the mandatory minimal interface for engine selection.
// New returns a fresh instance; engines may keep per-plan state in their
// instances.
type ShapingEngine interface {
	Name() string
	Match(ctx SelectionContext) ShaperConfidence
	New() ShapingEngine
}

// ShapingEnginePolicy exposes policy decisions used by the base pipeline.
// Engines without it get NormalizationAuto, GPOS, late mark zeroing and
// fallback positioning.
type ShapingEnginePolicy interface {
	NormalizationPreference() NormalizationMode
	ApplyGPOS() bool
	ZeroWidthMarks() ZeroWidthMarks
	FallbackPosition() bool
}

// ShapingEnginePlanHooks exposes plan-time hooks.
type ShapingEnginePlanHooks interface {
	CollectFeatures(plan FeaturePlanner, ctx SelectionContext)
	OverrideFeatures(plan FeaturePlanner)
	InitPlan(plan PlanContext)
}

// ShapingEnginePreprocessHook exposes a pre-normalization run hook.
type ShapingEnginePreprocessHook interface {
	PreprocessRun(run RunContext)
}

// ShapingEnginePreGSUBHook exposes a hook after glyph mapping and before GSUB.
type ShapingEnginePreGSUBHook interface {
	PrepareGSUB(run RunContext)
}

// ShapingEngineComposeHook exposes custom pair-composition during normalization.
type ShapingEngineComposeHook interface {
	Compose(ctx NormalizeContext, a, b rune) (rune, bool)
}

// ShapingEngineReorderHook exposes mark-reordering after normalization.
// It is called for each run of marks [start, end) with combining classes
// already sorted.
type ShapingEngineReorderHook interface {
	ReorderMarks(run RunContext, start, end int)
}

// ShapingEngineMaskHook exposes a hook to set per-glyph mask values. It runs
// on characters, before glyph mapping.
type ShapingEngineMaskHook interface {
	SetupMasks(run RunContext)
}

// ShapingEnginePostprocessHook exposes a hook after positioning.
type ShapingEnginePostprocessHook interface {
	PostprocessRun(run RunContext)
}

// --- Run context -----------------------------------------------------------

type runContext struct {
	buf  *otbuffer.Buffer
	face Face
}

var _ RunContext = runContext{}

func (r runContext) Buffer() *otbuffer.Buffer { return r.buf }
func (r runContext) Face() Face               { return r.face }
func (r runContext) Len() int                 { return r.buf.Len() }

func (r runContext) Codepoint(i int) rune {
	return r.buf.GlyphInfos()[i].Codepoint
}

func (r runContext) SetCodepoint(i int, cp rune) {
	r.buf.GlyphInfos()[i].Codepoint = cp
}

func (r runContext) Glyph(i int) otbuffer.GlyphIndex {
	return r.buf.GlyphInfos()[i].Glyph()
}

func (r runContext) Cluster(i int) uint32 {
	return r.buf.GlyphInfos()[i].Cluster
}

func (r runContext) MergeClusters(start, end int) {
	r.buf.MergeClusters(start, end)
}

func (r runContext) Mask(i int) uint32 {
	return r.buf.GlyphInfos()[i].Mask
}

func (r runContext) SetMask(i int, mask uint32) {
	r.buf.GlyphInfos()[i].Mask = mask
}

func (r runContext) Pos(i int) *otbuffer.GlyphPosition {
	pos := r.buf.GlyphPositions()
	if pos == nil {
		return nil
	}
	return &pos[i]
}

func (r runContext) DuplicateGlyph(i, count int) {
	r.buf.DuplicateGlyph(i, count)
}

func (r runContext) Swap(i, j int) {
	infos := r.buf.GlyphInfos()
	infos[i], infos[j] = infos[j], infos[i]
	if pos := r.buf.GlyphPositions(); pos != nil {
		pos[i], pos[j] = pos[j], pos[i]
	}
}

type pauseContext struct {
	run runContext
}

func (c pauseContext) Face() Face      { return c.run.face }
func (c pauseContext) Run() RunContext { return c.run }
