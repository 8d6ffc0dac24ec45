package otcore

import (
	"github.com/go-text/typesetting/language"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

// Shaper is the default OpenType shaping engine.
//
// It provides a conservative baseline for scripts that do not have a
// script-specific shaper in the registry.
type Shaper struct{}

var (
	_ otshape.ShapingEngine       = Shaper{}
	_ otshape.ShapingEnginePolicy = Shaper{}
)

// New returns a new core shaping engine instance.
func New() otshape.ShapingEngine {
	return Shaper{}
}

// Register adds the core engine to reg.
func Register(reg *otshape.Registry) error {
	return reg.Register(New())
}

// Name returns the stable engine name used for tie-breaking.
func (Shaper) Name() string {
	return "core"
}

// Match returns how suitable the core engine is for ctx.
//
// It prefers Latin segments, rejects directions other than left-to-right,
// and otherwise returns a low confidence so script-specific engines can
// outvote it.
func (Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	if ctx.Props.Script == language.Latin {
		return otshape.ShaperConfidenceHigh
	}
	if ctx.Props.Direction != otbuffer.LeftToRight {
		return otshape.ShaperConfidenceNone
	}
	return otshape.ShaperConfidenceLow
}

// New returns a new independent core engine instance.
func (Shaper) New() otshape.ShapingEngine {
	return Shaper{}
}

// NormalizationPreference reports the engine's preferred normalization policy.
func (Shaper) NormalizationPreference() otshape.NormalizationMode {
	return otshape.NormalizationAuto
}

// ApplyGPOS reports whether the engine wants GPOS applied.
func (Shaper) ApplyGPOS() bool {
	return true
}

// ZeroWidthMarks zeroes mark advances after GPOS.
func (Shaper) ZeroWidthMarks() otshape.ZeroWidthMarks {
	return otshape.ZeroWidthMarksByGDEFLate
}

// FallbackPosition enables fallback mark positioning for fonts without GPOS.
func (Shaper) FallbackPosition() bool {
	return true
}
