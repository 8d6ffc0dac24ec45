/*
Package otshape plans and executes OpenType text shaping on glyph buffers.

Shaping happens in two steps. A [Plan] is compiled once per distinct
combination of face, segment properties, user features and variation
coordinates. Compiling selects a shaping engine from a [Registry], collects
features into a [Map] of lookup stages and allocates mask bits for them.
Plans are immutable and may be shared between goroutines; a [PlanCache]
keeps them around for reuse.

The plan is then applied to an [otbuffer.Buffer] holding Unicode text:
[Plan.Substitute] maps characters to glyphs and runs the substitution
stages, [Plan.Position] assigns advances and offsets. [Shaper] bundles
registry, cache and both passes.

Font data is consumed through the narrow [Face] interface and a set of
optional capability interfaces (GDEF classes, layout lookups, legacy
kerning, tracking). Script specific behavior lives in engines implementing
[ShapingEngine] plus any of the hook interfaces defined in engine_api.go.
*/
package otshape

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/otshaping/otbuffer"
)

// NOTDEF is the glyph index for OpenType ".notdef".
const NOTDEF = otbuffer.GlyphIndex(0)

var (
	// ErrNoFace is returned when shaping is requested without a face.
	ErrNoFace = errors.New("otshape: no font face")
	// ErrEngineAlreadyRegistered is returned for duplicate engine names.
	ErrEngineAlreadyRegistered = errors.New("otshape: shaping engine already registered")
	// ErrFeatureSyntax is returned for malformed feature strings.
	ErrFeatureSyntax = errors.New("otshape: invalid feature syntax")
	// ErrAllocationFailed is returned when a buffer ran out of its
	// allocation or operation budget while shaping.
	ErrAllocationFailed = errors.New("otshape: buffer allocation failed")
)

// tracer returns a trace sink for the otshape package namespace.
func tracer() tracing.Trace {
	return tracing.Select("otshaping.shaper")
}

// errShaper wraps a message as a user-facing shaping error.
func errShaper(x string) error {
	return fmt.Errorf("OpenType text shaping: %s", x)
}

// assert panics when condition is false.
func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
