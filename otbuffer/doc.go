/*
Package otbuffer implements the glyph buffer used for text shaping.

A Buffer holds a run of text as a sequence of GlyphInfo records. Before shaping,
records carry Unicode code-points; shaping rewrites them into font glyphs. The
buffer supports many-to-many glyph rewriting through a two-array protocol:
stages read from the input array at a cursor and write into an output array,
then swap the arrays when a pass completes ([Buffer.ClearOutput],
[Buffer.NextGlyph], [Buffer.ReplaceGlyphs], [Buffer.SwapBuffers]).

Every record keeps a cluster value mapping it back to the source text.
Clusters are merged according to the buffer's [ClusterLevel], and glyphs whose
shaping depends on context across cluster boundaries are flagged as unsafe to
break ([Buffer.UnsafeToBreak]).

Memory growth is geometric. If the buffer cannot grow, it enters a sticky
failure state, reported by [Buffer.AllocationSuccessful]; all further mutating
calls are no-ops until [Buffer.Reset].

Buffers are not safe for concurrent use.
*/
package otbuffer

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer returns a trace sink for the otbuffer package namespace.
func tracer() tracing.Trace {
	return tracing.Select("otshaping.buffer")
}

// assert panics when condition is false. Used for caller errors which would
// otherwise corrupt buffer state.
func assert(condition bool, msg string) {
	if !condition {
		panic("otbuffer: " + msg)
	}
}
