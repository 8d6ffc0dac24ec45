package otbuffer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/runenames"
)

// SerializeFlags control the text serialization of a buffer.
type SerializeFlags uint8

const (
	SerializeNoClusters SerializeFlags = 1 << iota
	SerializeNoPositions
	SerializeGlyphFlags
	SerializeNoAdvances
)

// Serialize renders the buffer in a compact text form.
//
// Unicode content is written as <U+0041=0|U+0300=1>, glyph content as
// [12=0+600|37=1@-20,310+0]: glyph index, '=' cluster, '@' offsets (only if
// non-zero), '+' advance(s), '#' glyph flags in hex.
func (b *Buffer) Serialize(flags SerializeFlags) string {
	var sb strings.Builder
	if b.contentType != ContentGlyphs {
		sb.WriteByte('<')
		for i := range b.info {
			if i > 0 {
				sb.WriteByte('|')
			}
			fmt.Fprintf(&sb, "U+%04X", b.info[i].Codepoint)
			if flags&SerializeNoClusters == 0 {
				fmt.Fprintf(&sb, "=%d", b.info[i].Cluster)
			}
		}
		sb.WriteByte('>')
		return sb.String()
	}
	sb.WriteByte('[')
	for i := range b.info {
		if i > 0 {
			sb.WriteByte('|')
		}
		info := &b.info[i]
		fmt.Fprintf(&sb, "%d", info.Glyph())
		if flags&SerializeNoClusters == 0 {
			fmt.Fprintf(&sb, "=%d", info.Cluster)
		}
		if flags&SerializeNoPositions == 0 && b.havePositions {
			pos := &b.pos[i]
			if pos.XOffset != 0 || pos.YOffset != 0 {
				fmt.Fprintf(&sb, "@%d,%d", pos.XOffset, pos.YOffset)
			}
			if flags&SerializeNoAdvances == 0 {
				fmt.Fprintf(&sb, "+%d", pos.XAdvance)
				if pos.YAdvance != 0 {
					fmt.Fprintf(&sb, ",%d", pos.YAdvance)
				}
			}
		}
		if flags&SerializeGlyphFlags != 0 && info.Flags() != 0 {
			fmt.Fprintf(&sb, "#%X", info.Flags())
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func (b *Buffer) String() string {
	return b.Serialize(0)
}

// Dump returns a multi-line listing of the buffer for debugging, one record
// per line. Unicode content is listed with character names.
func (b *Buffer) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "buffer %s, %s, %d records, generation %d\n",
		b.props, b.contentType, len(b.info), b.generation)
	for i := range b.info {
		info := &b.info[i]
		if b.contentType == ContentGlyphs {
			fmt.Fprintf(&sb, "%4d  glyph %5d  cl=%-4d mask=%08x", i, info.Glyph(), info.Cluster, info.Mask)
			if b.havePositions {
				p := &b.pos[i]
				fmt.Fprintf(&sb, "  adv=(%d,%d) off=(%d,%d)", p.XAdvance, p.YAdvance, p.XOffset, p.YOffset)
			}
		} else {
			fmt.Fprintf(&sb, "%4d  U+%04X  cl=%-4d %s", i, info.Codepoint, info.Cluster,
				runenames.Name(info.Codepoint))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DiffFlags describe how two buffers differ.
type DiffFlags uint16

const (
	DiffEqual DiffFlags = 0

	// Buffer-wide properties. If any of these is set, records are not compared.
	DiffContentTypeMismatch DiffFlags = 1 << (iota - 1)
	DiffLengthMismatch

	// Reports about the reference buffer.
	DiffNotdefPresent
	DiffDottedCirclePresent

	// Record level differences.
	DiffCodepointMismatch
	DiffClusterMismatch
	DiffGlyphFlagsMismatch
	DiffPositionMismatch
)

// Diff compares b with a reference buffer. dottedCircle is the glyph of the
// dotted circle in the font (or U+25CC for unicode content). Positions are
// compared with a tolerance of positionFuzz units.
func (b *Buffer) Diff(reference *Buffer, dottedCircle GlyphIndex, positionFuzz int32) DiffFlags {
	if b.contentType != reference.contentType && len(b.info) > 0 && len(reference.info) > 0 {
		return DiffContentTypeMismatch
	}
	result := DiffEqual
	if len(b.info) != len(reference.info) {
		result |= DiffLengthMismatch
	}
	for i := range b.info {
		if b.contentType == ContentGlyphs && b.info[i].Codepoint == 0 {
			result |= DiffNotdefPresent
		}
		if dottedCircle != 0 && b.info[i].Glyph() == dottedCircle {
			result |= DiffDottedCirclePresent
		}
	}
	if result&DiffLengthMismatch != 0 {
		return result
	}
	for i := range b.info {
		x, y := &b.info[i], &reference.info[i]
		if x.Codepoint != y.Codepoint {
			result |= DiffCodepointMismatch
		}
		if x.Cluster != y.Cluster {
			result |= DiffClusterMismatch
		}
		if x.Flags() != y.Flags() {
			result |= DiffGlyphFlagsMismatch
		}
	}
	if b.contentType == ContentGlyphs && b.havePositions && reference.havePositions {
		for i := range b.pos {
			p, q := &b.pos[i], &reference.pos[i]
			if absDiff(p.XAdvance, q.XAdvance) > positionFuzz || absDiff(p.YAdvance, q.YAdvance) > positionFuzz ||
				absDiff(p.XOffset, q.XOffset) > positionFuzz || absDiff(p.YOffset, q.YOffset) > positionFuzz {
				result |= DiffPositionMismatch
				break
			}
		}
	}
	return result
}

func absDiff(a, b int32) int32 {
	if a > b {
		return a - b
	}
	return b - a
}
