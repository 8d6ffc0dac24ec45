package otbuffer

import (
	"strings"

	"github.com/go-text/typesetting/di"
	"golang.org/x/text/unicode/bidi"
)

// Direction is the text flow direction of a segment.
type Direction uint8

// The zero value is DirectionInvalid, meaning "unset".
const (
	DirectionInvalid Direction = iota
	LeftToRight
	RightToLeft
	TopToBottom
	BottomToTop
)

var directionStrings = [...]string{"ltr", "rtl", "ttb", "btt"}

// DirectionFromString parses a direction. Only the first letter is
// significant and case is ignored, so "RTL", "right-to-left" and "r" all
// map to RightToLeft. Unknown strings yield DirectionInvalid.
func DirectionFromString(s string) Direction {
	if s == "" {
		return DirectionInvalid
	}
	c := strings.ToLower(s[:1])
	for i, ds := range directionStrings {
		if ds[:1] == c {
			return Direction(i + 1)
		}
	}
	return DirectionInvalid
}

func (d Direction) String() string {
	if d.IsValid() {
		return directionStrings[d-1]
	}
	return "invalid"
}

// IsValid is true for one of the four concrete directions.
func (d Direction) IsValid() bool {
	return d >= LeftToRight && d <= BottomToTop
}

// IsHorizontal is true for LeftToRight and RightToLeft.
func (d Direction) IsHorizontal() bool {
	return d == LeftToRight || d == RightToLeft
}

// IsVertical is true for TopToBottom and BottomToTop.
func (d Direction) IsVertical() bool {
	return d == TopToBottom || d == BottomToTop
}

// IsForward is true for LeftToRight and TopToBottom.
func (d Direction) IsForward() bool {
	return d == LeftToRight || d == TopToBottom
}

// IsBackward is true for RightToLeft and BottomToTop.
func (d Direction) IsBackward() bool {
	return d == RightToLeft || d == BottomToTop
}

// Reverse returns the opposite direction on the same axis.
// DirectionInvalid stays invalid.
func (d Direction) Reverse() Direction {
	switch d {
	case LeftToRight:
		return RightToLeft
	case RightToLeft:
		return LeftToRight
	case TopToBottom:
		return BottomToTop
	case BottomToTop:
		return TopToBottom
	}
	return DirectionInvalid
}

// DirectionFromBidi converts a bidi paragraph direction (x/text) to a
// horizontal direction. Mixed and neutral directions yield DirectionInvalid.
func DirectionFromBidi(d bidi.Direction) Direction {
	switch d {
	case bidi.LeftToRight:
		return LeftToRight
	case bidi.RightToLeft:
		return RightToLeft
	}
	return DirectionInvalid
}

// Bidi converts d to an x/text bidi direction. Vertical directions map to
// bidi.Neutral.
func (d Direction) Bidi() bidi.Direction {
	switch d {
	case LeftToRight:
		return bidi.LeftToRight
	case RightToLeft:
		return bidi.RightToLeft
	}
	return bidi.Neutral
}

// Typesetting converts d to a go-text/typesetting direction. Invalid
// directions are reported as left-to-right.
func (d Direction) Typesetting() di.Direction {
	switch d {
	case RightToLeft:
		return di.DirectionRTL
	case TopToBottom:
		return di.DirectionTTB
	case BottomToTop:
		return di.DirectionBTT
	}
	return di.DirectionLTR
}

// ContentType is the state of a buffer's content.
//
//	ContentInvalid --add--> ContentUnicode --shape--> ContentGlyphs
//
// ContentGlyphs is terminal until Reset or ClearContents.
type ContentType uint8

const (
	ContentInvalid ContentType = iota
	ContentUnicode
	ContentGlyphs
)

func (ct ContentType) String() string {
	switch ct {
	case ContentUnicode:
		return "unicode"
	case ContentGlyphs:
		return "glyphs"
	}
	return "invalid"
}

// ClusterLevel selects how clusters are grouped when glyphs are rewritten.
type ClusterLevel uint8

const (
	// MonotoneGraphemes keeps cluster values monotone and grapheme aligned:
	// marks share the cluster of their base. This is the default.
	MonotoneGraphemes ClusterLevel = iota
	// MonotoneCharacters keeps cluster values monotone, at character level.
	MonotoneCharacters
	// Characters does not group at all; clusters pass through untouched.
	Characters
)

// Flags are independent buffer options.
type Flags uint16

const (
	// FlagBOT marks the buffer as holding the beginning of the text.
	FlagBOT Flags = 1 << iota
	// FlagEOT marks the buffer as holding the end of the text.
	FlagEOT
	// FlagPreserveDefaultIgnorables keeps default-ignorable characters visible.
	FlagPreserveDefaultIgnorables
	// FlagRemoveDefaultIgnorables drops default-ignorable characters from
	// the output instead of replacing them with the invisible glyph.
	// If combined with FlagPreserveDefaultIgnorables, preserving wins.
	FlagRemoveDefaultIgnorables
	// FlagDoNotInsertDottedCircle suppresses dotted circles for broken clusters.
	FlagDoNotInsertDottedCircle
	// FlagProduceUnsafeToConcat enables computation of GlyphUnsafeToConcat.
	FlagProduceUnsafeToConcat
	// FlagProduceSafeToInsertTatweel enables computation of GlyphSafeToInsertTatweel.
	FlagProduceSafeToInsertTatweel

	FlagsDefault Flags = 0
)

// ScratchFlags are internal diagnostic bits set during shaping.
type ScratchFlags uint32

const (
	ScratchHasNonASCII ScratchFlags = 1 << iota
	ScratchHasDefaultIgnorables
	ScratchHasSpaceFallback
	ScratchHasGPOSAttachment
	ScratchHasCGJ
	ScratchHasGlyphFlags
	ScratchHasBrokenSyllable
	// ScratchHasMultipleSubstitution is set when a substitution produced more
	// glyphs than it consumed.
	ScratchHasMultipleSubstitution

	// The upper bits are reserved for complex shapers.
	ScratchComplex0 ScratchFlags = 0x01000000
	ScratchComplex1 ScratchFlags = 0x02000000
	ScratchComplex2 ScratchFlags = 0x04000000
	ScratchComplex3 ScratchFlags = 0x08000000

	ScratchDefault ScratchFlags = 0
)
