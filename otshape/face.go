package otshape

import (
	ot "github.com/go-text/typesetting/font/opentype"

	"github.com/npillmayer/otshaping/otbuffer"
)

// Capabilities tell which optional tables a face carries.
type Capabilities uint16

const (
	HasGSUB Capabilities = 1 << iota
	HasGPOS
	HasGlyphClasses // GDEF glyph class definitions
	HasMorx
	HasKerx
	HasKern
	HasTrak
)

func (c Capabilities) String() string {
	names := [...]string{"GSUB", "GPOS", "GDEF", "morx", "kerx", "kern", "trak"}
	s := ""
	for i, n := range names {
		if c&(1<<i) != 0 {
			if s != "" {
				s += "|"
			}
			s += n
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// Face is the font collaborator of shaping. Implementations must be safe
// for concurrent use, as plans and shaping runs share faces.
//
// Beyond this interface, a face may implement any of GlyphClasser,
// GlyphExtenter, LayoutTables, LookupApplier, MorxApplier, PairKerner,
// Tracker and VariationIndexer.
type Face interface {
	NominalGlyph(r rune) (otbuffer.GlyphIndex, bool)
	HorizontalAdvance(gid otbuffer.GlyphIndex) int32
	Capabilities() Capabilities
}

// GlyphClass is a GDEF glyph class.
type GlyphClass uint8

const (
	ClassUnclassified GlyphClass = iota
	ClassBase
	ClassLigature
	ClassMark
	ClassComponent
)

// GlyphClasser reports GDEF glyph classes.
type GlyphClasser interface {
	GlyphClass(gid otbuffer.GlyphIndex) GlyphClass
}

// LayoutTable identifies one OpenType layout table.
type LayoutTable uint8

const (
	LayoutGSUB LayoutTable = iota
	LayoutGPOS
)

func (t LayoutTable) String() string {
	if t == LayoutGPOS {
		return "GPOS"
	}
	return "GSUB"
}

// NoFeature is the feature index reported for features not in a table.
const NoFeature = -1

// LayoutTables resolves features to lookups. Script and language are given
// as candidate tags, most preferred first; implementations pick the first
// one present in the table and fall back to DFLT and the default language
// system. A nil scriptTags slice asks for a search across all scripts.
type LayoutTables interface {
	// FeatureLookups returns the lookup indices of feature tag. The
	// variation index selects alternate lookups for variable fonts and is
	// -1 if no variation applies.
	FeatureLookups(table LayoutTable, scriptTags, langTags []ot.Tag, tag ot.Tag,
		variationIndex int) (lookups []uint16, found bool)
	// RequiredFeature returns the required feature of the selected
	// language system, if any.
	RequiredFeature(table LayoutTable, scriptTags, langTags []ot.Tag) (tag ot.Tag, lookups []uint16, ok bool)
}

// LookupApplier applies one lookup at the buffer cursor.
//
// For GSUB, the buffer is in a rewrite pass; an applier which fires must
// consume input through the buffer's output protocol (ReplaceGlyph,
// ReplaceGlyphs, …). For GPOS, the buffer is positioned in place and an
// applier which fires must advance the cursor past the glyphs it handled.
// An applier which does not fire must leave the buffer untouched.
// Errors are treated as "did not fire". Appliers which attach glyphs in
// GPOS record the attachment with GlyphPosition.SetAttachment and set
// otbuffer.ScratchHasGPOSAttachment.
type LookupApplier interface {
	ApplyLookup(c *ApplyContext) (applied bool, err error)
}

// PairKerner provides legacy pair kerning.
type PairKerner interface {
	KernPair(left, right otbuffer.GlyphIndex) int32
}

// Tracker provides the tracking adjustment, in font units, to add to every
// glyph's advance.
type Tracker interface {
	Tracking() int32
}

// VariationIndexer selects feature variations for the face's current
// variation coordinates. The result is -1 if no variation record matches.
type VariationIndexer interface {
	VariationIndex(table LayoutTable) int
	Coords() []float32
}

// ApplyContext describes the lookup to apply and the buffer to apply it to.
type ApplyContext struct {
	Table  LayoutTable
	Lookup LookupOp
	Buffer *otbuffer.Buffer
	Face   Face
}

// MaySkip reports whether info is to be skipped over when matching
// sequences: default ignorables are transparent, except joiners which the
// lookup handles manually.
func (c *ApplyContext) MaySkip(info *otbuffer.GlyphInfo) bool {
	if !info.IsDefaultIgnorable() || info.IsHidden() {
		return false
	}
	if info.IsZWNJ() && !c.Lookup.AutoZWNJ {
		return false
	}
	if info.IsZWJ() && !c.Lookup.AutoZWJ {
		return false
	}
	return true
}

// MayMatch reports whether the lookup is active for info.
func (c *ApplyContext) MayMatch(info *otbuffer.GlyphInfo) bool {
	return info.Mask&c.Lookup.Mask != 0
}

// MorxApplier applies AAT extended glyph metamorphosis to a glyph buffer.
// Faces carrying a morx table may implement it; plans which prefer morx
// over GSUB call it in place of the GSUB stages.
type MorxApplier interface {
	ApplyMorx(buf *otbuffer.Buffer) error
}

// GlyphExtents is the ink box of a glyph in font units, y growing upwards.
type GlyphExtents struct {
	XBearing int32
	YBearing int32
	Width    int32
	Height   int32 // negative for glyphs extending below the bearing
}

// GlyphExtenter reports glyph extents. Fallback mark positioning needs it
// to stack marks; without it marks are only zero-advanced.
type GlyphExtenter interface {
	GlyphExtents(gid otbuffer.GlyphIndex) (GlyphExtents, bool)
	UnitsPerEm() uint16
}
