package otbuffer

// GlyphIndex is a glyph ID in a font.
type GlyphIndex uint32

// GlyphMask is the per-glyph bit set of active features. The bits covered by
// GlyphFlagDefined are public glyph flags; all other bits are allocated by a
// shape plan.
type GlyphMask = uint32

// Public glyph flags, kept in the low bits of GlyphInfo.Mask.
const (
	// GlyphUnsafeToBreak means that splitting the text at the start of this
	// glyph's cluster and shaping both sides independently may give a
	// different result than shaping the whole run.
	GlyphUnsafeToBreak GlyphMask = 1 << iota
	// GlyphUnsafeToConcat means that the glyph may change when the run is
	// concatenated with text shaped separately.
	GlyphUnsafeToConcat
	// GlyphSafeToInsertTatweel marks positions where a tatweel may be inserted.
	GlyphSafeToInsertTatweel

	GlyphFlagDefined = GlyphUnsafeToBreak | GlyphUnsafeToConcat | GlyphSafeToInsertTatweel
)

// GlyphInfo is one record of a buffer.
type GlyphInfo struct {
	// Codepoint is a Unicode scalar before shaping and a glyph index after.
	Codepoint rune
	// Mask holds feature bits and glyph flags.
	Mask GlyphMask
	// Cluster is the index into the source text this record traces back to.
	Cluster uint32

	var1 uint32 // Unicode properties
	var2 uint32 // glyph properties, ligature properties, syllable, shaper data
}

// Glyph returns the record's codepoint as a glyph index.
func (info *GlyphInfo) Glyph() GlyphIndex {
	return GlyphIndex(info.Codepoint)
}

// Flags returns the public glyph flags of the record.
func (info *GlyphInfo) Flags() GlyphMask {
	return info.Mask & GlyphFlagDefined
}

// --- Unicode properties (var1) ---------------------------------------------
//
// bits  0..4   general category
// bit   5      default ignorable
// bit   6      hidden (ignorable which should not be removed, e.g. CGJ)
// bit   7      continuation of a grapheme
// bits  8..15  modified combining class
// bit  16      ZWJ
// bit  17      ZWNJ

const (
	upropsGenCatMask   = 0x1F
	upropsIgnorable    = 0x20
	upropsHidden       = 0x40
	upropsContinuation = 0x80
	upropsZWJ          = 0x10000
	upropsZWNJ         = 0x20000
)

// GeneralCategory returns the general category set by SetUnicodeProps.
func (info *GlyphInfo) GeneralCategory() GeneralCategory {
	return GeneralCategory(info.var1 & upropsGenCatMask)
}

// SetGeneralCategory overrides the general category.
func (info *GlyphInfo) SetGeneralCategory(gc GeneralCategory) {
	info.var1 = info.var1&^upropsGenCatMask | uint32(gc)&upropsGenCatMask
}

// ModifiedCombiningClass returns the (possibly shaper-modified) combining class.
func (info *GlyphInfo) ModifiedCombiningClass() uint8 {
	if !info.GeneralCategory().IsMark() {
		return 0
	}
	return uint8(info.var1 >> 8)
}

// SetModifiedCombiningClass sets the combining class used for mark ordering.
func (info *GlyphInfo) SetModifiedCombiningClass(ccc uint8) {
	info.var1 = info.var1&^0xFF00 | uint32(ccc)<<8
}

// IsDefaultIgnorable reports whether the record is a default-ignorable character.
func (info *GlyphInfo) IsDefaultIgnorable() bool {
	return info.var1&upropsIgnorable != 0 && !info.isLigatedForIgnorable()
}

func (info *GlyphInfo) isLigatedForIgnorable() bool {
	return info.GlyphProps()&GlyphPropsLigated != 0
}

// IsHidden reports whether a default ignorable must be kept in the output.
func (info *GlyphInfo) IsHidden() bool {
	return info.var1&upropsHidden != 0
}

// IsContinuation reports whether the record continues the grapheme of its
// predecessor.
func (info *GlyphInfo) IsContinuation() bool {
	return info.var1&upropsContinuation != 0
}

// SetContinuation marks the record as a grapheme continuation.
func (info *GlyphInfo) SetContinuation() {
	info.var1 |= upropsContinuation
}

// ResetContinuation clears the grapheme continuation mark.
func (info *GlyphInfo) ResetContinuation() {
	info.var1 &^= upropsContinuation
}

// IsZWJ is true for U+200D ZERO WIDTH JOINER.
func (info *GlyphInfo) IsZWJ() bool {
	return info.var1&upropsZWJ != 0
}

// IsZWNJ is true for U+200C ZERO WIDTH NON-JOINER.
func (info *GlyphInfo) IsZWNJ() bool {
	return info.var1&upropsZWNJ != 0
}

// --- Glyph properties (var2) -----------------------------------------------
//
// bits  0..7   glyph properties (GDEF class and derived flags)
// bits  8..15  ligature properties
// bits 16..23  syllable index
// bits 24..31  complex shaper auxiliary data

// GlyphProps hold the GDEF glyph class of a glyph plus shaping state.
type GlyphProps uint8

const (
	GlyphPropsBaseGlyph GlyphProps = 1 << (iota + 1)
	GlyphPropsLigature
	GlyphPropsMark
	GlyphPropsSubstituted
	GlyphPropsLigated
	GlyphPropsMultiplied

	GlyphPropsPreserve = GlyphPropsSubstituted | GlyphPropsLigated | GlyphPropsMultiplied
)

// GlyphProps returns the glyph properties.
func (info *GlyphInfo) GlyphProps() GlyphProps {
	return GlyphProps(info.var2)
}

// SetGlyphProps sets the glyph properties.
func (info *GlyphInfo) SetGlyphProps(props GlyphProps) {
	info.var2 = info.var2&^0xFF | uint32(props)
}

// IsMark is true if the glyph is classified as a mark.
func (info *GlyphInfo) IsMark() bool {
	return info.GlyphProps()&GlyphPropsMark != 0
}

// IsBaseGlyph is true if the glyph is classified as a base glyph.
func (info *GlyphInfo) IsBaseGlyph() bool {
	return info.GlyphProps()&GlyphPropsBaseGlyph != 0
}

// IsLigature is true if the glyph is classified as a ligature.
func (info *GlyphInfo) IsLigature() bool {
	return info.GlyphProps()&GlyphPropsLigature != 0
}

// IsLigated is true if the glyph was produced by a ligature substitution.
func (info *GlyphInfo) IsLigated() bool {
	return info.GlyphProps()&GlyphPropsLigated != 0
}

// LigProps returns the ligature properties (ligature id and component).
func (info *GlyphInfo) LigProps() uint8 {
	return uint8(info.var2 >> 8)
}

// SetLigProps sets the ligature properties.
func (info *GlyphInfo) SetLigProps(p uint8) {
	info.var2 = info.var2&^0xFF00 | uint32(p)<<8
}

// Syllable returns the syllable index assigned by a complex shaper.
func (info *GlyphInfo) Syllable() uint8 {
	return uint8(info.var2 >> 16)
}

// SetSyllable sets the syllable index.
func (info *GlyphInfo) SetSyllable(s uint8) {
	info.var2 = info.var2&^0xFF0000 | uint32(s)<<16
}

// ComplexAux returns the byte reserved for complex shapers.
func (info *GlyphInfo) ComplexAux() uint8 {
	return uint8(info.var2 >> 24)
}

// SetComplexAux sets the byte reserved for complex shapers.
func (info *GlyphInfo) SetComplexAux(v uint8) {
	info.var2 = info.var2&^0xFF000000 | uint32(v)<<24
}

// GlyphPosition holds positioning results for one glyph, in font units.
// Positions are valid only after positioning.
type GlyphPosition struct {
	XAdvance int32
	YAdvance int32
	XOffset  int32
	YOffset  int32

	attach uint32 // low 16 bits: chain offset, high bits: attachment type
}

// AttachType tells what kind of attachment a position carries.
type AttachType uint8

const (
	AttachNone AttachType = iota
	AttachMark
	AttachCursive
)

// AttachChain returns the relative offset to the glyph this glyph is
// attached to, or 0 if it is not attached.
func (pos *GlyphPosition) AttachChain() int {
	return int(int16(pos.attach))
}

// AttachType returns the attachment kind.
func (pos *GlyphPosition) AttachType() AttachType {
	return AttachType(pos.attach >> 16)
}

// SetAttachment records that this glyph is attached to the glyph at relative
// offset chain. A chain of 0 clears the attachment.
func (pos *GlyphPosition) SetAttachment(chain int, typ AttachType) {
	if chain == 0 {
		pos.attach = 0
		return
	}
	pos.attach = uint32(uint16(int16(chain))) | uint32(typ)<<16
}
