package otbuffer

import (
	"unicode"

	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
)

// GeneralCategory is the Unicode general category of a character.
type GeneralCategory uint8

const (
	Control GeneralCategory = iota
	Format
	Unassigned
	PrivateUse
	Surrogate
	LowercaseLetter
	ModifierLetter
	OtherLetter
	TitlecaseLetter
	UppercaseLetter
	SpacingMark
	EnclosingMark
	NonSpacingMark
	DecimalNumber
	LetterNumber
	OtherNumber
	ConnectPunctuation
	DashPunctuation
	ClosePunctuation
	FinalPunctuation
	InitialPunctuation
	OtherPunctuation
	OpenPunctuation
	CurrencySymbol
	ModifierSymbol
	MathSymbol
	OtherSymbol
	LineSeparator
	ParagraphSeparator
	SpaceSeparator
)

// IsMark is true for the three mark categories.
func (gc GeneralCategory) IsMark() bool {
	return gc == SpacingMark || gc == EnclosingMark || gc == NonSpacingMark
}

// IsLetter is true for the five letter categories.
func (gc GeneralCategory) IsLetter() bool {
	return gc >= LowercaseLetter && gc <= UppercaseLetter
}

// UnicodeFuncs is the Unicode property provider consumed by the buffer and
// by shaping. Implementations must be safe for concurrent use.
type UnicodeFuncs interface {
	GeneralCategory(r rune) GeneralCategory
	CombiningClass(r rune) uint8
	Script(r rune) language.Script
	Mirroring(r rune) rune
	IsDefaultIgnorable(r rune) bool
	// Compose returns the canonical composition of a and b, if any.
	Compose(a, b rune) (rune, bool)
	// Decompose returns the canonical decomposition of ab into at most
	// two characters. b is 0 for singleton decompositions.
	Decompose(ab rune) (a, b rune, ok bool)
}

// DefaultUnicode is the UnicodeFuncs implementation backed by the standard
// library tables, x/text normalization data and go-text script data.
var DefaultUnicode UnicodeFuncs = defaultUnicode{}

type defaultUnicode struct{}

type categoryTable struct {
	cat   GeneralCategory
	table *unicode.RangeTable
}

// Ordered roughly by frequency in running text.
var categoryTables = [...]categoryTable{
	{LowercaseLetter, unicode.Ll},
	{OtherLetter, unicode.Lo},
	{UppercaseLetter, unicode.Lu},
	{NonSpacingMark, unicode.Mn},
	{SpaceSeparator, unicode.Zs},
	{OtherPunctuation, unicode.Po},
	{DecimalNumber, unicode.Nd},
	{SpacingMark, unicode.Mc},
	{Format, unicode.Cf},
	{Control, unicode.Cc},
	{ModifierLetter, unicode.Lm},
	{TitlecaseLetter, unicode.Lt},
	{EnclosingMark, unicode.Me},
	{LetterNumber, unicode.Nl},
	{OtherNumber, unicode.No},
	{ConnectPunctuation, unicode.Pc},
	{DashPunctuation, unicode.Pd},
	{ClosePunctuation, unicode.Pe},
	{FinalPunctuation, unicode.Pf},
	{InitialPunctuation, unicode.Pi},
	{OpenPunctuation, unicode.Ps},
	{CurrencySymbol, unicode.Sc},
	{ModifierSymbol, unicode.Sk},
	{MathSymbol, unicode.Sm},
	{OtherSymbol, unicode.So},
	{LineSeparator, unicode.Zl},
	{ParagraphSeparator, unicode.Zp},
	{PrivateUse, unicode.Co},
	{Surrogate, unicode.Cs},
}

func (defaultUnicode) GeneralCategory(r rune) GeneralCategory {
	if r < 0x80 {
		switch {
		case r >= 'a' && r <= 'z':
			return LowercaseLetter
		case r >= 'A' && r <= 'Z':
			return UppercaseLetter
		case r >= '0' && r <= '9':
			return DecimalNumber
		case r == ' ':
			return SpaceSeparator
		}
	}
	for _, ct := range categoryTables {
		if unicode.Is(ct.table, r) {
			return ct.cat
		}
	}
	return Unassigned
}

func (defaultUnicode) CombiningClass(r rune) uint8 {
	if r < 0x300 {
		return 0
	}
	return norm.NFD.PropertiesString(string(r)).CCC()
}

func (defaultUnicode) Script(r rune) language.Script {
	return language.LookupScript(r)
}

// Mirroring covers the mirrored characters which matter for shaping
// right-to-left text; other mirrored characters are left to the 'rtlm' feature.
func (defaultUnicode) Mirroring(r rune) rune {
	props, _ := bidi.LookupRune(r)
	if props.Class() == bidi.ON || props.IsBracket() {
		if m, ok := mirrorPairs[r]; ok {
			return m
		}
	}
	return r
}

var mirrorPairs = func() map[rune]rune {
	pairs := [...][2]rune{
		{'(', ')'}, {'<', '>'}, {'[', ']'}, {'{', '}'},
		{0x00AB, 0x00BB}, {0x2039, 0x203A}, {0x2045, 0x2046},
		{0x207D, 0x207E}, {0x208D, 0x208E}, {0x2208, 0x220B},
		{0x2264, 0x2265}, {0x2282, 0x2283}, {0x2286, 0x2287},
		{0x2308, 0x2309}, {0x230A, 0x230B}, {0x2329, 0x232A},
		{0x27E6, 0x27E7}, {0x27E8, 0x27E9}, {0x27EA, 0x27EB},
		{0x2983, 0x2984}, {0x3008, 0x3009}, {0x300A, 0x300B},
		{0x300C, 0x300D}, {0x300E, 0x300F}, {0x3010, 0x3011},
		{0xFF08, 0xFF09}, {0xFF3B, 0xFF3D}, {0xFF5B, 0xFF5D},
	}
	m := make(map[rune]rune, 2*len(pairs))
	for _, p := range pairs {
		m[p[0]] = p[1]
		m[p[1]] = p[0]
	}
	return m
}()

func (defaultUnicode) IsDefaultIgnorable(r rune) bool {
	return IsDefaultIgnorable(r)
}

func (defaultUnicode) Compose(a, b rune) (rune, bool) {
	s := norm.NFC.String(string([]rune{a, b}))
	rs := []rune(s)
	if len(rs) != 1 {
		return 0, false
	}
	// Composition exclusions and non-starters are handled by NFC itself.
	return rs[0], true
}

func (defaultUnicode) Decompose(ab rune) (rune, rune, bool) {
	d := norm.NFD.PropertiesString(string(ab)).Decomposition()
	if len(d) == 0 {
		return ab, 0, false
	}
	rs := []rune(string(d))
	switch len(rs) {
	case 1:
		return rs[0], 0, true
	case 2:
		return rs[0], rs[1], true
	}
	// Full decompositions longer than two characters are split as
	// (composition of the prefix, last mark), mirroring pairwise decomposition.
	last := rs[len(rs)-1]
	prefix := norm.NFC.String(string(rs[:len(rs)-1]))
	ps := []rune(prefix)
	if len(ps) != 1 {
		return ab, 0, false
	}
	return ps[0], last, true
}

// defaultIgnorables lists the Default_Ignorable_Code_Point characters
// relevant for shaping.
var defaultIgnorables = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00AD, Hi: 0x00AD, Stride: 1},
		{Lo: 0x034F, Hi: 0x034F, Stride: 1},
		{Lo: 0x061C, Hi: 0x061C, Stride: 1},
		{Lo: 0x115F, Hi: 0x1160, Stride: 1},
		{Lo: 0x17B4, Hi: 0x17B5, Stride: 1},
		{Lo: 0x180B, Hi: 0x180F, Stride: 1},
		{Lo: 0x200B, Hi: 0x200F, Stride: 1},
		{Lo: 0x202A, Hi: 0x202E, Stride: 1},
		{Lo: 0x2060, Hi: 0x206F, Stride: 1},
		{Lo: 0x3164, Hi: 0x3164, Stride: 1},
		{Lo: 0xFE00, Hi: 0xFE0F, Stride: 1},
		{Lo: 0xFEFF, Hi: 0xFEFF, Stride: 1},
		{Lo: 0xFFA0, Hi: 0xFFA0, Stride: 1},
		{Lo: 0xFFF0, Hi: 0xFFF8, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1BCA0, Hi: 0x1BCA3, Stride: 1},
		{Lo: 0x1D173, Hi: 0x1D17A, Stride: 1},
		{Lo: 0xE0000, Hi: 0xE0FFF, Stride: 1},
	},
}

// IsDefaultIgnorable reports whether r is a default-ignorable code point.
func IsDefaultIgnorable(r rune) bool {
	if r < 0xAD {
		return false
	}
	return unicode.Is(defaultIgnorables, r)
}

// isHiddenIgnorable is true for ignorables which must survive shaping
// because they affect it, such as CGJ or emoji tag characters.
func isHiddenIgnorable(r rune) bool {
	switch {
	case r == 0x034F:
		return true
	case r >= 0x180B && r <= 0x180D, r == 0x180F:
		return true
	case r >= 0xE0020 && r <= 0xE007F:
		return true
	}
	return false
}

// SetUnicodeProps computes the Unicode properties of every record, using uf
// (or DefaultUnicode if uf is nil), and records buffer-wide scratch flags.
func (b *Buffer) SetUnicodeProps(uf UnicodeFuncs) {
	if uf == nil {
		uf = DefaultUnicode
	}
	for i := 0; i < len(b.info); i++ {
		info := &b.info[i]
		b.scratch |= info.SetUnicodeProps(uf)
		if info.Codepoint == 0x200D && i+1 < len(b.info) && isExtendedPictographic(b.info[i+1].Codepoint) {
			// the pictograph after a ZWJ is set up here and skipped
			i++
			next := &b.info[i]
			next.var1 = uint32(uf.GeneralCategory(next.Codepoint)) | upropsContinuation
		}
	}
}

// SetUnicodeProps computes the Unicode properties of a single record from its
// codepoint. It returns the scratch flags the record contributes to its
// buffer.
func (info *GlyphInfo) SetUnicodeProps(uf UnicodeFuncs) ScratchFlags {
	if uf == nil {
		uf = DefaultUnicode
	}
	var scratch ScratchFlags
	r := info.Codepoint
	gc := uf.GeneralCategory(r)
	props := uint32(gc)
	if r >= 0x80 {
		scratch |= ScratchHasNonASCII
	}
	if uf.IsDefaultIgnorable(r) {
		props |= upropsIgnorable
		scratch |= ScratchHasDefaultIgnorables
		if r == 0x034F {
			scratch |= ScratchHasCGJ
		}
		if isHiddenIgnorable(r) {
			props |= upropsHidden
		}
		switch r {
		case 0x200C:
			props |= upropsZWNJ
		case 0x200D:
			props |= upropsZWJ
		}
	}
	if gc.IsMark() {
		props |= upropsContinuation
		props |= uint32(uf.CombiningClass(r)) << 8
	}
	info.var1 = props
	switch {
	case gc == ModifierSymbol && r >= 0x1F3FB && r <= 0x1F3FF:
		info.SetContinuation()
	case r == 0x200D:
		info.SetContinuation()
	case r >= 0xFF9E && r <= 0xFF9F, r >= 0xE0020 && r <= 0xE007F:
		info.SetContinuation()
	}
	return scratch
}

// isExtendedPictographic approximates the Extended_Pictographic property by
// the blocks holding emoji pictographs.
func isExtendedPictographic(r rune) bool {
	switch {
	case r == 0x00A9, r == 0x00AE, r == 0x203C, r == 0x2049, r == 0x2122:
		return true
	case r >= 0x2190 && r <= 0x21FF, r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2600 && r <= 0x27BF, r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r >= 0x1F000 && r <= 0x1FAFF && !(r >= 0x1F3FB && r <= 0x1F3FF):
		return true
	}
	return false
}
// DottedCircle is U+25CC, inserted in front of broken clusters.
const DottedCircle = '◌'

// InsertDottedCircle puts a dotted circle in front of a leading mark, so that
// the mark has a base to attach to. It does nothing unless the buffer holds
// the beginning of text, starts with a mark and FlagDoNotInsertDottedCircle
// is clear. Unicode properties must have been set.
func (b *Buffer) InsertDottedCircle(uf UnicodeFuncs) bool {
	if b.Flags&FlagDoNotInsertDottedCircle != 0 || b.Flags&FlagBOT == 0 ||
		b.contextLen[0] != 0 || len(b.info) == 0 || !b.info[0].GeneralCategory().IsMark() {
		return false
	}
	if uf == nil {
		uf = DefaultUnicode
	}
	dc := GlyphInfo{
		Codepoint: DottedCircle,
		Cluster:   b.info[0].Cluster,
		Mask:      b.info[0].Mask,
	}
	b.scratch |= dc.SetUnicodeProps(uf)
	b.ClearOutput()
	if !b.OutputInfo(dc) {
		return false
	}
	b.SwapBuffers()
	return true
}
