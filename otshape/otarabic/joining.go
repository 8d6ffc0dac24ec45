package otarabic

import (
	"unicode"

	"github.com/npillmayer/otshaping/otbuffer"
)

// action is the joining decision for a character, stored in the complex
// auxiliary byte of its glyph record. The first seven actions index
// formFeatures.
type action uint8

const (
	actionIsol action = iota
	actionFina
	actionFin2
	actionFin3
	actionMedi
	actionMed2
	actionInit
	actionNone

	// stch tiles share the byte after substitution
	actionStretchFixed
	actionStretchRepeating
)

func (a action) isStch() bool {
	return a == actionStretchFixed || a == actionStretchRepeating
}

type joiningType uint8

const (
	jtU joiningType = iota
	jtL
	jtR
	jtD
	jgAlaph
	jgDalathRish
	numJoiningColumns
	jtT
	jtC = jtD // join causing behaves as dual joining
)

type transition struct {
	prev, cur action
	next      uint8
}

// joiningStates is indexed by state and joining type of the current
// character.
var joiningStates = [7][numJoiningColumns]transition{
	// 0: prev was U, not willing to join
	{{actionNone, actionNone, 0}, {actionNone, actionIsol, 2}, {actionNone, actionIsol, 1},
		{actionNone, actionIsol, 2}, {actionNone, actionIsol, 1}, {actionNone, actionIsol, 6}},
	// 1: prev was R or isolated ALAPH, not willing to join
	{{actionNone, actionNone, 0}, {actionNone, actionIsol, 2}, {actionNone, actionIsol, 1},
		{actionNone, actionIsol, 2}, {actionNone, actionFin2, 5}, {actionNone, actionIsol, 6}},
	// 2: prev was D/L in isol form, willing to join
	{{actionNone, actionNone, 0}, {actionNone, actionIsol, 2}, {actionInit, actionFina, 1},
		{actionInit, actionFina, 3}, {actionInit, actionFina, 4}, {actionInit, actionFina, 6}},
	// 3: prev was D in fina form, willing to join
	{{actionNone, actionNone, 0}, {actionNone, actionIsol, 2}, {actionMedi, actionFina, 1},
		{actionMedi, actionFina, 3}, {actionMedi, actionFina, 4}, {actionMedi, actionFina, 6}},
	// 4: prev was fina ALAPH, not willing to join
	{{actionNone, actionNone, 0}, {actionNone, actionIsol, 2}, {actionMed2, actionIsol, 1},
		{actionMed2, actionIsol, 2}, {actionMed2, actionFin2, 5}, {actionMed2, actionIsol, 6}},
	// 5: prev was fin2/fin3 ALAPH, not willing to join
	{{actionNone, actionNone, 0}, {actionNone, actionIsol, 2}, {actionIsol, actionIsol, 1},
		{actionIsol, actionIsol, 2}, {actionIsol, actionFin2, 5}, {actionIsol, actionIsol, 6}},
	// 6: prev was DALATH/RISH, not willing to join
	{{actionNone, actionNone, 0}, {actionNone, actionIsol, 2}, {actionNone, actionIsol, 1},
		{actionNone, actionIsol, 2}, {actionNone, actionFin3, 5}, {actionNone, actionIsol, 6}},
}

// rightJoining lists right joining letters of the cursive scripts.
var rightJoining = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0622, Hi: 0x0625, Stride: 1},
		{Lo: 0x0627, Hi: 0x0629, Stride: 2},
		{Lo: 0x062F, Hi: 0x0632, Stride: 1},
		{Lo: 0x0648, Hi: 0x0648, Stride: 1},
		{Lo: 0x0671, Hi: 0x0673, Stride: 1},
		{Lo: 0x0675, Hi: 0x0677, Stride: 1},
		{Lo: 0x0688, Hi: 0x0699, Stride: 1},
		{Lo: 0x06C0, Hi: 0x06C0, Stride: 1},
		{Lo: 0x06C3, Hi: 0x06CB, Stride: 1},
		{Lo: 0x06CD, Hi: 0x06CF, Stride: 2},
		{Lo: 0x06D2, Hi: 0x06D3, Stride: 1},
		{Lo: 0x06D5, Hi: 0x06D5, Stride: 1},
		{Lo: 0x06EE, Hi: 0x06EF, Stride: 1},
		{Lo: 0x0717, Hi: 0x0719, Stride: 1},
		{Lo: 0x071E, Hi: 0x071E, Stride: 1},
		{Lo: 0x0728, Hi: 0x0728, Stride: 1},
		{Lo: 0x072C, Hi: 0x072C, Stride: 1},
		{Lo: 0x074D, Hi: 0x074D, Stride: 1},
		{Lo: 0x0759, Hi: 0x075B, Stride: 1},
		{Lo: 0x076B, Hi: 0x076C, Stride: 1},
		{Lo: 0x0771, Hi: 0x0771, Stride: 1},
		{Lo: 0x0773, Hi: 0x0774, Stride: 1},
		{Lo: 0x0778, Hi: 0x0779, Stride: 1},
		{Lo: 0x08AA, Hi: 0x08AC, Stride: 1},
		{Lo: 0x08AE, Hi: 0x08AE, Stride: 1},
		{Lo: 0x08B1, Hi: 0x08B2, Stride: 1},
		{Lo: 0x08B9, Hi: 0x08B9, Stride: 1},
	},
}

// nonJoining lists letters of the cursive scripts which never join.
var nonJoining = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0621, Hi: 0x0621, Stride: 1},
		{Lo: 0x0674, Hi: 0x0674, Stride: 1},
		{Lo: 0x06E5, Hi: 0x06E6, Stride: 1},
		{Lo: 0x1880, Hi: 0x1884, Stride: 1},
	},
}

func joiningTypeOf(cp rune, gc otbuffer.GeneralCategory) joiningType {
	switch cp {
	case 0x200C: // ZWNJ
		return jtU
	case 0x200D, 0x0640, 0x07FA, 0x180A: // ZWJ, tatweel, NKo lajanyalan, Mongolian nirugu
		return jtC
	case 0x0710:
		return jgAlaph
	case 0x0715, 0x0716, 0x072A, 0x072F:
		return jgDalathRish
	case 0xA872: // Phags-pa superfixed RA
		return jtL
	}
	switch {
	case unicode.Is(nonJoining, cp):
		return jtU
	case unicode.Is(rightJoining, cp):
		return jtR
	case gc.IsLetter() && unicode.In(cp, unicode.Arabic, unicode.Syriac, unicode.Nko, unicode.Mongolian):
		return jtD
	case gc == otbuffer.NonSpacingMark || gc == otbuffer.EnclosingMark || gc == otbuffer.Format:
		return jtT
	}
	return jtU
}

// joinArabic assigns a joining action to every character, taking the
// buffer's context into account.
func joinArabic(buf *otbuffer.Buffer) {
	uf := otbuffer.DefaultUnicode
	state := uint8(0)
	for i := 0; i < buf.ContextLen(otbuffer.ContextBefore); i++ {
		c := buf.Context(otbuffer.ContextBefore, i)
		t := joiningTypeOf(c, uf.GeneralCategory(c))
		if t == jtT {
			continue
		}
		state = joiningStates[state][t].next
		break
	}

	infos := buf.GlyphInfos()
	prev := -1
	for i := range infos {
		t := joiningTypeOf(infos[i].Codepoint, infos[i].GeneralCategory())
		if t == jtT {
			infos[i].SetComplexAux(uint8(actionNone))
			continue
		}
		entry := joiningStates[state][t]
		if entry.prev != actionNone && prev >= 0 {
			infos[prev].SetComplexAux(uint8(entry.prev))
			buf.UnsafeToBreak(prev, i+1)
		}
		infos[i].SetComplexAux(uint8(entry.cur))
		prev = i
		state = entry.next
	}

	for i := 0; i < buf.ContextLen(otbuffer.ContextAfter); i++ {
		c := buf.Context(otbuffer.ContextAfter, i)
		t := joiningTypeOf(c, uf.GeneralCategory(c))
		if t == jtT {
			continue
		}
		entry := joiningStates[state][t]
		if entry.prev != actionNone && prev >= 0 {
			infos[prev].SetComplexAux(uint8(entry.prev))
		}
		break
	}
}

// copyMongolianVariationActions gives free variation selectors the action
// of their base.
func copyMongolianVariationActions(buf *otbuffer.Buffer) {
	infos := buf.GlyphInfos()
	for i := 1; i < len(infos); i++ {
		if cp := infos[i].Codepoint; cp >= 0x180B && cp <= 0x180D || cp == 0x180F {
			infos[i].SetComplexAux(infos[i-1].ComplexAux())
		}
	}
}

// modifierCombiningMarks are moved to the front of a mark sequence, see
// Unicode TR 53.
var modifierCombiningMarks = map[rune]bool{
	0x0654: true, // HAMZA ABOVE
	0x0655: true, // HAMZA BELOW
	0x0658: true, // MARK NOON GHUNNA
	0x06DC: true, // SMALL HIGH SEEN
	0x06E3: true, // SMALL LOW SEEN
	0x06E7: true, // SMALL HIGH YEH
	0x06E8: true, // SMALL HIGH NOON
	0x08CA: true, // SMALL HIGH FARSI YEH
	0x08CB: true, // SMALL HIGH YEH BARREE WITH TWO DOTS BELOW
	0x08CD: true, // SMALL HIGH ZAH
	0x08CE: true, // LARGE ROUND DOT ABOVE
	0x08CF: true, // LARGE ROUND DOT BELOW
	0x08D3: true, // SMALL LOW WAW
	0x08F3: true, // SMALL HIGH WAW
}

// Renumbered classes for moved marks. They sort before all Arabic classes
// and fold back to below and above for fallback positioning.
const (
	cccMovedBelow uint8 = 22
	cccMovedAbove uint8 = 26
)

// reorderModifierMarks moves modifier combining marks of class 220 and 230
// in front of the other marks of [start, end), then renumbers them so the
// sequence stays sorted.
func reorderModifierMarks(buf *otbuffer.Buffer, start, end int) {
	infos := buf.GlyphInfos()
	i := start
	for _, cc := range [...]uint8{220, 230} {
		for i < end && infos[i].ModifiedCombiningClass() < cc {
			i++
		}
		if i == end {
			break
		}
		if infos[i].ModifiedCombiningClass() > cc {
			continue
		}
		j := i
		for j < end && infos[j].ModifiedCombiningClass() == cc && modifierCombiningMarks[infos[j].Codepoint] {
			j++
		}
		if i == j {
			continue
		}
		buf.MergeClusters(start, j)
		moved := append([]otbuffer.GlyphInfo(nil), infos[i:j]...)
		copy(infos[start+j-i:j], infos[start:i])
		copy(infos[start:], moved)

		newStart := start + j - i
		newCC := cccMovedBelow
		if cc == 230 {
			newCC = cccMovedAbove
		}
		for ; start < newStart; start++ {
			infos[start].SetModifiedCombiningClass(newCC)
		}
		i = j
	}
}
