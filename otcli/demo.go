package main

import (
	"github.com/npillmayer/otshaping/internal/synthfont"
	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

const demoHelp = `
	The demo font covers Latin letters and digits, a few combining marks,
	Hebrew letters and the Arabic letters beh, lam and alef. It knows
	'liga' (fi), 'smcp', 'numr'/'dnom', 'kern' (AV), 'mark' and the Arabic
	joining forms. Try:
	  shape fifa AVA
	  features smcp; shape small caps
	  shape 1\u20442
	  shape e\u0301
	  dir rtl; script arabic; shape \u0628\u0644\u0627`

// Glyph ranges of the demo font.
const (
	demoSpace   otbuffer.GlyphIndex = 1
	demoLower   otbuffer.GlyphIndex = 2   // a..z
	demoUpper   otbuffer.GlyphIndex = 28  // A..Z
	demoDigits  otbuffer.GlyphIndex = 54  // 0..9
	demoFrac    otbuffer.GlyphIndex = 64  // fraction slash
	demoMarks   otbuffer.GlyphIndex = 65  // U+0300, U+0301, U+0308
	demoFi      otbuffer.GlyphIndex = 70  // fi ligature
	demoSmcp    otbuffer.GlyphIndex = 100 // small capitals a..z
	demoNumr    otbuffer.GlyphIndex = 130
	demoDnom    otbuffer.GlyphIndex = 140
	demoHebrew  otbuffer.GlyphIndex = 200 // U+05D0..U+05EA
	demoHebMark otbuffer.GlyphIndex = 240 // hiriq, dagesh
	demoArabic  otbuffer.GlyphIndex = 300 // beh, lam, alef; 4 forms each
)

const (
	lower  = "abcdefghijklmnopqrstuvwxyz"
	upper  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits = "0123456789"
)

// demoFace builds a small rule-table font for trying out the shaper
// without a font file.
func demoFace() otshape.Face {
	b := synthfont.NewBuilder("demo")
	b.Glyph(' ', demoSpace, 250)
	b.Glyphs(lower, demoLower, 500)
	b.Glyphs(upper, demoUpper, 600)
	b.Glyphs(digits, demoDigits, 500)
	b.Glyph(0x2044, demoFrac, 200)
	b.Glyphs("\u0300\u0301\u0308", demoMarks, 0)
	b.Advance(demoFi, 800)
	for gid := demoLower; gid < demoDigits; gid++ {
		b.Class(otshape.ClassBase, gid)
		b.Extents(gid, otshape.GlyphExtents{XBearing: 40, YBearing: 700, Width: 420, Height: -700})
	}
	b.Class(otshape.ClassLigature, demoFi)
	b.Class(otshape.ClassMark, demoMarks, demoMarks+1, demoMarks+2)

	// Latin
	b.Ligature("liga", []otbuffer.GlyphIndex{letter('f'), letter('i')}, demoFi)
	smcp := make(map[otbuffer.GlyphIndex]otbuffer.GlyphIndex, len(lower))
	for i := range lower {
		smcp[demoLower+otbuffer.GlyphIndex(i)] = demoSmcp + otbuffer.GlyphIndex(i)
		b.Advance(demoSmcp+otbuffer.GlyphIndex(i), 450)
	}
	b.Single("smcp", smcp)
	numr := make(map[otbuffer.GlyphIndex]otbuffer.GlyphIndex, len(digits))
	dnom := make(map[otbuffer.GlyphIndex]otbuffer.GlyphIndex, len(digits))
	for i := range digits {
		numr[demoDigits+otbuffer.GlyphIndex(i)] = demoNumr + otbuffer.GlyphIndex(i)
		dnom[demoDigits+otbuffer.GlyphIndex(i)] = demoDnom + otbuffer.GlyphIndex(i)
		b.Advance(demoNumr+otbuffer.GlyphIndex(i), 300)
		b.Advance(demoDnom+otbuffer.GlyphIndex(i), 300)
	}
	b.Single("numr", numr)
	b.Single("dnom", dnom)
	b.PairPos("kern", map[[2]otbuffer.GlyphIndex]int32{
		{capital('A'), capital('V')}: -80,
		{capital('V'), capital('A')}: -80,
	})
	anchors := map[otbuffer.GlyphIndex][2]int32{}
	for m := demoMarks; m < demoMarks+3; m++ {
		anchors[m] = [2]int32{250, 0}
	}
	b.MarkToBase("mark", anchors)

	// Hebrew
	for r := rune(0x05D0); r <= 0x05EA; r++ {
		gid := demoHebrew + otbuffer.GlyphIndex(r-0x05D0)
		b.Glyph(r, gid, 550)
		b.Class(otshape.ClassBase, gid)
	}
	b.Glyph(0x05B4, demoHebMark, 0)   // hiriq
	b.Glyph(0x05BC, demoHebMark+1, 0) // dagesh
	b.Class(otshape.ClassMark, demoHebMark, demoHebMark+1)

	// Arabic: isolated, initial, medial, final forms
	forms := []string{"init", "medi", "fina"}
	substs := make([]map[otbuffer.GlyphIndex]otbuffer.GlyphIndex, len(forms))
	for i := range substs {
		substs[i] = make(map[otbuffer.GlyphIndex]otbuffer.GlyphIndex)
	}
	for i, r := range []rune{0x0628, 0x0644, 0x0627} { // beh, lam, alef
		isol := demoArabic + otbuffer.GlyphIndex(4*i)
		b.Glyph(r, isol, 450)
		for f := range forms {
			substs[f][isol] = isol + otbuffer.GlyphIndex(f+1)
			b.Advance(isol+otbuffer.GlyphIndex(f+1), 400)
		}
	}
	for f, tag := range forms {
		b.Single(tag, substs[f])
	}
	lam, alefFina := demoArabic+4, demoArabic+8+3
	b.Ligature("rlig", []otbuffer.GlyphIndex{lam + 1, alefFina}, demoArabic+20)
	b.Ligature("rlig", []otbuffer.GlyphIndex{lam + 2, alefFina}, demoArabic+21)
	b.Advance(demoArabic+20, 500).Advance(demoArabic+21, 450)
	return b.Face()
}

func letter(r rune) otbuffer.GlyphIndex {
	return demoLower + otbuffer.GlyphIndex(r-'a')
}

func capital(r rune) otbuffer.GlyphIndex {
	return demoUpper + otbuffer.GlyphIndex(r-'A')
}
