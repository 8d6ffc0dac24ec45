package otarabic

import (
	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

// isWordCategory tells which characters a stretched glyph may extend over.
func isWordCategory(gc otbuffer.GeneralCategory) bool {
	switch gc {
	case otbuffer.Unassigned, otbuffer.PrivateUse, otbuffer.ModifierLetter, otbuffer.OtherLetter,
		otbuffer.SpacingMark, otbuffer.EnclosingMark, otbuffer.NonSpacingMark,
		otbuffer.DecimalNumber, otbuffer.LetterNumber, otbuffer.OtherNumber,
		otbuffer.CurrencySymbol, otbuffer.ModifierSymbol, otbuffer.MathSymbol, otbuffer.OtherSymbol:
		return true
	}
	return false
}

// applyStch repeats the repeating tiles of every stch sequence until the
// sequence spans the width of the word before it. The buffer is in visual
// order, so tiles are laid out towards the preceding glyphs.
func applyStch(run otshape.RunContext) {
	buf := run.Buffer()
	if buf.ScratchFlags()&scratchHasStch == 0 {
		return
	}
	face := run.Face()
	isStch := func(i int) bool {
		return action(buf.GlyphInfos()[i].ComplexAux()).isStch()
	}
	for i := buf.Len(); i > 0; {
		if !isStch(i - 1) {
			i--
			continue
		}
		end := i
		var wFixed, wRepeating, nRepeating int32
		for i > 0 && isStch(i-1) {
			i--
			info := &buf.GlyphInfos()[i]
			width := face.HorizontalAdvance(info.Glyph())
			if action(info.ComplexAux()) == actionStretchFixed {
				wFixed += width
			} else {
				wRepeating += width
				nRepeating++
			}
		}
		start := i
		context := i
		var wTotal int32
		for context > 0 && !isStch(context-1) {
			info := &buf.GlyphInfos()[context-1]
			if !info.IsDefaultIgnorable() && !isWordCategory(info.GeneralCategory()) {
				break
			}
			context--
			wTotal += buf.GlyphPositions()[context].XAdvance
		}

		// additional repeats per repeating tile
		var nCopies, overlap int32
		wRemaining := wTotal - wFixed
		if wRemaining > wRepeating && wRepeating > 0 {
			nCopies = wRemaining/wRepeating - 1
		}
		// one more repeat, squeezed together, may fit better
		if shortfall := wRemaining - wRepeating*(nCopies+1); shortfall > 0 && nRepeating > 0 {
			nCopies++
			if excess := (nCopies+1)*wRepeating - wRemaining; excess > 0 {
				overlap = excess / (nCopies * nRepeating)
			}
		}

		buf.UnsafeToBreak(context, end)
		var xOffset int32
		for k := end - 1; k >= start; k-- {
			width := face.HorizontalAdvance(buf.GlyphInfos()[k].Glyph())
			repeat := int32(1)
			if action(buf.GlyphInfos()[k].ComplexAux()) == actionStretchRepeating {
				repeat += nCopies
			}
			if repeat > 1 && !buf.DuplicateGlyph(k, int(repeat-1)) {
				return
			}
			// the first tile is the rightmost copy
			pos := buf.GlyphPositions()
			for n := int32(0); n < repeat; n++ {
				xOffset -= width
				if n > 0 {
					xOffset += overlap
				}
				pos[k+int(repeat-1-n)].XOffset = xOffset
			}
		}
		i = start
	}
}
