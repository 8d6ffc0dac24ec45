package synthfont

import (
	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

// lookup is one rule table. apply follows the contract of
// otshape.LookupApplier: GSUB lookups consume input through the buffer's
// output protocol, GPOS lookups advance the cursor in place.
type lookup interface {
	apply(c *otshape.ApplyContext, f *Face) bool
}

func markSubstituted(buf *otbuffer.Buffer, from int, props otbuffer.GlyphProps) {
	out := buf.OutInfos()
	for i := from; i < len(out); i++ {
		out[i].SetGlyphProps(out[i].GlyphProps() | props)
	}
}

type singleSubst map[otbuffer.GlyphIndex]otbuffer.GlyphIndex

func (l singleSubst) apply(c *otshape.ApplyContext, _ *Face) bool {
	buf := c.Buffer
	g, ok := l[buf.Cur(0).Glyph()]
	if !ok {
		return false
	}
	start := buf.OutLen()
	buf.ReplaceGlyph(g)
	markSubstituted(buf, start, otbuffer.GlyphPropsSubstituted)
	return true
}

type multipleSubst map[otbuffer.GlyphIndex][]otbuffer.GlyphIndex

func (l multipleSubst) apply(c *otshape.ApplyContext, _ *Face) bool {
	buf := c.Buffer
	seq, ok := l[buf.Cur(0).Glyph()]
	if !ok {
		return false
	}
	if len(seq) == 0 {
		buf.DeleteGlyph()
		return true
	}
	start := buf.OutLen()
	buf.ReplaceGlyphs(1, seq)
	props := otbuffer.GlyphPropsSubstituted
	if len(seq) > 1 {
		props |= otbuffer.GlyphPropsMultiplied
		buf.AddScratchFlags(otbuffer.ScratchHasMultipleSubstitution)
	}
	markSubstituted(buf, start, props)
	return true
}

type ligature struct {
	components []otbuffer.GlyphIndex
	glyph      otbuffer.GlyphIndex
}

type ligatureSubst struct {
	ligatures []ligature
}

// apply matches consecutive glyphs; ligatures do not skip over marks.
func (l *ligatureSubst) apply(c *otshape.ApplyContext, _ *Face) bool {
	buf := c.Buffer
	infos := buf.GlyphInfos()
	idx := buf.Idx()
	for _, lig := range l.ligatures {
		n := len(lig.components)
		if n == 0 || idx+n > len(infos) {
			continue
		}
		match := true
		for k, comp := range lig.components {
			info := &infos[idx+k]
			if info.Glyph() != comp || (k > 0 && !c.MayMatch(info)) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		buf.UnsafeToBreak(idx, idx+n)
		start := buf.OutLen()
		buf.ReplaceGlyphs(n, []otbuffer.GlyphIndex{lig.glyph})
		markSubstituted(buf, start, otbuffer.GlyphPropsSubstituted|otbuffer.GlyphPropsLigated)
		return true
	}
	return false
}

// nextBase returns the index of the next glyph after i which is not a mark
// and not skippable, or -1.
func nextBase(c *otshape.ApplyContext, i int) int {
	infos := c.Buffer.GlyphInfos()
	for j := i + 1; j < len(infos); j++ {
		if infos[j].IsMark() || c.MaySkip(&infos[j]) {
			continue
		}
		return j
	}
	return -1
}

type pairPos map[[2]otbuffer.GlyphIndex]int32

func (l pairPos) apply(c *otshape.ApplyContext, _ *Face) bool {
	buf := c.Buffer
	i := buf.Idx()
	j := nextBase(c, i)
	if j < 0 {
		return false
	}
	infos := buf.GlyphInfos()
	value, ok := l[[2]otbuffer.GlyphIndex{infos[i].Glyph(), infos[j].Glyph()}]
	if !ok {
		return false
	}
	buf.GlyphPositions()[i].XAdvance += value
	buf.UnsafeToBreak(i, j+1)
	buf.SetIdx(j)
	return true
}

type singlePos map[otbuffer.GlyphIndex]otbuffer.GlyphPosition

func (l singlePos) apply(c *otshape.ApplyContext, _ *Face) bool {
	buf := c.Buffer
	adj, ok := l[buf.Cur(0).Glyph()]
	if !ok {
		return false
	}
	p := buf.CurPos(0)
	p.XAdvance += adj.XAdvance
	p.YAdvance += adj.YAdvance
	p.XOffset += adj.XOffset
	p.YOffset += adj.YOffset
	buf.SetIdx(buf.Idx() + 1)
	return true
}

// markToBase attaches a mark at an offset from its base's origin.
type markToBase map[otbuffer.GlyphIndex][2]int32

func (l markToBase) apply(c *otshape.ApplyContext, _ *Face) bool {
	buf := c.Buffer
	i := buf.Idx()
	infos := buf.GlyphInfos()
	anchor, ok := l[infos[i].Glyph()]
	if !ok || !infos[i].IsMark() {
		return false
	}
	base := i - 1
	for base >= 0 && (infos[base].IsMark() || c.MaySkip(&infos[base])) {
		base--
	}
	if base < 0 {
		return false
	}
	p := buf.CurPos(0)
	p.XOffset, p.YOffset = anchor[0], anchor[1]
	p.SetAttachment(base-i, otbuffer.AttachMark)
	buf.AddScratchFlags(otbuffer.ScratchHasGPOSAttachment)
	buf.UnsafeToBreak(base, i+1)
	buf.SetIdx(i + 1)
	return true
}
