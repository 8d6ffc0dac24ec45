package otshape

import (
	"github.com/npillmayer/otshaping/otbuffer"
)

// Normalization runs in three rounds over the characters of a buffer:
//
//  1. decompose characters the font has no glyph for (all characters of
//     clusters holding marks, unless composing is preferred),
//  2. sort runs of marks by combining class,
//  3. recompose base+mark pairs if the font has a glyph for the result.
//
// Unicode properties of rewritten records are recomputed.

// maxCombiningMarks bounds the length of mark runs which are sorted.
const maxCombiningMarks = 32

type normalizer struct {
	plan *Plan
	face Face
	buf  *otbuffer.Buffer
	uf   otbuffer.UnicodeFuncs
}

var _ NormalizeContext = (*normalizer)(nil)

func (n *normalizer) Face() Face                            { return n.face }
func (n *normalizer) Selection() SelectionContext           { return n.plan.selection }
func (n *normalizer) HasGposMark() bool                     { return n.plan.HasGPOSMark }
func (n *normalizer) ComposeUnicode(a, b rune) (rune, bool) { return n.uf.Compose(a, b) }

func (n *normalizer) compose(a, b rune) (rune, bool) {
	if hook, ok := n.plan.Engine.(ShapingEngineComposeHook); ok {
		return hook.Compose(n, a, b)
	}
	return n.uf.Compose(a, b)
}

func (n *normalizer) hasGlyph(r rune) bool {
	_, ok := n.face.NominalGlyph(r)
	return ok
}

func normalize(plan *Plan, face Face, buf *otbuffer.Buffer, uf otbuffer.UnicodeFuncs) {
	if buf.Len() == 0 {
		return
	}
	n := &normalizer{plan: plan, face: face, buf: buf, uf: uf}
	mode := plan.Normalization
	mightShortCircuit := mode != NormalizationDecomposed
	alwaysShortCircuit := mode == NormalizationNone

	allSimple := n.decomposeAll(mightShortCircuit, alwaysShortCircuit)
	if !buf.AllocationSuccessful() {
		return
	}
	if allSimple {
		return
	}
	n.reorderMarks()
	if mode == NormalizationComposed {
		n.recompose()
	}
}

// decomposeAll is round 1. It returns true if no cluster holds marks.
func (n *normalizer) decomposeAll(mightShortCircuit, alwaysShortCircuit bool) bool {
	buf := n.buf
	allSimple := true
	buf.ClearOutput()
	count := buf.Len()
	isMark := func(i int) bool {
		return buf.GlyphInfos()[i].GeneralCategory().IsMark()
	}
	for buf.Idx() < count && buf.AllocationSuccessful() {
		end := buf.Idx() + 1
		for ; end < count; end++ {
			if isMark(end) {
				break
			}
		}
		if end < count {
			end-- // leave one base for the marks to cluster with
		}
		for buf.Idx() < end && buf.AllocationSuccessful() {
			n.decomposeCurrent(mightShortCircuit)
		}
		if buf.Idx() == count || !buf.AllocationSuccessful() {
			break
		}
		allSimple = false
		for end = buf.Idx() + 1; end < count; end++ {
			if !isMark(end) {
				break
			}
		}
		if buf.Idx()+1 == end {
			n.decomposeCurrent(mightShortCircuit)
		} else {
			for buf.Idx() < end && buf.AllocationSuccessful() {
				n.decomposeCurrent(alwaysShortCircuit)
			}
		}
	}
	buf.SwapBuffers()
	return allSimple
}

func (n *normalizer) decomposeCurrent(shortest bool) {
	buf := n.buf
	u := buf.Cur(0).Codepoint
	if shortest && n.hasGlyph(u) {
		buf.NextGlyph()
		return
	}
	if n.decompose(shortest, u) > 0 {
		buf.SkipGlyph()
		return
	}
	if !shortest && n.hasGlyph(u) {
		buf.NextGlyph()
		return
	}
	if u == 0x2011 && n.hasGlyph(0x2010) {
		// non-breaking hyphen without glyph: use hyphen
		buf.Cur(0).Codepoint = 0x2010
	}
	buf.NextGlyph()
}

// decompose outputs the decomposition of ab and returns the number of
// characters written, 0 if ab is kept.
func (n *normalizer) decompose(shortest bool, ab rune) int {
	a, b, ok := n.uf.Decompose(ab)
	if !ok || (b != 0 && !n.hasGlyph(b)) {
		return 0
	}
	hasA := n.hasGlyph(a)
	if shortest && hasA {
		n.outputChar(a)
		if b != 0 {
			n.outputChar(b)
			return 2
		}
		return 1
	}
	if ret := n.decompose(shortest, a); ret > 0 {
		if b != 0 {
			n.outputChar(b)
			return ret + 1
		}
		return ret
	}
	if hasA {
		n.outputChar(a)
		if b != 0 {
			n.outputChar(b)
			return 2
		}
		return 1
	}
	return 0
}

func (n *normalizer) outputChar(r rune) {
	info := *n.buf.Cur(0)
	info.Codepoint = r
	n.buf.AddScratchFlags(info.SetUnicodeProps(n.uf))
	n.buf.OutputInfo(info)
}

// reorderMarks is round 2.
func (n *normalizer) reorderMarks() {
	buf := n.buf
	infos := buf.GlyphInfos()
	count := len(infos)
	hook, hasHook := n.plan.Engine.(ShapingEngineReorderHook)
	for i := 0; i < count; i++ {
		if infos[i].ModifiedCombiningClass() == 0 {
			continue
		}
		end := i + 1
		for ; end < count; end++ {
			if infos[end].ModifiedCombiningClass() == 0 {
				break
			}
		}
		if end-i > maxCombiningMarks {
			i = end
			continue
		}
		buf.Sort(i, end, func(a, b *otbuffer.GlyphInfo) bool {
			return a.ModifiedCombiningClass() < b.ModifiedCombiningClass()
		})
		if hasHook {
			hook.ReorderMarks(runContext{buf: buf, face: n.face}, i, end)
		}
		i = end
	}
}

func combiningClass(info *otbuffer.GlyphInfo) uint8 {
	return info.ModifiedCombiningClass()
}

// recompose is round 3.
func (n *normalizer) recompose() {
	buf := n.buf
	buf.ClearOutput()
	count := buf.Len()
	starter := 0
	buf.NextGlyph()
	for buf.Idx() < count && buf.AllocationSuccessful() {
		cur := buf.Cur(0)
		if cur.GeneralCategory().IsMark() {
			var composed rune
			ok := starter == buf.OutLen()-1 || combiningClass(buf.Prev()) < combiningClass(cur)
			if ok {
				composed, ok = n.compose(buf.OutInfos()[starter].Codepoint, cur.Codepoint)
			}
			if ok && n.hasGlyph(composed) {
				if !buf.NextGlyph() {
					break
				}
				buf.MergeOutClusters(starter, buf.OutLen())
				buf.TruncateOutput(buf.OutLen() - 1)
				out := buf.OutInfos()
				out[starter].Codepoint = composed
				buf.AddScratchFlags(out[starter].SetUnicodeProps(n.uf))
				continue
			}
			if starter < buf.OutLen()-1 && combiningClass(buf.Prev()) > combiningClass(cur) {
				// marks were tailored out of order: stop composing
				starter = buf.OutLen()
			}
		}
		if !buf.NextGlyph() {
			break
		}
		if combiningClass(buf.Prev()) == 0 {
			starter = buf.OutLen() - 1
		}
	}
	buf.SwapBuffers()
}
