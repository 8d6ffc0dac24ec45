package otshape

import (
	"github.com/npillmayer/otshaping/otbuffer"
)

// Positioning used when a font lacks GPOS or carries only legacy tables.

// Canonical combining classes which determine mark placement.
const (
	cccAttachedBelowLeft  uint8 = 200
	cccAttachedBelow      uint8 = 202
	cccAttachedAbove      uint8 = 214
	cccAttachedAboveRight uint8 = 216
	cccBelowLeft          uint8 = 218
	cccBelow              uint8 = 220
	cccBelowRight         uint8 = 222
	cccLeft               uint8 = 224
	cccRight              uint8 = 226
	cccAboveLeft          uint8 = 228
	cccAbove              uint8 = 230
	cccAboveRight         uint8 = 232
	cccDoubleBelow        uint8 = 233
	cccDoubleAbove        uint8 = 234
)

// placementClass maps script specific combining classes (Hebrew, Arabic,
// Syriac, Thai, Lao, Tibetan) to positional classes.
func placementClass(ccc uint8) uint8 {
	if ccc >= 200 {
		return ccc
	}
	switch ccc {
	case 10, 11, 12, 13, 14, 15, 16, 17, 18, 20, 22:
		return cccBelow
	case 23:
		return cccAttachedAbove
	case 24:
		return cccAboveRight
	case 19, 25:
		return cccAboveLeft
	case 26:
		return cccAbove
	case 27, 28, 30, 31, 33, 34, 35, 36:
		return cccAbove
	case 29, 32:
		return cccBelow
	case 103:
		return cccBelowRight
	case 107:
		return cccAboveRight
	case 118:
		return cccBelow
	case 122:
		return cccAbove
	case 129, 132:
		return cccBelow
	case 130:
		return cccAbove
	}
	return ccc
}

// --- Legacy kerning and tracking -------------------------------------------

// applyPairKerning adds kerning between neighboring glyphs carrying the
// kern mask. Marks and default ignorables are skipped over. The kerning
// value is split between the two glyphs.
func applyPairKerning(buf *otbuffer.Buffer, kerner PairKerner, mask uint32, dir otbuffer.Direction) {
	if mask == 0 {
		return
	}
	infos, pos := buf.GlyphInfos(), buf.GlyphPositions()
	skip := func(i int) bool {
		return infos[i].IsMark() || (infos[i].IsDefaultIgnorable() && !infos[i].IsHidden())
	}
	n := len(infos)
	for i := 0; i < n; {
		if infos[i].Mask&mask == 0 || skip(i) {
			i++
			continue
		}
		j := i + 1
		for j < n && skip(j) {
			j++
		}
		if j == n {
			break
		}
		if kern := kerner.KernPair(infos[i].Glyph(), infos[j].Glyph()); kern != 0 {
			k1 := kern >> 1
			k2 := kern - k1
			if dir.IsHorizontal() {
				pos[i].XAdvance += k1
				pos[j].XAdvance += k2
				pos[j].XOffset += k2
			} else {
				pos[i].YAdvance += k1
				pos[j].YAdvance += k2
				pos[j].YOffset += k2
			}
			buf.UnsafeToBreak(i, j+1)
		}
		i = j
	}
}

// applyTracking adds tracking to the first glyph of every grapheme carrying
// the trak mask, centering the glyph in the widened advance.
func applyTracking(buf *otbuffer.Buffer, tracking int32, mask uint32, dir otbuffer.Direction) {
	if tracking == 0 || mask == 0 {
		return
	}
	infos, pos := buf.GlyphInfos(), buf.GlyphPositions()
	offset := tracking / 2
	for start := 0; start < len(infos); {
		end := buf.GroupEnd(start, otbuffer.SameGrapheme)
		if infos[start].Mask&mask != 0 {
			if dir.IsHorizontal() {
				pos[start].XAdvance += tracking
				pos[start].XOffset += offset
			} else {
				pos[start].YAdvance += tracking
				pos[start].YOffset += offset
			}
		}
		start = end
	}
}

// --- Attachments -----------------------------------------------------------

// resolveAttachments turns attachment chains recorded during positioning
// into offsets relative to each glyph's own origin.
func resolveAttachments(buf *otbuffer.Buffer, dir otbuffer.Direction) {
	if buf.ScratchFlags()&otbuffer.ScratchHasGPOSAttachment == 0 {
		return
	}
	pos := buf.GlyphPositions()
	for i := range pos {
		propagateAttachment(pos, i, dir)
	}
}

func propagateAttachment(pos []otbuffer.GlyphPosition, i int, dir otbuffer.Direction) {
	chain, typ := pos[i].AttachChain(), pos[i].AttachType()
	if chain == 0 {
		return
	}
	pos[i].SetAttachment(0, otbuffer.AttachNone)
	j := i + chain
	if j < 0 || j >= len(pos) {
		return
	}
	propagateAttachment(pos, j, dir)
	if typ == otbuffer.AttachCursive {
		if dir.IsHorizontal() {
			pos[i].YOffset += pos[j].YOffset
		} else {
			pos[i].XOffset += pos[j].XOffset
		}
		return
	}
	pos[i].XOffset += pos[j].XOffset
	pos[i].YOffset += pos[j].YOffset
	if j >= i {
		return
	}
	if dir.IsForward() {
		for k := j; k < i; k++ {
			pos[i].XOffset -= pos[k].XAdvance
			pos[i].YOffset -= pos[k].YAdvance
		}
	} else {
		for k := j + 1; k <= i; k++ {
			pos[i].XOffset += pos[k].XAdvance
			pos[i].YOffset += pos[k].YAdvance
		}
	}
}

// --- Fallback mark positioning ---------------------------------------------

type markPositioner struct {
	face    Face
	extents GlyphExtenter
	buf     *otbuffer.Buffer
	dir     otbuffer.Direction
	adjust  bool
}

// positionMarksFallback places marks around their base glyph using glyph
// extents and combining classes. Marks of one class stack outwards.
func positionMarksFallback(face Face, buf *otbuffer.Buffer, dir otbuffer.Direction, adjust bool) {
	mp := markPositioner{face: face, buf: buf, dir: dir, adjust: adjust}
	mp.extents, _ = face.(GlyphExtenter)
	infos := buf.GlyphInfos()
	start := 0
	for i := 1; i < len(infos); i++ {
		if !infos[i].GeneralCategory().IsMark() {
			mp.positionCluster(start, i)
			start = i
		}
	}
	mp.positionCluster(start, len(infos))
}

func (mp *markPositioner) positionCluster(start, end int) {
	if end-start < 2 {
		return
	}
	infos := mp.buf.GlyphInfos()
	for i := start; i < end; i++ {
		if infos[i].GeneralCategory().IsMark() {
			continue
		}
		j := i + 1
		for j < end && infos[j].GeneralCategory().IsMark() {
			j++
		}
		mp.positionAroundBase(i, j)
		i = j - 1
	}
}

func (mp *markPositioner) zeroMarkAdvances(start, end int) {
	infos, pos := mp.buf.GlyphInfos(), mp.buf.GlyphPositions()
	for i := start; i < end; i++ {
		if !infos[i].GeneralCategory().IsMark() {
			continue
		}
		if mp.adjust {
			pos[i].XOffset -= pos[i].XAdvance
			pos[i].YOffset -= pos[i].YAdvance
		}
		pos[i].XAdvance, pos[i].YAdvance = 0, 0
	}
}

func (mp *markPositioner) positionAroundBase(base, end int) {
	buf := mp.buf
	buf.UnsafeToBreak(base, end)
	infos, pos := buf.GlyphInfos(), buf.GlyphPositions()
	if mp.extents == nil {
		mp.zeroMarkAdvances(base+1, end)
		return
	}
	baseExt, ok := mp.extents.GlyphExtents(infos[base].Glyph())
	if !ok {
		mp.zeroMarkAdvances(base+1, end)
		return
	}
	baseExt.YBearing += pos[base].YOffset
	// the advance is a better width than the ink, and works for blank glyphs
	baseExt.XBearing = 0
	baseExt.Width = mp.face.HorizontalAdvance(infos[base].Glyph())

	var xOffset, yOffset int32
	if mp.dir.IsForward() {
		xOffset, yOffset = -pos[base].XAdvance, -pos[base].YAdvance
	}
	lastClass := uint8(255)
	clusterExt := baseExt
	for i := base + 1; i < end; i++ {
		ccc := infos[i].ModifiedCombiningClass()
		if ccc == 0 {
			if mp.dir.IsForward() {
				xOffset -= pos[i].XAdvance
				yOffset -= pos[i].YAdvance
			} else {
				xOffset += pos[i].XAdvance
				yOffset += pos[i].YAdvance
			}
			continue
		}
		class := placementClass(ccc)
		if class != lastClass {
			lastClass = class
			clusterExt = baseExt
		}
		mp.positionMark(&clusterExt, i, class)
		pos[i].XAdvance, pos[i].YAdvance = 0, 0
		pos[i].XOffset += xOffset
		pos[i].YOffset += yOffset
	}
}

// positionMark places mark i against base, growing base by the mark so
// that the next mark of the same class stacks on top.
func (mp *markPositioner) positionMark(base *GlyphExtents, i int, class uint8) {
	infos, pos := mp.buf.GlyphInfos(), mp.buf.GlyphPositions()
	mark, ok := mp.extents.GlyphExtents(infos[i].Glyph())
	if !ok {
		return
	}
	yGap := int32(mp.extents.UnitsPerEm()) / 16
	p := &pos[i]
	p.XOffset, p.YOffset = 0, 0

	center := base.XBearing + (base.Width-mark.Width)/2 - mark.XBearing
	switch class {
	case cccDoubleBelow, cccDoubleAbove:
		switch mp.dir {
		case otbuffer.LeftToRight:
			p.XOffset = base.XBearing + base.Width - mark.Width/2 - mark.XBearing
		case otbuffer.RightToLeft:
			p.XOffset = base.XBearing - mark.Width/2 - mark.XBearing
		default:
			p.XOffset = center
		}
	case cccAttachedBelowLeft, cccBelowLeft, cccAboveLeft:
		p.XOffset = base.XBearing - mark.XBearing
	case cccAttachedAboveRight, cccBelowRight, cccAboveRight:
		p.XOffset = base.XBearing + base.Width - mark.Width - mark.XBearing
	default:
		p.XOffset = center
	}

	switch class {
	case cccDoubleBelow, cccBelowLeft, cccBelow, cccBelowRight:
		base.Height -= yGap
		fallthrough
	case cccAttachedBelowLeft, cccAttachedBelow:
		p.YOffset = base.YBearing + base.Height - mark.YBearing
		// never shift "below" marks up
		if (yGap > 0) == (p.YOffset > 0) {
			base.Height -= p.YOffset
			p.YOffset = 0
		}
		base.Height += mark.Height
	case cccDoubleAbove, cccAboveLeft, cccAbove, cccAboveRight:
		base.YBearing += yGap
		base.Height -= yGap
		fallthrough
	case cccAttachedAbove, cccAttachedAboveRight:
		p.YOffset = base.YBearing - (mark.YBearing + mark.Height)
		// do not shift "above" marks down too much
		if (yGap > 0) != (p.YOffset > 0) {
			correction := -p.YOffset / 2
			base.YBearing += correction
			base.Height -= correction
			p.YOffset += correction
		}
		base.YBearing -= mark.Height
		base.Height += mark.Height
	}
}
