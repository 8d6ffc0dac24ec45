package otshape

import (
	"fmt"

	"github.com/npillmayer/otshaping/otbuffer"
)

// Buffer limits during shaping scale with the input length.
const (
	maxLenFactor = 64
	maxLenMin    = 16384
	maxOpsFactor = 1024
	maxOpsMin    = 16384
)

// shapeRun carries the state of one shaping run.
type shapeRun struct {
	plan   *Plan
	face   Face
	buf    *otbuffer.Buffer
	uf     otbuffer.UnicodeFuncs
	target otbuffer.Direction // direction requested by the client
	dir    otbuffer.Direction // working direction, native to the script
}

// Shape runs the complete pipeline on a buffer holding Unicode text: it
// prepares characters, maps them to glyphs, substitutes and positions. The
// buffer's segment properties must equal the plan's. Afterwards the buffer
// holds glyphs in visual order.
//
// face may differ from the face the plan was compiled for as long as both
// share the same font tables, e.g. faces at different sizes.
func (p *Plan) Shape(face Face, buf *otbuffer.Buffer) error {
	return p.ShapeWith(face, buf, otbuffer.DefaultUnicode)
}

// ShapeWith is Shape with an explicit Unicode property provider.
func (p *Plan) ShapeWith(face Face, buf *otbuffer.Buffer, uf otbuffer.UnicodeFuncs) error {
	if face == nil {
		return ErrNoFace
	}
	if buf.Len() == 0 {
		return nil
	}
	if buf.ContentType() != otbuffer.ContentUnicode {
		return errShaper("buffer to shape does not hold Unicode text")
	}
	if !buf.Props().Equal(p.Props) {
		return errShaper(fmt.Sprintf("buffer properties %s do not match plan %s", buf.Props(), p.Props))
	}
	if uf == nil {
		uf = otbuffer.DefaultUnicode
	}
	run := &shapeRun{
		plan:   p,
		face:   face,
		buf:    buf,
		uf:     uf,
		target: buf.Props().Direction,
		dir:    buf.Props().Direction,
	}
	run.shape()
	if !buf.AllocationSuccessful() {
		tracer().Errorf("shaping aborted: buffer allocation failed")
		return ErrAllocationFailed
	}
	return nil
}

func (r *shapeRun) shape() {
	buf := r.buf
	buf.SetScratchFlags(otbuffer.ScratchDefault)
	n := buf.Len()
	buf.MaxOps = max(n*maxOpsFactor, maxOpsMin)
	buf.MaxLen = max(n*maxLenFactor, maxLenMin)
	defer func() {
		buf.MaxOps = otbuffer.MaxOpsDefault
		buf.MaxLen = otbuffer.MaxLenDefault
	}()

	buf.ResetMasks(r.plan.Map.GlobalMask)
	buf.SetUnicodeProps(r.uf)
	if _, ok := r.face.NominalGlyph(otbuffer.DottedCircle); ok {
		buf.InsertDottedCircle(r.uf)
	}
	buf.FormClusters()
	r.ensureNativeDirection()

	if hook, ok := r.plan.Engine.(ShapingEnginePreprocessHook); ok {
		hook.PreprocessRun(r.runContext())
	}

	r.substituteBeforePosition()
	if !buf.AllocationSuccessful() {
		return
	}
	r.position()
	r.substituteAfterPosition()
	propagateFlags(buf)
}

func (r *shapeRun) runContext() runContext {
	return runContext{buf: r.buf, face: r.face}
}

// ensureNativeDirection reverses the buffer if the requested horizontal
// direction is not the script's native one. Digit-only runs of RTL scripts
// stay left-to-right.
func (r *shapeRun) ensureNativeDirection() {
	dir := r.dir
	if !dir.IsHorizontal() {
		return
	}
	native := otbuffer.ScriptHorizontalDirection(r.buf.Props().Script)
	if native == otbuffer.RightToLeft && dir == otbuffer.LeftToRight {
		var number, letter bool
		for _, info := range r.buf.GlyphInfos() {
			gc := info.GeneralCategory()
			if gc.IsLetter() {
				letter = true
				break
			}
			if gc == otbuffer.DecimalNumber || isRegionalIndicator(info.Codepoint) {
				number = true
			}
		}
		if number && !letter {
			native = otbuffer.LeftToRight
		}
	}
	if native != otbuffer.DirectionInvalid && native != dir {
		r.buf.ReverseGraphemes()
		r.dir = dir.Reverse()
	}
}

func isRegionalIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

// --- Substitution ----------------------------------------------------------

func (r *shapeRun) substituteBeforePosition() {
	r.rotateChars()
	normalize(r.plan, r.face, r.buf, r.uf)
	if !r.buf.AllocationSuccessful() {
		return
	}
	r.setupMasks()
	r.mapGlyphs()
	r.setGlyphClasses()
	if hook, ok := r.plan.Engine.(ShapingEnginePreGSUBHook); ok {
		hook.PrepareGSUB(r.runContext())
	}
	r.plan.Substitute(r.face, r.buf)
	if r.plan.FallbackGlyphClasses {
		return
	}
	if classer, ok := r.face.(GlyphClasser); ok {
		refreshGlyphClasses(r.buf, classer)
	}
}

// rotateChars mirrors characters for backward directions and replaces
// characters by their vertical forms if the font has no 'vert' feature.
func (r *shapeRun) rotateChars() {
	infos := r.buf.GlyphInfos()
	if r.target.IsBackward() {
		for i := range infos {
			u := infos[i].Codepoint
			if m := r.uf.Mirroring(u); m != u && r.hasGlyph(m) {
				infos[i].Codepoint = m
			} else {
				infos[i].Mask |= r.plan.RtlmMask
			}
		}
	}
	if r.target.IsVertical() && !r.plan.HasVert {
		for i := range infos {
			if v, ok := verticalForms[infos[i].Codepoint]; ok && r.hasGlyph(v) {
				infos[i].Codepoint = v
			}
		}
	}
}

func (r *shapeRun) hasGlyph(u rune) bool {
	_, ok := r.face.NominalGlyph(u)
	return ok
}

// verticalForms maps punctuation to the presentation forms of the CJK
// Compatibility Forms and Vertical Forms blocks.
var verticalForms = map[rune]rune{
	0x2013: 0xFE32, 0x2014: 0xFE31, 0x2025: 0xFE30, 0x2026: 0xFE19,
	0x3001: 0xFE11, 0x3002: 0xFE12, 0x3008: 0xFE3F, 0x3009: 0xFE40,
	0x300A: 0xFE3D, 0x300B: 0xFE3E, 0x300C: 0xFE41, 0x300D: 0xFE42,
	0x300E: 0xFE43, 0x300F: 0xFE44, 0x3010: 0xFE3B, 0x3011: 0xFE3C,
	0x3014: 0xFE39, 0x3015: 0xFE3A, 0x3016: 0xFE17, 0x3017: 0xFE18,
	0xFE4F: 0xFE34, 0xFF01: 0xFE15, 0xFF08: 0xFE35, 0xFF09: 0xFE36,
	0xFF0C: 0xFE10, 0xFF1A: 0xFE13, 0xFF1B: 0xFE14, 0xFF1F: 0xFE16,
	0xFF3B: 0xFE47, 0xFF3D: 0xFE48, 0xFF3F: 0xFE33, 0xFF5B: 0xFE37,
	0xFF5D: 0xFE38,
}

func (r *shapeRun) setupMasks() {
	r.setupFractionMasks()
	if hook, ok := r.plan.Engine.(ShapingEngineMaskHook); ok {
		hook.SetupMasks(r.runContext())
	}
	for _, f := range r.plan.userFeatures {
		if f.IsGlobal() {
			continue
		}
		mask, shift := r.plan.Map.Mask(f.Tag)
		r.buf.SetMasks(f.Value<<shift, mask, f.Start, f.End)
	}
}

// setupFractionMasks marks digit sequences around U+2044 FRACTION SLASH for
// the numr, dnom and frac features.
func (r *shapeRun) setupFractionMasks() {
	p := r.plan
	if r.buf.ScratchFlags()&otbuffer.ScratchHasNonASCII == 0 || !p.HasFrac {
		return
	}
	pre, post := p.NumrMask|p.FracMask, p.FracMask|p.DnomMask
	if r.dir.IsBackward() {
		pre, post = post, pre
	}
	infos := r.buf.GlyphInfos()
	isDigit := func(i int) bool {
		return infos[i].GeneralCategory() == otbuffer.DecimalNumber
	}
	count := len(infos)
	for i := 0; i < count; i++ {
		if infos[i].Codepoint != 0x2044 {
			continue
		}
		start, end := i, i+1
		for start > 0 && isDigit(start-1) {
			start--
		}
		for end < count && isDigit(end) {
			end++
		}
		r.buf.UnsafeToBreak(start, end)
		for j := start; j < i; j++ {
			infos[j].Mask |= pre
		}
		infos[i].Mask |= p.FracMask
		for j := i + 1; j < end; j++ {
			infos[j].Mask |= post
		}
		i = end - 1
	}
}

// mapGlyphs replaces every codepoint by its nominal glyph. Characters
// without a glyph get the buffer's NotFound glyph.
func (r *shapeRun) mapGlyphs() {
	infos := r.buf.GlyphInfos()
	for i := range infos {
		gid, ok := r.face.NominalGlyph(infos[i].Codepoint)
		if !ok {
			gid = r.buf.NotFound
		}
		infos[i].Codepoint = rune(gid)
	}
	r.buf.SetContentType(otbuffer.ContentGlyphs)
}

func (r *shapeRun) setGlyphClasses() {
	if r.plan.FallbackGlyphClasses {
		synthesizeGlyphClasses(r.buf)
		return
	}
	if classer, ok := r.face.(GlyphClasser); ok {
		infos := r.buf.GlyphInfos()
		for i := range infos {
			infos[i].SetGlyphProps(glyphPropsOf(classer.GlyphClass(infos[i].Glyph())))
		}
	}
}

// synthesizeGlyphClasses classifies non-spacing marks as marks and
// everything else as base glyphs. Default ignorables are never marks.
func synthesizeGlyphClasses(buf *otbuffer.Buffer) {
	infos := buf.GlyphInfos()
	for i := range infos {
		props := otbuffer.GlyphPropsBaseGlyph
		if infos[i].GeneralCategory() == otbuffer.NonSpacingMark && !infos[i].IsDefaultIgnorable() {
			props = otbuffer.GlyphPropsMark
		}
		infos[i].SetGlyphProps(props)
	}
}

// refreshGlyphClasses re-reads GDEF classes after substitution, keeping
// the substitution state bits.
func refreshGlyphClasses(buf *otbuffer.Buffer, classer GlyphClasser) {
	infos := buf.GlyphInfos()
	for i := range infos {
		state := infos[i].GlyphProps() & otbuffer.GlyphPropsPreserve
		if state == 0 {
			continue
		}
		infos[i].SetGlyphProps(glyphPropsOf(classer.GlyphClass(infos[i].Glyph())) | state)
	}
}

func glyphPropsOf(class GlyphClass) otbuffer.GlyphProps {
	switch class {
	case ClassBase:
		return otbuffer.GlyphPropsBaseGlyph
	case ClassLigature:
		return otbuffer.GlyphPropsLigature
	case ClassMark:
		return otbuffer.GlyphPropsMark
	}
	return 0
}

func (r *shapeRun) substituteAfterPosition() {
	space, haveSpace := r.face.NominalGlyph(' ')
	r.buf.HideDefaultIgnorables(space, haveSpace)
	if hook, ok := r.plan.Engine.(ShapingEnginePostprocessHook); ok {
		hook.PostprocessRun(r.runContext())
	}
}

// Substitute applies the substitution stages of the plan to a buffer of
// glyphs: morx if the plan selected it, GSUB otherwise. Pause hooks run
// after the stage they close. Lookup errors count as "not applied";
// allocation failure stops all remaining stages.
func (p *Plan) Substitute(face Face, buf *otbuffer.Buffer) {
	if p.ApplyMorx {
		if morx, ok := face.(MorxApplier); ok {
			if err := morx.ApplyMorx(buf); err != nil {
				tracer().Debugf("morx failed: %v", err)
			}
			return
		}
	}
	applier, _ := face.(LookupApplier)
	p.applyStages(LayoutGSUB, face, buf, applier)
}

// Position applies the GPOS stages of the plan in place. Positions must
// have been initialized.
func (p *Plan) Position(face Face, buf *otbuffer.Buffer) {
	applier, _ := face.(LookupApplier)
	p.applyStages(LayoutGPOS, face, buf, applier)
}

func (p *Plan) applyStages(table LayoutTable, face Face, buf *otbuffer.Buffer, applier LookupApplier) {
	ctx := &ApplyContext{Table: table, Buffer: buf, Face: face}
	run := runContext{buf: buf, face: face}
	for _, stage := range p.Map.Stages(table) {
		if applier != nil {
			for _, lookup := range stage.Lookups {
				if !buf.AllocationSuccessful() {
					return
				}
				ctx.Lookup = lookup
				if table == LayoutGSUB {
					applyLookupRewriting(ctx, applier)
				} else {
					applyLookupInPlace(ctx, applier)
				}
			}
		}
		if !buf.AllocationSuccessful() {
			return
		}
		if stage.Pause != nil {
			if err := stage.Pause(pauseContext{run: run}); err != nil {
				tracer().Debugf("%s pause hook failed: %v", table, err)
			}
		}
	}
}

// applyLookupRewriting runs one lookup over the buffer in a rewrite pass.
func applyLookupRewriting(ctx *ApplyContext, applier LookupApplier) {
	buf := ctx.Buffer
	buf.ClearOutput()
	for buf.Idx() < buf.Len() && buf.AllocationSuccessful() {
		if ctx.MayMatch(buf.Cur(0)) && tryLookup(ctx, applier) {
			continue
		}
		buf.NextGlyph()
	}
	buf.SwapBuffers()
}

// applyLookupInPlace runs one lookup over the buffer without rewriting.
func applyLookupInPlace(ctx *ApplyContext, applier LookupApplier) {
	buf := ctx.Buffer
	buf.SetIdx(0)
	for buf.Idx() < buf.Len() && buf.AllocationSuccessful() {
		idx := buf.Idx()
		if ctx.MayMatch(buf.Cur(0)) && tryLookup(ctx, applier) && buf.Idx() > idx {
			continue
		}
		buf.SetIdx(idx + 1)
	}
	buf.SetIdx(0)
}

func tryLookup(ctx *ApplyContext, applier LookupApplier) bool {
	applied, err := applier.ApplyLookup(ctx)
	if err != nil {
		tracer().Debugf("%s lookup %d failed at %d: %v", ctx.Table, ctx.Lookup.Index, ctx.Buffer.Idx(), err)
		return false
	}
	return applied
}

// --- Positioning -----------------------------------------------------------

func (r *shapeRun) position() {
	buf := r.buf
	buf.ClearPositions()
	r.positionDefault()
	r.positionComplex()
	if r.dir.IsBackward() {
		buf.Reverse()
	}
}

func (r *shapeRun) positionDefault() {
	infos := r.buf.GlyphInfos()
	pos := r.buf.GlyphPositions()
	horizontal := r.dir.IsHorizontal()
	for i := range infos {
		adv := r.face.HorizontalAdvance(infos[i].Glyph())
		if horizontal {
			pos[i].XAdvance = adv
		} else {
			// no vertical metrics: advance by the horizontal advance
			pos[i].YAdvance = -adv
		}
	}
}

func (r *shapeRun) positionComplex() {
	p, buf := r.plan, r.buf
	// Without GPOS, zeroed marks of forward runs keep hanging over the
	// previous glyph.
	adjust := p.AdjustMarkPositioningWhenZeroing && r.dir.IsForward()

	if p.ZeroMarks && p.ZeroMarksMode == ZeroWidthMarksByGDEFEarly {
		zeroMarkWidthsByGDEF(buf, adjust)
	}
	switch {
	case p.ApplyGPOS:
		p.Position(r.face, buf)
	case p.ApplyKerx, p.ApplyKern:
		if kerner, ok := r.face.(PairKerner); ok {
			applyPairKerning(buf, kerner, p.KernMask, r.dir)
		}
	}
	if p.ApplyTrak {
		if tracker, ok := r.face.(Tracker); ok {
			applyTracking(buf, tracker.Tracking(), p.TrakMask, r.dir)
		}
	}
	if p.ZeroMarks && p.ZeroMarksMode == ZeroWidthMarksByGDEFLate {
		zeroMarkWidthsByGDEF(buf, adjust)
	}

	if p.Options.ZeroWidthInvisibles {
		zeroWidthInvisibles(buf)
	} else {
		buf.ZeroWidthDefaultIgnorables()
	}
	resolveAttachments(buf, r.dir)

	if p.FallbackMarkPositioning {
		positionMarksFallback(r.face, buf, r.dir, adjust)
	}
}

func zeroMarkWidthsByGDEF(buf *otbuffer.Buffer, adjustOffsets bool) {
	infos, pos := buf.GlyphInfos(), buf.GlyphPositions()
	for i := range infos {
		if !infos[i].IsMark() {
			continue
		}
		if adjustOffsets {
			pos[i].XOffset -= pos[i].XAdvance
			pos[i].YOffset -= pos[i].YAdvance
		}
		pos[i].XAdvance, pos[i].YAdvance = 0, 0
	}
}

// zeroWidthInvisibles zeroes default ignorables regardless of the buffer's
// preserve flag.
func zeroWidthInvisibles(buf *otbuffer.Buffer) {
	if buf.ScratchFlags()&otbuffer.ScratchHasDefaultIgnorables == 0 {
		return
	}
	infos, pos := buf.GlyphInfos(), buf.GlyphPositions()
	for i := range infos {
		if infos[i].IsDefaultIgnorable() {
			pos[i] = otbuffer.GlyphPosition{}
		}
	}
}

// propagateFlags gives every glyph of a cluster the union of the cluster's
// glyph flags.
func propagateFlags(buf *otbuffer.Buffer) {
	if buf.ScratchFlags()&otbuffer.ScratchHasGlyphFlags == 0 {
		return
	}
	flipTatweel := buf.Flags&otbuffer.FlagProduceSafeToInsertTatweel != 0
	clearConcat := buf.Flags&otbuffer.FlagProduceUnsafeToConcat == 0
	infos := buf.GlyphInfos()
	for start := 0; start < len(infos); {
		end := buf.GroupEnd(start, otbuffer.SameCluster)
		var mask otbuffer.GlyphMask
		for i := start; i < end; i++ {
			mask |= infos[i].Mask & otbuffer.GlyphFlagDefined
		}
		if flipTatweel {
			if mask&otbuffer.GlyphUnsafeToBreak != 0 {
				mask &^= otbuffer.GlyphSafeToInsertTatweel
			}
			if mask&otbuffer.GlyphSafeToInsertTatweel != 0 {
				mask |= otbuffer.GlyphUnsafeToBreak | otbuffer.GlyphUnsafeToConcat
			}
		}
		if clearConcat {
			mask &^= otbuffer.GlyphUnsafeToConcat
		}
		for i := start; i < end; i++ {
			infos[i].Mask = infos[i].Mask&^otbuffer.GlyphFlagDefined | mask
		}
		start = end
	}
}
