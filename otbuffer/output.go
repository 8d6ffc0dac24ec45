package otbuffer

// Rewrite passes.
//
// A pass reads the input records from the cursor on and writes results to
// the output records. Both are separately owned slices; SwapBuffers exchanges
// them when the pass is complete.
//
//   1→1   ReplaceGlyph
//   1→N   ReplaceGlyphs(1, …) or OutputGlyph … SkipGlyph
//   N→1   ReplaceGlyphs(N, []GlyphIndex{g})
//   1→0   DeleteGlyph

// ClearOutput starts a rewrite pass. Positions become invalid.
func (b *Buffer) ClearOutput() {
	b.haveOutput = true
	b.havePositions = false
	b.idx = 0
	b.outInfo = b.outInfo[:0]
}

// HaveOutput reports whether a rewrite pass is in progress.
func (b *Buffer) HaveOutput() bool {
	return b.haveOutput
}

// Idx returns the input cursor.
func (b *Buffer) Idx() int {
	return b.idx
}

// SetIdx moves the input cursor outside of a rewrite pass.
func (b *Buffer) SetIdx(i int) {
	assert(!b.haveOutput, "cannot set cursor during a rewrite pass, use MoveTo")
	assert(i >= 0 && i <= len(b.info), "cursor out of range")
	b.idx = i
}

// OutLen returns the number of records written in the current pass.
func (b *Buffer) OutLen() int {
	return len(b.outInfo)
}

// OutInfos returns the records written so far in the current pass.
func (b *Buffer) OutInfos() []GlyphInfo {
	return b.outInfo
}

// Cur returns the input record at offset from the cursor.
func (b *Buffer) Cur(offset int) *GlyphInfo {
	return &b.info[b.idx+offset]
}

// CurPos returns the position at offset from the cursor.
func (b *Buffer) CurPos(offset int) *GlyphPosition {
	return &b.pos[b.idx+offset]
}

// Prev returns the last record written in the current pass, or the first
// input record if nothing has been written yet.
func (b *Buffer) Prev() *GlyphInfo {
	if len(b.outInfo) > 0 {
		return &b.outInfo[len(b.outInfo)-1]
	}
	return &b.info[0]
}

// BacktrackLen is the number of records available before the cursor.
func (b *Buffer) BacktrackLen() int {
	if b.haveOutput {
		return len(b.outInfo)
	}
	return b.idx
}

// LookaheadLen is the number of records from the cursor to the end.
func (b *Buffer) LookaheadLen() int {
	return len(b.info) - b.idx
}

// NextGlyph copies the record at the cursor unchanged to the output and
// advances the cursor. Outside of a pass it only advances.
func (b *Buffer) NextGlyph() bool {
	if b.haveOutput {
		if !b.ensure(len(b.outInfo) + 1) {
			return false
		}
		b.outInfo = append(b.outInfo, b.info[b.idx])
	}
	b.idx++
	return true
}

// NextGlyphs copies n records unchanged to the output.
func (b *Buffer) NextGlyphs(n int) bool {
	if n == 0 {
		return true
	}
	assert(b.idx+n <= len(b.info), "NextGlyphs beyond end of input")
	if b.haveOutput {
		if !b.ensure(len(b.outInfo) + n) {
			return false
		}
		b.outInfo = append(b.outInfo, b.info[b.idx:b.idx+n]...)
	}
	b.idx += n
	return true
}

// TruncateOutput drops the output records from n on.
func (b *Buffer) TruncateOutput(n int) {
	assert(b.haveOutput && n >= 0 && n <= len(b.outInfo), "TruncateOutput out of range")
	b.outInfo = b.outInfo[:n]
}

// SkipGlyph advances the cursor without output.
func (b *Buffer) SkipGlyph() {
	b.idx++
}

// ReplaceGlyph replaces the record at the cursor by glyph g, keeping all
// other fields.
func (b *Buffer) ReplaceGlyph(g GlyphIndex) bool {
	if !b.ensure(len(b.outInfo) + 1) {
		return false
	}
	info := b.info[b.idx]
	info.Codepoint = rune(g)
	b.outInfo = append(b.outInfo, info)
	b.idx++
	return true
}

// ReplaceGlyphs consumes numIn records at the cursor and outputs one record
// per glyph. The consumed records' clusters are merged first; every output
// record is a copy of the first consumed record (its merged cluster and mask)
// with a new glyph.
func (b *Buffer) ReplaceGlyphs(numIn int, glyphs []GlyphIndex) bool {
	assert(numIn >= 0 && b.idx+numIn <= len(b.info), "ReplaceGlyphs beyond end of input")
	if !b.ensure(len(b.outInfo) + len(glyphs)) {
		return false
	}
	b.MergeClusters(b.idx, b.idx+numIn)
	var orig GlyphInfo
	if b.idx < len(b.info) {
		orig = b.info[b.idx]
	} else {
		orig = *b.Prev()
	}
	for _, g := range glyphs {
		info := orig
		info.Codepoint = rune(g)
		b.outInfo = append(b.outInfo, info)
	}
	b.idx += numIn
	return true
}

// OutputGlyph writes glyph g without consuming input. The new record copies
// the record at the cursor, or the last output record at the end of input.
func (b *Buffer) OutputGlyph(g GlyphIndex) bool {
	return b.ReplaceGlyphs(0, []GlyphIndex{g})
}

// OutputInfo writes a complete record without consuming input.
func (b *Buffer) OutputInfo(info GlyphInfo) bool {
	if !b.ensure(len(b.outInfo) + 1) {
		return false
	}
	b.outInfo = append(b.outInfo, info)
	return true
}

// CopyGlyph duplicates the record at the cursor into the output without
// consuming it.
func (b *Buffer) CopyGlyph() bool {
	return b.OutputInfo(b.info[b.idx])
}

// DeleteGlyph drops the record at the cursor. If it was the last record of
// its cluster, the cluster is merged into a neighbor so that no source
// character loses its mapping: backward into the output if possible,
// forward otherwise.
func (b *Buffer) DeleteGlyph() {
	cluster := b.info[b.idx].Cluster
	outLen := len(b.outInfo)
	if b.idx+1 < len(b.info) && cluster == b.info[b.idx+1].Cluster ||
		outLen > 0 && cluster == b.outInfo[outLen-1].Cluster {
		b.SkipGlyph()
		return
	}
	if outLen > 0 {
		if cluster < b.outInfo[outLen-1].Cluster {
			mask := b.info[b.idx].Mask
			old := b.outInfo[outLen-1].Cluster
			for i := outLen; i > 0 && b.outInfo[i-1].Cluster == old; i-- {
				b.setCluster(&b.outInfo[i-1], cluster, mask)
			}
		}
		b.SkipGlyph()
		return
	}
	if b.idx+1 < len(b.info) {
		b.MergeClusters(b.idx, b.idx+2)
	}
	b.SkipGlyph()
}

// DeleteGlyphsInplace removes all records matching filter without a rewrite
// pass, merging clusters the way DeleteGlyph does. Positions follow their
// records.
func (b *Buffer) DeleteGlyphsInplace(filter func(*GlyphInfo) bool) {
	if !b.successful {
		return
	}
	j := 0
	for i := 0; i < len(b.info); i++ {
		if filter(&b.info[i]) {
			cluster := b.info[i].Cluster
			if i+1 < len(b.info) && cluster == b.info[i+1].Cluster {
				continue
			}
			if j > 0 {
				if cluster < b.info[j-1].Cluster {
					mask := b.info[i].Mask
					old := b.info[j-1].Cluster
					for k := j; k > 0 && b.info[k-1].Cluster == old; k-- {
						b.setCluster(&b.info[k-1], cluster, mask)
					}
				}
				continue
			}
			if i+1 < len(b.info) {
				b.MergeClusters(i, i+2)
			}
			continue
		}
		if j != i {
			b.info[j] = b.info[i]
			if b.havePositions {
				b.pos[j] = b.pos[i]
			}
		}
		j++
	}
	b.info = b.info[:j]
	if b.havePositions {
		b.pos = b.pos[:j]
	}
}

// MoveTo moves the pass so that exactly i records are in the output. Moving
// forward copies input records, moving backward returns output records to
// the input in front of the cursor. i counts in the combined sequence
// output+remaining input.
func (b *Buffer) MoveTo(i int) bool {
	if !b.haveOutput {
		assert(i <= len(b.info), "MoveTo beyond end of buffer")
		b.idx = i
		return true
	}
	if !b.successful {
		return false
	}
	outLen := len(b.outInfo)
	assert(i <= outLen+len(b.info)-b.idx, "MoveTo beyond end of buffer")
	if outLen < i {
		count := i - outLen
		if !b.ensure(outLen + count) {
			return false
		}
		b.outInfo = append(b.outInfo, b.info[b.idx:b.idx+count]...)
		b.idx += count
	} else if outLen > i {
		count := outLen - i
		if b.idx < count && !b.shiftForward(count-b.idx) {
			return false
		}
		assert(b.idx >= count, "MoveTo could not make room")
		b.idx -= count
		copy(b.info[b.idx:], b.outInfo[i:outLen])
		b.outInfo = b.outInfo[:i]
	}
	return true
}

// shiftForward opens a gap of count records in front of the cursor.
func (b *Buffer) shiftForward(count int) bool {
	assert(b.haveOutput, "shiftForward outside of a rewrite pass")
	if !b.ensure(len(b.info) + count) {
		return false
	}
	b.MaxOps -= len(b.info) - b.idx
	if b.MaxOps < 0 {
		b.fail("operation limit exceeded")
		return false
	}
	old := len(b.info)
	b.info = b.info[:old+count]
	copy(b.info[b.idx+count:], b.info[b.idx:old])
	if b.idx+count > old {
		// the gap extends past the old end; clear what was never written
		for k := old; k < b.idx+count; k++ {
			b.info[k] = GlyphInfo{}
		}
	}
	b.idx += count
	return true
}

// SwapBuffers completes a rewrite pass: the rest of the input is copied to
// the output, the output becomes the new input and the generation counter is
// incremented. If the buffer is in the failed state the pass is abandoned and
// the input is left as it was.
func (b *Buffer) SwapBuffers() {
	assert(b.haveOutput, "SwapBuffers without ClearOutput")
	b.haveOutput = false
	if !b.successful || !b.copyRest() {
		b.outInfo = b.outInfo[:0]
		b.idx = 0
		return
	}
	b.info, b.outInfo = b.outInfo, b.info[:0]
	b.idx = 0
	b.generation++
}

func (b *Buffer) copyRest() bool {
	n := len(b.info) - b.idx
	if n == 0 {
		return true
	}
	if !b.ensure(len(b.outInfo) + n) {
		return false
	}
	b.outInfo = append(b.outInfo, b.info[b.idx:]...)
	b.idx = len(b.info)
	return true
}

// Sync is a synonym for SwapBuffers.
func (b *Buffer) Sync() {
	b.SwapBuffers()
}
