package otbuffer

// Reverse reverses the order of all records (and positions, if present).
// Cluster values are not touched; use ReverseClusters to keep clusters in
// logical order.
func (b *Buffer) Reverse() {
	b.ReverseRange(0, len(b.info))
}

// ReverseRange reverses the records in [start, end).
func (b *Buffer) ReverseRange(start, end int) {
	if !b.successful {
		return
	}
	assert(start >= 0 && end <= len(b.info), "ReverseRange out of bounds")
	if end-start < 2 {
		return
	}
	for i, j := start, end-1; i < j; i, j = i+1, j-1 {
		b.info[i], b.info[j] = b.info[j], b.info[i]
	}
	if b.havePositions {
		for i, j := start, end-1; i < j; i, j = i+1, j-1 {
			b.pos[i], b.pos[j] = b.pos[j], b.pos[i]
		}
	}
}

// Sort stably sorts the records in [start, end) by less. Whenever a record
// moves, the clusters it moves across are merged with it, so cluster values
// stay monotone.
func (b *Buffer) Sort(start, end int, less func(a, b *GlyphInfo) bool) {
	if !b.successful {
		return
	}
	assert(start >= 0 && end <= len(b.info), "Sort range out of bounds")
	for i := start + 1; i < end; i++ {
		j := i
		for j > start && less(&b.info[i], &b.info[j-1]) {
			j--
		}
		if i == j {
			continue
		}
		b.MergeClusters(j, i+1)
		t := b.info[i]
		copy(b.info[j+1:i+1], b.info[j:i])
		b.info[j] = t
		if b.havePositions {
			p := b.pos[i]
			copy(b.pos[j+1:i+1], b.pos[j:i])
			b.pos[j] = p
		}
	}
}

// NormalizeGlyphs brings the glyphs of each cluster into a canonical order
// after positioning: the cluster's total advance is moved to its first glyph
// (last glyph for backward directions), the other glyphs are turned into
// zero-advance glyphs with equivalent offsets and then sorted by glyph index.
// Two runs which differ only in mark glyph order normalize to the same
// result.
func (b *Buffer) NormalizeGlyphs() {
	if !b.successful {
		return
	}
	assert(b.havePositions, "NormalizeGlyphs needs positions")
	assert(b.contentType == ContentGlyphs || len(b.info) == 0, "NormalizeGlyphs needs glyph content")
	backward := b.props.Direction.IsBackward()
	for start := 0; start < len(b.info); {
		end := b.GroupEnd(start, SameCluster)
		b.normalizeCluster(start, end, backward)
		start = end
	}
}

func (b *Buffer) normalizeCluster(start, end int, backward bool) {
	pos := b.pos
	var totalX, totalY int32
	for i := start; i < end; i++ {
		totalX += pos[i].XAdvance
		totalY += pos[i].YAdvance
	}
	var x, y int32
	for i := start; i < end; i++ {
		pos[i].XOffset += x
		pos[i].YOffset += y
		x += pos[i].XAdvance
		y += pos[i].YAdvance
		pos[i].XAdvance = 0
		pos[i].YAdvance = 0
	}
	if backward {
		pos[end-1].XAdvance = totalX
		pos[end-1].YAdvance = totalY
		b.sortByGlyph(start, end-1)
		return
	}
	pos[start].XAdvance += totalX
	pos[start].YAdvance += totalY
	for i := start + 1; i < end; i++ {
		pos[i].XOffset -= totalX
		pos[i].YOffset -= totalY
	}
	b.sortByGlyph(start+1, end)
}

// sortByGlyph is a stable insertion sort by glyph index which moves positions
// along and leaves clusters alone.
func (b *Buffer) sortByGlyph(start, end int) {
	for i := start + 1; i < end; i++ {
		info, pos := b.info[i], b.pos[i]
		j := i
		for ; j > start && b.info[j-1].Codepoint > info.Codepoint; j-- {
			b.info[j], b.pos[j] = b.info[j-1], b.pos[j-1]
		}
		b.info[j], b.pos[j] = info, pos
	}
}

// --- Default ignorables ----------------------------------------------------

// ZeroWidthDefaultIgnorables sets the advances and offsets of default
// ignorables to zero, unless they are to be preserved.
func (b *Buffer) ZeroWidthDefaultIgnorables() {
	if !b.successful || b.scratch&ScratchHasDefaultIgnorables == 0 ||
		b.Flags&FlagPreserveDefaultIgnorables != 0 || !b.havePositions {
		return
	}
	for i := range b.info {
		if b.info[i].IsDefaultIgnorable() {
			b.pos[i].XAdvance, b.pos[i].YAdvance = 0, 0
			b.pos[i].XOffset, b.pos[i].YOffset = 0, 0
		}
	}
}

// HideDefaultIgnorables replaces default ignorables by an invisible glyph
// or removes them.
//
// FlagPreserveDefaultIgnorables takes precedence over
// FlagRemoveDefaultIgnorables: if both are set, ignorables are kept. With
// FlagRemoveDefaultIgnorables they are deleted, merging their clusters into
// neighbors. Otherwise they are replaced by b.Invisible, or by space if
// b.Invisible is 0; without either glyph they are deleted.
func (b *Buffer) HideDefaultIgnorables(space GlyphIndex, haveSpace bool) {
	if !b.successful || b.Flags&FlagPreserveDefaultIgnorables != 0 || b.scratch&ScratchHasDefaultIgnorables == 0 {
		return
	}
	i := 0
	for ; i < len(b.info); i++ {
		if b.info[i].IsDefaultIgnorable() {
			break
		}
	}
	if i == len(b.info) {
		return
	}
	invisible, ok := b.Invisible, b.Invisible != 0
	if !ok {
		invisible, ok = space, haveSpace
	}
	if b.Flags&FlagRemoveDefaultIgnorables == 0 && ok {
		for ; i < len(b.info); i++ {
			if b.info[i].IsDefaultIgnorable() {
				b.info[i].Codepoint = rune(invisible)
			}
		}
		return
	}
	b.DeleteGlyphsInplace(func(info *GlyphInfo) bool {
		return info.IsDefaultIgnorable()
	})
}

// DuplicateGlyph inserts count copies of record i directly after it, outside
// of a rewrite pass. Copies share the cluster of the original; positions are
// copied along if present.
func (b *Buffer) DuplicateGlyph(i, count int) bool {
	assert(!b.haveOutput, "DuplicateGlyph during a rewrite pass")
	assert(i >= 0 && i < len(b.info), "DuplicateGlyph index out of range")
	if count <= 0 {
		return true
	}
	n := len(b.info)
	if !b.ensure(n + count) {
		return false
	}
	b.info = b.info[:n+count]
	copy(b.info[i+1+count:], b.info[i+1:n])
	for k := 1; k <= count; k++ {
		b.info[i+k] = b.info[i]
	}
	if b.havePositions {
		b.pos = b.pos[:n+count]
		copy(b.pos[i+1+count:], b.pos[i+1:n])
		for k := 1; k <= count; k++ {
			b.pos[i+k] = b.pos[i]
		}
	}
	return true
}
