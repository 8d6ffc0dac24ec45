package otbuffer

import (
	"unicode/utf8"
)

func (b *Buffer) assertUnicodeIngest() {
	assert(b.contentType == ContentUnicode || (b.contentType == ContentInvalid && len(b.info) == 0),
		"cannot add text to a buffer holding glyphs")
}

// Add appends one character with the given cluster value. It is a
// precondition violation to add to a buffer which holds glyphs.
func (b *Buffer) Add(r rune, cluster uint32) {
	b.assertUnicodeIngest()
	if !b.ensure(len(b.info) + 1) {
		return
	}
	b.info = append(b.info, GlyphInfo{Codepoint: r, Cluster: cluster})
	b.contentType = ContentUnicode
}

// AddUTF8 decodes text[itemOffset:itemOffset+itemLength] and appends the
// characters, each with the byte offset of its first byte as cluster. A
// negative itemLength means "up to the end of text".
//
// Every ill-formed byte is replaced by one b.Replacement character.
// Up to ContextLength characters before and after the item are kept as
// context. Pre-context is only installed if the buffer is empty, so
// pre-context may be given in one call and text in follow-up calls.
func (b *Buffer) AddUTF8(text []byte, itemOffset, itemLength int) {
	b.assertUnicodeIngest()
	if itemOffset < 0 || itemOffset > len(text) {
		assert(false, "item offset out of range")
	}
	if itemLength < 0 || itemOffset+itemLength > len(text) {
		itemLength = len(text) - itemOffset
	}
	if !b.ensure(len(b.info) + itemLength) { // upper bound: one record per byte
		return
	}
	if len(b.info) == 0 && itemOffset > 0 {
		b.contextLen[ContextBefore] = 0
		prev := itemOffset
		for prev > 0 && b.contextLen[ContextBefore] < ContextLength {
			r, size := utf8.DecodeLastRune(text[:prev])
			if r == utf8.RuneError && size <= 1 {
				r, size = b.Replacement, 1
			}
			prev -= size
			b.context[ContextBefore][b.contextLen[ContextBefore]] = r
			b.contextLen[ContextBefore]++
		}
	}
	next, end := itemOffset, itemOffset+itemLength
	for next < end {
		r, size := utf8.DecodeRune(text[next:end])
		if r == utf8.RuneError && size <= 1 {
			r, size = b.Replacement, 1
		}
		b.info = append(b.info, GlyphInfo{Codepoint: r, Cluster: uint32(next)})
		next += size
	}
	b.contextLen[ContextAfter] = 0
	for next < len(text) && b.contextLen[ContextAfter] < ContextLength {
		r, size := utf8.DecodeRune(text[next:])
		if r == utf8.RuneError && size <= 1 {
			r, size = b.Replacement, 1
		}
		b.context[ContextAfter][b.contextLen[ContextAfter]] = r
		b.contextLen[ContextAfter]++
		next += size
	}
	b.contentType = ContentUnicode
}

// AddString appends all of s, see AddUTF8.
func (b *Buffer) AddString(s string) {
	b.AddUTF8([]byte(s), 0, -1)
}

// AddRunes appends runes[itemOffset:itemOffset+itemLength], each with its
// index in runes as cluster. Invalid scalar values (surrogates, values beyond
// U+10FFFF) are replaced. Context is kept as in AddUTF8.
func (b *Buffer) AddRunes(runes []rune, itemOffset, itemLength int) {
	b.assertUnicodeIngest()
	assert(itemOffset >= 0 && itemOffset <= len(runes), "item offset out of range")
	if itemLength < 0 || itemOffset+itemLength > len(runes) {
		itemLength = len(runes) - itemOffset
	}
	if !b.ensure(len(b.info) + itemLength) {
		return
	}
	valid := func(r rune) rune {
		if !utf8.ValidRune(r) {
			return b.Replacement
		}
		return r
	}
	if len(b.info) == 0 && itemOffset > 0 {
		b.contextLen[ContextBefore] = 0
		for i := itemOffset - 1; i >= 0 && b.contextLen[ContextBefore] < ContextLength; i-- {
			b.context[ContextBefore][b.contextLen[ContextBefore]] = valid(runes[i])
			b.contextLen[ContextBefore]++
		}
	}
	for i := itemOffset; i < itemOffset+itemLength; i++ {
		b.info = append(b.info, GlyphInfo{Codepoint: valid(runes[i]), Cluster: uint32(i)})
	}
	b.contextLen[ContextAfter] = 0
	for i := itemOffset + itemLength; i < len(runes) && b.contextLen[ContextAfter] < ContextLength; i++ {
		b.context[ContextAfter][b.contextLen[ContextAfter]] = valid(runes[i])
		b.contextLen[ContextAfter]++
	}
	b.contentType = ContentUnicode
}

// ContextLen returns the number of context characters on side
// (ContextBefore or ContextAfter).
func (b *Buffer) ContextLen(side int) int {
	assert(side == ContextBefore || side == ContextAfter, "invalid context side")
	return b.contextLen[side]
}

// Context returns the i-th context character on side, counting outward from
// the text: Context(ContextBefore, 0) is the character immediately preceding
// the text.
func (b *Buffer) Context(side, i int) rune {
	assert(side == ContextBefore || side == ContextAfter, "invalid context side")
	assert(i >= 0 && i < b.contextLen[side], "context index out of range")
	return b.context[side][i]
}

// ClearContext drops the context on one side.
func (b *Buffer) ClearContext(side int) {
	assert(side == ContextBefore || side == ContextAfter, "invalid context side")
	b.contextLen[side] = 0
}

// Append copies records [start, end) of src to the end of b. Context after
// the text is taken over from src if src's range extends to its end.
func (b *Buffer) Append(src *Buffer, start, end int) {
	assert(start >= 0 && start <= end && end <= len(src.info), "append range out of bounds")
	if start == end {
		return
	}
	if len(b.info) == 0 {
		b.props = src.props
		b.contentType = src.contentType
	}
	assert(b.contentType == src.contentType, "cannot append buffers of different content type")
	if !b.ensure(len(b.info) + end - start) {
		return
	}
	if src.havePositions && (b.havePositions || len(b.info) == 0) {
		b.havePositions = true
		b.pos = append(b.pos[:len(b.info)], src.pos[start:end]...)
	}
	b.info = append(b.info, src.info[start:end]...)
	if len(b.info) == end-start && start == 0 {
		b.contextLen[ContextBefore] = src.contextLen[ContextBefore]
		b.context[ContextBefore] = src.context[ContextBefore]
	}
	if end == len(src.info) {
		b.contextLen[ContextAfter] = src.contextLen[ContextAfter]
		b.context[ContextAfter] = src.context[ContextAfter]
	}
}

// AddCodepoints appends cps unvalidated, each with its index as cluster.
// Use AddRunes for input which may contain invalid scalar values.
func (b *Buffer) AddCodepoints(cps []rune) {
	b.assertUnicodeIngest()
	if !b.ensure(len(b.info) + len(cps)) {
		return
	}
	for i, cp := range cps {
		b.info = append(b.info, GlyphInfo{Codepoint: cp, Cluster: uint32(i)})
	}
	b.contentType = ContentUnicode
}
