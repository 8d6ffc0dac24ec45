package otbuffer

import (
	"math"
)

// ContextLength is the number of context characters kept on either side of
// the buffer's text.
const ContextLength = 5

// Context sides.
const (
	ContextBefore = 0
	ContextAfter  = 1
)

// Default limits. MaxLenDefault bounds the number of records a buffer will
// ever allocate; exceeding it puts the buffer into the failed state.
const (
	MaxLenDefault = 0x3FFFFFFF
	MaxOpsDefault = 0x1FFFFFFF
)

// DefaultReplacement is the replacement character for invalid input.
const DefaultReplacement = '�'

// Buffer is the editable glyph sequence shaping operates on.
//
// A buffer owns two record arrays. Outside of a rewrite pass only the input
// array is meaningful. During a pass ([Buffer.ClearOutput] to
// [Buffer.SwapBuffers]) records before the cursor have been moved to the
// output array and records from the cursor on are still to be processed.
type Buffer struct {
	// Flags are independent buffer options.
	Flags Flags
	// ClusterLevel selects the cluster grouping policy.
	ClusterLevel ClusterLevel
	// Replacement is substituted for invalid input.
	Replacement rune
	// Invisible is the glyph used to hide default ignorables. If 0, the
	// font's space glyph is used.
	Invisible GlyphIndex
	// NotFound is the glyph used for characters without a glyph.
	NotFound GlyphIndex
	// MaxLen bounds allocation; MaxOps bounds rewrite work.
	MaxLen int
	MaxOps int

	props       SegmentProperties
	contentType ContentType
	scratch     ScratchFlags
	serial      uint8 // ligature ids

	info    []GlyphInfo     // input records, len(info) is the logical length
	outInfo []GlyphInfo     // output records during a pass
	pos     []GlyphPosition // parallel to info once positions are present

	idx           int // cursor into info
	allocated     int // capacity reserved for each array
	successful    bool
	haveOutput    bool
	havePositions bool
	generation    uint32

	context    [2][ContextLength]rune
	contextLen [2]int
}

// New creates an empty buffer with default settings.
func New() *Buffer {
	b := &Buffer{}
	b.Reset()
	return b
}

// Reset returns the buffer to its initial state, including all settings.
// It also clears the allocation failure state.
func (b *Buffer) Reset() {
	b.Flags = FlagsDefault
	b.ClusterLevel = MonotoneGraphemes
	b.Replacement = DefaultReplacement
	b.Invisible = 0
	b.NotFound = 0
	b.MaxLen = MaxLenDefault
	b.MaxOps = MaxOpsDefault
	b.ClearContents()
}

// ClearContents removes all text and properties but keeps settings such as
// flags, cluster level and replacement character. It clears the allocation
// failure state.
func (b *Buffer) ClearContents() {
	b.props = SegmentProperties{}
	b.contentType = ContentInvalid
	b.scratch = ScratchDefault
	b.serial = 0
	b.successful = true
	b.haveOutput = false
	b.havePositions = false
	b.idx = 0
	b.info = b.info[:0]
	b.outInfo = b.outInfo[:0]
	b.pos = b.pos[:0]
	b.generation = 0
	b.contextLen = [2]int{}
}

// --- Accessors -------------------------------------------------------------

// Len returns the number of records.
func (b *Buffer) Len() int {
	return len(b.info)
}

// ContentType returns the state of the buffer's content.
func (b *Buffer) ContentType() ContentType {
	return b.contentType
}

// SetContentType switches the content state. Switching back from
// ContentGlyphs to ContentUnicode is not allowed.
func (b *Buffer) SetContentType(ct ContentType) {
	assert(!(b.contentType == ContentGlyphs && ct == ContentUnicode),
		"glyph content cannot become unicode content")
	b.contentType = ct
}

// Props returns the segment properties.
func (b *Buffer) Props() SegmentProperties {
	return b.props
}

// SetProps sets the segment properties. Properties may only be changed
// before shaping.
func (b *Buffer) SetProps(props SegmentProperties) {
	assert(b.contentType != ContentGlyphs, "cannot change properties of shaped buffer")
	b.props = props
}

// SetDirection sets the direction only.
func (b *Buffer) SetDirection(d Direction) {
	p := b.props
	p.Direction = d
	b.SetProps(p)
}

// GuessSegmentProperties fills in unset segment properties from the content.
// See [GuessSegmentProperties].
func (b *Buffer) GuessSegmentProperties() {
	assert(b.contentType == ContentUnicode || (b.contentType == ContentInvalid && len(b.info) == 0),
		"guessing properties needs unicode content")
	var content []rune
	if b.props.Script == ScriptInvalid {
		content = make([]rune, len(b.info))
		for i := range b.info {
			content[i] = b.info[i].Codepoint
		}
	}
	b.props = GuessSegmentProperties(b.props, content, nil)
}

// ScratchFlags returns the diagnostic scratch flags.
func (b *Buffer) ScratchFlags() ScratchFlags {
	return b.scratch
}

// SetScratchFlags replaces the scratch flags.
func (b *Buffer) SetScratchFlags(f ScratchFlags) {
	b.scratch = f
}

// AddScratchFlags sets additional scratch flags.
func (b *Buffer) AddScratchFlags(f ScratchFlags) {
	b.scratch |= f
}

// GlyphInfos returns the records. The slice aliases buffer memory and is only
// valid until the next mutating call.
func (b *Buffer) GlyphInfos() []GlyphInfo {
	return b.info
}

// GlyphPositions returns the positions, or nil if the buffer has none.
// The slice aliases buffer memory.
func (b *Buffer) GlyphPositions() []GlyphPosition {
	if !b.havePositions {
		return nil
	}
	return b.pos
}

// HavePositions reports whether positions are valid.
func (b *Buffer) HavePositions() bool {
	return b.havePositions
}

// Generation counts completed rewrite passes.
func (b *Buffer) Generation() uint32 {
	return b.generation
}

// NextSerial returns a fresh ligature id, never 0.
func (b *Buffer) NextSerial() uint8 {
	b.serial++
	if b.serial == 0 {
		b.serial++
	}
	return b.serial
}

// AllocationSuccessful reports whether all allocations so far succeeded.
// Once false, it stays false until Reset or ClearContents.
func (b *Buffer) AllocationSuccessful() bool {
	return b.successful
}

// --- Allocation ------------------------------------------------------------

// PreAllocate makes room for at least size records without further
// allocation. It returns false if the buffer is in the failed state or the
// request cannot be satisfied.
func (b *Buffer) PreAllocate(size int) bool {
	return b.ensure(size)
}

// ensure guarantees capacity for size records in every array. It is false
// in the failed state, which turns callers into no-ops.
func (b *Buffer) ensure(size int) bool {
	if !b.successful {
		return false
	}
	if size <= b.allocated {
		return true
	}
	return b.enlarge(size)
}

// enlarge grows capacity geometrically (1.5x + 32). Growth beyond MaxLen, or
// integer overflow, puts the buffer into the sticky failed state.
func (b *Buffer) enlarge(size int) bool {
	if size < 0 || size > b.MaxLen || size > math.MaxInt32 {
		b.fail("requested size exceeds buffer limit")
		return false
	}
	newAllocated := b.allocated
	for newAllocated < size {
		newAllocated += newAllocated/2 + 32
	}
	if newAllocated > b.MaxLen {
		newAllocated = b.MaxLen
	}
	info := make([]GlyphInfo, len(b.info), newAllocated)
	copy(info, b.info)
	b.info = info
	out := make([]GlyphInfo, len(b.outInfo), newAllocated)
	copy(out, b.outInfo)
	b.outInfo = out
	pos := make([]GlyphPosition, len(b.pos), newAllocated)
	copy(pos, b.pos)
	b.pos = pos
	b.allocated = newAllocated
	return true
}

func (b *Buffer) fail(reason string) {
	if b.successful {
		tracer().Errorf("buffer allocation failed: %s", reason)
	}
	b.successful = false
}

// SetLength sets the number of records without reallocating. Growing beyond
// the current allocation fails and returns false; new records are zeroed.
// Setting the length to 0 also clears the context.
func (b *Buffer) SetLength(length int) bool {
	if !b.successful || length < 0 {
		return false
	}
	if length > b.allocated {
		return false
	}
	b.setLength(length)
	return true
}

// SetLengthForce sets the number of records, growing the allocation if
// needed. If growing fails, the buffer enters the failed state.
func (b *Buffer) SetLengthForce(length int) bool {
	if length < 0 || !b.ensure(length) {
		return false
	}
	b.setLength(length)
	return true
}

func (b *Buffer) setLength(length int) {
	old := len(b.info)
	b.info = b.info[:length]
	for i := old; i < length; i++ {
		b.info[i] = GlyphInfo{}
	}
	if b.havePositions || len(b.pos) > 0 {
		oldPos := len(b.pos)
		b.pos = b.pos[:length]
		for i := oldPos; i < length; i++ {
			b.pos[i] = GlyphPosition{}
		}
	}
	if length == 0 {
		b.contentType = ContentInvalid
		b.contextLen = [2]int{}
	}
}

// ClearPositions allocates zeroed positions for all records, leaving any
// rewrite pass.
func (b *Buffer) ClearPositions() {
	b.haveOutput = false
	b.havePositions = true
	b.outInfo = b.outInfo[:0]
	b.pos = b.pos[:len(b.info)]
	for i := range b.pos {
		b.pos[i] = GlyphPosition{}
	}
}

// --- Masks -----------------------------------------------------------------

// ResetMasks sets every record's mask to m, keeping glyph flags.
func (b *Buffer) ResetMasks(m GlyphMask) {
	if !b.successful {
		return
	}
	for i := range b.info {
		b.info[i].Mask = m | b.info[i].Mask&GlyphFlagDefined
	}
}

// AddMasks ors m into every record's mask.
func (b *Buffer) AddMasks(m GlyphMask) {
	if !b.successful {
		return
	}
	for i := range b.info {
		b.info[i].Mask |= m
	}
}

// SetMasks sets the bits selected by mask to value for all records whose
// cluster is in [clusterStart, clusterEnd).
func (b *Buffer) SetMasks(value, mask GlyphMask, clusterStart, clusterEnd uint32) {
	if !b.successful || mask == 0 {
		return
	}
	notMask := ^mask
	value &= mask
	if clusterStart == 0 && clusterEnd == math.MaxUint32 {
		for i := range b.info {
			b.info[i].Mask = b.info[i].Mask&notMask | value
		}
		return
	}
	for i := range b.info {
		if clusterStart <= b.info[i].Cluster && b.info[i].Cluster < clusterEnd {
			b.info[i].Mask = b.info[i].Mask&notMask | value
		}
	}
}
