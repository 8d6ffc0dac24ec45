package otbuffer

import (
	"strings"
	"testing"
)

func codepoints(b *Buffer) []rune {
	cps := make([]rune, b.Len())
	for i, info := range b.GlyphInfos() {
		cps[i] = info.Codepoint
	}
	return cps
}

func clusters(b *Buffer) []uint32 {
	cls := make([]uint32, b.Len())
	for i, info := range b.GlyphInfos() {
		cls[i] = info.Cluster
	}
	return cls
}

func equalSlices[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func bufferWithClusters(cps []rune, cls []uint32) *Buffer {
	b := New()
	for i, cp := range cps {
		b.Add(cp, cls[i])
	}
	return b
}

func TestAddUTF8RoundTrip(t *testing.T) {
	b := New()
	b.AddString("aé€z")
	if b.ContentType() != ContentUnicode {
		t.Fatalf("content type=%s, want unicode", b.ContentType())
	}
	if got, want := codepoints(b), []rune{'a', 'é', '€', 'z'}; !equalSlices(got, want) {
		t.Fatalf("codepoints=%q, want %q", got, want)
	}
	if got, want := clusters(b), []uint32{0, 1, 3, 6}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestAddUTF8ReplacesInvalidBytes(t *testing.T) {
	b := New()
	b.AddUTF8([]byte{'a', 0xff, 0xfe, 'b'}, 0, -1)
	if got, want := codepoints(b), []rune{'a', DefaultReplacement, DefaultReplacement, 'b'}; !equalSlices(got, want) {
		t.Fatalf("codepoints=%q, want %q", got, want)
	}
	if got, want := clusters(b), []uint32{0, 1, 2, 3}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
	b.Reset()
	b.Replacement = '?'
	b.AddUTF8([]byte{0xc3}, 0, -1) // truncated sequence
	if got := codepoints(b); len(got) != 1 || got[0] != '?' {
		t.Fatalf("codepoints=%q, want single '?'", got)
	}
}

func TestAddUTF8KeepsContext(t *testing.T) {
	b := New()
	text := []byte("hello world!")
	b.AddUTF8(text, 6, 5)
	if got := string(codepoints(b)); got != "world" {
		t.Fatalf("text=%q, want %q", got, "world")
	}
	if got := clusters(b)[0]; got != 6 {
		t.Fatalf("cluster[0]=%d, want 6", got)
	}
	if n := b.ContextLen(ContextBefore); n != ContextLength {
		t.Fatalf("context before=%d, want %d", n, ContextLength)
	}
	if c := b.Context(ContextBefore, 0); c != ' ' {
		t.Fatalf("nearest pre-context=%q, want ' '", c)
	}
	if c := b.Context(ContextBefore, 1); c != 'o' {
		t.Fatalf("second pre-context=%q, want 'o'", c)
	}
	if n := b.ContextLen(ContextAfter); n != 1 || b.Context(ContextAfter, 0) != '!' {
		t.Fatalf("post-context len=%d, want single '!'", n)
	}
	// pre-context is only taken for an empty buffer
	b.AddUTF8([]byte("xyz"), 2, 1)
	if c := b.Context(ContextBefore, 0); c != ' ' {
		t.Fatalf("pre-context changed to %q by follow-up call", c)
	}
	if n := b.ContextLen(ContextAfter); n != 0 {
		t.Fatalf("post-context len=%d after follow-up call, want 0", n)
	}
}

func TestAddRunesReplacesSurrogates(t *testing.T) {
	b := New()
	b.AddRunes([]rune{'a', 0xD800, 'b', 'c'}, 1, 2)
	if got, want := codepoints(b), []rune{DefaultReplacement, 'b'}; !equalSlices(got, want) {
		t.Fatalf("codepoints=%q, want %q", got, want)
	}
	if got, want := clusters(b), []uint32{1, 2}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
	if b.ContextLen(ContextBefore) != 1 || b.ContextLen(ContextAfter) != 1 {
		t.Fatalf("context lengths=%d/%d, want 1/1",
			b.ContextLen(ContextBefore), b.ContextLen(ContextAfter))
	}
}

func TestAddToGlyphBufferPanics(t *testing.T) {
	b := New()
	b.AddString("a")
	b.SetContentType(ContentGlyphs)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic when adding text to a glyph buffer")
		}
	}()
	b.Add('b', 1)
}

func TestResetReturnsToInvalid(t *testing.T) {
	b := New()
	b.AddString("abc")
	b.Flags = FlagBOT
	b.ClearContents()
	if b.Len() != 0 || b.ContentType() != ContentInvalid {
		t.Fatalf("len=%d content=%s after ClearContents", b.Len(), b.ContentType())
	}
	if b.Flags != FlagBOT {
		t.Fatalf("ClearContents dropped flags")
	}
	b.Reset()
	if b.Flags != FlagsDefault || b.Replacement != DefaultReplacement {
		t.Fatalf("Reset did not restore settings")
	}
}

// --- Allocation ------------------------------------------------------------

func TestPreAllocateAvoidsGrowth(t *testing.T) {
	b := New()
	if !b.PreAllocate(100) {
		t.Fatalf("PreAllocate(100) failed")
	}
	allocated := b.allocated
	for i := 0; i < 100; i++ {
		b.Add('x', uint32(i))
	}
	if !b.AllocationSuccessful() {
		t.Fatalf("allocation failure after pre-allocated adds")
	}
	if b.allocated != allocated {
		t.Fatalf("allocated=%d after adds, want %d", b.allocated, allocated)
	}
	if b.Len() != 100 {
		t.Fatalf("len=%d, want 100", b.Len())
	}
}

func TestGrowthIsGeometric(t *testing.T) {
	b := New()
	b.PreAllocate(1)
	first := b.allocated
	b.PreAllocate(first + 1)
	if b.allocated < first+first/2 {
		t.Fatalf("allocated=%d after growing from %d, want geometric growth", b.allocated, first)
	}
}

func TestAllocationFailureIsSticky(t *testing.T) {
	b := New()
	b.MaxLen = 4
	b.AddString("abcdef")
	if b.AllocationSuccessful() {
		t.Fatalf("expected allocation failure beyond MaxLen")
	}
	if b.Len() != 0 {
		t.Fatalf("len=%d after failed add, want 0", b.Len())
	}
	b.Add('a', 0)
	if b.Len() != 0 {
		t.Fatalf("add succeeded in failed state")
	}
	if b.PreAllocate(1) {
		t.Fatalf("PreAllocate succeeded in failed state")
	}
	b.Reset()
	if !b.AllocationSuccessful() {
		t.Fatalf("Reset did not clear failure state")
	}
	b.Add('a', 0)
	if b.Len() != 1 {
		t.Fatalf("len=%d after reset and add, want 1", b.Len())
	}
}

func TestMutatorsAreNoOpsAfterFailure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Buffer)
	}{
		{"Reverse", func(b *Buffer) { b.Reverse() }},
		{"ReverseRange", func(b *Buffer) { b.ReverseRange(0, 2) }},
		{"ReverseClusters", func(b *Buffer) { b.ReverseClusters() }},
		{"Sort", func(b *Buffer) {
			b.Sort(0, 3, func(x, y *GlyphInfo) bool { return x.Codepoint > y.Codepoint })
		}},
		{"MergeClusters", func(b *Buffer) { b.MergeClusters(0, 3) }},
		{"UnsafeToBreak", func(b *Buffer) { b.UnsafeToBreak(0, 3) }},
		{"SafeToInsertTatweel", func(b *Buffer) { b.SafeToInsertTatweel(0, 3) }},
		{"FormClusters", func(b *Buffer) { b.FormClusters() }},
		{"ResetMasks", func(b *Buffer) { b.ResetMasks(0x10) }},
		{"AddMasks", func(b *Buffer) { b.AddMasks(0x10) }},
		{"SetMasks", func(b *Buffer) { b.SetMasks(0x10, 0x10, 0, 2) }},
		{"DeleteGlyphsInplace", func(b *Buffer) {
			b.DeleteGlyphsInplace(func(info *GlyphInfo) bool { return info.Codepoint == 'c' })
		}},
	}
	for _, tt := range tests {
		b := bufferWithClusters([]rune("a\u0301c"), []uint32{0, 1, 3})
		b.SetUnicodeProps(nil)
		before := append([]GlyphInfo(nil), b.GlyphInfos()...)
		b.successful = false
		tt.mutate(b)
		if !equalSlices(b.GlyphInfos(), before) {
			t.Errorf("%s mutated failed buffer: %v -> %v", tt.name, before, b.GlyphInfos())
		}
	}
}

func TestOperationLimitStopsMerge(t *testing.T) {
	b := bufferWithClusters([]rune("abc"), []uint32{0, 1, 2})
	b.MaxOps = 1
	b.MergeClusters(0, 3)
	if b.AllocationSuccessful() {
		t.Fatalf("expected failure after exceeding the operation limit")
	}
	if got, want := clusters(b), []uint32{0, 1, 2}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestSetLength(t *testing.T) {
	b := New()
	if b.SetLength(3) {
		t.Fatalf("SetLength grew beyond allocation")
	}
	if !b.AllocationSuccessful() {
		t.Fatalf("SetLength must not put the buffer into failed state")
	}
	if !b.SetLengthForce(3) || b.Len() != 3 {
		t.Fatalf("SetLengthForce(3) failed, len=%d", b.Len())
	}
	if !b.SetLength(2) || b.Len() != 2 {
		t.Fatalf("SetLength(2) failed, len=%d", b.Len())
	}
	if !b.SetLength(0) || b.ContentType() != ContentInvalid {
		t.Fatalf("SetLength(0) did not reset content type")
	}
}

// --- Rewrite passes --------------------------------------------------------

func TestReplaceGlyphsOneToMany(t *testing.T) {
	b := New()
	b.Add('x', 7)
	b.ResetMasks(0x10)
	b.ClearOutput()
	if !b.ReplaceGlyphs(1, []GlyphIndex{1, 2, 3}) {
		t.Fatalf("ReplaceGlyphs failed")
	}
	if b.Idx() != 1 {
		t.Fatalf("idx=%d, want 1", b.Idx())
	}
	if b.OutLen() != 3 {
		t.Fatalf("out len=%d, want 3", b.OutLen())
	}
	b.SwapBuffers()
	if b.Len() != 3 {
		t.Fatalf("len=%d, want 3", b.Len())
	}
	for i, info := range b.GlyphInfos() {
		if info.Glyph() != GlyphIndex(i+1) {
			t.Errorf("glyph[%d]=%d, want %d", i, info.Glyph(), i+1)
		}
		if info.Cluster != 7 {
			t.Errorf("cluster[%d]=%d, want 7", i, info.Cluster)
		}
		if info.Mask != 0x10 {
			t.Errorf("mask[%d]=%x, want 0x10", i, info.Mask)
		}
	}
	if b.Generation() != 1 {
		t.Fatalf("generation=%d, want 1", b.Generation())
	}
}

func TestReplaceGlyphsManyToOneKeepsMinCluster(t *testing.T) {
	b := New()
	b.AddCodepoints([]rune{0x0041, 0x0300})
	b.ClusterLevel = MonotoneGraphemes
	b.ClearOutput()
	b.ReplaceGlyphs(2, []GlyphIndex{42})
	b.SwapBuffers()
	if b.Len() != 1 {
		t.Fatalf("len=%d, want 1", b.Len())
	}
	if info := b.GlyphInfos()[0]; info.Cluster != 0 || info.Glyph() != 42 {
		t.Fatalf("got glyph %d cluster %d, want glyph 42 cluster 0", info.Glyph(), info.Cluster)
	}
}

func TestPassPreservesUntouchedRecords(t *testing.T) {
	b := New()
	b.AddString("abcd")
	b.ClearOutput()
	b.NextGlyph()
	b.ReplaceGlyph('B')
	b.SwapBuffers() // copies c, d
	if got := string(codepoints(b)); got != "aBcd" {
		t.Fatalf("text=%q, want %q", got, "aBcd")
	}
	if got, want := clusters(b), []uint32{0, 1, 2, 3}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestOutputGlyphAndCopyGlyph(t *testing.T) {
	b := New()
	b.AddString("ab")
	b.ClearOutput()
	b.OutputGlyph('x') // copies 'a' record
	b.CopyGlyph()
	b.NextGlyph()
	b.NextGlyph()
	b.SwapBuffers()
	if got := string(codepoints(b)); got != "xaab" {
		t.Fatalf("text=%q, want %q", got, "xaab")
	}
	if got, want := clusters(b), []uint32{0, 0, 0, 1}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestDeleteGlyphMergesClusters(t *testing.T) {
	b := New()
	b.AddString("abc")
	b.ClearOutput()
	b.DeleteGlyph() // first glyph: cluster merges forward
	b.NextGlyph()
	b.NextGlyph()
	b.SwapBuffers()
	if got := string(codepoints(b)); got != "bc" {
		t.Fatalf("text=%q, want %q", got, "bc")
	}
	if got, want := clusters(b), []uint32{0, 2}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestDeleteGlyphMergesBackward(t *testing.T) {
	b := bufferWithClusters([]rune{'a', 'b', 'c'}, []uint32{5, 6, 2})
	b.ClusterLevel = Characters
	b.ClearOutput()
	b.NextGlyph()
	b.NextGlyph()
	b.DeleteGlyph() // cluster 2 < 6: the previous cluster is pulled down
	b.SwapBuffers()
	if got, want := clusters(b), []uint32{5, 2}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestMoveToForwardAndBackward(t *testing.T) {
	b := New()
	b.AddString("abcd")
	b.ClearOutput()
	b.NextGlyphs(3)
	if !b.MoveTo(1) {
		t.Fatalf("MoveTo(1) failed")
	}
	if b.OutLen() != 1 || b.Idx() != 1 {
		t.Fatalf("out len=%d idx=%d, want 1/1", b.OutLen(), b.Idx())
	}
	if !b.MoveTo(4) {
		t.Fatalf("MoveTo(4) failed")
	}
	b.SwapBuffers()
	if got := string(codepoints(b)); got != "abcd" {
		t.Fatalf("text=%q, want %q", got, "abcd")
	}
}

func TestMoveToBackwardShiftsInput(t *testing.T) {
	b := New()
	b.AddString("ab")
	b.ClearOutput()
	b.CopyGlyph()
	b.CopyGlyph()
	if !b.MoveTo(0) {
		t.Fatalf("MoveTo(0) failed")
	}
	if b.Idx() != 0 || b.OutLen() != 0 {
		t.Fatalf("idx=%d out len=%d, want 0/0", b.Idx(), b.OutLen())
	}
	b.SwapBuffers()
	if got := string(codepoints(b)); got != "aaab" {
		t.Fatalf("text=%q, want %q", got, "aaab")
	}
}

func TestSwapBuffersInFailedStateKeepsInput(t *testing.T) {
	b := New()
	b.AddString("abc")
	b.ClearOutput()
	b.ReplaceGlyph('x')
	b.successful = false
	b.SwapBuffers()
	if got := string(codepoints(b)); got != "abc" {
		t.Fatalf("text=%q after failed pass, want %q", got, "abc")
	}
	if b.Generation() != 0 {
		t.Fatalf("generation advanced in failed state")
	}
}

// --- Clusters --------------------------------------------------------------

func TestMergeClustersYieldsMinimum(t *testing.T) {
	b := bufferWithClusters([]rune("abcd"), []uint32{0, 3, 1, 5})
	b.MergeClusters(1, 3)
	if got, want := clusters(b), []uint32{0, 1, 1, 5}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestMergeClustersExtendsOverEqualNeighbors(t *testing.T) {
	b := bufferWithClusters([]rune("abcd"), []uint32{0, 1, 1, 2})
	b.MergeClusters(0, 2)
	if got, want := clusters(b), []uint32{0, 0, 0, 2}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestMergeClustersAtCharacterLevel(t *testing.T) {
	b := bufferWithClusters([]rune("ab"), []uint32{0, 1})
	b.ClusterLevel = Characters
	b.MergeClusters(0, 2)
	if got, want := clusters(b), []uint32{0, 1}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
	if b.GlyphInfos()[1].Flags()&GlyphUnsafeToBreak == 0 {
		t.Fatalf("expected unsafe-to-break instead of merge")
	}
}

func TestMergeOutClustersContinuesIntoInput(t *testing.T) {
	b := bufferWithClusters([]rune("abcd"), []uint32{0, 1, 2, 2})
	b.ClearOutput()
	b.NextGlyphs(3) // a b c written, d (cluster 2) pending
	b.MergeOutClusters(1, 3)
	b.SwapBuffers()
	if got, want := clusters(b), []uint32{0, 1, 1, 1}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestUnsafeToBreakInterior(t *testing.T) {
	b := bufferWithClusters([]rune("abc"), []uint32{0, 1, 2})
	b.UnsafeToBreak(0, 3)
	infos := b.GlyphInfos()
	if infos[0].Flags() != 0 {
		t.Fatalf("glyph 0 flagged, breaking before the range is safe")
	}
	for i := 1; i < 3; i++ {
		if infos[i].Flags()&GlyphUnsafeToBreak == 0 || infos[i].Flags()&GlyphUnsafeToConcat == 0 {
			t.Fatalf("glyph %d flags=%x, want unsafe to break and concat", i, infos[i].Flags())
		}
	}
	if b.ScratchFlags()&ScratchHasGlyphFlags == 0 {
		t.Fatalf("scratch flag for glyph flags not set")
	}
}

func TestUnsafeToBreakIsMonotone(t *testing.T) {
	b := bufferWithClusters([]rune("abc"), []uint32{0, 1, 2})
	b.UnsafeToBreak(1, 3)
	b.MergeClusters(0, 3)
	b.ClearOutput()
	b.ReplaceGlyphs(3, []GlyphIndex{9, 8})
	b.SwapBuffers()
	// the flag of the merged ligature source was on glyph 2 which got
	// consumed; glyph records copied from glyph 0 must not have lost flags
	// set on themselves
	b.UnsafeToBreak(0, 2)
	for i, info := range b.GlyphInfos() {
		if info.Cluster != 0 {
			t.Fatalf("cluster[%d]=%d, want 0", i, info.Cluster)
		}
	}
	c := bufferWithClusters([]rune("abc"), []uint32{0, 1, 2})
	c.UnsafeToBreak(0, 3)
	c.MergeClusters(1, 3)
	if c.GlyphInfos()[2].Flags()&GlyphUnsafeToBreak == 0 {
		t.Fatalf("merging clusters cleared unsafe-to-break")
	}
}

func TestUnsafeToBreakFromOutbuffer(t *testing.T) {
	b := bufferWithClusters([]rune("abcd"), []uint32{0, 1, 2, 3})
	b.ClearOutput()
	b.NextGlyphs(2)
	b.UnsafeToBreakFromOutbuffer(0, 4)
	b.SwapBuffers()
	infos := b.GlyphInfos()
	if infos[0].Flags() != 0 {
		t.Fatalf("glyph 0 flagged")
	}
	for i := 1; i < 4; i++ {
		if infos[i].Flags()&GlyphUnsafeToBreak == 0 {
			t.Fatalf("glyph %d not flagged", i)
		}
	}
}

func TestUnsafeToConcatNeedsFlag(t *testing.T) {
	b := bufferWithClusters([]rune("ab"), []uint32{0, 1})
	b.UnsafeToConcat(0, 2)
	if b.GlyphInfos()[1].Flags() != 0 {
		t.Fatalf("unsafe-to-concat set without producing flag")
	}
	b.Flags |= FlagProduceUnsafeToConcat
	b.UnsafeToConcat(0, 2)
	if b.GlyphInfos()[0].Flags() != GlyphUnsafeToConcat {
		t.Fatalf("flags=%x, want unsafe-to-concat only", b.GlyphInfos()[0].Flags())
	}
}

func TestSafeToInsertTatweelFallsBack(t *testing.T) {
	b := bufferWithClusters([]rune("ab"), []uint32{0, 1})
	b.SafeToInsertTatweel(0, 2)
	if b.GlyphInfos()[1].Flags()&GlyphUnsafeToBreak == 0 {
		t.Fatalf("expected unsafe-to-break without tatweel flag")
	}
	c := bufferWithClusters([]rune("ab"), []uint32{0, 1})
	c.Flags |= FlagProduceSafeToInsertTatweel
	c.SafeToInsertTatweel(0, 2)
	if c.GlyphInfos()[1].Flags() != GlyphSafeToInsertTatweel {
		t.Fatalf("flags=%x, want safe-to-insert-tatweel", c.GlyphInfos()[1].Flags())
	}
}

func TestReverseClusters(t *testing.T) {
	b := bufferWithClusters([]rune("abcd"), []uint32{0, 0, 1, 2})
	b.ReverseClusters()
	if got := string(codepoints(b)); got != "dcab" {
		t.Fatalf("text=%q, want %q", got, "dcab")
	}
	if got, want := clusters(b), []uint32{2, 1, 0, 0}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestFormClustersMergesGraphemes(t *testing.T) {
	b := New()
	b.AddString("éx")
	b.SetUnicodeProps(nil)
	b.FormClusters()
	if got, want := clusters(b), []uint32{0, 0, 3}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
	if !b.GlyphInfos()[1].IsContinuation() {
		t.Fatalf("combining mark not marked as continuation")
	}
}

func TestFormClustersLongText(t *testing.T) {
	const n = 40000
	b := New()
	b.AddString(strings.Repeat("e\u0301", n)) // 120000 bytes
	b.SetUnicodeProps(nil)
	b.FormClusters()
	if b.Len() != 2*n {
		t.Fatalf("len=%d, want %d", b.Len(), 2*n)
	}
	infos := b.GlyphInfos()
	for i := 0; i < b.Len(); i += 2 {
		if want := uint32(3 * (i / 2)); infos[i].Cluster != want || infos[i+1].Cluster != want {
			t.Fatalf("clusters at %d = %d,%d, want %d", i, infos[i].Cluster, infos[i+1].Cluster, want)
		}
		if !infos[i+1].IsContinuation() {
			t.Fatalf("mark at %d not marked as continuation", i+1)
		}
	}
}

// --- Whole-buffer operations -----------------------------------------------

func TestReverseRangeMovesPositions(t *testing.T) {
	b := New()
	b.AddString("abc")
	b.ClearPositions()
	b.GlyphPositions()[0].XAdvance = 1
	b.GlyphPositions()[2].XAdvance = 3
	b.ReverseRange(0, 3)
	if got := string(codepoints(b)); got != "cba" {
		t.Fatalf("text=%q, want %q", got, "cba")
	}
	if p := b.GlyphPositions(); p[0].XAdvance != 3 || p[2].XAdvance != 1 {
		t.Fatalf("positions not reversed with records")
	}
}

func TestSortMergesMovedClusters(t *testing.T) {
	b := bufferWithClusters([]rune("cab"), []uint32{0, 1, 2})
	b.Sort(0, 3, func(x, y *GlyphInfo) bool { return x.Codepoint < y.Codepoint })
	if got := string(codepoints(b)); got != "abc" {
		t.Fatalf("text=%q, want %q", got, "abc")
	}
	if got, want := clusters(b), []uint32{0, 0, 0}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestSortIsStable(t *testing.T) {
	b := bufferWithClusters([]rune{'b', 'a', 'b', 'a'}, []uint32{0, 0, 0, 0})
	b.GlyphInfos()[1].Mask = 1
	b.GlyphInfos()[3].Mask = 2
	b.Sort(0, 4, func(x, y *GlyphInfo) bool { return x.Codepoint < y.Codepoint })
	infos := b.GlyphInfos()
	if infos[0].Mask != 1 || infos[1].Mask != 2 {
		t.Fatalf("equal elements reordered: masks %d,%d", infos[0].Mask, infos[1].Mask)
	}
}

func TestNormalizeGlyphs(t *testing.T) {
	b := New()
	b.SetDirection(LeftToRight)
	b.AddCodepoints([]rune{10, 30, 20})
	for i := range b.GlyphInfos() {
		b.GlyphInfos()[i].Cluster = 0
	}
	b.SetContentType(ContentGlyphs)
	b.ClearPositions()
	pos := b.GlyphPositions()
	pos[0].XAdvance = 500
	pos[1].XOffset = -250
	pos[2].XOffset = -300
	b.NormalizeGlyphs()
	if got, want := codepoints(b), []rune{10, 20, 30}; !equalSlices(got, want) {
		t.Fatalf("glyphs=%v, want %v", got, want)
	}
	pos = b.GlyphPositions()
	if pos[0].XAdvance != 500 || pos[1].XAdvance != 0 || pos[2].XAdvance != 0 {
		t.Fatalf("advances=%d,%d,%d, want 500,0,0", pos[0].XAdvance, pos[1].XAdvance, pos[2].XAdvance)
	}
	if pos[1].XOffset != -300 || pos[2].XOffset != -250 {
		t.Fatalf("offsets=%d,%d, want -300,-250", pos[1].XOffset, pos[2].XOffset)
	}
}

func TestRemoveDefaultIgnorables(t *testing.T) {
	b := New()
	b.AddString("a​b")
	b.SetUnicodeProps(nil)
	b.Flags |= FlagRemoveDefaultIgnorables
	b.HideDefaultIgnorables(3, true)
	if got := string(codepoints(b)); got != "ab" {
		t.Fatalf("text=%q, want %q", got, "ab")
	}
	if got, want := clusters(b), []uint32{0, 4}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestHideDefaultIgnorables(t *testing.T) {
	b := New()
	b.AddString("a​b")
	b.SetUnicodeProps(nil)
	b.Invisible = 99
	b.HideDefaultIgnorables(3, true)
	if got, want := codepoints(b), []rune{'a', 99, 'b'}; !equalSlices(got, want) {
		t.Fatalf("codepoints=%v, want %v", got, want)
	}
	c := New()
	c.AddString("a​b")
	c.SetUnicodeProps(nil)
	c.HideDefaultIgnorables(3, true) // no invisible glyph: use space
	if got := c.GlyphInfos()[1].Codepoint; got != 3 {
		t.Fatalf("ignorable replaced by %d, want space glyph 3", got)
	}
}

func TestPreserveWinsOverRemove(t *testing.T) {
	b := New()
	b.AddString("a​b")
	b.SetUnicodeProps(nil)
	b.Flags |= FlagRemoveDefaultIgnorables | FlagPreserveDefaultIgnorables
	b.HideDefaultIgnorables(3, true)
	if got, want := codepoints(b), []rune{'a', 0x200B, 'b'}; !equalSlices(got, want) {
		t.Fatalf("codepoints=%v, want %v", got, want)
	}
}

func TestAppendCopiesRange(t *testing.T) {
	src := New()
	src.AddString("abcd")
	dst := New()
	dst.Append(src, 1, 4)
	if got := string(codepoints(dst)); got != "bcd" {
		t.Fatalf("text=%q, want %q", got, "bcd")
	}
	if got, want := clusters(dst), []uint32{1, 2, 3}; !equalSlices(got, want) {
		t.Fatalf("clusters=%v, want %v", got, want)
	}
}

func TestSerialize(t *testing.T) {
	b := New()
	b.AddString("ab")
	if got, want := b.Serialize(0), "<U+0061=0|U+0062=1>"; got != want {
		t.Fatalf("serialized=%q, want %q", got, want)
	}
	b.SetContentType(ContentGlyphs)
	b.ClearPositions()
	b.GlyphPositions()[0].XAdvance = 600
	b.GlyphPositions()[1].XOffset = -20
	b.GlyphPositions()[1].YOffset = 310
	if got, want := b.Serialize(0), "[97=0+600|98=1@-20,310+0]"; got != want {
		t.Fatalf("serialized=%q, want %q", got, want)
	}
}

func TestDiff(t *testing.T) {
	a, b := New(), New()
	a.AddString("ab")
	b.AddString("ab")
	if d := a.Diff(b, 0, 0); d != DiffEqual {
		t.Fatalf("diff=%b, want equal", d)
	}
	b.GlyphInfos()[1].Cluster = 5
	if d := a.Diff(b, 0, 0); d&DiffClusterMismatch == 0 {
		t.Fatalf("diff=%b, want cluster mismatch", d)
	}
	c := New()
	c.AddString("abc")
	if d := a.Diff(c, 0, 0); d&DiffLengthMismatch == 0 {
		t.Fatalf("diff=%b, want length mismatch", d)
	}
}
