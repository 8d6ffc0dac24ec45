package otbuffer

import (
	"math"
	"sync"

	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/segment"
)

// IsMonotone is true for the cluster levels which keep cluster values in
// ascending order.
func (l ClusterLevel) IsMonotone() bool {
	return l == MonotoneGraphemes || l == MonotoneCharacters
}

func (l ClusterLevel) String() string {
	switch l {
	case MonotoneGraphemes:
		return "monotone-graphemes"
	case MonotoneCharacters:
		return "monotone-characters"
	case Characters:
		return "characters"
	}
	return "invalid"
}

// MergeClusters gives all input records in [start, end) the minimum cluster
// value among them. The range is extended over neighbors sharing a boundary
// cluster, continuing into the output records if it reaches the cursor.
//
// At level Characters clusters are never merged; the range is marked as
// unsafe to break instead.
func (b *Buffer) MergeClusters(start, end int) {
	if !b.successful || end-start < 2 {
		return
	}
	assert(start >= 0 && end <= len(b.info), "MergeClusters range out of bounds")
	if !b.ClusterLevel.IsMonotone() {
		b.UnsafeToBreak(start, end)
		return
	}
	b.MaxOps -= end - start
	if b.MaxOps < 0 {
		b.fail("operation limit exceeded")
		return
	}
	cluster := b.info[start].Cluster
	for i := start + 1; i < end; i++ {
		cluster = min(cluster, b.info[i].Cluster)
	}
	if cluster != b.info[end-1].Cluster {
		for end < len(b.info) && b.info[end-1].Cluster == b.info[end].Cluster {
			end++
		}
	}
	if cluster != b.info[start].Cluster {
		for b.idx < start && b.info[start-1].Cluster == b.info[start].Cluster {
			start--
		}
	}
	if b.idx == start && b.info[start].Cluster != cluster {
		for i := len(b.outInfo); i > 0 && b.outInfo[i-1].Cluster == b.info[start].Cluster; i-- {
			b.setCluster(&b.outInfo[i-1], cluster, 0)
		}
	}
	for i := start; i < end; i++ {
		b.setCluster(&b.info[i], cluster, 0)
	}
}

// MergeOutClusters is MergeClusters for the output records [start, end) of
// the current pass. If the range reaches the end of the output, it continues
// into the input from the cursor.
func (b *Buffer) MergeOutClusters(start, end int) {
	if !b.successful || !b.ClusterLevel.IsMonotone() || end-start < 2 {
		return
	}
	assert(start >= 0 && end <= len(b.outInfo), "MergeOutClusters range out of bounds")
	b.MaxOps -= end - start
	if b.MaxOps < 0 {
		b.fail("operation limit exceeded")
		return
	}
	out := b.outInfo
	cluster := out[start].Cluster
	for i := start + 1; i < end; i++ {
		cluster = min(cluster, out[i].Cluster)
	}
	for start > 0 && out[start-1].Cluster == out[start].Cluster {
		start--
	}
	for end < len(out) && out[end-1].Cluster == out[end].Cluster {
		end++
	}
	if end == len(out) {
		for i := b.idx; i < len(b.info) && b.info[i].Cluster == out[end-1].Cluster; i++ {
			b.setCluster(&b.info[i], cluster, 0)
		}
	}
	for i := start; i < end; i++ {
		b.setCluster(&out[i], cluster, 0)
	}
}

// setCluster moves a record to another cluster. Glyph flags of the record
// are kept and the flags in mask are added, so flags never get lost.
func (b *Buffer) setCluster(info *GlyphInfo, cluster uint32, mask GlyphMask) {
	if info.Cluster != cluster {
		info.Mask |= mask & GlyphFlagDefined
	}
	info.Cluster = cluster
}

// --- Glyph flags -----------------------------------------------------------

// UnsafeToBreak flags the input records in [start, end) as unsafe to break:
// every record whose cluster differs from the range's minimum cluster gets
// GlyphUnsafeToBreak and GlyphUnsafeToConcat. A break before the first
// cluster of the range stays safe.
func (b *Buffer) UnsafeToBreak(start, end int) {
	if end-start < 2 {
		return
	}
	b.setGlyphFlags(GlyphUnsafeToBreak|GlyphUnsafeToConcat, start, end, true, false)
}

// UnsafeToBreakFromOutbuffer flags the range starting at output record start
// and ending before input record end. It is used during a pass when the
// context of a match spans already written records.
func (b *Buffer) UnsafeToBreakFromOutbuffer(start, end int) {
	b.setGlyphFlags(GlyphUnsafeToBreak|GlyphUnsafeToConcat, start, end, true, true)
}

// UnsafeToConcat flags [start, end) as unsafe to concatenate. It does nothing
// unless FlagProduceUnsafeToConcat is set.
func (b *Buffer) UnsafeToConcat(start, end int) {
	if b.Flags&FlagProduceUnsafeToConcat == 0 {
		return
	}
	b.setGlyphFlags(GlyphUnsafeToConcat, start, end, false, false)
}

// UnsafeToConcatFromOutbuffer is UnsafeToConcat for a range spanning output
// and input records.
func (b *Buffer) UnsafeToConcatFromOutbuffer(start, end int) {
	if b.Flags&FlagProduceUnsafeToConcat == 0 {
		return
	}
	b.setGlyphFlags(GlyphUnsafeToConcat, start, end, false, true)
}

// SafeToInsertTatweel flags [start, end) as accepting tatweel insertion.
// Without FlagProduceSafeToInsertTatweel the range is marked unsafe to break
// instead.
func (b *Buffer) SafeToInsertTatweel(start, end int) {
	if b.Flags&FlagProduceSafeToInsertTatweel == 0 {
		b.UnsafeToBreak(start, end)
		return
	}
	b.setGlyphFlags(GlyphSafeToInsertTatweel, start, end, true, false)
}

func (b *Buffer) setGlyphFlags(mask GlyphMask, start, end int, interior, fromOut bool) {
	if !b.successful {
		return
	}
	end = min(end, len(b.info))
	if interior && !fromOut && end-start < 2 {
		return
	}
	b.scratch |= ScratchHasGlyphFlags
	if !fromOut || !b.haveOutput {
		if !interior {
			for i := start; i < end; i++ {
				b.info[i].Mask |= mask
			}
			return
		}
		cluster := b.findMinCluster(b.info, start, end, math.MaxUint32)
		b.setFlagsExceptCluster(b.info, start, end, cluster, mask)
		return
	}
	assert(start <= len(b.outInfo) && b.idx <= end, "flag range does not span the cursor")
	if !interior {
		for i := start; i < len(b.outInfo); i++ {
			b.outInfo[i].Mask |= mask
		}
		for i := b.idx; i < end; i++ {
			b.info[i].Mask |= mask
		}
		return
	}
	cluster := b.findMinCluster(b.info, b.idx, end, math.MaxUint32)
	cluster = b.findMinCluster(b.outInfo, start, len(b.outInfo), cluster)
	b.setFlagsExceptCluster(b.outInfo, start, len(b.outInfo), cluster, mask)
	b.setFlagsExceptCluster(b.info, b.idx, end, cluster, mask)
}

func (b *Buffer) findMinCluster(infos []GlyphInfo, start, end int, cluster uint32) uint32 {
	if start >= end {
		return cluster
	}
	if b.ClusterLevel == Characters {
		for i := start; i < end; i++ {
			cluster = min(cluster, infos[i].Cluster)
		}
		return cluster
	}
	return min(cluster, infos[start].Cluster, infos[end-1].Cluster)
}

// setFlagsExceptCluster adds mask to every record in [start, end) not
// belonging to cluster. For monotone levels the records of cluster sit at
// one end of the range.
func (b *Buffer) setFlagsExceptCluster(infos []GlyphInfo, start, end int, cluster uint32, mask GlyphMask) {
	if start >= end {
		return
	}
	first, last := infos[start].Cluster, infos[end-1].Cluster
	if b.ClusterLevel == Characters || (cluster != first && cluster != last) {
		for i := start; i < end; i++ {
			if infos[i].Cluster != cluster {
				infos[i].Mask |= mask
			}
		}
		return
	}
	if cluster == first {
		for i := end; start < i && infos[i-1].Cluster != first; i-- {
			infos[i-1].Mask |= mask
		}
		return
	}
	for i := start; i < end && infos[i].Cluster != last; i++ {
		infos[i].Mask |= mask
	}
}

// --- Clusters as groups ----------------------------------------------------

// GroupEnd returns the end of the group starting at start, where a group is
// a maximal run of records for which sameGroup holds pairwise.
func (b *Buffer) GroupEnd(start int, sameGroup func(a, b *GlyphInfo) bool) int {
	for start++; start < len(b.info) && sameGroup(&b.info[start-1], &b.info[start]); start++ {
	}
	return start
}

// SameCluster is the group predicate for clusters.
func SameCluster(a, b *GlyphInfo) bool {
	return a.Cluster == b.Cluster
}

// SameGrapheme is the group predicate for graphemes as recorded by
// SetUnicodeProps or FormClusters.
func SameGrapheme(_, b *GlyphInfo) bool {
	return b.IsContinuation()
}

// ReverseClusters reverses the order of clusters, keeping the order of
// records within each cluster.
func (b *Buffer) ReverseClusters() {
	b.reverseGroups(SameCluster, false)
}

// ReverseGraphemes reverses the order of graphemes, keeping the order of
// records within each grapheme. At level MonotoneCharacters the clusters of
// each grapheme are merged so they stay monotone.
func (b *Buffer) ReverseGraphemes() {
	b.reverseGroups(SameGrapheme, b.ClusterLevel == MonotoneCharacters)
}

func (b *Buffer) reverseGroups(sameGroup func(a, b *GlyphInfo) bool, merge bool) {
	if !b.successful || len(b.info) == 0 {
		return
	}
	start := 0
	i := 1
	for ; i < len(b.info); i++ {
		if !sameGroup(&b.info[i-1], &b.info[i]) {
			if merge {
				b.MergeClusters(start, i)
			}
			b.ReverseRange(start, i)
			start = i
		}
	}
	if merge {
		b.MergeClusters(start, i)
	}
	b.ReverseRange(start, i)
	b.Reverse()
}

var graphemeSetup sync.Once

// FormClusters groups the records of each extended grapheme cluster. At
// level MonotoneGraphemes the clusters of a grapheme are merged, at the
// other levels graphemes are only marked as unsafe to break. Grapheme
// boundaries are determined by UAX #29 segmentation; records inside a
// grapheme are marked as continuations.
func (b *Buffer) FormClusters() {
	if !b.successful || b.scratch&ScratchHasNonASCII == 0 || len(b.info) < 2 {
		return
	}
	runes := make([]rune, len(b.info))
	for i := range b.info {
		runes[i] = b.info[i].Codepoint
	}
	graphemeSetup.Do(grapheme.SetupGraphemeClasses)
	segmenter := segment.NewSegmenter(grapheme.NewBreaker(1))
	segmenter.InitFromSlice(runes)
	start := 0
	for segmenter.Next() && start < len(b.info) {
		n := len(segmenter.Runes())
		if n == 0 {
			continue
		}
		end := min(start+n, len(b.info))
		for i := start + 1; i < end; i++ {
			b.info[i].SetContinuation()
		}
		if b.ClusterLevel == MonotoneGraphemes {
			b.MergeClusters(start, end)
		} else {
			b.UnsafeToBreak(start, end)
		}
		start = end
	}
	if err := segmenter.Err(); err != nil {
		tracer().Errorf("grapheme segmentation stopped at %d: %v", start, err)
	}
}
