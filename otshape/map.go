package otshape

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	ot "github.com/go-text/typesetting/font/opentype"

	"github.com/npillmayer/otshaping/otbuffer"
)

// Mask bit layout. The public glyph flags occupy the lowest bits, followed by
// the bit shared by all global features with a maximum value of 1. All
// higher bits are handed out to features in tag order.
const (
	globalBitShift = 3
	globalBitMask  = uint32(1) << globalBitShift
	maxFeatureBits = 8
)

func init() {
	assert(bits.OnesCount32(otbuffer.GlyphFlagDefined) == globalBitShift,
		"glyph flags overlap feature mask bits")
}

// LookupOp is one lookup scheduled in a stage.
type LookupOp struct {
	Index       uint16
	Mask        uint32
	FeatureTag  ot.Tag
	AutoZWNJ    bool
	AutoZWJ     bool
	Random      bool
	PerSyllable bool
}

// Stage is a group of lookups applied in lookup index order, followed by an
// optional pause hook.
type Stage struct {
	Lookups []LookupOp
	Pause   PauseHook
}

// MaskAllocation documents the mask bits allocated to one feature.
type MaskAllocation struct {
	Tag           ot.Tag
	Mask          uint32 // all bits of the feature's value
	Shift         uint   // position of the lowest bit
	DefaultValue  uint32 // value set on every glyph by the global mask
	Stage         [2]int // GSUB and GPOS stage the feature's lookups run in
	Global        bool
	NeedsFallback bool // feature is not in the font, engine must emulate it
	AutoZWNJ      bool
	AutoZWJ       bool
}

// Mask1 is the mask for value 1 of the feature.
func (a MaskAllocation) Mask1() uint32 {
	return (1 << a.Shift) & a.Mask
}

func (a MaskAllocation) String() string {
	return fmt.Sprintf("%s mask=%#08x shift=%d default=%d stage=%v", tagString(a.Tag),
		a.Mask, a.Shift, a.DefaultValue, a.Stage)
}

// Map is the compiled result of a MapBuilder: staged lookups per layout
// table plus the mask allocation table. A Map is immutable.
type Map struct {
	GlobalMask uint32
	stages     [2][]Stage
	features   []MaskAllocation // sorted by tag
}

// Stages returns the stages of a layout table.
func (m *Map) Stages(table LayoutTable) []Stage {
	return m.stages[table]
}

// LookupCount returns the number of scheduled lookups of a layout table.
func (m *Map) LookupCount(table LayoutTable) int {
	n := 0
	for _, st := range m.stages[table] {
		n += len(st.Lookups)
	}
	return n
}

func (m *Map) find(tag ot.Tag) (MaskAllocation, bool) {
	i := sort.Search(len(m.features), func(i int) bool { return m.features[i].Tag >= tag })
	if i < len(m.features) && m.features[i].Tag == tag {
		return m.features[i], true
	}
	return MaskAllocation{}, false
}

// Mask returns the mask and shift of a feature. Features without bits
// have mask 0.
func (m *Map) Mask(tag ot.Tag) (mask uint32, shift uint) {
	a, ok := m.find(tag)
	if !ok {
		return 0, 0
	}
	return a.Mask, a.Shift
}

// Mask1 returns the mask for value 1 of a feature, 0 if the feature has no bits.
func (m *Map) Mask1(tag ot.Tag) uint32 {
	a, ok := m.find(tag)
	if !ok {
		return 0
	}
	return a.Mask1()
}

// NeedsFallback reports whether a feature got mask bits although the font
// does not have it.
func (m *Map) NeedsFallback(tag ot.Tag) bool {
	a, ok := m.find(tag)
	return ok && a.NeedsFallback
}

// Allocation returns a copy of the mask allocation table, sorted by tag.
func (m *Map) Allocation() []MaskAllocation {
	return append([]MaskAllocation(nil), m.features...)
}

// String dumps the map, one line per allocation and per stage.
func (m *Map) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "global mask %#08x\n", m.GlobalMask)
	for _, a := range m.features {
		sb.WriteString(a.String())
		sb.WriteByte('\n')
	}
	for t := LayoutGSUB; t <= LayoutGPOS; t++ {
		for i, st := range m.stages[t] {
			fmt.Fprintf(&sb, "%s stage %d:", t, i)
			for _, op := range st.Lookups {
				fmt.Fprintf(&sb, " %d(%s)", op.Index, tagString(op.FeatureTag))
			}
			if st.Pause != nil {
				sb.WriteString(" +pause")
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// --- Building maps ---------------------------------------------------------

type featureInfo struct {
	tag          ot.Tag
	seq          int
	maxValue     uint32
	flags        FeatureFlags
	defaultValue uint32
	stage        [2]int
}

type stageInfo struct {
	index int
	pause PauseHook
}

// MapBuilder collects features and pauses and compiles them into a Map.
// It implements FeaturePlanner.
type MapBuilder struct {
	face         Face
	scriptTags   []ot.Tag
	langTags     []ot.Tag
	featureInfos []featureInfo
	stages       [2][]stageInfo
	currentStage [2]int
}

var _ FeaturePlanner = (*MapBuilder)(nil)

// NewMapBuilder creates a builder resolving features against face for the
// given candidate script and language tags.
func NewMapBuilder(face Face, scriptTags, langTags []ot.Tag) *MapBuilder {
	return &MapBuilder{face: face, scriptTags: scriptTags, langTags: langTags}
}

// EnableFeature adds a global feature with value 1.
func (b *MapBuilder) EnableFeature(tag ot.Tag) {
	b.AddFeature(tag, FeatureGlobal, 1)
}

// DisableFeature turns a feature off globally.
func (b *MapBuilder) DisableFeature(tag ot.Tag) {
	b.AddFeature(tag, FeatureGlobal, 0)
}

// AddFeature adds a feature in the current stage.
func (b *MapBuilder) AddFeature(tag ot.Tag, flags FeatureFlags, value uint32) {
	if tag == 0 {
		return
	}
	info := featureInfo{
		tag:      tag,
		seq:      len(b.featureInfos),
		maxValue: value,
		flags:    flags,
		stage:    b.currentStage,
	}
	if flags&FeatureGlobal != 0 {
		info.defaultValue = value
	}
	b.featureInfos = append(b.featureInfos, info)
}

// HasFeature reports whether the last global mention of tag enabled it or a
// ranged mention exists.
func (b *MapBuilder) HasFeature(tag ot.Tag) bool {
	on := false
	for _, info := range b.featureInfos {
		if info.tag != tag {
			continue
		}
		if info.flags&FeatureGlobal != 0 {
			on = info.maxValue > 0
		} else if info.maxValue > 0 {
			on = true
		}
	}
	return on
}

// AddGSUBPause ends the current GSUB stage, with fn to run after it.
func (b *MapBuilder) AddGSUBPause(fn PauseHook) {
	b.addPause(LayoutGSUB, fn)
}

// AddGPOSPause ends the current GPOS stage, with fn to run after it.
func (b *MapBuilder) AddGPOSPause(fn PauseHook) {
	b.addPause(LayoutGPOS, fn)
}

func (b *MapBuilder) addPause(table LayoutTable, fn PauseHook) {
	b.stages[table] = append(b.stages[table], stageInfo{index: b.currentStage[table], pause: fn})
	b.currentStage[table]++
}

// mergeFeatureInfos sorts features by tag and collapses duplicates. A later
// global mention overrides values, a ranged mention makes the feature
// non-global with the maximum value. Stages take the minimum.
func mergeFeatureInfos(infos []featureInfo) []featureInfo {
	if len(infos) == 0 {
		return nil
	}
	infos = append([]featureInfo(nil), infos...)
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].tag != infos[j].tag {
			return infos[i].tag < infos[j].tag
		}
		return infos[i].seq < infos[j].seq
	})
	j := 0
	for i := 1; i < len(infos); i++ {
		if infos[i].tag != infos[j].tag {
			j++
			infos[j] = infos[i]
			continue
		}
		if infos[i].flags&FeatureGlobal != 0 {
			infos[j].flags |= FeatureGlobal
			infos[j].maxValue = infos[i].maxValue
			infos[j].defaultValue = infos[i].defaultValue
		} else {
			infos[j].flags &^= FeatureGlobal
			infos[j].maxValue = max(infos[j].maxValue, infos[i].maxValue)
		}
		infos[j].flags |= infos[i].flags & FeatureHasFallback
		infos[j].stage[0] = min(infos[j].stage[0], infos[i].stage[0])
		infos[j].stage[1] = min(infos[j].stage[1], infos[i].stage[1])
	}
	return infos[:j+1]
}

func bitStorage(v uint32) uint {
	return uint(bits.Len32(v))
}

type resolvedFeature struct {
	alloc   MaskAllocation
	lookups [2][]uint16
	random  bool
	perSyl  bool
}

// Compile freezes the collected features into a Map. variationIndex selects
// feature variations per table, -1 for none. The builder may be compiled
// more than once.
func (b *MapBuilder) Compile(variationIndex [2]int) *Map {
	m := &Map{GlobalMask: globalBitMask}
	layout, _ := b.face.(LayoutTables)

	var (
		requiredTag     [2]ot.Tag
		requiredLookups [2][]uint16
		requiredStage   [2]int
		hasRequired     [2]bool
	)
	if layout != nil {
		for t := LayoutGSUB; t <= LayoutGPOS; t++ {
			requiredTag[t], requiredLookups[t], hasRequired[t] = layout.RequiredFeature(t, b.scriptTags, b.langTags)
		}
	}

	var resolved []resolvedFeature
	nextBit := uint(globalBitShift + 1)
	for _, info := range mergeFeatureInfos(b.featureInfos) {
		var bitsNeeded uint
		if !(info.flags&FeatureGlobal != 0 && info.maxValue == 1) {
			bitsNeeded = min(maxFeatureBits, bitStorage(info.maxValue))
		}
		if info.maxValue == 0 || nextBit+bitsNeeded > 32 {
			continue // disabled, or out of bits
		}
		rf := resolvedFeature{
			random: info.flags&FeatureRandom != 0,
			perSyl: info.flags&FeaturePerSyllable != 0,
		}
		found := false
		for t := LayoutGSUB; t <= LayoutGPOS; t++ {
			if hasRequired[t] && requiredTag[t] == info.tag {
				requiredStage[t] = info.stage[t]
			}
			if layout == nil {
				continue
			}
			lookups, ok := layout.FeatureLookups(t, b.scriptTags, b.langTags, info.tag, variationIndex[t])
			if !ok && info.flags&FeatureGlobalSearch != 0 {
				lookups, ok = layout.FeatureLookups(t, nil, nil, info.tag, variationIndex[t])
			}
			if ok {
				found = true
				rf.lookups[t] = lookups
			}
		}
		if !found && info.flags&FeatureHasFallback == 0 {
			continue
		}
		a := MaskAllocation{
			Tag:           info.tag,
			Stage:         info.stage,
			Global:        info.flags&FeatureGlobal != 0,
			NeedsFallback: !found,
			AutoZWNJ:      info.flags&FeatureManualZWNJ == 0,
			AutoZWJ:       info.flags&FeatureManualZWJ == 0,
		}
		if a.Global && info.maxValue == 1 {
			a.Shift = globalBitShift
			a.Mask = globalBitMask
			a.DefaultValue = 1
		} else {
			a.Shift = nextBit
			a.Mask = (1<<(nextBit+bitsNeeded) - 1) &^ (1<<nextBit - 1)
			a.DefaultValue = info.defaultValue
			nextBit += bitsNeeded
			m.GlobalMask |= (info.defaultValue << a.Shift) & a.Mask
		}
		rf.alloc = a
		resolved = append(resolved, rf)
		m.features = append(m.features, a)
	}

	for t := LayoutGSUB; t <= LayoutGPOS; t++ {
		stages := append(append([]stageInfo(nil), b.stages[t]...), stageInfo{index: b.currentStage[t]})
		si := 0
		for stage := 0; stage <= b.currentStage[t]; stage++ {
			var ops []LookupOp
			if hasRequired[t] && requiredStage[t] == stage {
				for _, inx := range requiredLookups[t] {
					ops = append(ops, LookupOp{Index: inx, Mask: globalBitMask, FeatureTag: requiredTag[t],
						AutoZWNJ: true, AutoZWJ: true})
				}
			}
			for _, rf := range resolved {
				if rf.alloc.Stage[t] != stage {
					continue
				}
				for _, inx := range rf.lookups[t] {
					ops = append(ops, LookupOp{
						Index:       inx,
						Mask:        rf.alloc.Mask,
						FeatureTag:  rf.alloc.Tag,
						AutoZWNJ:    rf.alloc.AutoZWNJ,
						AutoZWJ:     rf.alloc.AutoZWJ,
						Random:      rf.random,
						PerSyllable: rf.perSyl,
					})
				}
			}
			ops = mergeLookups(ops)
			var pause PauseHook
			if si < len(stages) && stages[si].index == stage {
				pause = stages[si].pause
				si++
			}
			if len(ops) == 0 && pause == nil {
				continue
			}
			m.stages[t] = append(m.stages[t], Stage{Lookups: ops, Pause: pause})
		}
	}
	tracer().Debugf("compiled map: %d features, %d GSUB / %d GPOS lookups, global mask %#x",
		len(m.features), m.LookupCount(LayoutGSUB), m.LookupCount(LayoutGPOS), m.GlobalMask)
	return m
}

// mergeLookups sorts a stage's lookups by index and merges duplicates. The
// merged lookup applies wherever any of the features applies, and skips
// joiners only if all features do.
func mergeLookups(ops []LookupOp) []LookupOp {
	if len(ops) < 2 {
		return ops
	}
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Index < ops[j].Index })
	j := 0
	for i := 1; i < len(ops); i++ {
		if ops[i].Index != ops[j].Index {
			j++
			ops[j] = ops[i]
			continue
		}
		ops[j].Mask |= ops[i].Mask
		ops[j].AutoZWNJ = ops[j].AutoZWNJ && ops[i].AutoZWNJ
		ops[j].AutoZWJ = ops[j].AutoZWJ && ops[i].AutoZWJ
	}
	return ops[:j+1]
}
