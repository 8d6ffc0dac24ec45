/*
Package synthfont builds small in-memory fonts from rule tables.

A synthetic face maps characters to glyphs, carries advances, GDEF classes
and extents, and applies substitution and positioning rules registered per
feature. It implements the optional capability interfaces of package otshape
and makes shaping results fully deterministic, without font files.

	b := synthfont.NewBuilder("demo")
	b.Glyphs("abc", 1, 500)
	b.Ligature("liga", []otbuffer.GlyphIndex{1, 2}, 10)
	face := b.Face()
*/
package synthfont

import (
	"fmt"
	"sort"

	ot "github.com/go-text/typesetting/font/opentype"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

// Face is a synthetic font face. Once its builder is no longer used, it is
// safe for concurrent use.
type Face struct {
	name        string
	upem        uint16
	cmap        map[rune]otbuffer.GlyphIndex
	advances    map[otbuffer.GlyphIndex]int32
	defaultAdv  int32
	classes     map[otbuffer.GlyphIndex]otshape.GlyphClass
	extents     map[otbuffer.GlyphIndex]otshape.GlyphExtents
	lookups     [2][]lookup
	features    [2]map[featureKey][]uint16
	required    [2]map[ot.Tag]requiredFeature
	variations  [2]map[int]map[ot.Tag][]uint16
	varIndex    [2]int
	coords      []float32
	kern        map[[2]otbuffer.GlyphIndex]int32
	tracking    int32
	morx        map[otbuffer.GlyphIndex]otbuffer.GlyphIndex
	failLookups map[uint16]bool
}

var (
	_ otshape.Face             = (*Face)(nil)
	_ otshape.GlyphClasser     = (*Face)(nil)
	_ otshape.GlyphExtenter    = (*Face)(nil)
	_ otshape.LayoutTables     = (*Face)(nil)
	_ otshape.LookupApplier    = (*Face)(nil)
	_ otshape.PairKerner       = (*Face)(nil)
	_ otshape.Tracker          = (*Face)(nil)
	_ otshape.VariationIndexer = (*Face)(nil)
	_ otshape.MorxApplier      = (*Face)(nil)
)

// featureKey scopes a feature to a script; script 0 matches any script.
type featureKey struct {
	script ot.Tag
	tag    ot.Tag
}

type requiredFeature struct {
	tag     ot.Tag
	lookups []uint16
}

func (f *Face) String() string {
	return fmt.Sprintf("synthfont(%s)", f.name)
}

// Name returns the face's name.
func (f *Face) Name() string { return f.name }

// NominalGlyph implements otshape.Face.
func (f *Face) NominalGlyph(r rune) (otbuffer.GlyphIndex, bool) {
	gid, ok := f.cmap[r]
	return gid, ok
}

// HorizontalAdvance implements otshape.Face.
func (f *Face) HorizontalAdvance(gid otbuffer.GlyphIndex) int32 {
	if adv, ok := f.advances[gid]; ok {
		return adv
	}
	return f.defaultAdv
}

// Capabilities implements otshape.Face.
func (f *Face) Capabilities() otshape.Capabilities {
	var caps otshape.Capabilities
	if len(f.lookups[otshape.LayoutGSUB]) > 0 {
		caps |= otshape.HasGSUB
	}
	if len(f.lookups[otshape.LayoutGPOS]) > 0 {
		caps |= otshape.HasGPOS
	}
	if len(f.classes) > 0 {
		caps |= otshape.HasGlyphClasses
	}
	if len(f.kern) > 0 {
		caps |= otshape.HasKern
	}
	if f.tracking != 0 {
		caps |= otshape.HasTrak
	}
	if len(f.morx) > 0 {
		caps |= otshape.HasMorx
	}
	return caps
}

// GlyphClass implements otshape.GlyphClasser.
func (f *Face) GlyphClass(gid otbuffer.GlyphIndex) otshape.GlyphClass {
	return f.classes[gid]
}

// GlyphExtents implements otshape.GlyphExtenter.
func (f *Face) GlyphExtents(gid otbuffer.GlyphIndex) (otshape.GlyphExtents, bool) {
	ext, ok := f.extents[gid]
	return ext, ok
}

// UnitsPerEm implements otshape.GlyphExtenter.
func (f *Face) UnitsPerEm() uint16 { return f.upem }

// KernPair implements otshape.PairKerner.
func (f *Face) KernPair(left, right otbuffer.GlyphIndex) int32 {
	return f.kern[[2]otbuffer.GlyphIndex{left, right}]
}

// Tracking implements otshape.Tracker.
func (f *Face) Tracking() int32 { return f.tracking }

// VariationIndex implements otshape.VariationIndexer.
func (f *Face) VariationIndex(table otshape.LayoutTable) int {
	return f.varIndex[table]
}

// Coords implements otshape.VariationIndexer.
func (f *Face) Coords() []float32 { return f.coords }

// FeatureLookups implements otshape.LayoutTables.
func (f *Face) FeatureLookups(table otshape.LayoutTable, scriptTags, _ []ot.Tag, tag ot.Tag,
	variationIndex int) ([]uint16, bool) {
	//
	if variationIndex >= 0 {
		if alt, ok := f.variations[table][variationIndex][tag]; ok {
			return alt, true
		}
	}
	features := f.features[table]
	if scriptTags == nil {
		// search all scripts, lowest script tag first
		var (
			found   []uint16
			script  ot.Tag
			matched bool
		)
		for key, lookups := range features {
			if key.tag == tag && (!matched || key.script < script) {
				found, script, matched = lookups, key.script, true
			}
		}
		return found, matched
	}
	for _, script := range scriptTags {
		if lookups, ok := features[featureKey{script: script, tag: tag}]; ok {
			return lookups, true
		}
	}
	lookups, ok := features[featureKey{tag: tag}]
	return lookups, ok
}

// RequiredFeature implements otshape.LayoutTables.
func (f *Face) RequiredFeature(table otshape.LayoutTable, scriptTags, _ []ot.Tag) (ot.Tag, []uint16, bool) {
	for _, script := range scriptTags {
		if req, ok := f.required[table][script]; ok {
			return req.tag, req.lookups, true
		}
	}
	if req, ok := f.required[table][0]; ok {
		return req.tag, req.lookups, true
	}
	return 0, nil, false
}

// ApplyLookup implements otshape.LookupApplier.
func (f *Face) ApplyLookup(c *otshape.ApplyContext) (bool, error) {
	lookups := f.lookups[c.Table]
	index := c.Lookup.Index
	if int(index) >= len(lookups) {
		return false, fmt.Errorf("synthfont: %s lookup %d out of range", c.Table, index)
	}
	if f.failLookups[index] {
		return false, fmt.Errorf("synthfont: %s lookup %d is broken", c.Table, index)
	}
	return lookups[index].apply(c, f), nil
}

// ApplyMorx implements otshape.MorxApplier with a single glyph
// substitution over the whole buffer.
func (f *Face) ApplyMorx(buf *otbuffer.Buffer) error {
	infos := buf.GlyphInfos()
	for i := range infos {
		if g, ok := f.morx[infos[i].Glyph()]; ok {
			infos[i].Codepoint = rune(g)
			infos[i].SetGlyphProps(infos[i].GlyphProps() | otbuffer.GlyphPropsSubstituted)
		}
	}
	return nil
}

// --- Builder ---------------------------------------------------------------

// Builder assembles a synthetic face.
type Builder struct {
	face *Face
}

// NewBuilder starts a face with 1000 units per em and a default advance of
// 500 units.
func NewBuilder(name string) *Builder {
	return &Builder{face: &Face{
		name:        name,
		upem:        1000,
		defaultAdv:  500,
		cmap:        make(map[rune]otbuffer.GlyphIndex),
		advances:    make(map[otbuffer.GlyphIndex]int32),
		classes:     make(map[otbuffer.GlyphIndex]otshape.GlyphClass),
		extents:     make(map[otbuffer.GlyphIndex]otshape.GlyphExtents),
		features:    [2]map[featureKey][]uint16{{}, {}},
		required:    [2]map[ot.Tag]requiredFeature{{}, {}},
		variations:  [2]map[int]map[ot.Tag][]uint16{{}, {}},
		varIndex:    [2]int{-1, -1},
		kern:        make(map[[2]otbuffer.GlyphIndex]int32),
		morx:        make(map[otbuffer.GlyphIndex]otbuffer.GlyphIndex),
		failLookups: make(map[uint16]bool),
	}}
}

// Glyph maps r to gid with the given advance.
func (b *Builder) Glyph(r rune, gid otbuffer.GlyphIndex, advance int32) *Builder {
	b.face.cmap[r] = gid
	b.face.advances[gid] = advance
	return b
}

// Glyphs maps the characters of s to consecutive glyphs starting at first.
func (b *Builder) Glyphs(s string, first otbuffer.GlyphIndex, advance int32) *Builder {
	gid := first
	for _, r := range s {
		b.Glyph(r, gid, advance)
		gid++
	}
	return b
}

// Advance sets the advance of a glyph not reachable through the cmap.
func (b *Builder) Advance(gid otbuffer.GlyphIndex, advance int32) *Builder {
	b.face.advances[gid] = advance
	return b
}

// Class sets GDEF classes. Setting any class makes the face report GDEF.
func (b *Builder) Class(class otshape.GlyphClass, gids ...otbuffer.GlyphIndex) *Builder {
	for _, gid := range gids {
		b.face.classes[gid] = class
	}
	return b
}

// Extents sets the ink box of a glyph.
func (b *Builder) Extents(gid otbuffer.GlyphIndex, ext otshape.GlyphExtents) *Builder {
	b.face.extents[gid] = ext
	return b
}

// UnitsPerEm sets the design units per em.
func (b *Builder) UnitsPerEm(upem uint16) *Builder {
	b.face.upem = upem
	return b
}

// Kern adds a legacy kerning pair.
func (b *Builder) Kern(left, right otbuffer.GlyphIndex, value int32) *Builder {
	b.face.kern[[2]otbuffer.GlyphIndex{left, right}] = value
	return b
}

// Tracking sets the trak adjustment.
func (b *Builder) Tracking(value int32) *Builder {
	b.face.tracking = value
	return b
}

// Morx adds a morx glyph substitution.
func (b *Builder) Morx(from, to otbuffer.GlyphIndex) *Builder {
	b.face.morx[from] = to
	return b
}

// Variation makes feature tag use lookups for variation index vi, and
// selects vi for table.
func (b *Builder) Variation(table otshape.LayoutTable, vi int, coords []float32, tag string, lookups ...uint16) *Builder {
	t := otshape.T(tag)
	if b.face.variations[table][vi] == nil {
		b.face.variations[table][vi] = make(map[ot.Tag][]uint16)
	}
	b.face.variations[table][vi][t] = lookups
	b.face.varIndex[table] = vi
	b.face.coords = coords
	return b
}

// FailLookup makes the lookup with the given index report an error.
func (b *Builder) FailLookup(index uint16) *Builder {
	b.face.failLookups[index] = true
	return b
}

// Required installs a required feature for script (0 for any).
func (b *Builder) Required(table otshape.LayoutTable, script ot.Tag, tag string, lookups ...uint16) *Builder {
	b.face.required[table][script] = requiredFeature{tag: otshape.T(tag), lookups: lookups}
	return b
}

// Feature binds existing lookups to a feature tag for all scripts.
func (b *Builder) Feature(table otshape.LayoutTable, tag string, lookups ...uint16) *Builder {
	return b.ScriptFeature(table, 0, tag, lookups...)
}

// ScriptFeature binds lookups to a feature tag for one script.
func (b *Builder) ScriptFeature(table otshape.LayoutTable, script ot.Tag, tag string, lookups ...uint16) *Builder {
	key := featureKey{script: script, tag: otshape.T(tag)}
	b.face.features[table][key] = append(b.face.features[table][key], lookups...)
	return b
}

func (b *Builder) addLookup(table otshape.LayoutTable, tag string, l lookup) uint16 {
	index := uint16(len(b.face.lookups[table]))
	b.face.lookups[table] = append(b.face.lookups[table], l)
	if tag != "" {
		b.Feature(table, tag, index)
	}
	return index
}

// Single adds a GSUB single substitution lookup under feature tag and
// returns its index. An empty tag adds the lookup without a feature.
func (b *Builder) Single(tag string, mapping map[otbuffer.GlyphIndex]otbuffer.GlyphIndex) uint16 {
	return b.addLookup(otshape.LayoutGSUB, tag, singleSubst(mapping))
}

// Multiple adds a GSUB multiple substitution lookup. An empty sequence
// deletes the glyph.
func (b *Builder) Multiple(tag string, mapping map[otbuffer.GlyphIndex][]otbuffer.GlyphIndex) uint16 {
	return b.addLookup(otshape.LayoutGSUB, tag, multipleSubst(mapping))
}

// Ligature adds a GSUB ligature lookup replacing components by lig.
func (b *Builder) Ligature(tag string, components []otbuffer.GlyphIndex, lig otbuffer.GlyphIndex) uint16 {
	return b.addLookup(otshape.LayoutGSUB, tag, &ligatureSubst{
		ligatures: []ligature{{components: components, glyph: lig}},
	})
}

// Ligatures adds a GSUB ligature lookup with several ligatures, longest
// match first.
func (b *Builder) Ligatures(tag string, ligs map[otbuffer.GlyphIndex][]otbuffer.GlyphIndex) uint16 {
	l := &ligatureSubst{}
	for glyph, components := range ligs {
		l.ligatures = append(l.ligatures, ligature{components: components, glyph: glyph})
	}
	sort.Slice(l.ligatures, func(i, j int) bool {
		a, c := l.ligatures[i], l.ligatures[j]
		if len(a.components) != len(c.components) {
			return len(a.components) > len(c.components)
		}
		return a.glyph < c.glyph
	})
	return b.addLookup(otshape.LayoutGSUB, tag, l)
}

// PairPos adds a GPOS pair adjustment of the first glyph's advance.
func (b *Builder) PairPos(tag string, pairs map[[2]otbuffer.GlyphIndex]int32) uint16 {
	return b.addLookup(otshape.LayoutGPOS, tag, pairPos(pairs))
}

// SinglePos adds a GPOS single adjustment.
func (b *Builder) SinglePos(tag string, adjustments map[otbuffer.GlyphIndex]otbuffer.GlyphPosition) uint16 {
	return b.addLookup(otshape.LayoutGPOS, tag, singlePos(adjustments))
}

// MarkToBase adds a GPOS mark attachment: marks are placed at the given
// offset from the origin of the preceding base glyph.
func (b *Builder) MarkToBase(tag string, anchors map[otbuffer.GlyphIndex][2]int32) uint16 {
	return b.addLookup(otshape.LayoutGPOS, tag, markToBase(anchors))
}

// Face returns the face built so far. Repeated calls return the same face,
// and later builder calls keep extending it.
func (b *Builder) Face() *Face {
	return b.face
}
