package otfont

import (
	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/font/opentype/tables"

	"github.com/npillmayer/otshaping/otshape"
)

const noRequiredFeature = 0xFFFF

// Script tags tried when none of the requested scripts is present.
var fallbackScripts = []ot.Tag{
	ot.MustNewTag("DFLT"),
	ot.MustNewTag("dflt"),
	ot.MustNewTag("latn"),
}

func (f *Font) layout(table otshape.LayoutTable) *font.Layout {
	if table == otshape.LayoutGPOS {
		return &f.face.GPOS.Layout
	}
	return &f.face.GSUB.Layout
}

// FeatureLookups implements otshape.LayoutTables.
func (f *Font) FeatureLookups(table otshape.LayoutTable, scriptTags, langTags []ot.Tag, tag ot.Tag,
	variationIndex int) ([]uint16, bool) {
	//
	return featureLookups(f.layout(table), scriptTags, langTags, tag, variationIndex)
}

// RequiredFeature implements otshape.LayoutTables.
func (f *Font) RequiredFeature(table otshape.LayoutTable, scriptTags, langTags []ot.Tag) (ot.Tag, []uint16, bool) {
	return requiredFeature(f.layout(table), scriptTags, langTags)
}

// selectLangSys finds the language system for a script and language,
// trying the tags in order. Scripts fall back to DFLT, dflt and latn,
// languages to the script's default language system.
func selectLangSys(la *font.Layout, scriptTags, langTags []ot.Tag) *tables.LangSys {
	index := -1
	for _, candidates := range [][]ot.Tag{scriptTags, fallbackScripts} {
		for _, t := range candidates {
			if index = la.FindScript(t); index >= 0 {
				break
			}
		}
		if index >= 0 {
			break
		}
	}
	if index < 0 {
		return nil
	}
	script := &la.Scripts[index]
	for _, lang := range langTags {
		for i, rec := range script.LangSysRecords {
			if rec.Tag == lang && i < len(script.LangSys) {
				return &script.LangSys[i]
			}
		}
	}
	return script.DefaultLangSys
}

func featureLookups(la *font.Layout, scriptTags, langTags []ot.Tag, tag ot.Tag,
	variationIndex int) ([]uint16, bool) {
	//
	langSys := selectLangSys(la, scriptTags, langTags)
	if langSys == nil {
		return nil, false
	}
	for _, fi := range langSys.FeatureIndices {
		if int(fi) >= len(la.Features) || la.Features[fi].Tag != tag {
			continue
		}
		return lookupsOf(la, fi, variationIndex), true
	}
	return nil, false
}

func requiredFeature(la *font.Layout, scriptTags, langTags []ot.Tag) (ot.Tag, []uint16, bool) {
	langSys := selectLangSys(la, scriptTags, langTags)
	if langSys == nil || langSys.RequiredFeatureIndex == noRequiredFeature {
		return 0, nil, false
	}
	fi := langSys.RequiredFeatureIndex
	if int(fi) >= len(la.Features) {
		return 0, nil, false
	}
	return la.Features[fi].Tag, lookupsOf(la, fi, -1), true
}

// lookupsOf returns the lookups of feature fi, substituted by the
// alternate feature table of a matching feature variation.
func lookupsOf(la *font.Layout, fi uint16, variationIndex int) []uint16 {
	if variationIndex >= 0 && variationIndex < len(la.FeatureVariations) {
		subst := la.FeatureVariations[variationIndex].Substitutions.Substitutions
		for _, rec := range subst {
			if rec.FeatureIndex == fi {
				tracer().Debugf("feature %s replaced by variation %d", la.Features[fi].Tag, variationIndex)
				return rec.AlternateFeature.LookupListIndices
			}
		}
	}
	return la.Features[fi].LookupListIndices
}

// ScriptTags lists the scripts a layout table has language systems for.
func (f *Font) ScriptTags(table otshape.LayoutTable) []ot.Tag {
	return scriptTags(f.layout(table))
}

// FeatureTags lists the distinct feature tags of a layout table, in
// feature list order.
func (f *Font) FeatureTags(table otshape.LayoutTable) []ot.Tag {
	return featureTags(f.layout(table))
}

func scriptTags(la *font.Layout) []ot.Tag {
	tags := make([]ot.Tag, len(la.Scripts))
	for i, s := range la.Scripts {
		tags[i] = s.Tag
	}
	return tags
}

func featureTags(la *font.Layout) []ot.Tag {
	seen := make(map[ot.Tag]bool, len(la.Features))
	tags := make([]ot.Tag, 0, len(la.Features))
	for _, feat := range la.Features {
		if !seen[feat.Tag] {
			seen[feat.Tag] = true
			tags = append(tags, feat.Tag)
		}
	}
	return tags
}
