package main

import (
	"fmt"
	"strings"

	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/thatisuday/commando"

	"github.com/npillmayer/otshaping/otfont"
	"github.com/npillmayer/otshaping/otshape"
)

func runFontCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	if mustFlagBool(flags["list"], "list") {
		for _, path := range otfont.SystemFonts() {
			fmt.Println(path)
		}
		return
	}
	f := mustLoadFont(args["font"].Value)
	fmt.Printf("font:   %s\n", f.Fontname)
	fmt.Printf("path:   %s\n", f.Path)
	fmt.Printf("upem:   %d\n", f.UnitsPerEm())
	fmt.Printf("tables: %s\n", f.Capabilities())
	script := mustFlagString(flags["script"], "script")
	lang := mustFlagString(flags["lang"], "lang")
	for _, table := range []otshape.LayoutTable{otshape.LayoutGSUB, otshape.LayoutGPOS} {
		fmt.Printf("%s scripts:  %s\n", table, joinTags(f.ScriptTags(table)))
		fmt.Printf("%s features: %s\n", table, joinTags(f.FeatureTags(table)))
		if script != "" {
			printFeatureLookups(f, table, script, lang)
		}
	}
}

// printFeatureLookups lists the lookups each feature contributes for a
// script and language system.
func printFeatureLookups(f *otfont.Font, table otshape.LayoutTable, script, lang string) {
	scripts := []ot.Tag{mustTag(script)}
	var langs []ot.Tag
	if lang != "" {
		langs = []ot.Tag{mustTag(lang)}
	}
	if tag, lookups, ok := f.RequiredFeature(table, scripts, langs); ok {
		fmt.Printf("  required %s: %v\n", tag, lookups)
	}
	for _, tag := range f.FeatureTags(table) {
		if lookups, ok := f.FeatureLookups(table, scripts, langs, tag, f.VariationIndex(table)); ok {
			fmt.Printf("  %s: %v\n", tag, lookups)
		}
	}
}

// mustTag pads short tags like "TRK" with spaces.
func mustTag(s string) ot.Tag {
	if len(s) > 4 {
		fatalf("invalid tag %q", s)
	}
	return ot.MustNewTag(s + strings.Repeat(" ", 4-len(s)))
}

func joinTags(tags []ot.Tag) string {
	if len(tags) == 0 {
		return "-"
	}
	s := make([]string, len(tags))
	for i, t := range tags {
		s[i] = t.String()
	}
	return strings.Join(s, " ")
}
