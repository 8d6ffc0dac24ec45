// Command ot-tools shapes text and inspects fonts from the command line,
// for scripting and for comparing output with other shapers.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/thatisuday/commando"

	"github.com/npillmayer/otshaping/otfont"
	"github.com/npillmayer/otshaping/otshape"
	"github.com/npillmayer/otshaping/otshape/otarabic"
	"github.com/npillmayer/otshaping/otshape/otcore"
	"github.com/npillmayer/otshaping/otshape/othebrew"
)

func main() {
	commando.
		SetExecutableName("ot-tools").
		SetVersion("v0.1.0").
		SetDescription("CLI for OpenType shaping and font diagnostics.")

	commando.
		Register("shape").
		SetDescription("Shape text with an OpenType font and print the serialized glyph buffer.").
		SetShortDescription("shape text").
		AddArgument("font", "font file path or system font name", "").
		AddArgument("text...", "text to shape", "").
		AddFlag("script,s", "script (ISO 15924, e.g. Latn, Arab, Hebr), '-' guesses", commando.String, "-").
		AddFlag("lang,l", "language tag (BCP 47, e.g. en, ar, he), '-' guesses", commando.String, "-").
		AddFlag("direction,d", "direction: ltr|rtl|ttb|btt, '-' guesses", commando.String, "-").
		AddFlag("features,f", "feature list (e.g. liga=1,kern=0,+rlig,-calt,smcp[2:4])", commando.String, "-").
		AddFlag("codepoints,c", "codepoints instead of text (comma/space separated, e.g. U+0627,U+0644)", commando.String, "-").
		AddFlag("cluster-level", "cluster level 0|1|2", commando.Int, 0).
		AddFlag("no-positions", "omit glyph positions from output", commando.Bool, nil).
		AddFlag("glyph-flags", "print glyph flags", commando.Bool, nil).
		AddFlag("verbose,V", "print font and input buffer", commando.Bool, nil).
		SetAction(runShapeCommand)

	commando.
		Register("plan").
		SetDescription("Print the feature masks and lookup stages of a shape plan.").
		SetShortDescription("show shape plan").
		AddArgument("font", "font file path or system font name", "").
		AddArgument("text...", "sample text to guess script and direction from", "").
		AddFlag("script,s", "script (ISO 15924, e.g. Latn, Arab, Hebr), '-' guesses", commando.String, "-").
		AddFlag("lang,l", "language tag (BCP 47, e.g. en, ar, he), '-' guesses", commando.String, "-").
		AddFlag("direction,d", "direction: ltr|rtl|ttb|btt, '-' guesses", commando.String, "-").
		AddFlag("features,f", "feature list (e.g. liga=1,kern=0,+rlig,-calt)", commando.String, "-").
		AddFlag("codepoints,c", "codepoints instead of text", commando.String, "-").
		SetAction(runPlanCommand)

	commando.
		Register("font").
		SetDescription("Print diagnostics and layout information for an OpenType font.").
		SetShortDescription("font diagnostics").
		AddArgument("font", "font file path or system font name", "").
		AddFlag("script,s", "list feature lookups for a script tag (e.g. latn, arab)", commando.String, "-").
		AddFlag("lang,l", "language system tag for --script (e.g. TRK)", commando.String, "-").
		AddFlag("list,L", "list system fonts instead", commando.Bool, nil).
		SetAction(runFontCommand)

	commando.Parse(nil)
}

// newShaper creates a shaper knowing the Arabic and Hebrew engines besides
// the default one.
func newShaper() *otshape.Shaper {
	reg, err := otshape.NewRegistry(otarabic.New(), othebrew.New(), otcore.New())
	if err != nil {
		fatalf("cannot set up shaping engines: %v", err)
	}
	return otshape.NewShaper(otshape.WithRegistry(reg))
}

// mustLoadFont loads a font file, or searches the system fonts if path
// does not exist.
func mustLoadFont(path string) *otfont.Font {
	path = strings.TrimSpace(path)
	if path == "" {
		fatalf("font path is required")
	}
	var f *otfont.Font
	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		f, err = otfont.Load(path)
	} else {
		f, err = otfont.Find(path)
	}
	if err != nil {
		fatalf("cannot load font %s: %v", path, err)
	}
	return f
}

func mustFlagString(flag commando.FlagValue, name string) string {
	s, err := flag.GetString()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	s = strings.TrimSpace(s)
	if s == "-" {
		return ""
	}
	return s
}

func mustFlagInt(flag commando.FlagValue, name string) int {
	n, err := flag.GetInt()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return n
}

func mustFlagBool(flag commando.FlagValue, name string) bool {
	b, err := flag.GetBool()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return b
}

func fatalf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "ot-tools: "+format+"\n", args...)
	os.Exit(1)
}

func splitCSVSpace(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
