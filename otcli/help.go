package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "feature", "features":
		pterm.Info.Println("Features")
		pterm.Println(`
	features takes a comma separated list of OpenType features:
	+------------------+--------------------------------------+
	| kern, +kern      | switch on                            |
	| -kern, kern=0    | switch off                           |
	| aalt=2           | select alternate 2                   |
	| liga[3:5]        | switch on for clusters 3 and 4 only  |
	| liga[3:]=0       | switch off from cluster 3 on         |
	+------------------+--------------------------------------+
	'features' without arguments clears the list.
	`)
	case "shape", "text", "output":
		pterm.Info.Println("Shaping")
		pterm.Println(`
	shape <text> shapes a line of text with the current font and settings.
	Escapes like \u0301 are resolved. Unset direction and script are guessed
	from the text. Output is serialized as
	  [glyph=cluster@xoffset,yoffset+advance|...]
	followed by a table of glyph positions.
	Settings: dir <ltr|rtl|ttb|btt>, script <name>, lang <BCP 47 tag>,
	cluster <0|1|2>, flags <[+-]bot|eot|preserve|remove|nodottedcircle|unsafetoconcat>,
	options <[+-]morx|invisibles|norm=auto|none|composed|decomposed>.
	`)
	case "plan":
		pterm.Info.Println("Plan")
		pterm.Println(`
	plan [sample text] compiles (or fetches from the cache) the shape plan
	for the current settings and prints its feature mask allocation and
	its GSUB and GPOS lookup stages. The sample text is used to guess the
	segment properties.
	`)
	case "font", "fonts", "demo", "tables":
		pterm.Info.Println("Fonts")
		pterm.Println(`
	font <name|path> loads a font file or searches the system fonts by
	file name, e.g. 'font DejaVuSans.ttf'. 'demo' switches to the built-in
	demo font. 'tables' lists the tables relevant for shaping.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Printf("\t%s\n", strings.Join(opNames, ", "))
		pterm.Println(`
	Commands may be abbreviated, e.g. 'sh' for 'shape', and chained with ';'.
	help <topic> explains: features, shape, plan, fonts.
	`)
	}
}
