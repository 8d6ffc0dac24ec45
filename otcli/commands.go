package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otfont"
	"github.com/npillmayer/otshaping/otshape"
)

// --- Font Loading -----------------------------------------------------

// loadFont loads a font file, or a system font if fontname is not a path
// to an existing file.
func (intp *Intp) loadFont(fontname string) (err error) {
	var f *otfont.Font
	if _, statErr := os.Stat(fontname); statErr == nil {
		f, err = otfont.Load(fontname)
	} else {
		f, err = otfont.Find(fontname)
	}
	if err != nil {
		return err
	}
	intp.face, intp.fontname = f, f.Fontname
	intp.resetShaper()
	tracer().Infof("loaded font %s from %s", f.Fontname, f.Path)
	pterm.Printf("font tables: %s\n", f.Capabilities())
	return nil
}

func (intp *Intp) useDemoFont() {
	intp.face, intp.fontname = demoFace(), "demo"
	intp.resetShaper()
	pterm.Printf("font tables: %s\n", intp.face.Capabilities())
}

func fontOp(intp *Intp, op *Op) (error, bool) {
	name, ok := op.hasArg()
	if !ok {
		if err := intp.checkFont(); err != nil {
			return err, false
		}
		pterm.Printf("%s: %s\n", intp.fontname, intp.face.Capabilities())
		return nil, false
	}
	return intp.loadFont(name), false
}

func demoOp(intp *Intp, op *Op) (error, bool) {
	intp.useDemoFont()
	pterm.Println(demoHelp)
	return nil, false
}

// --- Segment Properties -----------------------------------------------

func scriptOp(intp *Intp, op *Op) (error, bool) {
	arg, ok := op.hasArg()
	if !ok {
		pterm.Printf("script = %s\n", intp.props.Script)
		return nil, false
	}
	script, err := resolveScript(arg)
	if err != nil {
		return err, false
	}
	intp.props.Script = script
	return nil, false
}

func langOp(intp *Intp, op *Op) (error, bool) {
	arg, _ := op.hasArg()
	intp.props.Language = otbuffer.LanguageFromString(arg)
	return nil, false
}

func dirOp(intp *Intp, op *Op) (error, bool) {
	arg, ok := op.hasArg()
	if !ok {
		intp.props.Direction = otbuffer.DirectionInvalid // guess from text
		return nil, false
	}
	dir := otbuffer.DirectionFromString(arg)
	if !dir.IsValid() {
		return fmt.Errorf("invalid direction: %s", arg), false
	}
	intp.props.Direction = dir
	return nil, false
}

func featuresOp(intp *Intp, op *Op) (error, bool) {
	arg, ok := op.hasArg()
	if !ok {
		intp.features = nil
		return nil, false
	}
	features, err := otshape.ParseFeatures(arg)
	if err != nil {
		return err, false
	}
	intp.features = features
	return nil, false
}

// --- Buffer Settings --------------------------------------------------

var clusterLevels = map[string]otbuffer.ClusterLevel{
	"0": otbuffer.MonotoneGraphemes, "graphemes": otbuffer.MonotoneGraphemes,
	"1": otbuffer.MonotoneCharacters, "monotone": otbuffer.MonotoneCharacters,
	"2": otbuffer.Characters, "characters": otbuffer.Characters,
}

func clusterOp(intp *Intp, op *Op) (error, bool) {
	arg, ok := op.hasArg()
	if !ok {
		pterm.Printf("cluster level = %d\n", intp.level)
		return nil, false
	}
	level, ok := clusterLevels[strings.ToLower(arg)]
	if !ok {
		return fmt.Errorf("invalid cluster level: %s", arg), false
	}
	intp.level = level
	return nil, false
}

var bufferFlags = map[string]otbuffer.Flags{
	"bot":            otbuffer.FlagBOT,
	"eot":            otbuffer.FlagEOT,
	"preserve":       otbuffer.FlagPreserveDefaultIgnorables,
	"remove":         otbuffer.FlagRemoveDefaultIgnorables,
	"nodottedcircle": otbuffer.FlagDoNotInsertDottedCircle,
	"unsafetoconcat": otbuffer.FlagProduceUnsafeToConcat,
}

// flagsOp sets buffer flags from a list like "+bot -eot preserve".
func flagsOp(intp *Intp, op *Op) (error, bool) {
	arg, ok := op.hasArg()
	if !ok {
		pterm.Printf("buffer flags = %#x\n", intp.flags)
		return nil, false
	}
	flags := intp.flags
	for _, f := range strings.Fields(arg) {
		on := !strings.HasPrefix(f, "-")
		flag, ok := bufferFlags[strings.ToLower(strings.TrimLeft(f, "+-"))]
		if !ok {
			return fmt.Errorf("unknown buffer flag: %s", f), false
		}
		if on {
			flags |= flag
		} else {
			flags &^= flag
		}
	}
	intp.flags = flags
	return nil, false
}

// optionsOp switches plan options: "morx", "invisibles", "norm=none|composed|decomposed|auto".
func optionsOp(intp *Intp, op *Op) (error, bool) {
	arg, ok := op.hasArg()
	if !ok {
		pterm.Printf("options = %+v\n", intp.options)
		return nil, false
	}
	opts := intp.options
	for _, o := range strings.Fields(arg) {
		on := !strings.HasPrefix(o, "-")
		o = strings.ToLower(strings.TrimLeft(o, "+-"))
		switch {
		case o == "morx":
			opts.PreferMorx = on
		case o == "invisibles":
			opts.ZeroWidthInvisibles = on
		case strings.HasPrefix(o, "norm="):
			mode, ok := normalizationModes[strings.TrimPrefix(o, "norm=")]
			if !ok {
				return fmt.Errorf("unknown normalization mode: %s", o), false
			}
			opts.Normalization = mode
		default:
			return fmt.Errorf("unknown option: %s", o), false
		}
	}
	intp.options = opts
	intp.resetShaper()
	return nil, false
}

var normalizationModes = map[string]otshape.NormalizationMode{
	"auto":       otshape.NormalizationAuto,
	"none":       otshape.NormalizationNone,
	"composed":   otshape.NormalizationComposed,
	"decomposed": otshape.NormalizationDecomposed,
}

func enginesOp(intp *Intp, op *Op) (error, bool) {
	pterm.Printf("shaping engines: %v\n", intp.registry.Names())
	return nil, false
}

// --- Shaping ----------------------------------------------------------

// newBuffer fills a buffer with text, using the interpreter's settings.
// Escapes of the form \uXXXX are resolved.
func (intp *Intp) newBuffer(text string) (*otbuffer.Buffer, error) {
	text, err := unescape(text)
	if err != nil {
		return nil, err
	}
	buf := otbuffer.New()
	buf.Flags = intp.flags
	buf.ClusterLevel = intp.level
	buf.AddString(text)
	props := intp.props
	if !props.Direction.IsValid() || props.Script == 0 {
		buf.GuessSegmentProperties()
		guessed := buf.Props()
		if props.Direction.IsValid() {
			guessed.Direction = props.Direction
		}
		if props.Script != 0 {
			guessed.Script = props.Script
		}
		if props.Language != "" {
			guessed.Language = props.Language
		}
		props = guessed
	}
	buf.SetProps(props)
	return buf, nil
}

func unescape(text string) (string, error) {
	if !strings.Contains(text, `\u`) && !strings.Contains(text, `\U`) {
		return text, nil
	}
	s, err := strconv.Unquote(`"` + strings.ReplaceAll(text, `"`, `\"`) + `"`)
	if err != nil {
		return "", fmt.Errorf("invalid escape in %q", text)
	}
	return s, nil
}

func shapeOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	text, ok := op.hasArg()
	if !ok {
		return errors.New("nothing to shape"), false
	}
	buf, err := intp.newBuffer(text)
	if err != nil {
		return err, false
	}
	pterm.Printf("input:  %s\n", buf.Serialize(0))
	if err := intp.shaper.Shape(intp.face, buf, intp.features); err != nil {
		return err, false
	}
	intp.last = buf
	pterm.Printf("output: %s\n", buf.Serialize(0))
	printGlyphs(buf)
	return nil, false
}

func planOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	props := intp.props
	if arg, ok := op.hasArg(); ok { // derive properties from sample text
		buf, err := intp.newBuffer(arg)
		if err != nil {
			return err, false
		}
		props = buf.Props()
	} else if !props.Direction.IsValid() && intp.last != nil { // plan of the last shaping run
		props = intp.last.Props()
	}
	if !props.Direction.IsValid() {
		return errors.New("direction unset; use 'dir' or give sample text"), false
	}
	plan, err := intp.shaper.Plan(intp.face, props, intp.features)
	if err != nil {
		return err, false
	}
	printPlan(plan)
	hits, misses := intp.shaper.CacheStats()
	tracer().Infof("plan cache: %d hits, %d misses", hits, misses)
	return nil, false
}

func tablesOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	printCapabilities(intp.face)
	return nil, false
}

// ----------------------------------------------------------------------

func (op *Op) hasArg() (string, bool) {
	if op.arg == "" {
		return "", false
	}
	return op.arg, true
}
