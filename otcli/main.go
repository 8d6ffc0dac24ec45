package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/derekparker/trie"
	"github.com/go-text/typesetting/language"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
	"github.com/npillmayer/otshaping/otshape/otarabic"
	"github.com/npillmayer/otshaping/otshape/otcore"
	"github.com/npillmayer/otshaping/otshape/othebrew"
)

// tracer traces with key 'otshaping.cli'
func tracer() tracing.Trace {
	return tracing.Select("otshaping.cli")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":        "go",
		"trace.otshaping.cli":    "Info",
		"trace.otshaping.shaper": "Error",
		"trace.otshaping.fonts":  "Error",
		"trace.otshaping.buffer": "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "System font or font file to load")
	demo := flag.Bool("demo", false, "Use the built-in demo font")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError)        // will set the correct level later
	pterm.Info.Println("Welcome to OpenType shaping CLI") // colored welcome message
	//
	// set up REPL
	repl, err := readline.NewEx(&readline.Config{
		Prompt:       "shape > ",
		AutoComplete: completer(),
	})
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp, err := newIntp(repl)
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	//
	// load font to use
	if *demo || *fontname == "" {
		intp.useDemoFont()
	} else if err := intp.loadFont(*fontname); err != nil { // font name provided by flag
		tracer().Errorf(err.Error())
		os.Exit(4)
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	level, ok := traceLevels[strings.ToLower(*tlevel)]
	if !ok {
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().SetTraceLevel(level)
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
}

var traceLevels = map[string]tracing.TraceLevel{
	"debug": tracing.LevelDebug,
	"info":  tracing.LevelInfo,
	"error": tracing.LevelError,
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	repl     *readline.Instance
	face     otshape.Face
	fontname string
	shaper   *otshape.Shaper
	registry *otshape.Registry
	options  otshape.Options
	props    otbuffer.SegmentProperties
	features []otshape.Feature
	level    otbuffer.ClusterLevel
	flags    otbuffer.Flags
	last     *otbuffer.Buffer
}

func newIntp(repl *readline.Instance) (*Intp, error) {
	reg := &otshape.Registry{}
	for _, register := range []func(*otshape.Registry) error{
		otcore.Register, otarabic.Register, othebrew.Register,
	} {
		if err := register(reg); err != nil {
			return nil, err
		}
	}
	intp := &Intp{
		repl:     repl,
		registry: reg,
		props:    otbuffer.SegmentProperties{Direction: otbuffer.DirectionInvalid},
		flags:    otbuffer.FlagsDefault,
	}
	intp.resetShaper()
	return intp, nil
}

// resetShaper drops cached plans, e.g. after options changed.
func (intp *Intp) resetShaper() {
	intp.shaper = otshape.NewShaper(
		otshape.WithRegistry(intp.registry),
		otshape.WithOptions(intp.options),
	)
}

func (intp *Intp) String() string {
	if intp == nil || intp.face == nil {
		return "( no font )"
	}
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("( font=%s", intp.fontname))
	if intp.props.Direction.IsValid() {
		sb.WriteString(fmt.Sprintf(" dir=%s", intp.props.Direction))
	}
	if intp.props.Script != 0 {
		sb.WriteString(fmt.Sprintf(" script=%s", intp.props.Script))
	}
	if intp.props.Language != "" {
		sb.WriteString(fmt.Sprintf(" lang=%s", intp.props.Language))
	}
	if len(intp.features) > 0 {
		sb.WriteString(fmt.Sprintf(" features=%v", intp.features))
	}
	sb.WriteString(" )")
	return sb.String()
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		err, quit := intp.execute(cmd)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

type Op struct {
	code int
	arg  string
}

type Command struct {
	count int
	op    [32]Op
}

const NOOP = -1
const (
	// op-code QUIT will not have arguments
	QUIT int = iota
	// op-codes below may have arguments
	HELP
	FONT
	DEMO
	SCRIPT
	LANG
	DIR
	FEATURES
	SHAPE
	PLAN
	TABLES
	CLUSTER
	FLAGS
	OPTIONS
	ENGINES
)

var opNames = []string{
	"quit",
	"help",
	"font",
	"demo",
	"script",
	"lang",
	"dir",
	"features",
	"shape",
	"plan",
	"tables",
	"cluster",
	"flags",
	"options",
	"engines",
}

// ops resolves command names and unambiguous prefixes of them.
var ops = func() *trie.Trie {
	t := trie.New()
	for code, name := range opNames {
		t.Add(name, code)
	}
	return t
}()

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, len(opNames))
	for i, name := range opNames {
		items[i] = readline.PcItem(name)
	}
	return readline.NewPrefixCompleter(items...)
}

var errEmptyCommand = errors.New("empty command")

// resolveOp finds the op-code for a command name or a unique prefix of it.
func resolveOp(name string) (int, error) {
	name = strings.ToLower(name)
	if node, ok := ops.Find(name); ok {
		return node.Meta().(int), nil
	}
	candidates := ops.PrefixSearch(name)
	switch len(candidates) {
	case 0:
		return NOOP, fmt.Errorf("unknown command: %s", name)
	case 1:
		node, _ := ops.Find(candidates[0])
		return node.Meta().(int), nil
	}
	sort.Strings(candidates)
	return NOOP, fmt.Errorf("ambiguous command %q: %s", name, strings.Join(candidates, ", "))
}

// parseCommand splits a line into steps separated by ';'. Every step
// starts with a command name, the rest of the step is its argument.
func parseCommand(line string) (*Command, error) {
	command := &Command{}
	for i := range command.op {
		command.op[i].code = NOOP
	}
	steps := strings.Split(line, ";")
	if len(steps) > len(command.op) {
		return nil, fmt.Errorf("too many steps in command: %d", len(steps))
	}
	for _, step := range steps {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		name, arg, _ := strings.Cut(step, " ")
		code, err := resolveOp(name)
		if err != nil {
			return nil, err
		}
		command.op[command.count] = Op{code: code, arg: strings.TrimSpace(arg)}
		command.count++
		tracer().Debugf("parsed command: %s %q", opNames[code], arg)
		if code == QUIT {
			break
		}
	}
	if command.count == 0 {
		return nil, errEmptyCommand
	}
	return command, nil
}

var commandFn = map[int]func(*Intp, *Op) (error, bool){
	QUIT:     quitOp,
	HELP:     helpOp,
	FONT:     fontOp,
	DEMO:     demoOp,
	SCRIPT:   scriptOp,
	LANG:     langOp,
	DIR:      dirOp,
	FEATURES: featuresOp,
	SHAPE:    shapeOp,
	PLAN:     planOp,
	TABLES:   tablesOp,
	CLUSTER:  clusterOp,
	FLAGS:    flagsOp,
	OPTIONS:  optionsOp,
	ENGINES:  enginesOp,
}

func (intp *Intp) execute(cmd *Command) (err error, stop bool) {
	tracer().Debugf("cmd = %v", cmd.op[:cmd.count])
	for _, c := range cmd.op[:cmd.count] {
		f, ok := commandFn[c.code]
		if !ok {
			pterm.Error.Printf("unknown command code: %d\n", c.code)
			return nil, false
		}
		err, stop = f(intp, &c)
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		if stop {
			return
		}
	}
	return
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	pterm.Println("Goodbye!")
	return nil, true
}

// ----------------------------------------------------------------------

var ErrNoFont = errors.New("no font loaded")

func (intp *Intp) checkFont() error {
	if intp.face == nil {
		return ErrNoFont
	}
	return nil
}

// scriptNames resolves English script names and prefixes of them.
var scriptNames = func() *trie.Trie {
	t := trie.New()
	for name, script := range map[string]language.Script{
		"arabic":     language.Arabic,
		"armenian":   language.Armenian,
		"cyrillic":   language.Cyrillic,
		"devanagari": language.Devanagari,
		"greek":      language.Greek,
		"hebrew":     language.Hebrew,
		"latin":      language.Latin,
		"mongolian":  language.Mongolian,
		"nko":        language.Nko,
		"syriac":     language.Syriac,
		"thai":       language.Thai,
	} {
		t.Add(name, script)
	}
	return t
}()

// resolveScript accepts ISO 15924 codes ("Arab") and English script names
// or unique prefixes of them ("arab", "heb").
func resolveScript(s string) (language.Script, error) {
	name := strings.ToLower(s)
	if node, ok := scriptNames.Find(name); ok {
		return node.Meta().(language.Script), nil
	}
	if candidates := scriptNames.PrefixSearch(name); len(candidates) == 1 {
		node, _ := scriptNames.Find(candidates[0])
		return node.Meta().(language.Script), nil
	}
	if script := otbuffer.ScriptFromString(s); script != 0 {
		return script, nil
	}
	return 0, fmt.Errorf("unknown script: %s", s)
}
