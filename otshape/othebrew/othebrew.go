// Package othebrew implements the Hebrew shaping engine.
//
// Hebrew needs little beyond the default engine. Two hooks differ: fonts
// without GPOS mark positioning get precomposed presentation forms that
// Unicode normalization excludes, and a patah or qamats followed by sheva
// or hiriq lets a following meteg move in front.
package othebrew

import (
	"strings"

	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/norm"

	"github.com/npillmayer/otshaping/otshape"
)

// Points taking part in composition or reordering.
const (
	sheva   = '\u05B0'
	hiriq   = '\u05B4'
	patah   = '\u05B7'
	qamats  = '\u05B8'
	holam   = '\u05B9'
	dagesh  = '\u05BC'
	meteg   = '\u05BD'
	rafe    = '\u05BF'
	shinDot = '\u05C1'
	sinDot  = '\u05C2'
)

type pointed struct {
	base, point rune
}

// presentationForms maps a letter and a point to its precomposed
// presentation form. Dagesh forms are added by init.
var presentationForms = map[pointed]rune{
	{'\u05D9', hiriq}:   '\uFB1D', // yod
	{'\u05F2', patah}:   '\uFB1F', // yiddish double yod
	{'\u05D0', patah}:   '\uFB2E', // alef
	{'\u05D0', qamats}:  '\uFB2F',
	{'\u05D5', holam}:   '\uFB4B', // vav
	{'\u05D1', rafe}:    '\uFB4C', // bet
	{'\u05DB', rafe}:    '\uFB4D', // kaf
	{'\u05E4', rafe}:    '\uFB4E', // pe
	{'\u05E9', shinDot}: '\uFB2A', // shin
	{'\u05E9', sinDot}:  '\uFB2B',
	{'\uFB49', shinDot}: '\uFB2C', // shin with dagesh
	{'\uFB49', sinDot}:  '\uFB2D',
	{'\uFB2A', dagesh}:  '\uFB2C',
	{'\uFB2B', dagesh}:  '\uFB2D',
}

// Het, final mem, final nun, ayin and final tsadi have no dagesh form.
const withoutDageshForm = "\u05D7\u05DD\u05DF\u05E2\u05E5"

func init() {
	for letter := rune(0x05D0); letter <= 0x05EA; letter++ {
		if !strings.ContainsRune(withoutDageshForm, letter) {
			presentationForms[pointed{letter, dagesh}] = 0xFB30 + letter - 0x05D0
		}
	}
}

// Shaper is the Hebrew shaping engine. It is stateless.
type Shaper struct{}

var (
	_ otshape.ShapingEngine            = Shaper{}
	_ otshape.ShapingEnginePolicy      = Shaper{}
	_ otshape.ShapingEngineComposeHook = Shaper{}
	_ otshape.ShapingEngineReorderHook = Shaper{}
)

// New returns the Hebrew shaping engine.
func New() otshape.ShapingEngine {
	return Shaper{}
}

// Register adds the Hebrew engine to reg.
func Register(reg *otshape.Registry) error {
	return reg.Register(New())
}

func (Shaper) Name() string               { return "hebrew" }
func (Shaper) New() otshape.ShapingEngine { return Shaper{} }

// Match claims Hebrew segments and fonts selecting the 'hebr' script.
func (Shaper) Match(ctx otshape.SelectionContext) otshape.ShaperConfidence {
	if ctx.Props.Script != language.Hebrew && ctx.ScriptTag != otshape.T("hebr") {
		return otshape.ShaperConfidenceNone
	}
	return otshape.ShaperConfidenceCertain
}

func (Shaper) NormalizationPreference() otshape.NormalizationMode { return otshape.NormalizationAuto }
func (Shaper) ApplyGPOS() bool                                    { return true }
func (Shaper) ZeroWidthMarks() otshape.ZeroWidthMarks             { return otshape.ZeroWidthMarksByGDEFLate }
func (Shaper) FallbackPosition() bool                             { return true }

// Compose prefers Unicode composition. Presentation forms are only used
// when the font has no GPOS mark feature to place the points itself.
func (Shaper) Compose(c otshape.NormalizeContext, a, b rune) (rune, bool) {
	if ab, ok := c.ComposeUnicode(a, b); ok {
		return ab, true
	}
	if c.HasGposMark() {
		return 0, false
	}
	ab, ok := presentationForms[pointed{a, b}]
	return ab, ok
}

// ReorderMarks swaps the first meteg or below mark found after a
// patah/qamats plus sheva/hiriq sequence with the point before it.
func (Shaper) ReorderMarks(run otshape.RunContext, start, end int) {
	if i := metegPosition(run, max(start, 0), min(end, run.Len())); i > 0 {
		run.MergeClusters(i-1, i+1)
		run.Swap(i-1, i)
	}
}

func metegPosition(run otshape.RunContext, start, end int) int {
	for i := start + 2; i < end; i++ {
		first := pointClass(run.Codepoint(i - 2))
		second := pointClass(run.Codepoint(i - 1))
		third := pointClass(run.Codepoint(i))
		if (first == pointClass(patah) || first == pointClass(qamats)) &&
			(second == pointClass(sheva) || second == pointClass(hiriq)) &&
			(third == pointClass(meteg) || third == classBelow) {
			return i
		}
	}
	return -1
}

const classBelow = 220

// Unicode gives the points fixed-position classes 10 to 26. These
// numbers order them the way Hebrew fonts expect.
var modifiedClasses = map[rune]uint8{
	sheva:  10,
	hiriq:  14,
	patah:  17,
	qamats: 18,
	meteg:  22,
}

func pointClass(r rune) uint8 {
	if c, ok := modifiedClasses[r]; ok {
		return c
	}
	return norm.NFD.PropertiesString(string(r)).CCC()
}
