package otfont

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype/tables"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

// DefaultPointSize is the size used to select a tracking value from
// a font's 'trak' table.
const DefaultPointSize = 12

// Font is a parsed OpenType font, ready to be used as an otshape.Face.
type Font struct {
	Fontname string
	Path     string // empty for fonts parsed from memory
	Binary   []byte
	SFNT     *sfnt.Font

	mu       sync.Mutex // guards face
	face     *font.Face
	caps     otshape.Capabilities
	coords   []float32
	varIndex [2]int
	ptem     float32
	sfntBufs sync.Pool
}

// Load loads an OpenType font (TTF or OTF) from a file.
func Load(fontfile string) (*Font, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := Parse(bytez)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fontfile, err)
	}
	f.Path = fontfile
	return f, nil
}

// Parse loads an OpenType font (TTF or OTF) from memory.
func Parse(fbytes []byte) (f *Font, err error) {
	f = &Font{Binary: fbytes, ptem: DefaultPointSize, varIndex: [2]int{-1, -1}}
	f.face, err = font.ParseTTF(bytes.NewReader(f.Binary))
	if err != nil {
		return nil, err
	}
	f.Fontname = f.face.Describe().Family
	if f.SFNT, err = sfnt.Parse(f.Binary); err != nil {
		// go-text accepts more outline formats than sfnt
		tracer().Infof("font %q: %v; legacy kerning limited", f.Fontname, err)
		f.SFNT = nil
	} else {
		buf := f.sfntBuffer()
		if name, err := f.SFNT.Name(buf, sfnt.NameIDFull); err == nil && name != "" {
			f.Fontname = name
		}
		f.sfntBufs.Put(buf)
	}
	f.caps = capabilities(f.face.Font)
	tracer().Debugf("loaded font %q, tables %s", f.Fontname, f.caps)
	return f, nil
}

// Find locates a system font by file name, e.g. "DejaVuSans.ttf", and
// loads it. The extension may be omitted.
func Find(name string) (*Font, error) {
	path, err := findfont.Find(name)
	if err != nil || path == "" {
		tracer().Infof("no system font for %q", name)
		return nil, fmt.Errorf("%w: %s", ErrFontNotFound, name)
	}
	tracer().Debugf("%s is a system font at %s", name, path)
	return Load(path)
}

// SystemFonts lists the paths of all font files in the system font
// directories.
func SystemFonts() []string {
	return findfont.List()
}

func capabilities(ft *font.Font) otshape.Capabilities {
	var caps otshape.Capabilities
	if len(ft.GSUB.Lookups) > 0 {
		caps |= otshape.HasGSUB
	}
	if len(ft.GPOS.Lookups) > 0 {
		caps |= otshape.HasGPOS
	}
	if ft.GDEF.GlyphClassDef != nil {
		caps |= otshape.HasGlyphClasses
	}
	if len(ft.Morx) > 0 {
		caps |= otshape.HasMorx
	}
	if len(ft.Kerx) > 0 {
		caps |= otshape.HasKerx
	}
	if len(ft.Kern) > 0 {
		caps |= otshape.HasKern
	}
	if !ft.Trak.IsEmpty() {
		caps |= otshape.HasTrak
	}
	return caps
}

func (f *Font) String() string {
	return fmt.Sprintf("font %q (%s)", f.Fontname, f.caps)
}

func (f *Font) sfntBuffer() *sfnt.Buffer {
	if b, ok := f.sfntBufs.Get().(*sfnt.Buffer); ok {
		return b
	}
	return &sfnt.Buffer{}
}

// SetPointSize sets the size used to select tracking from the 'trak'
// table. It must not be called while the font is used for shaping.
func (f *Font) SetPointSize(ptem float32) {
	f.ptem = ptem
}

// SetVariations applies variation axis settings in design units and
// selects the matching feature variations of GSUB and GPOS. It must not be
// called while the font is used for shaping. An empty list resets the
// font to its default instance.
func (f *Font) SetVariations(variations ...font.Variation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.face.SetVariations(variations)
	coords := f.face.Coords()
	f.coords = f.coords[:0]
	for _, c := range coords {
		f.coords = append(f.coords, float32(c)/(1<<14))
	}
	f.varIndex = [2]int{
		f.face.GSUB.FindVariationIndex(coords),
		f.face.GPOS.FindVariationIndex(coords),
	}
	tracer().Debugf("%s: coords %v, variation index %v", f.Fontname, f.coords, f.varIndex)
}

// --- otshape.Face ----------------------------------------------------------

// NominalGlyph implements otshape.Face.
func (f *Font) NominalGlyph(r rune) (otbuffer.GlyphIndex, bool) {
	f.mu.Lock()
	gid, ok := f.face.NominalGlyph(r)
	f.mu.Unlock()
	return otbuffer.GlyphIndex(gid), ok
}

// HorizontalAdvance implements otshape.Face.
func (f *Font) HorizontalAdvance(gid otbuffer.GlyphIndex) int32 {
	f.mu.Lock()
	adv := f.face.HorizontalAdvance(font.GID(gid))
	f.mu.Unlock()
	return int32(math.Round(float64(adv)))
}

// Capabilities implements otshape.Face.
func (f *Font) Capabilities() otshape.Capabilities {
	return f.caps
}

// GlyphClass implements otshape.GlyphClasser.
func (f *Font) GlyphClass(gid otbuffer.GlyphIndex) otshape.GlyphClass {
	classes := f.face.GDEF.GlyphClassDef
	if classes == nil {
		return otshape.ClassUnclassified
	}
	if gid > math.MaxUint16 {
		return otshape.ClassUnclassified
	}
	c, _ := classes.Class(tables.GlyphID(gid))
	return otshape.GlyphClass(c)
}

// GlyphExtents implements otshape.GlyphExtenter.
func (f *Font) GlyphExtents(gid otbuffer.GlyphIndex) (otshape.GlyphExtents, bool) {
	f.mu.Lock()
	ext, ok := f.face.GlyphExtents(font.GID(gid))
	f.mu.Unlock()
	if !ok {
		return otshape.GlyphExtents{}, false
	}
	return otshape.GlyphExtents{
		XBearing: round(ext.XBearing),
		YBearing: round(ext.YBearing),
		Width:    round(ext.Width),
		Height:   round(ext.Height),
	}, true
}

// UnitsPerEm implements otshape.GlyphExtenter.
func (f *Font) UnitsPerEm() uint16 {
	return f.face.Upem()
}

// KernPair implements otshape.PairKerner. Format 0 subtables are read
// through x/image/font/sfnt, other horizontal subtables through go-text.
func (f *Font) KernPair(left, right otbuffer.GlyphIndex) int32 {
	if f.SFNT != nil {
		buf := f.sfntBuffer()
		upem := fixed.Int26_6(f.SFNT.UnitsPerEm()) << 6
		k, err := f.SFNT.Kern(buf, sfnt.GlyphIndex(left), sfnt.GlyphIndex(right), upem, xfont.HintingNone)
		f.sfntBufs.Put(buf)
		if err == nil {
			return int32(k.Round())
		}
	}
	var kern int32
	for _, sub := range f.face.Kern {
		if !sub.IsHorizontal() || sub.IsCrossStream() {
			continue
		}
		if pk, ok := sub.Data.(pairKerner); ok {
			kern += int32(pk.KernPair(font.GID(left), font.GID(right)))
		}
	}
	return kern
}

type pairKerner interface {
	KernPair(left, right font.GID) int16
}

// Tracking implements otshape.Tracker.
func (f *Font) Tracking() int32 {
	return round(f.face.Trak.Horiz.GetTracking(f.ptem, 0))
}

// VariationIndex implements otshape.VariationIndexer.
func (f *Font) VariationIndex(table otshape.LayoutTable) int {
	return f.varIndex[table]
}

// Coords implements otshape.VariationIndexer.
func (f *Font) Coords() []float32 {
	return f.coords
}

func round(x float32) int32 {
	return int32(math.Round(float64(x)))
}
