package otarabic

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

// Fonts without init/medi/fina/isol or rlig features get these features
// emulated from the Arabic presentation form glyphs they may carry.

// presentationForms lists the presentation form character per joining
// action for one base letter. Only isol, fina, medi and init occur.
type presentationForms [actionNone]rune

type lamAlef struct {
	alef rune
	form action // actionIsol or actionFina
	lig  rune
}

var (
	presentationOnce sync.Once
	presentationMap  map[rune]presentationForms
	lamAlefs         []lamAlef
)

const lam = 0x0644

// loadPresentationForms derives the tables from character names and
// compatibility decompositions of the presentation form blocks.
func loadPresentationForms() {
	presentationMap = make(map[rune]presentationForms, 256)
	scan := func(from, to rune) {
		for u := from; u <= to; u++ {
			name := runenames.Name(u)
			form, ok := formFromName(name)
			if !ok {
				continue
			}
			base := []rune(norm.NFC.String(norm.NFKD.String(string(u))))
			switch {
			case len(base) == 1 && !strings.Contains(name, "LIGATURE"):
				forms := presentationMap[base[0]]
				forms[form] = u
				presentationMap[base[0]] = forms
			case len(base) == 2 && base[0] == lam && strings.Contains(name, "LIGATURE LAM WITH ALEF"):
				lamAlefs = append(lamAlefs, lamAlef{alef: base[1], form: form, lig: u})
			}
		}
	}
	scan(0xFB50, 0xFDFF) // Presentation Forms-A
	scan(0xFE70, 0xFEFF) // Presentation Forms-B
}

func formFromName(name string) (action, bool) {
	if !strings.HasPrefix(name, "ARABIC ") {
		return actionNone, false
	}
	switch {
	case strings.HasSuffix(name, "ISOLATED FORM"):
		return actionIsol, true
	case strings.HasSuffix(name, "FINAL FORM"):
		return actionFina, true
	case strings.HasSuffix(name, "MEDIAL FORM"):
		return actionMedi, true
	case strings.HasSuffix(name, "INITIAL FORM"):
		return actionInit, true
	}
	return actionNone, false
}

// fallbackTables hold the glyph substitutions emulating the form features
// and the lam-alef part of rlig for one font.
type fallbackTables struct {
	single    [actionNone]map[otbuffer.GlyphIndex]otbuffer.GlyphIndex
	masks     [actionNone]uint32
	ligatures map[[2]otbuffer.GlyphIndex]otbuffer.GlyphIndex
	rligMask  uint32
}

func newFallbackTables(plan otshape.PlanContext, maskOf [actionNone + 1]uint32) *fallbackTables {
	presentationOnce.Do(loadPresentationForms)
	face := plan.Face()
	t := &fallbackTables{}
	glyph := func(r rune) (otbuffer.GlyphIndex, bool) {
		if r == 0 {
			return 0, false
		}
		return face.NominalGlyph(r)
	}
	for a, tag := range formFeatures {
		if !plan.FeatureNeedsFallback(tag) {
			continue
		}
		m := make(map[otbuffer.GlyphIndex]otbuffer.GlyphIndex)
		for base, forms := range presentationMap {
			g, ok1 := glyph(base)
			s, ok2 := glyph(forms[a])
			if ok1 && ok2 && g != s {
				m[g] = s
			}
		}
		if len(m) > 0 {
			t.single[a] = m
			t.masks[a] = maskOf[a]
		}
	}
	if plan.FeatureNeedsFallback(tagRlig) {
		t.rligMask = plan.FeatureMask1(tagRlig)
		t.ligatures = make(map[[2]otbuffer.GlyphIndex]otbuffer.GlyphIndex)
		lamForms := presentationMap[lam]
		for _, la := range lamAlefs {
			// isolated ligatures start with an initial lam, final ones with
			// a medial lam
			lamForm := actionInit
			if la.form == actionFina {
				lamForm = actionMedi
			}
			first, ok1 := glyph(lamForms[lamForm])
			second, ok2 := glyph(presentationMap[la.alef][actionFina])
			lig, ok3 := glyph(la.lig)
			if ok1 && ok2 && ok3 {
				t.ligatures[[2]otbuffer.GlyphIndex{first, second}] = lig
			}
		}
	}
	return t
}

func (t *fallbackTables) singleCount() int {
	n := 0
	for _, m := range t.single {
		n += len(m)
	}
	return n
}

// fallbackShape applies the fallback tables after rlig.
func (s *Shaper) fallbackShape(ctx otshape.PauseContext) error {
	if s.fallback == nil {
		return nil
	}
	buf := ctx.Run().Buffer()
	s.fallback.substituteForms(buf)
	s.fallback.ligate(buf)
	return nil
}

func (t *fallbackTables) substituteForms(buf *otbuffer.Buffer) {
	infos := buf.GlyphInfos()
	for i := range infos {
		a := action(infos[i].ComplexAux())
		if a >= actionNone || t.single[a] == nil || infos[i].Mask&t.masks[a] == 0 {
			continue
		}
		if g, ok := t.single[a][infos[i].Glyph()]; ok {
			infos[i].Codepoint = rune(g)
			infos[i].SetGlyphProps(infos[i].GlyphProps() | otbuffer.GlyphPropsSubstituted)
		}
	}
}

// ligate forms lam-alef ligatures from adjacent glyphs.
func (t *fallbackTables) ligate(buf *otbuffer.Buffer) {
	if len(t.ligatures) == 0 {
		return
	}
	buf.ClearOutput()
	for buf.Idx() < buf.Len() && buf.AllocationSuccessful() {
		i := buf.Idx()
		if i+1 < buf.Len() && buf.Cur(0).Mask&t.rligMask != 0 {
			key := [2]otbuffer.GlyphIndex{buf.Cur(0).Glyph(), buf.Cur(1).Glyph()}
			if lig, ok := t.ligatures[key]; ok {
				buf.UnsafeToBreak(i, i+2)
				start := buf.OutLen()
				buf.ReplaceGlyphs(2, []otbuffer.GlyphIndex{lig})
				out := &buf.OutInfos()[start]
				out.SetGlyphProps(out.GlyphProps() | otbuffer.GlyphPropsSubstituted | otbuffer.GlyphPropsLigated)
				continue
			}
		}
		buf.NextGlyph()
	}
	buf.SwapBuffers()
}
