/*
Package otfont adapts OpenType font files to the face interfaces of
package otshape.

A [Font] is parsed twice from the same bytes: go-text/typesetting provides
the layout tables (GSUB/GPOS script and feature lists, GDEF glyph classes,
feature variations, AAT tables), golang.org/x/image/font/sfnt provides the
font names and format 0 legacy kerning. Both parsed views are read-only;
the go-text glyph caches are guarded by a mutex, so a Font may be shared
between shaping goroutines.

Fonts are loaded from a file, from memory, or located by name among the
system fonts:

	f, err := otfont.Find("DejaVuSans.ttf")
	...
	err = shaper.Shape(f, buf, features)

A Font does not apply GSUB or GPOS lookups itself. Plans compiled for it
resolve features to lookups and allocate masks; legacy kerning, tracking
and fallback mark positioning are applied by the shaper.
*/
package otfont

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

var (
	// ErrFontNotFound is returned when a font name cannot be resolved to a
	// system font file.
	ErrFontNotFound = errors.New("otfont: font not found")
)

// tracer traces with key 'otshaping.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("otshaping.fonts")
}

func errFont(x string) error {
	return fmt.Errorf("OpenType font: %s", x)
}
