package otbuffer

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/go-text/typesetting/language"
	xlanguage "golang.org/x/text/language"
)

// SegmentProperties describe how a run of text is to be interpreted.
// It is a comparable value type and may be used as (part of) a map key.
//
// The zero value has an invalid direction, an invalid script (0) and no
// language. Invalid fields simply disable direction, script or language
// specific behavior.
type SegmentProperties struct {
	Direction Direction
	Script    language.Script
	Language  language.Language
}

// Equal reports whether all three fields match.
func (p SegmentProperties) Equal(other SegmentProperties) bool {
	return p == other
}

// Hash is a pure function of the three fields, suitable for cache keys.
func (p SegmentProperties) Hash() uint64 {
	h := fnv.New64a()
	var b [5]byte
	b[0] = byte(p.Direction)
	binary.BigEndian.PutUint32(b[1:], uint32(p.Script))
	h.Write(b[:])
	h.Write([]byte(p.Language))
	return h.Sum64()
}

func (p SegmentProperties) String() string {
	lang := string(p.Language)
	if lang == "" {
		lang = "-"
	}
	return fmt.Sprintf("%s/%s/%s", p.Direction, ScriptTag(p.Script), lang)
}

// --- Scripts ---------------------------------------------------------------

// ScriptInvalid is the unset script.
const ScriptInvalid = language.Script(0)

// ScriptTag returns the ISO 15924 tag of a script, e.g. "Latn".
// The invalid script yields "----".
func ScriptTag(s language.Script) string {
	if s == ScriptInvalid {
		return "----"
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(s))
	return string(b[:])
}

// ScriptFromString parses an ISO 15924 script tag. Case is normalized, so
// "arab", "ARAB" and "Arab" are equivalent; longer strings are truncated to
// their first four letters and shorter ones are padded with spaces.
// The empty string yields ScriptInvalid.
func ScriptFromString(s string) language.Script {
	if s == "" {
		return ScriptInvalid
	}
	var b = [4]byte{' ', ' ', ' ', ' '}
	for i := 0; i < 4 && i < len(s); i++ {
		c := s[i]
		if i == 0 {
			c = toUpper(c)
		} else {
			c = toLower(c)
		}
		b[i] = c
	}
	tag := string(b[:])
	switch tag { // aliases from ISO 15924 revisions
	case "Qaai":
		tag = "Zinh"
	case "Qaac":
		tag = "Copt"
	}
	return language.Script(binary.BigEndian.Uint32([]byte(tag)))
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

// Scripts written right to left. Scripts with varying direction (Old Italic,
// Runic, Old Hungarian) are not listed and have no horizontal direction.
var rtlScripts = func() map[language.Script]struct{} {
	tags := []string{
		"Arab", "Hebr", "Syrc", "Thaa", "Cprt", "Khar", "Phnx", "Nkoo",
		"Lydi", "Avst", "Armi", "Phli", "Prti", "Sarb", "Orkh", "Samr",
		"Mand", "Merc", "Mero", "Mani", "Mend", "Nbat", "Narb", "Palm",
		"Phlp", "Hatr", "Adlm", "Rohg", "Sogo", "Sogd", "Elym", "Chrs",
		"Yezi", "Ougr",
	}
	m := make(map[language.Script]struct{}, len(tags))
	for _, t := range tags {
		m[ScriptFromString(t)] = struct{}{}
	}
	return m
}()

var bidirectionalScripts = map[language.Script]struct{}{
	ScriptFromString("Ital"): {},
	ScriptFromString("Runr"): {},
	ScriptFromString("Hung"): {},
}

// ScriptHorizontalDirection returns the horizontal direction a script is
// written in. Scripts which may be written either way, and the invalid
// script, return DirectionInvalid; all others are LeftToRight.
func ScriptHorizontalDirection(s language.Script) Direction {
	if s == ScriptInvalid {
		return DirectionInvalid
	}
	if _, ok := rtlScripts[s]; ok {
		return RightToLeft
	}
	if _, ok := bidirectionalScripts[s]; ok {
		return DirectionInvalid
	}
	return LeftToRight
}

// isNeutralScript is true for scripts which do not determine a segment's
// script by themselves.
func isNeutralScript(s language.Script) bool {
	return s == language.Common || s == language.Inherited || s == language.Unknown ||
		s == ScriptInvalid
}

// --- Languages -------------------------------------------------------------

// LanguageFromString canonicalizes a BCP 47 language tag. Well-formed tags are
// canonicalized through x/text, others are lower-cased with '_' replaced by
// '-'. The empty string yields the invalid language "".
func LanguageFromString(s string) language.Language {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if tag, err := xlanguage.Parse(s); err == nil {
		return language.NewLanguage(tag.String())
	}
	return language.NewLanguage(s)
}

// --- Guessing --------------------------------------------------------------

// GuessSegmentProperties fills in unset fields of props from the content.
// The script is taken from the first character with a script other than
// Common, Inherited or Unknown; the direction is derived from the script,
// defaulting to left-to-right for script-neutral text. The language is never guessed. Guess is idempotent: applying it to its own
// result with the same content returns the same value.
func GuessSegmentProperties(props SegmentProperties, content []rune, uf UnicodeFuncs) SegmentProperties {
	if uf == nil {
		uf = DefaultUnicode
	}
	if props.Script == ScriptInvalid {
		for _, r := range content {
			if s := uf.Script(r); !isNeutralScript(s) {
				props.Script = s
				break
			}
		}
	}
	if props.Direction == DirectionInvalid && props.Script != ScriptInvalid {
		props.Direction = ScriptHorizontalDirection(props.Script)
	}
	if props.Direction == DirectionInvalid {
		props.Direction = LeftToRight
	}
	return props
}
