package otshape

import (
	"strings"

	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	xlanguage "golang.org/x/text/language"
)

var (
	// TagDefaultScript is the OpenType script tag `DFLT`, for features that
	// are not script-specific.
	TagDefaultScript = ot.NewTag('D', 'F', 'L', 'T')
	// TagDefaultLanguage is the OpenType language tag `dflt`. It is not a
	// valid language tag, but some fonts use it.
	TagDefaultLanguage = ot.NewTag('d', 'f', 'l', 't')
)

// T creates an OpenType tag from a string of up to four characters,
// padding with spaces.
func T(s string) ot.Tag {
	b := [4]byte{' ', ' ', ' ', ' '}
	copy(b[:], s)
	return ot.NewTag(b[0], b[1], b[2], b[3])
}

func oldTagFromScript(script language.Script) ot.Tag {
	switch script {
	case 0:
		return TagDefaultScript
	case language.Mathematical_notation:
		return ot.NewTag('m', 'a', 't', 'h')
	// Katakana and Hiragana both map to 'kana'
	case language.Hiragana, language.Katakana:
		return ot.NewTag('k', 'a', 'n', 'a')
	// trailing spaces are kept, unlike ISO 15924
	case language.Lao:
		return ot.NewTag('l', 'a', 'o', ' ')
	case language.Yi:
		return ot.NewTag('y', 'i', ' ', ' ')
	case language.Nko:
		return ot.NewTag('n', 'k', 'o', ' ')
	case language.Vai:
		return ot.NewTag('v', 'a', 'i', ' ')
	}
	// lowercase the first letter of the ISO 15924 tag
	return ot.Tag(script | 0x20000000)
}

func newTagFromScript(script language.Script) ot.Tag {
	switch script {
	case language.Bengali:
		return ot.NewTag('b', 'n', 'g', '2')
	case language.Devanagari:
		return ot.NewTag('d', 'e', 'v', '2')
	case language.Gujarati:
		return ot.NewTag('g', 'j', 'r', '2')
	case language.Gurmukhi:
		return ot.NewTag('g', 'u', 'r', '2')
	case language.Kannada:
		return ot.NewTag('k', 'n', 'd', '2')
	case language.Malayalam:
		return ot.NewTag('m', 'l', 'm', '2')
	case language.Oriya:
		return ot.NewTag('o', 'r', 'y', '2')
	case language.Tamil:
		return ot.NewTag('t', 'm', 'l', '2')
	case language.Telugu:
		return ot.NewTag('t', 'e', 'l', '2')
	case language.Myanmar:
		return ot.NewTag('m', 'y', 'm', '2')
	}
	return TagDefaultScript
}

// ScriptTags returns the OpenType script tags for a script, most preferred
// first. Indic scripts yield their version 3 and version 2 tags before the
// old tag. The invalid script yields no tags.
func ScriptTags(script language.Script) []ot.Tag {
	var tags []ot.Tag
	tag := newTagFromScript(script)
	if tag != TagDefaultScript {
		// there is no 'mym3'
		if tag != ot.NewTag('m', 'y', 'm', '2') {
			tags = append(tags, tag&^0xFF|'3')
		}
		tags = append(tags, tag)
	}
	if old := oldTagFromScript(script); old != TagDefaultScript {
		tags = append(tags, old)
	}
	return tags
}

// otLanguages maps BCP 47 primary subtags to OpenType language system tags,
// for the languages where the two differ in more than case.
var otLanguages = map[string][]ot.Tag{
	"ar": {T("ARA")},
	"cs": {T("CSY")},
	"da": {T("DAN")},
	"de": {T("DEU")},
	"el": {T("ELL")},
	"en": {T("ENG")},
	"es": {T("ESP")},
	"fa": {T("FAR")},
	"fi": {T("FIN")},
	"fr": {T("FRA")},
	"ga": {T("IRI")},
	"he": {T("IWR")},
	"hi": {T("HIN")},
	"hu": {T("HUN")},
	"hy": {T("HYE0"), T("HYE")},
	"it": {T("ITA")},
	"ja": {T("JAN")},
	"ka": {T("KAT")},
	"ko": {T("KOR")},
	"ku": {T("KUR")},
	"nl": {T("NLD")},
	"no": {T("NOR")},
	"pl": {T("PLK")},
	"ps": {T("PAS")},
	"pt": {T("PTG")},
	"ro": {T("ROM")},
	"ru": {T("RUS")},
	"sd": {T("SND")},
	"sk": {T("SKY")},
	"sv": {T("SVE")},
	"syr": {T("SYR")},
	"tr": {T("TRK")},
	"ug": {T("UYG")},
	"uk": {T("UKR")},
	"ur": {T("URD")},
	"vi": {T("VIT")},
	"yi": {T("JII")},
	"zh": {T("ZHS")},
}

func primarySubtag(tag xlanguage.Tag) (string, bool) {
	base, _ := tag.Base()
	primary := strings.ToLower(base.String())
	if primary == "" || primary == "und" {
		return "", false
	}
	return primary, true
}

func isISO639_3(tag string) bool {
	if len(tag) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if !isAlpha(tag[i]) {
			return false
		}
	}
	return true
}

func tagsFromLanguage(tag xlanguage.Tag) []ot.Tag {
	primary, ok := primarySubtag(tag)
	if !ok {
		return nil
	}
	if tags, ok := otLanguages[primary]; ok {
		return append([]ot.Tag(nil), tags...)
	}
	if isISO639_3(primary) {
		// assume ISO 639-3, upper-cased
		return []ot.Tag{ot.NewTag(toUpper(primary[0]), toUpper(primary[1]), toUpper(primary[2]), ' ')}
	}
	if len(primary) == 2 {
		return []ot.Tag{ot.NewTag(toUpper(primary[0]), toUpper(primary[1]), ' ', ' ')}
	}
	return nil
}

// parsePrivateUseSubtag extracts a tag given as private use subtag
// (`x-hbsc-xxxx` for scripts, `x-hbot-xxxx` for languages).
func parsePrivateUseSubtag(privateUse string, prefix string, normalize func(byte) byte) (ot.Tag, bool) {
	s := strings.Index(privateUse, prefix)
	if s == -1 {
		return 0, false
	}
	var tag [4]byte
	s += len(prefix)
	var i int
	for ; i < 4 && s+i < len(privateUse) && isAlnum(privateUse[s+i]); i++ {
		tag[i] = normalize(privateUse[s+i])
	}
	if i == 0 {
		return 0, false
	}
	for ; i < 4; i++ {
		tag[i] = ' '
	}
	out := ot.NewTag(tag[0], tag[1], tag[2], tag[3])
	if out&0xDFDFDFDF == TagDefaultScript {
		out ^= ^ot.Tag(0xDFDFDFDF)
	}
	return out, true
}

func privateUseExtension(tag xlanguage.Tag) string {
	for _, ext := range tag.Extensions() {
		if ext.Type() == 'x' {
			return "-" + ext.String()
		}
	}
	return ""
}

// TagsFromScriptAndLanguage converts a script and a language to OpenType
// script and language system tags, most preferred first. Private use
// subtags `-hbsc-` and `-hbot-` in the language override the mapping.
func TagsFromScriptAndLanguage(script language.Script, lang language.Language) (scriptTags, languageTags []ot.Tag) {
	if lang != "" {
		if parsed, err := xlanguage.Parse(string(lang)); err == nil {
			privateUse := privateUseExtension(parsed)
			if s, ok := parsePrivateUseSubtag(privateUse, "-hbsc-", toLower); ok {
				scriptTags = []ot.Tag{s}
			}
			if l, ok := parsePrivateUseSubtag(privateUse, "-hbot-", toUpper); ok {
				languageTags = []ot.Tag{l}
			} else {
				languageTags = tagsFromLanguage(parsed)
			}
		}
	}
	if len(scriptTags) == 0 {
		scriptTags = ScriptTags(script)
	}
	return scriptTags, languageTags
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
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
