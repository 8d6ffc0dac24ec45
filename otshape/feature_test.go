package otshape

import (
	"errors"
	"testing"

	"github.com/go-text/typesetting/language"
)

func TestParseFeature(t *testing.T) {
	tests := []struct {
		in         string
		tag        string
		value      uint32
		start, end uint32
	}{
		{"kern", "kern", 1, FeatureGlobalStart, FeatureGlobalEnd},
		{"+kern", "kern", 1, FeatureGlobalStart, FeatureGlobalEnd},
		{"-kern", "kern", 0, FeatureGlobalStart, FeatureGlobalEnd},
		{"kern=0", "kern", 0, FeatureGlobalStart, FeatureGlobalEnd},
		{"aalt=2", "aalt", 2, FeatureGlobalStart, FeatureGlobalEnd},
		{"liga=off", "liga", 0, FeatureGlobalStart, FeatureGlobalEnd},
		{"kern[3:5]", "kern", 1, 3, 5},
		{"kern[3]", "kern", 1, 3, 4},
		{"kern[3:]=0", "kern", 0, 3, FeatureGlobalEnd},
		{"kern[:5]", "kern", 1, FeatureGlobalStart, 5},
		{" 'smcp' ", "smcp", 1, FeatureGlobalStart, FeatureGlobalEnd},
		{"cv1", "cv1 ", 1, FeatureGlobalStart, FeatureGlobalEnd},
		{`"liga" off`, "liga", 0, FeatureGlobalStart, FeatureGlobalEnd},
		{`"salt" 3`, "salt", 3, FeatureGlobalStart, FeatureGlobalEnd},
		{"kern[3;5]", "kern", 1, 3, 5},
	}
	for _, tt := range tests {
		f, err := ParseFeature(tt.in)
		if err != nil {
			t.Fatalf("ParseFeature(%q) failed: %v", tt.in, err)
		}
		if f.Tag != T(tt.tag) || f.Value != tt.value || f.Start != tt.start || f.End != tt.end {
			t.Errorf("ParseFeature(%q) = %+v, want %s=%d [%d:%d]", tt.in, f, tt.tag, tt.value, tt.start, tt.end)
		}
	}
}

func TestParseFeatureRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "-", "kerning", "kern[3", "'kern", "'ker'", "kern[3:5", "=1"} {
		if _, err := ParseFeature(in); !errors.Is(err, ErrFeatureSyntax) {
			t.Errorf("ParseFeature(%q) error = %v, want syntax error", in, err)
		}
	}
}

func TestFeatureStringRoundTrip(t *testing.T) {
	for _, in := range []string{"kern", "-liga", "aalt=3", "kern[3]", "kern[3:5]", "-kern[3:]", "smcp[:7]=2"} {
		f, err := ParseFeature(in)
		if err != nil {
			t.Fatalf("ParseFeature(%q) failed: %v", in, err)
		}
		if got := f.String(); got != in {
			t.Errorf("String() of %q = %q", in, got)
		}
		again, err := ParseFeature(f.String())
		if err != nil || again != f {
			t.Errorf("re-parsing %q gives %+v, want %+v", f.String(), again, f)
		}
	}
}

func TestParseFeatureList(t *testing.T) {
	features, err := ParseFeatures("kern, -liga,, smcp[2:4]")
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 3 {
		t.Fatalf("parsed %d features, want 3", len(features))
	}
	if features[1].Tag != T("liga") || features[1].Value != 0 {
		t.Errorf("second feature = %v, want -liga", features[1])
	}
	if features[2].IsGlobal() {
		t.Errorf("ranged feature reported as global")
	}
	if _, err := ParseFeatures("kern,=1"); err == nil {
		t.Errorf("expected error for malformed list item")
	}
}

func TestScriptTags(t *testing.T) {
	tests := []struct {
		script language.Script
		tags   []string
	}{
		{language.Latin, []string{"latn"}},
		{language.Arabic, []string{"arab"}},
		{language.Devanagari, []string{"dev3", "dev2", "deva"}},
		{language.Myanmar, []string{"mym2", "mymr"}},
		{language.Hiragana, []string{"kana"}},
		{language.Lao, []string{"lao "}},
	}
	for _, tt := range tests {
		got := ScriptTags(tt.script)
		if len(got) != len(tt.tags) {
			t.Errorf("ScriptTags(%s) = %v, want %v", tt.script, got, tt.tags)
			continue
		}
		for i := range got {
			if got[i] != T(tt.tags[i]) {
				t.Errorf("ScriptTags(%s)[%d] = %q, want %q", tt.script, i, tagString(got[i]), tt.tags[i])
			}
		}
	}
	if tags := ScriptTags(0); len(tags) != 0 {
		t.Errorf("invalid script yields tags %v", tags)
	}
}

func TestTagsFromLanguage(t *testing.T) {
	_, langs := TagsFromScriptAndLanguage(language.Arabic, language.Language("ar"))
	if len(langs) == 0 || langs[0] != T("ARA") {
		t.Errorf("language tags for ar = %v, want ARA first", langs)
	}
	scripts, langs := TagsFromScriptAndLanguage(language.Latin, language.Language("en-x-hbsc-cyrl-hbot-TRK"))
	if len(scripts) != 1 || scripts[0] != T("cyrl") {
		t.Errorf("private use script override = %v, want cyrl", scripts)
	}
	if len(langs) != 1 || langs[0] != T("TRK") {
		t.Errorf("private use language override = %v, want TRK", langs)
	}
}
