package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thatisuday/commando"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

func runShapeCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	f := mustLoadFont(args["font"].Value)
	buf, features := mustPrepareBuffer(args, flags)
	level := mustFlagInt(flags["cluster-level"], "cluster-level")
	if level < 0 || level > int(otbuffer.Characters) {
		fatalf("unsupported cluster level %d (expected 0|1|2)", level)
	}
	buf.ClusterLevel = otbuffer.ClusterLevel(level)
	if mustFlagBool(flags["verbose"], "verbose") {
		fmt.Printf("font:  %s\ninput: %s %v\n", f, buf.Serialize(0), buf.Props())
	}
	if err := newShaper().Shape(f, buf, features); err != nil {
		fatalf("shape failed: %v", err)
	}
	var sflags otbuffer.SerializeFlags
	if mustFlagBool(flags["no-positions"], "no-positions") {
		sflags |= otbuffer.SerializeNoPositions
	}
	if mustFlagBool(flags["glyph-flags"], "glyph-flags") {
		sflags |= otbuffer.SerializeGlyphFlags
	}
	fmt.Println(buf.Serialize(sflags))
}

func runPlanCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	f := mustLoadFont(args["font"].Value)
	buf, features := mustPrepareBuffer(args, flags)
	plan, err := newShaper().Plan(f, buf.Props(), features)
	if err != nil {
		fatalf("cannot compile plan: %v", err)
	}
	fmt.Println(plan)
	for _, a := range plan.Map.Allocation() {
		fmt.Printf("  %s mask=%#08x shift=%d default=%d stages=%d/%d\n", a.Tag, a.Mask, a.Shift,
			a.DefaultValue, a.Stage[otshape.LayoutGSUB], a.Stage[otshape.LayoutGPOS])
	}
	for _, table := range []otshape.LayoutTable{otshape.LayoutGSUB, otshape.LayoutGPOS} {
		for i, stage := range plan.Map.Stages(table) {
			lookups := make([]string, len(stage.Lookups))
			for j, op := range stage.Lookups {
				lookups[j] = fmt.Sprintf("%d(%s)", op.Index, op.FeatureTag)
			}
			fmt.Printf("%s stage %d: %s\n", table, i, strings.Join(lookups, " "))
		}
	}
}

// mustPrepareBuffer fills a buffer from the text argument or the
// --codepoints flag and sets its segment properties. Properties not given
// by flags are guessed from the text.
func mustPrepareBuffer(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) (*otbuffer.Buffer, []otshape.Feature) {
	input, err := parseShapeInput(args["text"], flags["codepoints"])
	if err != nil {
		fatalf("%v", err)
	}
	props, err := parseProps(
		mustFlagString(flags["direction"], "direction"),
		mustFlagString(flags["script"], "script"),
		mustFlagString(flags["lang"], "lang"))
	if err != nil {
		fatalf("%v", err)
	}
	features, err := parseFeatureList(mustFlagString(flags["features"], "features"))
	if err != nil {
		fatalf("%v", err)
	}
	buf := otbuffer.New()
	buf.Flags = otbuffer.FlagBOT | otbuffer.FlagEOT
	buf.AddString(input)
	buf.SetProps(props)
	buf.GuessSegmentProperties()
	return buf, features
}

// parseShapeInput prefers --codepoints over the text argument. Commando
// joins the parts of variadic arguments with commas.
func parseShapeInput(textArg commando.ArgValue, cpFlag commando.FlagValue) (string, error) {
	cp, err := cpFlag.GetString()
	if err != nil {
		return "", fmt.Errorf("invalid --codepoints flag: %w", err)
	}
	cp = strings.TrimSpace(cp)
	if cp != "" && cp != "-" {
		runes, err := parseCodepoints(cp)
		if err != nil {
			return "", err
		}
		return string(runes), nil
	}
	if textArg.Value == "" {
		return "", errors.New("no text to shape")
	}
	return strings.ReplaceAll(textArg.Value, ",", " "), nil
}

func parseProps(dir, script, lang string) (otbuffer.SegmentProperties, error) {
	var props otbuffer.SegmentProperties
	if dir != "" {
		if props.Direction = otbuffer.DirectionFromString(dir); !props.Direction.IsValid() {
			return props, fmt.Errorf("unsupported direction %q (expected ltr|rtl|ttb|btt)", dir)
		}
	}
	if script != "" {
		if len(script) != 4 {
			return props, fmt.Errorf("invalid script %q: expected an ISO 15924 tag", script)
		}
		props.Script = otbuffer.ScriptFromString(script)
	}
	props.Language = otbuffer.LanguageFromString(lang)
	return props, nil
}

// parseFeatureList accepts features separated by commas or spaces.
func parseFeatureList(list string) ([]otshape.Feature, error) {
	parts := splitCSVSpace(list)
	if len(parts) == 0 {
		return nil, nil
	}
	features, err := otshape.ParseFeatures(strings.Join(parts, ","))
	if err != nil {
		return nil, fmt.Errorf("invalid --features: %w", err)
	}
	return features, nil
}

func parseCodepoints(list string) ([]rune, error) {
	parts := splitCSVSpace(list)
	out := make([]rune, 0, len(parts))
	for _, p := range parts {
		r, err := parseCodepointToken(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func parseCodepointToken(token string) (rune, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, errors.New("empty codepoint token")
	}
	hex := token
	switch {
	case strings.HasPrefix(hex, "U+"), strings.HasPrefix(hex, "u+"):
		hex = hex[2:]
	case strings.HasPrefix(hex, "0x"), strings.HasPrefix(hex, "0X"):
		hex = hex[2:]
	}
	u, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid codepoint %q: %w", token, err)
	}
	if u > 0x10FFFF {
		return 0, fmt.Errorf("codepoint %q out of range", token)
	}
	return rune(u), nil
}
