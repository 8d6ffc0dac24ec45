package main

import (
	"fmt"
	"strings"

	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/pterm/pterm"

	"github.com/npillmayer/otshaping/otbuffer"
	"github.com/npillmayer/otshaping/otshape"
)

func printGlyphs(buf *otbuffer.Buffer) {
	data := [][]string{
		{"#", "Glyph", "Cluster", "Advance", "Offset", "Flags"},
	}
	pos := buf.GlyphPositions()
	for i, info := range buf.GlyphInfos() {
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", info.Glyph()),
			fmt.Sprintf("%d", info.Cluster),
			fmt.Sprintf("%d,%d", pos[i].XAdvance, pos[i].YAdvance),
			fmt.Sprintf("%d,%d", pos[i].XOffset, pos[i].YOffset),
			formatGlyphFlags(info.Mask),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func formatGlyphFlags(mask otbuffer.GlyphMask) string {
	parts := make([]string, 0, 3)
	if mask&otbuffer.GlyphUnsafeToBreak != 0 {
		parts = append(parts, "UnsafeToBreak")
	}
	if mask&otbuffer.GlyphUnsafeToConcat != 0 {
		parts = append(parts, "UnsafeToConcat")
	}
	if mask&otbuffer.GlyphSafeToInsertTatweel != 0 {
		parts = append(parts, "SafeToInsertTatweel")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "|")
}

func printPlan(plan *otshape.Plan) {
	pterm.Println(plan.String())
	data := [][]string{
		{"Feature", "Mask", "Shift", "Default", "Stages", "Flags"},
	}
	for _, a := range plan.Map.Allocation() {
		var flags []string
		if a.Global {
			flags = append(flags, "global")
		}
		if a.NeedsFallback {
			flags = append(flags, "fallback")
		}
		data = append(data, []string{
			formatTag(a.Tag),
			fmt.Sprintf("%#08x", a.Mask),
			fmt.Sprintf("%d", a.Shift),
			fmt.Sprintf("%d", a.DefaultValue),
			fmt.Sprintf("%d/%d", a.Stage[otshape.LayoutGSUB], a.Stage[otshape.LayoutGPOS]),
			strings.Join(flags, ","),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	for _, table := range []otshape.LayoutTable{otshape.LayoutGSUB, otshape.LayoutGPOS} {
		printStages(plan, table)
	}
}

func printStages(plan *otshape.Plan, table otshape.LayoutTable) {
	stages := plan.Map.Stages(table)
	pterm.Printf("%s has %d stages, %d lookups\n", table, len(stages), plan.Map.LookupCount(table))
	if len(stages) == 0 {
		return
	}
	data := [][]string{
		{"Stage", "Lookup", "Feature", "Mask", "Pause"},
	}
	for i, stage := range stages {
		pause := "-"
		if stage.Pause != nil {
			pause = "yes"
		}
		if len(stage.Lookups) == 0 {
			data = append(data, []string{fmt.Sprintf("%d", i), "-", "-", "-", pause})
		}
		for _, op := range stage.Lookups {
			data = append(data, []string{
				fmt.Sprintf("%d", i),
				fmt.Sprintf("%d", op.Index),
				formatTag(op.FeatureTag),
				fmt.Sprintf("%#08x", op.Mask),
				pause,
			})
		}
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printCapabilities(face otshape.Face) {
	caps := face.Capabilities()
	data := [][]string{
		{"Table", "Present"},
	}
	for _, c := range []otshape.Capabilities{
		otshape.HasGSUB, otshape.HasGPOS, otshape.HasGlyphClasses,
		otshape.HasMorx, otshape.HasKerx, otshape.HasKern, otshape.HasTrak,
	} {
		present := "-"
		if caps&c != 0 {
			present = "yes"
		}
		data = append(data, []string{c.String(), present})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if ext, ok := face.(otshape.GlyphExtenter); ok {
		pterm.Printf("units per em: %d\n", ext.UnitsPerEm())
	}
}

func formatTag(t ot.Tag) string {
	return fmt.Sprintf("'%s'", t)
}
