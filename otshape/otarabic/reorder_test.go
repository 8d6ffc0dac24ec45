package otarabic

import (
	"testing"

	"github.com/npillmayer/otshaping/otbuffer"
)

func marksBuffer(runes ...rune) *otbuffer.Buffer {
	buf := otbuffer.New()
	buf.AddRunes(runes, 0, -1)
	buf.SetUnicodeProps(otbuffer.DefaultUnicode)
	return buf
}

func TestReorderMovesHamzaBelowToFront(t *testing.T) {
	// beh kasra hamza-below
	buf := marksBuffer(0x0628, 0x0650, 0x0655)
	reorderModifierMarks(buf, 1, 3)
	infos := buf.GlyphInfos()
	if infos[1].Codepoint != 0x0655 || infos[2].Codepoint != 0x0650 {
		t.Fatalf("marks = [%U %U], want [U+0655 U+0650]", infos[1].Codepoint, infos[2].Codepoint)
	}
	if got := infos[1].ModifiedCombiningClass(); got != cccMovedBelow {
		t.Errorf("moved mark class = %d, want %d", got, cccMovedBelow)
	}
	if infos[1].Cluster != infos[2].Cluster {
		t.Errorf("moved marks must share a cluster, have %d and %d", infos[1].Cluster, infos[2].Cluster)
	}
}

func TestReorderMovesHamzaAboveToFront(t *testing.T) {
	// beh fatha hamza-above
	buf := marksBuffer(0x0628, 0x064E, 0x0654)
	reorderModifierMarks(buf, 1, 3)
	infos := buf.GlyphInfos()
	if infos[1].Codepoint != 0x0654 || infos[2].Codepoint != 0x064E {
		t.Fatalf("marks = [%U %U], want [U+0654 U+064E]", infos[1].Codepoint, infos[2].Codepoint)
	}
	if got := infos[1].ModifiedCombiningClass(); got != cccMovedAbove {
		t.Errorf("moved mark class = %d, want %d", got, cccMovedAbove)
	}
}

func TestReorderLeavesOtherMarks(t *testing.T) {
	// kasra and subscript alef are not modifier marks
	buf := marksBuffer(0x0628, 0x0650, 0x0656)
	reorderModifierMarks(buf, 1, 3)
	infos := buf.GlyphInfos()
	if infos[1].Codepoint != 0x0650 || infos[2].Codepoint != 0x0656 {
		t.Fatalf("marks = [%U %U], want them unchanged", infos[1].Codepoint, infos[2].Codepoint)
	}
	if infos[1].Cluster == infos[2].Cluster {
		t.Errorf("unchanged marks must keep their clusters")
	}
}
