package tui

import (
	"strings"
	"testing"
)

func TestRichRunesTags(t *testing.T) {
	runes := richRunes("<b>ab</b>c", textStyle)
	if len(runes) != 3 {
		t.Fatalf("expected 3 runes, got %d", len(runes))
	}
	if runes[0].s != textStyle.Bold(true).Render("a") {
		t.Fatalf("expected bold style inside b tag")
	}
	if runes[2].s != textStyle.Render("c") {
		t.Fatalf("expected base style after closing tag")
	}
}

func TestRichRunesCodeTagIsLiteral(t *testing.T) {
	runes := richRunes("<code>(4*2)</code>", textStyle)
	if len(runes) != 5 {
		t.Fatalf("expected 5 runes, got %d", len(runes))
	}
	for i, want := range "(4*2)" {
		if runes[i].s != codeStyle.Render(string(want)) {
			t.Fatalf("rune %d: expected code style for %q", i, want)
		}
	}
}

func TestRichRunesInlineMarkers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		plain string
		index int
		style func() string
	}{
		{"bold", "**Verify** this", "Verify this", 0, func() string { return textStyle.Bold(true).Render("V") }},
		{"italic", "*before* enabling", "before enabling", 1, func() string { return textStyle.Italic(true).Render("e") }},
		{"backticks", "use `NVIC_EnableIRQ()` now", "use NVIC_EnableIRQ() now", 4, func() string { return codeStyle.Render("N") }},
		{"arithmetic", "Vdda * (DHR / 4096)", "Vdda * (DHR / 4096)", 5, func() string { return textStyle.Render("*") }},
		{"product", "(4*2)", "(4*2)", 2, func() string { return textStyle.Render("*") }},
		{"unmatched", "a `b", "a `b", 2, func() string { return textStyle.Render("`") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runes := richRunes(tt.input, textStyle)
			if len(runes) != len([]rune(tt.plain)) {
				t.Fatalf("expected %d runes for %q, got %d", len([]rune(tt.plain)), tt.plain, len(runes))
			}
			if runes[tt.index].s != tt.style() {
				t.Fatalf("unexpected style at %d", tt.index)
			}
		})
	}
}

func TestRichRunesBreaksAndEntities(t *testing.T) {
	runes := richRunes("a<br>b &amp; c<span>d</span>", textStyle)
	if len(runes) != 8 {
		t.Fatalf("expected 8 runes, got %d", len(runes))
	}
	if !runes[1].isBreak {
		t.Fatalf("expected line break for br tag")
	}
	if runes[4].s != textStyle.Render("&") {
		t.Fatalf("expected decoded entity")
	}
	if runes[7].s != textStyle.Render("d") {
		t.Fatalf("expected text of unknown tag to be kept")
	}
}

func TestRenderRichWraps(t *testing.T) {
	out := renderRich("<b>ab</b> cd", textStyle, 2)
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected two lines, got %q", out)
	}
}
