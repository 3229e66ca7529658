package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Topic", "Accuracy", "Runs"}
	rows := [][]string{
		{"RCC", "97.5%", "12"},
		{"Interrupts", "8.0%", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Topic      Accuracy Runs" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "RCC           97.5%   12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Interrupts     8.0%    3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Topic", "N"}, [][]string{{"時計", "1"}}, map[int]bool{1: true})
	if lines[1] != "時計  1" {
		t.Fatalf("expected double-width padding, got %q", lines[1])
	}
}
