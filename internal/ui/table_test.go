package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateCell(t *testing.T) {
	tests := []struct {
		name  string
		value string
		width int
		want  string
	}{
		{name: "fits", value: "short", width: 10, want: "short"},
		{name: "counts runes", value: strings.Repeat("a", 9) + "é", width: 10, want: strings.Repeat("a", 9) + "é"},
		{name: "flattens line breaks", value: "Hello\nWorld\r\nAgain\tTab", width: 50, want: "Hello World Again Tab"},
		{name: "ellipsis", value: "abcdefghij", width: 8, want: "abcde..."},
		{name: "tiny width", value: "abcdefghij", width: 2, want: ".."},
		{name: "no limit", value: "abcdefghij", width: 0, want: "abcdefghij"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateCell(tt.value, tt.width); got != tt.want {
				t.Fatalf("TruncateCell(%q, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncateCellIgnoresANSICodes(t *testing.T) {
	value := "\x1b[1m\x1b[36m" + strings.Repeat("a", DefaultCellWidth) + "\x1b[0m"

	if got := TruncateCell(value, DefaultCellWidth); got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}

	long := "\x1b[36m" + strings.Repeat("a", DefaultCellWidth+10) + "\x1b[0m"
	got := TruncateCell(long, DefaultCellWidth)
	if lipgloss.Width(got) != DefaultCellWidth || !strings.Contains(got, cellEllipsis) {
		t.Fatalf("expected styled value cut to %d columns, got %q", DefaultCellWidth, got)
	}
}

func TestTableAlignsColumns(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	table := NewTable("ID", "NAME", "DUE")
	table.AddRow("abc", "Buy paint", "-")
	table.AddRow("defgh", "Paint fence", "2025-01-05")

	expected := "" +
		"ID     NAME         DUE\n" +
		"abc    Buy paint    -\n" +
		"defgh  Paint fence  2025-01-05\n"
	if got := table.String(); got != expected {
		t.Fatalf("unexpected table:\n%s", got)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
}

func TestTableLimitsColumns(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	table := NewTable("NAME", "NOTE").Limit(0, 6)
	table.AddRow("Paint the fence", "Hello\nWorld")

	expected := "" +
		"NAME    NOTE\n" +
		"Pai...  Hello World\n"
	if got := table.String(); got != expected {
		t.Fatalf("unexpected table:\n%q", got)
	}
}

func TestTableIgnoresANSIWhenAligning(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	plain := NewTable("ID", "NAME")
	plain.AddRow("abc123", "First")
	plain.AddRow("abd456", "Second")

	styled := NewTable("ID", "NAME")
	styled.AddRow("\x1b[36mab\x1b[0mc123", "First")
	styled.AddRow("\x1b[36mab\x1b[0md456", "Second")

	stripped := strings.NewReplacer("\x1b[36m", "", "\x1b[0m", "").Replace(styled.String())
	if stripped != plain.String() {
		t.Fatalf("expected styled table to align like plain\nplain:\n%s\nstyled:\n%s", plain.String(), stripped)
	}
}
