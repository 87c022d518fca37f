package main

import (
	"strings"
	"testing"
	"time"

	"github.com/amonks/prereq/item"
)

func TestFormatItemDetail(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	detail := itemDetail{
		Item: item.Item{
			ID:         "dep12345",
			Name:       "Write report",
			Status:     item.StatusOpen,
			Note:       "[PREREQUISITE: omnifocus:///task/pre12345] Gather data\n\nSee *draft*.",
			Tags:       []string{"t-dep"},
			Children:   []string{"c1", "c2"},
			Sequential: true,
			Project:    "prj12345",
		},
		Prerequisites: []string{"pre12345", "pre67890"},
		EffectiveDue:  &due,
		ProjectName:   "Quarterly",
		ProjectStatus: item.ProjectOnHold,
		LinkedNames:   map[string]string{"pre12345": "Gather data", "pre67890": "Book room"},
	}

	out := formatItemDetail(detail, func(id string) string { return id }, map[string]string{"t-dep": "Dependant"}, 80, now)

	for _, want := range []string{
		"ID:            dep12345\n",
		"Name:          Write report\n",
		"Due:           2025-01-03 (in 2d) inherited\n",
		"Children:      2 (sequential)\n",
		"Project:       Quarterly (on_hold)\n",
		"Tags:          Dependant\n",
		"Prerequisites: pre12345 Gather data\n",
		"               pre67890 Book room\n",
		"[PREREQUISITE: omnifocus:///task/pre12345] Gather data",
		"draft",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Dependants:") {
		t.Fatalf("did not expect empty dependants section:\n%s", out)
	}
}

func TestWrapValue(t *testing.T) {
	name := strings.Repeat("word ", 20)
	got := wrapValue(strings.TrimSpace(name), 40)
	lines := strings.Split(got, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped value, got %q", got)
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, strings.Repeat(" ", detailLabelWidth)) {
			t.Fatalf("expected continuation lines to be indented, got %q", line)
		}
	}

	if got := wrapValue("short", 40); got != "short" {
		t.Fatalf("wrapValue(short) = %q", got)
	}
	if got := wrapValue(name, 10); got != name {
		t.Fatalf("expected narrow terminals to leave value alone, got %q", got)
	}
}
