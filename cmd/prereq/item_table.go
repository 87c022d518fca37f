package main

import (
	"strings"
	"time"

	"github.com/amonks/prereq/internal/ui"
	"github.com/amonks/prereq/item"
)

func formatItemTable(items []item.Item, highlight func(string) string, tagNames map[string]string, now time.Time) string {
	table := ui.NewTable("ID", "NAME", "STATUS", "DUE", "TAGS")
	for _, it := range items {
		table.AddRow(
			highlight(it.ID),
			it.Name,
			string(it.Status),
			ui.FormatDue(it.Due, now),
			formatTagList(it.Tags, tagNames),
		)
	}
	return table.String()
}

func formatTagList(tagIDs []string, tagNames map[string]string) string {
	if len(tagIDs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(tagIDs))
	for _, id := range tagIDs {
		if name, ok := tagNames[id]; ok {
			names = append(names, name)
			continue
		}
		names = append(names, id)
	}
	return strings.Join(names, ", ")
}
