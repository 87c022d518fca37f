package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amonks/prereq/internal/markdown"
	"github.com/amonks/prereq/internal/ui"
	"github.com/amonks/prereq/item"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

// itemDetail is an item plus its one-hop links.
type itemDetail struct {
	item.Item
	Prerequisites []string `json:"prerequisites"`
	Dependants    []string `json:"dependants"`

	EffectiveDue  *time.Time         `json:"-"`
	ParentName    string             `json:"-"`
	ProjectName   string             `json:"-"`
	ProjectStatus item.ProjectStatus `json:"-"`
	LinkedNames   map[string]string  `json:"-"`
}

const detailLabelWidth = 15

func runItemShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(func(a *app) error {
		ids, err := a.resolveItemIDs(args)
		if err != nil {
			return err
		}

		details := make([]itemDetail, 0, len(ids))
		for _, id := range ids {
			it, err := a.items.Item(id)
			if err != nil {
				return err
			}
			detail := itemDetail{Item: *it, LinkedNames: map[string]string{}}
			if detail.Prerequisites, err = a.engine.Prerequisites(ctx, id); err != nil {
				return err
			}
			if detail.Dependants, err = a.engine.Dependants(ctx, id); err != nil {
				return err
			}
			for _, linked := range append(append([]string{}, detail.Prerequisites...), detail.Dependants...) {
				detail.LinkedNames[linked] = a.itemName(linked)
			}
			if detail.EffectiveDue, err = a.items.EffectiveDue(id); err != nil {
				return err
			}
			if it.Parent != "" {
				detail.ParentName = a.itemName(it.Parent)
			}
			if it.Project != "" {
				project, err := a.items.Project(it.Project)
				if err != nil && !errors.Is(err, item.ErrProjectNotFound) {
					return err
				}
				if project != nil {
					detail.ProjectName = project.Name
					detail.ProjectStatus = project.Status
				}
			}
			details = append(details, detail)
		}

		if itemShowJSON {
			return encodeJSONToStdout(details)
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		tagNames, err := a.tagNames()
		if err != nil {
			return err
		}
		width := outputWidth()
		now := time.Now()
		for i, detail := range details {
			if i > 0 {
				fmt.Println()
			}
			fmt.Print(formatItemDetail(detail, highlight, tagNames, width, now))
		}
		return nil
	})
}

func formatItemDetail(detail itemDetail, highlight func(string) string, tagNames map[string]string, width int, now time.Time) string {
	var b strings.Builder
	field := func(label, value string) {
		if label != "" {
			label += ":"
		}
		fmt.Fprintf(&b, "%-*s%s\n", detailLabelWidth, label, value)
	}

	field("ID", highlight(detail.ID))
	field("Name", wrapValue(detail.Name, width))
	field("Status", string(detail.Status))

	due := ui.FormatDue(detail.EffectiveDue, now)
	if detail.Due == nil && detail.EffectiveDue != nil {
		due += " inherited"
	}
	field("Due", due)

	if detail.Parent != "" {
		field("Parent", fmt.Sprintf("%s %s", highlight(detail.Parent), detail.ParentName))
	}
	if detail.HasChildren() {
		mode := "parallel"
		if detail.Sequential {
			mode = "sequential"
		}
		field("Children", fmt.Sprintf("%d (%s)", len(detail.Children), mode))
	}
	if detail.Project != "" {
		field("Project", fmt.Sprintf("%s (%s)", detail.ProjectName, detail.ProjectStatus))
	}
	field("Tags", formatTagList(detail.Tags, tagNames))

	linked := func(label string, ids []string) {
		if len(ids) == 0 {
			return
		}
		for i, id := range ids {
			if i > 0 {
				label = ""
			}
			field(label, fmt.Sprintf("%s %s", highlight(id), detail.LinkedNames[id]))
		}
	}
	linked("Prerequisites", detail.Prerequisites)
	linked("Dependants", detail.Dependants)

	if strings.TrimSpace(detail.Note) != "" {
		b.WriteString("\nNote:\n")
		b.WriteString(markdown.RenderNote(width, 2, detail.Note))
		b.WriteString("\n")
	}
	return b.String()
}

// wrapValue wraps a field value to the space right of the labels.
func wrapValue(value string, width int) string {
	limit := width - detailLabelWidth
	if limit < 20 {
		return value
	}
	wrapped := wordwrap.String(value, limit)
	first, rest, found := strings.Cut(wrapped, "\n")
	if !found {
		return wrapped
	}
	return first + "\n" + indent.String(rest, detailLabelWidth)
}
