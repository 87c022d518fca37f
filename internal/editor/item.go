package editor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/prereq/internal/ui"
	"github.com/amonks/prereq/item"
)

// ItemData represents the data used to render the TOML template.
type ItemData struct {
	// IsUpdate is true when editing an existing item.
	IsUpdate bool
	// ID is the item ID (only for updates).
	ID string
	// Name is the item name.
	Name string
	// Due is the item's own due date, formatted for editing.
	Due string
	// Sequential makes the item's children sequential.
	Sequential bool
	// Status is the item status (only for updates).
	Status string
	// Note is the item note.
	Note string
}

// DataFromItem creates ItemData from an existing item for editing.
func DataFromItem(it *item.Item) ItemData {
	data := ItemData{
		IsUpdate:   true,
		ID:         it.ID,
		Name:       it.Name,
		Sequential: it.Sequential,
		Status:     string(it.Status),
		Note:       it.Note,
	}
	if it.Due != nil {
		data.Due = it.Due.Format(time.RFC3339)
	}
	return data
}

var itemTemplate = template.Must(template.New("item").Parse(`name = {{ printf "%q" .Name }}
due = {{ printf "%q" .Due }} # YYYY-MM-DD, RFC 3339, today, tomorrow, +Nd, or empty
sequential = {{ .Sequential }} # children must be done in order
{{- if .IsUpdate }}
status = {{ printf "%q" .Status }} # open, completed, dropped
{{- end }}
---
{{ .Note }}
`))

// RenderItemTOML renders the item data as a TOML string for editing.
func RenderItemTOML(data ItemData) (string, error) {
	var buf bytes.Buffer
	if err := itemTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParsedItem represents the parsed result from the TOML editor output.
type ParsedItem struct {
	Name       string
	Due        *time.Time
	Sequential bool
	Status     *item.Status
	Note       string
}

type itemFrontmatter struct {
	Name       string  `toml:"name"`
	Due        string  `toml:"due"`
	Sequential bool    `toml:"sequential"`
	Status     *string `toml:"status"`
}

// ParseItemTOML parses the TOML content from the editor.
func ParseItemTOML(content string, now time.Time) (*ParsedItem, error) {
	frontmatter, body := splitFrontmatter(content)

	var raw itemFrontmatter
	if _, err := toml.Decode(frontmatter, &raw); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}

	name, err := item.NormalizeName(raw.Name)
	if err != nil {
		return nil, err
	}
	due, err := ui.ParseDue(raw.Due, now)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedItem{
		Name:       name,
		Due:        due,
		Sequential: raw.Sequential,
		Note:       strings.TrimRight(strings.TrimLeft(body, "\n"), "\n"),
	}
	if raw.Status != nil {
		status, err := item.ParseStatus(*raw.Status)
		if err != nil {
			return nil, err
		}
		parsed.Status = &status
	}
	return parsed, nil
}

// EditItem opens the editor with pre-populated data and returns the parsed result.
func EditItem(ctx context.Context, data ItemData) (*ParsedItem, error) {
	content, err := RenderItemTOML(data)
	if err != nil {
		return nil, err
	}
	edited, err := EditText(ctx, "prereq-item-*.md", content)
	if err != nil {
		return nil, err
	}
	return ParseItemTOML(edited, time.Now())
}

// ToCreateOptions converts a ParsedItem to item.CreateOptions.
func (p *ParsedItem) ToCreateOptions(parent string) item.CreateOptions {
	return item.CreateOptions{
		Note:       p.Note,
		Due:        p.Due,
		Parent:     parent,
		Sequential: p.Sequential,
	}
}

// splitFrontmatter splits content at the first "---" line into TOML
// frontmatter and a markdown note.
func splitFrontmatter(content string) (frontmatter, note string) {
	content = strings.TrimLeft(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return content, ""
}
