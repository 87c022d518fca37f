package editor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/amonks/prereq/dependency"
	"github.com/amonks/prereq/item"
)

// TagStore is the part of the item store tag setup needs.
type TagStore interface {
	Tags() ([]item.Tag, error)
	EnsureTag(name string) (*item.Tag, bool, error)
}

// DefaultTagNames are suggested when a role has never been configured.
var DefaultTagNames = map[dependency.Role]string{
	dependency.RoleMarker:       "Pending prerequisite",
	dependency.RolePrerequisite: "Prerequisite",
	dependency.RoleDependant:    "Dependant",
}

var roleDescriptions = map[dependency.Role]string{
	dependency.RoleMarker:       "the item waiting to be linked as a prerequisite",
	dependency.RolePrerequisite: "items that other items wait on",
	dependency.RoleDependant:    "items waiting on a prerequisite",
}

// TagSetup asks which tag to use for a role by opening a TOML template in
// the editor. It implements dependency.SetupFlow.
type TagSetup struct {
	Tags TagStore

	// Interactive reports whether a person can answer. Defaults to IsInteractive.
	Interactive func() bool

	// EditFunc edits the template. Defaults to EditText.
	EditFunc func(ctx context.Context, pattern, content string) (string, error)
}

type tagSetupData struct {
	Role        dependency.Role
	Description string
	Existing    string
	Suggested   string
}

var tagSetupTemplate = template.Must(template.New("setup").Parse(`# Which tag marks {{ .Description }}?
# Existing tags: {{ .Existing }}
# A tag with this name is created if none exists. Leave it empty to cancel.
{{ printf "%s" .Role }} = {{ printf "%q" .Suggested }}
`))

// RenderTagSetup renders the setup template for role.
func RenderTagSetup(role dependency.Role, existing []item.Tag) (string, error) {
	names := make([]string, 0, len(existing))
	for _, tag := range existing {
		names = append(names, tag.Name)
	}
	listed := strings.Join(names, ", ")
	if listed == "" {
		listed = "(none)"
	}

	var buf bytes.Buffer
	err := tagSetupTemplate.Execute(&buf, tagSetupData{
		Role:        role,
		Description: roleDescriptions[role],
		Existing:    listed,
		Suggested:   DefaultTagNames[role],
	})
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParseTagSetup returns the tag name chosen for role. An empty name means
// the user cancelled.
func ParseTagSetup(role dependency.Role, content string) (string, error) {
	values := map[string]string{}
	if _, err := toml.Decode(content, &values); err != nil {
		return "", fmt.Errorf("parse TOML: %w", err)
	}
	return strings.TrimSpace(values[string(role)]), nil
}

// Setup implements dependency.SetupFlow.
func (s *TagSetup) Setup(ctx context.Context, role dependency.Role) (string, error) {
	interactive := s.Interactive
	if interactive == nil {
		interactive = IsInteractive
	}
	if !interactive() {
		return "", fmt.Errorf("%w: not running interactively (run prereq prefs setup)", dependency.ErrSetupCancelled)
	}

	existing, err := s.Tags.Tags()
	if err != nil {
		return "", err
	}
	content, err := RenderTagSetup(role, existing)
	if err != nil {
		return "", err
	}

	edit := s.EditFunc
	if edit == nil {
		edit = EditText
	}
	edited, err := edit(ctx, "prereq-setup-*.toml", content)
	if err != nil {
		return "", err
	}

	name, err := ParseTagSetup(role, edited)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", dependency.ErrSetupCancelled
	}
	tag, _, err := s.Tags.EnsureTag(name)
	if err != nil {
		return "", err
	}
	return tag.ID, nil
}
