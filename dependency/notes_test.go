package dependency

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestStripAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		note    string
		id      string
		want    string
		removed bool
	}{
		{
			name:    "only line",
			note:    "[DEPENDANT: omnifocus:///task/7] Seven\n\n",
			id:      "7",
			want:    "",
			removed: true,
		},
		{
			name:    "keeps body",
			note:    "[DEPENDANT: omnifocus:///task/7] Seven\n\nbody\nmore",
			id:      "7",
			want:    "body\nmore",
			removed: true,
		},
		{
			name:    "middle annotation",
			note:    "[DEPENDANT: omnifocus:///task/9] Nine\n\n[DEPENDANT: omnifocus:///task/7] Seven\n\nbody",
			id:      "7",
			want:    "[DEPENDANT: omnifocus:///task/9] Nine\n\nbody",
			removed: true,
		},
		{
			name:    "id prefix does not match",
			note:    "[DEPENDANT: omnifocus:///task/77] Other\n\nbody",
			id:      "7",
			want:    "[DEPENDANT: omnifocus:///task/77] Other\n\nbody",
			removed: false,
		},
		{
			name:    "legacy spaced form",
			note:    "[ DEPENDANT: omnifocus:///task/7 ] Seven\n\nbody",
			id:      "7",
			want:    "body",
			removed: true,
		},
		{
			name:    "no trailing blank line",
			note:    "[DEPENDANT: omnifocus:///task/7] Seven",
			id:      "7",
			want:    "",
			removed: true,
		},
		{
			name:    "absent",
			note:    "just text",
			id:      "7",
			want:    "just text",
			removed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, removed := stripAnnotation(tt.note, labelDependant, DefaultScheme, tt.id)
			if got != tt.want || removed != tt.removed {
				t.Fatalf("stripAnnotation() = (%q, %v), want (%q, %v)", got, removed, tt.want, tt.removed)
			}
		})
	}
}

func TestAnnotationRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("strip undoes prepend", prop.ForAll(
		func(note, id, name string) bool {
			line := annotation(labelPrerequisite, DefaultScheme, id, name)
			got, removed := stripAnnotation(prependAnnotation(note, line), labelPrerequisite, DefaultScheme, id)
			if !removed || got != note {
				t.Logf("note %q: got (%q, %v)", note, got, removed)
				return false
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()).Map(func(lines []string) string {
			return strings.Join(lines, "\n")
		}),
		gen.Identifier(),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.Property("stripping twice changes nothing", prop.ForAll(
		func(note, id string) bool {
			line := annotation(labelDependant, DefaultScheme, id, "x")
			once, _ := stripAnnotation(prependAnnotation(note, line), labelDependant, DefaultScheme, id)
			twice, removed := stripAnnotation(once, labelDependant, DefaultScheme, id)
			return !removed && twice == once
		},
		gen.SliceOf(gen.AlphaString()).Map(func(lines []string) string {
			return strings.Join(lines, "\n")
		}),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
