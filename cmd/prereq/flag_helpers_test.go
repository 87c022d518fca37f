package main

import "testing"

func TestEditorFlagsDecide(t *testing.T) {
	tests := []struct {
		name        string
		flags       editorFlags
		answered    bool
		interactive bool
		want        bool
	}{
		{name: "interactive without flags", interactive: true, want: true},
		{name: "not interactive", want: false},
		{name: "flags skip editor", answered: true, interactive: true, want: false},
		{name: "edit forces editor", flags: editorFlags{edit: true}, answered: true, want: true},
		{name: "no-edit skips editor", flags: editorFlags{noEdit: true}, interactive: true, want: false},
		{name: "edit wins over no-edit", flags: editorFlags{edit: true, noEdit: true}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.decide(tt.answered, tt.interactive); got != tt.want {
				t.Fatalf("decide() = %v, want %v", got, tt.want)
			}
		})
	}
}
