package main

import (
	"github.com/amonks/prereq/internal/editor"
	"github.com/spf13/cobra"
)

// editorFlags holds the --edit and --no-edit switches of a command that
// can open $EDITOR.
type editorFlags struct {
	edit   bool
	noEdit bool
}

func (f *editorFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.edit, "edit", "e", false, "Open $EDITOR (default if interactive)")
	cmd.Flags().BoolVar(&f.noEdit, "no-edit", false, "Do not open $EDITOR")
}

// use reports whether cmd should open the editor. Setting any of fields
// on the command line counts as answering without it.
func (f *editorFlags) use(cmd *cobra.Command, fields ...string) bool {
	return f.decide(hasChangedFlags(cmd, fields...), editor.IsInteractive())
}

func (f *editorFlags) decide(answered, interactive bool) bool {
	switch {
	case f.edit:
		return true
	case f.noEdit, answered:
		return false
	}
	return interactive
}

func hasChangedFlags(cmd *cobra.Command, flags ...string) bool {
	for _, flag := range flags {
		if cmd.Flags().Changed(flag) {
			return true
		}
	}
	return false
}
