package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/prereq/dependency"
	"github.com/amonks/prereq/internal/editor"
	"github.com/amonks/prereq/item"
	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Configure which tags play each role",
}

// prefs setup
var prefsSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose the marker, prerequisite and dependant tags",
	Long: `Choose the marker, prerequisite and dependant tags.

Roles named with a flag are configured directly, creating the tag when no
tag has that name. Other roles that are not yet configured are asked for
in $EDITOR. Use --edit to choose again for roles that are already configured.`,
	Args: cobra.NoArgs,
	RunE: runPrefsSetup,
}

var (
	prefsSetupNames = map[dependency.Role]*string{}
	prefsSetupEdit  bool
)

// prefs show
var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured tags and where preferences are stored",
	Args:  cobra.NoArgs,
	RunE:  runPrefsShow,
}

var prefsShowJSON bool

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsSetupCmd, prefsShowCmd)

	for _, role := range dependency.Roles() {
		name := new(string)
		prefsSetupNames[role] = name
		prefsSetupCmd.Flags().StringVar(name, string(role), "", fmt.Sprintf("Tag name for the %s role", role))
	}
	prefsSetupCmd.Flags().BoolVarP(&prefsSetupEdit, "edit", "e", false, "Open $EDITOR even for configured roles")

	prefsShowCmd.Flags().BoolVar(&prefsShowJSON, "json", false, "Output as JSON")
}

func runPrefsSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(func(a *app) error {
		resolver := a.engine.Tags()
		for _, role := range dependency.Roles() {
			var tagID string
			var err error
			switch {
			case cmd.Flags().Changed(string(role)):
				tagID, err = configureRoleByName(ctx, a, role, *prefsSetupNames[role])
			case prefsSetupEdit:
				setup := &editor.TagSetup{Tags: a.items, Interactive: func() bool { return true }}
				tagID, err = setup.Setup(ctx, role)
				if err == nil {
					err = resolver.Configure(ctx, role, tagID)
				}
			default:
				tagID, err = resolver.Resolve(ctx, role)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", role, err)
			}

			tag, err := a.items.Tag(tagID)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s (%s)\n", role, tag.Name, tag.ID)
		}
		return nil
	})
}

func configureRoleByName(ctx context.Context, a *app, role dependency.Role, name string) (string, error) {
	tag, created, err := a.items.EnsureTag(name)
	if err != nil {
		return "", err
	}
	if created {
		fmt.Printf("Created tag %s: %s\n", tag.ID, tag.Name)
	}
	if err := a.engine.Tags().Configure(ctx, role, tag.ID); err != nil {
		return "", err
	}
	return tag.ID, nil
}

type rolePrefs struct {
	TagID   string `json:"tag_id,omitempty"`
	TagName string `json:"tag_name,omitempty"`
}

type prefsSummary struct {
	Backend string                        `json:"backend"`
	Path    string                        `json:"path"`
	Scheme  string                        `json:"scheme"`
	Links   int                           `json:"links"`
	Roles   map[dependency.Role]rolePrefs `json:"roles"`
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(func(a *app) error {
		links, err := a.engine.Links().All(ctx)
		if err != nil {
			return err
		}
		summary := prefsSummary{
			Backend: a.cfg.Prefs.Backend,
			Path:    a.cfg.Prefs.Path,
			Scheme:  a.cfg.Links.Scheme,
			Links:   len(links),
			Roles:   map[dependency.Role]rolePrefs{},
		}
		for _, role := range dependency.Roles() {
			resolution, err := a.engine.Tags().Lookup(ctx, role)
			if err != nil {
				return err
			}
			id, ok := resolution.TagID()
			if !ok {
				summary.Roles[role] = rolePrefs{}
				continue
			}
			tag, err := a.items.Tag(id)
			if err != nil && !errors.Is(err, item.ErrTagNotFound) {
				return err
			}
			prefs := rolePrefs{TagID: id}
			if tag != nil {
				prefs.TagName = tag.Name
			}
			summary.Roles[role] = prefs
		}

		if prefsShowJSON {
			return encodeJSONToStdout(summary)
		}

		fmt.Printf("backend: %s\n", summary.Backend)
		fmt.Printf("path:    %s\n", summary.Path)
		fmt.Printf("scheme:  %s\n", summary.Scheme)
		fmt.Printf("links:   %d\n", summary.Links)
		for _, role := range dependency.Roles() {
			prefs := summary.Roles[role]
			if prefs.TagID == "" {
				fmt.Printf("%s: (not configured)\n", role)
				continue
			}
			fmt.Printf("%s: %s (%s)\n", role, prefs.TagName, prefs.TagID)
		}
		return nil
	})
}
