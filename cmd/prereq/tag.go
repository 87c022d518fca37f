package main

import (
	"context"
	"fmt"

	"github.com/amonks/prereq/dependency"
	"github.com/amonks/prereq/internal/ui"
	"github.com/amonks/prereq/item"
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
}

// tag create
var tagCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagCreate,
}

// tag list
var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags and the role each one plays",
	Args:  cobra.NoArgs,
	RunE:  runTagList,
}

var tagListJSON bool

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.AddCommand(tagCreateCmd, tagListCmd)

	tagListCmd.Flags().BoolVar(&tagListJSON, "json", false, "Output as JSON")
}

func runTagCreate(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		tag, err := a.items.CreateTag(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created tag %s: %s\n", tag.ID, tag.Name)
		return nil
	})
}

// tagRow is a tag with the role it is configured for, if any.
type tagRow struct {
	item.Tag
	Role dependency.Role `json:"role,omitempty"`
}

func runTagList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(func(a *app) error {
		tags, err := a.items.Tags()
		if err != nil {
			return err
		}
		roles, err := configuredRoles(ctx, a.engine.Tags())
		if err != nil {
			return err
		}

		rows := make([]tagRow, 0, len(tags))
		for _, tag := range tags {
			rows = append(rows, tagRow{Tag: tag, Role: roles[tag.ID]})
		}

		if tagListJSON {
			return encodeJSONToStdout(rows)
		}
		if len(rows) == 0 {
			fmt.Println("No tags found.")
			return nil
		}

		table := ui.NewTable("ID", "NAME", "ROLE")
		for _, row := range rows {
			role := string(row.Role)
			if role == "" {
				role = "-"
			}
			table.AddRow(row.ID, row.Name, role)
		}
		fmt.Print(table.String())
		return nil
	})
}

// configuredRoles maps each configured tag ID to its role without running
// setup for roles that are not configured.
func configuredRoles(ctx context.Context, resolver *dependency.TagResolver) (map[string]dependency.Role, error) {
	roles := map[string]dependency.Role{}
	for _, role := range dependency.Roles() {
		resolution, err := resolver.Lookup(ctx, role)
		if err != nil {
			return nil, err
		}
		if id, ok := resolution.TagID(); ok {
			roles[id] = role
		}
	}
	return roles, nil
}
