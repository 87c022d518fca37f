package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/prereq/dependency"
	"github.com/amonks/prereq/internal/ui"
	"github.com/amonks/prereq/item"
	"github.com/spf13/cobra"
)

// mark
var markCmd = &cobra.Command{
	Use:   "mark <id>",
	Short: "Mark an item as the prerequisite for the next link",
	Args:  cobra.ExactArgs(1),
	RunE:  runMark,
}

// link
var linkCmd = &cobra.Command{
	Use:   "link [id]",
	Short: "Link the marked item as a prerequisite of the selected item or project",
	Long: `Link the marked item as a prerequisite of the selected item or project.

Select exactly one item (by ID) or one project (with --project). The item
marked with "prereq mark" becomes its prerequisite. Both items are tagged,
their notes cross-reference each other, and a project is put on hold.`,
	Args: cobra.ArbitraryArgs,
	RunE: runLink,
}

var (
	linkProjects []string
	linkCheck    bool
)

// unlink
var unlinkCmd = &cobra.Command{
	Use:   "unlink <prerequisite> <dependant>",
	Short: "Remove a link and restore both items",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnlink,
}

// links
var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "List all links",
	Args:  cobra.NoArgs,
	RunE:  runLinks,
}

var linksJSON bool

// dependants
var dependantsCmd = &cobra.Command{
	Use:   "dependants <id>",
	Short: "List the items waiting on an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependants,
}

// prerequisites
var prerequisitesCmd = &cobra.Command{
	Use:   "prerequisites <id>",
	Short: "List the items an item is waiting on",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrerequisites,
}

var neighboursJSON bool

const linkNameWidth = 40

func init() {
	rootCmd.AddCommand(markCmd, linkCmd, unlinkCmd, linksCmd, dependantsCmd, prerequisitesCmd)

	linkCmd.Flags().StringArrayVarP(&linkProjects, "project", "p", nil, "Select a project by ID (links its root item)")
	linkCmd.Flags().BoolVar(&linkCheck, "check", false, "Only check whether the link can be created")

	linksCmd.Flags().BoolVar(&linksJSON, "json", false, "Output as JSON")
	dependantsCmd.Flags().BoolVar(&neighboursJSON, "json", false, "Output as JSON")
	prerequisitesCmd.Flags().BoolVar(&neighboursJSON, "json", false, "Output as JSON")
}

func runMark(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		id, err := a.resolveItemID(args[0])
		if err != nil {
			return err
		}
		if err := a.engine.MarkPending(cmd.Context(), id); err != nil {
			return err
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		fmt.Printf("Marked %s as pending prerequisite: %s\n", highlight(id), a.itemName(id))
		return nil
	})
}

func runLink(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(func(a *app) error {
		selection, err := a.selection(args, linkProjects)
		if err != nil {
			return err
		}

		if linkCheck {
			if err := a.engine.CanCreateLink(ctx, selection); err != nil {
				return err
			}
			fmt.Println("Ready to link.")
			return nil
		}

		link, err := a.engine.CreateLinkFromSelection(ctx, selection)
		if err != nil {
			return err
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		fmt.Printf("Linked %s: %s\n", highlight(link.PrerequisiteID), a.itemName(link.PrerequisiteID))
		fmt.Printf("  before %s: %s\n", highlight(link.DependantID), a.itemName(link.DependantID))
		return nil
	})
}

// selection builds a selection from item and project ID prefixes.
func (a *app) selection(itemPrefixes, projectPrefixes []string) (dependency.Selection, error) {
	items, err := a.resolveItemIDs(itemPrefixes)
	if err != nil {
		return dependency.Selection{}, err
	}
	projects := make([]string, 0, len(projectPrefixes))
	for _, prefix := range projectPrefixes {
		id, err := a.items.ResolveProjectID(prefix)
		if err != nil {
			return dependency.Selection{}, err
		}
		projects = append(projects, id)
	}
	return dependency.Selection{Items: items, Projects: projects}, nil
}

func runUnlink(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		// Endpoints may already be deleted, so unknown IDs are used as given.
		prerequisite := resolveOrKeep(a, args[0])
		dependant := resolveOrKeep(a, args[1])
		if err := a.engine.RemoveLink(cmd.Context(), prerequisite, dependant); err != nil {
			return err
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		fmt.Printf("Unlinked %s -> %s\n", highlight(prerequisite), highlight(dependant))
		return nil
	})
}

func resolveOrKeep(a *app, prefix string) string {
	id, err := a.resolveItemID(prefix)
	if err != nil {
		return prefix
	}
	return id
}

type linkRow struct {
	Prerequisite     string `json:"prerequisite"`
	PrerequisiteName string `json:"prerequisite_name"`
	Dependant        string `json:"dependant"`
	DependantName    string `json:"dependant_name"`
}

func runLinks(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		links, err := a.engine.Links().All(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([]linkRow, 0, len(links))
		for _, link := range links {
			rows = append(rows, linkRow{
				Prerequisite:     link.PrerequisiteID,
				PrerequisiteName: a.itemName(link.PrerequisiteID),
				Dependant:        link.DependantID,
				DependantName:    a.itemName(link.DependantID),
			})
		}

		if linksJSON {
			return encodeJSONToStdout(rows)
		}
		if len(rows) == 0 {
			fmt.Println("No links found.")
			return nil
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		fmt.Print(formatLinkTable(rows, highlight))
		return nil
	})
}

func formatLinkTable(rows []linkRow, highlight func(string) string) string {
	table := ui.NewTable("PREREQUISITE", "NAME", "DEPENDANT", "NAME").
		Limit(1, linkNameWidth).
		Limit(3, linkNameWidth)
	for _, row := range rows {
		table.AddRow(highlight(row.Prerequisite), row.PrerequisiteName, highlight(row.Dependant), row.DependantName)
	}
	return table.String()
}

func runDependants(cmd *cobra.Command, args []string) error {
	return runNeighbours(cmd, args[0], (*dependency.Engine).Dependants)
}

func runPrerequisites(cmd *cobra.Command, args []string) error {
	return runNeighbours(cmd, args[0], (*dependency.Engine).Prerequisites)
}

func runNeighbours(cmd *cobra.Command, prefix string, query func(*dependency.Engine, context.Context, string) ([]string, error)) error {
	return withApp(func(a *app) error {
		id := resolveOrKeep(a, prefix)
		neighbours, err := query(a.engine, cmd.Context(), id)
		if err != nil {
			return err
		}

		items := make([]item.Item, 0, len(neighbours))
		for _, neighbour := range neighbours {
			it, err := a.items.Item(neighbour)
			if errors.Is(err, item.ErrItemNotFound) {
				items = append(items, item.Item{ID: neighbour, Name: "(deleted)"})
				continue
			}
			if err != nil {
				return err
			}
			items = append(items, *it)
		}

		if neighboursJSON {
			return encodeJSONToStdout(items)
		}
		if len(items) == 0 {
			fmt.Println("No items found.")
			return nil
		}
		return printItemTable(a, items)
	})
}
