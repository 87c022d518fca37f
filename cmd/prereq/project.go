package main

import (
	"fmt"
	"time"

	"github.com/amonks/prereq/internal/ui"
	"github.com/amonks/prereq/item"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

// project create
var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project and its root item",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var (
	projectCreateNote       string
	projectCreateDue        string
	projectCreateSequential bool
)

// project list
var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var (
	projectListStatus string
	projectListJSON   bool
)

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectCreateCmd, projectListCmd)

	projectCreateCmd.Flags().StringVarP(&projectCreateNote, "note", "n", "", "Note for the root item")
	projectCreateCmd.Flags().StringVar(&projectCreateDue, "due", "", "Due date (YYYY-MM-DD, today, tomorrow, +3d)")
	projectCreateCmd.Flags().BoolVar(&projectCreateSequential, "sequential", false, "Items must be done in order")
	addNoteFlagAliases(projectCreateCmd)

	projectListCmd.Flags().StringVar(&projectListStatus, "status", "", "Filter by status (active, on_hold, done, dropped)")
	projectListCmd.Flags().BoolVar(&projectListJSON, "json", false, "Output as JSON")
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	due, err := ui.ParseDue(projectCreateDue, time.Now())
	if err != nil {
		return err
	}

	return withApp(func(a *app) error {
		project, root, err := a.items.CreateProject(args[0], item.ProjectOptions{
			Note:       projectCreateNote,
			Due:        due,
			Sequential: projectCreateSequential,
		})
		if err != nil {
			return err
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s (root %s): %s\n", project.ID, highlight(root.ID), project.Name)
		return nil
	})
}

func runProjectList(cmd *cobra.Command, args []string) error {
	var status *item.ProjectStatus
	if projectListStatus != "" {
		parsed, err := item.ParseProjectStatus(projectListStatus)
		if err != nil {
			return err
		}
		status = &parsed
	}

	return withApp(func(a *app) error {
		projects, err := a.items.Projects()
		if err != nil {
			return err
		}
		filtered := make([]item.Project, 0, len(projects))
		for _, project := range projects {
			if status != nil && project.Status != *status {
				continue
			}
			filtered = append(filtered, project)
		}

		if projectListJSON {
			return encodeJSONToStdout(filtered)
		}
		if len(filtered) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		fmt.Print(formatProjectTable(filtered, highlight))
		return nil
	})
}

func formatProjectTable(projects []item.Project, highlight func(string) string) string {
	table := ui.NewTable("ID", "ROOT", "NAME", "STATUS")
	for _, project := range projects {
		table.AddRow(project.ID, highlight(project.Root), project.Name, string(project.Status))
	}
	return table.String()
}
