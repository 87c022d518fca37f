package main

import (
	"fmt"
	"time"

	"github.com/amonks/prereq/dependency"
	"github.com/spf13/cobra"
)

var propagateCmd = &cobra.Command{
	Use:   "propagate",
	Short: "Pull prerequisite due dates forward to their dependants' dates",
	Long: `Pull prerequisite due dates forward.

Every open prerequisite gets the earliest due date among its dependants,
unless it is already due sooner. In a sequential group, the items before
the prerequisite are pulled forward too. Dates are never pushed later.

Runs over the whole store, so it takes no selection.`,
	RunE: runPropagate,
}

func init() {
	rootCmd.AddCommand(propagateCmd)
}

func runPropagate(cmd *cobra.Command, args []string) error {
	if err := dependency.CanPropagate(dependency.Selection{Items: args}); err != nil {
		return err
	}

	return withApp(func(a *app) error {
		result, err := a.engine.Propagate(cmd.Context())
		if err != nil {
			return err
		}
		if len(result.Changes) == 0 {
			fmt.Println("No due dates changed.")
			return nil
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		for _, change := range result.Changes {
			fmt.Printf("Due %s: %s -> %s (%s)\n",
				highlight(change.ItemID),
				formatDay(change.Previous),
				formatDay(&change.Due),
				a.itemName(change.ItemID))
		}
		return nil
	})
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Local().Format(time.DateOnly)
}
