package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/amonks/prereq/internal/editor"
	"github.com/amonks/prereq/internal/ui"
	"github.com/amonks/prereq/item"
	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage items",
}

// item create
var itemCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new item",
	Long: `Create a new item.

By default, opens $EDITOR to edit a TOML representation of the item
when running interactively. Use --no-edit to skip the editor, or
--edit to force opening the editor even when not interactive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runItemCreate,
}

var (
	itemCreateNote       string
	itemCreateDue        string
	itemCreateParent     string
	itemCreateSequential bool
	itemCreateEditor     editorFlags
)

// item edit
var itemEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an item",
	Long: `Edit an item.

By default, opens $EDITOR to edit a TOML representation of the item
when running interactively and no update flags are provided.
Use --no-edit to skip the editor, or --edit to force opening the editor even when not interactive.`,
	Args: cobra.ExactArgs(1),
	RunE: runItemEdit,
}

var (
	itemEditName       string
	itemEditNote       string
	itemEditDue        string
	itemEditStatus     string
	itemEditSequential bool
	itemEditEditor     editorFlags
)

// item show
var itemShowCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show detailed information about items",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runItemShow,
}

var itemShowJSON bool

// item list
var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items",
	Args:  cobra.NoArgs,
	RunE:  runItemList,
}

var (
	itemListTag    string
	itemListStatus string
	itemListAll    bool
	itemListJSON   bool
)

// item complete
var itemCompleteCmd = &cobra.Command{
	Use:   "complete <id>...",
	Short: "Mark one or more items as completed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runItemComplete,
}

// item drop
var itemDropCmd = &cobra.Command{
	Use:   "drop <id>...",
	Short: "Drop one or more items",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runItemDrop,
}

// item reopen
var itemReopenCmd = &cobra.Command{
	Use:   "reopen <id>...",
	Short: "Reopen one or more completed or dropped items",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runItemReopen,
}

// item delete
var itemDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete items and everything they contain",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runItemDelete,
}

// item move
var itemMoveCmd = &cobra.Command{
	Use:   "move <id> [parent]",
	Short: "Move an item under a new parent, or to the top level",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runItemMove,
}

func init() {
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemCreateCmd, itemEditCmd, itemShowCmd, itemListCmd,
		itemCompleteCmd, itemDropCmd, itemReopenCmd, itemDeleteCmd, itemMoveCmd)

	// item create flags
	itemCreateCmd.Flags().StringVarP(&itemCreateNote, "note", "n", "", "Note (use '-' to read from stdin)")
	itemCreateCmd.Flags().StringVar(&itemCreateDue, "due", "", "Due date (YYYY-MM-DD, today, tomorrow, +3d)")
	itemCreateCmd.Flags().StringVar(&itemCreateParent, "parent", "", "Parent item ID")
	itemCreateCmd.Flags().BoolVar(&itemCreateSequential, "sequential", false, "Children must be done in order")
	itemCreateEditor.register(itemCreateCmd)

	// item edit flags
	itemEditCmd.Flags().StringVar(&itemEditName, "name", "", "New name")
	itemEditCmd.Flags().StringVarP(&itemEditNote, "note", "n", "", "New note (use '-' to read from stdin)")
	itemEditCmd.Flags().StringVar(&itemEditDue, "due", "", "New due date (none clears it)")
	itemEditCmd.Flags().StringVar(&itemEditStatus, "status", "", "New status (open, completed, dropped)")
	itemEditCmd.Flags().BoolVar(&itemEditSequential, "sequential", false, "Children must be done in order")
	itemEditEditor.register(itemEditCmd)

	addNoteFlagAliases(itemCreateCmd, itemEditCmd)

	// item show flags
	itemShowCmd.Flags().BoolVar(&itemShowJSON, "json", false, "Output as JSON")

	// item list flags
	itemListCmd.Flags().StringVar(&itemListTag, "tag", "", "Filter by tag name or ID")
	itemListCmd.Flags().StringVar(&itemListStatus, "status", "", "Filter by status")
	itemListCmd.Flags().BoolVar(&itemListAll, "all", false, "Include completed and dropped items")
	itemListCmd.Flags().BoolVar(&itemListJSON, "json", false, "Output as JSON")
}

func resolveNoteFromStdin(note string, reader io.Reader) (string, error) {
	if note != "-" {
		return note, nil
	}

	input, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read note from stdin: %w", err)
	}

	value := strings.TrimSuffix(string(input), "\n")
	value = strings.TrimSuffix(value, "\r")
	return value, nil
}

func runItemCreate(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("note") {
		note, err := resolveNoteFromStdin(itemCreateNote, os.Stdin)
		if err != nil {
			return err
		}
		itemCreateNote = note
	}

	now := time.Now()
	due, err := ui.ParseDue(itemCreateDue, now)
	if err != nil {
		return err
	}

	return withApp(func(a *app) error {
		parent := ""
		if itemCreateParent != "" {
			parent, err = a.resolveItemID(itemCreateParent)
			if err != nil {
				return err
			}
		}

		var name string
		var opts item.CreateOptions

		if itemCreateEditor.use(cmd) {
			data := editor.ItemData{Sequential: itemCreateSequential, Note: itemCreateNote}
			if len(args) > 0 {
				data.Name = args[0]
			}
			if due != nil {
				data.Due = due.Format(time.RFC3339)
			}
			parsed, err := editor.EditItem(cmd.Context(), data)
			if err != nil {
				return err
			}
			name = parsed.Name
			opts = parsed.ToCreateOptions(parent)
		} else {
			// Non-editor path: name is required
			if len(args) == 0 {
				return fmt.Errorf("name is required (use --edit to open editor)")
			}
			name = args[0]
			opts = item.CreateOptions{
				Note:       itemCreateNote,
				Due:        due,
				Parent:     parent,
				Sequential: itemCreateSequential,
			}
		}

		created, err := a.items.Create(name, opts)
		if err != nil {
			return err
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		fmt.Printf("Created item %s: %s\n", highlight(created.ID), created.Name)
		return nil
	})
}

func runItemEdit(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("note") {
		note, err := resolveNoteFromStdin(itemEditNote, os.Stdin)
		if err != nil {
			return err
		}
		itemEditNote = note
	}

	return withApp(func(a *app) error {
		id, err := a.resolveItemID(args[0])
		if err != nil {
			return err
		}
		existing, err := a.items.Item(id)
		if err != nil {
			return err
		}

		now := time.Now()
		update := itemUpdate{}
		if cmd.Flags().Changed("name") {
			update.Name = &itemEditName
		}
		if cmd.Flags().Changed("note") {
			update.Note = &itemEditNote
		}
		if cmd.Flags().Changed("due") {
			due, err := ui.ParseDue(itemEditDue, now)
			if err != nil {
				return err
			}
			update.Due = &due
		}
		if cmd.Flags().Changed("status") {
			status, err := item.ParseStatus(itemEditStatus)
			if err != nil {
				return err
			}
			update.Status = &status
		}
		if cmd.Flags().Changed("sequential") {
			update.Sequential = &itemEditSequential
		}

		if itemEditEditor.use(cmd, "name", "note", "due", "status", "sequential") {
			data := editor.DataFromItem(existing)
			update.applyTo(&data)
			parsed, err := editor.EditItem(cmd.Context(), data)
			if err != nil {
				return err
			}
			update = itemUpdate{
				Name:       &parsed.Name,
				Note:       &parsed.Note,
				Due:        &parsed.Due,
				Status:     parsed.Status,
				Sequential: &parsed.Sequential,
			}
		} else if update == (itemUpdate{}) {
			return fmt.Errorf("at least one update flag is required (use --edit to open editor)")
		}

		if err := update.save(a.items, existing); err != nil {
			return err
		}
		updated, err := a.items.Item(id)
		if err != nil {
			return err
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s: %s\n", highlight(updated.ID), updated.Name)
		return nil
	})
}

// itemUpdate holds the fields an edit changes. Nil fields are left alone.
type itemUpdate struct {
	Name       *string
	Note       *string
	Due        **time.Time
	Status     *item.Status
	Sequential *bool
}

func (u itemUpdate) applyTo(data *editor.ItemData) {
	if u.Name != nil {
		data.Name = *u.Name
	}
	if u.Note != nil {
		data.Note = *u.Note
	}
	if u.Due != nil {
		data.Due = ""
		if *u.Due != nil {
			data.Due = (*u.Due).Format(time.RFC3339)
		}
	}
	if u.Status != nil {
		data.Status = string(*u.Status)
	}
	if u.Sequential != nil {
		data.Sequential = *u.Sequential
	}
}

func (u itemUpdate) save(store *item.Store, existing *item.Item) error {
	id := existing.ID
	if u.Name != nil && *u.Name != existing.Name {
		if err := store.Rename(id, *u.Name); err != nil {
			return err
		}
	}
	if u.Note != nil && *u.Note != existing.Note {
		if err := store.SetNote(id, *u.Note); err != nil {
			return err
		}
	}
	if u.Due != nil && !sameTime(*u.Due, existing.Due) {
		if err := store.SetDue(id, *u.Due); err != nil {
			return err
		}
	}
	if u.Sequential != nil && *u.Sequential != existing.Sequential {
		if err := store.SetSequential(id, *u.Sequential); err != nil {
			return err
		}
	}
	if u.Status != nil && *u.Status != existing.Status {
		var err error
		switch *u.Status {
		case item.StatusCompleted:
			_, err = store.Complete([]string{id})
		case item.StatusDropped:
			_, err = store.Drop([]string{id})
		default:
			_, err = store.Reopen([]string{id})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func runItemList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		filter := item.ListFilter{IncludeResolved: itemListAll}
		if itemListStatus != "" {
			status, err := item.ParseStatus(itemListStatus)
			if err != nil {
				return err
			}
			filter.Status = &status
		}
		if itemListTag != "" {
			tag, err := a.items.ResolveTag(itemListTag)
			if err != nil {
				return err
			}
			filter.Tag = tag.ID
		}

		items, err := a.items.List(filter)
		if err != nil {
			return err
		}
		if items == nil {
			items = []item.Item{}
		}

		if itemListJSON {
			return encodeJSONToStdout(items)
		}
		if len(items) == 0 {
			fmt.Println("No items found.")
			return nil
		}

		return printItemTable(a, items)
	})
}

func printItemTable(a *app, items []item.Item) error {
	highlight, err := a.highlighter()
	if err != nil {
		return err
	}
	tagNames, err := a.tagNames()
	if err != nil {
		return err
	}
	fmt.Print(formatItemTable(items, highlight, tagNames, time.Now()))
	return nil
}

func runItemComplete(cmd *cobra.Command, args []string) error {
	return runItemStatusChange(args, "Completed", (*item.Store).Complete)
}

func runItemDrop(cmd *cobra.Command, args []string) error {
	return runItemStatusChange(args, "Dropped", (*item.Store).Drop)
}

func runItemReopen(cmd *cobra.Command, args []string) error {
	return runItemStatusChange(args, "Reopened", (*item.Store).Reopen)
}

func runItemStatusChange(args []string, verb string, change func(*item.Store, []string) ([]item.Item, error)) error {
	return withApp(func(a *app) error {
		ids, err := a.resolveItemIDs(args)
		if err != nil {
			return err
		}
		changed, err := change(a.items, ids)
		if err != nil {
			return err
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		for _, it := range changed {
			fmt.Printf("%s %s: %s\n", verb, highlight(it.ID), it.Name)
		}
		return nil
	})
}

func runItemDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		ids, err := a.resolveItemIDs(args)
		if err != nil {
			return err
		}
		for _, id := range ids {
			name := a.itemName(id)
			deleted, err := a.items.Delete(id)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %s: %s", id, name)
			if extra := len(deleted) - 1; extra > 0 {
				fmt.Printf(" (and %d contained items)", extra)
			}
			fmt.Println()
		}
		return nil
	})
}

func runItemMove(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		id, err := a.resolveItemID(args[0])
		if err != nil {
			return err
		}
		parent := ""
		if len(args) > 1 {
			parent, err = a.resolveItemID(args[1])
			if err != nil {
				return err
			}
		}
		if err := a.items.Move(id, parent); err != nil {
			return err
		}

		highlight, err := a.highlighter()
		if err != nil {
			return err
		}
		if parent == "" {
			fmt.Printf("Moved %s to the top level\n", highlight(id))
			return nil
		}
		fmt.Printf("Moved %s under %s\n", highlight(id), highlight(parent))
		return nil
	})
}
