package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ganot/livetodo/internal/client"
	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/ganot/livetodo/internal/tui"
	"github.com/spf13/cobra"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var priority string

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.api().Create(cmd.Context(), args[0], todo.Priority(priority))
			if err != nil {
				return fmt.Errorf("add todo: %w", err)
			}
			tui.OK(cmd.OutOrStdout(), fmt.Sprintf("Added %s (%s)", item.Text, item.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", string(todo.PriorityMedium), "Priority: high, medium or low")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		filter string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := todo.ParseFilter(filter)
			if err != nil {
				return err
			}
			items, err := opts.api().List(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("list todos: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			tui.PrintList(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(todo.FilterAll), "Filter: all, active or completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newDoneCmd(opts *rootOptions, completed bool) *cobra.Command {
	use, short, verb := "done [id]", "Mark a todo completed", "Completed"
	if !completed {
		use, short, verb = "undone [id]", "Mark a todo active again", "Reopened"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.api().Update(cmd.Context(), args[0], client.Patch{Completed: &completed})
			if err != nil {
				return describe("update todo", args[0], err)
			}
			tui.OK(cmd.OutOrStdout(), fmt.Sprintf("%s %s", verb, item.Text))
			return nil
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		text     string
		priority string
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change a todo's text or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch client.Patch
			if cmd.Flags().Changed("text") {
				patch.Text = &text
			}
			if cmd.Flags().Changed("priority") {
				p := todo.Priority(priority)
				patch.Priority = &p
			}
			if patch.Text == nil && patch.Priority == nil {
				return errors.New("nothing to change: pass --text or --priority")
			}
			item, err := opts.api().Update(cmd.Context(), args[0], patch)
			if err != nil {
				return describe("edit todo", args[0], err)
			}
			tui.OK(cmd.OutOrStdout(), "Updated "+tui.FormatItem(*item))
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "New text")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority: high, medium or low")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.api().Delete(cmd.Context(), args[0]); err != nil {
				return describe("delete todo", args[0], err)
			}
			tui.OK(cmd.OutOrStdout(), "Deleted "+args[0])
			return nil
		},
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete completed todos, or every todo with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := opts.api()
			if all {
				if err := api.ClearAll(cmd.Context()); err != nil {
					return fmt.Errorf("clear all todos: %w", err)
				}
				tui.OK(cmd.OutOrStdout(), "Cleared all todos")
				return nil
			}
			if err := api.ClearCompleted(cmd.Context()); err != nil {
				return fmt.Errorf("clear completed todos: %w", err)
			}
			tui.OK(cmd.OutOrStdout(), "Cleared completed todos")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete every todo, not just completed ones")
	return cmd
}

func newToggleAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Complete every todo, or reopen them all if all are completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := opts.api().ToggleAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("toggle all todos: %w", err)
			}
			tui.OK(cmd.OutOrStdout(), fmt.Sprintf("Toggled %d todos", len(items)))
			return nil
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completed, active and total counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := opts.api().Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}
			tui.PrintPanel(cmd.OutOrStdout(), []string{tui.FormatStats(stats)})
			return nil
		},
	}
}

func describe(action, id string, err error) error {
	if errors.Is(err, todo.ErrNotFound) {
		return fmt.Errorf("%s: no todo with id %s", action, id)
	}
	return fmt.Errorf("%s: %w", action, err)
}
