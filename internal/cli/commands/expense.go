package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"kitabu/internal/analytics"
	"kitabu/internal/core"
)

func (a *app) addCommand() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.store.Create(cmd.Context(), core.Input{
				Description: args[0],
				Amount:      args[1],
				Category:    category,
			})
			if err != nil {
				return err
			}
			if err := a.saved(); err != nil {
				return err
			}
			a.console.LogSuccess("Added #%d %s (%s, %s)", e.ID, e.Description, e.Category, e.Amount.Format(a.cfg.Currency))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "one of "+categoryNames())
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var description, amount, category string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var p core.Patch
			if cmd.Flags().Changed("description") {
				p.Description = &description
			}
			if cmd.Flags().Changed("amount") {
				p.Amount = &amount
			}
			if cmd.Flags().Changed("category") {
				p.Category = &category
			}
			if p.IsEmpty() {
				return fmt.Errorf("nothing to change: pass --description, --amount or --category")
			}

			e, err := a.store.Update(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			if err := a.saved(); err != nil {
				return err
			}
			a.console.LogSuccess("Updated #%d %s (%s, %s)", e.ID, e.Description, e.Category, e.Amount.Format(a.cfg.Currency))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "new amount")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category")
	return cmd
}

func (a *app) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if err := a.saved(); err != nil {
				return err
			}
			a.console.LogSuccess("Deleted #%d", id)
			return nil
		},
	}
}

func (a *app) lsCommand() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List expenses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := analytics.ParseWindow(window)
			if err != nil {
				return err
			}
			records := analytics.Filter(a.store.List(), kind, a.opts.Clock.Now())
			if len(records) == 0 {
				a.console.LogInfo("No expenses in window %s", kind)
				return nil
			}
			a.console.Println(a.console.ExpenseTable(records))
			return nil
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "all", "all, today, week or month")
	return cmd
}

func (a *app) budgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "budget [value]",
		Short: "Show or set the budget",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				a.console.LogInfo("Budget: %s", a.store.Budget().Format(a.cfg.Currency))
				return nil
			}
			m, err := core.ParseMoney(args[0])
			if err != nil {
				return fmt.Errorf("invalid budget: %w", err)
			}
			if err := a.store.SetBudget(cmd.Context(), m); err != nil {
				return err
			}
			if err := a.saved(); err != nil {
				return err
			}
			a.console.LogSuccess("Budget set to %s", m.Format(a.cfg.Currency))
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}

func categoryNames() string {
	names := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
