package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sikndrR/fitnessApp/internal/domain"
	"github.com/sikndrR/fitnessApp/internal/identity"
)

func newEntryCmd(a *app, category domain.Category) *cobra.Command {
	use := string(category)
	if category == domain.CategoryExercises {
		use = "exercise"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Manage %s entries", category),
	}

	var date string
	cmd.PersistentFlags().StringVar(&date, "date", "today", "Date of the entry (YYYY-MM-DD or today)")

	values := make(map[string]*string, len(category.Fields()))
	add := &cobra.Command{
		Use:   "add NAME",
		Short: fmt.Sprintf("Add or replace a %s entry", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := make(domain.Attributes, len(values))
			for field, v := range values {
				attrs[field] = *v
			}
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				entry, err := l.Upsert(cmd.Context(), s, category, dateArg(l, []string{date}), args[0], attrs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s %q: %s\n", use, entry.Name, formatAttributes(category, entry.Attributes))
				return nil
			})
		},
	}
	for _, field := range category.Fields() {
		values[field] = add.Flags().String(strings.ToLower(field), "", field)
		_ = add.MarkFlagRequired(strings.ToLower(field))
	}

	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: fmt.Sprintf("Remove a %s entry", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				if err := l.Remove(cmd.Context(), s, category, dateArg(l, []string{date}), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s %q\n", use, args[0])
				return nil
			})
		},
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: fmt.Sprintf("List %s entries of a date", use),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				entries, err := l.List(cmd.Context(), s, category, dateArg(l, []string{date}))
				if err != nil {
					return err
				}
				printEntries(cmd, category, entries)
				return nil
			})
		},
	}

	cmd.AddCommand(add, rm, ls)
	return cmd
}

func printEntries(cmd *cobra.Command, category domain.Category, entries []domain.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\t%s\n", strings.Join(category.Fields(), "\t"))
	for _, e := range entries {
		row := make([]string, 0, len(category.Fields()))
		for _, field := range category.Fields() {
			row = append(row, e.Attributes[field])
		}
		fmt.Fprintf(w, "%s\t%s\n", e.Name, strings.Join(row, "\t"))
	}
	w.Flush()
}

func formatAttributes(category domain.Category, attrs domain.Attributes) string {
	parts := make([]string, 0, len(attrs))
	for _, field := range category.Fields() {
		parts = append(parts, field+"="+attrs[field])
	}
	return strings.Join(parts, " ")
}
