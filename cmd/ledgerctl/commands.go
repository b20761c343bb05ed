package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sikndrR/fitnessApp/internal/auth"
	"github.com/sikndrR/fitnessApp/internal/domain"
	"github.com/sikndrR/fitnessApp/internal/identity"
)

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an empty ledger for the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				created, err := l.Register(cmd.Context(), s)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", s.Key)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s already has a ledger\n", s.Key)
				}
				return nil
			})
		},
	}
}

func newEnsureDateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-date [DATE]",
		Short: "Create the record for a date if it does not exist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				date := dateArg(l, args)
				created, err := l.EnsureDate(cmd.Context(), s, date)
				if err != nil {
					return err
				}
				state := "exists"
				if created {
					state = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", date, state)
				return nil
			})
		},
	}
}

func newGoalsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Show or set daily nutrition goals",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the current goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				goals, err := l.Goals(cmd.Context(), s)
				if err != nil {
					return err
				}
				if goals == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "no goals set")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "calories=%g protein=%g carbs=%g fats=%g\n",
					goals.Calories, goals.Protein, goals.Carbs, goals.Fats)
				return nil
			})
		},
	}

	var calories, protein, carbs, fats string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			goals, err := domain.ParseGoals(calories, protein, carbs, fats)
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				if err := l.SetGoals(cmd.Context(), s, goals); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "goals updated")
				return nil
			})
		},
	}
	set.Flags().StringVar(&calories, "calories", "", "Daily calories")
	set.Flags().StringVar(&protein, "protein", "", "Daily protein in grams")
	set.Flags().StringVar(&carbs, "carbs", "", "Daily carbohydrates in grams")
	set.Flags().StringVar(&fats, "fats", "", "Daily fats in grams")

	cmd.AddCommand(get, set)
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [DATE]",
		Short: "Show a day's entries and progress towards the goals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				summary, err := l.DaySummary(cmd.Context(), s, dateArg(l, args))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "date: %s\n\nfood\n", summary.Date)
				printEntries(cmd, domain.CategoryFood, summary.Food)
				fmt.Fprintln(out, "\nexercises")
				printEntries(cmd, domain.CategoryExercises, summary.Exercises)

				fmt.Fprintln(out, "\nprogress")
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ATTRIBUTE\tCURRENT\tGOAL\tPERCENT")
				for _, p := range summary.Progress {
					goal := "-"
					if p.Goal != nil {
						goal = fmt.Sprintf("%g", *p.Goal)
					}
					fmt.Fprintf(w, "%s\t%g\t%s\t%.0f%%\n", p.Attribute, p.DisplayCurrent, goal, p.Ratio*100)
				}
				return w.Flush()
			})
		},
	}
}

func newDatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the dates that have a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				dates, err := l.Dates(cmd.Context(), s)
				if err != nil {
					return err
				}
				for _, d := range dates {
					fmt.Fprintln(cmd.OutOrStdout(), d)
				}
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the user's whole ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (want json or yaml)", format)
			}
			return a.withLedger(cmd.Context(), func(l *domain.Ledger, s identity.Session) error {
				tree, err := l.Export(cmd.Context(), s)
				if err != nil {
					return err
				}
				doc := map[string]any{s.Key: tree}
				if format == "yaml" {
					enc := yaml.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent(2)
					if err := enc.Encode(doc); err != nil {
						return err
					}
					return enc.Close()
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize EMAIL...",
		Short: "Print the ledger key each email maps to",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, email := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", email, identity.Normalize(email))
			}
		},
	}
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		scopes string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.email == "" {
				return errNoEmail
			}
			token, err := auth.Issue(auth.Claims{
				Subject: a.email,
				Email:   a.email,
				Name:    a.name,
				Scopes:  auth.NewScopes(strings.Split(scopes, ",")...),
			}, a.cfg.Auth(), ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&scopes, "scopes", auth.ScopeLedgerRead+","+auth.ScopeLedgerWrite, "Comma separated scopes")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
