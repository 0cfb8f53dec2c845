package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gigtrack/internal/core"
	"gigtrack/internal/report"
)

type reportFlags struct {
	user     string
	from     string
	to       string
	platform string
	category string
	vehicle  string
	json     bool
}

func reportCmd(a *app) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print aggregated reports for one user",
	}
	cmd.PersistentFlags().StringVar(&f.user, "user", "", "user id (required)")
	cmd.PersistentFlags().StringVar(&f.from, "from", "", "start date YYYY-MM-DD")
	cmd.PersistentFlags().StringVar(&f.to, "to", "", "end date YYYY-MM-DD")
	cmd.PersistentFlags().StringVar(&f.platform, "platform", "", "platform id filter (summary only)")
	cmd.PersistentFlags().StringVar(&f.category, "category", "", "expense category filter (summary only)")
	cmd.PersistentFlags().StringVar(&f.vehicle, "vehicle", "", "vehicle id filter")
	cmd.PersistentFlags().BoolVar(&f.json, "json", false, "print JSON instead of a table")
	_ = cmd.MarkPersistentFlagRequired("user")

	run := func(fn func(ctx context.Context, svc *report.Service, out io.Writer, from, to core.Date) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			from, to, err := parseRange(f.from, f.to)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			b, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer a.close(b)

			if _, err := b.Backend.GetUser(ctx, f.user); err != nil {
				return err
			}
			return fn(ctx, report.NewService(b.Backend, a.logger), cmd.OutOrStdout(), from, to)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "summary",
			Short: "Income, expenses and profit",
			RunE: run(func(ctx context.Context, svc *report.Service, out io.Writer, from, to core.Date) error {
				filters := report.FinancialFilters{StartDate: from, EndDate: to}
				if f.platform != "" {
					filters.PlatformID = &f.platform
				}
				if f.category != "" {
					c := core.ExpenseCategory(f.category)
					if !c.IsValid() {
						return core.NewValidationError("category", "unknown expense category %q", f.category)
					}
					filters.Category = &c
				}
				s, err := svc.FinancialSummary(ctx, f.user, filters)
				if err != nil {
					return err
				}
				return f.print(out, s, func(w *tabwriter.Writer) {
					fmt.Fprintln(w, "METRIC\tVALUE")
					fmt.Fprintf(w, "Total income\t%s\n", s.TotalIncome.StringFixed(2))
					fmt.Fprintf(w, "Total expenses\t%s\n", s.TotalExpense.StringFixed(2))
					fmt.Fprintf(w, "Profit\t%s\n", s.Profit.StringFixed(2))
					fmt.Fprintf(w, "Income entries\t%d\n", s.IncomeCount)
					fmt.Fprintf(w, "Expense entries\t%d\n", s.ExpenseCount)
				})
			}),
		},
		&cobra.Command{
			Use:   "monthly",
			Short: "Income and expenses per month",
			RunE: run(func(ctx context.Context, svc *report.Service, out io.Writer, from, to core.Date) error {
				points, err := svc.MonthlyData(ctx, f.user, from, to)
				if err != nil {
					return err
				}
				return f.print(out, points, func(w *tabwriter.Writer) {
					fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSES\tPROFIT")
					for _, p := range points {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Month, p.Income.StringFixed(2), p.Expenses.StringFixed(2), p.Profit.StringFixed(2))
					}
				})
			}),
		},
		&cobra.Command{
			Use:   "platforms",
			Short: "Income share per platform",
			RunE: run(func(ctx context.Context, svc *report.Service, out io.Writer, from, to core.Date) error {
				rows, err := svc.IncomeByPlatform(ctx, f.user, from, to)
				if err != nil {
					return err
				}
				return f.print(out, rows, func(w *tabwriter.Writer) {
					fmt.Fprintln(w, "PLATFORM\tTOTAL\tSHARE %")
					for _, p := range rows {
						fmt.Fprintf(w, "%s\t%s\t%.2f\n", p.PlatformName, p.Total.StringFixed(2), p.Percentage)
					}
				})
			}),
		},
		&cobra.Command{
			Use:   "categories",
			Short: "Expense share per category",
			RunE: run(func(ctx context.Context, svc *report.Service, out io.Writer, from, to core.Date) error {
				rows, err := svc.ExpensesByCategory(ctx, f.user, from, to)
				if err != nil {
					return err
				}
				return f.print(out, rows, func(w *tabwriter.Writer) {
					fmt.Fprintln(w, "CATEGORY\tTOTAL\tSHARE %")
					for _, c := range rows {
						fmt.Fprintf(w, "%s\t%s\t%.2f\n", c.Category, c.Total.StringFixed(2), c.Percentage)
					}
				})
			}),
		},
		&cobra.Command{
			Use:   "vehicles",
			Short: "Vehicle usage summary and maintenance breakdown",
			RunE: run(func(ctx context.Context, svc *report.Service, out io.Writer, from, to core.Date) error {
				filters := report.VehicleFilters{StartDate: from, EndDate: to}
				if f.vehicle != "" {
					filters.VehicleID = &f.vehicle
				}
				s, err := svc.VehicleSummary(ctx, f.user, filters)
				if err != nil {
					return err
				}
				maint, err := svc.MaintenanceByType(ctx, f.user, filters)
				if err != nil {
					return err
				}
				payload := struct {
					Summary     core.VehicleSummary
					Maintenance []core.MaintenanceBreakdown
				}{s, maint}
				return f.print(out, payload, func(w *tabwriter.Writer) {
					fmt.Fprintln(w, "METRIC\tVALUE")
					fmt.Fprintf(w, "Distance (km)\t%s\n", s.TotalDistance.StringFixed(1))
					fmt.Fprintf(w, "Fuel (L)\t%s\n", s.TotalFuel.StringFixed(2))
					fmt.Fprintf(w, "Energy (kWh)\t%s\n", s.TotalEnergy.StringFixed(2))
					fmt.Fprintf(w, "Fuel economy (L/100km)\t%s\n", s.AvgFuelEconomy.StringFixed(2))
					fmt.Fprintf(w, "Energy use (kWh/100km)\t%s\n", s.AvgEnergyConsumption.StringFixed(2))
					fmt.Fprintf(w, "Maintenance cost\t%s\n", s.TotalMaintenanceCost.StringFixed(2))
					fmt.Fprintf(w, "Cost per km\t%s\n", s.CostPerKm.StringFixed(4))
					fmt.Fprintln(w)
					fmt.Fprintln(w, "MAINTENANCE\tCOUNT\tTOTAL\tSHARE %")
					for _, m := range maint {
						fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\n", m.Type, m.Count, m.Total.StringFixed(2), m.Percentage)
					}
				})
			}),
		},
	)
	return cmd
}

func (f *reportFlags) print(out io.Writer, v any, table func(w *tabwriter.Writer)) error {
	if f.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	table(w)
	return w.Flush()
}
