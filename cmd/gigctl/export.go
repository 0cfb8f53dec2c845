package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gigtrack/internal/core"
	"gigtrack/internal/export"
	"gigtrack/internal/report"
	"gigtrack/internal/services"
	ports "gigtrack/internal/sheets"
	sheetsmem "gigtrack/internal/sheets/memory"
)

func exportCmd(a *app) *cobra.Command {
	var (
		user, from, to string
		format, period string
		all, dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports to a workbook or Google Sheets",
		Long: `Export the full report set for one user, or for every user with --all.

Without --from/--to the last complete --period is exported.

Examples:
  gigctl export --user demo-driver --from 2024-03-01 --to 2024-03-31
  gigctl export --all --period weekly --format sheets
  gigctl export --user demo-driver --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && user == "" {
				return fmt.Errorf("either --user or --all is required")
			}
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}
			if start.IsEmpty() != end.IsEmpty() {
				return fmt.Errorf("--from and --to must be given together")
			}
			if start.IsEmpty() {
				strategy, err := services.GetPeriodStrategy(period)
				if err != nil {
					return err
				}
				start, end = strategy.Previous(time.Now())
			}
			if format == "" {
				format = a.cfg.ExportFormat
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			b, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer a.close(b)

			var (
				opts []services.ExportOption
				mem  *sheetsmem.Writer
			)
			if dryRun {
				mem = sheetsmem.New()
				opts = append(opts, services.WithWriter(format, mem))
			} else {
				if opts, err = export.Writers(ctx, a.cfg, a.logger); err != nil {
					return err
				}
			}

			svc := services.NewExportService(report.NewService(b.Backend, a.logger), b.Backend, format, a.logger, opts...)
			out := cmd.OutOrStdout()

			if all {
				n, err := svc.ExportAll(ctx, start, end)
				fmt.Fprintf(out, "exported %d user(s) for %s..%s\n", n, start, end)
				if mem != nil {
					printDryRun(cmd, mem.Exports())
				}
				return err
			}

			ref, err := svc.Export(ctx, user, start, end, format)
			if err != nil {
				return err
			}
			if mem != nil {
				printDryRun(cmd, mem.Exports())
				return nil
			}
			fmt.Fprintln(out, ref)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user id to export")
	cmd.Flags().BoolVar(&all, "all", false, "export every user")
	cmd.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD")
	cmd.Flags().StringVar(&period, "period", "monthly", "period used when no dates are given (daily, weekly, monthly, yearly)")
	cmd.Flags().StringVar(&format, "format", "", "xlsx or sheets, defaults to EXPORT_FORMAT")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the export without writing it and print its layout")
	cmd.MarkFlagsMutuallyExclusive("user", "all")
	return cmd
}

func printDryRun(cmd *cobra.Command, exports []core.ReportExport) {
	out := cmd.OutOrStdout()
	for _, r := range exports {
		fmt.Fprintf(out, "%s\n", ports.Title(r))
		for _, t := range ports.Tables(r) {
			fmt.Fprintf(out, "  %-12s %d row(s)\n", t.Name, len(t.Rows))
		}
	}
}
