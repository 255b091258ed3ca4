package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"airbnb-pipeline/metrics"
	"airbnb-pipeline/models"
	"airbnb-pipeline/services"
	"airbnb-pipeline/storage"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		currentRef   string
		referenceRef string
		format       string
		savePostgres bool
		metricsFile  string
		parallel     int
		failOnError  bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a cleaned sample against a reference sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if format != "text" && format != "json" {
				return fmt.Errorf("check: unknown format %q (want text or json)", format)
			}
			th, err := a.thresholds()
			if err != nil {
				return err
			}
			if err := overrideThresholds(cmd, &th); err != nil {
				return err
			}

			loader := a.loader()
			needsDB := savePostgres ||
				strings.HasPrefix(currentRef, storage.TablePrefix) ||
				strings.HasPrefix(referenceRef, storage.TablePrefix)

			var store *storage.PostgresStore
			if needsDB {
				store, err = a.openPostgres(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				loader.Tables = store
			}

			current, reference, err := loader.LoadPair(ctx, currentRef, referenceRef, a.cfg.MaxConcurrency)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}

			v := services.NewValidator(a.logger)
			v.Parallel = parallel
			report, err := v.Validate(current, reference, th)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				if err := services.WriteReportJSON(out, report); err != nil {
					return err
				}
			} else {
				services.PrintReport(out, report)
			}

			if savePostgres {
				if err := saveReport(ctx, store, report); err != nil {
					return err
				}
				a.logger.Info("Report %s stored in PostgreSQL", report.RunID)
			}

			if metricsFile == "" {
				metricsFile = a.cfg.MetricsFile
			}
			if metricsFile != "" {
				if err := metrics.WriteReport(metricsFile, report); err != nil {
					return err
				}
				a.logger.Info("Metrics written to %s", metricsFile)
			}

			if !report.Passed && failOnError {
				return fmt.Errorf("%w: %d of %d checks failed", ErrCheckFailed, len(report.Failed()), len(report.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&currentRef, "csv", "", "current dataset reference")
	cmd.Flags().StringVar(&referenceRef, "ref", "", "reference dataset reference")
	cmd.Flags().Float64("kl-threshold", 0, "override the KL divergence threshold")
	cmd.Flags().Float64("min-price", 0, "override the minimum price")
	cmd.Flags().Float64("max-price", 0, "override the maximum price")
	cmd.Flags().Int("min-rows", 0, "override the minimum row count")
	cmd.Flags().Int("max-rows", 0, "override the maximum row count")
	cmd.Flags().StringVar(&format, "format", "text", "report format (text or json)")
	cmd.Flags().BoolVar(&savePostgres, "save-postgres", false, "store the report in PostgreSQL")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Prometheus textfile path (default: METRICS_FILE)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "evaluate checks on this many workers")
	cmd.Flags().BoolVar(&failOnError, "fail", true, "exit non-zero when any check fails")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("ref")
	return cmd
}

func saveReport(ctx context.Context, w storage.ReportWriter, report *models.ValidationReport) error {
	if err := w.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("check: save report %s: %w", report.RunID, err)
	}
	return nil
}
