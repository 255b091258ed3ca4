package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"airbnb-pipeline/models"
	"airbnb-pipeline/services"
	"airbnb-pipeline/storage"
)

func newCleanCmd(a *app) *cobra.Command {
	var (
		input      string
		output     string
		toPostgres bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Apply basic cleaning to a raw sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			th, err := a.thresholds()
			if err != nil {
				return err
			}
			if err := overrideThresholds(cmd, &th); err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join(a.cfg.ArtifactDir, "clean_sample.csv")
			}

			raw, err := a.loader().Load(ctx, input)
			if err != nil {
				return fmt.Errorf("clean: %w", err)
			}

			clean, stats, err := services.NewCleaner(a.logger, th).Clean(raw, filepath.Base(output))
			if err != nil {
				return err
			}

			csvWriter, err := storage.NewCSVWriter(output)
			if err != nil {
				return err
			}
			writers := []storage.DatasetWriter{csvWriter}
			if toPostgres {
				store, err := a.openPostgres(ctx)
				if err != nil {
					csvWriter.Close()
					return err
				}
				writers = append(writers, store)
			}

			if err := writeAll(writers, clean); err != nil {
				return err
			}
			a.logger.Info("Clean listings saved to %s (%d dropped)", output, stats.Dropped())
			if toPostgres {
				a.logger.Info("Clean listings stored in PostgreSQL (table: listings)")
			}

			if !quiet {
				profiles := services.NewProfileService(a.logger)
				profiles.Print(cmd.OutOrStdout(), "CLEAN SAMPLE PROFILE", profiles.Generate(clean))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "raw sample reference (path, URL or s3:// URI)")
	cmd.Flags().StringVar(&output, "output", "", "cleaned CSV path (default: ARTIFACT_DIR/clean_sample.csv)")
	cmd.Flags().Float64("min-price", 0, "override the minimum price")
	cmd.Flags().Float64("max-price", 0, "override the maximum price")
	cmd.Flags().BoolVar(&toPostgres, "to-postgres", false, "also replace the PostgreSQL listings table")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "skip the dataset profile")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// writeAll sends ds to every sink, stopping at the first write error, and
// always closes all of them.
func writeAll(writers []storage.DatasetWriter, ds *models.Dataset) error {
	var err error
	for _, w := range writers {
		if err = w.Write(ds); err != nil {
			break
		}
	}
	for _, w := range writers {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}
