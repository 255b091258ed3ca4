package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"airbnb-pipeline/config"
	"airbnb-pipeline/services"
	"airbnb-pipeline/storage"
)

func newSplitCmd(a *app) *cobra.Command {
	var (
		input      string
		outputDir  string
		testSize   float64
		seed       int64
		stratifyBy string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a cleaned sample into trainval and test sets",
		Long: `Split a cleaned sample into trainval and test sets.

Defaults come from the modeling section of the pipeline config
(test_size, random_seed, stratify_by); flags override them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSplitSettings(a.configPath())
			if err != nil {
				return err
			}
			opts := splitOptions(cmd, settings, testSize, seed, stratifyBy)
			if outputDir == "" {
				outputDir = a.cfg.ArtifactDir
			}

			ds, err := a.loader().Load(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("split: %w", err)
			}

			trainval, test, err := services.NewSplitter(a.logger).Split(ds, opts)
			if err != nil {
				return err
			}

			trainPath := filepath.Join(outputDir, trainval.Name+".csv")
			testPath := filepath.Join(outputDir, test.Name+".csv")
			if err := storage.WriteCSVFile(trainPath, trainval); err != nil {
				return err
			}
			if err := storage.WriteCSVFile(testPath, test); err != nil {
				return err
			}
			a.logger.Info("Split written: %s (%d rows), %s (%d rows)", trainPath, trainval.Len(), testPath, test.Len())
			return nil
		},
	}

	defaults := config.DefaultSplitSettings()
	cmd.Flags().StringVar(&input, "input", "", "cleaned sample reference")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "destination directory (default: ARTIFACT_DIR)")
	cmd.Flags().Float64Var(&testSize, "test-size", defaults.TestSize, "test fraction, or row count when >= 1 (default: modeling.test_size)")
	cmd.Flags().Int64Var(&seed, "random-seed", defaults.RandomSeed, "shuffle seed (default: modeling.random_seed)")
	cmd.Flags().StringVar(&stratifyBy, "stratify-by", defaults.StratifyBy, "column to stratify on, or none (default: modeling.stratify_by)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// splitOptions starts from the config file settings and applies the flags the user set.
func splitOptions(cmd *cobra.Command, s config.SplitSettings, testSize float64, seed int64, stratifyBy string) services.SplitOptions {
	opts := services.SplitOptions{TestSize: s.TestSize, Seed: s.RandomSeed, StratifyBy: s.StratifyBy}
	flags := cmd.Flags()
	if flags.Changed("test-size") {
		opts.TestSize = testSize
	}
	if flags.Changed("random-seed") {
		opts.Seed = seed
	}
	if flags.Changed("stratify-by") {
		opts.StratifyBy = stratifyBy
	}
	return opts
}
