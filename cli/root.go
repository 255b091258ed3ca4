// Package cli wires the pipeline stages into cobra subcommands. Each stage
// runs on its own; sequencing them is left to the caller.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"airbnb-pipeline/config"
	"airbnb-pipeline/storage"
	"airbnb-pipeline/utils"
)

// ErrCheckFailed is returned by the check command when the verdict is a failure.
var ErrCheckFailed = errors.New("data check failed")

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *utils.Logger

	logLevel       string
	thresholdsFile string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "airbnb-pipeline",
		Short: "Download, clean, check and split NYC Airbnb listing samples",
		Long: `airbnb-pipeline runs the stages of the NYC Airbnb data pipeline.

Datasets are referenced by local path, http(s) URL, s3://bucket/key URI
or pg:listings for the PostgreSQL listings table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			level := a.cfg.LogLevel
			if cmd.Flags().Changed("log-level") {
				level = a.logLevel
			}
			a.logger = utils.NewLoggerTo(cmd.OutOrStdout(), cmd.ErrOrStderr(), utils.ParseLevel(level))
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.thresholdsFile, "thresholds", "", "YAML pipeline config with thresholds and split settings (overrides THRESHOLDS_FILE)")

	root.AddCommand(
		newDownloadCmd(a),
		newCleanCmd(a),
		newCheckCmd(a),
		newSplitCmd(a),
	)
	return root
}

// Execute runs the root command, cancelling on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// configPath is the YAML pipeline config: --thresholds, else THRESHOLDS_FILE.
func (a *app) configPath() string {
	if a.thresholdsFile != "" {
		return a.thresholdsFile
	}
	return a.cfg.ThresholdsFile
}

func (a *app) thresholds() (config.Thresholds, error) {
	return config.LoadThresholds(a.configPath())
}

func (a *app) retry() *utils.RetryConfig {
	return &utils.RetryConfig{
		MaxAttempts: a.cfg.MaxRetries,
		BaseDelay:   time.Duration(a.cfg.RetryBaseMs) * time.Millisecond,
		Logger:      a.logger,
	}
}

func (a *app) loader() *storage.Loader {
	retry := a.retry()
	return storage.NewLoader(a.logger,
		&storage.LocalSource{BaseDir: a.cfg.ArtifactDir},
		storage.NewHTTPSource(time.Duration(a.cfg.HTTPTimeoutSec)*time.Second, retry),
		storage.NewS3Source(storage.S3Config{
			Region:       a.cfg.AWSRegion,
			Endpoint:     a.cfg.S3Endpoint,
			UsePathStyle: a.cfg.S3UsePathStyle,
		}, retry),
	)
}

func (a *app) openPostgres(ctx context.Context) (*storage.PostgresStore, error) {
	store, err := storage.NewPostgresStore(ctx, a.cfg.DSN(), a.retry())
	if err != nil {
		a.logger.Error("Failed to connect to PostgreSQL: %v", err)
		a.logger.Error("Make sure Docker is running: docker compose up -d")
		return nil, err
	}
	return store, nil
}

// overrideThresholds applies the price and row flags the user actually set.
func overrideThresholds(cmd *cobra.Command, th *config.Thresholds) error {
	flags := cmd.Flags()
	floatFlags := map[string]*float64{
		"min-price":    &th.MinPrice,
		"max-price":    &th.MaxPrice,
		"kl-threshold": &th.KLThreshold,
	}
	for name, dst := range floatFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetFloat64(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	intFlags := map[string]*int{
		"min-rows": &th.MinRows,
		"max-rows": &th.MaxRows,
	}
	for name, dst := range intFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return th.Validate()
}
