package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/i94dw/internal/pipeline"
	"github.com/ajitpratap0/i94dw/pkg/config"
	"github.com/ajitpratap0/i94dw/pkg/logger"
	"github.com/ajitpratap0/i94dw/pkg/metrics"
	"github.com/ajitpratap0/i94dw/pkg/observability"
)

var version = "0.1.0"

type globalFlags struct {
	configPath string
	dotEnv     string
	logLevel   string
}

// env bundles what every run command needs.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	metrics  *metrics.Recorder
	shutdown observability.ShutdownFunc
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "i94dw",
		Short: "I-94 immigration data warehouse ETL",
		Long: `i94dw turns the I-94 arrival records and their reference datasets into a
star schema of one fact and seven dimension tables, writes them as CSV, and
loads them into Redshift with COPY.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultPath, "Path to the INI or YAML configuration file")
	root.PersistentFlags().StringVar(&flags.dotEnv, "env-file", ".env", "Path to a .env file with I94DW_ overrides")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG.LEVEL")

	root.AddCommand(
		newVersionCmd(),
		newTransformCmd(flags),
		newWarehouseCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "i94dw v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newTransformCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Build the star-schema tables from the raw inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags, config.CommandTransform, func(ctx context.Context, e *env) error {
				res, err := pipeline.NewTransform(e.cfg, e.log, e.metrics).Run(ctx)
				if err != nil {
					return err
				}
				for _, r := range res.Quality {
					fmt.Fprintln(cmd.OutOrStdout(), r.Message)
				}
				return nil
			})
		},
	}
}

func newWarehouseCmd(flags *globalFlags) *cobra.Command {
	wh := &cobra.Command{
		Use:   "warehouse",
		Short: "Manage the Redshift tables",
	}

	wh.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every warehouse table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWarehouse(cmd.Context(), flags, pipeline.Phase{Reset: true})
		},
	})

	var reset bool
	load := &cobra.Command{
		Use:   "load",
		Short: "COPY the written tables into the warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWarehouse(cmd.Context(), flags, pipeline.Phase{Reset: reset, Load: true})
		},
	}
	load.Flags().BoolVar(&reset, "reset", false, "Drop and recreate the tables before loading")
	wh.AddCommand(load)

	return wh
}

func runWarehouse(ctx context.Context, flags *globalFlags, phase pipeline.Phase) error {
	return run(ctx, flags, config.CommandWarehouse, func(ctx context.Context, e *env) error {
		return pipeline.NewWarehouse(e.cfg, e.log, e.metrics).Run(ctx, phase)
	})
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return cfgCmd
}

// loadConfig reads the configured file. The default path may be absent, in
// which case only defaults and the environment apply.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	path := flags.configPath
	if path == config.DefaultPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	return config.Load(path, config.Options{DotEnv: flags.dotEnv})
}

// run sets up logging, tracing and metrics around fn and tears them down
// afterwards, pushing metrics when a gateway is configured.
func run(ctx context.Context, flags *globalFlags, command config.Command, fn func(context.Context, *env) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(command); err != nil {
		return err
	}

	level := cfg.Log.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	if err := logger.Init(logger.Config{Level: level, Encoding: cfg.Log.Format}); err != nil {
		return err
	}
	log := logger.With(zap.String("command", string(command)))
	defer func() { _ = logger.Sync() }()

	shutdown, err := observability.Setup(ctx, observability.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	e := &env{cfg: cfg, log: log, metrics: metrics.NewRecorder(cfg.Metrics.Job), shutdown: shutdown}

	start := time.Now()
	runErr := fn(ctx, e)
	e.finish(runErr, time.Since(start))
	return runErr
}

func (e *env) finish(runErr error, elapsed time.Duration) {
	// the run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.metrics.Push(ctx, e.cfg.Metrics.PushGateway); err != nil {
		e.log.Warn("failed to push metrics", zap.Error(err))
	}
	if err := e.shutdown(ctx); err != nil {
		e.log.Warn("failed to flush traces", zap.Error(err))
	}

	if runErr != nil {
		e.log.Error("run failed", zap.Duration("duration", elapsed), zap.Error(runErr))
		return
	}
	e.log.Info("run completed", zap.Duration("duration", elapsed))
}
