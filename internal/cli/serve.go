package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harwell-labs/snapforge/internal/engine"
	"github.com/harwell-labs/snapforge/internal/invoker"
	"github.com/harwell-labs/snapforge/internal/metrics"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigFile  string
	MetricsAddr string
	MinInterval time.Duration
}

// ServeConfig is the optional YAML configuration file for serve. Flags take
// precedence over file values.
type ServeConfig struct {
	Database    string `yaml:"database"`
	MetricsAddr string `yaml:"metrics_addr"`
	MinInterval string `yaml:"min_interval"`
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the snapshot scheduler",
		Long: `Run all configured snapshot rules on their schedules.

Each rule's frequency (hourly, daily, weekly, or a duration like 30m) drives
its own ticker. A failing rule is reported and keeps its schedule; it never
stops the scheduler. With --metrics-addr, Prometheus metrics are served on
/metrics.

Example:
  snapforge serve --db ./snapforge.db --metrics-addr :9105
  snapforge serve --config ./snapforge.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on")
	cmd.Flags().DurationVar(&opts.MinInterval, "min-interval", time.Minute, "floor for rule intervals")

	return cmd
}

// applyConfig merges the YAML config file into options. Explicitly set flags
// win over file values.
func applyConfig(opts *ServeOptions, cmd *cobra.Command) error {
	if opts.ConfigFile == "" {
		return nil
	}
	data, err := os.ReadFile(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var cfg ServeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if cfg.Database != "" && !cmd.Flags().Changed("db") {
		opts.Database = cfg.Database
	}
	if cfg.MetricsAddr != "" && !cmd.Flags().Changed("metrics-addr") {
		opts.MetricsAddr = cfg.MetricsAddr
	}
	if cfg.MinInterval != "" && !cmd.Flags().Changed("min-interval") {
		d, err := time.ParseDuration(cfg.MinInterval)
		if err != nil {
			return fmt.Errorf("parse config min_interval: %w", err)
		}
		opts.MinInterval = d
	}
	return nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	if err := applyConfig(opts, cmd); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := e.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	rules, err := e.rules.Rules(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}
	if len(rules) == 0 {
		return NewExitError(ExitCommandError, "no snapshot rules configured")
	}

	m := metrics.New()
	reporter := invoker.MultiReporter{
		&invoker.LogReporter{Logger: slog.Default()},
		m,
	}

	entries := make([]invoker.Entry, 0, len(rules))
	for _, r := range rules {
		every, err := invoker.ParseFrequency(r.Frequency)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("rule %s", r.ID), err)
		}
		if every < opts.MinInterval {
			every = opts.MinInterval
		}

		// Each tick constructs a fresh executor so configuration edits made
		// while the scheduler is running take effect on the next tick.
		ruleID := r.ID
		adapter := invoker.NewAdapter(&lazyRunner{env: e, ruleID: ruleID}, reporter)
		entries = append(entries, invoker.Entry{
			RuleID: ruleID,
			Every:  every,
			Invoke: adapter.ExecuteNow,
		})
	}

	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		go func() {
			slog.Info("metrics listening", "addr", opts.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
		defer srv.Close()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Scheduler started with %d rule(s). Press Ctrl-C to stop.\n", len(entries))
	slog.Info("scheduler starting", "db", opts.Database, "rules", len(entries))

	invoker.NewScheduler(entries, slog.Default()).Run(ctx)

	slog.Info("scheduler stopped")
	return nil
}

// lazyRunner resolves its executor on every run instead of once at startup.
type lazyRunner struct {
	env    *env
	ruleID string
}

func (l *lazyRunner) RuleID() string { return l.ruleID }
func (l *lazyRunner) DryRun() bool   { return false }

func (l *lazyRunner) Run(ctx context.Context) (int, error) {
	exec, err := engine.New(ctx, l.env.store, l.env.catalog, l.env.rules, l.ruleID)
	if err != nil {
		return 0, err
	}
	return exec.Run(ctx)
}
