// Package cli wires configuration, logging, the quote table, the ledger,
// metrics and the trade service behind a cobra command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/atmx/paper-trader/internal/config"
	"github.com/atmx/paper-trader/internal/ledger"
	"github.com/atmx/paper-trader/internal/metrics"
	"github.com/atmx/paper-trader/internal/quote"
	"github.com/atmx/paper-trader/internal/trade"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// rootFlags holds the persistent flag values. Flags only override the
// loaded configuration when set explicitly.
type rootFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	cash        string
	owner       string
	quotePolicy string
	pnlPolicy   string
	metricsFile string
}

// app is everything a subcommand needs, built once per invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	svc     *trade.Service
}

// NewRootCmd builds the papertrade command tree.
func NewRootCmd() *cobra.Command {
	rf := &rootFlags{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "papertrade",
		Short:         "Paper trading simulator: cash, positions and P/L against a fixed price table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&rf.configPath, "config", "", "Path to YAML config file (optional)")
	pf.StringVar(&rf.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&rf.logFormat, "log-format", "", "Log format: text|json")
	pf.StringVar(&rf.cash, "cash", "", "Opening cash balance")
	pf.StringVar(&rf.owner, "owner", "", "Account owner name")
	pf.StringVar(&rf.quotePolicy, "quote-policy", "", "Unknown symbol policy: strict|lenient")
	pf.StringVar(&rf.pnlPolicy, "pnl-policy", "", "Profit/loss basis: net|deposits")
	pf.StringVar(&rf.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rf.configPath)
		if err != nil {
			return err
		}
		rf.apply(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return a.build(cfg, cmd.ErrOrStderr())
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return a.flushMetrics()
	}

	cmd.AddCommand(
		newSessionCmd(a),
		newRunCmd(a),
		newQuoteCmd(a),
		newAssetsCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (rf *rootFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("log-level", &cfg.Log.Level, rf.logLevel)
	set("log-format", &cfg.Log.Format, rf.logFormat)
	set("cash", &cfg.Account.Cash, rf.cash)
	set("owner", &cfg.Account.Owner, rf.owner)
	set("quote-policy", &cfg.Quotes.Policy, rf.quotePolicy)
	set("pnl-policy", &cfg.Ledger.PnLPolicy, rf.pnlPolicy)
	set("metrics-file", &cfg.Metrics.File, rf.metricsFile)
}

// build assumes cfg has been validated.
func (a *app) build(cfg *config.Config, logOut io.Writer) error {
	a.cfg = cfg

	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(logOut, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(logOut, opts)
	}
	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)

	policy, _ := cfg.QuotePolicy()
	prices, _ := cfg.Prices()
	table, err := quote.NewTable(prices, policy)
	if err != nil {
		return fmt.Errorf("price table: %w", err)
	}

	cash, _ := cfg.OpeningCash()
	pnl, _ := cfg.PnLPolicy()
	a.metrics = metrics.New()
	l, err := ledger.New(cash, table,
		ledger.WithOwner(cfg.Account.Owner),
		ledger.WithPnLPolicy(pnl),
		ledger.WithObserver(a.metrics),
	)
	if err != nil {
		return err
	}
	a.svc = trade.NewService(l, table, a.metrics, a.logger)

	a.logger.Debug("account opened",
		"owner", cfg.Account.Owner,
		"cash", cash.String(),
		"quote_policy", policy.String(),
		"pnl_policy", pnl.String(),
		"symbols", len(table.Symbols()),
	)
	return nil
}

func (a *app) flushMetrics() error {
	if a.cfg == nil || a.cfg.Metrics.File == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.File); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	a.logger.Debug("metrics written", "path", a.cfg.Metrics.File)
	return nil
}
