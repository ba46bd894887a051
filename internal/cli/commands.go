package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atmx/paper-trader/internal/trade"
)

func newSessionCmd(a *app) *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Interactive trading session on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Paper trading account for %s. Type help for commands, quit to exit.\n",
				a.svc.Ledger().Owner())
			err := a.svc.Interact(ctx, cmd.InOrStdin(), out, prompt)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "> ", "Prompt printed before each command")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := trade.LoadScenario(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				res, runErr := a.svc.RunScenario(sc, nil)
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
				return a.finishRun(runErr)
			}

			_, runErr := a.svc.RunScenario(sc, out)
			return a.finishRun(runErr)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print step results as JSON")
	return cmd
}

// finishRun writes metrics even when the scenario failed, since cobra skips
// the post-run hook on error.
func (a *app) finishRun(runErr error) error {
	if runErr == nil {
		return nil
	}
	if err := a.flushMetrics(); err != nil {
		a.logger.Error("metrics export failed", "err", err)
	}
	return runErr
}

func newQuoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>...",
		Short: "Print the price of one or more symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, sym := range args {
				reply, err := a.svc.Exec("quote " + sym)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Message)
			}
			return nil
		},
	}
}

func newAssetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "List tradable symbols and prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := a.svc.Exec("assets")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Message)
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "papertrade (%s)\n", Version)
		},
	}
}
