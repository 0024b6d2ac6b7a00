package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"workpassport/internal/bootstrap/logging"
	"workpassport/internal/errs"
	"workpassport/internal/usecase/agent"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Background agent commands",
}

var agentsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the credential monitor and company verifier until interrupted",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		agentsCfg := svc.App.Config.Agents
		monitorRunner := agent.NewRunner("credential-monitor", agentsCfg.MonitorInterval, func(ctx context.Context) error {
			_, err := svc.Monitor.SweepOnce(ctx)
			return err
		})
		verifierRunner := agent.NewRunner("company-verifier", agentsCfg.VerifierInterval, func(ctx context.Context) error {
			_, err := svc.Verifier.SweepOnce(ctx)
			return err
		})

		monitorRunner.Start(ctx)
		verifierRunner.Start(ctx)
		logging.Info(ctx, "agents started",
			slog.Duration("monitor_interval", agentsCfg.MonitorInterval),
			slog.Duration("verifier_interval", agentsCfg.VerifierInterval),
		)

		<-ctx.Done()
		logging.Info(ctx, "shutdown signal received, stopping agents")
		monitorRunner.Stop()
		verifierRunner.Stop()

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "agents stopped"); err != nil {
			return errs.Wrap(err, "write agents output")
		}
		return nil
	}),
}

var agentsMonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run a single credential monitor sweep",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		res, err := svc.Monitor.SweepOnce(ctx)
		if err != nil {
			return errs.Wrap(err, "monitor sweep")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "monitor sweep done processed=%d flagged=%d cursor=%d\n",
			res.Processed, res.Flagged, res.CursorAfter); err != nil {
			return errs.Wrap(err, "write monitor output")
		}
		return nil
	}),
}

var agentsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run a single company verification sweep",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		res, err := svc.Verifier.SweepOnce(ctx)
		if err != nil {
			return errs.Wrap(err, "verify sweep")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "verify sweep done pending=%d approved=%d rejected=%d\n",
			res.Pending, res.Approved, res.Rejected); err != nil {
			return errs.Wrap(err, "write verify output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.AddCommand(agentsRunCmd)
	agentsCmd.AddCommand(agentsMonitorCmd)
	agentsCmd.AddCommand(agentsVerifyCmd)
}
