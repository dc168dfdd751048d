package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/utils"
)

// Version is reported by --version
const Version = "1.0.0"

const defaultServer = "http://localhost:3001"

type globalOptions struct {
	server  string
	timeout time.Duration
	rps     float64
}

func (g *globalOptions) client() (*Client, error) {
	return NewClient(g.server, ClientOptions{Timeout: g.timeout, RPS: g.rps})
}

// BuildCLI assembles the atlasctl command tree
func BuildCLI() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "atlasctl",
		Short: "atlasctl: operator console for the AtlasOS microkernel",
		Long: `atlasctl inspects and drives a running AtlasOS kernel:
- system status and full process snapshots
- injected process failures
- manual restarts`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("ATLAS_SERVER")
	if server == "" {
		server = defaultServer
	}
	defaults := DefaultClientOptions()

	rootCmd.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "kernel server URL (env ATLAS_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaults.Timeout, "request timeout")
	rootCmd.PersistentFlags().Float64Var(&opts.rps, "rps", defaults.RPS, "max requests per second (0 = unlimited)")

	rootCmd.AddCommand(buildStatusCommand(opts))
	rootCmd.AddCommand(buildSnapshotCommand(opts))
	rootCmd.AddCommand(buildFailCommand(opts))
	rootCmd.AddCommand(buildRestartCommand(opts))

	return rootCmd
}

func buildStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the system summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func buildSnapshotCommand(opts *globalOptions) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the process table, memory and recent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			show := func(ctx context.Context) error {
				snap, err := client.State(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					data, err := sonic.Marshal(snap)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
					return nil
				}
				printSnapshot(out, snap)
				return nil
			}

			if !watch {
				return show(cmd.Context())
			}
			return watchLoop(cmd.Context(), interval, show)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh until interrupted")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "refresh interval with --watch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")

	return cmd
}

func buildFailCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fail <process>",
		Short: "Crash a process to exercise recovery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, opts, session.SimulateFailure{ProcessName: args[0]})
		},
	}
}

func buildRestartCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restart <process>",
		Short: "Restart a process immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, opts, session.RestartProcess{ProcessName: args[0]})
		},
	}
}

func sendCommand(cmd *cobra.Command, opts *globalOptions, c session.Command) error {
	if err := utils.ValidateName(c.Target()); err != nil {
		return err
	}
	client, err := opts.client()
	if err != nil {
		return err
	}
	if err := client.Send(cmd.Context(), c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s %s\n", c.Type(), c.Target())
	return nil
}

// watchLoop runs show now and on every tick until ctx ends. Failures are
// printed and the loop keeps going.
func watchLoop(ctx context.Context, interval time.Duration, show func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := show(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "snapshot: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printStatus(w io.Writer, s *types.StatusSummary) {
	fmt.Fprintf(w, "status:    %s\n", s.Status)
	fmt.Fprintf(w, "uptime:    %s\n", time.Duration(s.Uptime)*time.Second)
	fmt.Fprintf(w, "processes: %d (%d crashed)\n", s.ProcessCount, s.Crashed)
	fmt.Fprintf(w, "cpu:       %.1f%% total, %.1f%% avg\n", s.TotalCPU, s.AverageCPU)
}

func printSnapshot(w io.Writer, snap *types.Snapshot) {
	fmt.Fprintf(w, "uptime %s  total cpu %.1f%%\n", time.Duration(snap.Uptime)*time.Second, snap.TotalCPU)
	if snap.MMU != nil {
		fmt.Fprintf(w, "memory %d/%d pages  faults %d\n", snap.MMU.UsedPages, snap.MMU.TotalPages, snap.MMU.PageFaults)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tNAME\tPRIORITY\tSTATUS\tCPU\tRESTARTS")
	for _, p := range snap.Processes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f%%\t%d\n", p.PID, p.Name, p.Priority, p.Status, p.CPULoad, p.Restarts)
	}
	tw.Flush()

	if len(snap.Events) > 0 {
		fmt.Fprintln(w)
		for _, e := range snap.Events {
			fmt.Fprintf(w, "%s  %-7s  %s\n", e.Timestamp.Format("15:04:05"), e.Severity, e.Message)
		}
	}
}
