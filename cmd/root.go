package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/juanibiapina/ptree/internal/config"
	"github.com/juanibiapina/ptree/internal/logging"
	"github.com/juanibiapina/ptree/internal/metrics"
	"github.com/juanibiapina/ptree/internal/process"
	"github.com/juanibiapina/ptree/internal/telemetry"
	"github.com/juanibiapina/ptree/internal/tree"
	"github.com/juanibiapina/ptree/internal/version"
)

var (
	cfgFile string
	verbose bool

	// cfg is resolved in PersistentPreRunE and read by every command.
	cfg       *config.Config
	logCloser io.Closer
)

// newSource opens the process table. Tests replace it with a fake kernel.
var newSource = func(c *config.Config) (process.Source, error) {
	return process.Open(c.Source, c.ProcRoot)
}

// newSender returns what delivers signals. Tests replace it with a fake kernel.
var newSender = func() process.Sender {
	return process.UnixSender{}
}

// skipTelemetry lists commands that handle their own telemetry or shouldn't be tracked
var skipTelemetry = map[string]bool{
	"mcp":        true, // has own telemetry
	"tui":        true, // has own telemetry
	"completion": true, // shell completion
	"__complete": true, // internal completion
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ptree [root_pid] [pid]",
	Short: "Inspect and signal process trees",
	Long: `Inspect the process tree under a root process and signal whole subtrees.

Every command takes a root PID and a target PID. The target must belong to
the tree rooted at the root process, otherwise a notice is printed and
nothing happens.

Called with just the two PIDs, prints the target's PID and parent PID, or
nothing at all when the target is outside the tree.

Examples:
  ptree 1 4242
  ptree children 1 4242
  ptree zombies 1 4242
  ptree kill 1 4242`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
		}
		return nil
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}

		// Track CLI command usage (skip commands with own telemetry or completion)
		name := cmd.Name()
		if skipTelemetry[name] {
			return nil
		}
		if parent := cmd.Parent(); parent != nil && parent.Name() == "completion" {
			return nil
		}
		telemetry.CLICommandStart(name)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.CLICommandEnd()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		// Without an operation, a target outside the tree is not reported.
		inv, err := gate(args)
		switch {
		case errors.Is(err, tree.ErrNotInTree):
			return nil
		case errors.Is(err, tree.ErrScan):
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return nil
		case err != nil:
			return err
		}
		rec, ok := inv.engine.Lookup(inv.pid)
		if !ok {
			return fmt.Errorf("failed to get information for process %d", inv.pid)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "PID: %d, PPID: %d\n", rec.PID, rec.PPID)
		return nil
	},
}

// setup resolves configuration and initialises logging, metrics and
// telemetry for the command about to run.
func setup(cmd *cobra.Command) error {
	v := viper.New()
	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"proc_root": "proc-root",
		"source":    "source",
		"max_hops":  "max-hops",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	closer, err := logging.Init(cfg.Log, verbose, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logCloser = closer

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		slog.Warn("failed to register metrics", "error", err)
	}

	telemetry.Init(cfg.Telemetry)
	return nil
}

// finish flushes everything setup started. It runs whether or not the
// command succeeded.
func finish() {
	telemetry.Flush()

	if cfg != nil && cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, prometheus.DefaultGatherer); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write metrics to %s: %v\n", cfg.Metrics.Textfile, err)
		}
	}

	if logCloser != nil {
		logCloser.Close()
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	finish()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Set version for --version flag
	RootCmd.Version = version.Version

	// Don't show usage on errors - only show it when explicitly requested
	RootCmd.SilenceUsage = true

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/ptree/config.yaml)")
	flags.BoolVar(&verbose, "verbose", false, "log diagnostics to stderr")
	flags.String("proc-root", process.DefaultProcRoot, "mount point of the proc filesystem")
	flags.String("source", "procfs", "process table source (procfs or gopsutil)")
	flags.Int("max-hops", tree.DefaultMaxHops, "maximum parent links followed when checking ancestry")
}
