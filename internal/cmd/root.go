package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds a fresh command tree. Each call carries its own flag
// state so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	return newApp().rootCommand()
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and flushes telemetry and
// metrics afterwards, whether or not the command failed.
func ExecuteContext(ctx context.Context) error {
	a := newApp()
	root := a.rootCommand()
	err := root.ExecuteContext(ctx)
	a.shutdown()
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "scopeplan",
		Short: "Build-scope impact analysis for component hierarchies",
		Long: `scopeplan answers "if I change component X in manner Y, what must be rebuilt,
in what order, what must be tested, and can the change be hot-swapped?"

It reads a component catalog (levels, parents, dependencies, build times and
tests), builds the dependency graph and the component hierarchy, and turns a
build instruction into an ordered build plan.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "config file (default is $HOME/.scopeplan/config.yaml)")
	flags.StringVar(&a.flags.catalogPath, "catalog", "", "component catalog file (overrides catalog.path)")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")
	flags.StringVar(&a.flags.logFormat, "log-format", "", "log format: text or json (overrides log.format)")
	flags.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the command")

	root.AddCommand(
		a.analyzeCommand(),
		a.optimizeCommand(),
		a.depsCommand(),
		a.hotswapCommand(),
		a.validateCommand(),
		a.doctorCommand(),
		a.treeCommand(),
		a.versionCommand(),
		completionCommand(),
	)
	return root
}

// globalFlags holds the persistent flag values of one command tree
type globalFlags struct {
	configPath  string
	catalogPath string
	logLevel    string
	logFormat   string
	metricsFile string
}
