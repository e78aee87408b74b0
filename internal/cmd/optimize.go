package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

func (a *app) optimizeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "optimize <plan.yaml|->",
		Short: "Apply optimizations to a saved build plan",
		Long: `Read a YAML build plan written by "scopeplan analyze" and apply the
optimization rules: isolated hot swaps are capped at 30s and plans with
independent components are scaled by the parallel factor.`,
		Example: `  scopeplan analyze --target dashboard.widgets > plan.yaml
  scopeplan optimize plan.yaml
  scopeplan analyze --target dashboard.widgets | scopeplan optimize -`,
		Args: cobra.ExactArgs(1),
		RunE: a.run("optimize", func(_ context.Context, cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			path := args[0]
			if path != "-" {
				f, err := os.Open(path) // #nosec G304 -- user-selected plan file
				if err != nil {
					if os.IsNotExist(err) {
						return errors.NewFileNotFoundError(path)
					}
					return errors.Wrap(errors.ErrCodeFileReadFailed, "open plan", err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			plan, err := readPlan(path, r)
			if err != nil {
				return err
			}

			ws, err := a.loadWorkspace()
			if err != nil {
				return err
			}

			before := plan.EstimatedDuration
			plan = a.analyzer(ws).OptimizeBuildPlan(plan)
			a.logger.Info("plan optimized",
				"target", plan.Target,
				"before", before,
				"after", plan.EstimatedDuration,
			)
			return writePlan(cmd.OutOrStdout(), plan, output)
		}),
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}
