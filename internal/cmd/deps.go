package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/scopeplan/internal/component"
)

func (a *app) depsCommand() *cobra.Command {
	var transitive bool

	cmd := &cobra.Command{
		Use:   "deps <component>",
		Short: "List the components that depend on a component",
		Long: `List the components that declare a dependency on the given component.
With --transitive, dependents of dependents are included as well.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run("deps", func(_ context.Context, cmd *cobra.Command, args []string) error {
			id := component.ID(args[0])
			if err := id.Validate(); err != nil {
				return err
			}

			ws, err := a.loadWorkspace()
			if err != nil {
				return err
			}

			var dependents []component.ID
			if transitive {
				dependents = ws.graph.TransitiveDependents(id)
			} else {
				dependents = a.analyzer(ws).CheckDependencies(id)
			}

			out := cmd.OutOrStdout()
			if len(dependents) == 0 {
				fmt.Fprintf(out, "No components depend on %s\n", id)
				return nil
			}
			for _, dep := range dependents {
				fmt.Fprintln(out, dep)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&transitive, "transitive", false, "include indirect dependents")
	return cmd
}
