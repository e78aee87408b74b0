package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/scopeplan/internal/component"
)

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a component catalog",
		Long: `Validate the component catalog: identifiers, levels and parent references,
level weight ordering (by building the hierarchy), the absence of dependency
cycles and the consistency of the dependency graph indexes.`,
		Args: cobra.NoArgs,
		RunE: a.run("validate", func(_ context.Context, cmd *cobra.Command, _ []string) error {
			ws, err := a.loadWorkspace()
			if err != nil {
				return err
			}

			h, err := a.hierarchy(ws)
			if err != nil {
				return err
			}
			if err := ws.graph.Acyclic(); err != nil {
				return err
			}
			if err := ws.graph.Verify(); err != nil {
				return err
			}

			critical := 0
			for _, e := range ws.catalog.Entries() {
				if e.ID.IsSystemCritical() {
					critical++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s is valid\n", ws.path)
			fmt.Fprintf(out, "  components:      %d\n", h.Len())
			fmt.Fprintf(out, "  roots:           %d\n", len(h.Roots()))
			fmt.Fprintf(out, "  modules:         %d\n", len(ws.layout.Modules()))
			fmt.Fprintf(out, "  dependencies:    %d\n", len(ws.graph.Edges()))
			fmt.Fprintf(out, "  system-critical: %d (%s*)\n", critical, component.SystemPrefix)
			return nil
		}),
	}
}
