package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/scopeplan/internal/health"
)

func (a *app) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks over the catalog",
		Long: `Run the workspace health checks in parallel: dependency graph consistency
and cycles, catalog references that fall back to defaults, and the health of
every node in the component hierarchy.

Exits non-zero when any check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: a.run("doctor", func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			ws, err := a.loadWorkspace()
			if err != nil {
				return err
			}

			m := health.NewManager()
			m.AddChecker(health.NewGraphChecker(ws.graph))
			m.AddChecker(health.NewCatalogChecker(ws.catalog))
			if h, err := a.hierarchy(ws); err == nil {
				m.AddChecker(health.NewHierarchyChecker(h))
			} else {
				m.AddChecker(health.CheckerFunc{
					CheckerName: "component-hierarchy",
					Fn: func(context.Context) *health.Result {
						return health.Unhealthy("hierarchy cannot be built").WithDetail("error", err.Error())
					},
				})
			}

			report := m.Run(ctx)
			out := cmd.OutOrStdout()
			for _, e := range report.Entries {
				fmt.Fprintf(out, "%-20s %-9s %s\n", e.Name, e.Result.Status, e.Result.Message)
				keys := make([]string, 0, len(e.Result.Details))
				for k := range e.Result.Details {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "  %s: %v\n", k, e.Result.Details[k])
				}
			}
			fmt.Fprintf(out, "overall: %s\n", report.Status)

			if report.Status == health.StatusUnhealthy {
				return fmt.Errorf("workspace %s is unhealthy", ws.path)
			}
			return nil
		}),
	}
}
