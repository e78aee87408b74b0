package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/hierarchy"
)

// treeStyles renders one hierarchy line per node
type treeStyles struct {
	id      lipgloss.Style
	level   lipgloss.Style
	version lipgloss.Style
	health  map[hierarchy.Health]lipgloss.Style
}

func newTreeStyles(w io.Writer) treeStyles {
	r := lipgloss.NewRenderer(w)
	return treeStyles{
		id:      r.NewStyle().Bold(true),
		level:   r.NewStyle().Foreground(lipgloss.Color("99")),
		version: r.NewStyle().Foreground(lipgloss.Color("241")),
		health: map[hierarchy.Health]lipgloss.Style{
			hierarchy.HealthHealthy:   r.NewStyle().Foreground(lipgloss.Color("42")),
			hierarchy.HealthDegraded:  r.NewStyle().Foreground(lipgloss.Color("214")),
			hierarchy.HealthUnhealthy: r.NewStyle().Foreground(lipgloss.Color("196")),
		},
	}
}

func (s treeStyles) line(info hierarchy.NodeInfo, depth int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	if depth > 0 {
		b.WriteString("└─ ")
	}
	b.WriteString(s.id.Render(string(info.ID)))
	b.WriteString(" ")
	b.WriteString(s.level.Render("[" + string(info.Level) + "]"))
	if !info.Version.IsZero() {
		b.WriteString(" ")
		b.WriteString(s.version.Render(info.Version.String()))
	}
	b.WriteString(" ")
	b.WriteString(s.health[info.Health].Render(info.Status.String()))
	return b.String()
}

func (a *app) treeCommand() *cobra.Command {
	var (
		from       string
		initialize bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the component hierarchy",
		Long: `Build the component hierarchy from the catalog and print it depth-first.
With --initialize every component is initialized first, parents before
children, so the tree shows the resulting lifecycle status.`,
		Args: cobra.NoArgs,
		RunE: a.run("tree", func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			ws, err := a.loadWorkspace()
			if err != nil {
				return err
			}
			h, err := a.hierarchy(ws)
			if err != nil {
				return err
			}

			if initialize {
				var ids []component.ID
				h.Walk(func(info hierarchy.NodeInfo, _ int) bool {
					ids = append(ids, info.ID)
					return true
				})
				for _, id := range ids {
					if err := h.Initialize(ctx, id); err != nil {
						return err
					}
				}
			}

			out := cmd.OutOrStdout()
			styles := newTreeStyles(out)
			printNode := func(info hierarchy.NodeInfo, depth int) bool {
				fmt.Fprintln(out, styles.line(info, depth))
				return true
			}

			if from != "" {
				return h.WalkFrom(component.ID(from), printNode)
			}
			h.Walk(printNode)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&from, "from", "", "print only the subtree rooted at this component")
	f.BoolVar(&initialize, "initialize", false, "initialize every component before printing")
	return cmd
}
