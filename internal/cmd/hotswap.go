package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/scope"
)

func (a *app) hotswapCommand() *cobra.Command {
	var scopeName, action string

	cmd := &cobra.Command{
		Use:   "hotswap <component>",
		Short: "Report whether a change can be hot-swapped",
		Long: `Report whether the component supports hot swapping and whether a change of
the given scope and action forces a full rebuild.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run("hotswap", func(_ context.Context, cmd *cobra.Command, args []string) error {
			instr := scope.Instruction{
				Target: component.ID(args[0]),
				Scope:  component.Scope(scopeName),
				Action: component.Action(action),
			}.Normalize()
			if err := instr.Validate(); err != nil {
				return err
			}

			ws, err := a.loadWorkspace()
			if err != nil {
				return err
			}
			an := a.analyzer(ws)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "component: %s\n", instr.Target)
			fmt.Fprintf(out, "can_hot_swap: %t\n", an.CanHotSwap(instr.Target))
			fmt.Fprintf(out, "requires_full_rebuild: %t\n", an.RequiresFullRebuild(instr))
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&scopeName, "scope", "s", string(component.ScopeComponent), "change scope")
	f.StringVarP(&action, "action", "a", string(component.ActionOther), "change kind")
	return cmd
}
