package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
	"github.com/felixgeelhaar/scopeplan/internal/scope"
)

type analyzeOptions struct {
	target   string
	scope    string
	action   string
	tests    []string
	hotSwap  bool
	optimize bool
	output   string
}

func (a *app) analyzeCommand() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [instruction.yaml]",
		Short: "Compute the build plan for a change",
		Long: `Analyze a build instruction and print the resulting build plan.

The instruction is read from a YAML file when one is given, otherwise it is
assembled from --target, --scope and --action.`,
		Example: `  scopeplan analyze --target module.dashboard --scope module --action enhance
  scopeplan analyze change.yaml --optimize --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.run("analyze", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			instr, err := opts.instruction(args)
			if err != nil {
				return err
			}

			ws, err := a.loadWorkspace()
			if err != nil {
				return err
			}
			an := a.analyzer(ws)

			plan, err := an.AnalyzeImpact(ctx, instr)
			if err != nil {
				return err
			}
			if opts.optimize {
				plan = an.OptimizeBuildPlan(plan)
			}
			return writePlan(cmd.OutOrStdout(), plan, opts.output)
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&opts.target, "target", "t", "", "component to change")
	f.StringVarP(&opts.scope, "scope", "s", string(component.ScopeComponent), "change scope: component, submodule, module, system, full")
	f.StringVarP(&opts.action, "action", "a", string(component.ActionOther), "change kind: add, enhance, update, remove, other")
	f.StringSliceVar(&opts.tests, "test", nil, "explicit test id to run first (repeatable)")
	f.BoolVar(&opts.hotSwap, "hot-swap", false, "request a hot swap")
	f.BoolVar(&opts.optimize, "optimize", false, "apply plan optimizations before printing")
	f.StringVarP(&opts.output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func (o analyzeOptions) instruction(args []string) (scope.Instruction, error) {
	if len(args) == 1 {
		if o.target != "" {
			return scope.Instruction{}, errors.NewInvalidInstruction("use either an instruction file or --target, not both")
		}
		return scope.LoadInstruction(args[0])
	}

	instr := scope.Instruction{
		Target:  component.ID(o.target),
		Scope:   component.Scope(o.scope),
		Action:  component.Action(o.action),
		Tests:   o.tests,
		HotSwap: o.hotSwap,
	}.Normalize()
	if err := instr.Validate(); err != nil {
		return scope.Instruction{}, err
	}
	return instr, nil
}

// planReport is a plan plus its content fingerprint
type planReport struct {
	scope.BuildPlan `yaml:",inline"`
	PlanFingerprint string `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
}

func writePlan(w io.Writer, plan scope.BuildPlan, format string) error {
	fp, err := plan.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprint plan: %w", err)
	}
	report := planReport{BuildPlan: plan, PlanFingerprint: fp}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.Newf(errors.ErrCodeInvalidInstruction, "unknown output format %q", format).
			WithSuggestion("Use --output yaml or --output json")
	}
}

func readPlan(path string, r io.Reader) (scope.BuildPlan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return scope.BuildPlan{}, errors.Wrap(errors.ErrCodeFileReadFailed, "read plan", err)
	}
	var report planReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return scope.BuildPlan{}, errors.NewFileUnmarshalError(path, "YAML", err)
	}
	if report.Target == "" {
		return scope.BuildPlan{}, errors.NewInvalidInstruction(fmt.Sprintf("%s does not contain a build plan", path))
	}
	return report.BuildPlan, nil
}
