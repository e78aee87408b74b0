package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/scopeplan/internal/component"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

const dashboardCatalog = "../catalog/testdata/dashboard.yaml"

// execute runs a fresh command tree with an isolated HOME so no user config
// is picked up.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	a := newApp()
	root := a.rootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	a.shutdown()
	return out.String(), err
}

func decodeReport(t *testing.T, out string) planReport {
	t.Helper()
	var report planReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	return report
}

func TestAnalyzeModuleEnhance(t *testing.T) {
	out, err := execute(t, "", "analyze", "--catalog", dashboardCatalog,
		"--target", "module.dashboard", "--scope", "Module", "--action", "enhance", "--hot-swap")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, component.ID("module.dashboard"), report.Target)
	assert.Equal(t, component.ScopeModule, report.Scope)
	assert.Equal(t, []component.ID{"dashboard.charts", "dashboard.widgets", "module.dashboard", "dashboard.widgets.stats"}, report.BuildOrder)
	assert.Equal(t, []component.ID{"dashboard.charts", "dashboard.widgets", "dashboard.widgets.stats"}, report.Dependents)
	assert.Equal(t, 105*time.Second, report.EstimatedDuration)
	assert.Equal(t, []string{"dashboard.e2e"}, report.Tests)
	assert.Equal(t, []string{"module.dashboard.doc", "docs.manifest"}, report.Documents)
	assert.False(t, report.CanHotSwap, "charts does not support hot swap")
	assert.NotEmpty(t, report.PlanFingerprint)
}

func TestAnalyzeFingerprintIsStable(t *testing.T) {
	args := []string{"analyze", "--catalog", dashboardCatalog, "--target", "dashboard.charts", "--action", "update"}

	first, err := execute(t, "", args...)
	require.NoError(t, err)
	second, err := execute(t, "", args...)
	require.NoError(t, err)

	assert.Equal(t, decodeReport(t, first).PlanFingerprint, decodeReport(t, second).PlanFingerprint)
}

func TestAnalyzeInstructionFile(t *testing.T) {
	out, err := execute(t, "", "analyze", "--catalog", dashboardCatalog, "../scope/testdata/enhance_dashboard.yaml")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, component.ID("module.dashboard"), report.Target)
	assert.Equal(t, []string{"dashboard.smoke", "dashboard.e2e"}, report.Tests)
}

func TestAnalyzeJSONOutput(t *testing.T) {
	out, err := execute(t, "", "analyze", "--catalog", dashboardCatalog,
		"--target", "dashboard.charts", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"target": "dashboard.charts"`)
	assert.Contains(t, out, `"fingerprint":`)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{
			name: "missing target",
			args: []string{"analyze", "--catalog", dashboardCatalog},
			code: errors.ErrCodeInvalidInstruction,
		},
		{
			name: "unknown scope",
			args: []string{"analyze", "--catalog", dashboardCatalog, "--target", "x.y", "--scope", "galaxy"},
			code: errors.ErrCodeInvalidInstruction,
		},
		{
			name: "missing catalog",
			args: []string{"analyze", "--catalog", "does-not-exist.yaml", "--target", "x.y"},
			code: errors.ErrCodeFileNotFound,
		},
		{
			name: "bad log level",
			args: []string{"analyze", "--log-level", "loud", "--target", "x.y"},
			code: errors.ErrCodeConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestAnalyzeUnknownComponentWarns(t *testing.T) {
	out, err := execute(t, "", "analyze", "--catalog", dashboardCatalog, "--target", "module.ghost")
	require.NoError(t, err)

	report := decodeReport(t, out)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "unknown_component", string(report.Warnings[0].Kind))
	assert.Equal(t, 60*time.Second, report.EstimatedDuration)
}

func TestOptimizeSavedPlan(t *testing.T) {
	planOut, err := execute(t, "", "analyze", "--catalog", dashboardCatalog,
		"--target", "module.dashboard", "--scope", "module", "--action", "enhance")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planOut), 0o600))

	out, err := execute(t, "", "optimize", "--catalog", dashboardCatalog, path)
	require.NoError(t, err)

	optimized := decodeReport(t, out)
	assert.Equal(t, 73500*time.Millisecond, optimized.EstimatedDuration)
	assert.Equal(t, decodeReport(t, planOut).BuildOrder, optimized.BuildOrder)
}

func TestOptimizeFromStdin(t *testing.T) {
	planOut, err := execute(t, "", "analyze", "--catalog", dashboardCatalog,
		"--target", "module.dashboard", "--scope", "module")
	require.NoError(t, err)

	out, err := execute(t, planOut, "optimize", "--catalog", dashboardCatalog, "-")
	require.NoError(t, err)
	assert.Equal(t, 73500*time.Millisecond, decodeReport(t, out).EstimatedDuration)
}

func TestOptimizeRejectsNonPlan(t *testing.T) {
	_, err := execute(t, "answer: 42\n", "optimize", "--catalog", dashboardCatalog, "-")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInstruction, errors.CodeOf(err))
}

func TestDeps(t *testing.T) {
	out, err := execute(t, "", "deps", "--catalog", dashboardCatalog, "module.dashboard")
	require.NoError(t, err)
	assert.Equal(t, "dashboard.widgets.stats\n", out)

	out, err = execute(t, "", "deps", "--catalog", dashboardCatalog, "dashboard.charts")
	require.NoError(t, err)
	assert.Equal(t, "No components depend on dashboard.charts\n", out)
}

func TestHotswap(t *testing.T) {
	out, err := execute(t, "", "hotswap", "--catalog", dashboardCatalog, "dashboard.widgets")
	require.NoError(t, err)
	assert.Contains(t, out, "can_hot_swap: true")
	assert.Contains(t, out, "requires_full_rebuild: false")

	out, err = execute(t, "", "hotswap", "--catalog", dashboardCatalog, "core.bridgeModule")
	require.NoError(t, err)
	assert.Contains(t, out, "can_hot_swap: false")
	assert.Contains(t, out, "requires_full_rebuild: true")

	out, err = execute(t, "", "hotswap", "--catalog", dashboardCatalog, "app.main", "--scope", "system", "--action", "update")
	require.NoError(t, err)
	assert.Contains(t, out, "requires_full_rebuild: true")
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "", "validate", "--catalog", dashboardCatalog)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "components:      6")
	assert.Contains(t, out, "system-critical: 1")
}

func TestValidateRejectsDependencyCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
components:
  - id: module.a
    level: module
    depends_on: [module.b]
  - id: module.b
    level: module
    depends_on: [module.a]
`), 0o600))

	_, err := execute(t, "", "validate", "--catalog", path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDependencyCycle, errors.CodeOf(err))
}

func TestTree(t *testing.T) {
	out, err := execute(t, "", "tree", "--catalog", dashboardCatalog)
	require.NoError(t, err)

	assert.Contains(t, out, "app.main")
	assert.Contains(t, out, "[module]")
	assert.Contains(t, out, "uninitialized")
	assert.Equal(t, 6, strings.Count(out, "\n"))
}

func TestTreeInitialize(t *testing.T) {
	out, err := execute(t, "", "tree", "--catalog", dashboardCatalog, "--initialize", "--from", "module.dashboard")
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(out, "\n"))
	assert.Equal(t, 4, strings.Count(out, "ready"))
	assert.NotContains(t, out, "app.main")
}

func TestTreeUnknownRoot(t *testing.T) {
	_, err := execute(t, "", "tree", "--catalog", dashboardCatalog, "--from", "module.ghost")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNodeNotFound, errors.CodeOf(err))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "scopeplan "))

	out, err = execute(t, "", "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)
}

func TestMetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scopeplan.prom")

	_, err := execute(t, "", "analyze", "--catalog", dashboardCatalog, "--metrics-file", path, "--target", "dashboard.charts")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scopeplan_analyses_total{scope="component"} 1`)
}

func TestConfigFileSetsCatalog(t *testing.T) {
	abs, err := filepath.Abs(dashboardCatalog)
	require.NoError(t, err)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("catalog:\n  path: "+abs+"\n"), 0o600))

	out, err := execute(t, "", "deps", "--config", cfgPath, "module.dashboard")
	require.NoError(t, err)
	assert.Equal(t, "dashboard.widgets.stats\n", out)
}

func TestDoctor(t *testing.T) {
	out, err := execute(t, "", "doctor", "--catalog", dashboardCatalog)
	require.NoError(t, err)

	assert.Contains(t, out, "dependency-graph")
	assert.Contains(t, out, "component-hierarchy")
	assert.Contains(t, out, "overall: healthy")
}

func TestDoctorReportsCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
components:
  - id: module.a
    level: module
    depends_on: [module.b]
  - id: module.b
    level: module
    depends_on: [module.a]
`), 0o600))

	out, err := execute(t, "", "doctor", "--catalog", path)
	require.Error(t, err)
	assert.Contains(t, out, "overall: unhealthy")
	assert.Contains(t, out, "module.a -> module.b -> module.a")
}
