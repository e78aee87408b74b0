package cmd

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/scopeplan/internal/catalog"
	"github.com/felixgeelhaar/scopeplan/internal/config"
	"github.com/felixgeelhaar/scopeplan/internal/errors"
	"github.com/felixgeelhaar/scopeplan/internal/graph"
	"github.com/felixgeelhaar/scopeplan/internal/hierarchy"
	"github.com/felixgeelhaar/scopeplan/internal/log"
	"github.com/felixgeelhaar/scopeplan/internal/metrics"
	"github.com/felixgeelhaar/scopeplan/internal/scope"
	"github.com/felixgeelhaar/scopeplan/internal/telemetry"
)

// app holds everything one command tree shares: flags, the resolved
// configuration and the observability handles created in setup.
type app struct {
	flags globalFlags

	cfg      config.Config
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	cleanups []func()
}

func newApp() *app {
	registry, m := metrics.NewRegistry()
	return &app{
		cfg:      config.Default(),
		logger:   log.Discard(),
		registry: registry,
		metrics:  m,
	}
}

// runFunc is the body of a planning command
type runFunc func(ctx context.Context, cmd *cobra.Command, args []string) error

// run wraps fn in a command span and records the command's outcome
func (a *app) run(name string, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, span := telemetry.StartCommandSpan(cmd.Context(), name)
		defer span.End()

		start := time.Now()
		err := fn(ctx, cmd, args)
		elapsed := time.Since(start)

		telemetry.RecordDuration(span, "command.duration", elapsed)
		telemetry.RecordCommand(ctx, name, elapsed, string(errors.CodeOf(err)))
		if err != nil {
			telemetry.RecordError(span, err)
			a.logger.WithError(err).Debug("command failed", "command", name)
			return err
		}
		telemetry.RecordSuccess(span)
		return nil
	}
}

// workspace is a loaded catalog with the structures derived from it
type workspace struct {
	path     string
	document *catalog.Document
	catalog  *catalog.Memory
	graph    *graph.Graph
	layout   hierarchy.Layout
}

func (a *app) catalogPath() string {
	if a.flags.catalogPath != "" {
		return a.flags.catalogPath
	}
	return a.cfg.Catalog.Path
}

func (a *app) loadWorkspace() (*workspace, error) {
	path := a.catalogPath()
	doc, err := catalog.NewFileRepository().Load(path)
	if err != nil {
		return nil, err
	}

	cat := doc.Catalog()
	ws := &workspace{
		path:     path,
		document: doc,
		catalog:  cat,
		graph:    graph.FromEntries(cat.Entries()),
		layout:   doc.Layout(),
	}
	a.logger.Debug("catalog loaded",
		"path", path,
		"components", cat.Len(),
		"edges", len(ws.graph.Edges()),
	)
	return ws, nil
}

func (a *app) analyzer(ws *workspace) *scope.Analyzer {
	opts := append(a.cfg.AnalyzerOptions(),
		scope.WithLogger(a.logger),
		scope.WithMetrics(a.metrics),
	)
	return scope.New(ws.catalog, ws.graph, ws.layout, opts...)
}

// hierarchy builds the live component tree for ws
func (a *app) hierarchy(ws *workspace) (*hierarchy.Hierarchy, error) {
	h := hierarchy.New(hierarchy.Options{
		Logger:  a.logger,
		Metrics: a.metrics,
	})
	if err := ws.document.BuildHierarchy(h, catalog.NewNodeFactory(ws.catalog)); err != nil {
		return nil, err
	}
	return h, nil
}
