package lsifindexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mizchi/lsif-indexer/internal/cache"
	"github.com/mizchi/lsif-indexer/internal/changedetect"
	"github.com/mizchi/lsif-indexer/internal/config"
	"github.com/mizchi/lsif-indexer/internal/extract"
	"github.com/mizchi/lsif-indexer/internal/graph"
	"github.com/mizchi/lsif-indexer/internal/indexer"
	"github.com/mizchi/lsif-indexer/internal/query"
	"github.com/mizchi/lsif-indexer/internal/store"
	"github.com/mizchi/lsif-indexer/internal/telemetry"
	"github.com/mizchi/lsif-indexer/internal/timeoutpolicy"
	"github.com/mizchi/lsif-indexer/internal/vcs"
)

// Engine owns a project's store, graph, extraction pipeline, and query
// engine, and exposes the operations the CLI drives: index, update,
// definition, references, workspace-symbols, call-hierarchy, unused,
// type-hierarchy, export.
type Engine struct {
	root string
	cfg  *config.Config

	store     *store.Store
	graph     *graph.Graph
	detector  *changedetect.Detector
	pools     *extract.PoolManager
	cached    *extract.CachedPipeline
	relations *extract.Relations

	indexer   *indexer.Indexer
	query     *query.Builder
	telemetry *telemetry.Provider

	parallelism int
}

// Option configures an Engine before New finishes constructing it.
type Option func(*engineOptions)

type engineOptions struct {
	parallelism  int
	telemetry    bool
	fallbackOnly bool
}

// WithParallelism overrides the extraction worker ceiling the config file
// (or its 0 = core-count default) would otherwise set.
func WithParallelism(n int) Option {
	return func(o *engineOptions) { o.parallelism = n }
}

// WithTelemetry overrides the config file's telemetry.enabled setting.
func WithTelemetry(enabled bool) Option {
	return func(o *engineOptions) { o.telemetry = enabled }
}

// WithFallbackOnly skips the language-server strategies entirely and
// extracts every file with the regex-based Fallback strategy. Useful when
// no language server is installed, or for fast, dependency-free indexing.
func WithFallbackOnly(enabled bool) Option {
	return func(o *engineOptions) { o.fallbackOnly = enabled }
}

// New opens (creating if absent) the `.codeindex` store under root and
// wires the full pipeline: config, store, graph, VCS source, change
// detector, language-server pools, extraction pipeline (cached, per spec
// §4.5), differential indexer, and query engine.
func New(root string, opts ...Option) (*Engine, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("lsifindexer: load config: %w", err)
	}

	oo := &engineOptions{parallelism: cfg.Parallelism, telemetry: cfg.Telemetry.Enabled}
	for _, opt := range opts {
		opt(oo)
	}
	if oo.parallelism <= 0 {
		oo.parallelism = runtime.NumCPU()
	}

	if err := os.MkdirAll(config.Dir(root), 0o755); err != nil {
		return nil, fmt.Errorf("lsifindexer: create config dir: %w", err)
	}

	st, err := store.Open(config.StorePath(root))
	if err != nil {
		return nil, fmt.Errorf("lsifindexer: open store: %w", err)
	}

	g, err := st.LoadGraph()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("lsifindexer: load graph: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	source, err := vcs.OpenGitSource(absRoot)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("lsifindexer: open VCS source: %w", err)
	}
	detector := changedetect.New(source, st, absRoot)

	pools := extract.NewPoolManager("file://" + absRoot)

	timeout := timeoutpolicy.New()
	var pipeline *extract.Pipeline
	if oo.fallbackOnly {
		pipeline = extract.NewPipeline(extract.NewFallback())
	} else {
		primary := extract.NewPrimaryFile(pools, timeout)
		workspace := extract.NewWorkspaceWide(pools, timeout)
		hybrid := extract.NewHybrid(workspace, primary)
		pipeline = extract.NewPipeline(hybrid, extract.NewFallback())
	}

	l2dir := filepath.Join(config.Dir(root), "cache")
	if err := os.MkdirAll(l2dir, 0o755); err != nil {
		st.Close()
		return nil, fmt.Errorf("lsifindexer: create cache dir: %w", err)
	}
	disk, err := cache.NewDisk(l2dir, cfg.Cache.L2Bytes)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("lsifindexer: open disk cache: %w", err)
	}
	layered := cache.NewLayered(cache.NewLRU(cfg.Cache.L1Entries), disk)
	cached := extract.NewCachedPipeline(pipeline, layered)

	relations := extract.NewRelations(pools, timeout)

	scopedPipeline := &scopedExtractor{root: absRoot, inner: cached}
	scopedRel := &scopedRelations{root: absRoot, inner: relations}
	ix := indexer.New(st, g, detector, scopedPipeline, scopedRel).WithParallelism(oo.parallelism)

	tp, err := telemetry.NewProvider(telemetry.Config{Enabled: oo.telemetry, ServiceName: "lsif-indexer"})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("lsifindexer: init telemetry: %w", err)
	}

	return &Engine{
		root:        absRoot,
		cfg:         cfg,
		store:       st,
		graph:       g,
		detector:    detector,
		pools:       pools,
		cached:      cached,
		relations:   relations,
		indexer:     ix,
		query:       query.NewBuilder(g),
		telemetry:   tp,
		parallelism: oo.parallelism,
	}, nil
}

// Close releases the Engine's database, cached language-server clients, and
// telemetry exporter.
func (e *Engine) Close() error {
	var errs []error
	if err := e.pools.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.telemetry.Shutdown(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if err := e.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("lsifindexer: close: %v", errs)
	}
	return nil
}

// Query returns the Engine's query builder, for callers that want the
// internal/query API directly instead of the wrapper methods below.
func (e *Engine) Query() *query.Builder { return e.query }
