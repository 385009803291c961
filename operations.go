package lsifindexer

import (
	"context"

	"github.com/mizchi/lsif-indexer/internal/indexer"
	"github.com/mizchi/lsif-indexer/internal/query"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// Index runs the first full indexing cycle over the project (or a no-op
// resync if the store already has everything up to date) and returns the
// cycle's stats.
func (e *Engine) Index(ctx context.Context) (indexer.Stats, error) {
	return e.telemetryStage(ctx, "index", func(ctx context.Context) (indexer.Stats, error) {
		return e.indexer.Run(ctx)
	})
}

// Update runs one differential indexing cycle: detect, extract, mutate,
// commit (spec §4.7). Index and Update are the same operation — Index is
// just the name for the first call against an empty store.
func (e *Engine) Update(ctx context.Context) (indexer.Stats, error) {
	return e.telemetryStage(ctx, "update", func(ctx context.Context) (indexer.Stats, error) {
		return e.indexer.Run(ctx)
	})
}

func (e *Engine) telemetryStage(ctx context.Context, name string, fn func(context.Context) (indexer.Stats, error)) (indexer.Stats, error) {
	var stats indexer.Stats
	err := e.telemetry.Stage(ctx, name, func(ctx context.Context) error {
		var err error
		stats, err = fn(ctx)
		return err
	})
	return stats, err
}

// Definition resolves the symbol defined at (file, position) via its
// `references` edges back to the declaration, matching spec §4.8's
// goToDefinition.
func (e *Engine) Definition(file string, pos symbol.Position) []symbol.Symbol {
	return e.query.Definition(file, pos)
}

// References returns every reference site of the symbol identified by id.
func (e *Engine) References(id string) []symbol.Symbol {
	return e.query.References(id)
}

// WorkspaceSymbols searches the whole graph by name, exactly or fuzzily,
// narrowed by filter.
func (e *Engine) WorkspaceSymbols(q string, fuzzy bool, filter query.SearchFilter, limit int) []symbol.Symbol {
	return e.query.WorkspaceSymbols(q, fuzzy, filter, limit)
}

// CallHierarchy walks `calls` edges from rootID to the given direction and
// depth (0 uses the spec default of 3).
func (e *Engine) CallHierarchy(rootID string, dir query.HierarchyDirection, maxDepth int) *query.CallNode {
	return e.query.CallHierarchy(rootID, dir, maxDepth)
}

// Unused reports symbols unreachable from any exported or entry-point root.
func (e *Engine) Unused(filter query.UnusedFilter) []symbol.Symbol {
	return e.query.Unused(filter)
}

// TypeHierarchy returns id's extends/implements relations in both
// directions.
func (e *Engine) TypeHierarchy(id string) *query.TypeHierarchy {
	return e.query.TypeHierarchy(id)
}

// SymbolAt resolves the innermost symbol whose range contains pos in file,
// the position-resolution primitive the CLI's references command uses to
// turn a cursor location into a symbol id before calling References.
func (e *Engine) SymbolAt(file string, pos symbol.Position) *symbol.Symbol {
	return e.query.SymbolAt(file, pos)
}
