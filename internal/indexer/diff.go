package indexer

import (
	"context"

	"github.com/mizchi/lsif-indexer/internal/extract"
	"github.com/mizchi/lsif-indexer/internal/store"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// symbolChanged reports whether b differs from a in any way a reader of the
// graph could observe — position, declared shape, or documentation. Two
// extractions of byte-identical content must agree here, or every cycle
// would needlessly rewrite unchanged files.
func symbolChanged(a, b symbol.Symbol) bool {
	return a.Kind != b.Kind ||
		a.Range != b.Range ||
		a.SelectionRange != b.SelectionRange ||
		a.Container != b.Container ||
		a.Signature != b.Signature ||
		a.Documentation != b.Documentation
}

// applyExtraction diffs a file's freshly extracted Result against whatever
// the graph currently holds for that path (empty, for a brand-new file) and
// mutates both the graph and the pending delta to match, per spec §4.7 step
// 4. If the file's symbol set changed in any way, it returns every symbol
// the file now owns (not just the ones that individually changed): spec
// §4.7 step 5 rebuilds relations for "files whose symbol set changed", since
// a symbol that didn't itself change can still need an outgoing edge
// re-pointed at a sibling that did (scenario 4's `main` calling a renamed
// `helper2`). A file with no change at all returns nil — nothing to redo.
func (ix *Indexer) applyExtraction(path string, hash uint64, res extract.Result, d *store.Delta, stats *Stats) []string {
	prior := ix.graph.SymbolsIn(path)
	priorByID := make(map[string]symbol.Symbol, len(prior))
	for _, s := range prior {
		priorByID[s.ID] = *s
	}

	newByID := make(map[string]symbol.Symbol, len(res.Symbols))
	for _, s := range res.Symbols {
		newByID[s.ID] = s
	}

	var owned []string
	fileChanged := false

	for id := range priorByID {
		if _, ok := newByID[id]; ok {
			continue
		}
		ix.graph.RemoveSymbol(id)
		d.RemovedSymbols = append(d.RemovedSymbols, id)
		stats.SymbolsRemoved++
		fileChanged = true
	}

	for id, s := range newByID {
		owned = append(owned, id)
		if old, ok := priorByID[id]; ok && !symbolChanged(old, s) {
			continue // byte-for-byte identical to what's already there: nothing to do
		}
		fileChanged = true
		if _, existed := priorByID[id]; existed {
			// Clear whatever stale edges this id carried before re-adding it;
			// the relations rebuild pass regenerates what still applies.
			d.RemovedSymbols = append(d.RemovedSymbols, id)
		}
		if _, err := ix.graph.AddSymbol(s, true); err != nil {
			continue
		}
		d.UpsertSymbols = append(d.UpsertSymbols, s)
		stats.SymbolsAdded++
	}

	for _, e := range res.Edges {
		if err := ix.graph.AddEdge(e.Src, e.Dst, e.Kind); err != nil {
			continue
		}
		d.UpsertEdges = append(d.UpsertEdges, e)
		stats.EdgesAdded++
	}

	d.FileRecords = append(d.FileRecords, store.FileRecord{
		Path:        path,
		ContentHash: hash,
		LastIndexed: now(),
		SymbolIDs:   owned,
	})

	if !fileChanged {
		return nil
	}
	return owned
}

// extractAndApply is the single entry point used for both Added/Modified
// files and a rename's optional bundled content change: it asks the
// extraction pipeline for the file's current symbols and folds the result
// into the graph and delta via applyExtraction.
func (ix *Indexer) extractAndApply(ctx context.Context, path string, hash uint64, d *store.Delta, stats *Stats) []string {
	res := ix.pipeline.Extract(ctx, path)
	return ix.applyExtraction(path, hash, res, d, stats)
}
