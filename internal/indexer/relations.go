package indexer

import (
	"context"

	"github.com/mizchi/lsif-indexer/internal/extract"
	"github.com/mizchi/lsif-indexer/internal/store"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// rebuildRelations implements the second half of spec §4.6: for every
// symbol whose definition changed this cycle, ask the language server for
// its references, outgoing calls, type definition, and (for interface-like
// symbols) implementations, then translate each into an edge once both
// endpoints resolve to a symbol already in the graph. A location that
// doesn't resolve to any symbol (an external dependency, a position the
// server reported imprecisely) is simply dropped — since this pass runs
// after every file in the cycle has already been folded into the graph,
// "buffered until both endpoints are known" collapses to "resolved once,
// here, or discarded", with no further cycle-spanning buffer to maintain.
func (ix *Indexer) rebuildRelations(ctx context.Context, changedIDs []string, d *store.Delta, stats *Stats) {
	if ix.relations == nil {
		return
	}

	seen := make(map[edgeTriple]bool)
	add := func(src, dst string, kind symbol.EdgeKind) {
		key := edgeTriple{src, kind, dst}
		if seen[key] {
			return
		}
		if err := ix.graph.AddEdge(src, dst, kind); err != nil {
			return
		}
		seen[key] = true
		d.UpsertEdges = append(d.UpsertEdges, symbol.Edge{Src: src, Dst: dst, Kind: kind})
		stats.EdgesAdded++
	}

	for _, id := range changedIDs {
		s := ix.graph.Symbol(id)
		if s == nil {
			continue
		}
		lang, ok := extract.LanguageForFile(s.File)
		if !ok {
			continue
		}
		pos := s.SelectionRange.Start

		for _, loc := range ix.relations.ReferencesAt(ctx, lang, s.File, pos) {
			if ref := ix.graph.FindByPosition(loc.File, loc.Pos); ref != nil {
				add(ref.ID, id, symbol.EdgeReferences)
			}
		}

		switch s.Kind {
		case symbol.KindFunction, symbol.KindMethod:
			for _, loc := range ix.relations.OutgoingCallsAt(ctx, lang, s.File, pos) {
				if callee := ix.graph.FindByPosition(loc.File, loc.Pos); callee != nil {
					add(id, callee.ID, symbol.EdgeCalls)
				}
			}
		case symbol.KindVariable, symbol.KindField, symbol.KindParameter, symbol.KindConstant:
			for _, loc := range ix.relations.TypeDefinitionAt(ctx, lang, s.File, pos) {
				if typ := ix.graph.FindByPosition(loc.File, loc.Pos); typ != nil {
					add(id, typ.ID, symbol.EdgeHasType)
				}
			}
		case symbol.KindInterface:
			for _, loc := range ix.relations.ImplementationsAt(ctx, lang, s.File, pos) {
				if impl := ix.graph.FindByPosition(loc.File, loc.Pos); impl != nil {
					add(impl.ID, id, symbol.EdgeImplements)
				}
			}
		}
	}
}
