package indexer

import (
	"context"

	"github.com/mizchi/lsif-indexer/internal/changedetect"
	"github.com/mizchi/lsif-indexer/internal/store"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// applyRenamed implements spec §4.7 step 3 and scenario 3: every symbol
// owned by the old path gets a new id under the new path (ids embed the
// file path, so a rename always changes them), while every edge incident to
// a renamed symbol is preserved in count and kind under the remapped ids.
//
// If the rename also changed the file's content (detected via content hash,
// since changedetect collapses a rename-plus-edit into one Renamed entry),
// the remapped symbols become the "prior" baseline for a normal
// extract-and-diff pass over the new path — scenario 4's content-change
// handling, applied on top of the rename.
func (ix *Indexer) applyRenamed(ctx context.Context, c changedetect.Change, d *store.Delta, stats *Stats) []string {
	oldRec, ok, err := ix.store.GetFileRecord(c.OldPath)
	if err != nil || !ok {
		// Nothing recorded under the old path; treat the new path as a plain
		// addition instead.
		ids := ix.extractAndApply(ctx, c.Path, c.ContentHash, d, stats)
		stats.FilesAdded++
		return ids
	}

	idMap := make(map[string]string, len(oldRec.SymbolIDs))
	renamed := make([]symbol.Symbol, 0, len(oldRec.SymbolIDs))
	for _, oldID := range oldRec.SymbolIDs {
		old := ix.graph.Symbol(oldID)
		if old == nil {
			continue
		}
		newSym := *old
		newSym.File = c.Path
		newSym.ID = symbol.ID(c.Path, old.SelectionRange.Start.Line, old.SelectionRange.Start.Column, old.Name)
		idMap[oldID] = newSym.ID
		renamed = append(renamed, newSym)
	}

	seen := make(map[edgeTriple]bool)
	var oldEdges []symbol.Edge
	for _, oldID := range oldRec.SymbolIDs {
		for _, e := range incidentEdges(ix.graph, oldID) {
			key := edgeTriple{e.Src, e.Kind, e.Dst}
			if seen[key] {
				continue
			}
			seen[key] = true
			oldEdges = append(oldEdges, e)
		}
	}

	ix.graph.RemoveFile(c.OldPath)
	d.RemovedFiles = append(d.RemovedFiles, c.OldPath)

	owned := make([]string, 0, len(renamed))
	for _, s := range renamed {
		if _, err := ix.graph.AddSymbol(s, false); err != nil {
			continue
		}
		d.UpsertSymbols = append(d.UpsertSymbols, s)
		owned = append(owned, s.ID)
	}

	remap := func(id string) string {
		if mapped, ok := idMap[id]; ok {
			return mapped
		}
		return id
	}
	remapped := make(map[edgeTriple]bool)
	for _, e := range oldEdges {
		src, dst := remap(e.Src), remap(e.Dst)
		key := edgeTriple{src, e.Kind, dst}
		if remapped[key] {
			continue
		}
		if err := ix.graph.AddEdge(src, dst, e.Kind); err != nil {
			continue
		}
		remapped[key] = true
		d.UpsertEdges = append(d.UpsertEdges, symbol.Edge{Src: src, Dst: dst, Kind: e.Kind})
	}

	d.FileRecords = append(d.FileRecords, store.FileRecord{
		Path:        c.Path,
		ContentHash: oldRec.ContentHash,
		LastIndexed: now(),
		SymbolIDs:   owned,
	})
	stats.FilesRenamed++

	if c.ContentHash != oldRec.ContentHash {
		return ix.extractAndApply(ctx, c.Path, c.ContentHash, d, stats)
	}
	return nil
}
