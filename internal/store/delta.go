package store

import (
	"database/sql"
	"fmt"

	"github.com/mizchi/lsif-indexer/internal/graph"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// Delta is one differential-indexer commit: the set of symbol and edge
// mutations produced by re-extracting a batch of changed files, plus the
// file records that own them. Applying a Delta is one atomic transaction
// (spec §4.7's single-commit-per-cycle invariant).
type Delta struct {
	RemovedFiles   []string
	RemovedSymbols []string
	UpsertSymbols  []symbol.Symbol
	RemovedEdges   []symbol.Edge
	UpsertEdges    []symbol.Edge
	FileRecords    []FileRecord
}

// LoadGraph reconstructs a *graph.Graph from every sym/ and edg/ entry
// currently persisted. Used on startup and by Update to seed the in-memory
// graph the differential indexer mutates.
func (s *Store) LoadGraph() (*graph.Graph, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	syms, err := s.allSymbols(tx)
	if err != nil {
		return nil, fmt.Errorf("store: load symbols: %w", err)
	}
	edges, err := s.allEdges(tx)
	if err != nil {
		return nil, fmt.Errorf("store: load edges: %w", err)
	}

	g := graph.New()
	for _, sym := range syms {
		if _, err := g.AddSymbol(sym, false); err != nil {
			return nil, fmt.Errorf("store: rebuild graph: %w", err)
		}
	}
	for _, e := range edges {
		// An edge whose endpoint symbol was deleted out from under it (e.g.
		// an interrupted prior commit) is skipped rather than failing the
		// whole load: ApplyDelta's ordering keeps this from happening in
		// practice, but LoadGraph must tolerate a store written by an older,
		// less careful writer.
		if err := g.AddEdge(e.Src, e.Dst, e.Kind); err != nil {
			continue
		}
	}
	return g, tx.Commit()
}

// ApplyDelta persists one differential-indexer commit as a single
// transaction: removed files' symbols/edges/records disappear, then upserts
// and new edges are written, and finally the file records are updated. If
// any step fails the whole transaction rolls back, leaving the store exactly
// as it was before the call.
func (s *Store) ApplyDelta(d Delta) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	for _, path := range d.RemovedFiles {
		if err := s.removeFileLocked(tx, path); err != nil {
			return fmt.Errorf("store: remove file %s: %w", path, err)
		}
	}
	if len(d.RemovedSymbols) > 0 {
		owned := make(map[string]bool, len(d.RemovedSymbols))
		for _, id := range d.RemovedSymbols {
			owned[id] = true
		}
		if err := s.removeSymbolsLocked(tx, owned); err != nil {
			return fmt.Errorf("store: remove symbols: %w", err)
		}
	}
	for _, sym := range d.UpsertSymbols {
		data, err := gobEncode(sym)
		if err != nil {
			return fmt.Errorf("store: encode symbol %s: %w", sym.ID, err)
		}
		if _, err := tx.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, symKey(sym.ID), data); err != nil {
			return fmt.Errorf("store: upsert symbol %s: %w", sym.ID, err)
		}
	}
	for _, e := range d.RemovedEdges {
		if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, edgeKey(e.Src, e.Kind, e.Dst)); err != nil {
			return fmt.Errorf("store: remove edge: %w", err)
		}
	}
	for _, e := range d.UpsertEdges {
		if _, err := tx.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, edgeKey(e.Src, e.Kind, e.Dst), []byte{}); err != nil {
			return fmt.Errorf("store: upsert edge: %w", err)
		}
	}
	for _, rec := range d.FileRecords {
		data, err := gobEncode(rec)
		if err != nil {
			return fmt.Errorf("store: encode file record %s: %w", rec.Path, err)
		}
		if _, err := tx.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fileKey(rec.Path), data); err != nil {
			return fmt.Errorf("store: upsert file record %s: %w", rec.Path, err)
		}
	}

	return tx.Commit()
}

// removeFileLocked deletes the file record and every symbol/edge it owns,
// within tx. It reads the file's symbol-id set from its FileRecord rather
// than re-deriving ownership from the graph, so it can run standalone
// against the store.
func (s *Store) removeFileLocked(tx *sql.Tx, path string) error {
	var data []byte
	err := tx.QueryRow(`SELECT value FROM kv WHERE key = ?`, fileKey(path)).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	var rec FileRecord
	if err := gobDecode(data, &rec); err != nil {
		return fmt.Errorf("decode file record: %w", err)
	}

	owned := make(map[string]bool, len(rec.SymbolIDs))
	for _, id := range rec.SymbolIDs {
		owned[id] = true
	}
	if err := s.removeSymbolsLocked(tx, owned); err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM kv WHERE key = ?`, fileKey(path))
	return err
}

// removeSymbolsLocked deletes each id's sym/ key, its outgoing edges, and any
// edge pointing at it from outside the set, within tx. It's the shared core
// of whole-file removal (removeFileLocked) and single-symbol removal (a
// RemovedSymbols entry in a Delta, for the case where a file's other symbols
// are untouched).
func (s *Store) removeSymbolsLocked(tx *sql.Tx, ids map[string]bool) error {
	for id := range ids {
		if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, symKey(id)); err != nil {
			return err
		}
		rows, err := tx.Query(`SELECT key FROM kv WHERE key >= ? AND key < ?`,
			edgePrefixBySrc(id), prefixUpperBound(edgePrefixBySrc(id)))
		if err != nil {
			return err
		}
		var keys []string
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return err
			}
			keys = append(keys, k)
		}
		rows.Close()
		for _, k := range keys {
			if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, k); err != nil {
				return err
			}
		}
	}

	// Edges keyed by a src outside the removed set but pointing at one of
	// its symbols (dst) aren't reachable via the prefix scan above, since
	// the key layout orders by src first. Sweep the full edg/ range once
	// and drop anything whose dst fell in the removed set.
	if len(ids) == 0 {
		return nil
	}
	rows, err := tx.Query(`SELECT key FROM kv WHERE key >= ? AND key < ?`, "edg/", prefixUpperBound("edg/"))
	if err != nil {
		return err
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return err
		}
		_, _, dst, ok := parseEdgeKey(k)
		if ok && ids[dst] {
			keys = append(keys, k)
		}
	}
	rows.Close()
	for _, k := range keys {
		if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, k); err != nil {
			return err
		}
	}
	return nil
}
