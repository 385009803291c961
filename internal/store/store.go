// Package store is the durable key-value persistence layer for the symbol
// graph (spec §4.2). It is backed by a single embedded SQLite database
// (matching the teacher's embedding choice) but the schema is a flat
// ordered key-value table, not a relational one: SQLite's TEXT PRIMARY KEY
// orders lexicographically, which gives the prefix-scan semantics the key
// layout below depends on.
//
// Key layout:
//
//	sym/<id>                        -> gob(Symbol)
//	edg/<len(src)>:<src>/<kind>/<dst> -> empty (existence = edge present)
//	file/<path>                     -> gob(FileRecord)
//	meta/<k>                        -> raw bytes
//
// Edge keys length-prefix src rather than just delimiting it with '/':
// src and dst are symbol ids built from a root-relative file path (see
// symbol.ID), which routinely contains '/' itself, so a naive
// strings.Split on '/' can't tell a path separator inside src from the
// separator between src and kind. Recording len(src) up front lets
// parseEdgeKey slice off exactly that many bytes before splitting the
// remainder into kind and dst.
package store

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// ErrCorrupt is returned when the store's schema table is missing or
// unreadable on open — the caller should rebuild the index from scratch.
var ErrCorrupt = errors.New("store: corrupt")

// ErrSchemaMismatch is returned when an existing store's schema version
// differs from the one this binary supports.
var ErrSchemaMismatch = errors.New("store: schema version mismatch")

// schemaVersion is bumped whenever the key layout above changes shape.
const schemaVersion = "1"

// FileRecord is the per-file bookkeeping described by spec §3: content hash,
// last-indexed timestamp, and the set of symbol ids the file currently owns.
type FileRecord struct {
	Path        string
	ContentHash uint64
	LastIndexed time.Time
	SymbolIDs   []string
}

// Store is the embedded key-value database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) a SQLite-backed KV store at path and
// ensures its schema is initialized and compatible.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value BLOB)`)
	if err != nil {
		return fmt.Errorf("store: create table: %w", ErrCorrupt)
	}

	existing, ok, err := s.getRaw("meta/schema-version")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !ok {
		return s.putRaw("meta/schema-version", []byte(schemaVersion))
	}
	if string(existing) != schemaVersion {
		return fmt.Errorf("%w: store has %q, binary supports %q", ErrSchemaMismatch, existing, schemaVersion)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- raw key-value primitives ---

func (s *Store) getRaw(key string) ([]byte, bool, error) {
	var val []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *Store) putRaw(key string, value []byte) error {
	_, err := s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *Store) deleteRaw(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// prefixScan returns all (key, value) pairs whose key starts with prefix, in
// ascending key order, using SQLite's half-open range trick: the upper bound
// is prefix with its last non-0xFF byte incremented and the bytes after it
// dropped (or prefix plus one 0xFF byte if prefix is all 0xFF bytes, which
// never happens for our ASCII prefixes).
func (s *Store) prefixScan(tx *sql.Tx, prefix string) (*sql.Rows, error) {
	upper := prefixUpperBound(prefix)
	q := `SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key`
	if tx != nil {
		return tx.Query(q, prefix, upper)
	}
	return s.db.Query(q, prefix, upper)
}

func prefixUpperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xFF {
			b[i]++
			return string(b[:i+1])
		}
	}
	return string(append(b, 0xFF))
}

// --- symbol keys ---

func symKey(id string) string { return "sym/" + id }

func edgeKey(src string, kind symbol.EdgeKind, dst string) string {
	return fmt.Sprintf("edg/%d:%s/%s/%s", len(src), src, kind, dst)
}

func edgePrefixBySrc(src string) string { return fmt.Sprintf("edg/%d:%s/", len(src), src) }

// parseEdgeKey reverses edgeKey, tolerating arbitrary '/' inside src or
// dst (both are symbol ids embedding a file path). Returns ok=false for
// any key that doesn't match the edg/<len>:<src>/<kind>/<dst> shape.
func parseEdgeKey(key string) (src string, kind symbol.EdgeKind, dst string, ok bool) {
	rest := strings.TrimPrefix(key, "edg/")
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", "", "", false
	}
	n, err := strconv.Atoi(rest[:colon])
	if err != nil || n < 0 {
		return "", "", "", false
	}
	afterColon := rest[colon+1:]
	if len(afterColon) < n+1 || afterColon[n] != '/' {
		return "", "", "", false
	}
	src = afterColon[:n]
	parts := strings.SplitN(afterColon[n+1:], "/", 2)
	if len(parts) != 2 {
		return "", "", "", false
	}
	return src, symbol.EdgeKind(parts[0]), parts[1], true
}

func fileKey(path string) string { return "file/" + path }

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// PutSymbol persists a single symbol under sym/<id>.
func (s *Store) PutSymbol(sym symbol.Symbol) error {
	data, err := gobEncode(sym)
	if err != nil {
		return fmt.Errorf("store: encode symbol: %w", err)
	}
	return s.putRaw(symKey(sym.ID), data)
}

// DeleteSymbol removes sym/<id>.
func (s *Store) DeleteSymbol(id string) error {
	return s.deleteRaw(symKey(id))
}

// GetSymbol reads a single symbol by id. Returns ok=false if absent.
func (s *Store) GetSymbol(id string) (symbol.Symbol, bool, error) {
	data, ok, err := s.getRaw(symKey(id))
	if err != nil || !ok {
		return symbol.Symbol{}, false, err
	}
	var sym symbol.Symbol
	if err := gobDecode(data, &sym); err != nil {
		return symbol.Symbol{}, false, fmt.Errorf("store: decode symbol %s: %w", id, err)
	}
	return sym, true, nil
}

// PutEdge records existence of a (src, kind, dst) edge.
func (s *Store) PutEdge(e symbol.Edge) error {
	return s.putRaw(edgeKey(e.Src, e.Kind, e.Dst), []byte{})
}

// DeleteEdge removes a (src, kind, dst) edge record.
func (s *Store) DeleteEdge(e symbol.Edge) error {
	return s.deleteRaw(edgeKey(e.Src, e.Kind, e.Dst))
}

// PutFileRecord persists the bookkeeping record for a file.
func (s *Store) PutFileRecord(rec FileRecord) error {
	data, err := gobEncode(rec)
	if err != nil {
		return fmt.Errorf("store: encode file record: %w", err)
	}
	return s.putRaw(fileKey(rec.Path), data)
}

// DeleteFileRecord removes the bookkeeping record for a file.
func (s *Store) DeleteFileRecord(path string) error {
	return s.deleteRaw(fileKey(path))
}

// GetFileRecord reads the bookkeeping record for a file. Returns ok=false if
// the file has never been indexed.
func (s *Store) GetFileRecord(path string) (FileRecord, bool, error) {
	data, ok, err := s.getRaw(fileKey(path))
	if err != nil || !ok {
		return FileRecord{}, false, err
	}
	var rec FileRecord
	if err := gobDecode(data, &rec); err != nil {
		return FileRecord{}, false, fmt.Errorf("store: decode file record %s: %w", path, err)
	}
	return rec, true, nil
}

// AllFileRecords returns every file record currently stored, sorted by path.
func (s *Store) AllFileRecords() ([]FileRecord, error) {
	rows, err := s.prefixScan(nil, "file/")
	if err != nil {
		return nil, fmt.Errorf("store: scan file records: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		var rec FileRecord
		if err := gobDecode(data, &rec); err != nil {
			return nil, fmt.Errorf("store: decode file record: %w", err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, rows.Err()
}

// GetMetadata reads a scalar metadata value (e.g. last-indexed revision).
func (s *Store) GetMetadata(key string) (string, bool, error) {
	data, ok, err := s.getRaw("meta/" + key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(data), true, nil
}

// SetMetadata writes a scalar metadata value.
func (s *Store) SetMetadata(key, value string) error {
	return s.putRaw("meta/"+key, []byte(value))
}

// allSymbols scans every sym/ key, used only by LoadGraph.
func (s *Store) allSymbols(tx *sql.Tx) ([]symbol.Symbol, error) {
	rows, err := s.prefixScan(tx, "sym/")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []symbol.Symbol
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, err
		}
		var sym symbol.Symbol
		if err := gobDecode(data, &sym); err != nil {
			return nil, fmt.Errorf("store: decode symbol at key %s: %w", key, err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// allEdges scans every edg/ key, used only by LoadGraph.
func (s *Store) allEdges(tx *sql.Tx) ([]symbol.Edge, error) {
	rows, err := s.prefixScan(tx, "edg/")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []symbol.Edge
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, err
		}
		src, kind, dst, ok := parseEdgeKey(key)
		if !ok {
			continue
		}
		out = append(out, symbol.Edge{Src: src, Kind: kind, Dst: dst})
	}
	return out, rows.Err()
}
