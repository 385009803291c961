// Package graph implements the in-memory directed multigraph of symbols and
// typed edges described by spec §4.1: O(1) lookup by id, O(1) enumeration of
// edges incident to an id, and the file-granular removal invariant (removing
// a file's symbols removes every edge incident to them, leaving no dangling
// edges).
package graph

import (
	"errors"
	"sort"
	"sync"

	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// ErrUnknownSymbol is returned by AddEdge when either endpoint is absent.
var ErrUnknownSymbol = errors.New("graph: unknown symbol")

// ErrDuplicateIncompatible is returned by AddSymbol when replacing a symbol
// would orphan children it no longer can contain (kind flips from container
// to non-container). Callers must RemoveSymbol then AddSymbol instead.
var ErrDuplicateIncompatible = errors.New("graph: incompatible replacement, would orphan children")

// edgeKey uniquely identifies one (src, dst, kind) triple — at most one such
// edge may exist, per spec invariant P6.
type edgeKey struct {
	src  string
	dst  string
	kind symbol.EdgeKind
}

// Graph is the single-writer/many-reader symbol graph. All mutation methods
// assume external synchronization serializes writers (the differential
// indexer's single committer, per spec §5); the mutex here only protects
// concurrent readers against a single in-flight writer.
type Graph struct {
	mu sync.RWMutex

	symbols map[string]*symbol.Symbol
	byFile  map[string]map[string]bool // file -> set of symbol ids

	edges    map[edgeKey]bool
	outgoing map[string]map[symbol.EdgeKind]map[string]bool // src -> kind -> set of dst
	incoming map[string]map[symbol.EdgeKind]map[string]bool // dst -> kind -> set of src
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		symbols:  make(map[string]*symbol.Symbol),
		byFile:   make(map[string]map[string]bool),
		edges:    make(map[edgeKey]bool),
		outgoing: make(map[string]map[symbol.EdgeKind]map[string]bool),
		incoming: make(map[string]map[symbol.EdgeKind]map[string]bool),
	}
}

// isContainerKind reports whether a symbol kind can own contains-children.
func isContainerKind(k symbol.Kind) bool {
	switch k {
	case symbol.KindStruct, symbol.KindInterface, symbol.KindEnum, symbol.KindModule:
		return true
	default:
		return false
	}
}

// AddSymbol inserts s, or atomically replaces the prior symbol with the same
// id. Existing edges are preserved unless replaceEdges is true. Returns
// whether s.ID was not already present (new == true means inserted, not
// replaced). A second AddSymbol with the same id and same fields is
// idempotent per spec invariant P5.
func (g *Graph) AddSymbol(s symbol.Symbol, replaceEdges bool) (isNew bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev, existed := g.symbols[s.ID]
	if existed {
		if isContainerKind(prev.Kind) && !isContainerKind(s.Kind) && g.hasChildrenLocked(prev.ID) {
			return false, ErrDuplicateIncompatible
		}
		if prev.File != s.File {
			g.removeFromFileIndexLocked(prev.File, prev.ID)
		}
	}

	cp := s
	g.symbols[s.ID] = &cp
	g.addToFileIndexLocked(s.File, s.ID)

	if existed && replaceEdges {
		g.removeIncidentEdgesLocked(s.ID)
	}

	return !existed, nil
}

// hasChildrenLocked reports whether any symbol names id as its Container.
func (g *Graph) hasChildrenLocked(id string) bool {
	for _, s := range g.symbols {
		if s.Container == id {
			return true
		}
	}
	return false
}

// RemoveSymbol removes the symbol and all edges incident to it. No-op if
// absent.
func (g *Graph) RemoveSymbol(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeSymbolLocked(id)
}

func (g *Graph) removeSymbolLocked(id string) {
	s, ok := g.symbols[id]
	if !ok {
		return
	}
	g.removeFromFileIndexLocked(s.File, id)
	g.removeIncidentEdgesLocked(id)
	delete(g.symbols, id)
}

func (g *Graph) addToFileIndexLocked(file, id string) {
	set, ok := g.byFile[file]
	if !ok {
		set = make(map[string]bool)
		g.byFile[file] = set
	}
	set[id] = true
}

func (g *Graph) removeFromFileIndexLocked(file, id string) {
	if set, ok := g.byFile[file]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(g.byFile, file)
		}
	}
}

func (g *Graph) removeIncidentEdgesLocked(id string) {
	for kind, dsts := range g.outgoing[id] {
		for dst := range dsts {
			delete(g.edges, edgeKey{id, dst, kind})
			g.removeFromAdjLocked(g.incoming, dst, kind, id)
		}
	}
	delete(g.outgoing, id)

	for kind, srcs := range g.incoming[id] {
		for src := range srcs {
			delete(g.edges, edgeKey{src, id, kind})
			g.removeFromAdjLocked(g.outgoing, src, kind, id)
		}
	}
	delete(g.incoming, id)
}

func (g *Graph) removeFromAdjLocked(adj map[string]map[symbol.EdgeKind]map[string]bool, node string, kind symbol.EdgeKind, target string) {
	if kinds, ok := adj[node]; ok {
		if set, ok := kinds[kind]; ok {
			delete(set, target)
			if len(set) == 0 {
				delete(kinds, kind)
			}
		}
		if len(kinds) == 0 {
			delete(adj, node)
		}
	}
}

// RemoveFile removes every symbol whose File equals path, and every edge
// incident to them, leaving no dangling edges (spec §3 Graph invariant).
func (g *Graph) RemoveFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := g.byFile[path]
	if len(ids) == 0 {
		return
	}
	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}
	for _, id := range idList {
		g.removeSymbolLocked(id)
	}
}

// AddEdge inserts a (src, dst, kind) edge. Idempotent: adding the same edge
// twice has no additional effect. Fails with ErrUnknownSymbol if either
// endpoint does not exist.
func (g *Graph) AddEdge(src, dst string, kind symbol.EdgeKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.symbols[src]; !ok {
		return ErrUnknownSymbol
	}
	if _, ok := g.symbols[dst]; !ok {
		return ErrUnknownSymbol
	}

	key := edgeKey{src, dst, kind}
	if g.edges[key] {
		return nil
	}
	g.edges[key] = true
	g.addAdjLocked(g.outgoing, src, kind, dst)
	g.addAdjLocked(g.incoming, dst, kind, src)
	return nil
}

func (g *Graph) addAdjLocked(adj map[string]map[symbol.EdgeKind]map[string]bool, node string, kind symbol.EdgeKind, target string) {
	kinds, ok := adj[node]
	if !ok {
		kinds = make(map[symbol.EdgeKind]map[string]bool)
		adj[node] = kinds
	}
	set, ok := kinds[kind]
	if !ok {
		set = make(map[string]bool)
		kinds[kind] = set
	}
	set[target] = true
}

// RemoveEdge deletes a specific edge, if present.
func (g *Graph) RemoveEdge(src, dst string, kind symbol.EdgeKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := edgeKey{src, dst, kind}
	if !g.edges[key] {
		return
	}
	delete(g.edges, key)
	g.removeFromAdjLocked(g.outgoing, src, kind, dst)
	g.removeFromAdjLocked(g.incoming, dst, kind, src)
}

// Symbol returns the symbol with the given id, or nil if absent.
func (g *Graph) Symbol(id string) *symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.symbols[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// SymbolsIn enumerates all symbols whose File equals the given path.
func (g *Graph) SymbolsIn(file string) []*symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := g.byFile[file]
	out := make([]*symbol.Symbol, 0, len(ids))
	for id := range ids {
		s := *g.symbols[id]
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Neighbors enumerates the endpoints of edges of the given kind in the given
// direction, relative to id.
func (g *Graph) Neighbors(id string, kind symbol.EdgeKind, dir symbol.Direction) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adj := g.outgoing
	if dir == symbol.Incoming {
		adj = g.incoming
	}
	kinds, ok := adj[id]
	if !ok {
		return nil
	}
	set, ok := kinds[kind]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// HasEdge reports whether a specific (src, dst, kind) edge exists.
func (g *Graph) HasEdge(src, dst string, kind symbol.EdgeKind) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[edgeKey{src, dst, kind}]
}

// AllSymbols returns every symbol in the graph, in no particular order.
func (g *Graph) AllSymbols() []*symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*symbol.Symbol, 0, len(g.symbols))
	for _, s := range g.symbols {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// AllEdges returns every edge in the graph, in no particular order.
func (g *Graph) AllEdges() []symbol.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]symbol.Edge, 0, len(g.edges))
	for k := range g.edges {
		out = append(out, symbol.Edge{Src: k.src, Dst: k.dst, Kind: k.kind})
	}
	return out
}

// FindByPosition returns the innermost symbol whose Range contains the given
// position, tie-broken by smallest range then by SelectionRange membership.
// Returns nil if no symbol covers the position.
func (g *Graph) FindByPosition(file string, pos symbol.Position) *symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var best *symbol.Symbol
	for id := range g.byFile[file] {
		s := g.symbols[id]
		if !s.Range.Contains(pos) {
			continue
		}
		if best == nil {
			best = s
			continue
		}
		if s.Range.Size() < best.Range.Size() {
			best = s
			continue
		}
		if s.Range.Size() == best.Range.Size() {
			sInSel := s.SelectionRange.Contains(pos)
			bestInSel := best.SelectionRange.Contains(pos)
			if sInSel && !bestInSel {
				best = s
			}
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

// Len returns the number of symbols currently in the graph.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.symbols)
}

// EdgeLen returns the number of edges currently in the graph.
func (g *Graph) EdgeLen() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}
