// Package query implements the read-only query surface over a graph.Graph:
// definition, references, type relations, workspace symbol search, call
// hierarchy, dead-code detection, and type hierarchy (spec §4.8). Every
// method reads the graph under its own internal lock and never mutates it;
// callers may query concurrently with an in-flight indexer.Run cycle, and
// since that cycle mutates the same graph in place, a query can see its
// changes before they are committed.
package query

import (
	"github.com/mizchi/lsif-indexer/internal/graph"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// Builder answers queries against a graph.Graph. It holds no store
// reference: everything it needs (symbols, edges, positions) already lives
// in memory once the graph is loaded, matching the graph-is-the-read-model
// design the indexer already establishes.
type Builder struct {
	graph *graph.Graph
}

// NewBuilder wraps g for querying.
func NewBuilder(g *graph.Graph) *Builder {
	return &Builder{graph: g}
}

// SymbolAt resolves a (file, position) pair to the innermost symbol whose
// range contains it, or nil if none does.
func (b *Builder) SymbolAt(file string, pos symbol.Position) *symbol.Symbol {
	return b.graph.FindByPosition(file, pos)
}

// Definition resolves the symbol at (file, pos) and returns every symbol it
// references (its "go to definition" targets) per spec §4.8: "resolve
// (file, position) via find_by_position to a symbol id, then look up edges
// of the relevant kind." A position that doesn't resolve to any symbol, or
// a symbol with no outgoing references edge, yields an empty slice, not an
// error.
func (b *Builder) Definition(file string, pos symbol.Position) []symbol.Symbol {
	s := b.graph.FindByPosition(file, pos)
	if s == nil {
		return nil
	}
	return b.resolveEdges(s.ID, symbol.EdgeReferences, symbol.Outgoing)
}

// References returns every symbol that references id.
func (b *Builder) References(id string) []symbol.Symbol {
	return b.resolveEdges(id, symbol.EdgeReferences, symbol.Incoming)
}

// TypeDefinitionAt resolves the symbol at (file, pos) and returns the
// type(s) it declares via an EdgeHasType edge.
func (b *Builder) TypeDefinitionAt(file string, pos symbol.Position) []symbol.Symbol {
	s := b.graph.FindByPosition(file, pos)
	if s == nil {
		return nil
	}
	return b.resolveEdges(s.ID, symbol.EdgeHasType, symbol.Outgoing)
}

// Implementations returns the concrete types implementing the interface
// symbol id.
func (b *Builder) Implementations(id string) []symbol.Symbol {
	return b.resolveEdges(id, symbol.EdgeImplements, symbol.Incoming)
}

// resolveEdges follows every kind-typed edge incident to id in dir and
// returns the neighbor symbols that still exist in the graph.
func (b *Builder) resolveEdges(id string, kind symbol.EdgeKind, dir symbol.Direction) []symbol.Symbol {
	var out []symbol.Symbol
	for _, nid := range b.graph.Neighbors(id, kind, dir) {
		if s := b.graph.Symbol(nid); s != nil {
			out = append(out, *s)
		}
	}
	return out
}
