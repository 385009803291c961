package query

import (
	"strings"
	"unicode"

	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// testEntryPointPrefixes name a symbol as a reachability root regardless of
// its exported-ness, per spec §4.8's "symbols named as test or
// entry-point".
var testEntryPointPrefixes = []string{"Test", "Benchmark", "Example", "Fuzz"}

var entryPointNames = map[string]bool{
	"main": true,
	"init": true,
}

// isExported reports whether name would be visible outside its declaring
// package under Go's capitalization convention for package-level
// identifiers — the only visibility signal the symbol model carries, since
// symbol.Symbol has no separate Visibility field (see DESIGN.md).
func isExported(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

// isEntryPointName reports whether name marks its symbol as a reachability
// root independent of exported-ness: main, init, or a Test/Benchmark/
// Example/Fuzz-prefixed function.
func isEntryPointName(name string) bool {
	if entryPointNames[name] {
		return true
	}
	for _, prefix := range testEntryPointPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// UnusedFilter restricts an Unused report by kind and/or to public symbols
// only.
type UnusedFilter struct {
	Kinds      []symbol.Kind
	PublicOnly bool
}

// Unused implements spec §4.8's dead-code detection: compute the roots
// (exported symbols, plus symbols named as a test or entry point), then
// report every symbol not reachable from any root via `references`,
// `calls`, `implements`, or `contains` (downward). The downward containment
// step is built from each symbol's Container field; EdgeContains edges in
// the graph are not consulted. This is a whole-graph traversal; it never
// touches the store or re-indexes anything.
func (b *Builder) Unused(filter UnusedFilter) []symbol.Symbol {
	all := b.graph.AllSymbols()

	childrenOf := make(map[string][]string)
	for _, s := range all {
		if s.Container != "" {
			childrenOf[s.Container] = append(childrenOf[s.Container], s.ID)
		}
	}

	visited := make(map[string]bool, len(all))
	var queue []string
	for _, s := range all {
		if isExported(s.Name) || isEntryPointName(s.Name) {
			if !visited[s.ID] {
				visited[s.ID] = true
				queue = append(queue, s.ID)
			}
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		next := b.graph.Neighbors(id, symbol.EdgeReferences, symbol.Outgoing)
		next = append(next, b.graph.Neighbors(id, symbol.EdgeCalls, symbol.Outgoing)...)
		next = append(next, b.graph.Neighbors(id, symbol.EdgeImplements, symbol.Outgoing)...)
		next = append(next, childrenOf[id]...)

		for _, nid := range next {
			if visited[nid] {
				continue
			}
			visited[nid] = true
			queue = append(queue, nid)
		}
	}

	var out []symbol.Symbol
	for _, s := range all {
		if visited[s.ID] {
			continue
		}
		if !filter.matchesKind(s.Kind) {
			continue
		}
		if filter.PublicOnly && !isExported(s.Name) {
			continue
		}
		out = append(out, *s)
	}
	return out
}

func (f UnusedFilter) matchesKind(k symbol.Kind) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, want := range f.Kinds {
		if k == want {
			return true
		}
	}
	return false
}
