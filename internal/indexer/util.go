package indexer

import (
	"github.com/mizchi/lsif-indexer/internal/graph"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// allEdgeKinds enumerates every EdgeKind the graph package knows about.
// symbol.EdgeKind has no built-in enumeration (it's an open string type),
// so incident-edge collection over "every kind" needs the closed set this
// module actually produces.
var allEdgeKinds = []symbol.EdgeKind{
	symbol.EdgeDefines,
	symbol.EdgeReferences,
	symbol.EdgeCalls,
	symbol.EdgeImplements,
	symbol.EdgeExtends,
	symbol.EdgeHasType,
	symbol.EdgeReturnsType,
	symbol.EdgeTakesType,
	symbol.EdgeHasField,
	symbol.EdgeContains,
}

// incidentEdges returns every edge touching id, in either direction, across
// every kind — the graph package exposes this internally but not through
// its public API, since nothing inside it needs the full set at once.
func incidentEdges(g *graph.Graph, id string) []symbol.Edge {
	var out []symbol.Edge
	for _, kind := range allEdgeKinds {
		for _, dst := range g.Neighbors(id, kind, symbol.Outgoing) {
			out = append(out, symbol.Edge{Src: id, Dst: dst, Kind: kind})
		}
		for _, src := range g.Neighbors(id, kind, symbol.Incoming) {
			out = append(out, symbol.Edge{Src: src, Dst: id, Kind: kind})
		}
	}
	return out
}

// edgeTriple is a deduplication key for a (src, kind, dst) edge.
type edgeTriple struct {
	src  string
	kind symbol.EdgeKind
	dst  string
}
