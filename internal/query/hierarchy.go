package query

import (
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// HierarchyDirection selects which direction a CallHierarchy traversal
// walks relative to the root.
type HierarchyDirection int

const (
	Outgoing HierarchyDirection = iota
	Incoming
	Both
)

const defaultMaxDepth = 3

// CallNode is one node of a call-hierarchy tree: the symbol, and its
// children at the next depth (callees for Outgoing, callers for Incoming).
type CallNode struct {
	Symbol   symbol.Symbol
	Children []*CallNode
}

// CallHierarchy performs a bounded-depth breadth-first traversal over
// `calls` edges starting from rootID, per spec §4.8. Direction Incoming
// walks the edge reversed (callers instead of callees); Both expands each
// node in both directions. maxDepth <= 0 uses the spec's default of 3.
// Cycles are broken by a visited set: each node appears once, at its
// shallowest depth, and is never expanded twice even if reachable via
// multiple paths.
func (b *Builder) CallHierarchy(rootID string, dir HierarchyDirection, maxDepth int) *CallNode {
	root := b.graph.Symbol(rootID)
	if root == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	visited := map[string]bool{rootID: true}
	return b.buildCallNode(*root, dir, maxDepth, visited)
}

func (b *Builder) buildCallNode(s symbol.Symbol, dir HierarchyDirection, depthLeft int, visited map[string]bool) *CallNode {
	node := &CallNode{Symbol: s}
	if depthLeft <= 0 {
		return node
	}

	var neighborIDs []string
	switch dir {
	case Incoming:
		neighborIDs = b.graph.Neighbors(s.ID, symbol.EdgeCalls, symbol.Incoming)
	case Both:
		neighborIDs = append(b.graph.Neighbors(s.ID, symbol.EdgeCalls, symbol.Outgoing),
			b.graph.Neighbors(s.ID, symbol.EdgeCalls, symbol.Incoming)...)
	default:
		neighborIDs = b.graph.Neighbors(s.ID, symbol.EdgeCalls, symbol.Outgoing)
	}

	for _, nid := range neighborIDs {
		if visited[nid] {
			continue
		}
		visited[nid] = true
		child := b.graph.Symbol(nid)
		if child == nil {
			continue
		}
		node.Children = append(node.Children, b.buildCallNode(*child, dir, depthLeft-1, visited))
	}
	return node
}

// TypeRelation pairs a related type symbol with the edge kind connecting it
// to the queried type.
type TypeRelation struct {
	Symbol symbol.Symbol
	Kind   symbol.EdgeKind
}

// TypeHierarchy is the full view of a type symbol's hierarchy in both
// directions of both `extends` and `implements`.
type TypeHierarchy struct {
	Symbol        symbol.Symbol
	Extends       []TypeRelation // parent types this type extends
	ExtendedBy    []TypeRelation // child types that extend this type
	Implements    []TypeRelation // interfaces this type implements
	ImplementedBy []TypeRelation // types that implement this interface
}

// TypeHierarchy traverses `extends` and `implements` edges up and down from
// id, per spec §4.8. Returns nil if id does not resolve to a symbol.
func (b *Builder) TypeHierarchy(id string) *TypeHierarchy {
	s := b.graph.Symbol(id)
	if s == nil {
		return nil
	}
	return &TypeHierarchy{
		Symbol:        *s,
		Extends:       b.relations(id, symbol.EdgeExtends, symbol.Outgoing),
		ExtendedBy:    b.relations(id, symbol.EdgeExtends, symbol.Incoming),
		Implements:    b.relations(id, symbol.EdgeImplements, symbol.Outgoing),
		ImplementedBy: b.relations(id, symbol.EdgeImplements, symbol.Incoming),
	}
}

func (b *Builder) relations(id string, kind symbol.EdgeKind, dir symbol.Direction) []TypeRelation {
	var out []TypeRelation
	for _, nid := range b.graph.Neighbors(id, kind, dir) {
		if s := b.graph.Symbol(nid); s != nil {
			out = append(out, TypeRelation{Symbol: *s, Kind: kind})
		}
	}
	return out
}
