package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizchi/lsif-indexer/internal/symbol"
)

func sym(id, name string, k symbol.Kind, file string) symbol.Symbol {
	return symbol.Symbol{
		ID:   id,
		Name: name,
		Kind: k,
		File: file,
		Range: symbol.Range{
			Start: symbol.Position{Line: 1, Column: 1},
			End:   symbol.Position{Line: 5, Column: 1},
		},
		SelectionRange: symbol.Range{
			Start: symbol.Position{Line: 1, Column: 4},
			End:   symbol.Position{Line: 1, Column: 10},
		},
	}
}

func TestAddSymbol_NewVsReplace(t *testing.T) {
	g := New()
	isNew, err := g.AddSymbol(sym("a.go#1:1:main", "main", symbol.KindFunction, "a.go"), false)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = g.AddSymbol(sym("a.go#1:1:main", "main", symbol.KindFunction, "a.go"), false)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, 1, g.Len())
}

func TestAddSymbol_IdempotentObservableGraph(t *testing.T) {
	// P5: add_symbol twice with the same id produces the same observable
	// graph as a single add_symbol.
	g1 := New()
	s := sym("a.go#1:1:main", "main", symbol.KindFunction, "a.go")
	_, err := g1.AddSymbol(s, false)
	require.NoError(t, err)

	g2 := New()
	_, err = g2.AddSymbol(s, false)
	require.NoError(t, err)
	_, err = g2.AddSymbol(s, false)
	require.NoError(t, err)

	assert.Equal(t, g1.Len(), g2.Len())
	assert.Equal(t, g1.Symbol(s.ID), g2.Symbol(s.ID))
}

func TestAddSymbol_PreservesEdgesUnlessReplaceEdges(t *testing.T) {
	g := New()
	a := sym("a.go#1:1:a", "a", symbol.KindFunction, "a.go")
	b := sym("a.go#2:1:b", "b", symbol.KindFunction, "a.go")
	_, _ = g.AddSymbol(a, false)
	_, _ = g.AddSymbol(b, false)
	require.NoError(t, g.AddEdge(a.ID, b.ID, symbol.EdgeCalls))

	// Re-add a without replaceEdges: the calls edge survives.
	_, err := g.AddSymbol(a, false)
	require.NoError(t, err)
	assert.True(t, g.HasEdge(a.ID, b.ID, symbol.EdgeCalls))

	// Re-add a with replaceEdges=true: edges incident to a are dropped.
	_, err = g.AddSymbol(a, true)
	require.NoError(t, err)
	assert.False(t, g.HasEdge(a.ID, b.ID, symbol.EdgeCalls))
}

func TestAddSymbol_DuplicateIncompatible(t *testing.T) {
	g := New()
	parent := sym("a.go#1:1:S", "S", symbol.KindStruct, "a.go")
	child := sym("a.go#2:1:F", "F", symbol.KindField, "a.go")
	child.Container = parent.ID

	_, err := g.AddSymbol(parent, false)
	require.NoError(t, err)
	_, err = g.AddSymbol(child, false)
	require.NoError(t, err)

	// Replacing the struct with a non-container kind would orphan its field.
	demoted := parent
	demoted.Kind = symbol.KindVariable
	_, err = g.AddSymbol(demoted, false)
	assert.ErrorIs(t, err, ErrDuplicateIncompatible)
}

func TestAddEdge_UnknownSymbol(t *testing.T) {
	g := New()
	a := sym("a.go#1:1:a", "a", symbol.KindFunction, "a.go")
	_, _ = g.AddSymbol(a, false)
	err := g.AddEdge(a.ID, "nope", symbol.EdgeCalls)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestAddEdge_Idempotent(t *testing.T) {
	g := New()
	a := sym("a.go#1:1:a", "a", symbol.KindFunction, "a.go")
	b := sym("a.go#2:1:b", "b", symbol.KindFunction, "a.go")
	_, _ = g.AddSymbol(a, false)
	_, _ = g.AddSymbol(b, false)

	require.NoError(t, g.AddEdge(a.ID, b.ID, symbol.EdgeCalls))
	require.NoError(t, g.AddEdge(a.ID, b.ID, symbol.EdgeCalls))
	assert.Equal(t, 1, g.EdgeLen())
}

func TestRemoveFile_NoDanglingEdges(t *testing.T) {
	g := New()
	a := sym("a.go#1:1:a", "a", symbol.KindFunction, "a.go")
	b := sym("b.go#1:1:b", "b", symbol.KindFunction, "b.go")
	_, _ = g.AddSymbol(a, false)
	_, _ = g.AddSymbol(b, false)
	require.NoError(t, g.AddEdge(a.ID, b.ID, symbol.EdgeCalls))

	g.RemoveFile("a.go")

	assert.Nil(t, g.Symbol(a.ID))
	assert.NotNil(t, g.Symbol(b.ID))
	assert.Equal(t, 0, g.EdgeLen())
	assert.Empty(t, g.Neighbors(b.ID, symbol.EdgeCalls, symbol.Incoming))
}

func TestFindByPosition_InnermostWins(t *testing.T) {
	g := New()
	outer := symbol.Symbol{
		ID: "a.go#1:1:Outer", Name: "Outer", Kind: symbol.KindStruct, File: "a.go",
		Range:          symbol.Range{Start: symbol.Position{1, 1}, End: symbol.Position{10, 1}},
		SelectionRange: symbol.Range{Start: symbol.Position{1, 8}, End: symbol.Position{1, 13}},
	}
	inner := symbol.Symbol{
		ID: "a.go#3:3:Field", Name: "Field", Kind: symbol.KindField, File: "a.go",
		Range:          symbol.Range{Start: symbol.Position{3, 3}, End: symbol.Position{3, 20}},
		SelectionRange: symbol.Range{Start: symbol.Position{3, 3}, End: symbol.Position{3, 8}},
	}
	_, _ = g.AddSymbol(outer, false)
	_, _ = g.AddSymbol(inner, false)

	got := g.FindByPosition("a.go", symbol.Position{Line: 3, Column: 5})
	require.NotNil(t, got)
	assert.Equal(t, inner.ID, got.ID)

	got = g.FindByPosition("a.go", symbol.Position{Line: 1, Column: 1})
	require.NotNil(t, got)
	assert.Equal(t, outer.ID, got.ID)

	got = g.FindByPosition("a.go", symbol.Position{Line: 50, Column: 1})
	assert.Nil(t, got)
}

func TestNeighbors_DirectionAndKind(t *testing.T) {
	g := New()
	a := sym("a.go#1:1:a", "a", symbol.KindFunction, "a.go")
	b := sym("a.go#2:1:b", "b", symbol.KindFunction, "a.go")
	_, _ = g.AddSymbol(a, false)
	_, _ = g.AddSymbol(b, false)
	require.NoError(t, g.AddEdge(a.ID, b.ID, symbol.EdgeCalls))

	assert.Equal(t, []string{b.ID}, g.Neighbors(a.ID, symbol.EdgeCalls, symbol.Outgoing))
	assert.Equal(t, []string{a.ID}, g.Neighbors(b.ID, symbol.EdgeCalls, symbol.Incoming))
	assert.Empty(t, g.Neighbors(a.ID, symbol.EdgeReferences, symbol.Outgoing))
}
