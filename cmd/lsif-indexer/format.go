package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mizchi/lsif-indexer/internal/indexer"
	"github.com/mizchi/lsif-indexer/internal/query"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

func formatSymbolsText(w io.Writer, syms []symbol.Symbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tFILE\tLINE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.Name, s.Kind, s.File, s.Range.Start.Line)
	}
	tw.Flush()
}

func formatStatsText(w io.Writer, stats indexer.Stats) {
	fmt.Fprintf(w, "files:   +%d ~%d -%d renamed %d\n", stats.FilesAdded, stats.FilesModified, stats.FilesDeleted, stats.FilesRenamed)
	fmt.Fprintf(w, "symbols: +%d -%d\n", stats.SymbolsAdded, stats.SymbolsRemoved)
	fmt.Fprintf(w, "edges:   +%d\n", stats.EdgesAdded)
}

func formatCallNodeText(w io.Writer, node *query.CallNode, depth int) {
	if node == nil {
		return
	}
	fmt.Fprintf(w, "%*s%s (%s) %s\n", depth*2, "", node.Symbol.Name, node.Symbol.Kind, node.Symbol.ID)
	for _, c := range node.Children {
		formatCallNodeText(w, c, depth+1)
	}
}

func formatTypeHierarchyText(w io.Writer, th *query.TypeHierarchy) {
	fmt.Fprintf(w, "%s (%s)\n", th.Symbol.Name, th.Symbol.ID)
	sections := []struct {
		label string
		rels  []query.TypeRelation
	}{
		{"extends", th.Extends},
		{"extended by", th.ExtendedBy},
		{"implements", th.Implements},
		{"implemented by", th.ImplementedBy},
	}
	for _, sec := range sections {
		if len(sec.rels) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", sec.label)
		for _, r := range sec.rels {
			fmt.Fprintf(w, "  %s (%s)\n", r.Symbol.Name, r.Symbol.ID)
		}
	}
}

// outputResultText dispatches to the appropriate text formatter based on
// the result's concrete type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)
	switch v := result.Results.(type) {
	case []symbol.Symbol:
		formatSymbolsText(w, v)
	case symbol.Symbol:
		formatSymbolsText(w, []symbol.Symbol{v})
	case *symbol.Symbol:
		if v != nil {
			formatSymbolsText(w, []symbol.Symbol{*v})
		}
	case indexer.Stats:
		formatStatsText(w, v)
	case *query.CallNode:
		formatCallNodeText(w, v, 0)
	case *query.TypeHierarchy:
		if v != nil {
			formatTypeHierarchyText(w, v)
		}
	case nil:
		// no output for an empty result
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}
