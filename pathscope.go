package lsifindexer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mizchi/lsif-indexer/internal/extract"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// The store, graph, and change detector key everything by root-relative
// path (so an index is portable between checkouts); extraction strategies
// read real files and speak LSP file:// URIs, which need an absolute path.
// scopedExtractor and scopedRelations are the seam between the two: join
// root on the way in, rewrite paths (and, for symbols, the ids derived
// from them) back to root-relative on the way out.

type scopedExtractor struct {
	root  string
	inner interface {
		Extract(ctx context.Context, file string) extract.Result
	}
}

func (s *scopedExtractor) Extract(ctx context.Context, relPath string) extract.Result {
	abs := filepath.Join(s.root, relPath)
	return rewriteResultPath(s.inner.Extract(ctx, abs), abs, relPath)
}

// rewriteResultPath renames every Symbol whose File equals abs back to
// rel, regenerating its id (which embeds the file path) and fixing up any
// Container/Edge reference to the old id within the same Result.
func rewriteResultPath(res extract.Result, abs, rel string) extract.Result {
	if abs == rel {
		return res
	}

	idMap := make(map[string]string, len(res.Symbols))
	syms := make([]symbol.Symbol, len(res.Symbols))
	for i, sy := range res.Symbols {
		if sy.File == abs {
			newID := symbol.ID(rel, sy.Range.Start.Line, sy.Range.Start.Column, sy.Name)
			idMap[sy.ID] = newID
			sy.ID = newID
			sy.File = rel
		}
		syms[i] = sy
	}
	for i := range syms {
		if mapped, ok := idMap[syms[i].Container]; ok {
			syms[i].Container = mapped
		}
	}

	edges := make([]symbol.Edge, len(res.Edges))
	for i, e := range res.Edges {
		if mapped, ok := idMap[e.Src]; ok {
			e.Src = mapped
		}
		if mapped, ok := idMap[e.Dst]; ok {
			e.Dst = mapped
		}
		edges[i] = e
	}
	return extract.Result{Symbols: syms, Edges: edges, Source: res.Source}
}

type scopedRelations struct {
	root  string
	inner interface {
		ReferencesAt(ctx context.Context, lang, file string, pos symbol.Position) []extract.Location
		TypeDefinitionAt(ctx context.Context, lang, file string, pos symbol.Position) []extract.Location
		ImplementationsAt(ctx context.Context, lang, file string, pos symbol.Position) []extract.Location
		OutgoingCallsAt(ctx context.Context, lang, file string, pos symbol.Position) []extract.Location
	}
}

// toRel rewrites each Location's File back to root-relative when it falls
// under root; a location outside root (a standard-library or dependency
// file) is left absolute, and simply won't resolve to any symbol in
// graph.FindByPosition — the indexer already treats that as a silent drop.
func (s *scopedRelations) toRel(locs []extract.Location) []extract.Location {
	out := make([]extract.Location, len(locs))
	for i, l := range locs {
		if rel, err := filepath.Rel(s.root, l.File); err == nil && !strings.HasPrefix(rel, "..") {
			l.File = rel
		}
		out[i] = l
	}
	return out
}

func (s *scopedRelations) ReferencesAt(ctx context.Context, lang, file string, pos symbol.Position) []extract.Location {
	return s.toRel(s.inner.ReferencesAt(ctx, lang, filepath.Join(s.root, file), pos))
}

func (s *scopedRelations) TypeDefinitionAt(ctx context.Context, lang, file string, pos symbol.Position) []extract.Location {
	return s.toRel(s.inner.TypeDefinitionAt(ctx, lang, filepath.Join(s.root, file), pos))
}

func (s *scopedRelations) ImplementationsAt(ctx context.Context, lang, file string, pos symbol.Position) []extract.Location {
	return s.toRel(s.inner.ImplementationsAt(ctx, lang, filepath.Join(s.root, file), pos))
}

func (s *scopedRelations) OutgoingCallsAt(ctx context.Context, lang, file string, pos symbol.Position) []extract.Location {
	return s.toRel(s.inner.OutgoingCallsAt(ctx, lang, filepath.Join(s.root, file), pos))
}
