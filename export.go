package lsifindexer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"unicode"

	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// ExportFormat selects Export's output shape.
type ExportFormat string

const (
	// ExportJSON is a structured dump of every symbol and edge currently
	// in the graph, suitable for offline inspection or re-import by
	// tooling that doesn't speak LSIF.
	ExportJSON ExportFormat = "json"
	// ExportLSIF emits a newline-delimited JSON stream of LSIF vertices
	// and edges (metaData, project, document, range, resultSet,
	// definitionResult, moniker) covering the definitions in the graph —
	// the subset of the format a goToDefinition-capable consumer needs.
	ExportLSIF ExportFormat = "lsif"
)

// dump is the ExportJSON shape.
type dump struct {
	Symbols []symbol.Symbol `json:"symbols"`
	Edges   []symbol.Edge   `json:"edges"`
}

// Export serializes the current graph in the requested format, per spec
// §4.9's "export(format) where format is one of the standard code-index
// interchange format or a structured-data dump."
func (e *Engine) Export(format ExportFormat) ([]byte, error) {
	switch format {
	case ExportJSON:
		return e.exportJSON()
	case ExportLSIF:
		return e.exportLSIF()
	default:
		return nil, fmt.Errorf("lsifindexer: unknown export format %q", format)
	}
}

func (e *Engine) exportJSON() ([]byte, error) {
	all := e.graph.AllSymbols()
	syms := make([]symbol.Symbol, len(all))
	for i, s := range all {
		syms[i] = *s
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].File != syms[j].File {
			return syms[i].File < syms[j].File
		}
		return syms[i].ID < syms[j].ID
	})

	edges := e.graph.AllEdges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Src != edges[j].Src {
			return edges[i].Src < edges[j].Src
		}
		if edges[i].Kind != edges[j].Kind {
			return edges[i].Kind < edges[j].Kind
		}
		return edges[i].Dst < edges[j].Dst
	})

	d := dump{Symbols: syms, Edges: edges}
	return json.MarshalIndent(d, "", "  ")
}

// lsifEmitter assigns sequential integer ids to LSIF vertices/edges and
// buffers one JSON object per line, matching the format real LSIF
// indexers produce.
type lsifEmitter struct {
	buf    bytes.Buffer
	nextID int
}

func (em *lsifEmitter) emit(v map[string]any) int {
	em.nextID++
	v["id"] = em.nextID
	line, _ := json.Marshal(v)
	em.buf.Write(line)
	em.buf.WriteByte('\n')
	return em.nextID
}

func (e *Engine) exportLSIF() ([]byte, error) {
	em := &lsifEmitter{}

	em.emit(map[string]any{
		"type":        "vertex",
		"label":       "metaData",
		"version":     "0.6.0",
		"projectRoot": "file://" + e.root,
	})
	projectID := em.emit(map[string]any{
		"type":  "vertex",
		"label": "project",
		"kind":  "multi-language",
	})

	all := e.graph.AllSymbols()
	byFile := make(map[string][]*symbol.Symbol)
	for _, s := range all {
		byFile[s.File] = append(byFile[s.File], s)
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var documentIDs []int
	for _, file := range files {
		syms := byFile[file]
		sort.Slice(syms, func(i, j int) bool { return syms[i].ID < syms[j].ID })

		docID := em.emit(map[string]any{
			"type":  "vertex",
			"label": "document",
			"uri":   "file://" + file,
		})
		documentIDs = append(documentIDs, docID)

		var rangeIDs []int
		for _, s := range syms {
			rangeID := em.emit(map[string]any{
				"type":  "vertex",
				"label": "range",
				"start": map[string]int{"line": s.Range.Start.Line, "character": s.Range.Start.Column},
				"end":   map[string]int{"line": s.Range.End.Line, "character": s.Range.End.Column},
				"tag": map[string]any{
					"type": "definition",
					"text": s.Name,
					"kind": string(s.Kind),
				},
			})
			rangeIDs = append(rangeIDs, rangeID)

			resultSetID := em.emit(map[string]any{"type": "vertex", "label": "resultSet"})
			em.emit(map[string]any{
				"type":  "edge",
				"label": "next",
				"outV":  rangeID,
				"inV":   resultSetID,
			})

			defResultID := em.emit(map[string]any{"type": "vertex", "label": "definitionResult"})
			em.emit(map[string]any{
				"type":  "edge",
				"label": "textDocument/definition",
				"outV":  resultSetID,
				"inV":   defResultID,
			})
			em.emit(map[string]any{
				"type":  "edge",
				"label": "item",
				"outV":  defResultID,
				"inVs":  []int{rangeID},
				"document": docID,
			})

			monikerID := em.emit(map[string]any{
				"type":       "vertex",
				"label":      "moniker",
				"kind":       monikerKind(s.Name),
				"scheme":     "lsif-indexer",
				"identifier": s.ID,
			})
			em.emit(map[string]any{
				"type":  "edge",
				"label": "moniker",
				"outV":  resultSetID,
				"inV":   monikerID,
			})
		}

		if len(rangeIDs) > 0 {
			em.emit(map[string]any{
				"type":  "edge",
				"label": "contains",
				"outV":  docID,
				"inVs":  rangeIDs,
			})
		}
	}

	if len(documentIDs) > 0 {
		em.emit(map[string]any{
			"type":  "edge",
			"label": "contains",
			"outV":  projectID,
			"inVs":  documentIDs,
		})
	}

	return em.buf.Bytes(), nil
}

func monikerKind(name string) string {
	for _, r := range name {
		if unicode.IsUpper(r) {
			return "export"
		}
		break
	}
	return "local"
}
