package extract

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"time"

	"github.com/mizchi/lsif-indexer/internal/lspclient"
	"github.com/mizchi/lsif-indexer/internal/symbol"
	"github.com/mizchi/lsif-indexer/internal/timeoutpolicy"
)

// primaryPriority is the strategy's priority in the chain, per spec §4.6.
const primaryPriority = 100

// PrimaryFile opens a file in a pooled language-server client and requests
// its hierarchical symbol tree via textDocument/documentSymbol, converting
// the result into Symbols and parent->child `contains` edges.
type PrimaryFile struct {
	pools   *PoolManager
	timeout *timeoutpolicy.Policy
}

// NewPrimaryFile builds the primary-file strategy over a shared pool
// manager and adaptive-timeout policy.
func NewPrimaryFile(pools *PoolManager, timeout *timeoutpolicy.Policy) *PrimaryFile {
	return &PrimaryFile{pools: pools, timeout: timeout}
}

func (p *PrimaryFile) Name() Source  { return SourcePrimary }
func (p *PrimaryFile) Priority() int { return primaryPriority }

func (p *PrimaryFile) Supports(file string) bool {
	lang, ok := LanguageForFile(file)
	if !ok {
		return false
	}
	_, ok = p.pools.Pool(lang)
	return ok
}

// Extract never returns an error per spec §4.6 — any LspRequestFailed
// degrades to an empty Result so the pipeline falls through.
func (p *PrimaryFile) Extract(ctx context.Context, file string) Result {
	lang, ok := LanguageForFile(file)
	if !ok {
		return Result{Source: SourcePrimary}
	}
	pool, ok := p.pools.Pool(lang)
	if !ok {
		return Result{Source: SourcePrimary}
	}

	client, err := pool.Acquire(ctx)
	if err != nil {
		return Result{Source: SourcePrimary}
	}
	defer pool.Release(client)

	content, err := os.ReadFile(file)
	if err != nil {
		return Result{Source: SourcePrimary}
	}
	uri := fileURI(file)
	if err := client.Notify("textDocument/didOpen", didOpenParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: lang, Version: 1, Text: string(content)},
	}); err != nil {
		return Result{Source: SourcePrimary}
	}

	timeout := p.timeout.Timeout(lang, timeoutpolicy.OpDocumentSymbol)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var raw json.RawMessage
	err = client.Call(callCtx, "textDocument/documentSymbol", documentSymbolParams{
		TextDocument: textDocumentIdentifier{URI: uri},
	}, &raw)
	if err != nil {
		p.timeout.RecordFailure(lang, timeoutpolicy.OpDocumentSymbol)
		return Result{Source: SourcePrimary}
	}
	p.timeout.RecordSuccess(lang, timeoutpolicy.OpDocumentSymbol, time.Since(start))

	syms, edges, ok := decodeDocumentSymbolResponse(raw, file)
	if !ok {
		return Result{Source: SourcePrimary}
	}
	return Result{Symbols: syms, Edges: edges, Source: SourcePrimary}
}

// decodeDocumentSymbolResponse accepts either the hierarchical
// DocumentSymbol[] shape or the flat SymbolInformation[] shape, since
// servers are free to report either.
func decodeDocumentSymbolResponse(raw json.RawMessage, file string) ([]symbol.Symbol, []symbol.Edge, bool) {
	var hierarchy []documentSymbolNode
	if err := json.Unmarshal(raw, &hierarchy); err == nil && len(hierarchy) > 0 {
		var syms []symbol.Symbol
		var edges []symbol.Edge
		for _, node := range hierarchy {
			walkDocumentSymbol(node, file, "", &syms, &edges)
		}
		return syms, edges, true
	}

	var flat []symbolInformation
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		syms := make([]symbol.Symbol, 0, len(flat))
		for _, si := range flat {
			syms = append(syms, symbolInformationToSymbol(si, file))
		}
		return syms, nil, true
	}
	return nil, nil, false
}

func walkDocumentSymbol(node documentSymbolNode, file, container string, out *[]symbol.Symbol, edges *[]symbol.Edge) {
	start := lspPosToSymbolPos(node.SelectionRange.Start)
	s := symbol.Symbol{
		ID:             symbol.ID(file, start.Line, start.Column, node.Name),
		Name:           node.Name,
		Kind:           symbol.Kind(lspKindToSymbolKindFor(node.Kind)),
		File:           file,
		Range:          lspRangeToSymbolRange(node.Range),
		SelectionRange: lspRangeToSymbolRange(node.SelectionRange),
		Container:      container,
		Signature:      node.Detail,
	}
	*out = append(*out, s)
	if container != "" {
		*edges = append(*edges, symbol.Edge{Src: container, Dst: s.ID, Kind: symbol.EdgeContains})
	}
	for _, child := range node.Children {
		walkDocumentSymbol(child, file, s.ID, out, edges)
	}
}

func symbolInformationToSymbol(si symbolInformation, fallbackFile string) symbol.Symbol {
	file := fallbackFile
	if u, err := url.Parse(si.Location.URI); err == nil && u.Path != "" {
		file = u.Path
	}
	start := lspPosToSymbolPos(si.Location.Range.Start)
	return symbol.Symbol{
		ID:             symbol.ID(file, start.Line, start.Column, si.Name),
		Name:           si.Name,
		Kind:           symbol.Kind(lspKindToSymbolKindFor(si.Kind)),
		File:           file,
		Range:          lspRangeToSymbolRange(si.Location.Range),
		SelectionRange: lspRangeToSymbolRange(si.Location.Range),
	}
}

// lspPosToSymbolPos converts a 0-based LSP position to the 1-based
// symbol.Position convention.
func lspPosToSymbolPos(p lspPosition) symbol.Position {
	return symbol.Position{Line: p.Line + 1, Column: p.Character + 1}
}

func lspRangeToSymbolRange(r lspRange) symbol.Range {
	return symbol.Range{Start: lspPosToSymbolPos(r.Start), End: lspPosToSymbolPos(r.End)}
}

func symbolPosToLSP(p symbol.Position) lspPosition {
	return lspPosition{Line: p.Line - 1, Character: p.Column - 1}
}

// fileURI renders an absolute path as a file:// URI. Paths here are always
// workspace-relative or absolute on disk; lspclient never needs to resolve
// a URI back to a path other than through this same convention.
func fileURI(path string) string {
	return "file://" + path
}

func uriToPath(uri string) string {
	if u, err := url.Parse(uri); err == nil {
		return u.Path
	}
	return uri
}
