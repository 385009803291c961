package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mizchi/lsif-indexer/internal/symbol"
	"github.com/mizchi/lsif-indexer/internal/timeoutpolicy"
)

// Location names a raw (file, position) pair the language server reported,
// before it has been resolved to a symbol id. Resolution (via
// graph.FindByPosition) is the differential indexer's job, not this
// package's — it needs the in-progress graph state this package doesn't
// have.
type Location struct {
	File string
	Pos  symbol.Position
}

// Relations issues the second-pass LSP requests spec §4.6 describes:
// references, call hierarchy, and type relations for a symbol whose
// definition was just (re-)extracted.
type Relations struct {
	pools   *PoolManager
	timeout *timeoutpolicy.Policy
}

// NewRelations builds the relations extractor over a shared pool manager
// and timeout policy.
func NewRelations(pools *PoolManager, timeout *timeoutpolicy.Policy) *Relations {
	return &Relations{pools: pools, timeout: timeout}
}

func (r *Relations) call(ctx context.Context, lang string, op timeoutpolicy.Operation, method string, params, result any) bool {
	pool, ok := r.pools.Pool(lang)
	if !ok {
		return false
	}
	client, err := pool.Acquire(ctx)
	if err != nil {
		return false
	}
	defer pool.Release(client)

	timeout := r.timeout.Timeout(lang, op)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := client.Call(callCtx, method, params, result); err != nil {
		r.timeout.RecordFailure(lang, op)
		return false
	}
	r.timeout.RecordSuccess(lang, op, time.Since(start))
	return true
}

func locationsFromRaw(raw json.RawMessage) []Location {
	// textDocument/references and definition-family responses may be a
	// single Location or a Location[]; try the array shape first since
	// it's by far the common case.
	var many []lspLocation
	if err := json.Unmarshal(raw, &many); err == nil {
		out := make([]Location, 0, len(many))
		for _, l := range many {
			out = append(out, Location{File: uriToPath(l.URI), Pos: lspPosToSymbolPos(l.Range.Start)})
		}
		return out
	}
	var one lspLocation
	if err := json.Unmarshal(raw, &one); err == nil && one.URI != "" {
		return []Location{{File: uriToPath(one.URI), Pos: lspPosToSymbolPos(one.Range.Start)}}
	}
	return nil
}

// ReferencesAt returns every reference site of the symbol defined at
// (file, pos), for building `references` edges.
func (r *Relations) ReferencesAt(ctx context.Context, lang, file string, pos symbol.Position) []Location {
	var raw json.RawMessage
	ok := r.call(ctx, lang, timeoutpolicy.OpReferences, "textDocument/references", referenceParams{
		TextDocument: textDocumentIdentifier{URI: fileURI(file)},
		Position:     symbolPosToLSP(pos),
		Context:      referenceContext{IncludeDeclaration: false},
	}, &raw)
	if !ok {
		return nil
	}
	return locationsFromRaw(raw)
}

// TypeDefinitionAt returns the defining location(s) of the type of the
// symbol at (file, pos), for building `has-type` edges.
func (r *Relations) TypeDefinitionAt(ctx context.Context, lang, file string, pos symbol.Position) []Location {
	var raw json.RawMessage
	ok := r.call(ctx, lang, timeoutpolicy.OpDefinition, "textDocument/typeDefinition", textDocumentPositionParams{
		TextDocument: textDocumentIdentifier{URI: fileURI(file)},
		Position:     symbolPosToLSP(pos),
	}, &raw)
	if !ok {
		return nil
	}
	return locationsFromRaw(raw)
}

// ImplementationsAt returns the location(s) of symbols implementing the
// interface/trait symbol at (file, pos), for building `implements` edges
// (src = implementing type, resolved by the caller from each Location; dst
// = the interface symbol being queried).
func (r *Relations) ImplementationsAt(ctx context.Context, lang, file string, pos symbol.Position) []Location {
	var raw json.RawMessage
	ok := r.call(ctx, lang, timeoutpolicy.OpDefinition, "textDocument/implementation", textDocumentPositionParams{
		TextDocument: textDocumentIdentifier{URI: fileURI(file)},
		Position:     symbolPosToLSP(pos),
	}, &raw)
	if !ok {
		return nil
	}
	return locationsFromRaw(raw)
}

// OutgoingCallsAt returns the definition locations of every function the
// symbol at (file, pos) calls, for building `calls` edges. It performs the
// required prepareCallHierarchy round trip first.
func (r *Relations) OutgoingCallsAt(ctx context.Context, lang, file string, pos symbol.Position) []Location {
	var items []callHierarchyItem
	ok := r.call(ctx, lang, timeoutpolicy.OpDefinition, "textDocument/prepareCallHierarchy", callHierarchyPrepareParams{
		TextDocument: textDocumentIdentifier{URI: fileURI(file)},
		Position:     symbolPosToLSP(pos),
	}, &items)
	if !ok || len(items) == 0 {
		return nil
	}

	var calls []callHierarchyOutgoingCall
	ok = r.call(ctx, lang, timeoutpolicy.OpDefinition, "callHierarchy/outgoingCalls", callHierarchyOutgoingCallsParams{
		Item: items[0],
	}, &calls)
	if !ok {
		return nil
	}

	out := make([]Location, 0, len(calls))
	for _, c := range calls {
		out = append(out, Location{File: uriToPath(c.To.URI), Pos: lspPosToSymbolPos(c.To.SelectionRange.Start)})
	}
	return out
}
