package extract

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mizchi/lsif-indexer/internal/symbol"
	"github.com/mizchi/lsif-indexer/internal/timeoutpolicy"
)

// workspacePriority is the strategy's priority in the chain, per spec §4.6.
const workspacePriority = 90

// WorkspaceWide issues a single workspace/symbol request with an empty
// query and distributes the returned symbols per file. The first call for
// a given language populates an in-memory map; subsequent Extract calls for
// other files of the same language read from it without re-querying.
type WorkspaceWide struct {
	pools   *PoolManager
	timeout *timeoutpolicy.Policy

	mu        sync.Mutex
	byFile    map[string][]symbol.Symbol // populated once per language, keyed by file path across all languages
	processed map[string]bool            // per-session "already handed out" guard (spec §4.6)
	queried   map[string]bool            // languages for which the single workspace/symbol call has run
}

// NewWorkspaceWide builds the workspace-wide strategy.
func NewWorkspaceWide(pools *PoolManager, timeout *timeoutpolicy.Policy) *WorkspaceWide {
	return &WorkspaceWide{
		pools:     pools,
		timeout:   timeout,
		byFile:    make(map[string][]symbol.Symbol),
		processed: make(map[string]bool),
		queried:   make(map[string]bool),
	}
}

func (w *WorkspaceWide) Name() Source  { return SourceWorkspace }
func (w *WorkspaceWide) Priority() int { return workspacePriority }

func (w *WorkspaceWide) Supports(file string) bool {
	lang, ok := LanguageForFile(file)
	if !ok {
		return false
	}
	_, ok = w.pools.Pool(lang)
	return ok
}

// Extract serves file's symbols from the cached workspace-wide result,
// populating that cache on the first call per language. A file processed
// once this session is never re-emitted from the cache on a later call
// (the per-session guard). The workspace/symbol request is issued at most
// once per language for the lifetime of the instance.
func (w *WorkspaceWide) Extract(ctx context.Context, file string) Result {
	lang, ok := LanguageForFile(file)
	if !ok {
		return Result{Source: SourceWorkspace}
	}

	w.mu.Lock()
	if w.processed[file] {
		w.mu.Unlock()
		return Result{Source: SourceWorkspace}
	}
	alreadyQueried := w.queried[lang]
	w.mu.Unlock()

	if !alreadyQueried {
		w.queryWorkspace(ctx, lang)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.processed[file] = true
	syms := w.byFile[file]
	if len(syms) == 0 {
		return Result{Source: SourceWorkspace}
	}
	out := make([]symbol.Symbol, len(syms))
	copy(out, syms)
	return Result{Symbols: out, Source: SourceWorkspace}
}

// queryWorkspace issues the single workspace/symbol request for lang and
// distributes results into w.byFile. On failure or an empty response it
// marks the language as queried anyway — the pipeline's fallthrough to
// primary-file-per-file handles the gap, per spec §4.6's Hybrid strategy.
func (w *WorkspaceWide) queryWorkspace(ctx context.Context, lang string) {
	w.mu.Lock()
	if w.queried[lang] {
		w.mu.Unlock()
		return
	}
	w.queried[lang] = true
	w.mu.Unlock()

	pool, ok := w.pools.Pool(lang)
	if !ok {
		return
	}
	client, err := pool.Acquire(ctx)
	if err != nil {
		return
	}
	defer pool.Release(client)

	timeout := w.timeout.Timeout(lang, timeoutpolicy.OpWorkspaceSymbol)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var raw json.RawMessage
	err = client.Call(callCtx, "workspace/symbol", workspaceSymbolParams{Query: ""}, &raw)
	if err != nil {
		w.timeout.RecordFailure(lang, timeoutpolicy.OpWorkspaceSymbol)
		return
	}
	w.timeout.RecordSuccess(lang, timeoutpolicy.OpWorkspaceSymbol, time.Since(start))

	var flat []symbolInformation
	if err := json.Unmarshal(raw, &flat); err != nil || len(flat) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, si := range flat {
		file := uriToPath(si.Location.URI)
		w.byFile[file] = append(w.byFile[file], symbolInformationToSymbol(si, file))
	}
}

// Invalidate drops a file's cached symbols and its per-session guard, so
// stale data from before an edit is never replayed. It does not re-issue
// the workspace/symbol request: the language stays marked as queried, so
// the next Extract for file returns an empty Result (which Hybrid answers
// by falling through to primary-file extraction).
func (w *WorkspaceWide) Invalidate(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.byFile, file)
	delete(w.processed, file)
}
