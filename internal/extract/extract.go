package extract

import (
	"context"

	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// Source records which strategy produced a Result — informational only
// (used by tests and metrics, per spec §3; it never affects downstream
// behavior).
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceWorkspace Source = "workspace"
	SourceFallback  Source = "fallback"
)

// Result is a pure, language-independent extraction bundle for one file.
type Result struct {
	Symbols []symbol.Symbol
	Edges   []symbol.Edge
	Source  Source
}

// Empty reports whether a Result carries no symbols — the pipeline's
// fallthrough signal.
func (r Result) Empty() bool {
	return len(r.Symbols) == 0
}

// Strategy is one means of converting a file into symbols and edges. The
// pipeline tries strategies in descending Priority until one returns a
// non-empty Result.
type Strategy interface {
	// Name identifies the strategy for logging and the Result.Source tag.
	Name() Source
	// Priority ranks strategies; higher runs first.
	Priority() int
	// Supports reports whether this strategy can attempt the given file at
	// all (e.g. the fallback strategy supports any file with a known
	// extension; the LSP-backed strategies support only languages with a
	// running client pool).
	Supports(file string) bool
	// Extract converts file into a Result. It never returns an error to the
	// pipeline: at worst it yields an empty Result, per spec §4.6. The
	// LSP-backed strategies report each request's outcome straight to the
	// timeout policy (RecordSuccess/RecordFailure); none of it comes back
	// through this return.
	Extract(ctx context.Context, file string) Result
}
