package extract

import "context"

// hybridPriority is the strategy's priority in the chain, per spec §4.6 —
// above workspace-wide (90) and below primary-file (100). The engine
// registers Hybrid instead of a standalone primary-file strategy, so in
// that chain it gets first refusal on every file.
const hybridPriority = 95

// Hybrid tries workspace-wide extraction first; on a non-empty response it
// keeps using the cached workspace-wide result until invalidation. On
// failure or an empty response for a given file it falls through to
// primary-file extraction for that file specifically.
type Hybrid struct {
	workspace *WorkspaceWide
	primary   *PrimaryFile
}

// NewHybrid builds the hybrid strategy over an existing WorkspaceWide and
// PrimaryFile pair (so they can also be registered standalone in the
// pipeline at their own priorities, sharing state with Hybrid).
func NewHybrid(workspace *WorkspaceWide, primary *PrimaryFile) *Hybrid {
	return &Hybrid{workspace: workspace, primary: primary}
}

func (h *Hybrid) Name() Source  { return SourceWorkspace }
func (h *Hybrid) Priority() int { return hybridPriority }

func (h *Hybrid) Supports(file string) bool {
	return h.workspace.Supports(file) || h.primary.Supports(file)
}

func (h *Hybrid) Extract(ctx context.Context, file string) Result {
	if h.workspace.Supports(file) {
		if res := h.workspace.Extract(ctx, file); !res.Empty() {
			return res
		}
	}
	if h.primary.Supports(file) {
		return h.primary.Extract(ctx, file)
	}
	return Result{Source: SourceWorkspace}
}
