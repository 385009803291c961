package lsifindexer

import (
	"context"
	"time"

	"github.com/mizchi/lsif-indexer/internal/indexer"
	"github.com/mizchi/lsif-indexer/internal/watch"
)

// Watch runs Update in a loop, triggered by debounced file-system events
// under the project root (spec §4.12), until ctx is cancelled. onCycle, if
// non-nil, is called after every completed Update with its outcome.
func (e *Engine) Watch(ctx context.Context, onCycle func(indexer.Stats, error)) error {
	debounce := time.Duration(e.cfg.Watch.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	w, err := watch.New(e.root, debounce, e.cfg.Ignore, func(ctx context.Context) error {
		stats, err := e.Update(ctx)
		if onCycle != nil {
			onCycle(stats, err)
		}
		return err
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
