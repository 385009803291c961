package indexer

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mizchi/lsif-indexer/internal/changedetect"
	"github.com/mizchi/lsif-indexer/internal/extract"
	"github.com/mizchi/lsif-indexer/internal/store"
)

// runBatch implements spec §4.7 step 4 and §5's parallel-extraction model:
// a parallel phase B that only calls the extraction pipeline (no graph
// mutation, so workers never contend on the single-writer graph), followed
// by a serial phase C that diffs and applies each file's result in
// deterministic order. Order independence of the parallel phase is exactly
// what spec §5 calls out ("per-file operations are commutative"); the serial
// phase exists only to keep the graph's single-writer discipline, not
// because ordering matters to the result.
func (ix *Indexer) runBatch(ctx context.Context, touched []changedetect.Change, d *store.Delta, stats *Stats) ([]string, error) {
	if len(touched) == 0 {
		return nil, nil
	}

	results := make([]extract.Result, len(touched))

	sem := semaphore.NewWeighted(int64(ix.parallelism))
	g, gctx := errgroup.WithContext(ctx)

	for i, c := range touched {
		i, c := i, c
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			results[i] = ix.pipeline.Extract(gctx, c.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var changedIDs []string
	for i, c := range touched {
		ids := ix.applyExtraction(c.Path, c.ContentHash, results[i], d, stats)
		changedIDs = append(changedIDs, ids...)
		switch c.Kind {
		case changedetect.Added:
			stats.FilesAdded++
		case changedetect.Modified:
			stats.FilesModified++
		}
	}
	return changedIDs, nil
}
