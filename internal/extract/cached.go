package extract

import (
	"context"
	"hash/fnv"
	"io"
	"os"

	"github.com/mizchi/lsif-indexer/internal/cache"
)

// CachedPipeline wraps a Pipeline with the L1/L2 cache hierarchy (spec
// §4.5): a Result is looked up by (file, content hash) before falling
// through to the underlying Pipeline, and stored back on a miss. The
// graph itself is the implicit L3 — a cache miss here still lands on an
// in-memory strategy chain, never directly on disk I/O beyond reading the
// file once to hash it.
type CachedPipeline struct {
	pipeline *Pipeline
	layered  *cache.Layered
}

// NewCachedPipeline wraps pipeline with layered, an already-constructed
// L1 (LRU) + L2 (Disk) cache.
func NewCachedPipeline(pipeline *Pipeline, layered *cache.Layered) *CachedPipeline {
	return &CachedPipeline{pipeline: pipeline, layered: layered}
}

// Extract serves a cached Result when the file's content hash hasn't
// changed since it was last cached, otherwise delegates to the wrapped
// Pipeline and caches the outcome.
func (c *CachedPipeline) Extract(ctx context.Context, file string) Result {
	hash, err := hashFileContent(file)
	if err != nil {
		return c.pipeline.Extract(ctx, file)
	}

	key := cache.Key(file, hash)
	var cached Result
	if v, hit, err := c.layered.Get(key, &cached); err == nil && hit {
		switch r := v.(type) {
		case Result:
			return r
		case *Result:
			return *r
		}
	}

	res := c.pipeline.Extract(ctx, file)
	if !res.Empty() {
		_ = c.layered.Put(key, res)
	}
	return res
}

// Invalidate drops any cached Result for file regardless of the hash it
// was stored under being unavailable here — callers (the differential
// indexer, on detecting a content change) pass the file's prior hash.
func (c *CachedPipeline) Invalidate(file string, priorHash uint64) {
	_ = c.layered.Invalidate(cache.Key(file, priorHash))
}

func hashFileContent(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := fnv.New64a()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
