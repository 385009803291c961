package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizchi/lsif-indexer/internal/cache"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

type countingStrategy struct {
	calls int
	res   Result
}

func (c *countingStrategy) Name() Source       { return SourceFallback }
func (c *countingStrategy) Priority() int      { return 0 }
func (c *countingStrategy) Supports(string) bool { return true }
func (c *countingStrategy) Extract(context.Context, string) Result {
	c.calls++
	return c.res
}

func newTestLayered(t *testing.T) *cache.Layered {
	disk, err := cache.NewDisk(t.TempDir(), 1<<20)
	require.NoError(t, err)
	return cache.NewLayered(cache.NewLRU(10), disk)
}

func TestCachedPipeline_HitAvoidsReextraction(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.go")
	require.NoError(t, os.WriteFile(file, []byte("package a\n"), 0o644))

	strat := &countingStrategy{res: Result{Symbols: []symbol.Symbol{{ID: "x"}}, Source: SourceFallback}}
	cp := NewCachedPipeline(NewPipeline(strat), newTestLayered(t))

	first := cp.Extract(context.Background(), file)
	second := cp.Extract(context.Background(), file)

	assert.Equal(t, 1, strat.calls, "second call is served from cache")
	assert.Equal(t, first, second)
}

func TestCachedPipeline_ContentChangeMisses(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.go")
	require.NoError(t, os.WriteFile(file, []byte("package a\n"), 0o644))

	strat := &countingStrategy{res: Result{Symbols: []symbol.Symbol{{ID: "x"}}, Source: SourceFallback}}
	cp := NewCachedPipeline(NewPipeline(strat), newTestLayered(t))

	cp.Extract(context.Background(), file)
	require.NoError(t, os.WriteFile(file, []byte("package a\n\nfunc f() {}\n"), 0o644))
	cp.Extract(context.Background(), file)

	assert.Equal(t, 2, strat.calls, "a changed content hash is a cache miss")
}
