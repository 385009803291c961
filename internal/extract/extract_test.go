package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizchi/lsif-indexer/internal/symbol"
)

func TestLanguageForFile(t *testing.T) {
	lang, ok := LanguageForFile("a/b/main.go")
	require.True(t, ok)
	assert.Equal(t, "go", lang)

	lang, ok = LanguageForFile("a/b/main.rs")
	require.True(t, ok)
	assert.Equal(t, "rust", lang)

	_, ok = LanguageForFile("a/b/README.md")
	assert.False(t, ok)
}

func TestAdapterForLanguage(t *testing.T) {
	a, ok := AdapterForLanguage("go")
	require.True(t, ok)
	assert.Equal(t, "gopls", a.Command)

	a, ok = AdapterForLanguage("typescript")
	require.True(t, ok)
	assert.Equal(t, []string{"--lsp", "--stdio"}, a.Args)

	_, ok = AdapterForLanguage("cobol")
	assert.False(t, ok)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFallbackExtractGo(t *testing.T) {
	path := writeTemp(t, "a.go", "package a\n\nfunc main() {\n\thelper()\n}\n\nfunc helper() {}\n")

	fb := NewFallback()
	require.True(t, fb.Supports(path))
	res := fb.Extract(context.Background(), path)
	require.Len(t, res.Symbols, 2)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "main", res.Symbols[0].Name)
	assert.Equal(t, symbol.KindFunction, res.Symbols[0].Kind)
	assert.Equal(t, 3, res.Symbols[0].Range.Start.Line)
	assert.Equal(t, "helper", res.Symbols[1].Name)
	assert.Equal(t, 7, res.Symbols[1].Range.Start.Line)
}

func TestFallbackExtractRustStructAndTrait(t *testing.T) {
	path := writeTemp(t, "a.rs", "pub struct Foo {}\n\npub trait Bar {}\n\nfn helper() {}\n")

	fb := NewFallback()
	res := fb.Extract(context.Background(), path)
	require.Len(t, res.Symbols, 3)
	assert.Equal(t, "Foo", res.Symbols[0].Name)
	assert.Equal(t, symbol.KindStruct, res.Symbols[0].Kind)
	assert.Equal(t, "Bar", res.Symbols[1].Name)
	assert.Equal(t, symbol.KindInterface, res.Symbols[1].Kind)
	assert.Equal(t, "helper", res.Symbols[2].Name)
}

func TestFallbackExtractPython(t *testing.T) {
	path := writeTemp(t, "a.py", "class Widget:\n    pass\n\ndef build():\n    pass\n")

	fb := NewFallback()
	res := fb.Extract(context.Background(), path)
	require.Len(t, res.Symbols, 2)
	assert.Equal(t, "Widget", res.Symbols[0].Name)
	assert.Equal(t, "build", res.Symbols[1].Name)
}

func TestFallbackExtractUnsupportedExtensionIsEmpty(t *testing.T) {
	path := writeTemp(t, "a.txt", "func main() {}\n")
	fb := NewFallback()
	assert.False(t, fb.Supports(path))
	res := fb.Extract(context.Background(), path)
	assert.True(t, res.Empty())
}

// fakeStrategy is a test double implementing Strategy without any LSP
// transport, letting pipeline ordering and fallthrough be tested in
// isolation.
type fakeStrategy struct {
	name     Source
	priority int
	result   Result
	supports bool
	calls    *int
}

func (f *fakeStrategy) Name() Source  { return f.name }
func (f *fakeStrategy) Priority() int { return f.priority }
func (f *fakeStrategy) Supports(string) bool { return f.supports }
func (f *fakeStrategy) Extract(context.Context, string) Result {
	if f.calls != nil {
		*f.calls++
	}
	return f.result
}

func TestPipelinePrefersHigherPriorityNonEmptyResult(t *testing.T) {
	lowCalls, highCalls := 0, 0
	low := &fakeStrategy{name: SourceFallback, priority: 10, supports: true, calls: &lowCalls,
		result: Result{Symbols: []symbol.Symbol{{ID: "low"}}, Source: SourceFallback}}
	high := &fakeStrategy{name: SourcePrimary, priority: 100, supports: true, calls: &highCalls,
		result: Result{Symbols: []symbol.Symbol{{ID: "high"}}, Source: SourcePrimary}}

	p := NewPipeline(low, high)
	res := p.Extract(context.Background(), "a.go")

	assert.Equal(t, "high", res.Symbols[0].ID)
	assert.Equal(t, 1, highCalls)
	assert.Equal(t, 0, lowCalls, "lower-priority strategy must not run once a higher one succeeds")
}

func TestPipelineFallsThroughOnEmptyResult(t *testing.T) {
	fallback := &fakeStrategy{name: SourceFallback, priority: 10, supports: true,
		result: Result{Symbols: []symbol.Symbol{{ID: "fb"}}, Source: SourceFallback}}
	primary := &fakeStrategy{name: SourcePrimary, priority: 100, supports: true,
		result: Result{Source: SourcePrimary}} // empty: server returned nothing

	p := NewPipeline(fallback, primary)
	res := p.Extract(context.Background(), "a.go")

	assert.Equal(t, "fb", res.Symbols[0].ID)
}

func TestPipelineSkipsUnsupportedStrategies(t *testing.T) {
	unsupported := &fakeStrategy{name: SourcePrimary, priority: 100, supports: false,
		result: Result{Symbols: []symbol.Symbol{{ID: "x"}}, Source: SourcePrimary}}
	fallback := &fakeStrategy{name: SourceFallback, priority: 10, supports: true,
		result: Result{Symbols: []symbol.Symbol{{ID: "fb"}}, Source: SourceFallback}}

	p := NewPipeline(unsupported, fallback)
	res := p.Extract(context.Background(), "a.go")
	assert.Equal(t, "fb", res.Symbols[0].ID)
}

func TestPipelineNoStrategySupportsFileYieldsEmpty(t *testing.T) {
	p := NewPipeline(&fakeStrategy{name: SourceFallback, priority: 10, supports: false})
	res := p.Extract(context.Background(), "a.unknown")
	assert.True(t, res.Empty())
}
