// Package extract implements the pluggable symbol-extraction pipeline of
// spec §4.6: an ordered fallback chain of strategies, each converting one
// file (or a whole workspace, for the workspace-wide strategy) into
// Symbols and Edges.
package extract

import (
	"path/filepath"
	"strings"
)

// Adapter names one language's external language server: how to launch it,
// which extensions it claims, and which directory markers identify a
// project root for it. Exact command/args matter for compatibility with
// the servers the spec names.
type Adapter struct {
	Language    string
	Extensions  []string
	Command     string
	Args        []string
	RootMarkers []string
}

// BuiltinAdapters is the built-in language-adapter descriptor table, per
// spec §6. Order is not significant; LanguageForFile resolves by extension.
var BuiltinAdapters = []Adapter{
	{
		Language:    "rust",
		Extensions:  []string{".rs"},
		Command:     "rust-analyzer",
		RootMarkers: []string{"Cargo.toml"},
	},
	{
		Language:    "go",
		Extensions:  []string{".go"},
		Command:     "gopls",
		RootMarkers: []string{"go.mod"},
	},
	{
		Language:    "python",
		Extensions:  []string{".py", ".pyw"},
		Command:     "pylsp",
		RootMarkers: []string{"pyproject.toml", "setup.py"},
	},
	{
		Language:    "typescript",
		Extensions:  []string{".ts", ".tsx", ".js", ".jsx"},
		Command:     "tsgo",
		Args:        []string{"--lsp", "--stdio"},
		RootMarkers: []string{"package.json", "tsconfig.json"},
	},
}

// extToLanguage is derived once from BuiltinAdapters for fast lookup.
var extToLanguage = func() map[string]string {
	m := make(map[string]string)
	for _, a := range BuiltinAdapters {
		for _, ext := range a.Extensions {
			m[ext] = a.Language
		}
	}
	return m
}()

var adapterByLanguage = func() map[string]Adapter {
	m := make(map[string]Adapter, len(BuiltinAdapters))
	for _, a := range BuiltinAdapters {
		m[a.Language] = a
	}
	return m
}()

// LanguageForFile returns the canonical language id for a file path based
// on its extension. Returns ("", false) if unrecognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// AdapterForLanguage returns the built-in Adapter for a language id.
func AdapterForLanguage(lang string) (Adapter, bool) {
	a, ok := adapterByLanguage[lang]
	return a, ok
}
