package extract

import (
	"bufio"
	"context"
	"os"
	"regexp"

	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// fallbackPriority is the lowest priority in the chain: the fallback
// strategy only contributes when every LSP-backed strategy produced
// nothing (no server installed, or every prior attempt failed).
const fallbackPriority = 10

// defKeyword pairs a per-language regular expression with the symbol.Kind
// it denotes. Each pattern must capture the declared identifier in group 1.
type defKeyword struct {
	kind    symbol.Kind
	pattern *regexp.Regexp
}

// fallbackKeywords is the line-based definition-keyword table, keyed by
// language id. It produces Symbols without type information and without
// references — exactly the degraded mode spec §4.6 describes.
var fallbackKeywords = map[string][]defKeyword{
	"go": {
		{symbol.KindFunction, regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`)},
		{symbol.KindStruct, regexp.MustCompile(`^\s*type\s+([A-Za-z_]\w*)\s+struct\b`)},
		{symbol.KindInterface, regexp.MustCompile(`^\s*type\s+([A-Za-z_]\w*)\s+interface\b`)},
		{symbol.KindTypeAlias, regexp.MustCompile(`^\s*type\s+([A-Za-z_]\w*)\s*=`)},
		{symbol.KindConstant, regexp.MustCompile(`^\s*const\s+([A-Za-z_]\w*)\b`)},
		{symbol.KindVariable, regexp.MustCompile(`^\s*var\s+([A-Za-z_]\w*)\b`)},
	},
	"rust": {
		{symbol.KindFunction, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_]\w*)`)},
		{symbol.KindStruct, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_]\w*)`)},
		{symbol.KindInterface, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_]\w*)`)},
		{symbol.KindEnum, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_]\w*)`)},
		{symbol.KindConstant, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?const\s+([A-Za-z_]\w*)`)},
	},
	"python": {
		{symbol.KindFunction, regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)},
		{symbol.KindStruct, regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)`)},
	},
	"typescript": {
		{symbol.KindFunction, regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$]\w*)`)},
		{symbol.KindStruct, regexp.MustCompile(`^\s*(?:export\s+)?class\s+([A-Za-z_$]\w*)`)},
		{symbol.KindInterface, regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$]\w*)`)},
		{symbol.KindEnum, regexp.MustCompile(`^\s*(?:export\s+)?enum\s+([A-Za-z_$]\w*)`)},
		{symbol.KindTypeAlias, regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$]\w*)\s*=`)},
		{symbol.KindConstant, regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$]\w*)`)},
	},
}

// Fallback is the regex-based, language-server-free extraction strategy.
// It never fails: a file with no recognized extension or no matches simply
// yields an empty Result.
type Fallback struct{}

// NewFallback builds the fallback strategy.
func NewFallback() *Fallback { return &Fallback{} }

func (f *Fallback) Name() Source    { return SourceFallback }
func (f *Fallback) Priority() int   { return fallbackPriority }
func (f *Fallback) Supports(file string) bool {
	_, ok := LanguageForFile(file)
	return ok
}

// Extract performs a line-by-line regex scan of file, producing one Symbol
// per matched definition keyword. The symbol's column is the 1-based byte
// column where the captured identifier starts on its line, and its
// selection range spans that identifier.
func (f *Fallback) Extract(_ context.Context, file string) Result {
	lang, ok := LanguageForFile(file)
	if !ok {
		return Result{Source: SourceFallback}
	}
	keywords, ok := fallbackKeywords[lang]
	if !ok {
		return Result{Source: SourceFallback}
	}

	fh, err := os.Open(file)
	if err != nil {
		return Result{Source: SourceFallback}
	}
	defer fh.Close()

	var syms []symbol.Symbol
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		for _, kw := range keywords {
			m := kw.pattern.FindStringSubmatchIndex(text)
			if m == nil {
				continue
			}
			name := text[m[2]:m[3]]
			col := m[2] + 1
			pos := symbol.Position{Line: line, Column: col}
			end := symbol.Position{Line: line, Column: len(text) + 1}
			syms = append(syms, symbol.Symbol{
				ID:             symbol.ID(file, line, col, name),
				Name:           name,
				Kind:           kw.kind,
				File:           file,
				Range:          symbol.Range{Start: pos, End: end},
				SelectionRange: symbol.Range{Start: pos, End: symbol.Position{Line: line, Column: col + len(name)}},
			})
			break // at most one keyword match per line
		}
	}
	if syms == nil {
		return Result{Source: SourceFallback}
	}
	return Result{Symbols: syms, Source: SourceFallback}
}
