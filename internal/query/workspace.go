package query

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mizchi/lsif-indexer/internal/fuzzy"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// SearchFilter narrows a WorkspaceSymbols call, per spec §4.8's "optional
// filters: symbol kind, file glob, return-type signature substring,
// parameter-type substring, implemented interface/trait name, field-type
// substring." The model carries a single free-form Signature string per
// symbol rather than separately structured return/parameter/field types
// (see DESIGN.md), so the single SignatureContains filter below serves for
// return-type, parameter-type and field-type substrings alike; there are no
// separate fields for them.
type SearchFilter struct {
	Kinds             []symbol.Kind
	FileGlob          string
	SignatureContains string
	ImplementsName    string // interface/trait name this symbol must implement
}

// WorkspaceSymbols implements spec §4.8's exact and fuzzy search modes.
// fuzzy selects fuzzy ranking (internal/fuzzy); when false, only exact
// (case-sensitive) name matches are returned. limit bounds the result size
// after ranking; 0 means unbounded.
func (b *Builder) WorkspaceSymbols(q string, fuzzyMode bool, filter SearchFilter, limit int) []symbol.Symbol {
	all := b.graph.AllSymbols()

	var matched []symbol.Symbol
	if fuzzyMode {
		names := make([]string, len(all))
		for i, s := range all {
			names[i] = s.Name
		}
		ranked := fuzzy.Rank(q, names, fuzzy.Threshold)
		scoreByName := make(map[string]float64, len(ranked))
		for _, c := range ranked {
			scoreByName[c.Name] = c.Score
		}
		for _, s := range all {
			if _, ok := scoreByName[s.Name]; ok {
				matched = append(matched, *s)
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			si, sj := scoreByName[matched[i].Name], scoreByName[matched[j].Name]
			if si != sj {
				return si > sj
			}
			if len(matched[i].Name) != len(matched[j].Name) {
				return len(matched[i].Name) < len(matched[j].Name)
			}
			return matched[i].File < matched[j].File
		})
	} else {
		for _, s := range all {
			if s.Name == q {
				matched = append(matched, *s)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].File < matched[j].File })
	}

	out := matched[:0:0]
	for _, s := range matched {
		if filter.matches(b, s) {
			out = append(out, s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f SearchFilter) matches(b *Builder, s symbol.Symbol) bool {
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if s.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.FileGlob != "" {
		ok, err := doublestar.Match(f.FileGlob, s.File)
		if err != nil || !ok {
			return false
		}
	}
	if f.SignatureContains != "" && !strings.Contains(s.Signature, f.SignatureContains) {
		return false
	}
	if f.ImplementsName != "" {
		found := false
		for _, iface := range b.resolveEdges(s.ID, symbol.EdgeImplements, symbol.Outgoing) {
			if iface.Name == f.ImplementsName {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
