package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	lsifindexer "github.com/mizchi/lsif-indexer"
	"github.com/mizchi/lsif-indexer/internal/query"
	"github.com/mizchi/lsif-indexer/internal/symbol"
)

// openIndexed opens an Engine over an already-built index, for the
// read-only query commands. Queries don't index root, just the store
// rooted there, so "." resolves against the current working directory.
func openIndexed() (*lsifindexer.Engine, error) {
	return lsifindexer.New(".", engineOpts()...)
}

func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, value)
	}
	return n, nil
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the definition of the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runDefinition,
}

func runDefinition(cmd *cobra.Command, args []string) error {
	eng, err := openIndexed()
	if err != nil {
		return outputError("definition", err)
	}
	defer eng.Close()

	pos, err := parsePosition(args[1], args[2])
	if err != nil {
		return outputError("definition", err)
	}

	syms := eng.Definition(args[0], pos)
	return outputResult(CLIResult{Command: "definition", Results: syms})
}

func parsePosition(lineArg, colArg string) (symbol.Position, error) {
	line, err := parseIntArg(lineArg, "line")
	if err != nil {
		return symbol.Position{}, err
	}
	col, err := parseIntArg(colArg, "col")
	if err != nil {
		return symbol.Position{}, err
	}
	return symbol.Position{Line: line, Column: col}, nil
}

var referencesCmd = &cobra.Command{
	Use:   "references <file> <line> <col>",
	Short: "Find all references to the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runReferences,
}

func runReferences(cmd *cobra.Command, args []string) error {
	eng, err := openIndexed()
	if err != nil {
		return outputError("references", err)
	}
	defer eng.Close()

	pos, err := parsePosition(args[1], args[2])
	if err != nil {
		return outputError("references", err)
	}

	var syms []symbol.Symbol
	if sym := eng.SymbolAt(args[0], pos); sym != nil {
		syms = eng.References(sym.ID)
	}
	return outputResult(CLIResult{Command: "references", Results: syms})
}

var (
	flagKinds          string
	flagFileGlob       string
	flagSignature      string
	flagImplements     string
	flagFuzzy          bool
	flagLimit          int
	flagPublicOnly     bool
	flagHierarchyDir   string
	flagHierarchyDepth int
)

var workspaceSymbolsCmd = &cobra.Command{
	Use:   "workspace-symbols <query>",
	Short: "Search symbols across the whole workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceSymbols,
}

func init() {
	workspaceSymbolsCmd.Flags().BoolVar(&flagFuzzy, "fuzzy", false, "rank by fuzzy similarity instead of exact name match")
	workspaceSymbolsCmd.Flags().StringVar(&flagKinds, "kind", "", "comma-separated symbol kinds to filter by")
	workspaceSymbolsCmd.Flags().StringVar(&flagFileGlob, "file-glob", "", "doublestar glob the symbol's file must match")
	workspaceSymbolsCmd.Flags().StringVar(&flagSignature, "signature-contains", "", "substring the symbol's signature must contain")
	workspaceSymbolsCmd.Flags().StringVar(&flagImplements, "implements", "", "interface/trait name the symbol must implement")
	workspaceSymbolsCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum results, 0 = unbounded")
}

func parseKinds(s string) []symbol.Kind {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	kinds := make([]symbol.Kind, len(parts))
	for i, p := range parts {
		kinds[i] = symbol.Kind(strings.TrimSpace(p))
	}
	return kinds
}

func runWorkspaceSymbols(cmd *cobra.Command, args []string) error {
	eng, err := openIndexed()
	if err != nil {
		return outputError("workspace-symbols", err)
	}
	defer eng.Close()

	filter := query.SearchFilter{
		Kinds:             parseKinds(flagKinds),
		FileGlob:          flagFileGlob,
		SignatureContains: flagSignature,
		ImplementsName:    flagImplements,
	}
	syms := eng.WorkspaceSymbols(args[0], flagFuzzy, filter, flagLimit)
	return outputResult(CLIResult{Command: "workspace-symbols", Results: syms})
}

var callHierarchyCmd = &cobra.Command{
	Use:   "call-hierarchy <symbol-id>",
	Short: "Walk the call graph from a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runCallHierarchy,
}

func init() {
	callHierarchyCmd.Flags().StringVar(&flagHierarchyDir, "direction", "outgoing", "outgoing|incoming|both")
	callHierarchyCmd.Flags().IntVar(&flagHierarchyDepth, "depth", 0, "maximum depth, 0 = default (3)")
}

func parseHierarchyDirection(s string) (query.HierarchyDirection, error) {
	switch s {
	case "outgoing", "":
		return query.Outgoing, nil
	case "incoming":
		return query.Incoming, nil
	case "both":
		return query.Both, nil
	default:
		return 0, fmt.Errorf("invalid --direction %q: must be outgoing, incoming, or both", s)
	}
}

func runCallHierarchy(cmd *cobra.Command, args []string) error {
	eng, err := openIndexed()
	if err != nil {
		return outputError("call-hierarchy", err)
	}
	defer eng.Close()

	dir, err := parseHierarchyDirection(flagHierarchyDir)
	if err != nil {
		return outputError("call-hierarchy", err)
	}

	node := eng.CallHierarchy(args[0], dir, flagHierarchyDepth)
	return outputResult(CLIResult{Command: "call-hierarchy", Results: node})
}

var typeHierarchyCmd = &cobra.Command{
	Use:   "type-hierarchy <symbol-id>",
	Short: "Show a type's extends/implements relations in both directions",
	Args:  cobra.ExactArgs(1),
	RunE:  runTypeHierarchy,
}

func runTypeHierarchy(cmd *cobra.Command, args []string) error {
	eng, err := openIndexed()
	if err != nil {
		return outputError("type-hierarchy", err)
	}
	defer eng.Close()

	th := eng.TypeHierarchy(args[0])
	return outputResult(CLIResult{Command: "type-hierarchy", Results: th})
}

var unusedCmd = &cobra.Command{
	Use:   "unused",
	Short: "Find symbols unreachable from any entry point or test",
	Args:  cobra.NoArgs,
	RunE:  runUnused,
}

func init() {
	unusedCmd.Flags().StringVar(&flagKinds, "kind", "", "comma-separated symbol kinds to filter by")
	unusedCmd.Flags().BoolVar(&flagPublicOnly, "public-only", false, "only consider exported symbols as candidates")
}

func runUnused(cmd *cobra.Command, args []string) error {
	eng, err := openIndexed()
	if err != nil {
		return outputError("unused", err)
	}
	defer eng.Close()

	syms := eng.Unused(query.UnusedFilter{Kinds: parseKinds(flagKinds), PublicOnly: flagPublicOnly})
	return outputResult(CLIResult{Command: "unused", Results: syms})
}
