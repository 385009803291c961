// Command lsif-indexer drives a lsifindexer.Engine from the shell: index a
// repository, keep it updated, watch it continuously, and run the query
// operations spec §4.8 describes.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagFormat      string
	flagFallback    bool
	flagParallelism int
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "lsif-indexer",
	Short:         "Differential, LSP-backed code symbol indexer",
	Long:          "Indexes a source tree's symbol graph using pooled language-server clients (falling back to regex-based extraction), with a query engine for definitions, references, call hierarchies, workspace search, dead code, and type hierarchies.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVar(&flagFallback, "fallback-only", os.Getenv("CODEINDEX_FALLBACK_ONLY") == "1", "skip language servers, extract with regex fallback only (env: CODEINDEX_FALLBACK_ONLY=1)")
	rootCmd.PersistentFlags().IntVar(&flagParallelism, "parallelism", envInt("CODEINDEX_PARALLELISM", 0), "extraction worker ceiling, 0 = core count (env: CODEINDEX_PARALLELISM)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(definitionCmd)
	rootCmd.AddCommand(referencesCmd)
	rootCmd.AddCommand(workspaceSymbolsCmd)
	rootCmd.AddCommand(callHierarchyCmd)
	rootCmd.AddCommand(typeHierarchyCmd)
	rootCmd.AddCommand(unusedCmd)
	rootCmd.AddCommand(exportCmd)
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// resolveTargetDir returns "." or the single positional path argument.
func resolveTargetDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
