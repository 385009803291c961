package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lsifindexer "github.com/mizchi/lsif-indexer"
)

var flagExportFormat string

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Dump the symbol graph as LSIF or a structured JSON document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "json", "lsif|json")
}

func runExport(cmd *cobra.Command, args []string) error {
	var format lsifindexer.ExportFormat
	switch flagExportFormat {
	case "lsif":
		format = lsifindexer.ExportLSIF
	case "json":
		format = lsifindexer.ExportJSON
	default:
		return outputError("export", fmt.Errorf("invalid --format %q: must be lsif or json", flagExportFormat))
	}

	eng, err := lsifindexer.New(resolveTargetDir(args), engineOpts()...)
	if err != nil {
		return outputError("export", err)
	}
	defer eng.Close()

	out, err := eng.Export(format)
	if err != nil {
		return outputError("export", err)
	}

	_, err = os.Stdout.Write(out)
	return err
}
