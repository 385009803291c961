package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	lsifindexer "github.com/mizchi/lsif-indexer"
	"github.com/mizchi/lsif-indexer/internal/indexer"
)

func engineOpts() []lsifindexer.Option {
	return []lsifindexer.Option{
		lsifindexer.WithFallbackOnly(flagFallback),
		lsifindexer.WithParallelism(flagParallelism),
	}
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Build a symbol index for a repository from scratch",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	return runCycle("index", resolveTargetDir(args))
}

var updateCmd = &cobra.Command{
	Use:   "update [path]",
	Short: "Run one differential index cycle against an existing index",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return runCycle("update", resolveTargetDir(args))
}

func runCycle(command, root string) error {
	eng, err := lsifindexer.New(root, engineOpts()...)
	if err != nil {
		return outputError(command, err)
	}
	defer eng.Close()

	start := time.Now()
	stats, err := eng.Index(context.Background())
	if err != nil {
		return outputError(command, err)
	}
	logInfof("%s completed in %s: +%d/-%d files, +%d/-%d symbols, +%d edges",
		command, time.Since(start).Round(time.Millisecond),
		stats.FilesAdded+stats.FilesModified, stats.FilesDeleted,
		stats.SymbolsAdded, stats.SymbolsRemoved, stats.EdgesAdded)

	return outputResult(CLIResult{Command: command, Results: stats})
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Run update continuously, triggered by file-system changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := resolveTargetDir(args)
	eng, err := lsifindexer.New(root, engineOpts()...)
	if err != nil {
		return outputError("watch", err)
	}
	defer eng.Close()

	return eng.Watch(cmd.Context(), func(stats indexer.Stats, cycleErr error) {
		if cycleErr != nil {
			logWarnf("update cycle failed: %s", cycleErr)
			return
		}
		logInfof("update cycle: +%d/-%d files, +%d/-%d symbols, +%d edges",
			stats.FilesAdded+stats.FilesModified, stats.FilesDeleted,
			stats.SymbolsAdded, stats.SymbolsRemoved, stats.EdgesAdded)
	})
}
