package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/phpscan"
)

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a PHP project",
	Long:  "Scans every matching PHP file under path and writes the declarations to the SQLite index. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index a PHP project and keep the index fresh",
	Long:  "Indexes path, then watches it and reindexes changed files until interrupted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	if flagForce {
		dbPath := resolveDBPath(findRepoRoot(targetDir))
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	ix, dbPath, err := newIndexer(targetDir)
	if err != nil {
		return err
	}
	defer ix.Close()

	stats, err := ix.IndexDirectory(contextOrBackground(cmd), targetDir)
	printIndexStats(targetDir, stats, time.Since(start))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	ix, dbPath, err := newIndexer(targetDir)
	if err != nil {
		return err
	}
	defer ix.Close()

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching %s (database: %s)\n", targetDir, dbPath)
	last := time.Now()
	err = ix.Watch(ctx, targetDir, cfg.Watch.Debounce, func(stats phpscan.IndexStats, err error) {
		printIndexStats(targetDir, stats, time.Since(last))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		last = time.Now()
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("watching: %w", err)
	}
	return nil
}

func printIndexStats(dir string, stats phpscan.IndexStats, took time.Duration) {
	fmt.Fprintf(os.Stderr, "Indexed %s in %s (scanned: %d, skipped: %d, failed: %d, removed: %d)\n",
		dir,
		took.Round(time.Millisecond),
		stats.Scanned,
		stats.Skipped,
		stats.Failed,
		stats.Removed,
	)
}

// contextOrBackground guards commands run outside Execute, where Cobra
// leaves the context nil.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
