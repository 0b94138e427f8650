package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/phpscan"
	"github.com/jward/phpscan/internal/config"
)

var (
	flagDB      string
	flagFormat  string
	flagVersion string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// cfg is loaded once by the root PersistentPreRunE.
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "phpscan",
	Short:         "Semantic scanner for PHP sources",
	Long:          "phpscan extracts classes, members, functions, variables and expressions from PHP files and keeps a SQLite index of them.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		if flagVerbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagVersion != "" {
			loaded.PHPVersion = flagVersion
		}
		if _, err := loaded.Version(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: from config, relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagVersion, "version", "", "PHP dialect: php53|php54 (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.FileName, "project file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(exprCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(checkCmd)
}

// phpVersion is the dialect chosen by --version or the config.
func phpVersion() phpscan.Version {
	v, err := cfg.Version()
	if err != nil {
		return phpscan.PHP54
	}
	return v
}

// resolveTargetDir returns the absolute path of the directory to work on.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from --db, else from the config,
// relative to repoRoot.
func resolveDBPath(repoRoot string) string {
	p := flagDB
	if p == "" {
		p = cfg.Resolve(cfg.Database)
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}

// newIndexer opens the index for root with the configured options.
func newIndexer(root string) (*phpscan.Indexer, string, error) {
	dbPath := resolveDBPath(findRepoRoot(root))
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, "", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	ix, err := phpscan.NewIndexer(dbPath,
		phpscan.WithWorkers(cfg.Workers),
		phpscan.WithIndexVersion(phpVersion()),
		phpscan.WithInclude(cfg.Include...),
		phpscan.WithExclude(cfg.Exclude...),
	)
	if err != nil {
		return nil, "", fmt.Errorf("opening index: %w", err)
	}
	return ix, dbPath, nil
}
