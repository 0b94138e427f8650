package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/jward/phpscan"
	"github.com/jward/phpscan/internal/runtime"
)

var flagRules string

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Run Risor lint rules over a PHP project",
	Long:  "Scans every matching PHP file under path and runs each *.risor rule against its declarations. When an index exists, rules can query it.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagRules, "rules", "", "rules directory (default: from config)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	rulesDir := resolveRulesDir(targetDir)
	if _, err := os.Stat(rulesDir); err != nil {
		return fmt.Errorf("rules directory not found: %s", rulesDir)
	}

	files, err := phpFiles(targetDir, cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}

	opts := []runtime.Option{
		runtime.WithVersion(phpVersion()),
		runtime.WithLibDir(rulesDir),
	}
	dbPath := resolveDBPath(findRepoRoot(targetDir))
	if _, err := os.Stat(dbPath); err == nil {
		ix, err := phpscan.NewIndexer(dbPath)
		if err != nil {
			return fmt.Errorf("opening index: %w", err)
		}
		defer ix.Close()
		opts = append(opts, runtime.WithStore(ix.Store()))
	}
	rt := runtime.New(opts...)

	p := phpscan.NewParser(phpscan.WithVersion(phpVersion()))
	c := phpscan.NewCollector()
	c.Register(p, true, true, true, true, false)

	ctx := contextOrBackground(cmd)
	findings := []runtime.Finding{}
	var errs []error
	for _, path := range files {
		c.Reset()
		src, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res := p.Scan(ctx, path, src)
		if !res.Success {
			findings = append(findings, runtime.Finding{File: path, Line: res.LineNumber, Rule: "syntax", Message: res.Error})
			continue
		}
		found, err := rt.CheckDir(ctx, path, &c.Declarations, rulesDir)
		if err != nil {
			errs = append(errs, err)
		}
		findings = append(findings, found...)
	}

	fmt.Fprintf(os.Stderr, "Checked %d file(s) in %s (%d finding(s))\n",
		len(files), time.Since(start).Round(time.Millisecond), len(findings))
	if err := outputResult(CLIResult{Command: "check", Results: findings, TotalCount: count(len(findings))}); err != nil {
		return err
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if len(findings) > 0 {
		return fmt.Errorf("%d finding(s)", len(findings))
	}
	return nil
}

// resolveRulesDir returns --rules, else the configured rules directory,
// relative to root.
func resolveRulesDir(root string) string {
	dir := flagRules
	if dir == "" {
		dir = cfg.Resolve(cfg.Rules)
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// phpFiles lists the files under root that match an include pattern and no
// exclude pattern, as sorted absolute paths. Hidden files and directories
// are skipped, as the indexer does.
func phpFiles(root string, include, exclude []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		for _, rel := range matches {
			if hidden(rel) {
				continue
			}
			excluded, err := matchAny(exclude, rel)
			if err != nil {
				return nil, err
			}
			if !excluded {
				seen[rel] = true
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for rel := range seen {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(rel)))
	}
	sort.Strings(paths)
	return paths, nil
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, rel string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
