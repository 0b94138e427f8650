package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/phpscan"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the index",
	Long:  "Run queries against an indexed project. Line numbers are 1-based.",
}

func init() {
	queryCmd.AddCommand(classCmd)
	queryCmd.AddCommand(methodCmd)
	queryCmd.AddCommand(functionCmd)
	queryCmd.AddCommand(fileCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(failuresCmd)
	queryCmd.AddCommand(statsCmd)
}

// openIndex opens the index of the project containing the working
// directory. It refuses to create one.
func openIndex() (*phpscan.Indexer, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'phpscan index' first)", dbPath)
	}
	return phpscan.NewIndexer(dbPath, phpscan.WithIndexVersion(phpVersion()))
}

// runQuery opens the index, runs fn and prints what it returns.
func runQuery(command string, fn func(q *phpscan.QueryBuilder) (any, int, error)) error {
	ix, err := openIndex()
	if err != nil {
		return outputError(command, err)
	}
	defer ix.Close()

	results, n, err := fn(ix.Query())
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: results, TotalCount: count(n)})
}

var classCmd = &cobra.Command{
	Use:   "class <name>",
	Short: "Show a class with its members",
	Long:  `Looks a class up by short or fully qualified name, case-insensitively. A leading "\" is optional.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("class", func(q *phpscan.QueryBuilder) (any, int, error) {
			classes, err := q.Classes(args[0])
			return classes, len(classes), err
		})
	},
}

var methodCmd = &cobra.Command{
	Use:   "method <class> <method>",
	Short: "Show a method of a class",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("method", func(q *phpscan.QueryBuilder) (any, int, error) {
			methods, err := q.Method(args[0], args[1])
			return methods, len(methods), err
		})
	},
}

var functionCmd = &cobra.Command{
	Use:   "function <name>",
	Short: "Show a top level function",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("function", func(q *phpscan.QueryBuilder) (any, int, error) {
			fns, err := q.Functions(args[0])
			return fns, len(fns), err
		})
	},
}

var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Show everything declared in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return outputError("file", fmt.Errorf("resolving file path %q: %w", args[0], err))
		}
		return runQuery("file", func(q *phpscan.QueryBuilder) (any, int, error) {
			fd, err := q.File(path)
			if err != nil {
				return nil, 0, err
			}
			if fd == nil {
				return nil, 0, fmt.Errorf("file not indexed: %s", path)
			}
			return fd, 1, nil
		})
	},
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <target>",
	Short: "List files that include or require target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("dependents", func(q *phpscan.QueryBuilder) (any, int, error) {
			paths, err := q.Dependents(args[0])
			return paths, len(paths), err
		})
	},
}

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List indexed files with syntax errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("failures", func(q *phpscan.QueryBuilder) (any, int, error) {
			files, err := q.Failures()
			return files, len(files), err
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count what the index holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery("stats", func(q *phpscan.QueryBuilder) (any, int, error) {
			stats, err := q.Stats()
			return stats, stats.Files, err
		})
	},
}
