package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/phpscan"
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>...",
	Short: "Scan PHP files and print their declarations",
	Long:  "Runs a full scan of each file and prints its classes, members, functions, includes and variables. Line numbers are 1-based.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

var lintCmd = &cobra.Command{
	Use:   "lint <file>...",
	Short: "Check PHP files for syntax errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLint,
}

var exprCmd = &cobra.Command{
	Use:   "expr <snippet>",
	Short: "Parse a single expression into a symbol",
	Long:  `Parses a snippet such as '$this->repo->find()' and prints its lexeme, type and access chain. A trailing "->", "::" or "\" is kept as an incomplete step.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExpr,
}

func runScan(cmd *cobra.Command, args []string) error {
	p := phpscan.NewParser(phpscan.WithVersion(phpVersion()))
	c := phpscan.NewCollector()
	c.Register(p, true, true, true, true, false)

	var (
		results []CLIScan
		failed  int
	)
	for _, path := range args {
		c.Reset()
		res := p.ScanFile(path)
		scan := CLIScan{File: path, Success: res.Success, Error: res.Error, Line: res.LineNumber}
		if res.Success {
			decl := c.Declarations
			scan.Declarations = &decl
		} else {
			failed++
		}
		results = append(results, scan)
	}
	if err := outputResult(CLIResult{Command: "scan", Results: results, TotalCount: count(len(results))}); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to scan", failed, len(args))
	}
	return nil
}

func runLint(cmd *cobra.Command, args []string) error {
	p := phpscan.NewParser(phpscan.WithVersion(phpVersion()))

	var (
		results []CLILint
		failed  int
	)
	for _, path := range args {
		res := p.LintFile(path)
		if !res.Success {
			failed++
		}
		results = append(results, toCLILint(res))
	}
	if err := outputResult(CLIResult{Command: "lint", Results: results, TotalCount: count(len(results))}); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) have syntax errors", failed, len(args))
	}
	return nil
}

func runExpr(cmd *cobra.Command, args []string) error {
	p := phpscan.NewParser(phpscan.WithVersion(phpVersion()))
	sym := p.ParseExpression(args[0])
	return outputResult(CLIResult{Command: "expr", Results: toCLISymbol(sym)})
}
