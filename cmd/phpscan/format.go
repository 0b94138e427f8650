package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jward/phpscan"
	"github.com/jward/phpscan/internal/runtime"
	"github.com/jward/phpscan/internal/store"
)

// stdout is where results go. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// outputResult writes result in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func count(n int) *int {
	return &n
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIScan:
		formatScansText(w, v)
	case []CLILint:
		formatLintsText(w, v)
	case CLISymbol:
		formatSymbolText(w, v)
	case []*phpscan.ClassDetail:
		formatClassesText(w, v)
	case []*store.Member:
		formatMembersText(w, v)
	case []*store.Function:
		formatFunctionsText(w, v)
	case *store.FileDeclarations:
		formatFileText(w, v)
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case []*store.File:
		formatFilesText(w, v)
	case store.Stats:
		formatStatsText(w, v)
	case []runtime.Finding:
		formatFindingsText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func formatScansText(w io.Writer, scans []CLIScan) {
	for _, s := range scans {
		if !s.Success {
			fmt.Fprintf(w, "%s:%d: %s\n", s.File, s.Line, s.Error)
			continue
		}
		fmt.Fprintf(w, "%s\n", s.File)
		d := s.Declarations
		if d == nil {
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, ns := range d.Namespaces {
			fmt.Fprintf(tw, "  namespace\t%s\t%d\n", ns.Name, ns.Line)
		}
		for _, u := range d.Uses {
			fmt.Fprintf(tw, "  use\t%s as %s\t%d\n", u.Name, u.Alias, u.Line)
		}
		for _, inc := range d.Includes {
			fmt.Fprintf(tw, "  include\t%s\t%d\n", inc.File, inc.Line)
		}
		for _, def := range d.Defines {
			fmt.Fprintf(tw, "  define\t%s = %s\t%d\n", def.Name, def.Value, def.Line)
		}
		for _, c := range d.Classes {
			fmt.Fprintf(tw, "  class\t%s\t%d\n", c.Signature, c.Line)
		}
		for _, p := range d.Properties {
			kind := "property"
			if p.IsConst {
				kind = "const"
			}
			fmt.Fprintf(tw, "  %s\t%s::%s %s\t%d\n", kind, p.Class, p.Name, p.Type, p.Line)
		}
		for _, m := range d.Methods {
			fmt.Fprintf(tw, "  method\t%s::%s\t%d\n", m.Class, m.Signature, m.Line)
		}
		for _, f := range d.Functions {
			fmt.Fprintf(tw, "  function\t%s\t%d\n", f.Signature, f.Line)
		}
		for _, v := range d.Variables {
			fmt.Fprintf(tw, "  variable\t%s %s\t%s\n", v.Name, v.Type, strings.Join(v.Chain, ""))
		}
		tw.Flush()
	}
}

func formatLintsText(w io.Writer, lints []CLILint) {
	for _, l := range lints {
		if l.Success {
			fmt.Fprintf(w, "%s: ok\n", l.File)
			continue
		}
		fmt.Fprintf(w, "%s:%d:%d: %s\n", l.File, l.Line, l.Position, l.Error)
	}
}

func formatSymbolText(w io.Writer, s CLISymbol) {
	fmt.Fprintf(w, "Lexeme: %s\n", s.Lexeme)
	fmt.Fprintf(w, "Type: %s\n", s.Type)
	fmt.Fprintf(w, "Chain: %s\n", strings.Join(s.Chain, " "))
}

func formatClassesText(w io.Writer, classes []*phpscan.ClassDetail) {
	for i, c := range classes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s:%d)\n", c.Class.Signature, c.Class.Path, c.Class.Line)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, t := range c.Traits {
			fmt.Fprintf(tw, "  use\t%s\n", t)
		}
		for _, m := range c.Constants {
			fmt.Fprintf(tw, "  const\t%s\t%d\n", m.Name, m.Line)
		}
		for _, m := range c.Properties {
			fmt.Fprintf(tw, "  %s\t%s %s\t%d\n", m.Visibility, m.Name, m.TypeExpr, m.Line)
		}
		for _, m := range c.Methods {
			fmt.Fprintf(tw, "  method\t%s\t%d\n", m.Signature, m.Line)
		}
		tw.Flush()
	}
}

func formatMembersText(w io.Writer, members []*store.Member) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tSIGNATURE\tLINE")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.Kind, m.Name, m.Signature, m.Line)
	}
	tw.Flush()
}

func formatFunctionsText(w io.Writer, fns []*store.Function) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SIGNATURE\tRETURNS\tFILE\tLINE")
	for _, f := range fns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", f.Signature, f.ReturnType, f.Path, f.Line)
	}
	tw.Flush()
}

func formatFileText(w io.Writer, fd *store.FileDeclarations) {
	if fd == nil {
		return
	}
	fmt.Fprintf(w, "File: %s\n", fd.File.Path)
	fmt.Fprintf(w, "Version: %s\n", fd.File.Version)
	if !fd.File.Success {
		fmt.Fprintf(w, "Error: line %d: %s\n", fd.File.ErrorLine, fd.File.Error)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range fd.Classes {
		fmt.Fprintf(tw, "  class\t%s\t%d\n", c.FullName, c.Line)
	}
	for _, f := range fd.Functions {
		fmt.Fprintf(tw, "  function\t%s\t%d\n", f.Name, f.Line)
	}
	for _, d := range fd.Defines {
		fmt.Fprintf(tw, "  define\t%s\t%d\n", d.Name, d.Line)
	}
	for _, inc := range fd.Includes {
		fmt.Fprintf(tw, "  include\t%s\t%d\n", inc.Target, inc.Line)
	}
	tw.Flush()
}

func formatFilesText(w io.Writer, files []*store.File) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tLINE\tERROR")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Path, f.ErrorLine, f.Error)
	}
	tw.Flush()
}

func formatStatsText(w io.Writer, s store.Stats) {
	fmt.Fprintln(w, "Index Summary")
	fmt.Fprintln(w, "=============")
	fmt.Fprintf(w, "Files: %d (%d failed)\n", s.Files, s.FailedFiles)
	fmt.Fprintf(w, "Classes: %d\n", s.Classes)
	fmt.Fprintf(w, "Members: %d\n", s.Members)
	fmt.Fprintf(w, "Functions: %d\n", s.Functions)
	fmt.Fprintf(w, "Defines: %d\n", s.Defines)
	fmt.Fprintf(w, "Includes: %d\n", s.Includes)
	fmt.Fprintf(w, "Variables: %d\n", s.Variables)
}

func formatFindingsText(w io.Writer, findings []runtime.Finding) {
	for _, f := range findings {
		fmt.Fprintf(w, "%s:%d: [%s] %s\n", f.File, f.Line, f.Rule, f.Message)
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
