package main

import (
	"github.com/jward/phpscan"
)

// CLIResult is the top-level JSON envelope for every command.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIScan is the outcome of scanning one file.
type CLIScan struct {
	File         string                `json:"file"`
	Success      bool                  `json:"success"`
	Error        string                `json:"error,omitempty"`
	Line         int                   `json:"line,omitempty"`
	Declarations *phpscan.Declarations `json:"declarations,omitempty"`
}

// CLILint is the outcome of linting one file.
type CLILint struct {
	File     string `json:"file"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Line     int    `json:"line,omitempty"`
	Position int    `json:"position,omitempty"`
}

// CLISymbol is a JSON-friendly Symbol.
type CLISymbol struct {
	Lexeme  string   `json:"lexeme"`
	Type    string   `json:"type"`
	Chain   []string `json:"chain"`
	DocType string   `json:"doc_type,omitempty"`
}

func toCLISymbol(s phpscan.Symbol) CLISymbol {
	chain := s.Chain
	if chain == nil {
		chain = []string{}
	}
	return CLISymbol{
		Lexeme:  s.Lexeme,
		Type:    s.Type.String(),
		Chain:   chain,
		DocType: s.PhpDocType,
	}
}

func toCLILint(r phpscan.ScanResult) CLILint {
	return CLILint{
		File:     r.File,
		Success:  r.Success,
		Error:    r.Error,
		Line:     r.LineNumber,
		Position: r.CharacterPosition,
	}
}
