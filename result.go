package phpscan

import (
	"errors"

	"github.com/jward/phpscan/internal/grammar"
)

// ErrSourceUnavailable is wrapped by ScanResult.Err when the file or
// reader could not be read.
var ErrSourceUnavailable = errors.New("phpscan: source unavailable")

// SyntaxError is the first syntax error of a source. ScanResult.Err holds
// one when a scan fails on invalid code.
type SyntaxError = grammar.SyntaxError

// ScanResult is the outcome of one scan or lint.
type ScanResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// File is the scanned path, or the display name of a reader.
	File string `json:"file"`
	// LineNumber and CharacterPosition locate the syntax error; both are
	// zero on success and when the source was unavailable.
	LineNumber        int `json:"line_number,omitempty"`
	CharacterPosition int `json:"character_position,omitempty"`
	// Scope is where the scan stopped. Lints leave it empty.
	Scope Scope `json:"scope"`
	Err   error `json:"-"`
}

func unavailable(name string, err error) ScanResult {
	return ScanResult{
		File:  name,
		Error: err.Error(),
		Err:   errors.Join(ErrSourceUnavailable, err),
	}
}
