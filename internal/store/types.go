package store

import "time"

// File is one indexed source file. A file that failed to scan is still
// recorded with Success false, so it is not rescanned until it changes.
type File struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Hash        string    `json:"hash"`
	Version     string    `json:"version"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ErrorLine   int       `json:"error_line,omitempty"`
	LastIndexed time.Time `json:"last_indexed"`
}

type Class struct {
	ID        int64  `json:"id"`
	FileID    int64  `json:"file_id"`
	Path      string `json:"path,omitempty"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	FullName  string `json:"full_name"`
	Signature string `json:"signature"`
	Comment   string `json:"comment,omitempty"`
	Line      int    `json:"line"`
}

// Member kinds.
const (
	KindProperty = "property"
	KindConst    = "const"
	KindMethod   = "method"
	KindTrait    = "trait"
)

// Member is a property, constant, method or used trait of a class.
type Member struct {
	ID         int64  `json:"id"`
	ClassID    int64  `json:"class_id"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	TypeExpr   string `json:"type,omitempty"`
	Signature  string `json:"signature,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Visibility string `json:"visibility,omitempty"`
	IsStatic   bool   `json:"is_static"`
	Line       int    `json:"line,omitempty"`
	EndPos     int    `json:"end_pos,omitempty"`
}

type Function struct {
	ID         int64  `json:"id"`
	FileID     int64  `json:"file_id"`
	Path       string `json:"path,omitempty"`
	Name       string `json:"name"`
	Signature  string `json:"signature"`
	ReturnType string `json:"return_type,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Line       int    `json:"line"`
	EndPos     int    `json:"end_pos,omitempty"`
}

type Define struct {
	ID      int64  `json:"id"`
	FileID  int64  `json:"file_id"`
	Name    string `json:"name"`
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
	Line    int    `json:"line"`
}

// Include is an include or require. Target is empty when it was computed.
type Include struct {
	ID     int64  `json:"id"`
	FileID int64  `json:"file_id"`
	Target string `json:"target"`
	Line   int    `json:"line"`
}

type Variable struct {
	ID           int64  `json:"id"`
	FileID       int64  `json:"file_id"`
	ClassName    string `json:"class,omitempty"`
	FunctionName string `json:"function,omitempty"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	DocType      string `json:"doc_type,omitempty"`
}

// FileDeclarations is everything stored for one file.
type FileDeclarations struct {
	File      *File       `json:"file"`
	Classes   []*Class    `json:"classes"`
	Functions []*Function `json:"functions"`
	Defines   []*Define   `json:"defines"`
	Includes  []*Include  `json:"includes"`
	Variables []*Variable `json:"variables"`
}

// Stats counts the rows of the index.
type Stats struct {
	Files       int `json:"files"`
	FailedFiles int `json:"failed_files"`
	Classes     int `json:"classes"`
	Members     int `json:"members"`
	Functions   int `json:"functions"`
	Defines     int `json:"defines"`
	Includes    int `json:"includes"`
	Variables   int `json:"variables"`
}
