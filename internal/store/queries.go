package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const fileColumns = "id, path, hash, version, success, error, error_line, last_indexed"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var errText sql.NullString
	var errLine sql.NullInt64
	if err := scanner.Scan(&f.ID, &f.Path, &f.Hash, &f.Version, &f.Success, &errText, &errLine, &f.LastIndexed); err != nil {
		return nil, err
	}
	f.Error = errText.String
	f.ErrorLine = int(errLine.Int64)
	return f, nil
}

// FileByPath returns the file stored for path, or nil when it was never
// indexed.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: file by path: %w", err)
	}
	return f, nil
}

// FileHash returns the content hash and dialect recorded for path. ok is
// false when the path was never indexed.
func (s *Store) FileHash(path string) (hash, version string, ok bool, err error) {
	err = s.db.QueryRow("SELECT hash, version FROM files WHERE path = ?", path).Scan(&hash, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("store: file hash: %w", err)
	}
	return hash, version, true, nil
}

// Paths returns every indexed path under prefix, sorted. An empty prefix
// returns all of them.
func (s *Store) Paths(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT path FROM files WHERE path LIKE ? ESCAPE '\' ORDER BY path`,
		likeEscape(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("store: paths: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteFiles removes the given paths and everything declared in them.
func (s *Store) DeleteFiles(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	query := "DELETE FROM files WHERE path IN (" + placeholderList(len(paths)) + ")"
	if _, err := s.db.Exec(query, stringsToArgs(paths)...); err != nil {
		return fmt.Errorf("store: delete files: %w", err)
	}
	return nil
}

// FailedFiles returns the files recorded with a syntax error, by path.
func (s *Store) FailedFiles() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileColumns + " FROM files WHERE NOT success ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("store: failed files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

const classColumns = "c.id, c.file_id, f.path, c.name, c.namespace, c.full_name, c.signature, c.comment, c.line"

func scanClasses(rows *sql.Rows) ([]*Class, error) {
	defer rows.Close()
	var classes []*Class
	for rows.Next() {
		c := &Class{}
		if err := rows.Scan(&c.ID, &c.FileID, &c.Path, &c.Name, &c.Namespace, &c.FullName, &c.Signature, &c.Comment, &c.Line); err != nil {
			return nil, fmt.Errorf("store: scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// FindClasses returns the classes whose short or fully-qualified name is
// name, compared case-insensitively. A leading namespace separator is
// ignored.
func (s *Store) FindClasses(name string) ([]*Class, error) {
	name = strings.TrimPrefix(name, `\`)
	rows, err := s.db.Query(
		`SELECT `+classColumns+`
		 FROM classes c JOIN files f ON f.id = c.file_id
		 WHERE c.name = ? COLLATE NOCASE OR ltrim(c.full_name, '\') = ? COLLATE NOCASE
		 ORDER BY f.path, c.line`,
		name, name,
	)
	if err != nil {
		return nil, fmt.Errorf("store: find classes: %w", err)
	}
	return scanClasses(rows)
}

// ClassMembers returns the members of a class in declaration order.
func (s *Store) ClassMembers(classID int64) ([]*Member, error) {
	rows, err := s.db.Query(
		`SELECT id, class_id, kind, name, type_expr, signature, comment, visibility, is_static, line, end_pos
		 FROM members WHERE class_id = ? ORDER BY id`,
		classID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: class members: %w", err)
	}
	defer rows.Close()
	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.ID, &m.ClassID, &m.Kind, &m.Name, &m.TypeExpr, &m.Signature,
			&m.Comment, &m.Visibility, &m.IsStatic, &m.Line, &m.EndPos); err != nil {
			return nil, fmt.Errorf("store: scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

const functionColumns = "fn.id, fn.file_id, f.path, fn.name, fn.signature, fn.return_type, fn.comment, fn.line, fn.end_pos"

func scanFunctions(rows *sql.Rows) ([]*Function, error) {
	defer rows.Close()
	var fns []*Function
	for rows.Next() {
		fn := &Function{}
		if err := rows.Scan(&fn.ID, &fn.FileID, &fn.Path, &fn.Name, &fn.Signature, &fn.ReturnType, &fn.Comment, &fn.Line, &fn.EndPos); err != nil {
			return nil, fmt.Errorf("store: scan function: %w", err)
		}
		fns = append(fns, fn)
	}
	return fns, rows.Err()
}

// FindFunctions returns the top level functions named name, compared
// case-insensitively.
func (s *Store) FindFunctions(name string) ([]*Function, error) {
	rows, err := s.db.Query(
		`SELECT `+functionColumns+`
		 FROM functions fn JOIN files f ON f.id = fn.file_id
		 WHERE fn.name = ? COLLATE NOCASE
		 ORDER BY f.path, fn.line`,
		strings.TrimPrefix(name, `\`),
	)
	if err != nil {
		return nil, fmt.Errorf("store: find functions: %w", err)
	}
	return scanFunctions(rows)
}

// FileDeclarations returns everything stored for path, or nil when it was
// never indexed.
func (s *Store) FileDeclarations(path string) (*FileDeclarations, error) {
	f, err := s.FileByPath(path)
	if err != nil || f == nil {
		return nil, err
	}
	decl := &FileDeclarations{File: f}

	rows, err := s.db.Query(`SELECT `+classColumns+` FROM classes c JOIN files f ON f.id = c.file_id WHERE c.file_id = ? ORDER BY c.line`, f.ID)
	if err != nil {
		return nil, fmt.Errorf("store: file classes: %w", err)
	}
	if decl.Classes, err = scanClasses(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT `+functionColumns+` FROM functions fn JOIN files f ON f.id = fn.file_id WHERE fn.file_id = ? ORDER BY fn.line`, f.ID)
	if err != nil {
		return nil, fmt.Errorf("store: file functions: %w", err)
	}
	if decl.Functions, err = scanFunctions(rows); err != nil {
		return nil, err
	}

	if decl.Defines, err = s.defines(f.ID); err != nil {
		return nil, err
	}
	if decl.Includes, err = s.includes(f.ID); err != nil {
		return nil, err
	}
	if decl.Variables, err = s.variables(f.ID); err != nil {
		return nil, err
	}
	return decl, nil
}

func (s *Store) defines(fileID int64) ([]*Define, error) {
	rows, err := s.db.Query("SELECT id, file_id, name, value, comment, line FROM defines WHERE file_id = ? ORDER BY line", fileID)
	if err != nil {
		return nil, fmt.Errorf("store: defines: %w", err)
	}
	defer rows.Close()
	var defs []*Define
	for rows.Next() {
		d := &Define{}
		if err := rows.Scan(&d.ID, &d.FileID, &d.Name, &d.Value, &d.Comment, &d.Line); err != nil {
			return nil, fmt.Errorf("store: scan define: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (s *Store) includes(fileID int64) ([]*Include, error) {
	rows, err := s.db.Query("SELECT id, file_id, target, line FROM includes WHERE file_id = ? ORDER BY line", fileID)
	if err != nil {
		return nil, fmt.Errorf("store: includes: %w", err)
	}
	defer rows.Close()
	var incs []*Include
	for rows.Next() {
		inc := &Include{}
		if err := rows.Scan(&inc.ID, &inc.FileID, &inc.Target, &inc.Line); err != nil {
			return nil, fmt.Errorf("store: scan include: %w", err)
		}
		incs = append(incs, inc)
	}
	return incs, rows.Err()
}

func (s *Store) variables(fileID int64) ([]*Variable, error) {
	rows, err := s.db.Query(
		"SELECT id, file_id, class_name, function_name, name, type, doc_type FROM variables WHERE file_id = ? ORDER BY id",
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: variables: %w", err)
	}
	defer rows.Close()
	var vars []*Variable
	for rows.Next() {
		v := &Variable{}
		if err := rows.Scan(&v.ID, &v.FileID, &v.ClassName, &v.FunctionName, &v.Name, &v.Type, &v.DocType); err != nil {
			return nil, fmt.Errorf("store: scan variable: %w", err)
		}
		vars = append(vars, v)
	}
	return vars, rows.Err()
}

// Stats counts the rows of every table.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM files),
		(SELECT COUNT(*) FROM files WHERE NOT success),
		(SELECT COUNT(*) FROM classes),
		(SELECT COUNT(*) FROM members),
		(SELECT COUNT(*) FROM functions),
		(SELECT COUNT(*) FROM defines),
		(SELECT COUNT(*) FROM includes),
		(SELECT COUNT(*) FROM variables)`,
	).Scan(&st.Files, &st.FailedFiles, &st.Classes, &st.Members, &st.Functions, &st.Defines, &st.Includes, &st.Variables)
	if err != nil {
		return Stats{}, fmt.Errorf("store: stats: %w", err)
	}
	return st, nil
}
