package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch replaces everything stored for batch.File.Path with the
// batch, within a single transaction, and returns the file's new ID. Fake
// (negative) class IDs are remapped to real IDs before members are
// inserted.
//
// Insert order respects FK dependencies:
//  1. File (replaces the old row; ON DELETE CASCADE drops its children)
//  2. Classes (depend on file_id)
//  3. Members (depend on class_id)
//  4. Functions, defines, includes, variables (depend on file_id)
func (s *Store) CommitBatch(batch *Batch) (int64, error) {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	f := batch.File
	if _, err := tx.Exec("DELETE FROM files WHERE path = ?", f.Path); err != nil {
		return 0, fmt.Errorf("store: commit batch: delete %s: %w", f.Path, err)
	}
	fileID, err := insertFileTx(tx, &f)
	if err != nil {
		return 0, fmt.Errorf("store: commit batch: file %s: %w", f.Path, err)
	}

	fakeToReal := make(map[int64]int64, len(batch.Classes))
	for _, c := range batch.Classes {
		c.FileID = fileID
		realID, err := insertClassTx(tx, &c)
		if err != nil {
			return 0, fmt.Errorf("store: commit batch: class %q: %w", c.Name, err)
		}
		fakeToReal[c.ID] = realID
	}

	for _, m := range batch.Members {
		if m.ClassID < 0 {
			realID, ok := fakeToReal[m.ClassID]
			if !ok {
				return 0, fmt.Errorf("store: commit batch: member %q has class_id=%d not in batch (have %d classes)", m.Name, m.ClassID, len(batch.Classes))
			}
			m.ClassID = realID
		}
		if err := insertMemberTx(tx, &m); err != nil {
			return 0, fmt.Errorf("store: commit batch: member %q: %w", m.Name, err)
		}
	}

	for _, fn := range batch.Functions {
		if _, err := tx.Exec(
			`INSERT INTO functions (file_id, name, signature, return_type, comment, line, end_pos)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fileID, fn.Name, fn.Signature, fn.ReturnType, fn.Comment, fn.Line, fn.EndPos,
		); err != nil {
			return 0, fmt.Errorf("store: commit batch: function %q: %w", fn.Name, err)
		}
	}

	for _, d := range batch.Defines {
		if _, err := tx.Exec(
			`INSERT INTO defines (file_id, name, value, comment, line) VALUES (?, ?, ?, ?, ?)`,
			fileID, d.Name, d.Value, d.Comment, d.Line,
		); err != nil {
			return 0, fmt.Errorf("store: commit batch: define %q: %w", d.Name, err)
		}
	}

	for _, inc := range batch.Includes {
		if _, err := tx.Exec(
			`INSERT INTO includes (file_id, target, line) VALUES (?, ?, ?)`,
			fileID, inc.Target, inc.Line,
		); err != nil {
			return 0, fmt.Errorf("store: commit batch: include %q: %w", inc.Target, err)
		}
	}

	for _, v := range batch.Variables {
		if _, err := tx.Exec(
			`INSERT INTO variables (file_id, class_name, function_name, name, type, doc_type)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			fileID, v.ClassName, v.FunctionName, v.Name, v.Type, v.DocType,
		); err != nil {
			return 0, fmt.Errorf("store: commit batch: variable %q: %w", v.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit batch: %w", err)
	}
	return fileID, nil
}

// ReplaceFile is CommitBatch for callers that think in files rather than
// batches.
func (s *Store) ReplaceFile(batch *Batch) (int64, error) {
	return s.CommitBatch(batch)
}

// --- Transaction-scoped insert helpers ---

func insertFileTx(tx *sql.Tx, f *File) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO files (path, hash, version, success, error, error_line, last_indexed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Path, f.Hash, f.Version, f.Success, f.Error, f.ErrorLine, f.LastIndexed,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertClassTx(tx *sql.Tx, c *Class) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO classes (file_id, name, namespace, full_name, signature, comment, line)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.FileID, c.Name, c.Namespace, c.FullName, c.Signature, c.Comment, c.Line,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertMemberTx(tx *sql.Tx, m *Member) error {
	_, err := tx.Exec(
		`INSERT INTO members (class_id, kind, name, type_expr, signature, comment, visibility, is_static, line, end_pos)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ClassID, m.Kind, m.Name, m.TypeExpr, m.Signature, m.Comment,
		m.Visibility, m.IsStatic, m.Line, m.EndPos,
	)
	return err
}
