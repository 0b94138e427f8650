package store

import (
	"fmt"
	"path"
)

// IncludersOf returns the paths of files that include or require a file
// named like target. Include targets are usually relative, so matching is
// on the last path element; callers narrow the result further if needed.
func (s *Store) IncludersOf(target string) ([]string, error) {
	base := path.Base(target)
	rows, err := s.db.Query(
		`SELECT DISTINCT f.path
		 FROM includes i JOIN files f ON f.id = i.file_id
		 WHERE i.target = ? OR i.target LIKE ? ESCAPE '\'
		 ORDER BY f.path`,
		base, "%/"+likeEscape(base),
	)
	if err != nil {
		return nil, fmt.Errorf("store: includers of %s: %w", target, err)
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
