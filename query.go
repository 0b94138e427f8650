package phpscan

import (
	"fmt"
	"strings"

	"github.com/jward/phpscan/internal/store"
)

// QueryBuilder answers navigation questions over the index.
type QueryBuilder struct {
	store *store.Store
}

// ClassDetail bundles a class with its members grouped by kind.
type ClassDetail struct {
	Class      *store.Class    `json:"class"`
	Constants  []*store.Member `json:"constants"`
	Properties []*store.Member `json:"properties"`
	Methods    []*store.Member `json:"methods"`
	Traits     []string        `json:"traits"`
}

// Classes returns every indexed class named name (short or
// fully-qualified, case-insensitive) with its members.
func (q *QueryBuilder) Classes(name string) ([]*ClassDetail, error) {
	classes, err := q.store.FindClasses(name)
	if err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	details := make([]*ClassDetail, 0, len(classes))
	for _, c := range classes {
		members, err := q.store.ClassMembers(c.ID)
		if err != nil {
			return nil, fmt.Errorf("classes: %w", err)
		}
		d := &ClassDetail{
			Class:      c,
			Constants:  []*store.Member{},
			Properties: []*store.Member{},
			Methods:    []*store.Member{},
			Traits:     []string{},
		}
		for _, m := range members {
			switch m.Kind {
			case store.KindConst:
				d.Constants = append(d.Constants, m)
			case store.KindProperty:
				d.Properties = append(d.Properties, m)
			case store.KindMethod:
				d.Methods = append(d.Methods, m)
			case store.KindTrait:
				d.Traits = append(d.Traits, m.Name)
			}
		}
		details = append(details, d)
	}
	return details, nil
}

// Method returns the methods named method of the classes named class. The
// method name is compared case-insensitively, as PHP does.
func (q *QueryBuilder) Method(class, method string) ([]*store.Member, error) {
	details, err := q.Classes(class)
	if err != nil {
		return nil, err
	}
	var found []*store.Member
	for _, d := range details {
		for _, m := range d.Methods {
			if strings.EqualFold(m.Name, method) {
				found = append(found, m)
			}
		}
	}
	return found, nil
}

// Functions returns the top level functions named name.
func (q *QueryBuilder) Functions(name string) ([]*store.Function, error) {
	fns, err := q.store.FindFunctions(name)
	if err != nil {
		return nil, fmt.Errorf("functions: %w", err)
	}
	return fns, nil
}

// File returns everything declared in the file at path, or nil when it was
// never indexed.
func (q *QueryBuilder) File(path string) (*store.FileDeclarations, error) {
	fd, err := q.store.FileDeclarations(path)
	if err != nil {
		return nil, fmt.Errorf("file: %w", err)
	}
	return fd, nil
}

// Dependents returns the paths of the files that include target. A bare
// file name matches includes of that name in any directory.
func (q *QueryBuilder) Dependents(target string) ([]string, error) {
	paths, err := q.store.IncludersOf(target)
	if err != nil {
		return nil, fmt.Errorf("dependents: %w", err)
	}
	return paths, nil
}

// Failures returns the indexed files that hold a syntax error.
func (q *QueryBuilder) Failures() ([]*store.File, error) {
	files, err := q.store.FailedFiles()
	if err != nil {
		return nil, fmt.Errorf("failures: %w", err)
	}
	return files, nil
}

// Stats counts what the index holds.
func (q *QueryBuilder) Stats() (store.Stats, error) {
	return q.store.Stats()
}
