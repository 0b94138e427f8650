package store

// Reader is the read side of the index that rule scripts may query. Store
// implements it; tests substitute fakes.
type Reader interface {
	FindClasses(name string) ([]*Class, error)
	ClassMembers(classID int64) ([]*Member, error)
	FindFunctions(name string) ([]*Function, error)
	IncludersOf(target string) ([]string, error)
}

// Compile-time check: *Store satisfies Reader.
var _ Reader = (*Store)(nil)
