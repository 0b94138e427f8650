// Package phpscan is a source-level observer engine for PHP 5.3 and 5.4.
// It parses PHP with tree-sitter and reports what it finds to registered
// observers: classes, namespaces, defines and includes; properties,
// methods and trait adaptations; functions; variables with their inferred
// types; and fully resolved expressions.
//
// # Scanning
//
// Create a Parser, register observers and scan:
//
//	p := phpscan.NewParser(phpscan.WithVersion(phpscan.PHP54))
//	c := phpscan.NewCollector()
//	c.Register(p, true, true, true, false, false)
//
//	res := p.ScanFile("src/Repo.php")
//	if !res.Success {
//		fmt.Println(res.LineNumber, res.Error)
//	}
//	for _, m := range c.Methods {
//		fmt.Println(m.Class, m.Name, m.ReturnType)
//	}
//
// Only the observers that are registered are served. A parser with no
// variable or expression observer never walks function and method bodies,
// so callers that only need declarations pay only for declarations.
//
// Lint* checks syntax without calling observers. [Parser.ParseExpression]
// resolves a single expression such as "$this->repo->find()" into a
// [Symbol] with its access chain.
//
// A Parser is not safe for concurrent use. Use one Parser per goroutine.
//
// # Indexing
//
// An [Indexer] keeps a SQLite index of a source tree. Unchanged files are
// skipped by content hash, changed files are scanned in parallel, and each
// file's declarations replace its earlier rows in one transaction:
//
//	ix, err := phpscan.NewIndexer(".phpscan.db", phpscan.WithExclude("vendor/**"))
//	if err != nil { ... }
//	defer ix.Close()
//
//	stats, err := ix.IndexDirectory(ctx, ".")
//	classes, err := ix.Query().Classes(`App\Repo`)
//
// [Indexer.Watch] keeps the index current as files change.
package phpscan
