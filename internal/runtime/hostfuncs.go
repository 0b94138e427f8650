package runtime

import (
	"context"
	"log/slog"
	"os"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/phpscan"
	"github.com/jward/phpscan/internal/grammar"
)

// makeReportFn creates the "report" host function.
//
// report(line, message)
func makeReportFn(rep *reporter) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("report", 2, len(args))
		}
		line, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("report: line: %v", err)
		}
		msg, err := toString(args[1])
		if err != nil {
			return object.Errorf("report: message: %v", err)
		}
		rep.add(int(line), msg)
		return object.Nil
	})
}

// makeQueryFn creates the "query" host function. It parses the checked
// file and runs a tree-sitter query over it.
//
// query(pattern) → []map[string]map
//
// Each match maps capture names to {"text", "line", "col"}; line is
// 1-based.
func makeQueryFn(path string) *object.Builtin {
	var (
		src    []byte
		loaded bool
	)
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("query", 1, len(args))
		}
		pattern, err := toString(args[0])
		if err != nil {
			return object.Errorf("query: pattern: %v", err)
		}
		if !loaded {
			data, err := os.ReadFile(path)
			if err != nil {
				return object.Errorf("query: reading %s: %v", path, err)
			}
			src, loaded = data, true
		}

		tree, err := grammar.Parse(ctx, src)
		if err != nil {
			return object.Errorf("query: %v", err)
		}
		defer tree.Close()

		q, err := sitter.NewQuery([]byte(pattern), grammar.Language())
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}
		defer q.Close()

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, tree.RootNode())

		results := []object.Object{}
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, src)
			if len(match.Captures) == 0 {
				continue
			}

			matchMap := make(map[string]object.Object, len(match.Captures))
			for _, capture := range match.Captures {
				name := q.CaptureNameForId(capture.Index)
				pt := capture.Node.StartPoint()
				matchMap[name] = object.NewMap(map[string]object.Object{
					"text": object.NewString(capture.Node.Content(src)),
					"line": object.NewInt(int64(pt.Row) + 1),
					"col":  object.NewInt(int64(pt.Column)),
				})
			}
			results = append(results, object.NewMap(matchMap))
		}
		return object.NewList(results)
	})
}

// makeParseExpressionFn creates "parse_expression", which resolves an
// access chain such as "$this->repo->find()".
//
// parse_expression(snippet) → {"lexeme", "type", "chain"}
func makeParseExpressionFn(v phpscan.Version) *object.Builtin {
	return object.NewBuiltin("parse_expression", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("parse_expression", 1, len(args))
		}
		snippet, err := toString(args[0])
		if err != nil {
			return object.Errorf("parse_expression: %v", err)
		}
		sym := phpscan.NewParser(phpscan.WithVersion(v)).ParseExpression(snippet)
		return object.NewMap(map[string]object.Object{
			"lexeme": object.NewString(sym.Lexeme),
			"type":   object.NewString(sym.Type.String()),
			"chain":  stringsToList(sym.Chain),
		})
	})
}

// logObject provides log.Info/Warn/Error methods for rule scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}

// --- Declaration conversion ---

func stringsToList(ss []string) object.Object {
	items := make([]object.Object, len(ss))
	for i, s := range ss {
		items[i] = object.NewString(s)
	}
	return object.NewList(items)
}

func classesToList(cs []phpscan.Class) object.Object {
	items := make([]object.Object, len(cs))
	for i, c := range cs {
		items[i] = object.NewMap(map[string]object.Object{
			"name":      object.NewString(c.Name),
			"namespace": object.NewString(c.Namespace),
			"full_name": object.NewString(c.FullName()),
			"signature": object.NewString(c.Signature),
			"comment":   object.NewString(c.Comment),
			"line":      object.NewInt(int64(c.Line)),
		})
	}
	return object.NewList(items)
}

func propertiesToList(ps []phpscan.Property) object.Object {
	items := make([]object.Object, len(ps))
	for i, p := range ps {
		items[i] = object.NewMap(map[string]object.Object{
			"class":      object.NewString(p.Class),
			"name":       object.NewString(p.Name),
			"type":       object.NewString(p.Type),
			"comment":    object.NewString(p.Comment),
			"visibility": object.NewString(p.Visibility.String()),
			"is_const":   object.NewBool(p.IsConst),
			"is_static":  object.NewBool(p.IsStatic),
			"line":       object.NewInt(int64(p.Line)),
		})
	}
	return object.NewList(items)
}

func methodsToList(ms []phpscan.Method) object.Object {
	items := make([]object.Object, len(ms))
	for i, m := range ms {
		items[i] = object.NewMap(map[string]object.Object{
			"class":       object.NewString(m.Class),
			"name":        object.NewString(m.Name),
			"signature":   object.NewString(m.Signature),
			"return_type": object.NewString(m.ReturnType),
			"comment":     object.NewString(m.Comment),
			"visibility":  object.NewString(m.Visibility.String()),
			"is_static":   object.NewBool(m.IsStatic),
			"line":        object.NewInt(int64(m.Line)),
		})
	}
	return object.NewList(items)
}

func functionsToList(fs []phpscan.Function) object.Object {
	items := make([]object.Object, len(fs))
	for i, f := range fs {
		items[i] = object.NewMap(map[string]object.Object{
			"name":        object.NewString(f.Name),
			"signature":   object.NewString(f.Signature),
			"return_type": object.NewString(f.ReturnType),
			"comment":     object.NewString(f.Comment),
			"line":        object.NewInt(int64(f.Line)),
		})
	}
	return object.NewList(items)
}

func variablesToList(vs []phpscan.Variable) object.Object {
	items := make([]object.Object, len(vs))
	for i, v := range vs {
		items[i] = object.NewMap(map[string]object.Object{
			"class":    object.NewString(v.Class),
			"function": object.NewString(v.Function),
			"name":     object.NewString(v.Name),
			"type":     object.NewString(v.Type),
			"chain":    stringsToList(v.Chain),
			"doc_type": object.NewString(v.DocType),
			"comment":  object.NewString(v.Comment),
		})
	}
	return object.NewList(items)
}

func includesToList(is []phpscan.Include) object.Object {
	items := make([]object.Object, len(is))
	for i, inc := range is {
		items[i] = object.NewMap(map[string]object.Object{
			"file": object.NewString(inc.File),
			"line": object.NewInt(int64(inc.Line)),
		})
	}
	return object.NewList(items)
}

func definesToList(ds []phpscan.Define) object.Object {
	items := make([]object.Object, len(ds))
	for i, d := range ds {
		items[i] = object.NewMap(map[string]object.Object{
			"name":    object.NewString(d.Name),
			"value":   object.NewString(d.Value),
			"comment": object.NewString(d.Comment),
			"line":    object.NewInt(int64(d.Line)),
		})
	}
	return object.NewList(items)
}
