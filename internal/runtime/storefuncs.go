package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/phpscan/internal/store"
)

// Index lookups for rules. Risor cannot walk Go struct pointers
// conveniently, so rows are converted to maps on the Go side.

func makeFindClassFn(r store.Reader) *object.Builtin {
	return object.NewBuiltin("find_class", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("find_class", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("find_class: %v", err)
		}
		classes, err := r.FindClasses(name)
		if err != nil {
			return object.Errorf("find_class: %v", err)
		}
		items := make([]object.Object, len(classes))
		for i, c := range classes {
			items[i] = object.NewMap(map[string]object.Object{
				"id":        object.NewInt(c.ID),
				"path":      object.NewString(c.Path),
				"name":      object.NewString(c.Name),
				"full_name": object.NewString(c.FullName),
				"signature": object.NewString(c.Signature),
				"line":      object.NewInt(int64(c.Line)),
			})
		}
		return object.NewList(items)
	})
}

func makeFindFunctionFn(r store.Reader) *object.Builtin {
	return object.NewBuiltin("find_function", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("find_function", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("find_function: %v", err)
		}
		fns, err := r.FindFunctions(name)
		if err != nil {
			return object.Errorf("find_function: %v", err)
		}
		items := make([]object.Object, len(fns))
		for i, fn := range fns {
			items[i] = object.NewMap(map[string]object.Object{
				"id":        object.NewInt(fn.ID),
				"path":      object.NewString(fn.Path),
				"name":      object.NewString(fn.Name),
				"signature": object.NewString(fn.Signature),
				"line":      object.NewInt(int64(fn.Line)),
			})
		}
		return object.NewList(items)
	})
}

func makeClassMembersFn(r store.Reader) *object.Builtin {
	return object.NewBuiltin("class_members", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("class_members", 1, len(args))
		}
		id, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("class_members: %v", err)
		}
		members, err := r.ClassMembers(id)
		if err != nil {
			return object.Errorf("class_members: %v", err)
		}
		items := make([]object.Object, len(members))
		for i, m := range members {
			items[i] = object.NewMap(map[string]object.Object{
				"kind":       object.NewString(m.Kind),
				"name":       object.NewString(m.Name),
				"type":       object.NewString(m.TypeExpr),
				"visibility": object.NewString(m.Visibility),
				"is_static":  object.NewBool(m.IsStatic),
				"line":       object.NewInt(int64(m.Line)),
			})
		}
		return object.NewList(items)
	})
}

func makeIncludersOfFn(r store.Reader) *object.Builtin {
	return object.NewBuiltin("includers_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("includers_of", 1, len(args))
		}
		target, err := toString(args[0])
		if err != nil {
			return object.Errorf("includers_of: %v", err)
		}
		paths, err := r.IncludersOf(target)
		if err != nil {
			return object.Errorf("includers_of: %v", err)
		}
		return stringsToList(paths)
	})
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
