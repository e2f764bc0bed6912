package introspect

import (
	"reflect"
	"strconv"
)

// TypeKey returns a stable, package-qualified name for t.
//
//	introspect.TypeKey(reflect.TypeOf(&Mailer{}))  // "*github.com/acme/app.Mailer"
func TypeKey(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Ptr:
		return "*" + TypeKey(t.Elem())
	case reflect.Slice:
		return "[]" + TypeKey(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + TypeKey(t.Elem())
	case reflect.Map:
		return "map[" + TypeKey(t.Key()) + "]" + TypeKey(t.Elem())
	case reflect.Func, reflect.Chan:
		return t.String()
	default:
		if t.PkgPath() != "" {
			return t.PkgPath() + "." + t.Name()
		}
		return t.String()
	}
}

// TypeKeyOf is TypeKey for the dynamic type of v.
func TypeKeyOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return TypeKey(reflect.TypeOf(v))
}

// classLike reports whether t names a user-declared class: a named struct,
// a pointer to one, or a named interface.
func classLike(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Struct:
		return t.PkgPath() != ""
	case reflect.Ptr:
		return t.Elem().Kind() == reflect.Struct && t.Elem().PkgPath() != ""
	}
	return false
}
