package container

import (
	"reflect"
	"strings"
)

// Separator splits an argument binding name into class and parameter:
// "App\\Mailer::from".
const Separator = "::"

// Factory builds a value from the container.
//
//	c.Bind("clock", container.Factory(func(c *container.Container) any { return time.Now }))
type Factory func(c *Container) any

// ObjectFactory builds an object from the container and the caller's Args.
type ObjectFactory func(c *Container, args Args) (any, error)

// bindingKind is decided once, when the binding is registered.
type bindingKind uint8

const (
	kindValue bindingKind = iota
	kindFactory
	kindClassName
	kindInstance
	kindInvalid
)

func (k bindingKind) String() string {
	switch k {
	case kindValue:
		return "value"
	case kindFactory:
		return "factory"
	case kindClassName:
		return "class"
	case kindInstance:
		return "instance"
	default:
		return "invalid"
	}
}

// IsArgumentName reports whether name has the "Class::param" shape.
func IsArgumentName(name string) bool {
	return strings.Contains(name, Separator)
}

// ArgumentName joins a class and a parameter into a binding name.
func ArgumentName(class, param string) string {
	return class + Separator + param
}

var (
	containerType = reflect.TypeOf((*Container)(nil))
	argsType      = reflect.TypeOf(Args{})
)

// asFactory normalizes the accepted factory shapes into an ObjectFactory:
//
//	func() T
//	func() (T, error)
//	func(*Container) T
//	func(*Container) (T, error)
//	func(*Container, Args) T
//	func(*Container, Args) (T, error)
//
// Any other value, including funcs of other shapes, is not a factory.
func asFactory(v any) (ObjectFactory, bool) {
	switch f := v.(type) {
	case nil:
		return nil, false
	case ObjectFactory:
		return f, true
	case func(*Container, Args) (any, error):
		return f, true
	case Factory:
		return func(c *Container, _ Args) (any, error) { return f(c), nil }, true
	case func(*Container) any:
		return func(c *Container, _ Args) (any, error) { return f(c), nil }, true
	case func(*Container) (any, error):
		return func(c *Container, _ Args) (any, error) { return f(c) }, true
	case func() any:
		return func(*Container, Args) (any, error) { return f(), nil }, true
	case func() (any, error):
		return func(*Container, Args) (any, error) { return f() }, true
	}

	fn := reflect.ValueOf(v)
	if fn.Kind() != reflect.Func {
		return nil, false
	}

	ft := fn.Type()
	if ft.IsVariadic() || ft.NumIn() > 2 || ft.NumOut() == 0 || ft.NumOut() > 2 {
		return nil, false
	}
	if ft.NumIn() >= 1 && ft.In(0) != containerType {
		return nil, false
	}
	if ft.NumIn() == 2 && ft.In(1) != argsType {
		return nil, false
	}
	if ft.NumOut() == 2 && !ft.Out(1).Implements(errorType) {
		return nil, false
	}

	return func(c *Container, args Args) (any, error) {
		in := make([]reflect.Value, 0, 2)
		if ft.NumIn() >= 1 {
			in = append(in, reflect.ValueOf(c))
		}
		if ft.NumIn() == 2 {
			in = append(in, reflect.ValueOf(args))
		}

		out := fn.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}, true
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// classify decides the kind of an object (class-style) binding.
func classify(value any) bindingKind {
	if _, ok := value.(string); ok {
		return kindClassName
	}
	if _, ok := asFactory(value); ok {
		return kindFactory
	}
	if value == nil {
		return kindInvalid
	}

	switch reflect.TypeOf(value).Kind() {
	case reflect.Ptr, reflect.Struct:
		return kindInstance
	}
	return kindInvalid
}
