package introspect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type entryKind uint8

const (
	funcEntry entryKind = iota
	structEntry
	abstractEntry
)

// entry is one registered class.
type entry struct {
	name string
	kind entryKind
	typ  reflect.Type // produced type, or the interface type for abstracts

	// funcEntry
	fn     reflect.Value
	hasErr bool

	// structEntry
	fields  []int
	pointer bool

	params   []string
	types    []reflect.Type
	defaults map[string]any
	variadic bool
}

// Option configures a function-backed registration.
type Option func(e *entry) error

// Params names the constructor parameters in declaration order. Without it
// the parameters are named arg0, arg1, ...
func Params(names ...string) Option {
	return func(e *entry) error {
		if len(names) != len(e.types) {
			return fmt.Errorf("%w: %s takes %d parameters, %d names given",
				ErrInvalidClass, e.name, len(e.types), len(names))
		}
		copy(e.params, names)
		return nil
	}
}

// Default declares a default value for the named parameter.
func Default(param string, value any) Option {
	return func(e *entry) error {
		e.defaults[param] = value
		return nil
	}
}

// Registry is a reflection-backed Introspector over explicitly registered
// classes. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	names   map[reflect.Type]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		names:   make(map[reflect.Type]string),
	}
}

// Register adds a class built by ctor. ctor must be a function returning
// T or (T, error); its parameters are the class constructor parameters.
//
//	reg.Register("Mailer", NewMailer, introspect.Params("transport", "from"),
//	    introspect.Default("from", "noreply@example.com"))
func (r *Registry) Register(name string, ctor any, opts ...Option) error {
	fn := reflect.ValueOf(ctor)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return fmt.Errorf("%w: %s: constructor must be a func, got %T", ErrInvalidClass, name, ctor)
	}

	ft := fn.Type()
	if ft.NumOut() == 0 || ft.NumOut() > 2 {
		return fmt.Errorf("%w: %s: constructor must return T or (T, error)", ErrInvalidClass, name)
	}
	if ft.NumOut() == 2 && !ft.Out(1).Implements(errorType) {
		return fmt.Errorf("%w: %s: second return value must be error", ErrInvalidClass, name)
	}

	e := &entry{
		name:     name,
		kind:     funcEntry,
		typ:      ft.Out(0),
		fn:       fn,
		hasErr:   ft.NumOut() == 2,
		params:   make([]string, ft.NumIn()),
		types:    make([]reflect.Type, ft.NumIn()),
		defaults: make(map[string]any),
		variadic: ft.IsVariadic(),
	}
	for i := 0; i < ft.NumIn(); i++ {
		e.params[i] = "arg" + strconv.Itoa(i)
		e.types[i] = ft.In(i)
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return err
		}
	}

	r.add(e)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, ctor any, opts ...Option) {
	if err := r.Register(name, ctor, opts...); err != nil {
		panic(err)
	}
}

// RegisterStruct adds a class whose constructor parameters are the exported
// fields of proto's struct type, in declaration order. Pass a pointer to get
// pointer instances.
//
// Field tags:
//
//	Host string `inject:"host" default:"localhost"`
//	Skip int    `inject:"-"`
func (r *Registry) RegisterStruct(name string, proto any) error {
	t := reflect.TypeOf(proto)
	if t == nil {
		return fmt.Errorf("%w: %s: prototype is nil", ErrInvalidClass, name)
	}

	pointer := false
	if t.Kind() == reflect.Ptr {
		pointer = true
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s: prototype must be a struct, got %s", ErrInvalidClass, name, t.Kind())
	}

	e := &entry{
		name:     name,
		kind:     structEntry,
		typ:      reflect.TypeOf(proto),
		pointer:  pointer,
		defaults: make(map[string]any),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("inject")
		if tag == "-" {
			continue
		}

		param := tag
		if param == "" {
			param = lowerFirst(field.Name)
		}

		if def, ok := field.Tag.Lookup("default"); ok {
			v, err := parseDefault(def, field.Type)
			if err != nil {
				return fmt.Errorf("%w: %s.%s: %v", ErrInvalidClass, name, field.Name, err)
			}
			e.defaults[param] = v
		}

		e.fields = append(e.fields, i)
		e.params = append(e.params, param)
		e.types = append(e.types, field.Type)
	}

	r.add(e)
	return nil
}

// MustRegisterStruct is like RegisterStruct but panics on error.
func (r *Registry) MustRegisterStruct(name string, proto any) {
	if err := r.RegisterStruct(name, proto); err != nil {
		panic(err)
	}
}

// RegisterAbstract names an interface type. ifacePtr must be a nil pointer
// to the interface, e.g. (*Transport)(nil). Parameters of that type are
// hinted with name, and describing name reports an abstract class.
func (r *Registry) RegisterAbstract(name string, ifacePtr any) error {
	t := reflect.TypeOf(ifacePtr)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Interface {
		return fmt.Errorf("%w: %s: expected pointer to interface, got %T", ErrInvalidClass, name, ifacePtr)
	}

	r.add(&entry{name: name, kind: abstractEntry, typ: t.Elem()})
	return nil
}

// MustRegisterAbstract is like RegisterAbstract but panics on error.
func (r *Registry) MustRegisterAbstract(name string, ifacePtr any) {
	if err := r.RegisterAbstract(name, ifacePtr); err != nil {
		panic(err)
	}
}

func (r *Registry) add(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[e.name]; ok && r.names[old.typ] == e.name {
		delete(r.names, old.typ)
	}
	r.entries[e.name] = e
	r.names[e.typ] = e.name
}

// Classes returns the registered class names.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	return out
}

// Describe implements Introspector.
func (r *Registry) Describe(class string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}

	desc := &Class{Name: class, Abstract: e.kind == abstractEntry}
	if desc.Abstract {
		return desc, nil
	}

	desc.Params = make([]Param, len(e.params))
	for i, name := range e.params {
		p := Param{
			Name:           name,
			DeclaringClass: class,
			Variadic:       e.variadic && i == len(e.params)-1,
		}

		t := e.types[i]
		if p.Variadic {
			t = t.Elem()
		}
		p.Type = r.hint(t)

		if def, ok := e.defaults[name]; ok {
			p.Default = def
			p.HasDefault = true
		}
		desc.Params[i] = p
	}

	return desc, nil
}

// hint must be called with r.mu held.
func (r *Registry) hint(t reflect.Type) string {
	if name, ok := r.names[t]; ok {
		return name
	}
	if classLike(t) {
		return TypeKey(t)
	}
	return ""
}

// ClassOf implements Introspector.
func (r *Registry) ClassOf(instance any) (string, bool) {
	if instance == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.names[reflect.TypeOf(instance)]
	return name, ok
}

// Instantiate implements Introspector.
func (r *Registry) Instantiate(class string, args []any) (any, error) {
	r.mu.RLock()
	e, ok := r.entries[class]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}

	switch e.kind {
	case abstractEntry:
		return nil, fmt.Errorf("%w: %s", ErrAbstractClass, class)
	case structEntry:
		return e.buildStruct(args)
	default:
		return e.call(args)
	}
}

func (e *entry) call(args []any) (any, error) {
	n := len(e.types)
	if len(args) < n-boolInt(e.variadic) || (!e.variadic && len(args) > n) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, e.name, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var t reflect.Type
		if e.variadic && i >= n-1 {
			t = e.types[n-1].Elem()
		} else {
			t = e.types[i]
		}

		v, err := coerce(arg, t)
		if err != nil {
			return nil, fmt.Errorf("%w: %s argument %d: %v", ErrArgumentType, e.name, i, err)
		}
		in[i] = v
	}

	out := e.fn.Call(in)
	if e.hasErr && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func (e *entry) buildStruct(args []any) (any, error) {
	if len(args) != len(e.fields) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, e.name, len(e.fields), len(args))
	}

	t := e.typ
	if e.pointer {
		t = t.Elem()
	}

	ptr := reflect.New(t)
	sv := ptr.Elem()
	for i, arg := range args {
		v, err := coerce(arg, e.types[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrArgumentType, e.name, e.params[i], err)
		}
		sv.Field(e.fields[i]).Set(v)
	}

	if e.pointer {
		return ptr.Interface(), nil
	}
	return sv.Interface(), nil
}

// coerce turns arg into a value assignable to t. nil becomes the zero value;
// numeric values convert between numeric kinds.
func coerce(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if numeric(v.Kind()) && numeric(t.Kind()) && v.Type().ConvertibleTo(t) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), t)
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func parseDefault(raw string, t reflect.Type) (any, error) {
	if t == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(raw)
		return d, err
	}

	var (
		v   any
		err error
	)
	switch t.Kind() {
	case reflect.String:
		v = raw
	case reflect.Bool:
		v, err = strconv.ParseBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err = strconv.ParseInt(raw, 10, t.Bits())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err = strconv.ParseUint(raw, 10, t.Bits())
	case reflect.Float32, reflect.Float64:
		v, err = strconv.ParseFloat(raw, t.Bits())
	case reflect.Slice:
		if t.Elem().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported default for %s", t)
		}
		v = strings.Split(raw, ",")
	default:
		return nil, fmt.Errorf("unsupported default for %s", t)
	}
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(v).Convert(t).Interface(), nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
