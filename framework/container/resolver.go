package container

import (
	"sync"
	"sync/atomic"

	"github.com/km-arc/go-container/framework/introspect"
)

// strategy turns a binding into a value.
type strategy interface {
	resolve(c *Container, args Args) (any, error)
}

// valueStrategy backs argument bindings: a plain value or a factory. Caller
// args are ignored.
type valueStrategy struct {
	factory ObjectFactory
}

func (s *valueStrategy) resolve(c *Container, _ Args) (any, error) {
	return s.factory(c, NoArgs)
}

// objectStrategy backs class bindings: a class name, an instance whose class
// is rebuilt, or an object factory.
type objectStrategy struct {
	boundAs string
	kind    bindingKind
	raw     any
	factory ObjectFactory
}

func (s *objectStrategy) resolve(c *Container, args Args) (any, error) {
	switch s.kind {
	case kindFactory:
		return s.factory(c, args)
	case kindClassName:
		return c.build(s.raw.(string), s.boundAs, args)
	case kindInstance:
		return c.build(c.classOf(s.raw), s.boundAs, args)
	default:
		return nil, errInvalidBinding(s.boundAs, s.raw)
	}
}

// memo holds the resolved value of a singleton binding.
type memo struct {
	mu       sync.Mutex
	resolved bool
	value    any
}

func (m *memo) isResolved() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolved
}

// cached returns the stored value, or ErrNoResolvedValue when nothing has
// been stored yet.
func (m *memo) cached(name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.resolved {
		return nil, errNoResolvedValue(name)
	}
	return m.value, nil
}

// store keeps the first stored value and returns whichever value won.
func (m *memo) store(v any) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.resolved {
		m.value = v
		m.resolved = true
	}
	return m.value
}

// replace overwrites the stored value; used when a resolved singleton is
// extended.
func (m *memo) replace(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
	m.resolved = true
}

// binding is one registry entry: a strategy plus, for singletons, a memo.
type binding struct {
	name     string
	kind     bindingKind
	argument bool
	strategy strategy
	memo     *memo // nil for transient bindings

	// placeholder marks a deferred provider's stand-in. It may be replaced
	// without Overwrite and is never extended itself.
	placeholder bool

	// made is set once the binding has produced a value.
	made atomic.Bool
}

func (b *binding) singleton() bool {
	return b.memo != nil
}

// produced reports whether b has handed out a value.
func (b *binding) produced() bool {
	return b.made.Load() || (b.memo != nil && b.memo.isResolved())
}

func (b *binding) make(c *Container, args Args) (any, error) {
	if b.memo != nil && b.memo.isResolved() {
		return b.memo.cached(b.name)
	}

	v, err := b.strategy.resolve(c, args)
	if err != nil {
		return nil, err
	}
	if !b.placeholder {
		v = c.applyExtenders(b.name, v)
	}
	b.made.Store(true)

	if b.memo != nil {
		return b.memo.store(v), nil
	}
	return v, nil
}

// newValueBinding builds an argument-style binding. A singleton over a plain
// value is resolved on the spot.
func newValueBinding(name string, value any, singleton bool) *binding {
	b := &binding{name: name, argument: true}

	factory, ok := asFactory(value)
	if ok {
		b.kind = kindFactory
	} else {
		b.kind = kindValue
		factory = func(*Container, Args) (any, error) { return value, nil }
	}
	b.strategy = &valueStrategy{factory: factory}

	if singleton {
		b.memo = &memo{}
		if b.kind == kindValue {
			b.memo.store(value)
		}
	}
	return b
}

// newObjectBinding builds a class-style binding registered as boundAs. A
// singleton over an instance starts out resolved to that instance.
func newObjectBinding(boundAs string, value any, singleton bool) *binding {
	kind := classify(value)
	s := &objectStrategy{boundAs: boundAs, kind: kind, raw: value}
	if kind == kindFactory {
		s.factory, _ = asFactory(value)
	}

	b := &binding{name: boundAs, kind: kind, strategy: s}
	if singleton {
		b.memo = &memo{}
		if kind == kindInstance {
			b.memo.store(value)
		}
	}
	return b
}

// newInstanceBinding builds a singleton already resolved to instance.
func newInstanceBinding(name string, instance any) *binding {
	b := &binding{
		name:     name,
		kind:     kindInstance,
		argument: IsArgumentName(name),
		strategy: &valueStrategy{factory: func(*Container, Args) (any, error) { return instance, nil }},
		memo:     &memo{},
	}
	b.memo.store(instance)
	return b
}

// classOf names the class of an instance, falling back to its Go type key
// when the introspector does not know it.
func (c *Container) classOf(instance any) string {
	if name, ok := c.core.introspector.ClassOf(instance); ok {
		return name
	}
	return introspect.TypeKeyOf(instance)
}
