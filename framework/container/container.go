package container

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/introspect"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container — mirrors Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / BindSingleton / BindArgument / BindSingletonArgument / Unbind
//   - Instance / Alias
//   - Extend (decorate resolved instances)
//   - Make / MakeWith, with auto-wiring of unbound classes
//   - IsBound / IsSingleton / IsArgument
//   - Tags (group multiple abstractions under one tag)
//   - Contextual argument binding (when A needs $param, give it V)
//   - Resolved and rebound event callbacks
//
// Factories receive a view of the container that shares its bindings and
// carries the resolution chain leading to the factory, which is how cycles
// are detected. Views are immutable and safe to keep and share between
// goroutines; a kept view still carries the chain it was created under.
type Container struct {
	core  *core
	chain *frame
}

// core is the state shared by a container and all of its views.
type core struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// alias → abstract (canonical key)
	aliases map[string]string

	// abstract → extenders applied after every fresh resolution
	extenders map[string][]Extender

	// tag → []abstract
	tags map[string][]string

	// resolved callbacks: []func(abstract, instance)
	afterResolving []func(string, any)

	// rebound callbacks: abstract → []func(instance)
	reboundCallbacks map[string][]func(any)

	introspector introspect.Introspector
	logger       *zap.Logger
	maxDepth     int
}

// frame is one link of a resolution chain. Frames are never modified after
// creation, so any number of views may share a parent.
type frame struct {
	name   string
	parent *frame
	depth  int
}

// names lists the chain from the outermost abstract to f.
func (f *frame) names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, f.depth)
	for i := f; i != nil; i = i.parent {
		out[i.depth-1] = i.name
	}
	return out
}

// descendsFrom reports whether anc is f or one of its parents.
func (f *frame) descendsFrom(anc *frame) bool {
	for i := f; i != nil; i = i.parent {
		if i == anc {
			return true
		}
	}
	return false
}

// enter returns a view whose chain is c's chain extended by name.
func (c *Container) enter(name string) (*Container, error) {
	for f := c.chain; f != nil; f = f.parent {
		if f.name == name {
			return nil, errCyclicDependency(append(c.chain.names(), name))
		}
	}

	depth := 1
	if c.chain != nil {
		depth = c.chain.depth + 1
	}
	if limit := c.core.maxDepth; limit > 0 && depth > limit {
		return nil, errMaxDepthExceeded(append(c.chain.names(), name), limit)
	}

	return &Container{core: c.core, chain: &frame{name: name, parent: c.chain, depth: depth}}, nil
}

// Extender decorates a freshly resolved instance.
type Extender func(instance any, c *Container) any

// New creates an empty container.
func New(opts ...Option) *Container {
	cc := &core{
		bindings:         make(map[string]*binding),
		aliases:          make(map[string]string),
		extenders:        make(map[string][]Extender),
		tags:             make(map[string][]string),
		reboundCallbacks: make(map[string][]func(any)),
		introspector:     introspect.NewRegistry(),
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cc)
	}
	return &Container{core: cc}
}

// Introspector returns the introspector used for auto-wiring.
func (c *Container) Introspector() introspect.Introspector {
	return c.core.introspector
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers value under name.
//
// Argument-style names ("Class::param") or Argument(true) produce a value
// binding: value is returned as is, or called if it is a factory. Any other
// name produces a class binding: value is a class name to build, an instance
// whose class is built, or an object factory.
//
//	// Laravel: $app->bind(UserRepository::class, EloquentUserRepository::class)
//	c.Bind("UserRepository", "EloquentUserRepository")
//
//	// Laravel: $app->when(Mailer::class)->needs('$from')->give('ops@example.com')
//	c.Bind("Mailer::from", "ops@example.com")
func (c *Container) Bind(name string, value any, opts ...BindOption) error {
	var o bindOptions
	for _, opt := range opts {
		opt(&o)
	}

	argument := IsArgumentName(name)
	if o.argument != nil {
		argument = *o.argument
	}

	var b *binding
	if argument {
		b = newValueBinding(name, value, o.singleton)
	} else {
		b = newObjectBinding(name, value, o.singleton)
	}
	return c.register(b, o.overwrite)
}

// BindSingleton registers value under name as a singleton.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
//	c.BindSingleton("cache", func(c *container.Container) (any, error) {
//	    return cache.NewRedis(container.MustResolve[*config.Config](c, "config")), nil
//	})
func (c *Container) BindSingleton(name string, value any, opts ...BindOption) error {
	return c.Bind(name, value, append(opts, Singleton(true))...)
}

// BindArgument binds value to the constructor parameter param of class.
func (c *Container) BindArgument(class, param string, value any, opts ...BindOption) error {
	return c.Bind(ArgumentName(class, param), value, append(opts, Argument(true))...)
}

// BindSingletonArgument is BindArgument with a singleton binding.
func (c *Container) BindSingletonArgument(class, param string, value any, opts ...BindOption) error {
	return c.BindArgument(class, param, value, append(opts, Singleton(true))...)
}

// Instance registers an already built value as a resolved singleton,
// replacing any existing binding for name. Unlike Bind, the value is never
// rebuilt, whatever its kind.
//
//	// Laravel: $app->instance('config', $config)
//	c.Instance("config", cfg)
func (c *Container) Instance(name string, instance any) error {
	return c.register(newInstanceBinding(name, instance), true)
}

// MustBind is like Bind but panics on error.
func (c *Container) MustBind(name string, value any, opts ...BindOption) {
	must(c.Bind(name, value, opts...))
}

// MustBindSingleton is like BindSingleton but panics on error.
func (c *Container) MustBindSingleton(name string, value any, opts ...BindOption) {
	must(c.BindSingleton(name, value, opts...))
}

// register stores b and fires the rebound callbacks when it replaces a
// binding that had already produced a value.
func (c *Container) register(b *binding, overwrite bool) error {
	if b.memo != nil && b.memo.isResolved() {
		v, _ := b.memo.cached(b.name)
		b.memo.replace(c.applyExtenders(b.name, v))
	}

	c.core.mu.Lock()
	prev, exists := c.core.bindings[b.name]
	if exists && !overwrite && !prev.placeholder {
		c.core.mu.Unlock()
		return errAlreadyBound(b.name)
	}
	c.core.bindings[b.name] = b
	delete(c.core.aliases, b.name)
	rebound := exists && prev.produced() && len(c.core.reboundCallbacks[b.name]) > 0
	c.core.mu.Unlock()

	c.core.logger.Debug("container: bound",
		zap.String("name", b.name),
		zap.Stringer("kind", b.kind),
		zap.Bool("singleton", b.singleton()),
		zap.Bool("argument", b.argument))

	if rebound {
		return c.rebound(b.name)
	}
	return nil
}

// Unbind removes the binding or alias for name, if any.
//
//	// Laravel: $app->offsetUnset(Cache::class)
func (c *Container) Unbind(name string) {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	if _, ok := c.core.aliases[name]; ok {
		delete(c.core.aliases, name)
		c.core.logger.Debug("container: alias removed", zap.String("alias", name))
		return
	}
	if _, ok := c.core.bindings[name]; ok {
		delete(c.core.bindings, name)
		c.core.logger.Debug("container: unbound", zap.String("name", name))
	}
}

// Flush resets the entire container. Rebound and resolving callbacks are
// kept.
func (c *Container) Flush() {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	c.core.bindings = make(map[string]*binding)
	c.core.aliases = make(map[string]string)
	c.core.extenders = make(map[string][]Extender)
	c.core.tags = make(map[string][]string)
}

// ── Aliases ───────────────────────────────────────────────────────────────────

// Alias registers an alternative name for an abstract, which may itself be
// an alias.
//
//	// Laravel: $app->alias(CacheManager::class, 'cache')
//	c.Alias("CacheManager", "cache")
func (c *Container) Alias(abstract, alias string) error {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()

	target := c.core.canonical(abstract)
	if target == alias {
		return newError(ErrCodeInvalidBinding, alias, "cannot be aliased to itself", nil)
	}
	c.core.aliases[alias] = target
	c.core.logger.Debug("container: aliased", zap.String("alias", alias), zap.String("abstract", target))
	return nil
}

// IsAlias reports whether name is an alias.
func (c *Container) IsAlias(name string) bool {
	c.core.mu.RLock()
	defer c.core.mu.RUnlock()
	_, ok := c.core.aliases[name]
	return ok
}

// canonical follows aliases down to an abstract. Callers hold mu. Alias
// rejects cycles, so the bound on hops is only a guard.
func (cc *core) canonical(name string) string {
	for hops := 0; hops <= len(cc.aliases); hops++ {
		target, ok := cc.aliases[name]
		if !ok {
			return name
		}
		name = target
	}
	return name
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates every instance name resolves to from now on. A singleton
// that is already resolved is decorated in place and its rebound callbacks
// fire.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimedLogger($logger))
//	c.Extend("Logger", func(instance any, c *container.Container) any {
//	    return &TimedLogger{Inner: instance.(Logger)}
//	})
func (c *Container) Extend(name string, fn Extender) {
	c.core.mu.Lock()
	key := c.core.canonical(name)
	c.core.extenders[key] = append(c.core.extenders[key], fn)
	b, ok := c.core.bindings[key]
	c.core.mu.Unlock()

	if !ok || b.memo == nil || !b.memo.isResolved() {
		return
	}
	v, _ := b.memo.cached(key)
	b.memo.replace(fn(v, c))

	// Make on a resolved singleton does not fail.
	_ = c.rebound(key)
}

func (c *Container) applyExtenders(name string, instance any) any {
	c.core.mu.RLock()
	exts := append([]Extender(nil), c.core.extenders[name]...)
	c.core.mu.RUnlock()

	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(abstracts []string, tag string) {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	c.core.tags[tag] = append(c.core.tags[tag], abstracts...)
}

// Tagged resolves all abstracts registered under a tag, in tagging order.
//
//	// Laravel: $app->tagged('reports')
//	reports, err := c.Tagged("reports")
func (c *Container) Tagged(tag string) ([]any, error) {
	c.core.mu.RLock()
	abstracts := append([]string(nil), c.core.tags[tag]...)
	c.core.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		v, err := c.Make(abs)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves name from the container.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Make("UserRepository")
func (c *Container) Make(name string) (any, error) {
	return c.MakeWith(name, NoArgs)
}

// MakeWith resolves name, overriding constructor parameters with args.
//
//	// Laravel: $app->makeWith(Mailer::class, ['from' => 'ops@example.com'])
//	m, err := c.MakeWith("Mailer", container.Named(map[string]any{"from": "ops@example.com"}))
func (c *Container) MakeWith(name string, args Args) (any, error) {
	v, err := c.make(name, args)
	if err != nil && c.chain == nil {
		c.core.logger.Debug("container: resolution failed", zap.String("name", name), zap.Error(err))
	}
	return v, err
}

// MustMake is like Make but panics on error.
func (c *Container) MustMake(name string) any {
	v, err := c.Make(name)
	must(err)
	return v
}

// make is the internal resolver. Everything below it runs on the child view
// returned by enter.
func (c *Container) make(name string, args Args) (any, error) {
	name, b, ok := c.lookup(name)

	view, err := c.enter(name)
	if err != nil {
		return nil, err
	}

	if !ok {
		if IsArgumentName(name) {
			return nil, errArgumentBinding(name)
		}
		c.core.logger.Debug("container: auto-wiring", zap.String("class", name))
		b = newObjectBinding(name, name, false)
	}

	instance, err := b.make(view, args)
	if err != nil {
		return nil, err
	}

	c.fireAfterResolving(name, instance)
	return instance, nil
}

// lookup follows aliases and returns the abstract name points at along with
// its binding, if any.
func (c *Container) lookup(name string) (string, *binding, bool) {
	c.core.mu.RLock()
	defer c.core.mu.RUnlock()
	key := c.core.canonical(name)
	b, ok := c.core.bindings[key]
	return key, b, ok
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// IsBound returns true if an abstract or alias has been registered.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) IsBound(name string) bool {
	_, _, ok := c.lookup(name)
	return ok
}

// IsSingleton reports whether name is bound as a singleton.
func (c *Container) IsSingleton(name string) bool {
	_, b, ok := c.lookup(name)
	return ok && b.singleton()
}

// IsArgument reports whether name is bound as an argument (value) binding.
func (c *Container) IsArgument(name string) bool {
	_, b, ok := c.lookup(name)
	return ok && b.argument
}

// Resolved returns true if name is a singleton that has been resolved.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(name string) bool {
	_, b, ok := c.lookup(name)
	return ok && b.memo != nil && b.memo.isResolved()
}

// Bindings returns the sorted registered abstract keys (for debugging).
// Aliases are not included.
func (c *Container) Bindings() []string {
	c.core.mu.RLock()
	defer c.core.mu.RUnlock()
	out := make([]string, 0, len(c.core.bindings))
	for k := range c.core.bindings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BindingInfo describes one registration.
type BindingInfo struct {
	Name      string `json:"name"`
	AliasOf   string `json:"alias_of,omitempty"`
	Kind      string `json:"kind"`
	Singleton bool   `json:"singleton"`
	Argument  bool   `json:"argument"`
	Resolved  bool   `json:"resolved"`
	Extenders int    `json:"extenders,omitempty"`
}

// Describe reports how name is bound. For an alias, the aliased binding is
// described and AliasOf names it.
func (c *Container) Describe(name string) (BindingInfo, bool) {
	c.core.mu.RLock()
	defer c.core.mu.RUnlock()
	key := c.core.canonical(name)
	b, ok := c.core.bindings[key]
	if !ok {
		return BindingInfo{}, false
	}
	info := BindingInfo{
		Name:      name,
		Kind:      b.kind.String(),
		Singleton: b.singleton(),
		Argument:  b.argument,
		Resolved:  b.memo != nil && b.memo.isResolved(),
		Extenders: len(c.core.extenders[key]),
	}
	if key != name {
		info.AliasOf = key
	}
	return info, true
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after any abstract is resolved.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	c.core.afterResolving = append(c.core.afterResolving, cb)
}

func (c *Container) fireAfterResolving(abstract string, instance any) {
	c.core.mu.RLock()
	cbs := c.core.afterResolving
	c.core.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}

// Rebinding registers a callback fired with the new instance whenever name
// is re-bound after it has been resolved, or a resolved singleton is
// extended.
//
//	// Laravel: $app->rebinding('request', fn($app, $request) => ...)
func (c *Container) Rebinding(name string, cb func(instance any)) {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	key := c.core.canonical(name)
	c.core.reboundCallbacks[key] = append(c.core.reboundCallbacks[key], cb)
}

// rebound resolves name again and hands the instance to its callbacks.
func (c *Container) rebound(name string) error {
	c.core.mu.RLock()
	cbs := append(([]func(any))(nil), c.core.reboundCallbacks[name]...)
	c.core.mu.RUnlock()
	if len(cbs) == 0 {
		return nil
	}

	instance, err := c.Make(name)
	if err != nil {
		return err
	}
	for _, cb := range cbs {
		cb(instance)
	}
	return nil
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	// Instead of: v, err := c.Make("db"); db := v.(*gorm.DB)
//	// Write:      db, err := container.Resolve[*gorm.DB](c, "db")
func Resolve[T any](c *Container, abstract string) (T, error) {
	return ResolveWith[T](c, abstract, NoArgs)
}

// ResolveWith is Resolve with constructor overrides.
func ResolveWith[T any](c *Container, abstract string, args Args) (T, error) {
	var zero T
	instance, err := c.MakeWith(abstract, args)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%T]: [%s] resolved to %T", zero, abstract, instance)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, abstract string) T {
	typed, err := Resolve[T](c, abstract)
	must(err)
	return typed
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
