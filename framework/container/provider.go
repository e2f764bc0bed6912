package container

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Every provider must implement at minimum Register().
// Boot() is called after ALL providers have been registered, making it safe
// to resolve other bindings inside Boot().
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.BindSingleton("Mailer", "SMTPMailer")
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) error {
//	    _, err := app.Make("Mailer")
//	    return err
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here — use Boot() for that.
	//
	// A deferred provider is handed a view of the container that marks the
	// load, so resolving one of its own abstracts from Register fails with
	// ErrCyclicDependency instead of blocking.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the abstracts this provider registers. Only deferred
	// providers need it.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily —
	// only when one of its Provides() abstracts is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
//
// Registration and Boot normally happen during bootstrap on one goroutine.
// Deferred loads may be triggered by concurrent Make calls: the first caller
// loads the provider while the others wait for its outcome. A provider's
// Register and Boot run without any registry lock held, so they may resolve
// abstracts of other deferred providers.
type ProviderRegistry struct {
	mu sync.Mutex // guards everything below except app

	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // abstract → provider
	loaded     map[ServiceProvider]bool   // deferred providers already registered
	loading    map[ServiceProvider]*pendingLoad
	booted     bool
	registered map[ServiceProvider]bool
}

// pendingLoad is a deferred provider load in flight.
type pendingLoad struct {
	done  chan struct{}
	err   error
	owner *frame // root of the chain handed to the provider
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		loaded:     make(map[ServiceProvider]bool),
		loading:    make(map[ServiceProvider]*pendingLoad),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = provider
		}
		r.mu.Unlock()
		return r.interceptDeferred(provider)
	}
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return err
	}

	r.mu.Lock()
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	// If already booted, boot this provider immediately
	if booted {
		return provider.Boot(r.app)
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *ProviderRegistry) MustRegister(provider ServiceProvider) {
	must(r.Register(provider))
}

// interceptDeferred registers a placeholder binding for each deferred
// abstract.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) error {
	for _, abstract := range provider.Provides() {
		if err := r.app.register(r.placeholder(provider, abstract), false); err != nil {
			return err
		}
	}
	return nil
}

// placeholder builds the stand-in binding for one deferred abstract. Its
// first resolution loads the provider, whose own bindings replace the
// placeholders, then resolves the real binding on the same view so the
// resolution chain and the resolving callbacks see a single Make.
func (r *ProviderRegistry) placeholder(provider ServiceProvider, abs string) *binding {
	factory := ObjectFactory(func(c *Container, args Args) (any, error) {
		if err := r.load(provider, c); err != nil {
			return nil, err
		}
		_, b, ok := c.lookup(abs)
		if !ok || b.placeholder {
			return nil, errUninstantiable(abs, errNotProvided)
		}
		return b.make(c, args)
	})

	var b *binding
	if IsArgumentName(abs) {
		b = newValueBinding(abs, factory, false)
	} else {
		b = newObjectBinding(abs, factory, false)
	}
	b.placeholder = true
	return b
}

var errNotProvided = errors.New("deferred provider did not bind it")

// load registers a deferred provider once. Concurrent callers wait for the
// first one; a failed load leaves the placeholders in place so the next
// Make tries again.
func (r *ProviderRegistry) load(provider ServiceProvider, c *Container) error {
	r.mu.Lock()
	if r.loaded[provider] {
		r.mu.Unlock()
		return nil
	}
	if p, ok := r.loading[provider]; ok {
		r.mu.Unlock()
		if c.chain.descendsFrom(p.owner) {
			e := newError(ErrCodeCyclicDependency, c.chain.name,
				"deferred provider resolved one of its own abstracts while loading", nil)
			e.Chain = c.chain.names()
			return e
		}
		<-p.done
		return p.err
	}

	p := &pendingLoad{
		done:  make(chan struct{}),
		owner: &frame{name: fmt.Sprintf("%T", provider), depth: 1},
	}
	r.loading[provider] = p
	r.mu.Unlock()

	p.err = r.run(provider, &Container{core: c.core, chain: p.owner})
	if p.err != nil {
		r.restore(provider)
	}

	r.mu.Lock()
	delete(r.loading, provider)
	if p.err == nil {
		r.loaded[provider] = true
		for _, abs := range provider.Provides() {
			delete(r.deferred, abs)
		}
	}
	r.mu.Unlock()
	close(p.done)
	return p.err
}

// run calls Register and, once the registry is booted, Boot. A provider
// loaded before Boot() joins the eager list and is booted with it.
func (r *ProviderRegistry) run(provider ServiceProvider, app *Container) error {
	app.core.logger.Debug("container: loading deferred provider", zap.Strings("provides", provider.Provides()))

	if err := provider.Register(app); err != nil {
		return err
	}

	r.mu.Lock()
	booted := r.booted
	if !booted {
		r.eager = append(r.eager, provider)
	}
	r.mu.Unlock()

	if booted {
		return provider.Boot(app)
	}
	return nil
}

// restore puts the placeholders back over whatever a failed load bound.
func (r *ProviderRegistry) restore(provider ServiceProvider) {
	cc := r.app.core
	cc.mu.Lock()
	defer cc.mu.Unlock()
	for _, abs := range provider.Provides() {
		cc.bindings[abs] = r.placeholder(provider, abs)
	}
	cc.logger.Debug("container: deferred provider failed to load", zap.Strings("provides", provider.Provides()))
}

// Boot calls Boot() on all eager providers, including deferred ones loaded
// so far.
// Must be called after ALL providers have been registered.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return err
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the registered eager providers and the deferred ones
// loaded so far.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}

// Deferred returns the abstracts still waiting on a deferred provider.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for abs := range r.deferred {
		out = append(out, abs)
	}
	return out
}
