package container_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-container/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalled bool
	bootCalled     bool
}

func (p *eagerProvider) Register(app *container.Container) error {
	p.registerCalled = true
	return app.BindSingleton("eager::svc", "eager")
}

func (p *eagerProvider) Boot(app *container.Container) error {
	p.bootCalled = true
	return nil
}

// deferredProvider is lazy — only registered when "deferred-svc" is first resolved.
type deferredProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalled    bool
}

func (p *deferredProvider) Register(app *container.Container) error {
	p.registerCalls++
	return app.BindSingleton("deferred-svc", func() any { return &Engine{HP: 42} })
}

func (p *deferredProvider) Boot(app *container.Container) error {
	p.bootCalled = true
	return nil
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc"} }

// multiProvider registers multiple abstracts.
type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(app *container.Container) error {
	if err := app.BindSingleton("greek::alpha", "α"); err != nil {
		return err
	}
	return app.BindSingleton("greek::beta", "β")
}

type failingProvider struct {
	container.BaseProvider
}

var errProvider = errors.New("provider failed")

func (p *failingProvider) Register(*container.Container) error { return errProvider }

// bootResolvingProvider is deferred and resolves another deferred
// provider's abstract from Boot.
type bootResolvingProvider struct {
	container.BaseProvider
	needs string
	got   any
}

func (p *bootResolvingProvider) Register(app *container.Container) error {
	return app.BindSingleton("Garage", func() any { return &Garage{} })
}

func (p *bootResolvingProvider) Boot(app *container.Container) error {
	v, err := app.Make(p.needs)
	p.got = v
	return err
}

func (p *bootResolvingProvider) IsDeferred() bool   { return true }
func (p *bootResolvingProvider) Provides() []string { return []string{"Garage"} }

// flakyDeferredProvider fails Register until healed.
type flakyDeferredProvider struct {
	container.BaseProvider
	healed        bool
	registerCalls int
}

func (p *flakyDeferredProvider) Register(app *container.Container) error {
	p.registerCalls++
	if !p.healed {
		return errProvider
	}
	return app.BindSingleton("flaky-svc", func() any { return &Engine{HP: 7} })
}

func (p *flakyDeferredProvider) IsDeferred() bool   { return true }
func (p *flakyDeferredProvider) Provides() []string { return []string{"flaky-svc"} }

// selfResolvingProvider resolves its own deferred abstract from Register.
type selfResolvingProvider struct {
	container.BaseProvider
}

func (p *selfResolvingProvider) Register(app *container.Container) error {
	_, err := app.Make("self-svc")
	return err
}

func (p *selfResolvingProvider) IsDeferred() bool   { return true }
func (p *selfResolvingProvider) Provides() []string { return []string{"self-svc"} }

// slowDeferredProvider counts Register calls and takes a while doing it.
type slowDeferredProvider struct {
	container.BaseProvider
	registerCalls atomic.Int32
}

func (p *slowDeferredProvider) Register(app *container.Container) error {
	p.registerCalls.Add(1)
	time.Sleep(10 * time.Millisecond)
	return app.BindSingleton("slow-svc", func() any { return &Engine{HP: 1} })
}

func (p *slowDeferredProvider) IsDeferred() bool   { return true }
func (p *slowDeferredProvider) Provides() []string { return []string{"slow-svc"} }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	reg := container.NewProviderRegistry(newContainer())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	assert.True(t, p.registerCalled, "Register() should be called immediately for eager providers")
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	reg := container.NewProviderRegistry(newContainer())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	assert.False(t, p.bootCalled, "Boot() should NOT be called before registry.Boot()")

	require.NoError(t, reg.Boot())
	assert.True(t, p.bootCalled)
}

func TestRegistry_EagerProvider_ServiceResolvable(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	got, err := c.Make("eager::svc")
	require.NoError(t, err)
	assert.Equal(t, "eager", got)
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	reg := container.NewProviderRegistry(newContainer())
	require.NoError(t, reg.Register(&eagerProvider{}))

	require.NoError(t, reg.Boot())
	require.NoError(t, reg.Boot())
	assert.True(t, reg.Booted())
}

func TestRegistry_Booted_FalseBeforeBoot(t *testing.T) {
	reg := container.NewProviderRegistry(newContainer())
	assert.False(t, reg.Booted())
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	reg := container.NewProviderRegistry(newContainer())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Register(p), "second register of the same instance must not hit AlreadyBound")
	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_RegisterError_Propagates(t *testing.T) {
	reg := container.NewProviderRegistry(newContainer())
	assert.ErrorIs(t, reg.Register(&failingProvider{}), errProvider)
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProvider_NotRegisteredEagerly(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	assert.Zero(t, p.registerCalls, "deferred provider Register() should not be called until Make()")
	assert.True(t, c.IsBound("deferred-svc"))
	assert.Equal(t, []string{"deferred-svc"}, reg.Deferred())
}

func TestRegistry_DeferredProvider_RegisteredOnFirstMake(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	first, err := c.Make("deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, 42, first.(*Engine).HP)

	second, err := c.Make("deferred-svc")
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.Equal(t, 1, p.registerCalls)
	assert.True(t, p.bootCalled, "deferred provider loaded after Boot() is booted on load")
	assert.True(t, c.IsSingleton("deferred-svc"))
	assert.Empty(t, reg.Deferred())
}

// ── Multiple providers ────────────────────────────────────────────────────────

func TestRegistry_MultipleProviders_AllServicesResolvable(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&multiProvider{}))
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	for name, want := range map[string]string{"greek::alpha": "α", "greek::beta": "β", "eager::svc": "eager"} {
		got, err := c.Make(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestRegistry_Providers_ReturnsEagerOnes(t *testing.T) {
	reg := container.NewProviderRegistry(newContainer())
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Register(&deferredProvider{}))

	assert.Len(t, reg.Providers(), 1)
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider

	assert.NoError(t, p.Boot(newContainer()))
	assert.False(t, p.IsDeferred())
	assert.Empty(t, p.Provides())
}

// ── Boot after registration (late provider) ───────────────────────────────────

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	reg := container.NewProviderRegistry(newContainer())
	require.NoError(t, reg.Boot())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	assert.True(t, p.bootCalled, "provider registered after Boot() should be booted immediately")
}

// ── Deferred loading edge cases ───────────────────────────────────────────────

func TestRegistry_DeferredBootResolvesOtherDeferred(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)
	outer := &bootResolvingProvider{needs: "deferred-svc"}
	inner := &deferredProvider{}
	require.NoError(t, reg.Register(outer))
	require.NoError(t, reg.Register(inner))
	require.NoError(t, reg.Boot())

	done := make(chan error, 1)
	go func() {
		_, err := c.Make("Garage")
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Make blocked while one deferred provider loaded another")
	}

	assert.Equal(t, 42, outer.got.(*Engine).HP)
	assert.Equal(t, 1, inner.registerCalls)
	assert.Empty(t, reg.Deferred())
}

func TestRegistry_DeferredRegisterFailure_IsNotForgotten(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)
	p := &flakyDeferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	_, err := c.Make("flaky-svc")
	require.ErrorIs(t, err, errProvider)

	_, err = c.Make("flaky-svc")
	require.ErrorIs(t, err, errProvider, "second Make must retry the provider, not auto-wire")
	assert.Equal(t, 2, p.registerCalls)
	assert.True(t, c.IsBound("flaky-svc"))
	assert.Equal(t, []string{"flaky-svc"}, reg.Deferred())

	p.healed = true
	got, err := c.Make("flaky-svc")
	require.NoError(t, err)
	assert.Equal(t, 7, got.(*Engine).HP)
	assert.Empty(t, reg.Deferred())
}

func TestRegistry_DeferredRegisterResolvingItself_FailsFast(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&selfResolvingProvider{}))

	done := make(chan error, 1)
	go func() {
		_, err := c.Make("self-svc")
		done <- err
	}()

	select {
	case err := <-done:
		assert.True(t, container.IsCyclicDependency(err), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("provider resolving its own abstract blocked forever")
	}
}

func TestRegistry_DeferredResolution_FiresAfterResolvingOnce(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&deferredProvider{}))

	var calls []string
	c.AfterResolving(func(abstract string, _ any) { calls = append(calls, abstract) })

	_, err := c.Make("deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, []string{"deferred-svc"}, calls)

	_, err = c.Make("deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, []string{"deferred-svc", "deferred-svc"}, calls)
}

func TestRegistry_DeferredLoadedBeforeBoot_IsBootedWithTheRest(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)
	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))

	_, err := c.Make("deferred-svc")
	require.NoError(t, err)
	assert.False(t, p.bootCalled)
	assert.Len(t, reg.Providers(), 1)

	require.NoError(t, reg.Boot())
	assert.True(t, p.bootCalled)
}

func TestRegistry_DeferredConcurrentMake_LoadsOnce(t *testing.T) {
	c := newContainer()
	reg := container.NewProviderRegistry(c)
	p := &slowDeferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	const n = 16
	results := make([]any, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Make("slow-svc")
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, int32(1), p.registerCalls.Load())
}
