// Package container provides a Laravel-compatible IoC (Inversion of Control)
// container and Service Provider system for Go.
//
// # Overview
//
// The container maps abstract names to resolution strategies and resolves
// them on demand. Names come in two shapes:
//
//   - class names, "App\\Mailer": built by auto-wiring the constructor, or
//     from whatever the name is bound to;
//   - argument names, "App\\Mailer::from": a value for one constructor
//     parameter of one class. These are never auto-wired.
//
// Constructors are described by an introspect.Introspector; the default is
// an empty *introspect.Registry that the application fills in.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithIntrospector(reg))
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()        — safe to resolve everything after this
//  4. Make what you need
//
// # Bindings
//
//	// Transient class binding — a new Mailer every Make()
//	// Laravel: $app->bind(MailerContract::class, SmtpMailer::class)
//	c.Bind("MailerContract", "SmtpMailer")
//
//	// Singleton — created once, reused
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache)
//	c.BindSingleton("Cache", func(c *container.Container) (any, error) {
//	    return cache.NewRedis(), nil
//	})
//
//	// Pre-built instance
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("Config", cfg)
//
//	// Alias
//	// Laravel: $app->alias(CacheManager::class, 'cache')
//	c.Alias("CacheManager", "cache")
//
//	// Argument binding
//	// Laravel: $app->when(SmtpMailer::class)->needs('$host')->give('smtp.local')
//	c.BindArgument("SmtpMailer", "host", "smtp.local")
//	c.When("SmtpMailer").Needs("port").Give(2525)
//
// # Resolving
//
//	// Laravel: $app->make(MailerContract::class)
//	m, err := c.Make("MailerContract")
//
//	// Laravel: $app->makeWith(SmtpMailer::class, ['port' => 25])
//	m, err := c.MakeWith("SmtpMailer", container.Named(map[string]any{"port": 25}))
//
//	// Generic
//	m, err := container.Resolve[*SmtpMailer](c, "SmtpMailer")
//
// Each constructor parameter is resolved from, in order: a named override,
// the argument binding "<bound name>::<param>", the parameter's class hint,
// its default. Anything else fails with ErrArgumentBinding.
//
// # Decorators
//
//	// Laravel: $app->extend(Mailer::class, fn($m, $app) => new QueuedMailer($m))
//	c.Extend("Mailer", func(instance any, c *container.Container) any {
//	    return &QueuedMailer{Inner: instance.(Mailer)}
//	})
//
// # Tags
//
//	// Laravel: $app->tag([CpuReport::class, MemReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemReport"}, "reports")
//	reports, err := c.Tagged("reports")
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.BindSingleton("Mailer", "SmtpMailer")
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) error {
//	    return app.BindSingleton("heavy", heavySetup) // only on first app.Make("heavy")
//	}
package container
