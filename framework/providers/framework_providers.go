package providers

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/inspect"
	"github.com/km-arc/go-container/framework/logging"
	"github.com/km-arc/go-container/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration into the
// container as "config". A nil Config is loaded from EnvFiles on first use.
//
// Bound abstracts:
//   - "config"  → *config.Config
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	if p.Config != nil {
		return app.Instance("config", p.Config)
	}
	envFiles := p.EnvFiles
	return app.BindSingleton("config", func() any {
		return config.Load(envFiles...)
	})
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the zap logger as "logger". A nil Logger is
// built from "config". With APP_DEBUG on, every resolution is logged, through
// whichever logger is bound at the time.
//
// Bound abstracts:
//   - "logger"  → *zap.Logger
//   - "log"     → alias of "logger"
//
// Laravel equivalent:
//
//	// Illuminate\Log\LogServiceProvider
//	$app->singleton('log', fn($app) => new LogManager($app));
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	preset := p.Logger
	err := app.BindSingleton("logger", func(c *container.Container) (any, error) {
		if preset != nil {
			return preset, nil
		}
		cfg, err := container.Resolve[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		return logging.New(cfg), nil
	})
	if err != nil {
		return err
	}
	return app.Alias("logger", "log")
}

func (p *LoggingServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	if !cfg.App.Debug {
		return nil
	}
	log, err := container.Resolve[*zap.Logger](app, "logger")
	if err != nil {
		return err
	}

	var current atomic.Pointer[zap.Logger]
	current.Store(log)
	app.Rebinding("logger", func(instance any) {
		if l, ok := instance.(*zap.Logger); ok {
			current.Store(l)
		}
	})
	app.AfterResolving(func(abstract string, instance any) {
		current.Load().Debug("resolved", zap.String("abstract", abstract), zap.String("type", typeName(instance)))
	})
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Bound abstracts:
//   - "router"  → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	return app.BindSingleton("router", func(c *container.Container) (any, error) {
		log, err := container.Resolve[*zap.Logger](c, "logger")
		if err != nil {
			return nil, err
		}
		return routing.New(log), nil
	})
}

// ── InspectServiceProvider ────────────────────────────────────────────────────

// InspectServiceProvider binds the container inspector and, when
// INSPECT_ENABLED is set, mounts it on the router under INSPECT_PREFIX.
//
// Bound abstracts:
//   - "inspector"  → *inspect.Inspector
type InspectServiceProvider struct {
	container.BaseProvider
}

func (p *InspectServiceProvider) Register(app *container.Container) error {
	// The inspector keeps the root container, not the resolving view.
	root := app
	return app.BindSingleton("inspector", func(c *container.Container) (any, error) {
		log, err := container.Resolve[*zap.Logger](c, "logger")
		if err != nil {
			return nil, err
		}
		return inspect.New(root, log), nil
	})
}

func (p *InspectServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	if !cfg.Inspect.Enabled {
		return nil
	}
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	inspector, err := container.Resolve[*inspect.Inspector](app, "inspector")
	if err != nil {
		return err
	}
	if prefix := cfg.Inspect.Prefix; prefix != "" && prefix != "/" {
		router.Prefix(prefix, inspector.Routes)
	} else {
		inspector.Routes(router)
	}
	return nil
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
