package container

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/introspect"
)

// Option configures a Container at construction.
type Option func(*core)

// WithIntrospector sets the class introspector used for auto-wiring.
// Defaults to an empty *introspect.Registry.
func WithIntrospector(i introspect.Introspector) Option {
	return func(c *core) {
		c.introspector = i
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *core) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxDepth caps how deep one Make call may recurse. Zero means no cap;
// cycles are detected either way.
func WithMaxDepth(n int) Option {
	return func(c *core) {
		c.maxDepth = n
	}
}

// BindOption configures a single Bind call.
type BindOption func(*bindOptions)

type bindOptions struct {
	singleton bool
	argument  *bool
	overwrite bool
}

// Singleton caches the first resolved value for the container's lifetime.
func Singleton(on bool) BindOption {
	return func(o *bindOptions) { o.singleton = on }
}

// Argument forces argument-style (on) or class-style (off) resolution. When
// not given it is inferred from the "::" separator in the name.
func Argument(on bool) BindOption {
	return func(o *bindOptions) { o.argument = &on }
}

// Overwrite replaces an existing binding instead of failing.
func Overwrite(on bool) BindOption {
	return func(o *bindOptions) { o.overwrite = on }
}
