// Package inspect serves a read-only JSON view of a container's bindings
// and registered classes.
//
//	GET /bindings          → every binding, sorted by name
//	GET /bindings/{name}   → one binding, 404 when unbound
//	GET /classes           → registered class names
//	GET /classes/{name}    → constructor description of one class
package inspect

import (
	"errors"
	"net/http"
	"net/url"
	"sort"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/introspect"
	gohttp "github.com/km-arc/go-container/http"
	"github.com/km-arc/go-container/routing"
)

// classLister is implemented by introspectors that can enumerate their
// classes, such as *introspect.Registry.
type classLister interface {
	Classes() []string
}

// Inspector exposes a container over HTTP.
type Inspector struct {
	c   *container.Container
	log *zap.Logger
}

// New returns an Inspector for c.
func New(c *container.Container, log *zap.Logger) *Inspector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inspector{c: c, log: log.Named("inspect")}
}

// ErrCodeIntrospection is the error code sent when the introspector fails
// for a reason other than an unknown class.
const ErrCodeIntrospection = "INTROSPECTION_FAILED"

// Routes registers the inspector endpoints on r. Responses reflect live
// container state and are never cached.
func (i *Inspector) Routes(r *routing.Router) {
	r.Group(func(g *routing.Router) {
		g.Middleware(noStore)
		g.Get("/bindings", i.listBindings)
		g.Get("/bindings/{name}", i.showBinding)
		g.Get("/classes", i.listClasses)
		g.Get("/classes/{name}", i.showClass)
	})
}

// Handler returns a standalone router mounted under prefix.
func (i *Inspector) Handler(prefix string) http.Handler {
	r := routing.New(i.log)
	if prefix == "" || prefix == "/" {
		i.Routes(r)
	} else {
		r.Prefix(prefix, i.Routes)
	}
	return r.Handler()
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (i *Inspector) listBindings(w http.ResponseWriter, _ *http.Request) {
	names := i.c.Bindings()
	out := make([]container.BindingInfo, 0, len(names))
	for _, name := range names {
		// a concurrent Unbind may have removed it since Bindings()
		if info, ok := i.c.Describe(name); ok {
			out = append(out, info)
		}
	}
	gohttp.NewResponse(w).Success(out)
}

func (i *Inspector) showBinding(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")
	info, ok := i.c.Describe(name)
	if !ok {
		gohttp.NewResponse(w).NotFound("no binding named " + name)
		return
	}
	gohttp.NewResponse(w).Success(info)
}

func (i *Inspector) listClasses(w http.ResponseWriter, _ *http.Request) {
	classes := []string{}
	if l, ok := i.c.Introspector().(classLister); ok {
		classes = append(classes, l.Classes()...)
		sort.Strings(classes)
	}
	gohttp.NewResponse(w).Success(classes)
}

func (i *Inspector) showClass(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")
	class, err := i.c.Introspector().Describe(name)
	switch {
	case errors.Is(err, introspect.ErrUnknownClass):
		gohttp.NewResponse(w).NotFound("no class named " + name)
	case err != nil:
		i.log.Error("describe class", zap.String("class", name), zap.Error(err))
		gohttp.NewResponse(w).ErrorWithCode(http.StatusInternalServerError, ErrCodeIntrospection, err.Error())
	default:
		gohttp.NewResponse(w).Success(class)
	}
}

// param returns the unescaped route param so names like "Car::engine" or
// "App\Mailer" survive percent-encoding.
func param(r *http.Request, key string) string {
	raw := routing.Param(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
