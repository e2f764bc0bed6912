package container

import (
	"errors"
	"reflect"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/introspect"
)

// build constructs class, resolving every constructor parameter from args,
// argument bindings under boundAs, type hints and defaults, in that order.
func (c *Container) build(class, boundAs string, args Args) (any, error) {
	desc, err := c.core.introspector.Describe(class)
	if err != nil {
		return nil, errUninstantiable(class, err)
	}
	if desc.Abstract {
		return nil, errUninstantiable(class, introspect.ErrAbstractClass)
	}

	if len(desc.Params) == 0 {
		return c.instantiate(class, nil)
	}

	named, overflow := splitArgs(desc.Params, args)

	values := make([]any, 0, len(desc.Params)+len(overflow))
	var variadic *introspect.Param
	for i := range desc.Params {
		p := &desc.Params[i]
		if p.Variadic {
			variadic = p
			continue
		}

		v, err := c.resolveParam(desc.Name, boundAs, p, named)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	if variadic == nil {
		if len(overflow) > 0 {
			return nil, errTooManyArguments(class, len(overflow))
		}
		return c.instantiate(class, values)
	}

	if v, ok := named[variadic.Name]; ok {
		values = append(values, spread(v)...)
	} else if name := ArgumentName(boundAs, variadic.Name); len(overflow) == 0 && c.IsBound(name) {
		v, err := c.make(name, NoArgs)
		if err != nil {
			return nil, err
		}
		values = append(values, spread(v)...)
	}

	return c.instantiate(class, append(values, overflow...))
}

// splitArgs separates caller args into named overrides and overflow. In
// positional mode the values fill non-variadic parameters by position.
func splitArgs(params []introspect.Param, args Args) (map[string]any, []any) {
	if args.IsNamed() {
		return args.Named, args.Positional
	}

	named := make(map[string]any, len(params))
	rest := args.Positional
	for _, p := range params {
		if len(rest) == 0 || p.Variadic {
			break
		}
		named[p.Name] = rest[0]
		rest = rest[1:]
	}
	return named, rest
}

func (c *Container) resolveParam(class, boundAs string, p *introspect.Param, named map[string]any) (any, error) {
	if v, ok := named[p.Name]; ok {
		return v, nil
	}

	if name := ArgumentName(boundAs, p.Name); c.IsBound(name) {
		return c.make(name, NoArgs)
	}

	if p.Type != "" {
		return c.make(p.Type, NoArgs)
	}

	if p.HasDefault {
		return p.Default, nil
	}

	return nil, errArgumentBinding(ArgumentName(class, p.Name))
}

func (c *Container) instantiate(class string, values []any) (any, error) {
	instance, err := c.core.introspector.Instantiate(class, values)
	if err == nil {
		c.core.logger.Debug("container: built",
			zap.String("class", class), zap.Int("args", len(values)))
		return instance, nil
	}

	if errors.Is(err, introspect.ErrUnknownClass) || errors.Is(err, introspect.ErrAbstractClass) {
		return nil, errUninstantiable(class, err)
	}
	return nil, errConstruction(class, err)
}

// spread expands a slice into its elements; anything else is one value.
func spread(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
