package container

// Args are caller-supplied constructor overrides for MakeWith.
//
// With Named set, named entries override parameters by name and Positional
// entries are overflow appended after every resolved parameter. Without it,
// Positional fills the constructor parameters in declaration order and
// whatever is left over becomes overflow.
//
//	c.MakeWith("Mailer", container.Positional(transport, "ops@example.com"))
//	c.MakeWith("Mailer", container.Named(map[string]any{"from": "ops@example.com"}))
type Args struct {
	Named      map[string]any
	Positional []any
}

// NoArgs resolves everything from the container.
var NoArgs = Args{}

// Positional builds positional Args.
func Positional(values ...any) Args {
	return Args{Positional: values}
}

// Named builds named Args; overflow values go after all parameters.
func Named(values map[string]any, overflow ...any) Args {
	return Args{Named: values, Positional: overflow}
}

// With returns a copy of a with name set as a named argument.
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	for k, v := range a.Named {
		named[k] = v
	}
	named[name] = value
	return Args{Named: named, Positional: a.Positional}
}

// IsNamed reports whether a overrides parameters by name.
func (a Args) IsNamed() bool {
	return len(a.Named) > 0
}

// IsEmpty reports whether a carries no overrides at all.
func (a Args) IsEmpty() bool {
	return len(a.Named) == 0 && len(a.Positional) == 0
}
