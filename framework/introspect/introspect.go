// Package introspect describes the constructors of named classes so the
// container can auto-wire them.
//
// Go has no runtime access to constructor parameter names and no class
// table keyed by name, so classes are registered up front with a Registry:
//
//	reg := introspect.NewRegistry()
//	reg.MustRegister("App\\Mailer", NewMailer, introspect.Params("transport", "from"))
//	reg.MustRegisterStruct("App\\Config", Config{})
//	reg.MustRegisterAbstract("App\\Transport", (*Transport)(nil))
//
// Anything implementing Introspector can be handed to the container instead.
package introspect

import (
	"errors"
)

var (
	// ErrUnknownClass is returned by Describe and Instantiate for names that
	// were never registered.
	ErrUnknownClass = errors.New("introspect: unknown class")
	// ErrAbstractClass is returned by Instantiate for RegisterAbstract names.
	ErrAbstractClass = errors.New("introspect: class is abstract")
	// ErrArgumentCount means Instantiate got fewer values than the
	// constructor needs, or more for a non-variadic one.
	ErrArgumentCount = errors.New("introspect: wrong number of arguments")
	// ErrArgumentType means a value cannot be assigned to its parameter.
	ErrArgumentType = errors.New("introspect: argument type mismatch")
	// ErrInvalidClass wraps every registration failure.
	ErrInvalidClass = errors.New("introspect: invalid class registration")
)

// Param describes one constructor parameter.
type Param struct {
	Name string `json:"name"`

	// Type is the class name hinted by the parameter's Go type, empty when
	// the parameter is a plain scalar.
	Type string `json:"type,omitempty"`

	Default    any  `json:"-"`
	HasDefault bool `json:"has_default"`

	// Variadic marks a trailing ...T parameter. It only ever receives
	// overflow arguments.
	Variadic bool `json:"variadic"`

	DeclaringClass string `json:"declaring_class"`
}

// Class is the constructor description of a registered class.
type Class struct {
	Name     string  `json:"name"`
	Abstract bool    `json:"abstract"`
	Params   []Param `json:"params"`
}

// Introspector is the capability the container needs from the host: describe
// a constructor, name the class of an instance, and build an instance.
type Introspector interface {
	// Describe returns ErrUnknownClass for names it does not know.
	Describe(class string) (*Class, error)

	// ClassOf reports the registered class name of instance.
	ClassOf(instance any) (string, bool)

	// Instantiate calls the constructor of class with args in order.
	Instantiate(class string, args []any) (any, error)
}
