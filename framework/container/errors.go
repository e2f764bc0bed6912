package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies container failures.
type ErrorCode uint8

const (
	// ErrCodeUnknown is the zero code; no container error carries it.
	ErrCodeUnknown ErrorCode = iota
	// ErrCodeInvalidBinding: a class binding was given a value that is not a
	// class name, an instance or a factory, or an alias points at itself.
	ErrCodeInvalidBinding
	// ErrCodeUninstantiable: the class is unknown to the introspector or is
	// abstract.
	ErrCodeUninstantiable
	// ErrCodeArgumentBinding: a constructor parameter has no named arg, no
	// argument binding, no type hint and no default.
	ErrCodeArgumentBinding
	// ErrCodeAlreadyBound: Bind without Overwrite on a taken name.
	ErrCodeAlreadyBound
	// ErrCodeNoResolvedValue: a singleton memo was read before it was filled.
	ErrCodeNoResolvedValue
	// ErrCodeCyclicDependency: an abstract was needed while it was itself
	// being resolved. Error.Chain holds the cycle.
	ErrCodeCyclicDependency
	// ErrCodeTooManyArguments: positional overflow for a non-variadic
	// constructor.
	ErrCodeTooManyArguments
	// ErrCodeConstruction: the constructor ran and returned an error.
	ErrCodeConstruction
	// ErrCodeMaxDepthExceeded: the resolution chain grew past WithMaxDepth.
	// Error.Chain holds the chain up to the rejected abstract.
	ErrCodeMaxDepthExceeded
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:          "UNKNOWN",
	ErrCodeInvalidBinding:   "INVALID_BINDING",
	ErrCodeUninstantiable:   "UNINSTANTIABLE_BINDING",
	ErrCodeArgumentBinding:  "ARGUMENT_BINDING",
	ErrCodeAlreadyBound:     "ALREADY_BOUND",
	ErrCodeNoResolvedValue:  "NO_RESOLVED_VALUE",
	ErrCodeCyclicDependency: "CYCLIC_DEPENDENCY",
	ErrCodeTooManyArguments: "TOO_MANY_ARGUMENTS",
	ErrCodeConstruction:     "CONSTRUCTION_FAILED",
	ErrCodeMaxDepthExceeded: "MAX_DEPTH_EXCEEDED",
}

// String returns the stable upper-case name of the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is returned by every failing container operation. Compare with the
// Err* sentinels through errors.Is, which matches on Code only.
type Error struct {
	Code    ErrorCode
	Name    string // binding or Class::param the failure is about
	Message string
	Cause   error
	Chain   []string // resolution chain, set for cycles and depth overflow
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("container: [")
	b.WriteString(e.Code.String())
	b.WriteString("]")

	if e.Name != "" {
		fmt.Fprintf(&b, " [%s]", e.Name)
	}
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is; each matches any *Error with the same code.
//
//	if errors.Is(err, container.ErrUninstantiable) { ... }
var (
	ErrInvalidBinding   = &Error{Code: ErrCodeInvalidBinding}
	ErrUninstantiable   = &Error{Code: ErrCodeUninstantiable}
	ErrArgumentBinding  = &Error{Code: ErrCodeArgumentBinding}
	ErrAlreadyBound     = &Error{Code: ErrCodeAlreadyBound}
	ErrNoResolvedValue  = &Error{Code: ErrCodeNoResolvedValue}
	ErrCyclicDependency = &Error{Code: ErrCodeCyclicDependency}
	ErrTooManyArguments = &Error{Code: ErrCodeTooManyArguments}
	ErrConstruction     = &Error{Code: ErrCodeConstruction}
	ErrMaxDepthExceeded = &Error{Code: ErrCodeMaxDepthExceeded}
)

func newError(code ErrorCode, name, message string, cause error) *Error {
	return &Error{Code: code, Name: name, Message: message, Cause: cause}
}

func errInvalidBinding(name string, value any) *Error {
	return newError(ErrCodeInvalidBinding, name,
		fmt.Sprintf("cannot bind a %T as a class; expected a class name, an instance or a factory", value), nil)
}

func errUninstantiable(class string, cause error) *Error {
	return newError(ErrCodeUninstantiable, class, "class cannot be instantiated", cause)
}

func errArgumentBinding(name string) *Error {
	return newError(ErrCodeArgumentBinding, name, "no value bound and no type hint or default to fall back on", nil)
}

func errAlreadyBound(name string) *Error {
	return newError(ErrCodeAlreadyBound, name, "already bound; pass Overwrite(true) to replace it", nil)
}

func errNoResolvedValue(name string) *Error {
	return newError(ErrCodeNoResolvedValue, name, "singleton read before it was resolved", nil)
}

func errCyclicDependency(chain []string) *Error {
	e := newError(ErrCodeCyclicDependency, chain[len(chain)-1],
		"circular dependency: "+strings.Join(chain, " -> "), nil)
	e.Chain = chain
	return e
}

func errMaxDepthExceeded(chain []string, limit int) *Error {
	e := newError(ErrCodeMaxDepthExceeded, chain[len(chain)-1],
		fmt.Sprintf("resolution deeper than %d levels", limit), nil)
	e.Chain = chain
	return e
}

func errTooManyArguments(class string, overflow int) *Error {
	return newError(ErrCodeTooManyArguments, class,
		fmt.Sprintf("%d extra argument(s) given but the constructor is not variadic", overflow), nil)
}

func errConstruction(class string, cause error) *Error {
	return newError(ErrCodeConstruction, class, "constructor failed", cause)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsInvalidBinding reports whether err carries ErrCodeInvalidBinding.
func IsInvalidBinding(err error) bool { return hasCode(err, ErrCodeInvalidBinding) }

// IsUninstantiable reports whether err carries ErrCodeUninstantiable.
func IsUninstantiable(err error) bool { return hasCode(err, ErrCodeUninstantiable) }

// IsArgumentBinding reports whether err carries ErrCodeArgumentBinding.
func IsArgumentBinding(err error) bool { return hasCode(err, ErrCodeArgumentBinding) }

// IsAlreadyBound reports whether err carries ErrCodeAlreadyBound.
func IsAlreadyBound(err error) bool { return hasCode(err, ErrCodeAlreadyBound) }

// IsCyclicDependency reports whether err carries ErrCodeCyclicDependency.
func IsCyclicDependency(err error) bool { return hasCode(err, ErrCodeCyclicDependency) }

// IsMaxDepthExceeded reports whether err carries ErrCodeMaxDepthExceeded.
func IsMaxDepthExceeded(err error) bool { return hasCode(err, ErrCodeMaxDepthExceeded) }
