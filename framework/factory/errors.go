package factory

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per failure kind. Every *Error matches exactly one
// of them through errors.Is.
var (
	// ErrNotRegistered indicates no exact or unique subtype registration
	// exists for the requested key.
	ErrNotRegistered = errors.New("not registered")

	// ErrAmbiguousRegistration indicates more than one subtype registration
	// matches an unnamed request.
	ErrAmbiguousRegistration = errors.New("ambiguous registration")

	// ErrInstantiationFailed indicates a constructor returned an error,
	// panicked, or built a value of the wrong type.
	ErrInstantiationFailed = errors.New("instantiation failed")

	// ErrCyclicDependency indicates a key was reached again while it was
	// still being resolved.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrTypeMismatch is the cause attached to an instantiation failure
	// when the built value is not assignable to the key's type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Error describes a failed factory operation.
type Error struct {
	// Kind is one of the sentinel errors above.
	Kind error
	// Key is the key being looked up or built.
	Key Key
	// Creator is the recipe that failed, for instantiation failures.
	Creator *Creator
	// Candidates lists the conflicting registrations on ambiguity.
	Candidates []Key
	// Path is the resolution chain that closed a cycle.
	Path []Key
	// Cause is the underlying construction failure.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case ErrNotRegistered:
		return fmt.Sprintf("factory: %s not registered", e.Key)
	case ErrAmbiguousRegistration:
		return fmt.Sprintf(
			"factory: multiple creatables of type %s available, use one of the following names: %s or a more specific type",
			typeName(e.Key.Type), strings.Join(e.CandidateNames(), ", "))
	case ErrInstantiationFailed:
		if e.Creator != nil {
			return fmt.Sprintf("factory: unable to instantiate %s (%s): %v", e.Key, e.Creator, e.Cause)
		}
		return fmt.Sprintf("factory: unable to instantiate %s: %v", e.Key, e.Cause)
	case ErrCyclicDependency:
		hops := make([]string, len(e.Path))
		for i, k := range e.Path {
			hops[i] = k.String()
		}
		return fmt.Sprintf("factory: cyclic dependency: %s", strings.Join(hops, " -> "))
	default:
		return fmt.Sprintf("factory: %v: %s", e.Kind, e.Key)
	}
}

// Is matches the error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

// Unwrap returns the construction failure, if any.
func (e *Error) Unwrap() error { return e.Cause }

// CandidateNames returns the names a caller can use to disambiguate.
func (e *Error) CandidateNames() []string {
	names := make([]string, len(e.Candidates))
	for i, k := range e.Candidates {
		names[i] = k.label()
	}
	return names
}

// PanicError carries a value recovered from a panicking constructor.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("constructor panicked: %v", e.Value) }

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
