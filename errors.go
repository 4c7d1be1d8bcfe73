package mudgo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/mudgo/modality"
)

var (
	// ErrModalityNotFound is returned when a modality name is not registered.
	ErrModalityNotFound = errors.New("modality not found")
	// ErrModalityExists is returned when registering a modality under a
	// name that is already taken.
	ErrModalityExists = errors.New("modality already exists")
	// ErrClosed is returned when using a container after Close.
	ErrClosed = errors.New("container is closed")
)

// ErrDuplicateIndex indicates that a modality's own axis index contains
// repeated identifiers. Fatal to synchronization; the modality must be fixed
// by the caller.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDuplicateIndex struct {
	Modality string
	Axis     Axis
	Names    []string
	cause    error
}

func (e *ErrDuplicateIndex) Error() string {
	return fmt.Sprintf("duplicate %s identifiers in modality %q: %s", e.Axis, e.Modality, strings.Join(e.Names, ", "))
}

func (e *ErrDuplicateIndex) Unwrap() error { return e.cause }

// ErrReadOnlyModality indicates a structural mutation against a modality
// that cannot be mutated in place (e.g. backed without prior
// materialization). For Intersect this surfaces partial progress: modalities
// processed before the failing one stay filtered.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrReadOnlyModality struct {
	Modality string
	Op       string
	cause    error
}

func (e *ErrReadOnlyModality) Error() string {
	return fmt.Sprintf("modality %q is read-only: %s", e.Modality, e.Op)
}

func (e *ErrReadOnlyModality) Unwrap() error { return e.cause }

// ErrSerialization indicates a failure while reading or writing a container
// or a modality payload. A failed Save leaves the destination in an
// undefined state; a failed Open returns no container.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrSerialization struct {
	Path  string
	cause error
}

func (e *ErrSerialization) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("serialization failed: %v", e.cause)
	}
	return fmt.Sprintf("serialization failed at %q: %v", e.Path, e.cause)
}

func (e *ErrSerialization) Unwrap() error { return e.cause }

// translateModalityError attributes a collaborator error to a modality.
func translateModalityError(err error, name, op string) error {
	if err == nil {
		return nil
	}
	var ro *modality.ErrReadOnly
	if errors.As(err, &ro) {
		return &ErrReadOnlyModality{Modality: name, Op: op, cause: err}
	}
	return err
}

func serializationError(path string, err error) error {
	if err == nil {
		return nil
	}
	var se *ErrSerialization
	if errors.As(err, &se) {
		return err
	}
	return &ErrSerialization{Path: path, cause: err}
}
