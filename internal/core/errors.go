package core

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned when no processor is registered for a package type.
var ErrUnknownType = errors.New("unknown package type")

// UnknownTypeError wraps ErrUnknownType with the type that missed.
type UnknownTypeError struct {
	Type PackageType
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no manifest rules for %q packages", e.Type)
}

func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}

// InvalidPurlError reports a package URL that could not be parsed.
type InvalidPurlError struct {
	Purl string
	Err  error
}

func (e *InvalidPurlError) Error() string {
	return fmt.Sprintf("invalid purl %q: %v", e.Purl, e.Err)
}

func (e *InvalidPurlError) Unwrap() error {
	return e.Err
}

// UnseededPackageError reports an edge whose package never appeared in the
// top-level package list. The record set is inconsistent.
type UnseededPackageError struct {
	Type PackageType
	ID   int64
	Name string
}

func (e *UnseededPackageError) Error() string {
	return fmt.Sprintf("%s: edge references unseeded package %s (id %d)", e.Type, e.Name, e.ID)
}
