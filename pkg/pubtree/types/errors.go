package types

import (
	"errors"
	"fmt"
)

// ErrPackageNotInstalled is returned when the package manager cannot provide
// an installed copy of a requested package. Wrap it with the package name.
var ErrPackageNotInstalled = errors.New("package not installed")

// ErrInvalidConfig is returned for unusable consumer configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConflictError reports an unmanaged pre-existing file occupying a path a
// candidate file wants to occupy. Owner is set when a marker entry for a
// different package claims the path.
type ConflictError struct {
	Path  string
	Owner string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("file conflict at %s (owned by %s)", e.Path, e.Owner)
	}
	return fmt.Sprintf("file conflict at %s (unmanaged file exists)", e.Path)
}

// CorruptMarkerError reports a marker file that exists but cannot be parsed.
type CorruptMarkerError struct {
	Dir string
	Err error
}

// Error implements the error interface.
func (e *CorruptMarkerError) Error() string {
	return fmt.Sprintf("corrupt marker file in %s: %v", e.Dir, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *CorruptMarkerError) Unwrap() error { return e.Err }

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsCorruptMarker reports whether err is (or wraps) a CorruptMarkerError.
func IsCorruptMarker(err error) bool {
	var cm *CorruptMarkerError
	return errors.As(err, &cm)
}
