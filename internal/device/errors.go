package device

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by device operations.
var (
	// ErrNoBackend is returned when a nil backend is supplied.
	ErrNoBackend = errors.New("device: no backend")

	// ErrBackendUnavailable is returned when the backend is present but not
	// usable on the current system (no device, driver missing).
	ErrBackendUnavailable = errors.New("device: backend unavailable")

	// ErrInvalidBuffer is returned for invalid buffer sizes or host slices.
	ErrInvalidBuffer = errors.New("device: invalid buffer")

	// ErrFlagMismatch is returned when kernel argument usage contradicts the
	// memory flag declared at buffer creation.
	ErrFlagMismatch = errors.New("device: memory flag mismatch")

	// ErrReleased is returned when an operation is attempted on a released
	// handle.
	ErrReleased = errors.New("device: handle released")
)

// SourceNotFoundError reports that a kernel source file could not be found
// in any of the configured search paths.
type SourceNotFoundError struct {
	Filename  string
	Attempted []string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("device: kernel source %q not found; attempted paths: %s",
		e.Filename, strings.Join(e.Attempted, ", "))
}

// BuildFailedError reports a program compilation failure.
type BuildFailedError struct {
	Log string
	Err error
}

func (e *BuildFailedError) Error() string {
	if e.Log != "" {
		return fmt.Sprintf("device: program build failed: %v\nbuild log:\n%s", e.Err, e.Log)
	}
	return fmt.Sprintf("device: program build failed: %v", e.Err)
}

func (e *BuildFailedError) Unwrap() error { return e.Err }

// KernelCreateError reports that one kernel of the fixed set could not be
// created. By the time this error surfaces, every kernel created in the same
// call and the program itself have been released.
type KernelCreateError struct {
	Name string
	Err  error
}

func (e *KernelCreateError) Error() string {
	return fmt.Sprintf("device: kernel %q creation failed: %v", e.Name, e.Err)
}

func (e *KernelCreateError) Unwrap() error { return e.Err }
