package search3

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters is returned when a request is rejected before any
// device resource is touched.
var ErrInvalidParameters = errors.New("search3: invalid parameters")

// CountMismatchError reports that aggregation assembled a different number
// of beam results than the request promised. It indicates an internal bug
// and is surfaced rather than silently truncated.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("search3: result count mismatch: expected %d beam results, got %d", e.Expected, e.Got)
}
