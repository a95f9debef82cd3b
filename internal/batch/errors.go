package batch

import (
	"errors"
	"fmt"
)

// ErrEmptyBatch is returned when a batch is built from zero elements: no
// padded extent can be derived, so the caller must not default it away.
var ErrEmptyBatch = errors.New("batch: no elements")

// ShapeMismatchError reports an element that disagrees with the rest of the
// batch on a fixed property (feature width, channel count, rank or dtype).
type ShapeMismatchError struct {
	Index int    // index of the offending element
	What  string // property that disagreed, e.g. "feature width"
	Want  string
	Got   string
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("batch: element %d: %s %s does not match %s", e.Index, e.What, e.Got, e.Want)
}

func mismatch(index int, what string, want, got any) error {
	return &ShapeMismatchError{
		Index: index,
		What:  what,
		Want:  fmt.Sprint(want),
		Got:   fmt.Sprint(got),
	}
}
