package vectorindex

import (
	"errors"
	"fmt"
)

// ErrEmptyVector indicates an upsert with a zero-length vector.
var ErrEmptyVector = errors.New("vector cannot be empty")

// DimensionMismatchError indicates a vector whose length disagrees with the
// index dimension. This is an invariant violation: similarity between
// vectors of different lengths is undefined, so it surfaces loudly instead
// of degrading.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: index holds %d, got %d", e.Want, e.Got)
}

// IsDimensionMismatch reports whether err is a DimensionMismatchError.
func IsDimensionMismatch(err error) bool {
	var dim *DimensionMismatchError
	return errors.As(err, &dim)
}
