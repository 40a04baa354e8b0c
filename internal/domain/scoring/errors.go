package scoring

import "errors"

// ErrOverflow is returned when a sheet's total does not fit in an int64.
var ErrOverflow = errors.New("score total overflow")
