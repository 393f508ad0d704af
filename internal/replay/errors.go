package replay

import "errors"

// ErrOutOfOrder is returned when bars are not in non-decreasing
// timestamp order.
var ErrOutOfOrder = errors.New("bars are not in timestamp order")
