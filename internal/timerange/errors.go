package timerange

import "errors"

// ErrInvalidInterval is matched (via errors.Is) by every construction
// failure of a Clock or TimeRange.
var ErrInvalidInterval = errors.New("invalid time interval")

// InvalidIntervalError describes a malformed clock value or a range whose
// start is after its end.
type InvalidIntervalError struct {
	Value  string
	Reason string
}

func (e *InvalidIntervalError) Error() string {
	return e.Value + " " + e.Reason
}

func (e *InvalidIntervalError) Is(target error) bool {
	return target == ErrInvalidInterval
}
