package coinlore

import (
	"errors"
	"fmt"
)

// ErrEmptyPayload means the source answered with nothing usable: an empty
// body, whitespace, "{}" or "[]".
var ErrEmptyPayload = errors.New("exchange returned empty data")

// ErrUnsupportedFormat means the payload was an object without the expected
// keys and the tolerant fallback pass produced no pairs either.
var ErrUnsupportedFormat = errors.New("exchange data format is not supported")

// TransportError is a non-success status from the fetch capability. The core
// does not retry; retry policy belongs to the caller.
type TransportError struct {
	URL string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: non-success status", e.URL)
}
