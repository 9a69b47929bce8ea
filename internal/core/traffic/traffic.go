// Package traffic assigns request identifiers to rows of a test table and
// recovers row positions from those identifiers.
//
// The mapping is purely positional: row i (0-based) of the table is sent as
// prefix+(i+1). Any component that knows the prefix and the same ordered
// table can go from an identifier back to its row and label.
package traffic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPrefix is the request identifier prefix used when none is configured.
const DefaultPrefix = "sts_"

// ErrInvalidRequestID is returned for identifiers that do not carry the
// expected prefix and a positive index.
var ErrInvalidRequestID = errors.New("invalid request id")

// RequestID returns the identifier of the row at 1-based index.
func RequestID(prefix string, index int) string {
	return prefix + strconv.Itoa(index)
}

// IndexFromRequestID strips prefix and returns the 1-based row index.
func IndexFromRequestID(prefix, id string) (int, error) {
	if !strings.HasPrefix(id, prefix) {
		return 0, fmt.Errorf("%w: %q does not start with %q", ErrInvalidRequestID, id, prefix)
	}
	n, err := strconv.Atoi(id[len(prefix):])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidRequestID, id, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %q: index must be >= 1", ErrInvalidRequestID, id)
	}
	return n, nil
}

// Request is one row ready to be sent.
type Request struct {
	ID    string
	Index int
	Input []float64
}

// Assign tags rows in order, starting at index 1.
func Assign(prefix string, rows [][]float64) []Request {
	reqs := make([]Request, len(rows))
	for i, row := range rows {
		reqs[i] = Request{ID: RequestID(prefix, i+1), Index: i + 1, Input: row}
	}
	return reqs
}
