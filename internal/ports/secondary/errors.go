package secondary

import "errors"

// ErrNotFound is wrapped by adapters when the remote resource or object does
// not exist. Callers test with errors.Is.
var ErrNotFound = errors.New("resource not found")

// ErrTransient is wrapped by adapters for throttling and other errors that
// are expected to clear on retry.
var ErrTransient = errors.New("transient remote error")
