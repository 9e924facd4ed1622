package core

import "errors"

// Common errors.
var (
	ErrReadOnly    = errors.New("repository is in read-only mode")
	ErrNotFound    = errors.New("element not found")
	ErrNoSelection = errors.New("no elements match the selection")
	ErrWrongKind   = errors.New("element is not of the expected kind")
)
