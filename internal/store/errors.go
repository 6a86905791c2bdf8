package store

import "errors"

// ErrNotFound indicates a record was not located. Handlers rely on it to
// tell "record absent" apart from a failing store.
var ErrNotFound = errors.New("store: not found")
