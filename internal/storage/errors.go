package storage

import "errors"

// ErrReadOnly is returned by stores that refuse writes.
var ErrReadOnly = errors.New("preferences store is read-only")
