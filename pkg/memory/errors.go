package memory

import "errors"

// ErrOutOfMemory is returned by [Allocate] when a block cannot be reserved.
// Errors returned by Allocate wrap it with the size that was requested.
var ErrOutOfMemory = errors.New("out of memory")
