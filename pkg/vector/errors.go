package vector

import "errors"

// ErrNotCopyable is returned when an operation needs to copy an element whose
// type implements [NoCopier].
var ErrNotCopyable = errors.New("element type is not copyable")
