package vector

// An Option configures a Vector created by [New].
type Option func(*settings)

type settings struct {
	// limit caps the size in bytes of a single storage block. 0 means only
	// memory.MaxBlockBytes applies.
	limit uint64
}

// WithLimit caps the size of the storage block of a Vector at bytes. Growth
// beyond the limit fails with memory.ErrOutOfMemory. Clones inherit the
// limit.
func WithLimit(bytes uint64) Option {
	return func(s *settings) { s.limit = bytes }
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
