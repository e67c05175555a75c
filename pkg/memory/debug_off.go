//go:build !rawvec_debug

package memory

// DebugChecks enables bounds assertions and slot occupancy tracking. It is
// set by building with the rawvec_debug tag.
const DebugChecks = false
