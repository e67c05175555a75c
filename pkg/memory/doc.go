// Package memory provides typed storage blocks whose element lifetimes are
// managed by the caller.
//
// A [Raw] owns one block of slots. Allocating, swapping and releasing blocks
// is the only work Raw does; constructing values into slots and destroying
// them again is left to the container built on top, such as
// [github.com/grafana/rawvec/pkg/vector].
//
// Building with the rawvec_debug tag turns on [DebugChecks]: slot indices are
// bounds checked and every Raw tracks slot occupancy in a [Bitmap], so double
// construction, double destruction and releasing a block that still holds
// live values all panic.
//
// Process-wide block accounting is available from [Usage].
package memory
