package memory

import "go.uber.org/atomic"

// UsageStats is a snapshot of the blocks handed out by [Allocate].
type UsageStats struct {
	LiveBlocks int64 // Blocks allocated and not yet released.
	LiveBytes  int64 // Bytes held by live blocks.

	Allocations uint64 // Blocks allocated since process start.
	Releases    uint64 // Blocks released since process start.
	Failures    uint64 // Allocation requests refused with ErrOutOfMemory.
}

var usage = struct {
	liveBlocks *atomic.Int64
	liveBytes  *atomic.Int64

	allocations *atomic.Uint64
	releases    *atomic.Uint64
	failures    *atomic.Uint64
}{
	liveBlocks:  atomic.NewInt64(0),
	liveBytes:   atomic.NewInt64(0),
	allocations: atomic.NewUint64(0),
	releases:    atomic.NewUint64(0),
	failures:    atomic.NewUint64(0),
}

// Usage returns the process-wide allocation counters. Blocks are counted from
// [Allocate] until [Raw.Release]; a block that is dropped without being
// released stays live in these counters, which is how leaks show up.
func Usage() UsageStats {
	return UsageStats{
		LiveBlocks:  usage.liveBlocks.Load(),
		LiveBytes:   usage.liveBytes.Load(),
		Allocations: usage.allocations.Load(),
		Releases:    usage.releases.Load(),
		Failures:    usage.failures.Load(),
	}
}

func trackAlloc(size uint64) {
	usage.liveBlocks.Inc()
	usage.liveBytes.Add(int64(size))
	usage.allocations.Inc()
}

func trackRelease(size uint64) {
	usage.liveBlocks.Dec()
	usage.liveBytes.Sub(int64(size))
	usage.releases.Inc()
}
