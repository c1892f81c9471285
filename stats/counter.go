package stats

import (
	"sync/atomic"
)

// Tcounter is safe to bump from any CPU without holding a kernel lock.
type Tcounter = atomic.Int64

func Inc(c *Tcounter, v int64) {
	c.Add(v)
}

func Dec(c *Tcounter) {
	c.Add(-1)
}

// Max raises hi to v if v is larger.
func Max(hi *Tcounter, v int64) {
	for old := hi.Load(); v > old; old = hi.Load() {
		if hi.CompareAndSwap(old, v) {
			return
		}
	}
}

func Read(c *Tcounter) int64 {
	return c.Load()
}
