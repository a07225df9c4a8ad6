package onduty

import (
	"fmt"
	"sync/atomic"
	"time"
)

// lastID is the last issued tick, shared by all generated identifiers so the
// sequence is strictly increasing even when the clock stalls within a
// nanosecond tick or steps backwards.
var lastID int64

// newID returns an opaque identifier like "req-1718000000000001234" that is
// unique and monotonically increasing across the process.
func newID(prefix string) string {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastID)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastID, last, now) {
			return fmt.Sprintf("%s-%d", prefix, now)
		}
	}
}
