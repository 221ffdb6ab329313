package sessions

import (
	"fmt"
	"sync/atomic"
	"time"
)

var lastStamp atomic.Int64

// NewID derives a session identifier from the owning user and a strictly
// increasing millisecond timestamp. The CAS loop bumps the stamp past the
// previous one when two IDs are minted in the same millisecond, so IDs are
// unique within the process without a coordinator.
func NewID(userID string) string {
	for {
		now := time.Now().UnixMilli()
		last := lastStamp.Load()
		if now <= last {
			now = last + 1
		}
		if lastStamp.CompareAndSwap(last, now) {
			return fmt.Sprintf("%s-%d", userID, now)
		}
	}
}
