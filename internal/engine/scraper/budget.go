package scraper

import (
	"sync/atomic"
	"time"
)

// Budget bounds a run by accepted-record count and wall-clock deadline.
// It is shared by every worker; acceptance goes through a CAS so two
// workers can never both claim the final slot.
type Budget struct {
	max      int64
	deadline time.Time
	accepted atomic.Int64

	now func() time.Time
}

// NewBudget derives the absolute deadline from the runtime allowance.
func NewBudget(maxResults int, maxRuntime time.Duration, now func() time.Time) *Budget {
	if now == nil {
		now = time.Now
	}
	return &Budget{
		max:      int64(maxResults),
		deadline: now().Add(maxRuntime),
		now:      now,
	}
}

// Accept claims one result slot. It returns false once the budget is full;
// the caller must then drop the record.
func (b *Budget) Accept() bool {
	for {
		n := b.accepted.Load()
		if n >= b.max {
			return false
		}
		if b.accepted.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Accepted returns how many records have been accepted so far.
func (b *Budget) Accepted() int64 {
	return b.accepted.Load()
}

// Exhausted reports whether no more work should start.
func (b *Budget) Exhausted() bool {
	return b.accepted.Load() >= b.max || !b.now().Before(b.deadline)
}

// Deadline is the absolute end of the run.
func (b *Budget) Deadline() time.Time {
	return b.deadline
}

// Remaining returns the time left before the deadline, floored at zero.
func (b *Budget) Remaining() time.Duration {
	d := b.deadline.Sub(b.now())
	if d < 0 {
		return 0
	}
	return d
}
