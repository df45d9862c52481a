package domain

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDSource hands out identifiers for new tasks. taken reports ids that are
// already in use on the board; a source must never return one of them.
type IDSource interface {
	NextID(taken func(id string) bool) string
}

// ClockIDs issues millisecond timestamps as ids. Successive ids are strictly
// increasing within a process even when several are requested inside the
// same millisecond, so ids never repeat within a session. Uniqueness across
// sessions relies on the wall clock moving forward.
type ClockIDs struct {
	last int64
	now  func() time.Time
}

// NewClockIDs returns a ClockIDs reading the system clock.
func NewClockIDs() *ClockIDs {
	return &ClockIDs{now: time.Now}
}

func (c *ClockIDs) NextID(taken func(string) bool) string {
	for {
		id := strconv.FormatInt(c.nextTimestamp(), 10)
		if taken == nil || !taken(id) {
			return id
		}
	}
}

// Bump raises the floor past every numeric id on b, so ids issued after
// restoring a board sort after the ones already on it.
func (c *ClockIDs) Bump(b Board) {
	for _, col := range b.Columns {
		for _, t := range col.Tasks {
			n, err := strconv.ParseInt(t.ID, 10, 64)
			if err != nil {
				continue
			}
			for {
				last := atomic.LoadInt64(&c.last)
				if n <= last || atomic.CompareAndSwapInt64(&c.last, last, n) {
					break
				}
			}
		}
	}
}

func (c *ClockIDs) nextTimestamp() int64 {
	for {
		now := c.now().UnixMilli()
		last := atomic.LoadInt64(&c.last)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&c.last, last, now) {
			return now
		}
	}
}

// UUIDIDs issues random UUIDv4 ids, unique across sessions.
type UUIDIDs struct{}

func (UUIDIDs) NextID(taken func(string) bool) string {
	for {
		id := uuid.NewString()
		if taken == nil || !taken(id) {
			return id
		}
	}
}

// SequenceIDs issues Prefix+N for N counting up from the start value. It is
// deterministic, which makes transitions reproducible in tests and replays.
// It is not safe for concurrent use.
type SequenceIDs struct {
	Prefix string
	next   int
}

// NewSequenceIDs returns a SequenceIDs whose first candidate is prefix+start.
func NewSequenceIDs(prefix string, start int) *SequenceIDs {
	return &SequenceIDs{Prefix: prefix, next: start}
}

func (s *SequenceIDs) NextID(taken func(string) bool) string {
	for {
		id := s.Prefix + strconv.Itoa(s.next)
		s.next++
		if taken == nil || !taken(id) {
			return id
		}
	}
}
