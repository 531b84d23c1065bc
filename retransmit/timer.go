package retransmit

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Timer tracks the send timestamp of each outstanding-window entry in
// FIFO order, so the front of the queue is always the oldest unacked
// send — the value spec §4.5's timeout check ("time since the oldest
// unacked send exceeds the configured timeout") needs. A timestamp is
// pushed when a frame joins the window and popped in the same order
// entries leave the window on ack; a full-window resend re-stamps the
// outstanding timestamps instead of popping them.
//
// The teacher's own runtime path never used github.com/eapache/queue;
// it is wired here purely for this FIFO, the natural fit its
// interface (Add/Peek/Remove/Length) offers over hand-rolling one.
//
// A Timer is shared between SRPTx (PushSendTime, Expired,
// ResetAfterRetransmit) and SRPRx (PopOldest on ack), and queue.Queue
// itself does no locking, so every method here takes mu.
type Timer struct {
	mu      sync.Mutex
	sends   *queue.Queue
	timeout time.Duration
}

// DefaultTimeout matches spec §4.5: "default = timer-hz / 10, i.e.
// 100ms" translated to wall-clock time since this implementation has
// no cycle counter.
const DefaultTimeout = 100 * time.Millisecond

// NewTimer creates a retransmit timer with the given timeout. A zero
// timeout is replaced with DefaultTimeout.
func NewTimer(timeout time.Duration) *Timer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Timer{sends: queue.New(), timeout: timeout}
}

// PushSendTime records that a frame joined the window at t.
func (t *Timer) PushSendTime(sentAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sends.Add(sentAt)
}

// PopOldest removes and returns the oldest recorded send time, called
// once per entry the window releases on ack. A full resend does not
// pop; it re-stamps entries as freshly sent (see ResetAfterRetransmit).
func (t *Timer) PopOldest() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sends.Length() == 0 {
		return time.Time{}, false
	}
	return t.sends.Remove().(time.Time), true
}

// Expired reports whether the oldest outstanding send is older than
// the configured timeout as of now.
func (t *Timer) Expired(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sends.Length() == 0 {
		return false
	}
	oldest := t.sends.Peek().(time.Time)
	return now.Sub(oldest) >= t.timeout
}

// ResetAfterRetransmit re-stamps every currently outstanding entry
// with now, mirroring original_source/include/srp.hpp's
// `st.last_tx_cycles = now` after a full-window resend: the timeout
// reference restarts for the whole window, not just the newest frame.
func (t *Timer) ResetAfterRetransmit(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.sends.Length()
	for i := 0; i < n; i++ {
		t.sends.Remove()
		t.sends.Add(now)
	}
}

// Len reports the number of outstanding send timestamps.
func (t *Timer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sends.Length()
}
