package retransmit

import (
	"testing"
	"time"

	"github.com/flowplane/l2rp/mempool"
)

func TestWindowPushPopSpans(t *testing.T) {
	w, err := NewWindow(4)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	pool := mempool.New(64, 4)

	mark := w.Mark()
	for i := 0; i < 3; i++ {
		if !w.Push(pool.Acquire()) {
			t.Fatalf("push %d unexpectedly failed", i)
		}
	}
	first, second := w.SpanFrom(mark)
	if len(first)+len(second) != 3 {
		t.Fatalf("expected 3 spanned entries, got %d+%d", len(first), len(second))
	}
	if w.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", w.Len())
	}

	if _, ok := w.PopAcked(); !ok {
		t.Fatal("PopAcked on non-empty window failed")
	}
	if w.Len() != 2 {
		t.Fatalf("Len() after pop = %d, want 2", w.Len())
	}
}

func TestWindowRejectsPushWhenFull(t *testing.T) {
	w, _ := NewWindow(2)
	pool := mempool.New(64, 2)
	if !w.Push(pool.Acquire()) {
		t.Fatal("first push should succeed")
	}
	if !w.Push(pool.Acquire()) {
		t.Fatal("second push should succeed")
	}
	if w.Push(pool.Acquire()) {
		t.Fatal("third push should fail: window at capacity")
	}
	if !w.Full() {
		t.Fatal("Full() should report true")
	}
}

func TestWindowWraparoundLongestSpan(t *testing.T) {
	w, _ := NewWindow(4)
	pool := mempool.New(64, 8)
	for i := 0; i < 4; i++ {
		w.Push(pool.Acquire())
	}
	w.PopAcked()
	w.PopAcked()
	w.Push(pool.Acquire())
	w.Push(pool.Acquire())

	first, second := w.LongestSpan()
	if len(first)+len(second) != w.Len() {
		t.Fatalf("longest span length %d+%d != Len() %d", len(first), len(second), w.Len())
	}
	if len(second) == 0 {
		t.Fatal("expected wraparound to produce a non-empty second span")
	}
}

func TestNewWindowRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := NewWindow(3); err == nil {
		t.Fatal("expected error for non-power-of-two window capacity")
	}
}

func TestTimerExpiryAndReset(t *testing.T) {
	timer := NewTimer(10 * time.Millisecond)
	start := time.Now()
	timer.PushSendTime(start)

	if timer.Expired(start) {
		t.Fatal("timer should not be expired immediately")
	}
	later := start.Add(20 * time.Millisecond)
	if !timer.Expired(later) {
		t.Fatal("timer should be expired after timeout elapses")
	}

	timer.ResetAfterRetransmit(later)
	if timer.Expired(later) {
		t.Fatal("timer should not be expired immediately after reset")
	}
}

func TestTimerFIFOOrder(t *testing.T) {
	timer := NewTimer(time.Second)
	t0 := time.Now()
	t1 := t0.Add(time.Millisecond)
	timer.PushSendTime(t0)
	timer.PushSendTime(t1)

	got, ok := timer.PopOldest()
	if !ok || !got.Equal(t0) {
		t.Fatalf("PopOldest() = %v, want %v", got, t0)
	}
	got, ok = timer.PopOldest()
	if !ok || !got.Equal(t1) {
		t.Fatalf("PopOldest() = %v, want %v", got, t1)
	}
	if timer.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", timer.Len())
	}
}
