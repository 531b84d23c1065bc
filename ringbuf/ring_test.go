package ringbuf_test

import (
	"math/rand"
	"testing"

	"github.com/flowplane/l2rp/ringbuf"
)

func TestRingPropertyBased(t *testing.T) {
	r, err := ringbuf.New[int](64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rnd := rand.New(rand.NewSource(1))
	size := 0
	for i := 0; i < 5000; i++ {
		if rnd.Intn(2) == 0 {
			if r.Enqueue(rnd.Intn(100000)) {
				size++
			}
		} else {
			if _, ok := r.Dequeue(); ok {
				size--
			}
		}
		if size != r.Len() {
			t.Fatalf("invariant failed: expected %d, got %d", size, r.Len())
		}
		if r.Len() < 0 || r.Len() > 64 {
			t.Fatalf("length out of bounds: %d", r.Len())
		}
	}
}

func TestRingRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := ringbuf.New[int](3); err == nil {
		t.Fatal("expected error for non-power-of-two size")
	}
	if _, err := ringbuf.New[int](1); err == nil {
		t.Fatal("expected error for size of 1")
	}
}

func TestRingSizeTwoTightBackpressure(t *testing.T) {
	r, err := ringbuf.New[int](2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !r.Enqueue(1) || !r.Enqueue(2) {
		t.Fatal("expected two successful enqueues")
	}
	if r.Enqueue(3) {
		t.Fatal("expected ring to be full")
	}
	if v, ok := r.Dequeue(); !ok || v != 1 {
		t.Fatalf("expected FIFO order, got %d ok=%v", v, ok)
	}
	if !r.Enqueue(3) {
		t.Fatal("expected slot to be free after dequeue")
	}
}

func TestBurstOperations(t *testing.T) {
	r, err := ringbuf.New[int](8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	n := r.EnqueueBurst(items)
	if n != 8 {
		t.Fatalf("expected 8 enqueued, got %d", n)
	}
	dst := make([]int, 10)
	n = r.DequeueBurst(dst)
	if n != 8 {
		t.Fatalf("expected 8 dequeued, got %d", n)
	}
	for i := 0; i < 8; i++ {
		if dst[i] != i+1 {
			t.Fatalf("FIFO order violated at %d: got %d", i, dst[i])
		}
	}
}

func TestZeroCopyDequeueWraparound(t *testing.T) {
	r, err := ringbuf.New[int](4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.EnqueueBurst([]int{1, 2, 3})
	dst := make([]int, 2)
	r.DequeueBurst(dst) // consumes 1,2 -- head now at 2
	r.EnqueueBurst([]int{4, 5, 6})

	first, second := r.DequeueZeroCopyStart(4)
	total := append(append([]int{}, first...), second...)
	if len(total) != 4 {
		t.Fatalf("expected 4 items spanning the wrap, got %d", len(total))
	}
	want := []int{3, 4, 5, 6}
	for i, v := range want {
		if total[i] != v {
			t.Fatalf("wraparound order mismatch at %d: got %d want %d", i, total[i], v)
		}
	}
	r.DequeueZeroCopyFinish(len(total))
	if r.Len() != 0 {
		t.Fatalf("expected empty ring after finish, got len %d", r.Len())
	}
}
