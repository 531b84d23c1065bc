package mempool_test

import (
	"testing"

	"github.com/flowplane/l2rp/mempool"
)

func TestAcquireReleaseNoLeak(t *testing.T) {
	p := mempool.New(2048, 8)
	bufs := make([]*mempool.Buffer, 0, 100)
	for i := 0; i < 100; i++ {
		bufs = append(bufs, p.Acquire())
	}
	if p.InUse() != 100 {
		t.Fatalf("expected 100 in use, got %d", p.InUse())
	}
	for _, b := range bufs {
		b.Release()
	}
	if p.InUse() != 0 {
		t.Fatalf("expected 0 in use after release, got %d", p.InUse())
	}
}

func TestAcquireSizesBuffer(t *testing.T) {
	p := mempool.New(1500, 1)
	b := p.Acquire()
	if len(b.Bytes()) != 1500 {
		t.Fatalf("expected 1500 byte buffer, got %d", len(b.Bytes()))
	}
	b.Truncate(64)
	if len(b.Bytes()) != 64 {
		t.Fatalf("expected truncated buffer of 64, got %d", len(b.Bytes()))
	}
}
