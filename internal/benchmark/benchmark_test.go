package benchmark

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSource struct {
	calls atomic.Int64
	err   error
}

func (c *countingSource) BenchmarkByVertical(_ context.Context, vertical string) (*Benchmark, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &Benchmark{Vertical: vertical}, nil
}

func TestServiceCachesLookups(t *testing.T) {
	src := &countingSource{}
	svc := NewService(src, time.Minute)

	for i := 0; i < 3; i++ {
		b, err := svc.Get(context.Background(), "fashion")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if b == nil || b.Vertical != "fashion" {
			t.Fatalf("unexpected benchmark: %+v", b)
		}
	}

	if got := src.calls.Load(); got != 1 {
		t.Fatalf("source called %d times, want 1", got)
	}
}

func TestServiceEmptyVertical(t *testing.T) {
	src := &countingSource{}
	svc := NewService(src, time.Minute)

	b, err := svc.Get(context.Background(), "")
	if err != nil || b != nil {
		t.Fatalf("empty vertical should be a no-op, got b=%v err=%v", b, err)
	}
	if src.calls.Load() != 0 {
		t.Fatal("source should not be called for empty vertical")
	}
}

func TestServicePropagatesErrors(t *testing.T) {
	src := &countingSource{err: errors.New("store down")}
	svc := NewService(src, time.Minute)

	if _, err := svc.Get(context.Background(), "beauty"); err == nil {
		t.Fatal("expected error from source")
	}
	// Errors are not cached; the next call tries again.
	svc.Get(context.Background(), "beauty")
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("source called %d times, want 2", got)
	}
}
