package llm

import (
	"context"
	"testing"
	"time"
)

func TestNilLimiterIsDisabled(t *testing.T) {
	l := newRPSLimiter(0, 5)
	if l != nil {
		t.Fatalf("rps 0 should disable the limiter")
	}
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("nil acquire: %v", err)
	}
	l.Stop()
}

func TestLimiterBurstThenBlocks(t *testing.T) {
	l := newRPSLimiter(1, 2)
	defer l.Stop()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("burst acquire %d: %v", i, err)
		}
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := l.Acquire(short); err == nil {
		t.Fatalf("acquire past the burst did not block")
	}
}

func TestLimiterRefills(t *testing.T) {
	l := newRPSLimiter(50, 1)
	defer l.Stop()

	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	refill, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := l.Acquire(refill); err != nil {
		t.Fatalf("bucket never refilled: %v", err)
	}
}

func TestStoppedLimiterUnblocks(t *testing.T) {
	l := newRPSLimiter(0.001, 1)
	_ = l.Acquire(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background()) }()
	l.Stop()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("acquire on a stopped limiter succeeded")
		}
	case <-time.After(time.Second):
		t.Fatalf("acquire did not unblock on stop")
	}
}
