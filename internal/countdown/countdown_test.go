package countdown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunsToCompletion(t *testing.T) {
	var timer Timer
	var ticks atomic.Int32
	done := make(chan struct{})

	err := timer.Start(context.Background(), 50*time.Millisecond, 10*time.Millisecond,
		func(time.Duration) { ticks.Add(1) },
		func() { close(done) },
	)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !timer.Running() {
		t.Fatal("expected timer to be running")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never finished")
	}
	if ticks.Load() == 0 {
		t.Fatal("expected at least one tick")
	}
	if timer.Running() || timer.Remaining() != 0 {
		t.Fatal("timer should be idle after completion")
	}
}

func TestStartWhileRunning(t *testing.T) {
	var timer Timer
	if err := timer.Start(context.Background(), time.Minute, time.Second, nil, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer timer.Stop()

	if err := timer.Start(context.Background(), time.Minute, time.Second, nil, nil); !errors.Is(err, ErrRunning) {
		t.Fatalf("expected ErrRunning, got %v", err)
	}
	if r := timer.Remaining(); r <= 0 || r > time.Minute {
		t.Fatalf("remaining = %v", r)
	}
}

func TestStopSuppressesDone(t *testing.T) {
	var timer Timer
	var fired atomic.Bool

	if err := timer.Start(context.Background(), 30*time.Millisecond, 5*time.Millisecond, nil, func() { fired.Store(true) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	timer.Stop()
	if timer.Running() {
		t.Fatal("expected timer to be stopped")
	}

	time.Sleep(80 * time.Millisecond)
	if fired.Load() {
		t.Fatal("onDone fired after Stop")
	}

	if err := timer.Start(context.Background(), time.Minute, time.Second, nil, nil); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	timer.Stop()
}

func TestContextCancelActsLikeStop(t *testing.T) {
	var timer Timer
	var fired atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())

	if err := timer.Start(ctx, 30*time.Millisecond, 5*time.Millisecond, nil, func() { fired.Store(true) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for timer.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if timer.Running() {
		t.Fatal("timer still running after context cancel")
	}
	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Fatal("onDone fired after cancel")
	}
}

func TestInvalidDuration(t *testing.T) {
	var timer Timer
	if err := timer.Start(context.Background(), 0, time.Second, nil, nil); err == nil {
		t.Fatal("expected error for zero duration")
	}
}
