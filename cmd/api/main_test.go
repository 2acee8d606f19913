package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"profile_portal_backend/platform/logger"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	calls := 0
	err := withRetry(context.Background(), log, "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	err := withRetry(context.Background(), log, "op", 2, time.Millisecond, func() error {
		return errors.New("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "op: boom") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, log, "op", 5, time.Second, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
