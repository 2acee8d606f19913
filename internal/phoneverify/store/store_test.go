package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type otpConfig struct{}

func (otpConfig) GetOTPTTL() time.Duration      { return 5 * time.Minute }
func (otpConfig) GetOTPCooldown() time.Duration { return 60 * time.Second }
func (otpConfig) GetOTPMaxAttempts() int        { return 3 }
func (otpConfig) GetOTPLength() int             { return 6 }
func (otpConfig) GetOTPSecret() string          { return "otp-secret" }

const (
	user  = "user-1"
	phone = "+886912345678"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, otpConfig{}), mr
}

func TestSaveAndVerify(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, user, phone, "123456"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if v := mr.HGet(otpKey(user), fieldHash); v == "" || v == "123456" {
		t.Fatalf("code must be stored hashed, got %q", v)
	}

	if err := s.Verify(ctx, user, phone, "123456"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if mr.Exists(otpKey(user)) || mr.Exists(pendingKey(user)) {
		t.Fatal("successful verification should clear pending state")
	}
	if err := s.Verify(ctx, user, phone, "123456"); !errors.Is(err, ErrNoPending) {
		t.Fatalf("second verify: expected ErrNoPending, got %v", err)
	}
}

func TestCooldown(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, user, phone, "111111"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, user, phone, "222222"); !errors.Is(err, ErrCooldown) {
		t.Fatalf("expected ErrCooldown, got %v", err)
	}

	remaining, err := s.CooldownRemaining(ctx, user)
	if err != nil || remaining <= 0 || remaining > 60*time.Second {
		t.Fatalf("remaining = %v, err = %v", remaining, err)
	}

	mr.FastForward(61 * time.Second)
	if remaining, _ := s.CooldownRemaining(ctx, user); remaining != 0 {
		t.Fatalf("cooldown should be over, got %v", remaining)
	}
	if err := s.Save(ctx, user, phone, "333333"); err != nil {
		t.Fatalf("save after cooldown: %v", err)
	}
	if err := s.Verify(ctx, user, phone, "111111"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("old code must be replaced, got %v", err)
	}
	if err := s.Verify(ctx, user, phone, "333333"); err != nil {
		t.Fatalf("verify new code: %v", err)
	}
}

func TestMaxAttempts(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_ = s.Save(ctx, user, phone, "123456")

	if err := s.Verify(ctx, user, phone, "000000"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("attempt 1: %v", err)
	}
	if err := s.Verify(ctx, user, phone, "000001"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("attempt 2: %v", err)
	}
	if err := s.Verify(ctx, user, phone, "000002"); !errors.Is(err, ErrMaxAttempts) {
		t.Fatalf("attempt 3: %v", err)
	}
	if err := s.Verify(ctx, user, phone, "123456"); !errors.Is(err, ErrMaxAttempts) {
		t.Fatalf("correct code after lockout must still fail, got %v", err)
	}
}

func TestExpiredVersusNoPending(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	if err := s.Verify(ctx, user, phone, "123456"); !errors.Is(err, ErrNoPending) {
		t.Fatalf("never requested: %v", err)
	}

	_ = s.Save(ctx, user, phone, "123456")
	mr.FastForward(6 * time.Minute)

	if err := s.Verify(ctx, user, phone, "123456"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if err := s.Verify(ctx, user, "+886900000000", "123456"); !errors.Is(err, ErrNoPending) {
		t.Fatalf("other number: expected ErrNoPending, got %v", err)
	}
	if mr.Exists(otpKey(user)) {
		t.Fatal("a check against an expired code must not recreate it")
	}
}

func TestVerifyOtherNumber(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_ = s.Save(ctx, user, phone, "123456")

	if err := s.Verify(ctx, user, "+886987654321", "123456"); !errors.Is(err, ErrNoPending) {
		t.Fatalf("expected ErrNoPending, got %v", err)
	}

	pending, err := s.PendingPhone(ctx, user)
	if err != nil || pending != phone {
		t.Fatalf("pending = %q, err = %v", pending, err)
	}
}

func TestSendRateLimit(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	for i := 0; i < sendsPerHour; i++ {
		if err := s.Save(ctx, user, phone, "123456"); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
		mr.Del(cooldownKey(user))
	}
	if err := s.Save(ctx, user, phone, "123456"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestConcurrentGuessesRespectAttemptLimit(t *testing.T) {
	for round := 0; round < 10; round++ {
		s, _ := newStore(t)
		ctx := context.Background()
		if err := s.Save(ctx, user, phone, "123456"); err != nil {
			t.Fatalf("save: %v", err)
		}

		const guesses = 60
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
			checked  int
		)
		for i := 0; i < guesses; i++ {
			code := fmt.Sprintf("%06d", 900000+i)
			if i == 37 {
				code = "123456"
			}
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				err := s.Verify(ctx, user, phone, code)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					accepted++
					checked++
				case errors.Is(err, ErrInvalid):
					checked++
				case errors.Is(err, ErrMaxAttempts), errors.Is(err, ErrNoPending):
					// ErrMaxAttempts may also be the last wrong guess.
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(code)
		}
		wg.Wait()

		if checked > 3 {
			t.Fatalf("round %d: %d guesses were compared, limit is 3", round, checked)
		}
		if accepted > 1 {
			t.Fatalf("round %d: code accepted %d times", round, accepted)
		}
	}
}

func TestReleaseAfterFailedDelivery(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, user, phone, "123456"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Release(ctx, user); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists(cooldownKey(user)) || mr.Exists(otpKey(user)) {
		t.Fatal("release must drop the cooldown and the code")
	}
	if got, _ := mr.Get(sendsKey(user)); got != "0" {
		t.Fatalf("send counter = %q, want refunded to 0", got)
	}
	if ttl := mr.TTL(sendsKey(user)); ttl <= 0 {
		t.Fatalf("send counter lost its TTL: %v", ttl)
	}

	if err := s.Save(ctx, user, phone, "654321"); err != nil {
		t.Fatalf("save after release: %v", err)
	}
}

func TestReleaseWithoutCounter(t *testing.T) {
	s, mr := newStore(t)
	if err := s.Release(context.Background(), user); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists(sendsKey(user)) {
		t.Fatal("release must not create a send counter")
	}
}
