// Package store keeps pending phone verification codes in Redis.
//
// Per user it holds the hashed code (with attempts and the number it was
// sent to), a resend cooldown key, a longer-lived pending marker used to tell
// "expired" from "never requested", and an hourly send counter.
package store

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"profile_portal_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCooldown    = errors.New("otp cooldown")
	ErrExpired     = errors.New("otp expired")
	ErrInvalid     = errors.New("otp invalid")
	ErrMaxAttempts = errors.New("otp max attempts exceeded")
	ErrNoPending   = errors.New("otp not requested")
	ErrRateLimited = errors.New("otp rate limited")
)

const (
	pendingTTL    = 24 * time.Hour
	sendWindow    = time.Hour
	sendsPerHour  = 10
	keyPrefix     = "phoneverify:"
	fieldHash     = "hash"
	fieldPhone    = "phone"
	fieldAttempts = "attempts"
)

type Store struct {
	rdb redis.UniversalClient
	// secret keys the code hash; it is not a JWT secret.
	secret      string
	ttl         time.Duration
	cooldown    time.Duration
	maxAttempts int
}

func New(rdb redis.UniversalClient, cfg config.OTPConfig) *Store {
	return &Store{
		rdb:         rdb,
		secret:      cfg.GetOTPSecret(),
		ttl:         cfg.GetOTPTTL(),
		cooldown:    cfg.GetOTPCooldown(),
		maxAttempts: cfg.GetOTPMaxAttempts(),
	}
}

func otpKey(userID string) string      { return keyPrefix + "otp:" + userID }
func cooldownKey(userID string) string { return keyPrefix + "cooldown:" + userID }
func pendingKey(userID string) string  { return keyPrefix + "pending:" + userID }
func sendsKey(userID string) string    { return keyPrefix + "sends:" + userID }

func (s *Store) hash(userID, phone, code string) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(userID + ":" + phone + ":" + code))
	return hex.EncodeToString(mac.Sum(nil))
}

// Save stores a new code for phone and starts the resend cooldown.
// A previous code for the user is replaced. If anything after the cooldown
// claim fails, the cooldown is released so the user can retry at once.
func (s *Store) Save(ctx context.Context, userID, phone, code string) (err error) {
	ok, err := s.rdb.SetNX(ctx, cooldownKey(userID), "1", s.cooldown).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrCooldown
	}
	defer func() {
		if err != nil {
			_ = s.rdb.Del(context.WithoutCancel(ctx), cooldownKey(userID)).Err()
		}
	}()

	if err = s.incrWithLimit(ctx, sendsKey(userID), sendsPerHour, sendWindow); err != nil {
		return err
	}

	key := otpKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		fieldHash, s.hash(userID, phone, code),
		fieldPhone, phone,
		fieldAttempts, "0",
	)
	pipe.Expire(ctx, key, s.ttl)
	pipe.Set(ctx, pendingKey(userID), phone, pendingTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// releaseSend drops the code, lifts the cooldown and refunds the send. The
// counter is only decremented while it exists so it never loses its TTL.
var releaseSend = redis.NewScript(`
redis.call('DEL', KEYS[1], KEYS[2])
if redis.call('EXISTS', KEYS[3]) == 1 then
	redis.call('DECR', KEYS[3])
end
return 0
`)

// Release undoes a Save whose code could not be delivered.
func (s *Store) Release(ctx context.Context, userID string) error {
	keys := []string{otpKey(userID), cooldownKey(userID), sendsKey(userID)}
	return releaseSend.Run(ctx, s.rdb, keys).Err()
}

// PendingPhone returns the number a code was last requested for, or
// ErrNoPending.
func (s *Store) PendingPhone(ctx context.Context, userID string) (string, error) {
	phone, err := s.rdb.Get(ctx, pendingKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoPending
	}
	return phone, err
}

// CooldownRemaining reports how long until another code may be sent.
func (s *Store) CooldownRemaining(ctx context.Context, userID string) (time.Duration, error) {
	ttl, err := s.rdb.PTTL(ctx, cooldownKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// claimAttempt spends one attempt on the code hash and returns the stored
// hash, all in one step so concurrent guesses cannot share a count.
//
// Result: {0, hash, attempts} | {1} no code | {2} other number | {3} exhausted.
var claimAttempt = redis.NewScript(`
local vals = redis.call('HMGET', KEYS[1], 'hash', 'phone')
if not vals[1] then
	return {1}
end
if vals[2] ~= ARGV[1] then
	return {2}
end
local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
if n > tonumber(ARGV[2]) then
	return {3}
end
return {0, vals[1], n}
`)

const (
	claimOK = iota
	claimMissing
	claimOtherPhone
	claimExhausted
)

// Verify checks code against the stored hash for phone. Every check spends
// an attempt; a correct code clears the pending state.
func (s *Store) Verify(ctx context.Context, userID, phone, code string) error {
	key := otpKey(userID)
	res, err := claimAttempt.Run(ctx, s.rdb, []string{key}, phone, s.maxAttempts).Slice()
	if err != nil {
		return err
	}
	if len(res) == 0 {
		return errors.New("phoneverify: empty claim reply")
	}
	status, _ := res[0].(int64)

	switch status {
	case claimMissing:
		pending, err := s.PendingPhone(ctx, userID)
		if err != nil {
			return err
		}
		if pending != phone {
			return ErrNoPending
		}
		return ErrExpired
	case claimOtherPhone:
		return ErrNoPending
	case claimExhausted:
		return ErrMaxAttempts
	case claimOK:
	default:
		return fmt.Errorf("phoneverify: unexpected claim status %d", status)
	}
	if len(res) < 3 {
		return errors.New("phoneverify: short claim reply")
	}

	want, _ := res[1].(string)
	attempts, _ := res[2].(int64)
	got := s.hash(userID, phone, code)
	if want == "" || !hmac.Equal([]byte(got), []byte(want)) {
		if int(attempts) >= s.maxAttempts {
			return ErrMaxAttempts
		}
		return ErrInvalid
	}

	return s.rdb.Del(ctx, key, pendingKey(userID)).Err()
}

func (s *Store) incrWithLimit(ctx context.Context, key string, limit int64, window time.Duration) error {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		_ = s.rdb.Expire(ctx, key, window).Err()
	}
	if n > limit {
		return ErrRateLimited
	}
	return nil
}
