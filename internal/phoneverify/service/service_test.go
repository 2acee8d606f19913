package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"profile_portal_backend/internal/auth"
	"profile_portal_backend/internal/events"
	"profile_portal_backend/internal/phoneverify/store"
	"profile_portal_backend/internal/phoneverify/transport"
	"profile_portal_backend/internal/scheduler"
	"profile_portal_backend/platform/apperr"
	"profile_portal_backend/platform/i18n"
	"profile_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"
)

type otpConfig struct{}

func (otpConfig) GetOTPTTL() time.Duration      { return 5 * time.Minute }
func (otpConfig) GetOTPCooldown() time.Duration { return 60 * time.Second }
func (otpConfig) GetOTPMaxAttempts() int        { return 3 }
func (otpConfig) GetOTPLength() int             { return 6 }
func (otpConfig) GetOTPSecret() string          { return "otp-secret" }

type queuedCodes struct {
	mu       sync.Mutex
	payloads []scheduler.PhoneOTPDeliverPayload
	fail     bool
}

func (q *queuedCodes) EnqueueOTPDelivery(_ context.Context, p scheduler.PhoneOTPDeliverPayload) error {
	if q.fail {
		return errors.New("queue down")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, p)
	return nil
}

func (q *queuedCodes) last() scheduler.PhoneOTPDeliverPayload {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.payloads[len(q.payloads)-1]
}

type verifiedPhones map[uuid.UUID]string

func (v verifiedPhones) SetVerifiedPhone(_ context.Context, id uuid.UUID, phone string) error {
	v[id] = phone
	return nil
}

type users map[uuid.UUID]auth.UserInfo

func (u users) GetUserByID(_ context.Context, id uuid.UUID) (auth.UserInfo, error) {
	info, ok := u[id]
	if !ok {
		return auth.UserInfo{}, errors.New("not found")
	}
	return info, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type fixture struct {
	svc    *Service
	queue  *queuedCodes
	phones verifiedPhones
	bus    *recordingBus
	mr     *miniredis.Miniredis
	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userID := uuid.New()
	f := &fixture{
		queue:  &queuedCodes{},
		phones: verifiedPhones{},
		bus:    &recordingBus{},
		mr:     mr,
		userID: userID,
	}
	f.svc = New(
		store.New(rdb, otpConfig{}),
		f.queue,
		f.phones,
		users{userID: {ID: userID, Username: "alice0123", Email: "alice@example.com"}},
		i18n.MustLoad(),
		otpConfig{},
		f.bus,
		logger.NewWithWriter("test", io.Discard),
	)
	return f
}

func TestSendQueuesCode(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Send(context.Background(), f.userID, language.English, " 0912-345-678 ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.RetryAfter != 60 {
		t.Fatalf("retry_after = %d, want 60", resp.RetryAfter)
	}
	if resp.Detail != "A verification code has been sent to your phone." {
		t.Fatalf("detail = %q", resp.Detail)
	}

	p := f.queue.last()
	if p.Phone != "+886912345678" || len(p.Code) != 6 || p.UserID != f.userID.String() {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestSendRejectsInvalidPhone(t *testing.T) {
	cases := []struct {
		raw        string
		kind       string
		wantLength bool
	}{
		{"", "EMPTY", false},
		{"091234567", "WRONG_LENGTH", true},
		{"0812345678", "WRONG_PREFIX", false},
		{"09123456a8", "NON_DIGIT", false},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Send(context.Background(), f.userID, language.English, tc.raw)
			domainErr, ok := apperr.As(err)
			if !ok || domainErr.Kind != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			body, ok := domainErr.Details.(map[string]any)
			if !ok {
				t.Fatalf("expected map details, got %T", domainErr.Details)
			}
			if body["kind"] != tc.kind {
				t.Fatalf("kind = %v, want %s", body["kind"], tc.kind)
			}
			if _, has := body["length"]; has != tc.wantLength {
				t.Fatalf("length present = %v, want %v", has, tc.wantLength)
			}
			if msgs, _ := body["phone"].([]string); len(msgs) != 1 || msgs[0] == "" {
				t.Fatalf("missing phone message: %v", body["phone"])
			}
			if len(f.queue.payloads) != 0 {
				t.Fatal("nothing should be queued for invalid input")
			}
		})
	}
}

func TestSendDuringCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, f.userID, language.English, "0912345678"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	f.mr.FastForward(20 * time.Second)

	_, err := f.svc.Send(ctx, f.userID, language.English, "0912345678")
	domainErr, ok := apperr.As(err)
	if !ok || domainErr.Kind != apperr.KindTooManyRequests {
		t.Fatalf("expected too many requests, got %v", err)
	}
	body := domainErr.Details.(map[string]any)
	if got := body["retry_after"].(int); got != 40 {
		t.Fatalf("retry_after = %d, want 40", got)
	}
}

func TestResendRequiresPendingNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Resend(ctx, f.userID, language.English, "0912345678"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("resend without send: %v", err)
	}

	if _, err := f.svc.Send(ctx, f.userID, language.English, "0912345678"); err != nil {
		t.Fatalf("send: %v", err)
	}
	f.mr.FastForward(61 * time.Second)

	if _, err := f.svc.Resend(ctx, f.userID, language.English, "0987654321"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("resend for another number: %v", err)
	}
	resp, err := f.svc.Resend(ctx, f.userID, language.English, "0912345678")
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if resp.Detail != "The verification code has been sent again." {
		t.Fatalf("detail = %q", resp.Detail)
	}
	if len(f.queue.payloads) != 2 {
		t.Fatalf("queued %d codes, want 2", len(f.queue.payloads))
	}
}

func TestConfirmStoresVerifiedPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, f.userID, language.English, "0912345678"); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := f.queue.last().Code

	resp, err := f.svc.Confirm(ctx, f.userID, language.English, transport.ConfirmRequest{Phone: "0912345678", Code: code})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if resp.Phone != "+886912345678" {
		t.Fatalf("phone = %q", resp.Phone)
	}
	if f.phones[f.userID] != "+886912345678" {
		t.Fatalf("profile phone = %q", f.phones[f.userID])
	}
	if len(f.bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.bus.events))
	}
	ev, ok := f.bus.events[0].(events.PhoneVerified)
	if !ok || ev.Email != "alice@example.com" || ev.Username != "alice0123" {
		t.Fatalf("unexpected event %#v", f.bus.events[0])
	}
}

func TestConfirmErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, f.userID, language.English, transport.ConfirmRequest{Phone: "0912345678", Code: "123456"})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("no pending: %v", err)
	}

	if _, err := f.svc.Send(ctx, f.userID, language.English, "0912345678"); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := f.queue.last().Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err = f.svc.Confirm(ctx, f.userID, language.English, transport.ConfirmRequest{Phone: "0912345678", Code: "12ab"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("malformed code: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err = f.svc.Confirm(ctx, f.userID, language.English, transport.ConfirmRequest{Phone: "0912345678", Code: wrong})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("wrong code %d: %v", i+1, err)
		}
	}
	_, err = f.svc.Confirm(ctx, f.userID, language.English, transport.ConfirmRequest{Phone: "0912345678", Code: wrong})
	if !apperr.Is(err, apperr.KindTooManyRequests) {
		t.Fatalf("third wrong code: %v", err)
	}
	if _, ok := f.phones[f.userID]; ok {
		t.Fatal("phone must not be stored after failed confirmation")
	}
}

func TestConfirmExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, f.userID, language.English, "0912345678"); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := f.queue.last().Code
	f.mr.FastForward(6 * time.Minute)

	_, err := f.svc.Confirm(ctx, f.userID, language.English, transport.ConfirmRequest{Phone: "0912345678", Code: code})
	if !apperr.Is(err, apperr.KindGone) {
		t.Fatalf("expected gone, got %v", err)
	}
}

func TestSendQueueFailure(t *testing.T) {
	f := newFixture(t)
	f.queue.fail = true

	_, err := f.svc.Send(context.Background(), f.userID, language.English, "0912345678")
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}

	// Nothing was sent, so the user must not be held to the cooldown.
	f.queue.fail = false
	if _, err := f.svc.Send(context.Background(), f.userID, language.English, "0912345678"); err != nil {
		t.Fatalf("retry after queue failure: %v", err)
	}
	if len(f.queue.payloads) != 1 {
		t.Fatalf("queued %d codes, want 1", len(f.queue.payloads))
	}
}

func TestGenerateNumericOTP(t *testing.T) {
	code, err := generateNumericOTP(6)
	if err != nil || len(code) != 6 || !isNumeric(code) {
		t.Fatalf("code = %q, err = %v", code, err)
	}
	if _, err := generateNumericOTP(3); err == nil {
		t.Fatal("expected error for short code")
	}
}
