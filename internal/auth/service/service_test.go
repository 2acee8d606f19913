package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"profile_portal_backend/internal/auth/password"
	"profile_portal_backend/internal/auth/repository"
	"profile_portal_backend/internal/auth/transport"
	"profile_portal_backend/internal/events"
	"profile_portal_backend/platform/apperr"
	"profile_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	users map[uuid.UUID]repository.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[uuid.UUID]repository.User{}}
}

func (f *fakeRepo) CreateUserWithProfile(_ context.Context, username, email, hash string) (repository.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return repository.User{}, &repository.DuplicateError{Field: "username"}
		}
		if u.Email == email {
			return repository.User{}, &repository.DuplicateError{Field: "email"}
		}
	}
	u := repository.User{ID: uuid.New(), Username: username, Email: email, PasswordHash: hash, IsActive: true}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	f.users[id] = u
	return nil
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

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string        { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Minute }

func newTestService() (*Service, *fakeRepo, *recordingBus) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	return New(repo, testConfig{}, bus, logger.NewWithWriter("test", io.Discard)), repo, bus
}

func signUp(t *testing.T, svc *Service) transport.SignUpResponse {
	t.Helper()
	resp, err := svc.SignUp(context.Background(), transport.SignUpRequest{
		Username:  "alice01",
		Email:     "Alice@Example.com",
		Password1: "s3cret-pass",
		Password2: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return resp
}

func TestSignUpNormalisesEmail(t *testing.T) {
	svc, _, _ := newTestService()
	resp := signUp(t, svc)
	if resp.Email != "alice@example.com" {
		t.Fatalf("email = %q", resp.Email)
	}
}

func TestSignUpDuplicateUsernameIsFieldError(t *testing.T) {
	svc, _, _ := newTestService()
	signUp(t, svc)

	_, err := svc.SignUp(context.Background(), transport.SignUpRequest{
		Username: "alice01", Email: "other@example.com", Password1: "another-pass", Password2: "another-pass",
	})
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields, _ := appErr.Details.(map[string][]string)
	if len(fields["username"]) != 1 {
		t.Fatalf("expected username field error, got %#v", appErr.Details)
	}
}

func TestSignIn(t *testing.T) {
	svc, _, _ := newTestService()
	signUp(t, svc)

	tok, err := svc.SignIn(context.Background(), "alice@example.com", "s3cret-pass")
	if err != nil || tok == "" {
		t.Fatalf("sign in: token=%q err=%v", tok, err)
	}

	_, err = svc.SignIn(context.Background(), "alice@example.com", "wrong")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = svc.SignIn(context.Background(), "nobody@example.com", "s3cret-pass")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestSignInInactive(t *testing.T) {
	svc, repo, _ := newTestService()
	resp := signUp(t, svc)
	id := uuid.MustParse(resp.ID)
	u := repo.users[id]
	u.IsActive = false
	repo.users[id] = u

	_, err := svc.SignIn(context.Background(), "alice@example.com", "s3cret-pass")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, repo, bus := newTestService()
	id := uuid.MustParse(signUp(t, svc).ID)

	if err := svc.ChangePassword(context.Background(), id, "s3cret-pass", "brand-new-pass"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if err := password.Compare(repo.users[id].PasswordHash, "brand-new-pass"); err != nil {
		t.Fatal("new password was not stored")
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	ev, ok := bus.events[0].(events.PasswordChanged)
	if !ok || ev.UserID != id || ev.Email != "alice@example.com" {
		t.Fatalf("unexpected event %#v", bus.events[0])
	}
}

func TestChangePasswordWrongOld(t *testing.T) {
	svc, _, bus := newTestService()
	id := uuid.MustParse(signUp(t, svc).ID)

	err := svc.ChangePassword(context.Background(), id, "not-the-password", "brand-new-pass")
	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected app error, got %v", err)
	}
	fields := appErr.Details.(map[string][]string)
	if fields["old_password"][0] != msgWrongOldPassword {
		t.Fatalf("unexpected details %#v", fields)
	}
	if len(bus.events) != 0 {
		t.Fatal("no event expected on failure")
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.ChangePassword(context.Background(), uuid.New(), "a", "bbbbbbbb")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if errors.Is(err, repository.ErrNotFound) {
		t.Fatal("repository error must not leak")
	}
}
