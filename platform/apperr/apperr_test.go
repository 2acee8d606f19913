package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Internal("x"), http.StatusInternalServerError},
		{Gone("x"), http.StatusGone},
		{TooManyRequests("x"), http.StatusTooManyRequests},
		{New(KindUnknown, "x"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: expected %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestGetKindLooksThroughWrapping(t *testing.T) {
	base := TooManyRequests("cooldown active")
	wrapped := fmt.Errorf("send otp: %w", base)

	if got := GetKind(wrapped); got != KindTooManyRequests {
		t.Fatalf("expected KindTooManyRequests, got %d", got)
	}
	if !Is(wrapped, KindTooManyRequests) {
		t.Fatal("expected Is to match wrapped error")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("expected KindUnknown for untyped error")
	}
	if e, ok := As(wrapped); !ok || e != base {
		t.Fatal("expected As to return the wrapped *Error")
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := Validation("bad phone").WithOp("account.UpdateProfile")
	if err.Error() != "account.UpdateProfile: bad phone" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	cause := errors.New("boom")
	wrapped := Wrap(KindInternal, "failed", cause)
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected Unwrap to expose the cause")
	}
}
