package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"profile_portal_backend/internal/client"
)

func TestLineDiff(t *testing.T) {
	before := profileLines("王小明", "nick", "", "+886912345678", "portraits/a.png")
	after := profileLines("王小明", "nick2", "", "+886987654321", "")

	got := lineDiff(before, after)
	for _, want := range []string{
		"  real_name: 王小明\n",
		"- nickname: nick\n",
		"+ nickname: nick2\n",
		"- phone: +886912345678\n",
		"+ phone: +886987654321\n",
		"- portrait: portraits/a.png\n",
		"+ portrait: \n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("diff missing %q:\n%s", want, got)
		}
	}
}

func TestSubmittedLinesKeepsUnsetFields(t *testing.T) {
	current := client.Profile{RealName: "A", Nickname: "B", Address: "C", Phone: "+886912345678", Portrait: "p.png"}
	nick := "D"
	got := submittedLines(current, client.ProfileUpdate{Nickname: &nick}, "")
	want := profileLines("A", "D", "C", "+886912345678", "p.png")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got = submittedLines(current, client.ProfileUpdate{RemovePortrait: true}, "")
	want = profileLines("A", "B", "C", "+886912345678", "")
	if got != want {
		t.Fatalf("remove portrait: got %q, want %q", got, want)
	}
}

func TestCheckPhone(t *testing.T) {
	var out bytes.Buffer
	if err := checkPhone(&out, "en", "0912-345-678"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out.String(), "+886912345678") {
		t.Fatalf("unexpected output %q", out.String())
	}

	err := checkPhone(&out, "en", "091234567")
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != exitInput {
		t.Fatalf("expected input error, got %v", err)
	}
	if !strings.Contains(ee.msg, "WRONG_LENGTH") || !strings.Contains(ee.msg, "9 entered") {
		t.Fatalf("unexpected message %q", ee.msg)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("PROFILECTL_TOKEN", "")
	path := filepath.Join(t.TempDir(), "nested", "token")

	if _, err := loadToken(path); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("expected errNotLoggedIn, got %v", err)
	}
	if err := saveToken(path, "tok-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	token, err := loadToken(path)
	if err != nil || token != "tok-1" {
		t.Fatalf("token = %q, err = %v", token, err)
	}

	t.Setenv("PROFILECTL_TOKEN", "from-env")
	if token, _ := loadToken(path); token != "from-env" {
		t.Fatalf("env token should win, got %q", token)
	}
}

func TestWaitCooldown(t *testing.T) {
	var out bytes.Buffer
	if err := waitCooldown(context.Background(), &out, 30*time.Millisecond, 10*time.Millisecond); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !strings.Contains(out.String(), "resend available now") {
		t.Fatalf("unexpected output %q", out.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitCooldown(ctx, io.Discard, time.Minute, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProfileGetCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/account/profile/" || r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"missing token"}`)
			return
		}
		_, _ = io.WriteString(w, `{"email":"alice@example.com","phone":"+886912345678","phone_verified":true}`)
	}))
	defer srv.Close()

	t.Setenv("PROFILECTL_TOKEN", "tok-1")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--url", srv.URL, "--token-file", filepath.Join(t.TempDir(), "token"), "profile", "get"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "0912345678 (verified)") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestProfileGetWithoutLogin(t *testing.T) {
	t.Setenv("PROFILECTL_TOKEN", "")
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--token-file", filepath.Join(t.TempDir(), "missing"), "profile", "get"})

	err := root.Execute()
	var ee *exitErr
	if !errors.As(err, &ee) || ee.code != exitInput {
		t.Fatalf("expected input error, got %v", err)
	}
}
