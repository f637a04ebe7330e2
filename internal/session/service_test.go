package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/shotwall/shotwall/internal/apperror"
)

// newTestService spins up an in-memory Redis and a service over a
// credentials file with one user.
func newTestService(t *testing.T) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	path := writeCredFile(t, "alice:secret:alice,eng\n")
	return NewService(path, rdb, time.Hour), mr
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("expected 64-char hex token, got %d chars", len(token))
	}

	sess, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Username != "alice" {
		t.Errorf("expected username alice, got %q", sess.Username)
	}
	if len(sess.Allowed) != 2 || sess.Allowed[0] != "alice" || sess.Allowed[1] != "eng" {
		t.Errorf("unexpected allowed set: %v", sess.Allowed)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "alice", "wrong")
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "mallory", "secret")
	assertAppError(t, err, http.StatusUnauthorized)

	// Unknown user and wrong password must be indistinguishable.
	_, err2 := svc.Login(context.Background(), "alice", "wrong")
	if apperror.SafeMessage(err) != apperror.SafeMessage(err2) {
		t.Error("login failures must share one message")
	}
}

func TestValidate_UnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Validate(context.Background(), "deadbeef")
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestValidate_ExpiredSession(t *testing.T) {
	svc, mr := newTestService(t)

	token, err := svc.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	_, err = svc.Validate(context.Background(), token)
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestDestroy(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Destroy(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Validate(context.Background(), token)
	assertAppError(t, err, http.StatusUnauthorized)
}

func TestLogin_PicksUpCredentialEdits(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	path := writeCredFile(t, "alice:old:alice\n")
	svc := NewService(path, rdb, time.Hour)

	if _, err := svc.Login(context.Background(), "alice", "old"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Operator rotates the password; no restart involved.
	if err := os.WriteFile(path, []byte("alice:new:alice\n"), 0o600); err != nil {
		t.Fatalf("rewriting credentials: %v", err)
	}

	_, err := svc.Login(context.Background(), "alice", "old")
	assertAppError(t, err, http.StatusUnauthorized)

	if _, err := svc.Login(context.Background(), "alice", "new"); err != nil {
		t.Fatalf("unexpected error after rotation: %v", err)
	}
}
