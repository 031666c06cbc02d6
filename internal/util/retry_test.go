package util

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"database locked", errors.New("database is locked"), true},
		{"sqlite busy", errors.New("SQLITE_BUSY: database busy"), true},
		{"timeout", errors.New("operation timed out"), true},
		{"eagain", &os.PathError{Op: "read", Path: "/f", Err: syscall.EAGAIN}, true},
		{"eio", &os.PathError{Op: "read", Path: "/f", Err: syscall.EIO}, true},
		{"not found", os.ErrNotExist, false},
		{"plain error", errors.New("bad input"), false},
	}

	for _, tt := range tests {
		if got := IsRetryableError(tt.err); got != tt.retryable {
			t.Errorf("%s: IsRetryableError = %v, expected %v", tt.name, got, tt.retryable)
		}
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 10 * time.Millisecond}

	attempts := 0
	err := Retry(cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	}, "test op")

	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, expected 3", attempts)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 5, InitialWait: time.Millisecond, MaxWait: 10 * time.Millisecond}

	permanent := errors.New("constraint violation")
	attempts := 0
	err := Retry(cfg, func() error {
		attempts++
		return permanent
	}, "test op")

	if !errors.Is(err, permanent) {
		t.Errorf("expected the permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, expected 1 (no retry on permanent errors)", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 10 * time.Millisecond}

	transient := errors.New("database is locked")
	attempts := 0
	err := Retry(cfg, func() error {
		attempts++
		return transient
	}, "test op")

	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if !errors.Is(err, transient) {
		t.Errorf("final error does not wrap the cause: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, expected 3", attempts)
	}
}
