package apierr

import (
	"errors"
	"testing"
)

func TestErrorMessagePrefersWrappedError(t *testing.T) {
	wrapped := errors.New("boom")
	e := New(500, "internal", wrapped)
	if e.Error() != "boom" {
		t.Fatalf("Error() = %q, want %q", e.Error(), "boom")
	}
}

func TestErrorMessageFallsBackToCode(t *testing.T) {
	e := New(429, "rate_limited", nil)
	if e.Error() != "rate_limited" {
		t.Fatalf("Error() = %q, want %q", e.Error(), "rate_limited")
	}
}

func TestErrorMessageFallsBackToStatus(t *testing.T) {
	e := New(503, "", nil)
	if e.Error() != "api error (503)" {
		t.Fatalf("Error() = %q, want %q", e.Error(), "api error (503)")
	}
}

func TestUnwrapReturnsWrappedError(t *testing.T) {
	wrapped := errors.New("root cause")
	e := New(500, "", wrapped)
	if errors.Unwrap(e) != wrapped {
		t.Fatalf("Unwrap did not return the wrapped error")
	}
}

func TestHTTPStatusCode(t *testing.T) {
	e := New(418, "", nil)
	if e.HTTPStatusCode() != 418 {
		t.Fatalf("HTTPStatusCode() = %d, want 418", e.HTTPStatusCode())
	}
}
