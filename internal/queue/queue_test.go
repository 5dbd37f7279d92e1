package queue

import (
	"testing"
	"time"
)

func TestBackoffDoublesUntilCap(t *testing.T) {
	base := time.Second
	max := 30 * time.Second

	for attempt := 1; attempt <= 4; attempt++ {
		d := backoff(attempt, base, max)
		want := base * time.Duration(1<<uint(attempt-1))
		lo := time.Duration(float64(want) * 0.8)
		hi := time.Duration(float64(want) * 1.2)
		if d < lo || d > hi {
			t.Fatalf("attempt %d: backoff=%v outside jitter band [%v, %v] of %v", attempt, d, lo, hi, want)
		}
	}
}

func TestBackoffClampsToMax(t *testing.T) {
	base := time.Second
	max := 5 * time.Second

	d := backoff(10, base, max)
	if d > time.Duration(float64(max)*1.2) {
		t.Fatalf("backoff=%v exceeds max=%v even with jitter", d, max)
	}
}

func TestChannelNaming(t *testing.T) {
	s := &Service{cfg: Config{QueueName: "ask"}}
	if got := s.Channel(); got != "ask_channel" {
		t.Fatalf("Channel() = %q, want %q", got, "ask_channel")
	}
}
