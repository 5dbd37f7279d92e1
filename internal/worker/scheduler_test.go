package worker

import (
	"testing"
	"time"
)

func TestNextDailyOccurrenceLaterTodayStaysToday(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	next := nextDailyOccurrence(now, 18, 0)
	want := time.Date(2026, 7, 31, 18, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("nextDailyOccurrence = %v, want %v", next, want)
	}
}

func TestNextDailyOccurrencePastTimeRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 7, 31, 19, 0, 0, 0, time.UTC)
	next := nextDailyOccurrence(now, 18, 0)
	want := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("nextDailyOccurrence = %v, want %v", next, want)
	}
}

func TestNextDailyOccurrenceExactlyNowRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 7, 31, 18, 0, 0, 0, time.UTC)
	next := nextDailyOccurrence(now, 18, 0)
	want := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("nextDailyOccurrence = %v, want %v (candidate equal to now must roll forward)", next, want)
	}
}
