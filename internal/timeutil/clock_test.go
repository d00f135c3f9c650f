package timeutil

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestMockClockNowAndSet(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", clock.Now(), start)
	}

	later := start.Add(45 * time.Minute)
	clock.Set(later)
	if !clock.Now().Equal(later) {
		t.Errorf("after Set: Now() = %v, want %v", clock.Now(), later)
	}
}

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	clock.Advance(2 * time.Hour)
	want := start.Add(2 * time.Hour)
	if !clock.Now().Equal(want) {
		t.Errorf("after Advance: Now() = %v, want %v", clock.Now(), want)
	}

	// Advancing never moves Set's reference point; it compounds.
	clock.Advance(30 * time.Minute)
	want = want.Add(30 * time.Minute)
	if !clock.Now().Equal(want) {
		t.Errorf("after second Advance: Now() = %v, want %v", clock.Now(), want)
	}
}
