//go:build !beatdebug

package session

import "testing"

func TestClampGroupKeepsIndexInRange(t *testing.T) {
	logger := &captureLogger{}
	s, err := New(testSchedule(3, 0), WithLogger(logger))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if got := s.clampGroup(7); got != 2 {
		t.Fatalf("clampGroup(7) = %d, want 2", got)
	}
	if got := s.clampGroup(-4); got != 0 {
		t.Fatalf("clampGroup(-4) = %d, want 0", got)
	}
	if got := s.clampGroup(1); got != 1 {
		t.Fatalf("clampGroup(1) = %d, want 1", got)
	}
	if len(logger.lines) != 2 {
		t.Fatalf("expected both clamps to be logged, got %v", logger.lines)
	}
}
