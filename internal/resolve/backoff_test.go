package resolve

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{4, 5000 * time.Millisecond},
		{5, 5000 * time.Millisecond},
		{10, 5000 * time.Millisecond},
	}

	for _, test := range tests {
		result := Backoff(test.attempt)
		if result != test.expected {
			t.Errorf("Backoff(%d) = %v, expected %v", test.attempt, result, test.expected)
		}
	}
}

func TestBackoff_Monotonic(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < 20; attempt++ {
		delay := Backoff(attempt)
		if delay < prev {
			t.Fatalf("Backoff(%d) = %v decreased below %v", attempt, delay, prev)
		}
		if delay > BackoffMax {
			t.Fatalf("Backoff(%d) = %v exceeds cap %v", attempt, delay, BackoffMax)
		}
		prev = delay
	}
}
