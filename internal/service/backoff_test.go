package service

import (
	"context"
	"testing"
	"time"
)

func TestDefaultBackoffSequence(t *testing.T) {
	want := []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second, 60 * time.Second, 60 * time.Second}
	for i, w := range want {
		attempt := i + 1
		if got := DefaultBackoff.Delay(attempt); got != w {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestBackoffLargeAttemptStaysCapped(t *testing.T) {
	if got := DefaultBackoff.Delay(200); got != 60*time.Second {
		t.Fatalf("Delay(200) = %v", got)
	}
	if got := DefaultBackoff.Delay(0); got != 10*time.Second {
		t.Fatalf("Delay(0) = %v", got)
	}
}

func TestRealSleeperHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := RealSleeper.Sleep(ctx, time.Hour); err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("sleep did not return promptly")
	}
}
