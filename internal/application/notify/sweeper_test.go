package notify

import (
	"sync"
	"testing"
	"time"
)

func TestStartSweeper_InvalidSchedule(t *testing.T) {
	if _, err := StartSweeper(NewService(time.Minute), "every now and then"); err == nil {
		t.Fatal("StartSweeper() with a bad schedule returned nil error")
	}
}

func TestStartSweeper_RemovesExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the cron runner")
	}
	var mu sync.Mutex
	clock := time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	s := NewService(time.Minute, WithClock(now))
	if _, err := s.Create("t1", LevelInfo, "", "old news"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mu.Lock()
	clock = clock.Add(2 * time.Minute)
	mu.Unlock()

	c, err := StartSweeper(s, "@every 1s")
	if err != nil {
		t.Fatalf("StartSweeper: %v", err)
	}
	defer c.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for s.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expired notification still stored after %s", 5*time.Second)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
