package keyspace

import (
	"context"
	"testing"
	"time"
)

func TestSweeperReclaimsExpired(t *testing.T) {
	s, c := newTestStore(t)
	for _, key := range []string{"a", "b", "c"} {
		s.Set(key, "v", SetOptions{ExpireAt: c.NowMS() + 10})
	}
	c.Advance(20 * time.Millisecond)

	sw := NewSweeper(s, SweeperConfig{Interval: time.Millisecond, Budget: 0})
	sw.Start()
	deadline := time.Now().Add(2 * time.Second)
	for s.DBSize() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper left %d keys after 2s", s.DBSize())
		}
		time.Sleep(5 * time.Millisecond)
	}
	sw.Stop()

	if st := s.Stats(); st.ExpiredActive != 3 {
		t.Fatalf("ExpiredActive = %d, want 3", st.ExpiredActive)
	}
}

func TestSweeperStopTerminates(t *testing.T) {
	s, _ := newTestStore(t)
	sw := NewSweeper(s, SweeperConfig{Interval: time.Millisecond})
	sw.Start()
	done := make(chan struct{})
	go func() {
		sw.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestSweepOnce(t *testing.T) {
	s, c := newTestStore(t)
	s.Set("k", "v", SetOptions{ExpireAt: c.NowMS() + 10})
	c.Advance(20 * time.Millisecond)

	sw := NewSweeper(s, SweeperConfig{Interval: time.Millisecond})
	n, err := sw.SweepOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("SweepOnce = (%d, %v), want 1", n, err)
	}
}
