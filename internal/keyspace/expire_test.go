package keyspace

import (
	"testing"
	"time"
)

func TestPTTLStates(t *testing.T) {
	s, c := newTestStore(t)
	if p := s.PTTL("missing"); p != -2 {
		t.Fatalf("PTTL(missing) = %d, want -2", p)
	}
	mustSet(t, s, "forever", "v")
	if p := s.PTTL("forever"); p != -1 {
		t.Fatalf("PTTL(no expiry) = %d, want -1", p)
	}
	s.Set("ttl", "v", SetOptions{ExpireAt: c.NowMS() + 1500})
	if p := s.PTTL("ttl"); p != 1500 {
		t.Fatalf("PTTL = %d, want 1500", p)
	}
}

func TestTTLRoundsUp(t *testing.T) {
	s, c := newTestStore(t)
	s.Set("k", "v", SetOptions{ExpireAt: c.NowMS() + 1})
	if got := s.TTL("k"); got != 1 {
		t.Fatalf("TTL with 1ms left = %d, want 1", got)
	}
	s.Set("k", "v", SetOptions{ExpireAt: c.NowMS() + 2000})
	if got := s.TTL("k"); got != 2 {
		t.Fatalf("TTL = %d, want 2", got)
	}
	if got := s.TTL("missing"); got != -2 {
		t.Fatalf("TTL(missing) = %d, want -2", got)
	}
}

func TestExpireTime(t *testing.T) {
	s, c := newTestStore(t)
	at := c.NowMS() + 4500
	s.Set("k", "v", SetOptions{ExpireAt: at})
	if got := s.PExpireTime("k"); got != at {
		t.Fatalf("PExpireTime = %d, want %d", got, at)
	}
	if got := s.ExpireTime("k"); got != (at+999)/1000 {
		t.Fatalf("ExpireTime = %d, want %d", got, (at+999)/1000)
	}
	mustSet(t, s, "plain", "v")
	if got := s.PExpireTime("plain"); got != -1 {
		t.Fatalf("PExpireTime(no expiry) = %d, want -1", got)
	}
}

func TestLazyExpiration(t *testing.T) {
	s, c := newTestStore(t)
	s.Set("k", "v", SetOptions{ExpireAt: c.NowMS() + 100})
	c.Advance(101 * time.Millisecond)
	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("Get returned expired value")
	}
	if n := s.Exists("k"); n != 0 {
		t.Fatal("Exists saw expired key")
	}
	st := s.Stats()
	if st.ExpiredLazy == 0 {
		t.Fatal("lazy expiration not counted")
	}
}

func TestExpireAtPastDeletes(t *testing.T) {
	s, c := newTestStore(t)
	mustSet(t, s, "k", "v")
	if !s.ExpireAt("k", c.NowMS()-1) {
		t.Fatal("ExpireAt on existing key failed")
	}
	if n := s.DBSize(); n != 0 {
		t.Fatal("key with past expiration not deleted immediately")
	}
	if s.ExpireAt("missing", c.NowMS()+1000) {
		t.Fatal("ExpireAt on missing key succeeded")
	}
}

func TestPersist(t *testing.T) {
	s, c := newTestStore(t)
	s.Set("k", "v", SetOptions{ExpireAt: c.NowMS() + 1000})
	if !s.Persist("k") {
		t.Fatal("Persist failed")
	}
	if p := s.PTTL("k"); p != -1 {
		t.Fatalf("PTTL after Persist = %d, want -1", p)
	}
	if s.Persist("k") {
		t.Fatal("Persist on persistent key reported change")
	}
	if s.Persist("missing") {
		t.Fatal("Persist on missing key reported change")
	}
}

func TestCollectExpired(t *testing.T) {
	s, c := newTestStore(t)
	s.Set("b", "v", SetOptions{ExpireAt: c.NowMS() + 10})
	s.Set("a", "v", SetOptions{ExpireAt: c.NowMS() + 10})
	mustSet(t, s, "keep", "v")
	c.Advance(20 * time.Millisecond)

	dead := s.CollectExpired()
	if len(dead) != 2 || dead[0] != "a" || dead[1] != "b" {
		t.Fatalf("CollectExpired = %v, want [a b]", dead)
	}
	if n := s.DBSize(); n != 1 {
		t.Fatalf("DBSize = %d, want 1", n)
	}
	if st := s.Stats(); st.ExpiredCollected != 2 {
		t.Fatalf("ExpiredCollected = %d, want 2", st.ExpiredCollected)
	}
	if again := s.CollectExpired(); len(again) != 0 {
		t.Fatalf("second CollectExpired = %v, want empty", again)
	}
}

func TestCollectExpiredScopedToCurrentDB(t *testing.T) {
	s, c := newTestStore(t)
	s.Set("d0", "v", SetOptions{ExpireAt: c.NowMS() + 10})
	s.Select(1)
	s.Set("d1", "v", SetOptions{ExpireAt: c.NowMS() + 10})
	c.Advance(20 * time.Millisecond)

	if dead := s.CollectExpired(); len(dead) != 1 || dead[0] != "d1" {
		t.Fatalf("CollectExpired in db1 = %v, want [d1]", dead)
	}
	s.Select(0)
	if n := s.DBSize(); n != 1 {
		t.Fatal("CollectExpired touched another database")
	}
}

func TestActiveExpire(t *testing.T) {
	s, c := newTestStore(t)
	for _, key := range []string{"a", "b", "c"} {
		s.Set(key, "v", SetOptions{ExpireAt: c.NowMS() + 10})
	}
	s.Select(5)
	s.Set("other", "v", SetOptions{ExpireAt: c.NowMS() + 10})
	s.Select(0)
	c.Advance(20 * time.Millisecond)

	if n := s.ActiveExpire(0); n != 4 {
		t.Fatalf("ActiveExpire = %d, want 4", n)
	}
	if st := s.Stats(); st.ExpiredActive != 4 {
		t.Fatalf("ExpiredActive = %d, want 4", st.ExpiredActive)
	}
}

func TestActiveExpireBudget(t *testing.T) {
	s, c := newTestStore(t)
	for _, key := range []string{"a", "b", "c", "d"} {
		s.Set(key, "v", SetOptions{ExpireAt: c.NowMS() + 10})
	}
	c.Advance(20 * time.Millisecond)

	first := s.ActiveExpire(2)
	if first != 2 {
		t.Fatalf("budgeted ActiveExpire = %d, want 2", first)
	}
	rest := s.ActiveExpire(0)
	if first+rest != 4 {
		t.Fatalf("total expired = %d, want 4", first+rest)
	}
}

func TestStatsExpiringCount(t *testing.T) {
	s, c := newTestStore(t)
	mustSet(t, s, "plain", "v")
	s.Set("ttl", "v", SetOptions{ExpireAt: c.NowMS() + 1000})
	st := s.Stats()
	if st.PerDB[0].Keys != 2 || st.PerDB[0].Expiring != 1 {
		t.Fatalf("PerDB[0] = %+v, want 2 keys, 1 expiring", st.PerDB[0])
	}
}
