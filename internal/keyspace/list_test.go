package keyspace

import (
	"errors"
	"reflect"
	"testing"

	"github.com/alsatianco/peadb/internal/core/domain"
)

func pushList(t *testing.T, s *Store, key string, values ...string) {
	t.Helper()
	if _, err := s.RPush(key, values...); err != nil {
		t.Fatalf("RPush(%q): %v", key, err)
	}
}

func TestPushOrder(t *testing.T) {
	s, _ := newTestStore(t)
	// LPUSH a b c leaves c at the head.
	if _, err := s.LPush("l", "a", "b", "c"); err != nil {
		t.Fatalf("LPush: %v", err)
	}
	got, _ := s.LRange("l", 0, -1)
	want := []string{"c", "b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LRange = %v, want %v", got, want)
	}
	pushList(t, s, "l", "x")
	if v, _, _ := s.LIndex("l", -1); v != "x" {
		t.Fatalf("LIndex(-1) = %q, want x", v)
	}
}

func TestPop(t *testing.T) {
	s, _ := newTestStore(t)
	pushList(t, s, "l", "a", "b", "c", "d")
	got, err := s.LPop("l", 2)
	if err != nil || !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("LPop = (%v, %v), want [a b]", got, err)
	}
	got, err = s.RPop("l", 1)
	if err != nil || !reflect.DeepEqual(got, []string{"d"}) {
		t.Fatalf("RPop = (%v, %v), want [d]", got, err)
	}
	// Draining the list deletes the key.
	if _, err := s.LPop("l", 10); err != nil {
		t.Fatalf("LPop: %v", err)
	}
	if s.Exists("l") != 0 {
		t.Fatal("empty list key not deleted")
	}
}

func TestLLen(t *testing.T) {
	s, _ := newTestStore(t)
	pushList(t, s, "l", "a", "b")
	if n, _ := s.LLen("l"); n != 2 {
		t.Fatalf("LLen = %d, want 2", n)
	}
	if n, _ := s.LLen("missing"); n != 0 {
		t.Fatalf("LLen(missing) = %d, want 0", n)
	}
}

func TestLRangeBounds(t *testing.T) {
	s, _ := newTestStore(t)
	pushList(t, s, "l", "a", "b", "c", "d", "e")
	cases := []struct {
		start, stop int64
		want        []string
	}{
		{0, 2, []string{"a", "b", "c"}},
		{-2, -1, []string{"d", "e"}},
		{-100, 100, []string{"a", "b", "c", "d", "e"}},
		{3, 1, nil},
		{5, 10, nil},
	}
	for _, tc := range cases {
		got, err := s.LRange("l", tc.start, tc.stop)
		if err != nil || !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("LRange(%d, %d) = (%v, %v), want %v", tc.start, tc.stop, got, err, tc.want)
		}
	}
}

func TestLIndexLSet(t *testing.T) {
	s, _ := newTestStore(t)
	pushList(t, s, "l", "a", "b", "c")
	if v, ok, _ := s.LIndex("l", 1); !ok || v != "b" {
		t.Fatalf("LIndex(1) = (%q, %v)", v, ok)
	}
	if _, ok, _ := s.LIndex("l", 5); ok {
		t.Fatal("LIndex out of range reported ok")
	}
	if err := s.LSet("l", -1, "z"); err != nil {
		t.Fatalf("LSet: %v", err)
	}
	if v, _, _ := s.LIndex("l", 2); v != "z" {
		t.Fatalf("LIndex after LSet = %q, want z", v)
	}
	if err := s.LSet("l", 9, "x"); err == nil {
		t.Fatal("LSet out of range succeeded")
	}
	if err := s.LSet("missing", 0, "x"); !errors.Is(err, domain.ErrNoSuchKey) {
		t.Fatalf("LSet on missing key = %v, want ErrNoSuchKey", err)
	}
}

func TestLTrim(t *testing.T) {
	s, _ := newTestStore(t)
	pushList(t, s, "l", "a", "b", "c", "d")
	if err := s.LTrim("l", 1, 2); err != nil {
		t.Fatalf("LTrim: %v", err)
	}
	got, _ := s.LRange("l", 0, -1)
	if !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("after LTrim = %v", got)
	}
	if err := s.LTrim("l", 5, 10); err != nil {
		t.Fatalf("LTrim: %v", err)
	}
	if s.Exists("l") != 0 {
		t.Fatal("LTrim to empty range kept the key")
	}
}

func TestLRem(t *testing.T) {
	s, _ := newTestStore(t)
	pushList(t, s, "l", "a", "b", "a", "c", "a")
	n, err := s.LRem("l", 2, "a")
	if err != nil || n != 2 {
		t.Fatalf("LRem(2) = (%d, %v), want 2", n, err)
	}
	got, _ := s.LRange("l", 0, -1)
	if !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Fatalf("after LRem = %v", got)
	}

	pushList(t, s, "r", "a", "b", "a", "c", "a")
	if n, _ := s.LRem("r", -1, "a"); n != 1 {
		t.Fatalf("LRem(-1) = %d, want 1", n)
	}
	got, _ = s.LRange("r", 0, -1)
	if !reflect.DeepEqual(got, []string{"a", "b", "a", "c"}) {
		t.Fatalf("after tail LRem = %v", got)
	}

	if n, _ := s.LRem("r", 0, "a"); n != 2 {
		t.Fatalf("LRem(0) = %d, want 2", n)
	}
}
