package keyspace

import (
	"fmt"
	"testing"
	"time"
)

func TestScanWalksEverything(t *testing.T) {
	s, _ := newTestStore(t)
	want := make(map[string]bool)
	for i := 0; i < 37; i++ {
		key := fmt.Sprintf("key:%02d", i)
		mustSet(t, s, key, "v")
		want[key] = false
	}

	var cursor uint64
	rounds := 0
	for {
		keys, next := s.Scan(cursor, 10, ScanOptions{})
		for _, k := range keys {
			seen, ok := want[k]
			if !ok {
				t.Fatalf("Scan returned unknown key %q", k)
			}
			if seen {
				t.Fatalf("Scan returned %q twice", k)
			}
			want[k] = true
		}
		if next == 0 {
			break
		}
		cursor = next
		if rounds++; rounds > 100 {
			t.Fatal("Scan cursor never terminated")
		}
	}
	for k, seen := range want {
		if !seen {
			t.Fatalf("Scan never returned %q", k)
		}
	}
}

func TestScanMatchAndType(t *testing.T) {
	s, _ := newTestStore(t)
	mustSet(t, s, "user:1", "v")
	mustSet(t, s, "user:2", "v")
	s.SAdd("user:tags", "a")
	mustSet(t, s, "order:1", "v")

	keys, next := s.Scan(0, 100, ScanOptions{Match: "user:*"})
	if next != 0 || len(keys) != 3 {
		t.Fatalf("Scan match = (%v, %d)", keys, next)
	}
	keys, _ = s.Scan(0, 100, ScanOptions{Match: "user:*", Type: "string"})
	if len(keys) != 2 {
		t.Fatalf("Scan match+type = %v", keys)
	}
	keys, _ = s.Scan(0, 100, ScanOptions{Type: "set"})
	if len(keys) != 1 || keys[0] != "user:tags" {
		t.Fatalf("Scan type=set = %v", keys)
	}
}

func TestScanSkipsExpired(t *testing.T) {
	s, c := newTestStore(t)
	mustSet(t, s, "live", "v")
	s.Set("dead", "v", SetOptions{ExpireAt: c.NowMS() + 10})
	c.Advance(20 * time.Millisecond)

	keys, _ := s.Scan(0, 100, ScanOptions{})
	if len(keys) != 1 || keys[0] != "live" {
		t.Fatalf("Scan = %v, want [live]", keys)
	}
	// Skipped, not deleted: the entry is still there for CollectExpired.
	if n := s.DBSize(); n != 2 {
		t.Fatalf("DBSize = %d, want 2", n)
	}
}

func TestHScan(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 25; i++ {
		s.HSet("h", FieldValue{fmt.Sprintf("f%02d", i), "v"})
	}
	var cursor uint64
	total := 0
	for {
		fields, next, err := s.HScan("h", cursor, 10, "")
		if err != nil {
			t.Fatalf("HScan: %v", err)
		}
		total += len(fields)
		if next == 0 {
			break
		}
		cursor = next
	}
	if total != 25 {
		t.Fatalf("HScan walked %d fields, want 25", total)
	}
	matched, _, _ := s.HScan("h", 0, 100, "f0*")
	if len(matched) != 10 {
		t.Fatalf("HScan match = %d fields, want 10", len(matched))
	}
}

func TestSScanZScan(t *testing.T) {
	s, _ := newTestStore(t)
	s.SAdd("s", "apple", "banana", "avocado")
	members, next, err := s.SScan("s", 0, 100, "a*")
	if err != nil || next != 0 || len(members) != 2 {
		t.Fatalf("SScan = (%v, %d, %v)", members, next, err)
	}

	zadd(t, s, "z", MemberScore{"one", 1}, MemberScore{"two", 2})
	scored, next, err := s.ZScan("z", 0, 100, "")
	if err != nil || next != 0 || len(scored) != 2 {
		t.Fatalf("ZScan = (%v, %d, %v)", scored, next, err)
	}
	if scored[0].Member != "one" || scored[1].Member != "two" {
		t.Fatalf("ZScan order = %v", scored)
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern, str string
		want         bool
	}{
		{"*", "anything", true},
		{"", "", true},
		{"", "x", false},
		{"hello", "hello", true},
		{"hello", "hallo", false},
		{"h?llo", "hello", true},
		{"h?llo", "hllo", false},
		{"h*llo", "hllo", true},
		{"h*llo", "heeeello", true},
		{"h[ae]llo", "hello", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"h[a-c]llo", "hbllo", true},
		{"h[a-c]llo", "hdllo", false},
		{"user:*:name", "user:42:name", true},
		{"user:*:name", "user:42:email", false},
		{"\\*", "*", true},
		{"\\*", "x", false},
		{"a\\?c", "a?c", true},
		{"a\\?c", "abc", false},
		{"**", "x", true},
		{"*x*", "axb", true},
		{"*x*", "ab", false},
	}
	for _, tc := range cases {
		if got := matchPattern(tc.pattern, tc.str); got != tc.want {
			t.Fatalf("matchPattern(%q, %q) = %v, want %v", tc.pattern, tc.str, got, tc.want)
		}
	}
}
