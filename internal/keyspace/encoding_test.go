package keyspace

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alsatianco/peadb/internal/core/domain"
)

func encoding(t *testing.T, s *Store, key string) string {
	t.Helper()
	enc, err := s.ObjectEncoding(key)
	if err != nil {
		t.Fatalf("ObjectEncoding(%q): %v", key, err)
	}
	return enc
}

func TestStringEncoding(t *testing.T) {
	s, _ := newTestStore(t)
	mustSet(t, s, "int", "12345")
	mustSet(t, s, "negint", "-7")
	mustSet(t, s, "short", "hello")
	mustSet(t, s, "exactly39", strings.Repeat("a", 39))
	mustSet(t, s, "forty", strings.Repeat("a", 40))
	mustSet(t, s, "leadzero", "0123")
	mustSet(t, s, "plus", "+5")
	mustSet(t, s, "toobig", "92233720368547758080")

	cases := map[string]string{
		"int":       "int",
		"negint":    "int",
		"short":     "embstr",
		"exactly39": "embstr",
		"forty":     "raw",
		"leadzero":  "embstr",
		"plus":      "embstr",
		"toobig":    "embstr",
	}
	for key, want := range cases {
		if got := encoding(t, s, key); got != want {
			t.Fatalf("encoding(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestForceRawSticks(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append("k", "123")
	if got := encoding(t, s, "k"); got != "raw" {
		t.Fatalf("encoding after APPEND = %q, want raw", got)
	}
	// A plain SET resets the raw flag.
	mustSet(t, s, "k", "123")
	if got := encoding(t, s, "k"); got != "int" {
		t.Fatalf("encoding after SET = %q, want int", got)
	}
	s.SetBit("k", 0, 0)
	if got := encoding(t, s, "k"); got != "raw" {
		t.Fatalf("encoding after SETBIT = %q, want raw", got)
	}
}

func TestHashEncoding(t *testing.T) {
	s, _ := newTestStore(t)
	s.HSet("small", FieldValue{"f", "v"})
	if got := encoding(t, s, "small"); got != "listpack" {
		t.Fatalf("encoding = %q, want listpack", got)
	}
	s.HSet("longval", FieldValue{"f", strings.Repeat("v", 65)})
	if got := encoding(t, s, "longval"); got != "hashtable" {
		t.Fatalf("encoding = %q, want hashtable", got)
	}
	for i := 0; i < 129; i++ {
		s.HSet("big", FieldValue{fmt.Sprintf("f%d", i), "v"})
	}
	if got := encoding(t, s, "big"); got != "hashtable" {
		t.Fatalf("encoding = %q, want hashtable", got)
	}
}

func TestListEncoding(t *testing.T) {
	s, _ := newTestStore(t)
	s.RPush("small", "a", "b")
	if got := encoding(t, s, "small"); got != "listpack" {
		t.Fatalf("encoding = %q, want listpack", got)
	}
	s.RPush("longval", strings.Repeat("x", 65))
	if got := encoding(t, s, "longval"); got != "quicklist" {
		t.Fatalf("encoding = %q, want quicklist", got)
	}
	for i := 0; i < 129; i++ {
		s.RPush("big", "v")
	}
	if got := encoding(t, s, "big"); got != "quicklist" {
		t.Fatalf("encoding = %q, want quicklist", got)
	}
}

func TestSetEncoding(t *testing.T) {
	s, _ := newTestStore(t)
	s.SAdd("ints", "1", "2", "3")
	if got := encoding(t, s, "ints"); got != "intset" {
		t.Fatalf("encoding = %q, want intset", got)
	}
	// Non-canonical integers do not count as ints.
	s.SAdd("padded", "01")
	if got := encoding(t, s, "padded"); got != "listpack" {
		t.Fatalf("encoding = %q, want listpack", got)
	}
	s.SAdd("mixed", "1", "abc")
	if got := encoding(t, s, "mixed"); got != "listpack" {
		t.Fatalf("encoding = %q, want listpack", got)
	}
	s.SAdd("longval", strings.Repeat("x", 65))
	if got := encoding(t, s, "longval"); got != "hashtable" {
		t.Fatalf("encoding = %q, want hashtable", got)
	}
	for i := 0; i < 513; i++ {
		s.SAdd("bigints", fmt.Sprintf("%d", i))
	}
	if got := encoding(t, s, "bigints"); got != "hashtable" {
		t.Fatalf("encoding = %q, want hashtable", got)
	}
}

func TestZSetEncodingThreshold(t *testing.T) {
	s, _ := newTestStore(t)
	zadd(t, s, "z", MemberScore{"a", 1}, MemberScore{"b", 2})
	if got := encoding(t, s, "z"); got != "listpack" {
		t.Fatalf("encoding = %q, want listpack", got)
	}
	s.SetZSetListpackEntries(1)
	if got := encoding(t, s, "z"); got != "skiplist" {
		t.Fatalf("encoding after threshold change = %q, want skiplist", got)
	}
	s.SetZSetListpackEntries(DefaultZSetListpackEntries)
	zadd(t, s, "long", MemberScore{strings.Repeat("m", 65), 1})
	if got := encoding(t, s, "long"); got != "skiplist" {
		t.Fatalf("encoding = %q, want skiplist", got)
	}
}

func TestStreamEncoding(t *testing.T) {
	s, _ := newTestStore(t)
	xadd(t, s, "st", "1-0", FieldValue{"f", "v"})
	if got := encoding(t, s, "st"); got != "stream" {
		t.Fatalf("encoding = %q, want stream", got)
	}
}

func TestObjectEncodingMissingKey(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.ObjectEncoding("missing"); !errors.Is(err, domain.ErrNoSuchKey) {
		t.Fatalf("ObjectEncoding(missing) = %v, want ErrNoSuchKey", err)
	}
}

func TestIsCanonicalInt(t *testing.T) {
	cases := map[string]bool{
		"0":                    true,
		"7":                    true,
		"-7":                   true,
		"9223372036854775807":  true,
		"-9223372036854775808": true,
		"9223372036854775808":  false,
		"07":                   false,
		"+7":                   false,
		"-0":                   false,
		"":                     false,
		"1.5":                  false,
		" 1":                   false,
	}
	for v, want := range cases {
		if got := isCanonicalInt(v); got != want {
			t.Fatalf("isCanonicalInt(%q) = %v, want %v", v, got, want)
		}
	}
}
