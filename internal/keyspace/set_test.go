package keyspace

import (
	"errors"
	"reflect"
	"testing"

	"github.com/alsatianco/peadb/internal/core/domain"
)

func TestSAddSCard(t *testing.T) {
	s, _ := newTestStore(t)
	added, err := s.SAdd("s", "a", "b", "a")
	if err != nil || added != 2 {
		t.Fatalf("SAdd = (%d, %v), want 2", added, err)
	}
	if n, _ := s.SCard("s"); n != 2 {
		t.Fatalf("SCard = %d, want 2", n)
	}
	if ok, _ := s.SIsMember("s", "a"); !ok {
		t.Fatal("SIsMember(a) = false")
	}
	if ok, _ := s.SIsMember("s", "z"); ok {
		t.Fatal("SIsMember(z) = true")
	}
}

func TestSRemDeletesEmptyKey(t *testing.T) {
	s, _ := newTestStore(t)
	s.SAdd("s", "a", "b")
	removed, err := s.SRem("s", "a", "missing", "b")
	if err != nil || removed != 2 {
		t.Fatalf("SRem = (%d, %v), want 2", removed, err)
	}
	if s.Exists("s") != 0 {
		t.Fatal("empty set key not deleted")
	}
}

func TestSMembersSorted(t *testing.T) {
	s, _ := newTestStore(t)
	s.SAdd("s", "banana", "apple", "cherry")
	got, err := s.SMembers("s")
	if err != nil || !reflect.DeepEqual(got, []string{"apple", "banana", "cherry"}) {
		t.Fatalf("SMembers = (%v, %v)", got, err)
	}
}

func TestSInter(t *testing.T) {
	s, _ := newTestStore(t)
	s.SAdd("a", "1", "2", "3")
	s.SAdd("b", "2", "3", "4")
	got, err := s.SInter("a", "b")
	if err != nil || !reflect.DeepEqual(got, []string{"2", "3"}) {
		t.Fatalf("SInter = (%v, %v)", got, err)
	}
	// Intersection with a missing key is empty.
	got, err = s.SInter("a", "missing")
	if err != nil || len(got) != 0 {
		t.Fatalf("SInter with missing = (%v, %v)", got, err)
	}
}

func TestSUnion(t *testing.T) {
	s, _ := newTestStore(t)
	s.SAdd("a", "1", "2")
	s.SAdd("b", "2", "3")
	got, err := s.SUnion("a", "b", "missing")
	if err != nil || !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Fatalf("SUnion = (%v, %v)", got, err)
	}
}

func TestSDiff(t *testing.T) {
	s, _ := newTestStore(t)
	s.SAdd("a", "1", "2", "3")
	s.SAdd("b", "2")
	got, err := s.SDiff("a", "b")
	if err != nil || !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Fatalf("SDiff = (%v, %v)", got, err)
	}
}

func TestSetWrongType(t *testing.T) {
	s, _ := newTestStore(t)
	mustSet(t, s, "k", "v")
	if _, err := s.SAdd("k", "m"); !errors.Is(err, domain.ErrWrongType) {
		t.Fatalf("SAdd on string = %v, want ErrWrongType", err)
	}
	if _, err := s.SUnion("k"); !errors.Is(err, domain.ErrWrongType) {
		t.Fatalf("SUnion over string = %v, want ErrWrongType", err)
	}
}
