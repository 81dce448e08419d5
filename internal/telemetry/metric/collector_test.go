package metric

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/alsatianco/peadb/internal/core/clock"
	"github.com/alsatianco/peadb/internal/keyspace"
)

func TestCollectorRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(keyspace.New())); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestCollectorValues(t *testing.T) {
	c := clock.New()
	c.FreezeAt(1_000_000)
	store := keyspace.New(keyspace.WithClock(c))
	store.Set("a", "1", keyspace.SetOptions{})
	store.Set("b", "2", keyspace.SetOptions{ExpireAt: c.NowMS() + 10})
	c.Advance(20 * time.Millisecond)
	store.Get("b") // lazy expiration
	store.Get("a")

	expected := `
# HELP peadb_expired_keys_total Keys reclaimed by expiration, by path (lazy, active, collect).
# TYPE peadb_expired_keys_total counter
peadb_expired_keys_total{path="active"} 0
peadb_expired_keys_total{path="collect"} 0
peadb_expired_keys_total{path="lazy"} 1
# HELP peadb_keyspace_keys Number of keys per database, including not yet reclaimed expired keys.
# TYPE peadb_keyspace_keys gauge
peadb_keyspace_keys{db="0"} 1
`
	err := testutil.CollectAndCompare(NewCollector(store), strings.NewReader(expected),
		"peadb_expired_keys_total", "peadb_keyspace_keys")
	if err != nil {
		t.Fatalf("CollectAndCompare: %v", err)
	}
}
