// Package metric exposes keyspace statistics as Prometheus metrics.
package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alsatianco/peadb/internal/keyspace"
)

// Collector implements prometheus.Collector over a keyspace store. Every
// scrape snapshots the store's counters; nothing is cached between
// scrapes.
type Collector struct {
	store *keyspace.Store

	keys     *prometheus.Desc
	expiring *prometheus.Desc
	expired  *prometheus.Desc
	lookups  *prometheus.Desc
}

// NewCollector creates a collector for store.
func NewCollector(store *keyspace.Store) *Collector {
	return &Collector{
		store: store,
		keys: prometheus.NewDesc(
			"peadb_keyspace_keys",
			"Number of keys per database, including not yet reclaimed expired keys.",
			[]string{"db"}, nil,
		),
		expiring: prometheus.NewDesc(
			"peadb_keyspace_expiring_keys",
			"Number of keys per database carrying an expiration.",
			[]string{"db"}, nil,
		),
		expired: prometheus.NewDesc(
			"peadb_expired_keys_total",
			"Keys reclaimed by expiration, by path (lazy, active, collect).",
			[]string{"path"}, nil,
		),
		lookups: prometheus.NewDesc(
			"peadb_keyspace_lookups_total",
			"Key lookups by outcome (hit, miss).",
			[]string{"outcome"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expiring
	ch <- c.expired
	ch <- c.lookups
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.store.Stats()
	for i, db := range st.PerDB {
		// Empty databases are omitted to keep scrape output small.
		if db.Keys == 0 && db.Expiring == 0 {
			continue
		}
		label := strconv.Itoa(i)
		ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(db.Keys), label)
		ch <- prometheus.MustNewConstMetric(c.expiring, prometheus.GaugeValue, float64(db.Expiring), label)
	}
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(st.ExpiredLazy), "lazy")
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(st.ExpiredActive), "active")
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(st.ExpiredCollected), "collect")
	ch <- prometheus.MustNewConstMetric(c.lookups, prometheus.CounterValue, float64(st.Hits), "hit")
	ch <- prometheus.MustNewConstMetric(c.lookups, prometheus.CounterValue, float64(st.Misses), "miss")
}
