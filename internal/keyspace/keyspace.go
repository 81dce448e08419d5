// Package keyspace implements the in-memory multi-type keyspace engine:
// sixteen logical databases holding string, hash, list, set, sorted-set
// and stream entries with Redis-exact semantics, deterministic expiration,
// cursor-based scanning, encoding classification and command export.
//
// The engine is synchronous. Every exported operation runs under one
// store-wide mutex for its full duration, which is exactly the
// single-command atomicity contract a multi-threaded host must preserve
// for cross-key operations such as RENAME, MOVE and SWAPDB.
package keyspace

import (
	"log/slog"
	"math/rand"
	"sort"
	"sync"

	"github.com/alsatianco/peadb/internal/core/clock"
	"github.com/alsatianco/peadb/internal/core/domain"
)

// NumDatabases is the fixed number of logical databases.
const NumDatabases = 16

// DefaultZSetListpackEntries is the default sorted-set listpack threshold
// for the encoding advisor (zset-max-listpack-entries).
const DefaultZSetListpackEntries = 128

type database map[string]*Entry

// Store is the keyspace engine. Construct with New; the zero value is
// not usable.
type Store struct {
	mu sync.Mutex

	clock  *clock.Clock
	logger *slog.Logger

	dbs     [NumDatabases]database
	current int

	zsetListpackEntries int

	stats statCounters
}

type statCounters struct {
	expiredLazy      uint64
	expiredActive    uint64
	expiredCollected uint64
	hits             uint64
	misses           uint64
}

// Option configures the Store.
type Option func(*Store)

// WithClock sets the time source. Tests freeze it for deterministic TTLs.
func WithClock(c *clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithZSetListpackEntries sets the sorted-set listpack threshold used by
// the encoding advisor. Negative disables the listpack classification.
func WithZSetListpackEntries(n int) Option {
	return func(s *Store) {
		s.zsetListpackEntries = n
	}
}

// New creates an empty keyspace.
func New(opts ...Option) *Store {
	s := &Store{
		clock:               clock.New(),
		logger:              slog.Default(),
		zsetListpackEntries: DefaultZSetListpackEntries,
	}
	for i := range s.dbs {
		s.dbs[i] = make(database)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clock returns the store's time source (debug/test control surface).
func (s *Store) Clock() *clock.Clock {
	return s.clock
}

// SetZSetListpackEntries adjusts the encoding threshold at runtime
// (config hot reload, CONFIG SET).
func (s *Store) SetZSetListpackEntries(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zsetListpackEntries = n
}

// Select switches the current database.
func (s *Store) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= NumDatabases {
		return domain.ErrInvalidDBIndex
	}
	s.current = index
	return nil
}

// CurrentDB returns the index of the current database.
func (s *Store) CurrentDB() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// db returns the current database. Callers hold s.mu.
func (s *Store) db() database {
	return s.dbs[s.current]
}

// expireIfNeeded lazily deletes key from db when its TTL has passed.
// Reports whether a deletion happened. Callers hold s.mu.
func (s *Store) expireIfNeeded(db database, key string) bool {
	e, ok := db[key]
	if !ok || e.expireAt == 0 || e.expireAt > s.clock.NowMS() {
		return false
	}
	delete(db, key)
	s.stats.expiredLazy++
	return true
}

// lookup fetches a live entry, applying the lazy expiration check first.
// Callers hold s.mu.
func (s *Store) lookup(db database, key string) *Entry {
	s.expireIfNeeded(db, key)
	e, ok := db[key]
	if !ok {
		s.stats.misses++
		return nil
	}
	s.stats.hits++
	return e
}

// typedLookup fetches a live entry and checks its type. A missing key
// yields (nil, nil); a type mismatch yields ErrWrongType. Callers hold s.mu.
func (s *Store) typedLookup(db database, key string, typ ValueType) (*Entry, error) {
	e := s.lookup(db, key)
	if e == nil {
		return nil, nil
	}
	if e.typ != typ {
		return nil, domain.ErrWrongType
	}
	return e, nil
}

// typedCreate fetches a live entry of the given type, creating it when
// the key is absent. Callers hold s.mu.
func (s *Store) typedCreate(db database, key string, typ ValueType) (*Entry, error) {
	e := s.lookup(db, key)
	if e == nil {
		e = newEntry(typ)
		db[key] = e
		return e, nil
	}
	if e.typ != typ {
		return nil, domain.ErrWrongType
	}
	return e, nil
}

// SetOptions carries the SET command flags. NX and XX are mutually
// exclusive; the dispatcher rejects that combination before calling in.
type SetOptions struct {
	NX       bool
	XX       bool
	KeepTTL  bool
	ExpireAt int64 // epoch ms; 0 = no expiration
}

// Set stores a string value. Reports false when an NX/XX condition fails.
// Overwriting an entry of another type clears the old payload entirely.
func (s *Store) Set(key, value string, opts SetOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	s.expireIfNeeded(db, key)
	e, exists := db[key]
	if opts.NX && exists {
		return false
	}
	if opts.XX && !exists {
		return false
	}

	if exists {
		prevTTL := e.expireAt
		if e.typ != TypeString {
			e.resetTo(TypeString)
		}
		e.str = value
		e.forceRaw = false
		if opts.KeepTTL {
			e.expireAt = prevTTL
		} else {
			e.expireAt = opts.ExpireAt
		}
		return true
	}

	e = newEntry(TypeString)
	e.str = value
	e.expireAt = opts.ExpireAt
	db[key] = e
	return true
}

// Get returns the string value of key. ok is false when the key is absent
// (or expired); a non-string key yields ErrWrongType.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil || e == nil {
		return "", false, err
	}
	return e.str, true, nil
}

// GetDel returns the string value of key and deletes it.
func (s *Store) GetDel(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeString)
	if err != nil || e == nil {
		return "", false, err
	}
	delete(db, key)
	return e.str, true, nil
}

// GetSet stores value at key and returns the previous string value. The
// old TTL is discarded. A key of another type yields ErrWrongType.
func (s *Store) GetSet(key, value string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeString)
	if err != nil {
		return "", false, err
	}
	if e == nil {
		e = newEntry(TypeString)
		e.str = value
		db[key] = e
		return "", false, nil
	}
	old := e.str
	e.str = value
	e.forceRaw = false
	e.expireAt = 0
	return old, true, nil
}

// GetEx returns the string value of key, optionally rewriting its TTL:
// persist clears it, otherwise a non-zero expireAt replaces it.
func (s *Store) GetEx(key string, expireAt int64, persist bool) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil || e == nil {
		return "", false, err
	}
	if persist {
		e.expireAt = 0
	} else if expireAt != 0 {
		e.expireAt = expireAt
	}
	return e.str, true, nil
}

// Del deletes keys and returns how many existed.
func (s *Store) Del(keys ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	var n int64
	for _, key := range keys {
		s.expireIfNeeded(db, key)
		if _, ok := db[key]; ok {
			delete(db, key)
			n++
		}
	}
	return n
}

// Exists counts how many of the given keys exist. Repeated keys count
// repeatedly, as in Redis.
func (s *Store) Exists(keys ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	var n int64
	for _, key := range keys {
		s.expireIfNeeded(db, key)
		if _, ok := db[key]; ok {
			n++
		}
	}
	return n
}

// TypeOf returns the TYPE name for key, or "none".
func (s *Store) TypeOf(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(s.db(), key)
	if e == nil {
		return "none"
	}
	return e.typ.String()
}

// Rename moves src to dst, overwriting dst. With nxOnly it fails without
// mutating src when dst exists. ErrNoSuchKey signals a missing source.
func (s *Store) Rename(src, dst string, nxOnly bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	s.expireIfNeeded(db, src)
	s.expireIfNeeded(db, dst)
	e, ok := db[src]
	if !ok {
		return false, domain.ErrNoSuchKey
	}
	if nxOnly {
		if _, exists := db[dst]; exists {
			return false, nil
		}
	}
	db[dst] = e
	delete(db, src)
	return true, nil
}

// Move transfers key from the current database to dstDB. Reports false
// when the source is absent, the destination key exists, or dstDB is the
// current database or out of range.
func (s *Store) Move(key string, dstDB int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dstDB < 0 || dstDB >= NumDatabases || dstDB == s.current {
		return false
	}
	src := s.db()
	s.expireIfNeeded(src, key)
	e, ok := src[key]
	if !ok {
		return false
	}
	dst := s.dbs[dstDB]
	s.expireIfNeeded(dst, key)
	if _, exists := dst[key]; exists {
		return false
	}
	dst[key] = e
	delete(src, key)
	return true
}

// Copy duplicates src to dst in dstDB (deep copy, TTL included). Without
// replace it reports false when dst already exists.
func (s *Store) Copy(src, dst string, dstDB int, replace bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dstDB < 0 || dstDB >= NumDatabases {
		return false
	}
	srcDB := s.db()
	s.expireIfNeeded(srcDB, src)
	e, ok := srcDB[src]
	if !ok {
		return false
	}
	dstDb := s.dbs[dstDB]
	s.expireIfNeeded(dstDb, dst)
	if !replace {
		if _, exists := dstDb[dst]; exists {
			return false
		}
	}
	dstDb[dst] = e.clone()
	return true
}

// SwapDB exchanges the contents of two databases.
func (s *Store) SwapDB(a, b int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a < 0 || a >= NumDatabases || b < 0 || b >= NumDatabases {
		return domain.ErrInvalidDBIndex
	}
	s.dbs[a], s.dbs[b] = s.dbs[b], s.dbs[a]
	return nil
}

// DBSize returns the number of keys in the current database, counting
// keys whose TTL has passed but which have not been reclaimed yet.
func (s *Store) DBSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.db())
}

// FlushDB removes every key of the current database.
func (s *Store) FlushDB() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dbs[s.current] = make(database)
}

// FlushAll removes every key of every database.
func (s *Store) FlushAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.dbs {
		s.dbs[i] = make(database)
	}
}

// Keys returns the keys of the current database matching pattern, in
// ascending order. Expired entries are skipped, not deleted: callers
// that must observe expirations run CollectExpired first, so no deletion
// happens silently inside a traversal.
func (s *Store) Keys(pattern string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.NowMS()
	out := make([]string, 0)
	for key, e := range s.db() {
		if e.expireAt != 0 && e.expireAt <= now {
			continue
		}
		if matchPattern(pattern, key) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// RandomKey returns a uniformly random live key of the current database.
// Like Keys, it skips expired entries without deleting them.
func (s *Store) RandomKey() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.NowMS()
	live := make([]string, 0, len(s.db()))
	for key, e := range s.db() {
		if e.expireAt != 0 && e.expireAt <= now {
			continue
		}
		live = append(live, key)
	}
	if len(live) == 0 {
		return "", false
	}
	return live[rand.Intn(len(live))], true
}

// Stats is a point-in-time view of the keyspace for metrics and INFO.
type Stats struct {
	PerDB            [NumDatabases]DBStats
	ExpiredLazy      uint64
	ExpiredActive    uint64
	ExpiredCollected uint64
	Hits             uint64
	Misses           uint64
}

// DBStats counts keys of one database.
type DBStats struct {
	Keys     int
	Expiring int
}

// Stats snapshots keyspace counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		ExpiredLazy:      s.stats.expiredLazy,
		ExpiredActive:    s.stats.expiredActive,
		ExpiredCollected: s.stats.expiredCollected,
		Hits:             s.stats.hits,
		Misses:           s.stats.misses,
	}
	for i, db := range s.dbs {
		st := DBStats{Keys: len(db)}
		for _, e := range db {
			if e.expireAt != 0 {
				st.Expiring++
			}
		}
		out.PerDB[i] = st
	}
	return out
}
