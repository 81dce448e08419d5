package keyspace

import "sort"

// PTTL returns the remaining time to live of key in milliseconds.
// -2 means the key does not exist, -1 means it has no expiration.
func (s *Store) PTTL(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(s.db(), key)
	if e == nil {
		return -2
	}
	if e.expireAt == 0 {
		return -1
	}
	return e.expireAt - s.clock.NowMS()
}

// TTL returns the remaining time to live of key in seconds, rounding a
// positive remainder up so a key with 1ms left still reports 1 second.
func (s *Store) TTL(key string) int64 {
	p := s.PTTL(key)
	if p < 0 {
		return p
	}
	return (p + 999) / 1000
}

// PExpireTime returns the absolute expiration timestamp of key in epoch
// milliseconds, -2 for a missing key, -1 for no expiration.
func (s *Store) PExpireTime(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(s.db(), key)
	if e == nil {
		return -2
	}
	if e.expireAt == 0 {
		return -1
	}
	return e.expireAt
}

// ExpireTime returns the absolute expiration timestamp of key in epoch
// seconds, rounding up like TTL.
func (s *Store) ExpireTime(key string) int64 {
	p := s.PExpireTime(key)
	if p < 0 {
		return p
	}
	return (p + 999) / 1000
}

// ExpireAt sets the absolute expiration of key to atMS (epoch ms).
// A timestamp at or before now deletes the key immediately. Reports
// false when the key does not exist.
func (s *Store) ExpireAt(key string, atMS int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e := s.lookup(db, key)
	if e == nil {
		return false
	}
	if atMS <= s.clock.NowMS() {
		delete(db, key)
		return true
	}
	e.expireAt = atMS
	return true
}

// Persist removes the expiration of key. Reports true only when the key
// existed with an expiration to remove.
func (s *Store) Persist(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(s.db(), key)
	if e == nil || e.expireAt == 0 {
		return false
	}
	e.expireAt = 0
	return true
}

// CollectExpired deletes every expired key of the current database and
// returns the deleted keys in ascending order. Traversal commands that
// must not delete silently (KEYS, SCAN, export) pair with this so every
// reclamation is observable by the caller.
func (s *Store) CollectExpired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	now := s.clock.NowMS()
	var dead []string
	for key, e := range db {
		if e.expireAt != 0 && e.expireAt <= now {
			dead = append(dead, key)
		}
	}
	for _, key := range dead {
		delete(db, key)
	}
	s.stats.expiredCollected += uint64(len(dead))
	sort.Strings(dead)
	return dead
}

// ActiveExpire scans up to budget expiring keys across all databases and
// deletes the expired ones. Returns the number deleted. budget <= 0
// means no limit. The background sweeper drives this on a timer.
func (s *Store) ActiveExpire(budget int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.NowMS()
	scanned, deleted := 0, 0
	for i := range s.dbs {
		db := s.dbs[i]
		for key, e := range db {
			if e.expireAt == 0 {
				continue
			}
			if budget > 0 && scanned >= budget {
				s.stats.expiredActive += uint64(deleted)
				return deleted
			}
			scanned++
			if e.expireAt <= now {
				delete(db, key)
				deleted++
			}
		}
	}
	s.stats.expiredActive += uint64(deleted)
	return deleted
}
