package keyspace

import (
	"math"

	"github.com/alsatianco/peadb/internal/core/domain"
)

// ZAddFlags carries the ZADD condition flags. NX excludes XX, and GT/LT
// exclude NX and each other; the dispatcher rejects invalid combinations.
type ZAddFlags struct {
	NX   bool
	XX   bool
	GT   bool
	LT   bool
	Incr bool
}

// ZAddResult reports a ZADD outcome. With Incr, Score holds the member's
// new score and Skipped reports that a condition suppressed the update.
type ZAddResult struct {
	Added   int64
	Changed int64
	Score   float64
	Skipped bool
}

// ZAdd inserts or updates members of the sorted set at key.
//
// Conditions compose the way Redis applies them: NX/XX gate on presence
// first, then for an existing member GT/LT compare the candidate score
// (the increment result under Incr) against the current one and keep the
// greater or lesser. Incr restricts the call to one member.
func (s *Store) ZAdd(key string, flags ZAddFlags, members ...MemberScore) (ZAddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res ZAddResult
	if flags.Incr && len(members) != 1 {
		return res, domain.New("ERR", "INCR option supports a single increment-element pair")
	}
	for _, m := range members {
		if math.IsNaN(m.Score) {
			return res, domain.ErrNotFloat
		}
	}
	e, err := s.typedCreate(s.db(), key, TypeZSet)
	if err != nil {
		return res, err
	}
	for _, m := range members {
		cur, exists := e.zset[m.Member]
		if (flags.NX && exists) || (flags.XX && !exists) {
			res.Skipped = true
			continue
		}
		candidate := m.Score
		if flags.Incr && exists {
			candidate = cur + m.Score
			if math.IsNaN(candidate) {
				s.dropIfEmptyZSet(key, e)
				return ZAddResult{}, domain.New("ERR", "resulting score is not a number (NaN)")
			}
		}
		if exists && ((flags.GT && candidate <= cur) || (flags.LT && candidate >= cur)) {
			res.Skipped = true
			res.Score = cur
			continue
		}
		e.zset[m.Member] = candidate
		res.Score = candidate
		if !exists {
			res.Added++
		} else if candidate != cur {
			res.Changed++
		}
	}
	s.dropIfEmptyZSet(key, e)
	return res, nil
}

// dropIfEmptyZSet removes key when a conditional ZADD created the entry
// but added nothing. Callers hold s.mu.
func (s *Store) dropIfEmptyZSet(key string, e *Entry) {
	if len(e.zset) == 0 {
		delete(s.db(), key)
	}
}

// ZCard returns the cardinality of the sorted set at key.
func (s *Store) ZCard(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeZSet)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.zset)), nil
}

// ZScore returns the score of member, ok false when absent.
func (s *Store) ZScore(key, member string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeZSet)
	if err != nil || e == nil {
		return 0, false, err
	}
	score, ok := e.zset[member]
	return score, ok, nil
}

// ZRem removes members and returns how many existed. The key is deleted
// once its last member is gone.
func (s *Store) ZRem(key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeZSet)
	if err != nil || e == nil {
		return 0, err
	}
	var removed int64
	for _, m := range members {
		if _, ok := e.zset[m]; ok {
			delete(e.zset, m)
			removed++
		}
	}
	if len(e.zset) == 0 {
		delete(db, key)
	}
	return removed, nil
}

// ZRank returns the position of member in the total order (ascending
// score, member bytes breaking ties), ok false when absent.
func (s *Store) ZRank(key, member string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeZSet)
	if err != nil || e == nil {
		return 0, false, err
	}
	if _, ok := e.zset[member]; !ok {
		return 0, false, nil
	}
	for i, ms := range e.sortedZSet() {
		if ms.Member == member {
			return int64(i), true, nil
		}
	}
	return 0, false, nil
}

// ZRange returns the members in rank range [start, stop] of the total
// order, reversed when rev is set. Negative indices count from the end.
func (s *Store) ZRange(key string, start, stop int64, rev bool) ([]MemberScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeZSet)
	if err != nil || e == nil {
		return nil, err
	}
	ordered := e.sortedZSet()
	if rev {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}
	lo, hi, ok := clampRange(start, stop, len(ordered))
	if !ok {
		return nil, nil
	}
	return ordered[lo : hi+1], nil
}

// ZPop removes and returns up to count members from the low end of the
// total order, or from the high end when max is set.
func (s *Store) ZPop(key string, count int, max bool) ([]MemberScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeZSet)
	if err != nil || e == nil {
		return nil, err
	}
	if count < 0 {
		count = 0
	}
	ordered := e.sortedZSet()
	if max {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}
	if count > len(ordered) {
		count = len(ordered)
	}
	out := ordered[:count]
	for _, ms := range out {
		delete(e.zset, ms.Member)
	}
	if len(e.zset) == 0 {
		delete(db, key)
	}
	return out, nil
}
