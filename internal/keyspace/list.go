package keyspace

import "github.com/alsatianco/peadb/internal/core/domain"

// LPush prepends values to the list at key, first argument ending up
// deepest, and returns the new length.
func (s *Store) LPush(key string, values ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedCreate(s.db(), key, TypeList)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		e.list = append([]string{v}, e.list...)
	}
	return int64(len(e.list)), nil
}

// RPush appends values to the list at key and returns the new length.
func (s *Store) RPush(key string, values ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedCreate(s.db(), key, TypeList)
	if err != nil {
		return 0, err
	}
	e.list = append(e.list, values...)
	return int64(len(e.list)), nil
}

// LPop removes and returns up to count elements from the head. The key
// is deleted once the list drains.
func (s *Store) LPop(key string, count int) ([]string, error) {
	return s.pop(key, count, true)
}

// RPop removes and returns up to count elements from the tail.
func (s *Store) RPop(key string, count int) ([]string, error) {
	return s.pop(key, count, false)
}

func (s *Store) pop(key string, count int, head bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeList)
	if err != nil || e == nil {
		return nil, err
	}
	if count < 0 {
		count = 0
	}
	if count > len(e.list) {
		count = len(e.list)
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if head {
			out = append(out, e.list[0])
			e.list = e.list[1:]
		} else {
			out = append(out, e.list[len(e.list)-1])
			e.list = e.list[:len(e.list)-1]
		}
	}
	if len(e.list) == 0 {
		delete(db, key)
	}
	return out, nil
}

// LLen returns the length of the list at key.
func (s *Store) LLen(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeList)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.list)), nil
}

// clampRange resolves a Redis inclusive [start, stop] range against a
// container of length n. ok is false for an empty result.
func clampRange(start, stop int64, n int) (int, int, bool) {
	if start < 0 {
		start += int64(n)
	}
	if stop < 0 {
		stop += int64(n)
	}
	if start < 0 {
		start = 0
	}
	if stop >= int64(n) {
		stop = int64(n) - 1
	}
	if n == 0 || start > stop {
		return 0, 0, false
	}
	return int(start), int(stop), true
}

// LRange returns the elements in [start, stop], negative indices
// counting from the tail.
func (s *Store) LRange(key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeList)
	if err != nil || e == nil {
		return nil, err
	}
	lo, hi, ok := clampRange(start, stop, len(e.list))
	if !ok {
		return nil, nil
	}
	return append([]string(nil), e.list[lo:hi+1]...), nil
}

// LIndex returns the element at index, ok false when out of range.
func (s *Store) LIndex(key string, index int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeList)
	if err != nil || e == nil {
		return "", false, err
	}
	if index < 0 {
		index += int64(len(e.list))
	}
	if index < 0 || index >= int64(len(e.list)) {
		return "", false, nil
	}
	return e.list[index], true, nil
}

// LSet overwrites the element at index. A missing key yields
// ErrNoSuchKey, an out-of-range index an ERR reply.
func (s *Store) LSet(key string, index int64, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeList)
	if err != nil {
		return err
	}
	if e == nil {
		return domain.ErrNoSuchKey
	}
	if index < 0 {
		index += int64(len(e.list))
	}
	if index < 0 || index >= int64(len(e.list)) {
		return domain.New("ERR", "index out of range")
	}
	e.list[index] = value
	return nil
}

// LTrim keeps only the elements in [start, stop], deleting the key when
// the range is empty.
func (s *Store) LTrim(key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeList)
	if err != nil || e == nil {
		return err
	}
	lo, hi, ok := clampRange(start, stop, len(e.list))
	if !ok {
		delete(db, key)
		return nil
	}
	e.list = append([]string(nil), e.list[lo:hi+1]...)
	return nil
}

// LRem removes up to count occurrences of value: count > 0 scans from
// the head, count < 0 from the tail, count == 0 removes all. Returns
// the number removed.
func (s *Store) LRem(key string, count int64, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeList)
	if err != nil || e == nil {
		return 0, err
	}
	limit := count
	if limit < 0 {
		limit = -limit
	}
	var removed int64
	keep := make([]string, 0, len(e.list))
	if count >= 0 {
		for _, v := range e.list {
			if v == value && (count == 0 || removed < limit) {
				removed++
				continue
			}
			keep = append(keep, v)
		}
	} else {
		for i := len(e.list) - 1; i >= 0; i-- {
			v := e.list[i]
			if v == value && removed < limit {
				removed++
				continue
			}
			keep = append(keep, v)
		}
		for i, j := 0, len(keep)-1; i < j; i, j = i+1, j-1 {
			keep[i], keep[j] = keep[j], keep[i]
		}
	}
	e.list = keep
	if len(e.list) == 0 {
		delete(db, key)
	}
	return removed, nil
}
