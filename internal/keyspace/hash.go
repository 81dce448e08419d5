package keyspace

import (
	"strconv"

	"github.com/alsatianco/peadb/internal/core/domain"
)

// HSet stores field/value pairs in the hash at key, creating the hash
// when absent. Returns the number of fields that were newly added.
func (s *Store) HSet(key string, pairs ...FieldValue) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedCreate(s.db(), key, TypeHash)
	if err != nil {
		return 0, err
	}
	var added int64
	for _, p := range pairs {
		if _, ok := e.hash[p.Field]; !ok {
			added++
		}
		e.hash[p.Field] = p.Value
	}
	return added, nil
}

// HGet returns the value of field, ok false when the key or field is absent.
func (s *Store) HGet(key, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeHash)
	if err != nil || e == nil {
		return "", false, err
	}
	v, ok := e.hash[field]
	return v, ok, nil
}

// HDel removes fields from the hash and returns how many existed. The
// key itself is deleted once its last field is gone.
func (s *Store) HDel(key string, fields ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeHash)
	if err != nil || e == nil {
		return 0, err
	}
	var removed int64
	for _, f := range fields {
		if _, ok := e.hash[f]; ok {
			delete(e.hash, f)
			removed++
		}
	}
	if len(e.hash) == 0 {
		delete(db, key)
	}
	return removed, nil
}

// HExists reports whether field exists in the hash at key.
func (s *Store) HExists(key, field string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeHash)
	if err != nil || e == nil {
		return false, err
	}
	_, ok := e.hash[field]
	return ok, nil
}

// HLen returns the number of fields in the hash at key.
func (s *Store) HLen(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeHash)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.hash)), nil
}

// HGetAll returns every field/value pair in ascending field order.
func (s *Store) HGetAll(key string) ([]FieldValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeHash)
	if err != nil || e == nil {
		return nil, err
	}
	return e.sortedHash(), nil
}

// HIncrBy adds delta to the integer value of field, creating it at 0
// when absent. Shares the overflow rules of IncrBy.
func (s *Store) HIncrBy(key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedCreate(s.db(), key, TypeHash)
	if err != nil {
		return 0, err
	}
	var cur int64
	if raw, ok := e.hash[field]; ok {
		cur, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, domain.New("ERR", "hash value is not an integer")
		}
	}
	next, err := addChecked(cur, delta)
	if err != nil {
		return 0, err
	}
	e.hash[field] = strconv.FormatInt(next, 10)
	return next, nil
}
