package keyspace

import "sort"

// SAdd adds members to the set at key, creating it when absent, and
// returns the number newly added.
func (s *Store) SAdd(key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedCreate(s.db(), key, TypeSet)
	if err != nil {
		return 0, err
	}
	var added int64
	for _, m := range members {
		if _, ok := e.set[m]; !ok {
			e.set[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

// SRem removes members from the set and returns how many existed. The
// key is deleted once its last member is gone.
func (s *Store) SRem(key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeSet)
	if err != nil || e == nil {
		return 0, err
	}
	var removed int64
	for _, m := range members {
		if _, ok := e.set[m]; ok {
			delete(e.set, m)
			removed++
		}
	}
	if len(e.set) == 0 {
		delete(db, key)
	}
	return removed, nil
}

// SIsMember reports whether member is in the set at key.
func (s *Store) SIsMember(key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeSet)
	if err != nil || e == nil {
		return false, err
	}
	_, ok := e.set[member]
	return ok, nil
}

// SCard returns the cardinality of the set at key.
func (s *Store) SCard(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeSet)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.set)), nil
}

// SMembers returns every member in ascending byte order.
func (s *Store) SMembers(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeSet)
	if err != nil || e == nil {
		return nil, err
	}
	return e.sortedSet(), nil
}

// setArgs resolves every source key to its live set, treating absent
// keys as empty. Callers hold s.mu.
func (s *Store) setArgs(keys []string) ([]map[string]struct{}, error) {
	db := s.db()
	out := make([]map[string]struct{}, len(keys))
	for i, key := range keys {
		e, err := s.typedLookup(db, key, TypeSet)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out[i] = e.set
		}
	}
	return out, nil
}

// SInter returns the intersection of the sets at keys, sorted ascending.
func (s *Store) SInter(keys ...string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sets, err := s.setArgs(keys)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 || sets[0] == nil {
		return nil, nil
	}
	out := make([]string, 0)
	for m := range sets[0] {
		in := true
		for _, other := range sets[1:] {
			if other == nil {
				return nil, nil
			}
			if _, ok := other[m]; !ok {
				in = false
				break
			}
		}
		if in {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SUnion returns the union of the sets at keys, sorted ascending.
func (s *Store) SUnion(keys ...string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sets, err := s.setArgs(keys)
	if err != nil {
		return nil, err
	}
	union := make(map[string]struct{})
	for _, set := range sets {
		for m := range set {
			union[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(union))
	for m := range union {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// SDiff returns the members of the first set absent from the rest,
// sorted ascending.
func (s *Store) SDiff(keys ...string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sets, err := s.setArgs(keys)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 || sets[0] == nil {
		return nil, nil
	}
	out := make([]string, 0)
	for m := range sets[0] {
		in := false
		for _, other := range sets[1:] {
			if _, ok := other[m]; ok {
				in = true
				break
			}
		}
		if !in {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
