package keyspace

import "sort"

// defaultScanCount is the per-call batch size when the caller gives none.
const defaultScanCount = 10

// ScanOptions filters a keyspace scan. Empty Match means every key,
// empty Type means every type.
type ScanOptions struct {
	Match string
	Type  string
}

// Scan walks the current database in ascending key order. cursor 0
// starts a scan; the returned cursor resumes it and is 0 once the walk
// is complete. Keys inserted or deleted mid-scan may or may not be seen,
// but every key live for the whole scan is returned exactly once.
// Expired entries are skipped without deleting them, like Keys.
func (s *Store) Scan(cursor uint64, count int, opts ScanOptions) ([]string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count <= 0 {
		count = defaultScanCount
	}
	now := s.clock.NowMS()
	db := s.db()
	live := make([]string, 0, len(db))
	for key, e := range db {
		if e.expireAt != 0 && e.expireAt <= now {
			continue
		}
		live = append(live, key)
	}
	sort.Strings(live)

	out := make([]string, 0, count)
	pos := int(cursor)
	for ; pos < len(live) && len(out) < count; pos++ {
		key := live[pos]
		if opts.Match != "" && !matchPattern(opts.Match, key) {
			continue
		}
		if opts.Type != "" && db[key].typ.String() != opts.Type {
			continue
		}
		out = append(out, key)
	}
	if pos >= len(live) {
		return out, 0
	}
	return out, uint64(pos)
}

// scanSlice pages a sorted item slice with the index-cursor contract.
func scanSlice[T any](items []T, cursor uint64, count int, match func(T) bool) ([]T, uint64) {
	if count <= 0 {
		count = defaultScanCount
	}
	out := make([]T, 0, count)
	pos := int(cursor)
	for ; pos < len(items) && len(out) < count; pos++ {
		if match(items[pos]) {
			out = append(out, items[pos])
		}
	}
	if pos >= len(items) {
		return out, 0
	}
	return out, uint64(pos)
}

// HScan walks the hash at key in ascending field order.
func (s *Store) HScan(key string, cursor uint64, count int, match string) ([]FieldValue, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeHash)
	if err != nil || e == nil {
		return nil, 0, err
	}
	out, next := scanSlice(e.sortedHash(), cursor, count, func(fv FieldValue) bool {
		return match == "" || matchPattern(match, fv.Field)
	})
	return out, next, nil
}

// SScan walks the set at key in ascending member order.
func (s *Store) SScan(key string, cursor uint64, count int, match string) ([]string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeSet)
	if err != nil || e == nil {
		return nil, 0, err
	}
	out, next := scanSlice(e.sortedSet(), cursor, count, func(m string) bool {
		return match == "" || matchPattern(match, m)
	})
	return out, next, nil
}

// ZScan walks the sorted set at key in its total order.
func (s *Store) ZScan(key string, cursor uint64, count int, match string) ([]MemberScore, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeZSet)
	if err != nil || e == nil {
		return nil, 0, err
	}
	out, next := scanSlice(e.sortedZSet(), cursor, count, func(ms MemberScore) bool {
		return match == "" || matchPattern(match, ms.Member)
	})
	return out, next, nil
}

// matchPattern implements the Redis glob dialect: * spans any run, ?
// matches one byte, [a-z] and [^a-z] match byte classes, and backslash
// escapes the next byte.
func matchPattern(pattern, str string) bool {
	p, s := 0, 0
	starP, starS := -1, 0
	for s < len(str) {
		if p < len(pattern) && matchSingle(pattern, &p, str[s]) {
			s++
			continue
		}
		if p < len(pattern) && pattern[p] == '*' {
			starP, starS = p, s
			p++
			continue
		}
		if starP >= 0 {
			p = starP + 1
			starS++
			s = starS
			continue
		}
		return false
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchSingle tries to match one non-* pattern element against byte c,
// advancing *p past the element on success.
func matchSingle(pattern string, p *int, c byte) bool {
	switch pattern[*p] {
	case '*':
		return false
	case '?':
		*p++
		return true
	case '[':
		return matchClass(pattern, p, c)
	case '\\':
		if *p+1 < len(pattern) {
			if pattern[*p+1] == c {
				*p += 2
				return true
			}
			return false
		}
		if c == '\\' {
			*p++
			return true
		}
		return false
	default:
		if pattern[*p] == c {
			*p++
			return true
		}
		return false
	}
}

// matchClass matches a [...] byte class starting at *p, advancing *p
// past the closing bracket on success. An unterminated class matches
// its bytes literally from '[' onward, which mirrors Redis.
func matchClass(pattern string, p *int, c byte) bool {
	i := *p + 1
	negate := false
	if i < len(pattern) && pattern[i] == '^' {
		negate = true
		i++
	}
	matched := false
	closed := false
	for i < len(pattern) {
		if pattern[i] == ']' {
			closed = true
			i++
			break
		}
		if pattern[i] == '\\' && i+1 < len(pattern) {
			if pattern[i+1] == c {
				matched = true
			}
			i += 2
			continue
		}
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			lo, hi := pattern[i], pattern[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if lo <= c && c <= hi {
				matched = true
			}
			i += 3
			continue
		}
		if pattern[i] == c {
			matched = true
		}
		i++
	}
	if !closed {
		// Treat the bare '[' as a literal.
		if pattern[*p] == c {
			*p++
			return true
		}
		return false
	}
	if negate {
		matched = !matched
	}
	if matched {
		*p = i
		return true
	}
	return false
}
