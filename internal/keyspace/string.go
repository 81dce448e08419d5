package keyspace

import (
	"math"
	"strconv"

	"github.com/alsatianco/peadb/internal/core/domain"
)

// maxStringBytes is the proto-max-bulk-len ceiling for string values.
const maxStringBytes = 512 * 1024 * 1024

// maxBitOffset is the highest addressable bit (2^32 - 1).
const maxBitOffset = 1<<32 - 1

// IncrBy adds delta to the integer value of key, creating it at 0 when
// absent. A non-integer value yields ErrNotInteger and an overflowing
// result yields ErrIntegerOverflow, both without mutating the key.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil {
		return 0, err
	}
	var cur int64
	if e != nil {
		cur, err = strconv.ParseInt(e.str, 10, 64)
		if err != nil {
			return 0, domain.ErrNotInteger
		}
	}
	next, err := addChecked(cur, delta)
	if err != nil {
		return 0, err
	}
	if e == nil {
		e = newEntry(TypeString)
		s.db()[key] = e
	}
	e.str = strconv.FormatInt(next, 10)
	return next, nil
}

// addChecked returns a+b or ErrIntegerOverflow when the sum does not fit
// in int64.
func addChecked(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, domain.ErrIntegerOverflow
	}
	return a + b, nil
}

// IncrByFloat adds delta to the float value of key. A non-float value or
// a NaN/Inf result yields ErrNotFloat without mutating the key.
func (s *Store) IncrByFloat(key string, delta float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil {
		return "", err
	}
	var cur float64
	if e != nil {
		cur, err = strconv.ParseFloat(e.str, 64)
		if err != nil {
			return "", domain.ErrNotFloat
		}
	}
	next := cur + delta
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return "", domain.New("ERR", "increment would produce NaN or Infinity")
	}
	if e == nil {
		e = newEntry(TypeString)
		s.db()[key] = e
	}
	e.str = formatFloat(next)
	return e.str, nil
}

// formatFloat renders a score or counter the way Redis replies with it:
// decimal notation, no exponent, no trailing fractional zeros. The
// shortest round-tripping form gives "10.6" rather than the raw float64
// artifact "10.599999999999999644...".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Append appends value to the string at key, creating it when absent,
// and returns the new length. The result is tagged raw for the encoding
// advisor regardless of content.
func (s *Store) Append(key, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil {
		return 0, err
	}
	if e == nil {
		e = newEntry(TypeString)
		s.db()[key] = e
	}
	if len(e.str)+len(value) > maxStringBytes {
		return 0, domain.ErrStringTooLong
	}
	e.str += value
	e.forceRaw = true
	return int64(len(e.str)), nil
}

// StrLen returns the length of the string at key, 0 when absent.
func (s *Store) StrLen(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.str)), nil
}

// SetRange overwrites the string at key starting at offset, zero-padding
// any gap, and returns the new length. An empty value never creates or
// grows the key.
func (s *Store) SetRange(key string, offset int64, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 {
		return 0, domain.New("ERR", "offset is out of range")
	}
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil {
		return 0, err
	}
	if value == "" {
		if e == nil {
			return 0, nil
		}
		return int64(len(e.str)), nil
	}
	end := offset + int64(len(value))
	if end > maxStringBytes {
		return 0, domain.ErrStringTooLong
	}
	if e == nil {
		e = newEntry(TypeString)
		s.db()[key] = e
	}
	buf := []byte(e.str)
	if int64(len(buf)) < end {
		buf = append(buf, make([]byte, end-int64(len(buf)))...)
	}
	copy(buf[offset:], value)
	e.str = string(buf)
	e.forceRaw = true
	return int64(len(e.str)), nil
}

// GetRange returns the substring [start, end] with Redis index rules:
// negative indices count from the end and the range is inclusive.
func (s *Store) GetRange(key string, start, end int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil || e == nil {
		return "", err
	}
	n := int64(len(e.str))
	if start < 0 {
		start = n + start
	}
	if end < 0 {
		end = n + end
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if n == 0 || start > end {
		return "", nil
	}
	return e.str[start : end+1], nil
}

// SetBit sets the bit at offset to bit (0 or 1), growing the string with
// zero bytes as needed, and returns the previous bit value.
func (s *Store) SetBit(key string, offset int64, bit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset > maxBitOffset {
		return 0, domain.ErrBitOffset
	}
	if bit != 0 && bit != 1 {
		return 0, domain.ErrBitValue
	}
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil {
		return 0, err
	}
	if e == nil {
		e = newEntry(TypeString)
		s.db()[key] = e
	}
	byteIdx := offset / 8
	mask := byte(1 << (7 - offset%8))
	buf := []byte(e.str)
	if int64(len(buf)) <= byteIdx {
		buf = append(buf, make([]byte, byteIdx+1-int64(len(buf)))...)
	}
	old := 0
	if buf[byteIdx]&mask != 0 {
		old = 1
	}
	if bit == 1 {
		buf[byteIdx] |= mask
	} else {
		buf[byteIdx] &^= mask
	}
	e.str = string(buf)
	e.forceRaw = true
	return old, nil
}

// GetBit returns the bit at offset, 0 for offsets past the string.
func (s *Store) GetBit(key string, offset int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset > maxBitOffset {
		return 0, domain.ErrBitOffset
	}
	e, err := s.typedLookup(s.db(), key, TypeString)
	if err != nil || e == nil {
		return 0, err
	}
	byteIdx := offset / 8
	if byteIdx >= int64(len(e.str)) {
		return 0, nil
	}
	if e.str[byteIdx]&(1<<(7-offset%8)) != 0 {
		return 1, nil
	}
	return 0, nil
}
