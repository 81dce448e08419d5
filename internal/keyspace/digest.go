package keyspace

import (
	"encoding/binary"
	"fmt"
	"hash"
	"sort"
	"strconv"

	"github.com/spaolacci/murmur3"

	"github.com/alsatianco/peadb/internal/core/domain"
)

// DebugDigest computes a 128-bit digest of the current database:
// every live key with its type, expiration and canonical payload order.
// Two databases holding the same logical contents produce the same
// digest regardless of insertion history.
func (s *Store) DebugDigest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := murmur3.New128()
	now := s.clock.NowMS()
	db := s.db()
	keys := make([]string, 0, len(db))
	for key, e := range db {
		if e.expireAt != 0 && e.expireAt <= now {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		hashEntry(h, key, db[key])
	}
	return formatDigest(h)
}

// DebugDigestKey computes the digest of a single live key. A missing key
// yields ErrNoSuchKey.
func (s *Store) DebugDigestKey(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(s.db(), key)
	if e == nil {
		return "", domain.ErrNoSuchKey
	}
	h := murmur3.New128()
	hashEntry(h, key, e)
	return formatDigest(h), nil
}

// hashEntry feeds one key and its value into h in canonical order, each
// string length-prefixed so field boundaries cannot collide.
func hashEntry(h hash.Hash, key string, e *Entry) {
	var buf [8]byte
	writeStr := func(v string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(v)))
		h.Write(buf[:])
		h.Write([]byte(v))
	}
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeStr(key)
	writeInt(int64(e.typ))
	writeInt(e.expireAt)
	switch e.typ {
	case TypeString:
		writeStr(e.str)
	case TypeHash:
		for _, fv := range e.sortedHash() {
			writeStr(fv.Field)
			writeStr(fv.Value)
		}
	case TypeList:
		for _, v := range e.list {
			writeStr(v)
		}
	case TypeSet:
		for _, m := range e.sortedSet() {
			writeStr(m)
		}
	case TypeZSet:
		for _, ms := range e.sortedZSet() {
			writeStr(ms.Member)
			writeStr(strconv.FormatFloat(ms.Score, 'g', 17, 64))
		}
	case TypeStream:
		for _, se := range e.stream {
			writeStr(se.ID)
			for _, fv := range se.Fields {
				writeStr(fv.Field)
				writeStr(fv.Value)
			}
		}
	}
}

func formatDigest(h hash.Hash) string {
	sum := h.Sum(nil)
	return fmt.Sprintf("%032x", sum)
}
