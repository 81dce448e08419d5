package keyspace

import (
	"strconv"

	"github.com/alsatianco/peadb/internal/core/domain"
)

// Encoding thresholds, matching the redis.conf defaults the advisor
// emulates. The sorted-set threshold is the one knob kept configurable.
const (
	embstrMaxLen         = 39
	listpackMaxEntries   = 128
	listpackMaxValueLen  = 64
	intsetMaxEntries     = 512
	hashListpackEntries  = 128
	hashListpackValueLen = 64
)

// ObjectEncoding reports the OBJECT ENCODING classification for key.
// A missing key yields ErrNoSuchKey.
func (s *Store) ObjectEncoding(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(s.db(), key)
	if e == nil {
		return "", domain.ErrNoSuchKey
	}
	switch e.typ {
	case TypeString:
		return stringEncoding(e), nil
	case TypeHash:
		return hashEncoding(e), nil
	case TypeList:
		return listEncoding(e), nil
	case TypeSet:
		return setEncoding(e), nil
	case TypeZSet:
		return s.zsetEncoding(e), nil
	case TypeStream:
		return "stream", nil
	}
	return "", domain.ErrNoSuchKey
}

// stringEncoding picks int for canonical 64-bit integers, embstr for
// short strings, raw otherwise. APPEND, SETRANGE and SETBIT force raw
// permanently regardless of the resulting bytes.
func stringEncoding(e *Entry) string {
	if e.forceRaw {
		return "raw"
	}
	if isCanonicalInt(e.str) {
		return "int"
	}
	if len(e.str) <= embstrMaxLen {
		return "embstr"
	}
	return "raw"
}

func hashEncoding(e *Entry) string {
	if len(e.hash) > hashListpackEntries {
		return "hashtable"
	}
	for f, v := range e.hash {
		if len(f) > hashListpackValueLen || len(v) > hashListpackValueLen {
			return "hashtable"
		}
	}
	return "listpack"
}

func listEncoding(e *Entry) string {
	if len(e.list) > listpackMaxEntries {
		return "quicklist"
	}
	for _, v := range e.list {
		if len(v) > listpackMaxValueLen {
			return "quicklist"
		}
	}
	return "listpack"
}

func setEncoding(e *Entry) string {
	allInts := true
	for m := range e.set {
		if !isCanonicalInt(m) {
			allInts = false
			break
		}
	}
	if allInts && len(e.set) <= intsetMaxEntries {
		return "intset"
	}
	if len(e.set) > listpackMaxEntries {
		return "hashtable"
	}
	for m := range e.set {
		if len(m) > listpackMaxValueLen {
			return "hashtable"
		}
	}
	return "listpack"
}

func (s *Store) zsetEncoding(e *Entry) string {
	if s.zsetListpackEntries < 0 || len(e.zset) > s.zsetListpackEntries {
		return "skiplist"
	}
	for m := range e.zset {
		if len(m) > listpackMaxValueLen {
			return "skiplist"
		}
	}
	return "listpack"
}

// isCanonicalInt reports whether v is the canonical decimal rendering of
// an int64: no leading zeros, no plus sign, no minus zero. Only those
// strings round-trip through FormatInt unchanged.
func isCanonicalInt(v string) bool {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false
	}
	return strconv.FormatInt(n, 10) == v
}
