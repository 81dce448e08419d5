package keyspace

import (
	"sort"

	"github.com/alsatianco/peadb/internal/core/domain"
)

// DumpEntry is the full persistent state of one key: payload, TTL,
// encoding hint and consumer-group records. The snapshot codec writes
// and reads these.
type DumpEntry struct {
	DB       int
	Key      string
	Type     ValueType
	ExpireAt int64
	ForceRaw bool

	Str    string
	Hash   []FieldValue
	List   []string
	Set    []string
	ZSet   []MemberScore
	Stream []StreamEntry

	StreamLastMS  uint64
	StreamLastSeq uint64
	Groups        []GroupDump
}

// GroupDump is one consumer group's persistent state.
type GroupDump struct {
	Name            string
	LastDeliveredID string
	Pending         []PendingDump
}

// PendingDump is one pending entry record: who holds which id.
type PendingDump struct {
	ID       string
	Consumer string
}

// DumpAll snapshots every live key of every database in deterministic
// order: database ascending, key ascending, container contents in their
// canonical order. Expired entries are skipped.
func (s *Store) DumpAll() []DumpEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.NowMS()
	var out []DumpEntry
	for dbIdx := range s.dbs {
		db := s.dbs[dbIdx]
		keys := make([]string, 0, len(db))
		for key, e := range db {
			if e.expireAt != 0 && e.expireAt <= now {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			out = append(out, dumpEntry(dbIdx, key, db[key]))
		}
	}
	return out
}

func dumpEntry(dbIdx int, key string, e *Entry) DumpEntry {
	de := DumpEntry{
		DB:       dbIdx,
		Key:      key,
		Type:     e.typ,
		ExpireAt: e.expireAt,
		ForceRaw: e.forceRaw,
	}
	switch e.typ {
	case TypeString:
		de.Str = e.str
	case TypeHash:
		de.Hash = e.sortedHash()
	case TypeList:
		de.List = append([]string(nil), e.list...)
	case TypeSet:
		de.Set = e.sortedSet()
	case TypeZSet:
		de.ZSet = e.sortedZSet()
	case TypeStream:
		de.Stream = make([]StreamEntry, len(e.stream))
		for i, se := range e.stream {
			de.Stream[i] = StreamEntry{ID: se.ID, Fields: append([]FieldValue(nil), se.Fields...)}
		}
		de.StreamLastMS = e.streamLastMS
		de.StreamLastSeq = e.streamLastSeq
		names := make([]string, 0, len(e.groups))
		for name := range e.groups {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			g := e.groups[name]
			gd := GroupDump{Name: name, LastDeliveredID: g.LastDeliveredID}
			ids := make([]string, 0, len(g.PendingOwner))
			for id := range g.PendingOwner {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				gd.Pending = append(gd.Pending, PendingDump{ID: id, Consumer: g.PendingOwner[id]})
			}
			de.Groups = append(de.Groups, gd)
		}
	}
	return de
}

// LoadDump replaces the whole keyspace with entries. The input is
// validated first; on error the store is untouched, so a failed load
// never leaves a half-applied state.
func (s *Store) LoadDump(entries []DumpEntry) error {
	for _, de := range entries {
		if de.DB < 0 || de.DB >= NumDatabases {
			return domain.ErrInvalidDBIndex.WithDetails(de.Key)
		}
		if de.Type == TypeNone {
			return domain.Errorf("dump entry %q has no type", de.Key)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.dbs {
		s.dbs[i] = make(database)
	}
	for _, de := range entries {
		s.dbs[de.DB][de.Key] = restoreEntry(de)
	}
	return nil
}

func restoreEntry(de DumpEntry) *Entry {
	e := newEntry(de.Type)
	e.expireAt = de.ExpireAt
	switch de.Type {
	case TypeString:
		e.str = de.Str
		e.forceRaw = de.ForceRaw
	case TypeHash:
		for _, fv := range de.Hash {
			e.hash[fv.Field] = fv.Value
		}
	case TypeList:
		e.list = append([]string(nil), de.List...)
	case TypeSet:
		for _, m := range de.Set {
			e.set[m] = struct{}{}
		}
	case TypeZSet:
		for _, ms := range de.ZSet {
			e.zset[ms.Member] = ms.Score
		}
	case TypeStream:
		e.stream = make([]StreamEntry, len(de.Stream))
		for i, se := range de.Stream {
			e.stream[i] = StreamEntry{ID: se.ID, Fields: append([]FieldValue(nil), se.Fields...)}
		}
		e.streamLastMS = de.StreamLastMS
		e.streamLastSeq = de.StreamLastSeq
		for _, gd := range de.Groups {
			g := newConsumerGroup(gd.LastDeliveredID)
			for _, p := range gd.Pending {
				g.PendingOwner[p.ID] = p.Consumer
				g.PendingCount[p.Consumer]++
			}
			e.groups[gd.Name] = g
		}
	}
	return e
}
