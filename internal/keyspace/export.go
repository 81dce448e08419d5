package keyspace

import (
	"sort"
	"strconv"
)

// ExportCommands renders the whole keyspace as a replayable command
// sequence: a SELECT per non-empty database, one constructor command per
// key in ascending order, and a PEXPIREAT after any key with a TTL.
// Expired entries are skipped. Replaying the output against an empty
// store rebuilds the same logical contents.
//
// Consumer-group state does not survive export; the snapshot codec is
// the full-fidelity persistence path.
func (s *Store) ExportCommands() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.NowMS()
	var out [][]string
	for dbIdx := range s.dbs {
		db := s.dbs[dbIdx]
		keys := make([]string, 0, len(db))
		for key, e := range db {
			if e.expireAt != 0 && e.expireAt <= now {
				continue
			}
			keys = append(keys, key)
		}
		if len(keys) == 0 {
			continue
		}
		sort.Strings(keys)
		out = append(out, []string{"SELECT", strconv.Itoa(dbIdx)})
		for _, key := range keys {
			e := db[key]
			out = append(out, exportEntry(key, e)...)
			if e.expireAt != 0 {
				out = append(out, []string{"PEXPIREAT", key, strconv.FormatInt(e.expireAt, 10)})
			}
		}
	}
	return out
}

func exportEntry(key string, e *Entry) [][]string {
	switch e.typ {
	case TypeString:
		return [][]string{{"SET", key, e.str}}
	case TypeHash:
		cmd := []string{"HSET", key}
		for _, fv := range e.sortedHash() {
			cmd = append(cmd, fv.Field, fv.Value)
		}
		return [][]string{cmd}
	case TypeList:
		cmd := []string{"RPUSH", key}
		cmd = append(cmd, e.list...)
		return [][]string{cmd}
	case TypeSet:
		cmd := []string{"SADD", key}
		cmd = append(cmd, e.sortedSet()...)
		return [][]string{cmd}
	case TypeZSet:
		cmd := []string{"ZADD", key}
		for _, ms := range e.sortedZSet() {
			cmd = append(cmd, formatFloat(ms.Score), ms.Member)
		}
		return [][]string{cmd}
	case TypeStream:
		cmds := make([][]string, 0, len(e.stream))
		for _, se := range e.stream {
			cmd := []string{"XADD", key, se.ID}
			for _, fv := range se.Fields {
				cmd = append(cmd, fv.Field, fv.Value)
			}
			cmds = append(cmds, cmd)
		}
		return cmds
	}
	return nil
}
