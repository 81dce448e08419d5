// Package snapshot persists and restores the full keyspace: a text
// codec with one record per key, and a manager that rotates snapshot
// files with retention and corrupt-file fallback.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alsatianco/peadb/internal/keyspace"
)

// header is the first line of every snapshot file.
const header = "PEADB-SNAPSHOT-V1"

var (
	ErrBadHeader = errors.New("snapshot: bad header")
	ErrTruncated = errors.New("snapshot: truncated file")
	ErrCorrupt   = errors.New("snapshot: corrupt record")
)

// Encode writes entries as a snapshot document. The format is line
// oriented: a header, one record per key, stream payloads on their own
// continuation lines, and a trailing END line carrying the record count
// so truncation is detectable.
//
// Record layout (strings are Go-quoted, numbers bare):
//
//	S <db> <expireAt> <raw 0|1> <key> <value>
//	H <db> <expireAt> <key> <field> <value> ...
//	L <db> <expireAt> <key> <elem> ...
//	T <db> <expireAt> <key> <member> ...
//	Z <db> <expireAt> <key> <score> <member> ...
//	X <db> <expireAt> <key> <lastMS> <lastSeq>
//	E <id> <field> <value> ...                      (stream entry)
//	G <name> <lastDeliveredID> <id> <consumer> ...  (consumer group)
//	END <count>
func Encode(w io.Writer, entries []keyspace.DumpEntry) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, header); err != nil {
		return err
	}
	for i := range entries {
		if err := encodeEntry(bw, &entries[i]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(bw, "END %d\n", len(entries)); err != nil {
		return err
	}
	return bw.Flush()
}

func encodeEntry(bw *bufio.Writer, de *keyspace.DumpEntry) error {
	var line []string
	common := func(tag string) []string {
		return []string{tag, strconv.Itoa(de.DB), strconv.FormatInt(de.ExpireAt, 10)}
	}
	switch de.Type {
	case keyspace.TypeString:
		raw := "0"
		if de.ForceRaw {
			raw = "1"
		}
		line = append(common("S"), raw, strconv.Quote(de.Key), strconv.Quote(de.Str))
	case keyspace.TypeHash:
		line = append(common("H"), strconv.Quote(de.Key))
		for _, fv := range de.Hash {
			line = append(line, strconv.Quote(fv.Field), strconv.Quote(fv.Value))
		}
	case keyspace.TypeList:
		line = append(common("L"), strconv.Quote(de.Key))
		for _, v := range de.List {
			line = append(line, strconv.Quote(v))
		}
	case keyspace.TypeSet:
		line = append(common("T"), strconv.Quote(de.Key))
		for _, m := range de.Set {
			line = append(line, strconv.Quote(m))
		}
	case keyspace.TypeZSet:
		line = append(common("Z"), strconv.Quote(de.Key))
		for _, ms := range de.ZSet {
			line = append(line, strconv.FormatFloat(ms.Score, 'g', -1, 64), strconv.Quote(ms.Member))
		}
	case keyspace.TypeStream:
		line = append(common("X"), strconv.Quote(de.Key),
			strconv.FormatUint(de.StreamLastMS, 10), strconv.FormatUint(de.StreamLastSeq, 10))
	default:
		return fmt.Errorf("%w: entry %q has unknown type", ErrCorrupt, de.Key)
	}
	if _, err := fmt.Fprintln(bw, strings.Join(line, " ")); err != nil {
		return err
	}
	if de.Type != keyspace.TypeStream {
		return nil
	}
	for _, se := range de.Stream {
		eline := []string{"E", strconv.Quote(se.ID)}
		for _, fv := range se.Fields {
			eline = append(eline, strconv.Quote(fv.Field), strconv.Quote(fv.Value))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(eline, " ")); err != nil {
			return err
		}
	}
	for _, g := range de.Groups {
		gline := []string{"G", strconv.Quote(g.Name), strconv.Quote(g.LastDeliveredID)}
		for _, p := range g.Pending {
			gline = append(gline, strconv.Quote(p.ID), strconv.Quote(p.Consumer))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(gline, " ")); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses a snapshot document into dump entries. The whole file is
// parsed and validated before anything is returned, so a caller can load
// the result atomically.
func Decode(r io.Reader) ([]keyspace.DumpEntry, error) {
	br := bufio.NewReader(r)
	first, err := readLine(br)
	if err != nil {
		return nil, ErrBadHeader
	}
	if first != header {
		return nil, ErrBadHeader
	}

	var entries []keyspace.DumpEntry
	var cur *keyspace.DumpEntry // open stream record accepting E/G lines
	sawEnd := false
	for {
		line, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		tokens, err := splitTokens(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		tag := tokens[0]
		if tag == "END" {
			if len(tokens) != 2 {
				return nil, ErrCorrupt
			}
			n, err := strconv.Atoi(tokens[1])
			if err != nil || n != len(entries) {
				return nil, fmt.Errorf("%w: END count %s, have %d records", ErrCorrupt, tokens[1], len(entries))
			}
			sawEnd = true
			break
		}
		if tag == "E" || tag == "G" {
			if cur == nil {
				return nil, fmt.Errorf("%w: %s line outside stream record", ErrCorrupt, tag)
			}
			if err := decodeStreamLine(cur, tag, tokens[1:]); err != nil {
				return nil, err
			}
			continue
		}
		de, err := decodeRecord(tag, tokens[1:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, de)
		cur = nil
		if de.Type == keyspace.TypeStream {
			cur = &entries[len(entries)-1]
		}
	}
	if !sawEnd {
		return nil, ErrTruncated
	}
	return entries, nil
}

func decodeRecord(tag string, args []string) (keyspace.DumpEntry, error) {
	var de keyspace.DumpEntry
	if len(args) < 3 {
		return de, ErrCorrupt
	}
	db, err := strconv.Atoi(args[0])
	if err != nil {
		return de, fmt.Errorf("%w: db index", ErrCorrupt)
	}
	expireAt, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return de, fmt.Errorf("%w: expire timestamp", ErrCorrupt)
	}
	de.DB = db
	de.ExpireAt = expireAt
	rest := args[2:]
	switch tag {
	case "S":
		if len(rest) != 3 {
			return de, ErrCorrupt
		}
		de.Type = keyspace.TypeString
		de.ForceRaw = rest[0] == "1"
		de.Key = rest[1]
		de.Str = rest[2]
	case "H":
		de.Type = keyspace.TypeHash
		de.Key = rest[0]
		if len(rest)%2 != 1 {
			return de, ErrCorrupt
		}
		for i := 1; i < len(rest); i += 2 {
			de.Hash = append(de.Hash, keyspace.FieldValue{Field: rest[i], Value: rest[i+1]})
		}
	case "L":
		de.Type = keyspace.TypeList
		de.Key = rest[0]
		de.List = append(de.List, rest[1:]...)
	case "T":
		de.Type = keyspace.TypeSet
		de.Key = rest[0]
		de.Set = append(de.Set, rest[1:]...)
	case "Z":
		de.Type = keyspace.TypeZSet
		de.Key = rest[0]
		if len(rest)%2 != 1 {
			return de, ErrCorrupt
		}
		for i := 1; i < len(rest); i += 2 {
			score, err := strconv.ParseFloat(rest[i], 64)
			if err != nil {
				return de, fmt.Errorf("%w: score %q", ErrCorrupt, rest[i])
			}
			de.ZSet = append(de.ZSet, keyspace.MemberScore{Member: rest[i+1], Score: score})
		}
	case "X":
		if len(rest) != 3 {
			return de, ErrCorrupt
		}
		de.Type = keyspace.TypeStream
		de.Key = rest[0]
		if de.StreamLastMS, err = strconv.ParseUint(rest[1], 10, 64); err != nil {
			return de, fmt.Errorf("%w: stream last ms", ErrCorrupt)
		}
		if de.StreamLastSeq, err = strconv.ParseUint(rest[2], 10, 64); err != nil {
			return de, fmt.Errorf("%w: stream last seq", ErrCorrupt)
		}
	default:
		return de, fmt.Errorf("%w: unknown record tag %q", ErrCorrupt, tag)
	}
	return de, nil
}

func decodeStreamLine(de *keyspace.DumpEntry, tag string, args []string) error {
	switch tag {
	case "E":
		if len(args) < 1 || len(args)%2 != 1 {
			return ErrCorrupt
		}
		se := keyspace.StreamEntry{ID: args[0]}
		for i := 1; i < len(args); i += 2 {
			se.Fields = append(se.Fields, keyspace.FieldValue{Field: args[i], Value: args[i+1]})
		}
		de.Stream = append(de.Stream, se)
	case "G":
		if len(args) < 2 || len(args)%2 != 0 {
			return ErrCorrupt
		}
		g := keyspace.GroupDump{Name: args[0], LastDeliveredID: args[1]}
		for i := 2; i < len(args); i += 2 {
			g.Pending = append(g.Pending, keyspace.PendingDump{ID: args[i], Consumer: args[i+1]})
		}
		de.Groups = append(de.Groups, g)
	}
	return nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err == io.EOF && line != "" {
		// A final line without a newline still parses.
		return strings.TrimRight(line, "\r"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// splitTokens splits a record line on spaces, decoding Go-quoted tokens
// in place.
func splitTokens(line string) ([]string, error) {
	var out []string
	i := 0
	for i < len(line) {
		if line[i] == ' ' {
			i++
			continue
		}
		if line[i] == '"' {
			prefix, err := strconv.QuotedPrefix(line[i:])
			if err != nil {
				return nil, fmt.Errorf("bad quoted token at column %d", i)
			}
			val, err := strconv.Unquote(prefix)
			if err != nil {
				return nil, fmt.Errorf("bad quoted token at column %d", i)
			}
			out = append(out, val)
			i += len(prefix)
			continue
		}
		end := strings.IndexByte(line[i:], ' ')
		if end < 0 {
			out = append(out, line[i:])
			break
		}
		out = append(out, line[i:i+end])
		i += end
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty record line")
	}
	return out, nil
}
