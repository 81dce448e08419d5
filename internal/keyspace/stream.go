package keyspace

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/alsatianco/peadb/internal/core/domain"
)

// streamID is the (milliseconds, sequence) pair behind a "ms-seq" entry id.
type streamID struct {
	ms  uint64
	seq uint64
}

func (id streamID) String() string {
	return fmt.Sprintf("%d-%d", id.ms, id.seq)
}

func (id streamID) less(other streamID) bool {
	if id.ms != other.ms {
		return id.ms < other.ms
	}
	return id.seq < other.seq
}

// parseStreamID parses "ms" or "ms-seq". A bare "ms" takes defaultSeq,
// which lets range bounds default to the first or last sequence.
func parseStreamID(raw string, defaultSeq uint64) (streamID, error) {
	msPart, seqPart, hasSeq := strings.Cut(raw, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return streamID{}, domain.ErrInvalidStreamID
	}
	seq := defaultSeq
	if hasSeq {
		seq, err = strconv.ParseUint(seqPart, 10, 64)
		if err != nil {
			return streamID{}, domain.ErrInvalidStreamID
		}
	}
	return streamID{ms: ms, seq: seq}, nil
}

// parseRangeBound parses an XRANGE bound, accepting the "-" and "+"
// extremes.
func parseRangeBound(raw string, end bool) (streamID, error) {
	switch raw {
	case "-":
		return streamID{}, nil
	case "+":
		return streamID{ms: math.MaxUint64, seq: math.MaxUint64}, nil
	}
	if end {
		return parseStreamID(raw, math.MaxUint64)
	}
	return parseStreamID(raw, 0)
}

// lastID returns the stream's high-water id. Callers hold s.mu.
func (e *Entry) lastID() streamID {
	return streamID{ms: e.streamLastMS, seq: e.streamLastSeq}
}

// XAdd appends an entry to the stream at key, creating the stream when
// absent, and returns the assigned id.
//
// id "*" auto-assigns: current time with sequence 0 when time moved
// forward, otherwise the last id with the sequence bumped, so ids stay
// strictly increasing even within one millisecond. An explicit id must
// be strictly greater than the stream's last id and greater than 0-0.
func (s *Store) XAdd(key, id string, fields []FieldValue) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeStream)
	if err != nil {
		return "", err
	}
	var last streamID
	if e != nil {
		last = e.lastID()
	}

	var next streamID
	if id == "*" {
		now := uint64(s.clock.NowMS())
		if now > last.ms {
			next = streamID{ms: now}
		} else {
			next = streamID{ms: last.ms, seq: last.seq + 1}
		}
	} else {
		next, err = parseStreamID(id, 0)
		if err != nil {
			return "", err
		}
		if next == (streamID{}) {
			return "", domain.New("ERR", "The ID specified in XADD must be greater than 0-0")
		}
		if !last.less(next) {
			return "", domain.ErrStreamIDTooSmall
		}
	}

	if e == nil {
		e = newEntry(TypeStream)
		db[key] = e
	}
	e.stream = append(e.stream, StreamEntry{
		ID:     next.String(),
		Fields: append([]FieldValue(nil), fields...),
	})
	e.streamLastMS = next.ms
	e.streamLastSeq = next.seq
	return next.String(), nil
}

// XLen returns the number of entries in the stream at key.
func (s *Store) XLen(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeStream)
	if err != nil || e == nil {
		return 0, err
	}
	return int64(len(e.stream)), nil
}

// XRange returns the entries with ids in [start, end], where "-" and "+"
// name the extremes and a bare "ms" bound defaults its sequence to the
// range edge. rev reverses the result order, count > 0 caps it.
func (s *Store) XRange(key, start, end string, rev bool, count int) ([]StreamEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, err := parseRangeBound(start, false)
	if err != nil {
		return nil, err
	}
	hi, err := parseRangeBound(end, true)
	if err != nil {
		return nil, err
	}
	e, err := s.typedLookup(s.db(), key, TypeStream)
	if err != nil || e == nil {
		return nil, err
	}
	out := make([]StreamEntry, 0)
	for _, se := range e.stream {
		id, _ := parseStreamID(se.ID, 0)
		if id.less(lo) || hi.less(id) {
			continue
		}
		out = append(out, se)
	}
	if rev {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out, nil
}

// XGroupCreate registers a consumer group on the stream at key. startID
// "$" means the stream's last id. A missing key fails unless mkstream
// creates an empty stream; an existing group yields ErrBusyGroup.
func (s *Store) XGroupCreate(key, group, startID string, mkstream bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.db()
	e, err := s.typedLookup(db, key, TypeStream)
	if err != nil {
		return err
	}
	if e == nil {
		if !mkstream {
			return domain.ErrXGroupNoKey
		}
		e = newEntry(TypeStream)
		db[key] = e
	}
	start, err := s.resolveGroupStart(e, startID)
	if err != nil {
		return err
	}
	if _, exists := e.groups[group]; exists {
		return domain.ErrBusyGroup
	}
	e.groups[group] = newConsumerGroup(start)
	return nil
}

func (s *Store) resolveGroupStart(e *Entry, startID string) (string, error) {
	if startID == "$" {
		return e.lastID().String(), nil
	}
	id, err := parseStreamID(startID, 0)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// XGroupSetID moves the group's delivery cursor, leaving pending entries
// untouched.
func (s *Store) XGroupSetID(key, group, startID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, g, err := s.groupLookup(key, group)
	if err != nil {
		return err
	}
	start, err := s.resolveGroupStart(e, startID)
	if err != nil {
		return err
	}
	g.LastDeliveredID = start
	return nil
}

// groupLookup resolves key and group, yielding ErrNoGroup when either is
// absent. Callers hold s.mu.
func (s *Store) groupLookup(key, group string) (*Entry, *ConsumerGroup, error) {
	e, err := s.typedLookup(s.db(), key, TypeStream)
	if err != nil {
		return nil, nil, err
	}
	if e == nil {
		return nil, nil, domain.ErrNoGroup
	}
	g, ok := e.groups[group]
	if !ok {
		return nil, nil, domain.ErrNoGroup
	}
	return e, g, nil
}

// XReadGroup delivers the entries after the group's cursor to consumer,
// up to count (0 = all), recording each as pending for that consumer and
// advancing the cursor past the last delivered entry.
func (s *Store) XReadGroup(key, group, consumer string, count int) ([]StreamEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, g, err := s.groupLookup(key, group)
	if err != nil {
		return nil, err
	}
	cursor, _ := parseStreamID(g.LastDeliveredID, 0)
	out := make([]StreamEntry, 0)
	for _, se := range e.stream {
		id, _ := parseStreamID(se.ID, 0)
		if !cursor.less(id) {
			continue
		}
		out = append(out, se)
		g.PendingOwner[se.ID] = consumer
		g.PendingCount[consumer]++
		g.LastDeliveredID = se.ID
		if count > 0 && len(out) == count {
			break
		}
	}
	return out, nil
}

// XAck acknowledges pending ids for the group and returns how many were
// actually pending. A missing key or group acknowledges nothing.
func (s *Store) XAck(key, group string, ids ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeStream)
	if err != nil || e == nil {
		return 0, err
	}
	g, ok := e.groups[group]
	if !ok {
		return 0, nil
	}
	var acked int64
	for _, raw := range ids {
		id, err := parseStreamID(raw, 0)
		if err != nil {
			return acked, err
		}
		if g.release(id.String()) {
			acked++
		}
	}
	return acked, nil
}

// XDel removes entries by id and returns how many existed. Deleted
// entries are also purged from every group's pending records. Streams
// survive at length zero; the key stays.
func (s *Store) XDel(key string, ids ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.typedLookup(s.db(), key, TypeStream)
	if err != nil || e == nil {
		return 0, err
	}
	victims := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id, err := parseStreamID(raw, 0)
		if err != nil {
			return 0, err
		}
		victims[id.String()] = struct{}{}
	}
	var deleted int64
	keep := e.stream[:0]
	for _, se := range e.stream {
		if _, hit := victims[se.ID]; hit {
			deleted++
			for _, g := range e.groups {
				g.release(se.ID)
			}
			continue
		}
		keep = append(keep, se)
	}
	e.stream = keep
	return deleted, nil
}

// ConsumerPending is one consumer's pending count in a summary.
type ConsumerPending struct {
	Consumer string
	Count    int64
}

// PendingSummary is the XPENDING summary form: total pending entries,
// the smallest and greatest pending ids, and per-consumer counts.
type PendingSummary struct {
	Count     int64
	MinID     string
	MaxID     string
	Consumers []ConsumerPending
}

// XPendingSummary returns the pending summary for the group, with
// consumers in ascending name order.
func (s *Store) XPendingSummary(key, group string) (PendingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, g, err := s.groupLookup(key, group)
	if err != nil {
		return PendingSummary{}, err
	}
	var sum PendingSummary
	var minID, maxID streamID
	for raw := range g.PendingOwner {
		id, _ := parseStreamID(raw, 0)
		if sum.Count == 0 || id.less(minID) {
			minID = id
		}
		if sum.Count == 0 || maxID.less(id) {
			maxID = id
		}
		sum.Count++
	}
	if sum.Count > 0 {
		sum.MinID = minID.String()
		sum.MaxID = maxID.String()
	}
	for consumer, n := range g.PendingCount {
		sum.Consumers = append(sum.Consumers, ConsumerPending{Consumer: consumer, Count: n})
	}
	sort.Slice(sum.Consumers, func(i, j int) bool {
		return sum.Consumers[i].Consumer < sum.Consumers[j].Consumer
	})
	return sum, nil
}
