package keyspace

import "sort"

// ValueType tags the active payload branch of an Entry.
type ValueType uint8

// Value types, in the order the snapshot codec assigns type letters.
const (
	TypeNone ValueType = iota
	TypeString
	TypeHash
	TypeList
	TypeSet
	TypeZSet
	TypeStream
)

// String returns the TYPE command name for the value type.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeHash:
		return "hash"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeZSet:
		return "zset"
	case TypeStream:
		return "stream"
	default:
		return "none"
	}
}

// TypeFromName maps a TYPE command name back to a ValueType.
func TypeFromName(name string) ValueType {
	switch name {
	case "string":
		return TypeString
	case "hash":
		return TypeHash
	case "list":
		return TypeList
	case "set":
		return TypeSet
	case "zset":
		return TypeZSet
	case "stream":
		return TypeStream
	default:
		return TypeNone
	}
}

// FieldValue is one field/value pair of a hash or stream entry.
type FieldValue struct {
	Field string
	Value string
}

// MemberScore is one member of a sorted set.
type MemberScore struct {
	Member string
	Score  float64
}

// StreamEntry is one entry of a stream's append-only log.
type StreamEntry struct {
	ID     string
	Fields []FieldValue
}

// ConsumerGroup tracks a named cursor over a stream's log together with
// its pending (delivered, unacknowledged) entries.
//
// Invariant: every id in PendingOwner is owned by exactly one consumer,
// and PendingCount[c] equals the number of ids owned by c.
type ConsumerGroup struct {
	LastDeliveredID string
	PendingOwner    map[string]string // entry id -> owning consumer
	PendingCount    map[string]int64  // consumer -> pending entries
}

func newConsumerGroup(lastDeliveredID string) *ConsumerGroup {
	return &ConsumerGroup{
		LastDeliveredID: lastDeliveredID,
		PendingOwner:    make(map[string]string),
		PendingCount:    make(map[string]int64),
	}
}

// release drops the pending record for id, if any, decrementing the
// owning consumer's count. Shared by XACK and XDEL.
func (g *ConsumerGroup) release(id string) bool {
	consumer, ok := g.PendingOwner[id]
	if !ok {
		return false
	}
	delete(g.PendingOwner, id)
	if n := g.PendingCount[consumer]; n > 1 {
		g.PendingCount[consumer] = n - 1
	} else {
		delete(g.PendingCount, consumer)
	}
	return true
}

// Entry is the stored unit for one key: a type tag, an optional absolute
// expiration timestamp, and exactly one live payload branch.
//
// expireAt is epoch milliseconds; 0 means no expiration.
type Entry struct {
	typ      ValueType
	expireAt int64

	str      string
	forceRaw bool

	hash map[string]string
	list []string
	set  map[string]struct{}
	zset map[string]float64

	stream        []StreamEntry
	streamLastMS  uint64
	streamLastSeq uint64
	groups        map[string]*ConsumerGroup
}

// newEntry allocates an entry with the container for typ initialized.
func newEntry(typ ValueType) *Entry {
	e := &Entry{}
	e.resetTo(typ)
	return e
}

// resetTo switches the entry to typ and clears every other payload
// branch, so no stale data survives a type change.
func (e *Entry) resetTo(typ ValueType) {
	e.typ = typ
	e.str = ""
	e.forceRaw = false
	e.hash = nil
	e.list = nil
	e.set = nil
	e.zset = nil
	e.stream = nil
	e.streamLastMS = 0
	e.streamLastSeq = 0
	e.groups = nil

	switch typ {
	case TypeHash:
		e.hash = make(map[string]string)
	case TypeSet:
		e.set = make(map[string]struct{})
	case TypeZSet:
		e.zset = make(map[string]float64)
	case TypeStream:
		e.groups = make(map[string]*ConsumerGroup)
	}
}

// clone deep-copies the entry. Used by COPY so the duplicate never
// shares containers with the source.
func (e *Entry) clone() *Entry {
	out := &Entry{
		typ:           e.typ,
		expireAt:      e.expireAt,
		str:           e.str,
		forceRaw:      e.forceRaw,
		streamLastMS:  e.streamLastMS,
		streamLastSeq: e.streamLastSeq,
	}
	if e.hash != nil {
		out.hash = make(map[string]string, len(e.hash))
		for f, v := range e.hash {
			out.hash[f] = v
		}
	}
	if e.list != nil {
		out.list = append([]string(nil), e.list...)
	}
	if e.set != nil {
		out.set = make(map[string]struct{}, len(e.set))
		for m := range e.set {
			out.set[m] = struct{}{}
		}
	}
	if e.zset != nil {
		out.zset = make(map[string]float64, len(e.zset))
		for m, s := range e.zset {
			out.zset[m] = s
		}
	}
	if e.stream != nil {
		out.stream = make([]StreamEntry, len(e.stream))
		for i, se := range e.stream {
			out.stream[i] = StreamEntry{ID: se.ID, Fields: append([]FieldValue(nil), se.Fields...)}
		}
	}
	if e.groups != nil {
		out.groups = make(map[string]*ConsumerGroup, len(e.groups))
		for name, g := range e.groups {
			ng := newConsumerGroup(g.LastDeliveredID)
			for id, c := range g.PendingOwner {
				ng.PendingOwner[id] = c
			}
			for c, n := range g.PendingCount {
				ng.PendingCount[c] = n
			}
			out.groups[name] = ng
		}
	}
	return out
}

// sortedZSet returns the members in the sorted-set total order:
// ascending score, ties broken by ascending byte order of member.
func (e *Entry) sortedZSet() []MemberScore {
	items := make([]MemberScore, 0, len(e.zset))
	for m, s := range e.zset {
		items = append(items, MemberScore{Member: m, Score: s})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score < items[j].Score
		}
		return items[i].Member < items[j].Member
	})
	return items
}

// sortedHash returns hash fields in ascending field order.
func (e *Entry) sortedHash() []FieldValue {
	items := make([]FieldValue, 0, len(e.hash))
	for f, v := range e.hash {
		items = append(items, FieldValue{Field: f, Value: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Field < items[j].Field })
	return items
}

// sortedSet returns set members in ascending byte order.
func (e *Entry) sortedSet() []string {
	items := make([]string, 0, len(e.set))
	for m := range e.set {
		items = append(items, m)
	}
	sort.Strings(items)
	return items
}
