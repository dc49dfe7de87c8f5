package wire

// RoutingEntry is one (hops, cost) tuple for a single destination
// (node, for Level 1, or area, for Level 2) in a routing message
// (spec.md 4.1): encoded as a 16-bit little-endian word,
// (hops<<10)|cost, with hops in 0..Maxh and Infh marking unreachable.
type RoutingEntry struct {
	Hops uint16
	Cost uint16
}

func encodeEntry(e RoutingEntry) uint16 {
	return (e.Hops << 10) | (e.Cost & 0x3FF)
}

func decodeEntry(v uint16) RoutingEntry {
	return RoutingEntry{Hops: v >> 10, Cost: v & 0x3FF}
}

// RoutingMessage is a Level 1 or Level 2 routing message: one segment of
// count consecutive destination entries beginning at startid, built by
// the update process under the LEVEL1_BATCH_SIZE segmentation policy
// (spec.md 4.9).
type RoutingMessage struct {
	Level   int // 1 or 2
	SrcNode uint16
	StartID uint16
	Entries []RoutingEntry
}

func (m RoutingMessage) Encode() []byte {
	w := &writer{}
	subtype := byte(subtypeL1Routing)
	if m.Level == 2 {
		subtype = subtypeL2Routing
	}
	w.byte(controlFlags(subtype))
	w.uint16(m.SrcNode)
	w.uint16(uint16(len(m.Entries)))
	w.uint16(m.StartID)
	for _, e := range m.Entries {
		w.uint16(encodeEntry(e))
	}
	return w.Bytes()
}

func decodeRoutingMessage(b []byte, level int) (RoutingMessage, error) {
	r := newReader(b)
	flags, err := r.byte()
	if err != nil {
		return RoutingMessage{}, err
	}
	wantSubtype := byte(subtypeL1Routing)
	if level == 2 {
		wantSubtype = subtypeL2Routing
	}
	if !isControlMessage(flags) || controlSubtype(flags) != wantSubtype {
		return RoutingMessage{}, malformed("not a routing message of the expected level")
	}
	src, err := r.uint16()
	if err != nil {
		return RoutingMessage{}, err
	}
	count, err := r.uint16()
	if err != nil {
		return RoutingMessage{}, err
	}
	start, err := r.uint16()
	if err != nil {
		return RoutingMessage{}, err
	}
	entries := make([]RoutingEntry, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := r.uint16()
		if err != nil {
			return RoutingMessage{}, err
		}
		entries = append(entries, decodeEntry(v))
	}
	return RoutingMessage{Level: level, SrcNode: src, StartID: start, Entries: entries}, nil
}

func DecodeLevel1Routing(b []byte) (RoutingMessage, error) { return decodeRoutingMessage(b, 1) }
func DecodeLevel2Routing(b []byte) (RoutingMessage, error) { return decodeRoutingMessage(b, 2) }
