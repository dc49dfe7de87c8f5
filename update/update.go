// Package update implements the update process (spec.md 4.9): turning
// Srm-marked routing-database rows into segmented Level 1 / Level 2
// routing messages, batched by LevelOneBatchSize starting with the batch
// containing the local node, applying split horizon with poisoned reverse,
// and rate-limiting non-periodic sends to at most one per T2 per circuit.
package update

import (
	"time"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/circuit"
	"github.com/rjarratt/Route20-sub001/l1db"
	"github.com/rjarratt/Route20-sub001/l2db"
	"github.com/rjarratt/Route20-sub001/wire"
)

// Scheduler tracks per-circuit send timing and batch cursors for the
// update process.
type Scheduler struct {
	L1   *l1db.Database
	L2   *l2db.Database
	Self route20.NodeInfo

	lastSent map[int]time.Time
}

// New creates a Scheduler driving updates from the given databases for
// the local node identity self.
func New(l1 *l1db.Database, l2 *l2db.Database, self route20.NodeInfo) *Scheduler {
	return &Scheduler{L1: l1, L2: l2, Self: self, lastSent: make(map[int]time.Time)}
}

func (s *Scheduler) srmPendingL1(slot int) bool {
	for d := 1; d <= route20.NN; d++ {
		if s.L1.Srm[d][slot] {
			return true
		}
	}
	return false
}

func (s *Scheduler) srmPendingL2(slot int) bool {
	for a := 1; a <= route20.NA; a++ {
		if s.L2.ASrm[a][slot] {
			return true
		}
	}
	return false
}

// L2SrmPending reports whether any area has a pending Srm bit for slot,
// used by the caller to decide whether an Srm-triggered cycle needs to
// send the Level 2 message at all.
func (s *Scheduler) L2SrmPending(slot int) bool {
	return s.srmPendingL2(slot)
}

// L1BatchPending reports whether the batch BuildLevel1Batch would build
// next for c (the batch starting at c.NextLevel1Node, or the local
// node's batch on the first call) has any destination with a pending Srm
// bit for c.Slot. Used to skip unchanged batches on an Srm-triggered
// (non-periodic) update cycle instead of resending the whole table
// (spec.md 4.9: "include destination d iff Srm[d,c]=1 or the periodic
// full advertisement is due").
func (s *Scheduler) L1BatchPending(c *circuit.Circuit) bool {
	start := c.NextLevel1Node
	if start == 0 {
		start = s.Self.FirstLevel1Node()
	}
	id := start
	for i := 0; i < route20.LevelOneBatchSize; i++ {
		if id >= 1 && id <= route20.NN && s.L1.Srm[id][c.Slot] {
			return true
		}
		id++
	}
	return false
}

func (s *Scheduler) rateLimited(slot int, now time.Time) bool {
	last, ok := s.lastSent[slot]
	return ok && now.Sub(last) < route20.T2Seconds*time.Second
}

// Due reports whether circuit slot should send now: periodic is true when
// the circuit's own T1/BCT1 timer has fired (always due), otherwise a send
// is due only if some destination's Srm bit is set for this circuit and
// the circuit hasn't sent within the last T2 (spec.md invariant 4).
func (s *Scheduler) Due(slot int, now time.Time, periodic bool) bool {
	if periodic {
		return true
	}
	if s.rateLimited(slot, now) {
		return false
	}
	return s.srmPendingL1(slot) || s.srmPendingL2(slot)
}

// poisonedL1 returns the (hop, cost) to advertise for node id on circuit
// outSlot: the real Minhop/Mincost unless the chosen output adjacency for
// id is itself on outSlot, in which case the entry is poisoned (reported
// unreachable) to implement split horizon with poisoned reverse.
func poisonedL1(db *l1db.Database, id int, outSlot int) (uint16, uint16) {
	if !db.HasOA[id] {
		return route20.Infh, route20.Infc
	}
	slot, _, _ := db.Lookup(db.OA[id])
	if slot == outSlot {
		return route20.Infh, route20.Infc
	}
	return db.Minhop[id], db.Mincost[id]
}

func poisonedL2(db *l2db.Database, area int, outSlot int) (uint16, uint16) {
	if !db.HasAOA[area] {
		return route20.Infh, route20.Infc
	}
	slot, _, _ := db.Lookup(db.AOA[area])
	if slot == outSlot {
		return route20.Infh, route20.Infc
	}
	return db.AMinhop[area], db.AMincost[area]
}

// BuildLevel1Batch builds one Level 1 routing message segment for circuit
// c, starting at c.NextLevel1Node (or the batch containing the local node
// on the first call), advancing c.NextLevel1Node to the next batch's
// start and wrapping after NN back to the local node's batch. It clears
// the Srm bits it satisfies.
func (s *Scheduler) BuildLevel1Batch(c *circuit.Circuit) wire.RoutingMessage {
	start := c.NextLevel1Node
	if start == 0 {
		start = s.Self.FirstLevel1Node()
	}

	entries := make([]wire.RoutingEntry, 0, route20.LevelOneBatchSize)
	id := start
	for i := 0; i < route20.LevelOneBatchSize; i++ {
		if id >= 1 && id <= route20.NN {
			hop, cost := poisonedL1(s.L1, int(id), c.Slot)
			entries = append(entries, wire.RoutingEntry{Hops: hop, Cost: cost})
			s.L1.Srm[id][c.Slot] = false
		} else {
			entries = append(entries, wire.RoutingEntry{Hops: route20.Infh, Cost: route20.Infc})
		}
		id++
	}

	next := start + route20.LevelOneBatchSize
	if next > route20.NN {
		next = 0
	}
	c.NextLevel1Node = next

	return wire.RoutingMessage{Level: 1, SrcNode: s.Self.Address.Node, StartID: start, Entries: entries}
}

// BuildLevel2Message builds a full Level 2 routing message covering every
// area, 1..NA, applying split horizon the same way as Level 1. Level 2
// messages are never segmented: NA is small enough to fit in one message.
func (s *Scheduler) BuildLevel2Message(c *circuit.Circuit) wire.RoutingMessage {
	entries := make([]wire.RoutingEntry, 0, route20.NA)
	for area := 1; area <= route20.NA; area++ {
		hop, cost := poisonedL2(s.L2, area, c.Slot)
		entries = append(entries, wire.RoutingEntry{Hops: hop, Cost: cost})
		s.L2.ASrm[area][c.Slot] = false
	}
	return wire.RoutingMessage{Level: 2, SrcNode: s.Self.Address.Node, StartID: 1, Entries: entries}
}

// Send marks now as the last send time for slot; call after a successful
// WritePacket so the T2 rate limit applies from the actual send, not from
// Due's evaluation.
func (s *Scheduler) Send(slot int, now time.Time) {
	s.lastSent[slot] = now
}

// ApplyLevel1Message installs the entries of a received Level 1 routing
// message into db under output (the sending circuit, or the sending
// adjacency's column on a broadcast circuit), adding circuitCost and one
// hop and replacing any result beyond Maxh/Maxc with Infh/Infc (see
// advance), and reports whether any entry actually
// changed (so the caller knows whether to run the decision process).
func ApplyLevel1Message(db *l1db.Database, output l1db.Output, circuitCost uint16, msg wire.RoutingMessage) bool {
	changed := false
	id := msg.StartID
	for _, e := range msg.Entries {
		if id >= 1 && id <= route20.NN {
			hop, cost := advance(e, circuitCost)
			if db.Hop[id][output] != hop || db.Cost[id][output] != cost {
				db.UpdateEntry(int(id), output, hop, cost)
				changed = true
			}
		}
		id++
		if id > route20.NN {
			id = 0
		}
	}
	return changed
}

// ApplyLevel2Message is ApplyLevel1Message's Level 2 counterpart,
// installing area entries into the area routing database.
func ApplyLevel2Message(db *l2db.Database, output l2db.Output, circuitCost uint16, msg wire.RoutingMessage) bool {
	changed := false
	area := msg.StartID
	for _, e := range msg.Entries {
		if area >= 1 && area <= route20.NA {
			hop, cost := advance(e, circuitCost)
			if db.AHop[area][output] != hop || db.ACost[area][output] != cost {
				db.UpdateEntry(int(area), output, hop, cost)
				changed = true
			}
		}
		area++
	}
	return changed
}

// advance adds one hop and the circuit's cost to a received entry,
// clamping to Infh/Infc once Maxh/Maxc is exceeded (spec.md 4.9).
func advance(e wire.RoutingEntry, circuitCost uint16) (hop, cost uint16) {
	hop = e.Hops + 1
	if hop > route20.Maxh {
		hop = route20.Infh
	}
	cost = e.Cost + circuitCost
	if cost > route20.Maxc {
		cost = route20.Infc
	}
	return hop, cost
}
