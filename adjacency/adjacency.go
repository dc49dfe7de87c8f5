// Package adjacency implements the adjacency table (spec.md 4.3): the
// set of known neighbors per circuit, their listener timers, and the
// capacity limits (NBRA routers / NBEA end nodes per broadcast circuit,
// exactly one neighbor per point-to-point circuit).
package adjacency

import (
	"errors"
	"time"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/circuit"
)

// Type is the role a neighbor advertises itself as.
type Type int

const (
	L1Router Type = iota
	L2Router
	Endnode
)

// ErrCapacityExceeded is returned when a broadcast circuit's router or
// end-node pool is already full (spec.md 7, AdjacencyCapacityExceeded).
var ErrCapacityExceeded = errors.New("adjacency capacity exceeded")

// Adjacency is one known neighbor on a circuit (spec.md 3).
type Adjacency struct {
	Circuit       *circuit.Circuit
	ID            route20.Address
	Priority      uint8
	Type          Type
	LastHeardFrom time.Time
	ListenerTimer time.Duration
}

func (a *Adjacency) expired(now time.Time) bool {
	return now.Sub(a.LastHeardFrom) > a.ListenerTimer
}

// IsRouter reports whether the adjacency participates in routing (as
// opposed to being a pure end node), used by designated-router election
// and by Srm fan-out (spec.md 4.4, 4.8).
func (a *Adjacency) IsRouter() bool {
	return a.Type == L1Router || a.Type == L2Router
}

// Table is the process-wide adjacency table, one instance shared by every
// circuit (spec.md 9: "Global mutable state ... adjacency table").
type Table struct {
	bySlot map[int][]*Adjacency

	// OnChange fires whenever a routing-capable adjacency is added or
	// removed, triggering decision-process recomputation (spec.md 4.3).
	OnChange func()
}

// New creates an empty adjacency table.
func New() *Table {
	return &Table{bySlot: make(map[int][]*Adjacency)}
}

func (t *Table) routerCount(slot int) int {
	n := 0
	for _, a := range t.bySlot[slot] {
		if a.IsRouter() {
			n++
		}
	}
	return n
}

func (t *Table) endnodeCount(slot int) int {
	n := 0
	for _, a := range t.bySlot[slot] {
		if a.Type == Endnode {
			n++
		}
	}
	return n
}

func (t *Table) find(slot int, id route20.Address) *Adjacency {
	for _, a := range t.bySlot[slot] {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Upsert inserts a new adjacency or refreshes an existing one on receipt
// of a valid hello, enforcing the NBRA/NBEA pool limits on broadcast
// circuits and the single-neighbor limit on point-to-point circuits
// (spec.md 4.3).
func (t *Table) Upsert(c *circuit.Circuit, id route20.Address, priority uint8, typ Type, listener time.Duration, now time.Time) (*Adjacency, error) {
	slot := c.Slot
	if existing := t.find(slot, id); existing != nil {
		existing.Priority = priority
		existing.Type = typ
		existing.LastHeardFrom = now
		existing.ListenerTimer = listener
		return existing, nil
	}

	if circuit.IsBroadcastCircuit(c) {
		if typ == Endnode {
			if t.endnodeCount(slot) >= route20.NBEA {
				return nil, ErrCapacityExceeded
			}
		} else {
			if t.routerCount(slot) >= route20.NBRA {
				return nil, ErrCapacityExceeded
			}
		}
	} else if len(t.bySlot[slot]) >= 1 {
		return nil, ErrCapacityExceeded
	}

	a := &Adjacency{Circuit: c, ID: id, Priority: priority, Type: typ, LastHeardFrom: now, ListenerTimer: listener}
	t.bySlot[slot] = append(t.bySlot[slot], a)
	if a.IsRouter() && t.OnChange != nil {
		t.OnChange()
	}
	return a, nil
}

// ForCircuit returns every adjacency currently known on the given
// circuit slot.
func (t *Table) ForCircuit(slot int) []*Adjacency {
	return t.bySlot[slot]
}

// ForEachRouter invokes fn for every routing-capable adjacency on slot,
// used by designated-router election (spec.md 4.4).
func (t *Table) ForEachRouter(slot int, fn func(*Adjacency)) {
	for _, a := range t.bySlot[slot] {
		if a.IsRouter() {
			fn(a)
		}
	}
}

// Remove deletes a as from t, independent of why (timeout, reject, or
// explicit init-layer shutdown).
func (t *Table) Remove(a *Adjacency) {
	slot := a.Circuit.Slot
	list := t.bySlot[slot]
	for i, cand := range list {
		if cand == a {
			t.bySlot[slot] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if a.IsRouter() && t.OnChange != nil {
		t.OnChange()
	}
}

// RemoveAllOnCircuit evicts every adjacency on slot, used when a circuit
// reports DatalinkFailure (spec.md 7).
func (t *Table) RemoveAllOnCircuit(slot int) []*Adjacency {
	removed := t.bySlot[slot]
	delete(t.bySlot, slot)
	hadRouter := false
	for _, a := range removed {
		if a.IsRouter() {
			hadRouter = true
		}
	}
	if hadRouter && t.OnChange != nil {
		t.OnChange()
	}
	return removed
}

// Expire sweeps every circuit for adjacencies whose listener timer has
// elapsed (spec.md invariant 6) and removes them, returning the evicted
// set so the caller can log and recompute.
func (t *Table) Expire(now time.Time) []*Adjacency {
	var expired []*Adjacency
	for slot, list := range t.bySlot {
		kept := list[:0:0]
		changed := false
		for _, a := range list {
			if a.expired(now) {
				expired = append(expired, a)
				if a.IsRouter() {
					changed = true
				}
				continue
			}
			kept = append(kept, a)
		}
		t.bySlot[slot] = kept
		if changed && t.OnChange != nil {
			t.OnChange()
		}
	}
	return expired
}
