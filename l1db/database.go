// Package l1db implements the Level 1 (intra-area) routing database
// (spec.md 4.5), grounded on original_source/Main/Route20/routing_database.c.
package l1db

import (
	route20 "github.com/rjarratt/Route20-sub001"
)

// columns is the width of a destination's Hop/Cost row: column 0 is
// "self", columns 1..NC are per-circuit outputs (used directly by
// point-to-point circuits, which have exactly one neighbor), columns
// NC+1..NC+NBRA are per-adjacency outputs allocated to specific router
// adjacencies on broadcast circuits (spec.md 3).
const columns = route20.NC + route20.NBRA + 1

// Output identifies one column of the Hop/Cost matrices.
type Output int

// SelfOutput is the distinguished "self" output, column 0.
const SelfOutput Output = 0

// CircuitOutput returns the column for circuit slot (used directly for
// point-to-point circuits).
func CircuitOutput(slot int) Output { return Output(slot) }

// AdjacencyOutput returns the column allocated to a specific broadcast
// router adjacency (idx 0..NBRA-1 maps to columns NC+1..NC+NBRA).
func AdjacencyOutput(idx int) Output { return Output(route20.NC + 1 + idx) }

// Database is the Level 1 routing database: per-(destination node,
// output) hop/cost matrices, their per-destination minima, the chosen
// output adjacency, and the per-circuit Srm bits (spec.md 3).
type Database struct {
	Hop  [route20.NN + 1][columns]uint16
	Cost [route20.NN + 1][columns]uint16

	Minhop  [route20.NN + 1]uint16
	Mincost [route20.NN + 1]uint16
	OA      [route20.NN + 1]Output
	HasOA   [route20.NN + 1]bool

	// Srm[d][c] is the send-routing-message bit for destination d on
	// circuit c (1..NC); spec.md invariant 4.
	Srm [route20.NN + 1][route20.NC + 1]bool

	adjColumn map[adjKey]int
	colToKey  map[int]adjKey
	freeCol   []int
	nextCol   int
}

type adjKey struct {
	slot int
	addr route20.Address
}

// Lookup maps an output column back to the circuit slot (and, for a
// broadcast-adjacency column, the neighbor address) it was assigned to.
// Used by the decision process to break OA ties by circuit slot then
// adjacency id (spec.md invariant 3).
func (d *Database) Lookup(o Output) (slot int, addr route20.Address, isAdjacency bool) {
	if int(o) <= route20.NC {
		return int(o), route20.Address{}, false
	}
	key, ok := d.colToKey[int(o)]
	if !ok {
		return 0, route20.Address{}, false
	}
	return key.slot, key.addr, true
}

// New creates an initialized Level 1 database: every Hop/Cost entry is
// Infh/Infc except the self row, which is Hop[self][0]=Cost[self][0]=0
// (spec.md invariant, routing_database.c InitRoutingDatabase).
func New(self route20.Address) *Database {
	d := &Database{adjColumn: make(map[adjKey]int), colToKey: make(map[int]adjKey)}
	for i := 0; i <= route20.NN; i++ {
		d.Minhop[i] = route20.Infh
		d.Mincost[i] = route20.Infc
		for j := 0; j < columns; j++ {
			d.Hop[i][j] = route20.Infh
			d.Cost[i][j] = route20.Infc
		}
	}
	d.Hop[self.Node][SelfOutput] = 0
	d.Cost[self.Node][SelfOutput] = 0
	d.Minhop[self.Node] = 0
	d.Mincost[self.Node] = 0
	d.HasOA[self.Node] = true
	d.OA[self.Node] = SelfOutput
	return d
}

// AllocateAdjacencyColumn assigns (or returns the existing) output column
// for a specific broadcast router adjacency. Columns are reused from a
// free list once released, bounding total use to NBRA.
func (d *Database) AllocateAdjacencyColumn(slot int, addr route20.Address) (Output, bool) {
	key := adjKey{slot, addr}
	if c, ok := d.adjColumn[key]; ok {
		return AdjacencyOutput(c), true
	}
	var idx int
	if n := len(d.freeCol); n > 0 {
		idx = d.freeCol[n-1]
		d.freeCol = d.freeCol[:n-1]
	} else {
		if d.nextCol >= route20.NBRA {
			return 0, false
		}
		idx = d.nextCol
		d.nextCol++
	}
	d.adjColumn[key] = idx
	d.colToKey[int(AdjacencyOutput(idx))] = key
	return AdjacencyOutput(idx), true
}

// ReleaseAdjacencyColumn frees the column assigned to a departed
// adjacency and resets its Hop/Cost entries to unreachable across every
// destination.
func (d *Database) ReleaseAdjacencyColumn(slot int, addr route20.Address) {
	key := adjKey{slot, addr}
	idx, ok := d.adjColumn[key]
	if !ok {
		return
	}
	delete(d.adjColumn, key)
	delete(d.colToKey, int(AdjacencyOutput(idx)))
	d.freeCol = append(d.freeCol, idx)
	col := AdjacencyOutput(idx)
	for i := 0; i <= route20.NN; i++ {
		d.Hop[i][col] = route20.Infh
		d.Cost[i][col] = route20.Infc
	}
}

// UpdateEntry applies one (dest, hop, cost) tuple reported on output o,
// already adjusted by the circuit's cost and 1 hop (spec.md 4.5); the
// caller (update process input handler) performs the min(...,Inf)
// clamping before calling this.
func (d *Database) UpdateEntry(dest int, o Output, hop, cost uint16) {
	d.Hop[dest][o] = hop
	d.Cost[dest][o] = cost
}

// MarkSrm sets the send-routing-message bit for dest on every circuit in
// circuits except excludeSlot (0 to exclude none), used by the decision
// process to fan out re-advertisement (spec.md invariant 4).
func (d *Database) MarkSrm(dest int, circuits []int, excludeSlot int) {
	for _, c := range circuits {
		if c == excludeSlot {
			continue
		}
		d.Srm[dest][c] = true
	}
}
