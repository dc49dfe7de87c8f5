// Package l2db implements the Level 2 (inter-area) area routing database
// (spec.md 4.6), grounded on
// original_source/Route20/area_routing_database.c. Deliberately not
// shared code with l1db: the original keeps routing_database.c and
// area_routing_database.c as separate, non-generic implementations, and
// Route20 keeps that same separation (spec_full.md supplemented feature).
package l2db

import (
	route20 "github.com/rjarratt/Route20-sub001"
)

const columns = route20.NC + route20.NBRA + 1

// Output identifies one column of the AHop/ACost matrices.
type Output int

func CircuitOutput(slot int) Output { return Output(slot) }
func AdjacencyOutput(idx int) Output { return Output(route20.NC + 1 + idx) }

// Database is the Level 2 area routing database: per-(destination area,
// output) hop/cost matrices, minima, chosen output adjacency, Srm bits,
// and the attached flag (spec.md 3).
type Database struct {
	AHop  [route20.NA + 1][columns]uint16
	ACost [route20.NA + 1][columns]uint16

	AMinhop  [route20.NA + 1]uint16
	AMincost [route20.NA + 1]uint16
	AOA      [route20.NA + 1]Output
	HasAOA   [route20.NA + 1]bool

	ASrm [route20.NA + 1][route20.NC + 1]bool

	// AttachedFlg is true iff any Level 2 adjacency exists on any
	// circuit (spec.md 3, 4.6).
	AttachedFlg bool

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
// broadcast-adjacency column, the neighbor address) it was assigned to,
// used by the decision process to break AOA ties.
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

// New creates an initialized Level 2 database: AHop/ACost are Infh/Infc
// except the local area's self row (area_routing_database.c
// InitAreaRoutingDatabase).
func New(selfArea uint8) *Database {
	d := &Database{adjColumn: make(map[adjKey]int), colToKey: make(map[int]adjKey)}
	for i := 1; i <= route20.NA; i++ {
		d.AMinhop[i] = route20.Infh
		d.AMincost[i] = route20.Infc
		for j := 0; j < columns; j++ {
			d.AHop[i][j] = route20.Infh
			d.ACost[i][j] = route20.Infc
		}
	}
	d.AHop[selfArea][0] = 0
	d.ACost[selfArea][0] = 0
	d.AMinhop[selfArea] = 0
	d.AMincost[selfArea] = 0
	d.HasAOA[selfArea] = true
	return d
}

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
	for i := 1; i <= route20.NA; i++ {
		d.AHop[i][col] = route20.Infh
		d.ACost[i][col] = route20.Infc
	}
}

// UpdateEntry applies one (area, hop, cost) tuple on output o.
func (d *Database) UpdateEntry(area int, o Output, hop, cost uint16) {
	d.AHop[area][o] = hop
	d.ACost[area][o] = cost
}

// MarkSrm sets the ASrm bit for area on every circuit in circuits except
// excludeSlot (0 excludes none).
func (d *Database) MarkSrm(area int, circuits []int, excludeSlot int) {
	for _, c := range circuits {
		if c == excludeSlot {
			continue
		}
		d.ASrm[area][c] = true
	}
}
