// Package areafwd implements the area forwarding database (spec.md 4.7),
// grounded on original_source/Route20/area_forwarding_database.c: it
// publishes area reachability for the forwarding process to consult when
// a long-form datagram's destination area differs from the local area.
package areafwd

import (
	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/l2db"
)

// Table mirrors AReach[0..NA] in area_forwarding_database.c.
type Table struct {
	l2 *l2db.Database
}

// New creates an area forwarding table backed by the given Level 2
// database; AMincost already carries everything IsAreaReachable needs.
func New(l2 *l2db.Database) *Table {
	return &Table{l2: l2}
}

// IsAreaReachable reports whether area can currently be forwarded to:
// AMincost[area] < Infc (spec.md 4.7).
func (t *Table) IsAreaReachable(area uint8) bool {
	if area < 1 || int(area) > route20.NA {
		return false
	}
	return t.l2.AMincost[area] < route20.Infc
}

// OutputAdjacency returns the chosen output for area, mirroring AOA in
// the original area_forwarding_database.c (there folded into the same
// array as circuit outputs; here the Level 2 database already tracks it
// per destination area as AOA).
func (t *Table) OutputAdjacency(area uint8) (l2db.Output, bool) {
	if area < 1 || int(area) > route20.NA {
		return 0, false
	}
	return t.l2.AOA[area], t.l2.HasAOA[area]
}
