// Package decision implements the routing decision process (spec.md 4.8):
// recomputing each destination's minimum hop/cost and chosen output
// adjacency whenever a Hop/Cost entry changes or an adjacency appears or
// disappears, and marking Srm so the update process re-advertises any
// destination whose reachability or output changed.
package decision

import (
	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/l1db"
	"github.com/rjarratt/Route20-sub001/l2db"
)

// candidate is one output's (cost, hop, slot, adjacency id) tuple, compared
// lexicographically in that order to choose and to break ties among outputs
// offering the same destination (spec.md invariant 3: ties broken by lowest
// circuit slot then lowest adjacency id).
type candidate struct {
	cost, hop uint16
	slot      int
	addr      route20.Address
	isAdj     bool
	output    int
	valid     bool
}

func less(a, b candidate) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.hop != b.hop {
		return a.hop < b.hop
	}
	if a.slot != b.slot {
		return a.slot < b.slot
	}
	if a.isAdj != b.isAdj {
		return !a.isAdj
	}
	if a.addr.Area != b.addr.Area {
		return a.addr.Area < b.addr.Area
	}
	return a.addr.Node < b.addr.Node
}

// RecomputeL1 re-derives Minhop, Mincost and OA for every Level 1
// destination from the current Hop/Cost matrix, and returns the
// destinations whose reachability, cost, hop count or output adjacency
// changed as a result. It is idempotent: calling it again with no
// intervening Hop/Cost change returns no changes. On every change it marks
// Srm on circuits so the update process re-advertises the new value
// (spec.md invariant 4).
func RecomputeL1(db *l1db.Database, circuits []int) []int {
	var changed []int
	for dest := 1; dest <= route20.NN; dest++ {
		best := candidate{cost: route20.Infc, hop: route20.Infh}
		for col := 0; col < route20.NC+route20.NBRA+1; col++ {
			cost := db.Cost[dest][col]
			hop := db.Hop[dest][col]
			if cost >= route20.Infc || hop >= route20.Infh {
				continue
			}
			slot, addr, isAdj := db.Lookup(l1db.Output(col))
			cand := candidate{cost: cost, hop: hop, slot: slot, addr: addr, isAdj: isAdj, output: col, valid: true}
			if !best.valid || less(cand, best) {
				best = cand
			}
		}

		prevMincost := db.Mincost[dest]
		prevMinhop := db.Minhop[dest]
		prevOA, prevHasOA := db.OA[dest], db.HasOA[dest]

		if best.valid {
			db.Mincost[dest] = best.cost
			db.Minhop[dest] = best.hop
			db.OA[dest] = l1db.Output(best.output)
			db.HasOA[dest] = true
		} else {
			db.Mincost[dest] = route20.Infc
			db.Minhop[dest] = route20.Infh
			db.HasOA[dest] = false
		}

		if db.Mincost[dest] != prevMincost || db.Minhop[dest] != prevMinhop ||
			db.HasOA[dest] != prevHasOA || (db.HasOA[dest] && db.OA[dest] != prevOA) {
			changed = append(changed, dest)
			db.MarkSrm(dest, circuits, 0)
		}
	}
	return changed
}

// RecomputeL2 is RecomputeL1's counterpart for the Level 2 area database
// (spec.md 4.6), identical in shape but operating on area destinations
// 1..NA rather than node destinations 1..NN, matching the original's
// separate area_routing_database.c decision pass.
func RecomputeL2(db *l2db.Database, circuits []int) []int {
	var changed []int
	attached := false
	for area := 1; area <= route20.NA; area++ {
		best := candidate{cost: route20.Infc, hop: route20.Infh}
		for col := 0; col < route20.NC+route20.NBRA+1; col++ {
			cost := db.ACost[area][col]
			hop := db.AHop[area][col]
			if cost >= route20.Infc || hop >= route20.Infh {
				continue
			}
			slot, addr, isAdj := db.Lookup(l2db.Output(col))
			if isAdj {
				attached = true
			}
			cand := candidate{cost: cost, hop: hop, slot: slot, addr: addr, isAdj: isAdj, output: col, valid: true}
			if !best.valid || less(cand, best) {
				best = cand
			}
		}

		prevMincost := db.AMincost[area]
		prevMinhop := db.AMinhop[area]
		prevOA, prevHasOA := db.AOA[area], db.HasAOA[area]

		if best.valid {
			db.AMincost[area] = best.cost
			db.AMinhop[area] = best.hop
			db.AOA[area] = l2db.Output(best.output)
			db.HasAOA[area] = true
		} else {
			db.AMincost[area] = route20.Infc
			db.AMinhop[area] = route20.Infh
			db.HasAOA[area] = false
		}

		if db.AMincost[area] != prevMincost || db.AMinhop[area] != prevMinhop ||
			db.HasAOA[area] != prevHasOA || (db.HasAOA[area] && db.AOA[area] != prevOA) {
			changed = append(changed, area)
			db.MarkSrm(area, circuits, 0)
		}
	}
	db.AttachedFlg = attached
	return changed
}
