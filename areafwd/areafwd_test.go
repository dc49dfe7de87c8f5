package areafwd

import (
	"testing"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/l2db"
)

func TestIsAreaReachableReflectsAMincost(t *testing.T) {
	l2 := l2db.New(1)
	tbl := New(l2)

	if !tbl.IsAreaReachable(1) {
		t.Fatal("expected the local area to be reachable by default")
	}
	if tbl.IsAreaReachable(2) {
		t.Fatal("expected an unreached area to be unreachable")
	}

	l2.AMincost[2] = 4
	if !tbl.IsAreaReachable(2) {
		t.Fatal("expected area 2 to become reachable once AMincost is finite")
	}
}

func TestIsAreaReachableRejectsOutOfRangeAreas(t *testing.T) {
	l2 := l2db.New(1)
	tbl := New(l2)

	if tbl.IsAreaReachable(0) {
		t.Fatal("expected area 0 to be rejected as out of range")
	}
	if tbl.IsAreaReachable(uint8(route20.NA + 1)) {
		t.Fatal("expected an area beyond NA to be rejected as out of range")
	}
}

func TestOutputAdjacencyReflectsAOA(t *testing.T) {
	l2 := l2db.New(1)
	tbl := New(l2)

	if _, ok := tbl.OutputAdjacency(3); ok {
		t.Fatal("expected no output adjacency before one is set")
	}

	out := l2db.CircuitOutput(2)
	l2.AOA[3] = out
	l2.HasAOA[3] = true

	got, ok := tbl.OutputAdjacency(3)
	if !ok {
		t.Fatal("expected an output adjacency once HasAOA is set")
	}
	if got != out {
		t.Fatalf("expected output %v, got %v", out, got)
	}
}

func TestOutputAdjacencyRejectsOutOfRangeAreas(t *testing.T) {
	l2 := l2db.New(1)
	tbl := New(l2)

	if _, ok := tbl.OutputAdjacency(0); ok {
		t.Fatal("expected area 0 to be rejected as out of range")
	}
	if _, ok := tbl.OutputAdjacency(uint8(route20.NA + 1)); ok {
		t.Fatal("expected an area beyond NA to be rejected as out of range")
	}
}
