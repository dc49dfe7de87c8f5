package adjacency

import (
	"testing"
	"time"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/circuit"
	"go.uber.org/zap"
)

type fakeLink struct{}

func (fakeLink) Open() bool                                                         { return true }
func (fakeLink) Start() bool                                                        { return true }
func (fakeLink) ReadPacket() (*circuit.Packet, bool)                                { return nil, false }
func (fakeLink) WritePacket(from, to route20.Address, packet []byte, isHello bool) bool { return true }
func (fakeLink) Close()                                                             {}

func newEthernetCircuit(slot int) *circuit.Circuit {
	return circuit.New(slot, "eth0", circuit.Ethernet, 1, fakeLink{}, zap.NewNop(), nil)
}

func newP2PCircuit(slot int) *circuit.Circuit {
	return circuit.New(slot, "ddcmp0", circuit.DDCMP, 4, fakeLink{}, zap.NewNop(), nil)
}

func TestUpsertCreatesThenRefreshes(t *testing.T) {
	tbl := New()
	c := newEthernetCircuit(1)
	now := time.Now()
	a, err := tbl.Upsert(c, route20.Address{Area: 1, Node: 20}, 64, L1Router, time.Minute, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.ForCircuit(1)) != 1 {
		t.Fatalf("expected 1 adjacency, got %d", len(tbl.ForCircuit(1)))
	}

	later := now.Add(time.Second)
	b, err := tbl.Upsert(c, route20.Address{Area: 1, Node: 20}, 32, L1Router, time.Minute, later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatal("expected Upsert on the same ID to refresh, not duplicate")
	}
	if b.Priority != 32 {
		t.Fatalf("expected refreshed priority 32, got %d", b.Priority)
	}
	if len(tbl.ForCircuit(1)) != 1 {
		t.Fatalf("expected still 1 adjacency after refresh, got %d", len(tbl.ForCircuit(1)))
	}
}

func TestUpsertEnforcesPointToPointSingleNeighbor(t *testing.T) {
	tbl := New()
	c := newP2PCircuit(2)
	now := time.Now()
	if _, err := tbl.Upsert(c, route20.Address{Area: 1, Node: 20}, 0, L1Router, time.Minute, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tbl.Upsert(c, route20.Address{Area: 1, Node: 21}, 0, L1Router, time.Minute, now); err != ErrCapacityExceeded {
		t.Fatalf("expected ErrCapacityExceeded for a second p-p neighbor, got %v", err)
	}
}

func TestUpsertEnforcesBroadcastRouterCapacity(t *testing.T) {
	tbl := New()
	c := newEthernetCircuit(1)
	now := time.Now()
	for i := 0; i < route20.NBRA; i++ {
		addr := route20.Address{Area: 1, Node: uint16(i + 1)}
		if _, err := tbl.Upsert(c, addr, 0, L1Router, time.Minute, now); err != nil {
			t.Fatalf("unexpected error on router %d: %v", i, err)
		}
	}
	overflow := route20.Address{Area: 1, Node: uint16(route20.NBRA + 1)}
	if _, err := tbl.Upsert(c, overflow, 0, L1Router, time.Minute, now); err != ErrCapacityExceeded {
		t.Fatalf("expected ErrCapacityExceeded once NBRA routers are full, got %v", err)
	}
}

func TestOnChangeFiresOnlyForRouterTransitions(t *testing.T) {
	tbl := New()
	c := newEthernetCircuit(1)
	fired := 0
	tbl.OnChange = func() { fired++ }
	now := time.Now()

	if _, err := tbl.Upsert(c, route20.Address{Area: 1, Node: 20}, 0, Endnode, time.Minute, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fired != 0 {
		t.Fatalf("expected no OnChange for an end-node adjacency, got %d", fired)
	}

	if _, err := tbl.Upsert(c, route20.Address{Area: 1, Node: 21}, 0, L1Router, time.Minute, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected OnChange once for a router adjacency, got %d", fired)
	}
}

func TestRemoveAllOnCircuit(t *testing.T) {
	tbl := New()
	c := newEthernetCircuit(1)
	now := time.Now()
	tbl.Upsert(c, route20.Address{Area: 1, Node: 20}, 0, L1Router, time.Minute, now)
	tbl.Upsert(c, route20.Address{Area: 1, Node: 21}, 0, Endnode, time.Minute, now)

	removed := tbl.RemoveAllOnCircuit(1)
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed adjacencies, got %d", len(removed))
	}
	if len(tbl.ForCircuit(1)) != 0 {
		t.Fatal("expected no adjacencies left on the circuit")
	}
}

func TestExpireEvictsStaleAdjacenciesAndFiresOnChangeForRouters(t *testing.T) {
	tbl := New()
	c := newEthernetCircuit(1)
	fired := 0
	now := time.Now()
	tbl.Upsert(c, route20.Address{Area: 1, Node: 20}, 0, L1Router, time.Second, now)
	tbl.Upsert(c, route20.Address{Area: 1, Node: 21}, 0, Endnode, time.Hour, now)
	tbl.OnChange = func() { fired++ }

	expired := tbl.Expire(now.Add(2 * time.Second))
	if len(expired) != 1 || expired[0].ID.Node != 20 {
		t.Fatalf("expected only the router adjacency to expire, got %+v", expired)
	}
	if fired != 1 {
		t.Fatalf("expected OnChange once for the expired router, got %d", fired)
	}
	if len(tbl.ForCircuit(1)) != 1 {
		t.Fatalf("expected the end-node adjacency to remain, got %d", len(tbl.ForCircuit(1)))
	}
}
