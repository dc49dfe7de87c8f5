// Package initlayer implements the initialization layer (spec.md 4.4):
// periodic hello emission and designated-router election on Ethernet
// circuits, and the three-way handshake state machine on point-to-point
// circuits, grounded on original_source/Dev/Route20/eth_init_layer.c and
// the point-to-point circuit handling in original_source/Dev/Route20/circuit.c.
package initlayer

import (
	"time"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/adjacency"
	"github.com/rjarratt/Route20-sub001/circuit"
	"github.com/rjarratt/Route20-sub001/wire"
	"go.uber.org/zap"
)

func nodeTypeFor(l route20.Level) wire.NodeType {
	if l == route20.Level2 {
		return wire.NodeTypeL2Router
	}
	return wire.NodeTypeL1Router
}

// EthernetInit drives hello emission and designated-router election on one
// Ethernet circuit.
type EthernetInit struct {
	Circuit     *circuit.Circuit
	Self        route20.NodeInfo
	Adjacencies *adjacency.Table
	Log         *zap.Logger

	pendingSet    bool
	pendingWinner bool // true if the pending winner is self
	pendingSince  time.Time
}

// NewEthernetInit creates the hello/election driver for one Ethernet
// circuit.
func NewEthernetInit(c *circuit.Circuit, self route20.NodeInfo, adj *adjacency.Table, log *zap.Logger) *EthernetInit {
	return &EthernetInit{Circuit: c, Self: self, Adjacencies: adj, Log: log}
}

func (e *EthernetInit) adjacencySummaries() []wire.AdjacencySummary {
	var out []wire.AdjacencySummary
	e.Adjacencies.ForEachRouter(e.Circuit.Slot, func(a *adjacency.Adjacency) {
		out = append(out, wire.AdjacencySummary{RouterID: a.ID.Node, PriorityHold: (a.Priority & 0x7f) | 0x80})
	})
	return out
}

// SendHello broadcasts a router hello to All-Routers, and, if this
// circuit's designated router is this node, also broadcasts it to
// All-Endnodes so end nodes (which do not listen to All-Routers) learn
// their designated router (spec.md 4.1, 4.4).
func (e *EthernetInit) SendHello() {
	msg := wire.EthernetRouterHello{
		SrcNode:     e.Self.Address.Node,
		NodeType:    nodeTypeFor(e.Self.Level),
		BlkSize:     1498,
		Priority:    e.Self.Priority,
		Area:        e.Self.Address.Area,
		Timer:       route20.BCT1Seconds,
		Adjacencies: e.adjacencySummaries(),
	}
	data := msg.Encode()
	e.Circuit.WritePacket(e.Self.Address, route20.Address{}, data, true)
	if e.Circuit.IsDesignatedRouter {
		e.Circuit.WritePacket(e.Self.Address, route20.Address{}, data, false)
	}
}

// HandleRouterHello records the sender as a router adjacency and
// re-evaluates the designated router.
func (e *EthernetInit) HandleRouterHello(msg wire.EthernetRouterHello, now time.Time) error {
	addr := route20.Address{Area: msg.Area, Node: msg.SrcNode}
	typ := adjacency.L1Router
	if msg.NodeType == wire.NodeTypeL2Router {
		typ = adjacency.L2Router
	}
	listener := time.Duration(msg.Timer) * time.Duration(route20.BCT3MULT) * time.Second
	if _, err := e.Adjacencies.Upsert(e.Circuit, addr, msg.Priority, typ, listener, now); err != nil {
		return err
	}
	e.Recompute(now)
	return nil
}

// HandleEndnodeHello records the sender as an end-node adjacency.
func (e *EthernetInit) HandleEndnodeHello(msg wire.EthernetEndnodeHello, now time.Time) error {
	addr := route20.Address{Area: msg.Area, Node: msg.SrcNode}
	listener := time.Duration(msg.Timer) * time.Duration(route20.BCT3MULT) * time.Second
	_, err := e.Adjacencies.Upsert(e.Circuit, addr, 0, adjacency.Endnode, listener, now)
	return err
}

// candidate compares router adjacencies for the designated-router prize:
// highest priority wins, ties broken by lowest node number (spec.md 4.4:
// among equal maximum priority, the peer with peer.id.node > local.id.node
// defers, so the lowest node id is the designated router).
type candidate struct {
	priority uint8
	addr     route20.Address
	isSelf   bool
}

func higher(a, b candidate) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.addr.Node < b.addr.Node
}

// Recompute re-evaluates the circuit's designated-router candidacy.
// Rather than flip on every transient change, a new winner must stay the
// winner across DRDELAY seconds of successive calls before the flip is
// committed (spec.md 4.4's DRDELAY hysteresis, avoiding router flap during
// simultaneous startup).
func (e *EthernetInit) Recompute(now time.Time) {
	best := candidate{priority: e.Self.Priority, addr: e.Self.Address, isSelf: true}
	e.Adjacencies.ForEachRouter(e.Circuit.Slot, func(a *adjacency.Adjacency) {
		cand := candidate{priority: a.Priority, addr: a.ID}
		if higher(cand, best) {
			best = cand
		}
	})

	if best.isSelf == e.Circuit.IsDesignatedRouter {
		e.pendingSet = false
		return
	}

	if !e.pendingSet || e.pendingWinner != best.isSelf {
		e.pendingSet = true
		e.pendingWinner = best.isSelf
		e.pendingSince = now
		return
	}

	if now.Sub(e.pendingSince) < route20.DRDELAYSeconds*time.Second {
		return
	}

	e.Circuit.IsDesignatedRouter = best.isSelf
	e.pendingSet = false
	if e.Log != nil {
		e.Log.Info("designated router changed",
			zap.String("circuit", e.Circuit.Name), zap.Bool("self", best.isSelf))
	}
}
