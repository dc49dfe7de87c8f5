// Package forwarding implements the forwarding process (spec.md 4.10):
// deciding, for each arriving data packet, whether to deliver it locally,
// forward it toward another node in the local area, or forward it toward
// another area, incrementing and checking the visits count at each hop.
package forwarding

import (
	"errors"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/areafwd"
	"github.com/rjarratt/Route20-sub001/circuit"
	"github.com/rjarratt/Route20-sub001/l1db"
	"github.com/rjarratt/Route20-sub001/l2db"
	"github.com/rjarratt/Route20-sub001/wire"
)

// ErrMaxVisitsExceeded is returned when a packet's visits count would
// exceed Maxv, meaning it must be dropped rather than forwarded further
// (spec.md invariant 5).
var ErrMaxVisitsExceeded = errors.New("packet exceeded maximum visits")

// ErrNoRoute is returned when the destination has no output adjacency in
// the relevant database.
var ErrNoRoute = errors.New("no route to destination")

// ErrUnroutableCircuit is returned when the chosen output names a circuit
// slot the engine does not have registered, or when the write on the
// chosen circuit fails.
var ErrUnroutableCircuit = errors.New("output adjacency names an unknown circuit")

// Delivered is invoked with a payload that has arrived at its final
// destination, this node.
type Delivered func(payload []byte)

// Engine is the per-node forwarding process, consulting the Level 1 and
// Level 2 databases (and the area forwarding table derived from the
// latter) to choose an output for every packet that isn't addressed to
// this node.
type Engine struct {
	L1       *l1db.Database
	L2       *l2db.Database
	AreaFwd  *areafwd.Table
	Self     route20.NodeInfo
	Circuits map[int]*circuit.Circuit
	Deliver  Delivered
}

// New creates a forwarding engine over the given databases and circuit
// set (keyed by circuit slot).
func New(l1 *l1db.Database, l2 *l2db.Database, af *areafwd.Table, self route20.NodeInfo, circuits map[int]*circuit.Circuit, deliver Delivered) *Engine {
	return &Engine{L1: l1, L2: l2, AreaFwd: af, Self: self, Circuits: circuits, Deliver: deliver}
}

// lookupL1 resolves a Level 1 destination node to the circuit carrying it.
func (e *Engine) lookupL1(node uint16) (*circuit.Circuit, route20.Address, bool) {
	if !e.L1.HasOA[node] {
		return nil, route20.Address{}, false
	}
	slot, addr, _ := e.L1.Lookup(e.L1.OA[node])
	return e.Circuits[slot], addr, true
}

// lookupArea resolves a Level 2 destination area to the circuit carrying
// it, via the area forwarding table.
func (e *Engine) lookupArea(area uint8) (*circuit.Circuit, route20.Address, bool) {
	o, ok := e.AreaFwd.OutputAdjacency(area)
	if !ok {
		return nil, route20.Address{}, false
	}
	slot, addr, _ := e.L2.Lookup(o)
	return e.Circuits[slot], addr, true
}

// ForwardShort processes a decoded short-form (intra-area) data packet:
// local delivery if addressed to this node, otherwise a visits-checked
// hop toward DstNode via the Level 1 database.
func (e *Engine) ForwardShort(p wire.ShortDataPacket) error {
	if p.DstNode == e.Self.Address.Node {
		if e.Deliver != nil {
			e.Deliver(p.Payload)
		}
		return nil
	}

	visits := p.Visits + 1
	if visits > route20.Maxv {
		return ErrMaxVisitsExceeded
	}

	c, neighbor, ok := e.lookupL1(p.DstNode)
	if !ok {
		return ErrNoRoute
	}
	if c == nil {
		return ErrUnroutableCircuit
	}

	out := wire.ShortDataPacket{DstNode: p.DstNode, SrcNode: p.SrcNode, Visits: visits, Payload: p.Payload}
	dst := neighbor
	if dst == (route20.Address{}) {
		dst = route20.Address{Area: e.Self.Address.Area, Node: p.DstNode}
	}
	if !c.WritePacket(e.Self.Address, dst, out.Encode(), false) {
		return ErrUnroutableCircuit
	}
	return nil
}

// ForwardLong processes a decoded long-form data packet: local delivery
// if addressed to this node, an intra-area hop via the Level 1 database
// if the destination area matches this node's area, or an inter-area hop
// via the area forwarding table otherwise (spec.md 4.10).
func (e *Engine) ForwardLong(p wire.LongDataPacket) error {
	if p.DstArea == e.Self.Address.Area && p.Dst.Node == e.Self.Address.Node {
		if e.Deliver != nil {
			e.Deliver(p.Payload)
		}
		return nil
	}

	visits := p.Visits + 1
	if visits > route20.Maxv {
		return ErrMaxVisitsExceeded
	}

	var c *circuit.Circuit
	var neighbor route20.Address
	var ok bool
	if p.DstArea == e.Self.Address.Area {
		c, neighbor, ok = e.lookupL1(p.Dst.Node)
	} else {
		c, neighbor, ok = e.lookupArea(p.DstArea)
	}
	if !ok {
		return ErrNoRoute
	}
	if c == nil {
		return ErrUnroutableCircuit
	}

	out := p
	out.Visits = visits
	dst := neighbor
	if dst == (route20.Address{}) {
		dst = route20.Address{Area: p.DstArea, Node: p.Dst.Node}
	}
	if !c.WritePacket(e.Self.Address, dst, out.Encode(), false) {
		return ErrUnroutableCircuit
	}
	return nil
}

// Forward decodes a raw data packet (short or long form, as indicated by
// its flags byte) and dispatches to ForwardShort or ForwardLong.
func (e *Engine) Forward(data []byte) error {
	if short, err := wire.DecodeShortData(data); err == nil {
		return e.ForwardShort(short)
	}
	long, err := wire.DecodeLongData(data)
	if err != nil {
		return err
	}
	return e.ForwardLong(long)
}
