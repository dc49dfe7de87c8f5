// Package circuit implements the uniform circuit abstraction over
// Ethernet and point-to-point DDCMP datalinks (spec.md 4.2): a common
// Open/Start/ReadPacket/WritePacket/Close/Reject surface and the
// CircuitUp/CircuitDown/CircuitReject state-transition helpers, ported
// from original_source/Dev/Route20/circuit.c.
package circuit

import (
	"time"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/counter"
	"go.uber.org/zap"
)

// Kind is the datalink technology underlying a circuit.
type Kind int

const (
	Ethernet Kind = iota
	DDCMP
)

func (k Kind) String() string {
	if k == Ethernet {
		return "ethernet"
	}
	return "ddcmp"
}

// State is a circuit's position in its state machine (spec.md 4.11).
type State int

const (
	Off State = iota
	HelloSent // point-to-point only: Initialization sent, awaiting peer's
	Running   // point-to-point: three-way handshake complete
	Up        // Ethernet: datalink ready, no handshake required
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case HelloSent:
		return "hello-sent"
	case Running:
		return "running"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// Packet is a single frame read from or written to a datalink, together
// with the addressing the datalink already demultiplexed for us.
type Packet struct {
	From route20.Address
	Data []byte
}

// Datalink is the down-call surface a link-level driver (raw-Ethernet,
// UDP-encapsulated Ethernet, DDCMP-over-TCP) implements; the core never
// depends on which one (spec.md 6, 9: "sum type over circuit kinds").
type Datalink interface {
	Open() bool
	Start() bool
	ReadPacket() (*Packet, bool)
	WritePacket(from, to route20.Address, packet []byte, isHello bool) bool
	Close()
}

// Rejecter is implemented by point-to-point datalinks that support an
// explicit reject (as opposed to simply going down); spec.md 4.2.
type Rejecter interface {
	Reject()
}

// StateChangeFunc is invoked on every circuit state transition.
type StateChangeFunc func(c *Circuit)

// Circuit is one configured circuit slot (1..NC).
type Circuit struct {
	Slot int
	Name string
	Kind Kind
	Cost int

	State State
	Link  Datalink

	// Ethernet-only.
	IsDesignatedRouter bool

	// Point-to-point only: identity of the single adjacent node, known
	// once Running.
	AdjacentNode route20.Address

	// NextLevel1Node is this circuit's round-robin cursor into the node
	// id space for the update process (spec.md 3).
	NextLevel1Node uint16

	// T3 is the negotiated p-p hello/listener interval (from the peer's
	// Initialization timer field); zero until the handshake completes.
	T3 time.Duration

	// PacketsSent and PacketsReceived tally traffic on this circuit for
	// operational visibility, independent of the Prometheus counters
	// metrics keys by reason/circuit.
	PacketsSent     *counter.Counter
	PacketsReceived *counter.Counter

	onStateChange StateChangeFunc
	log           *zap.Logger
}

// New creates a circuit in the Off state.
func New(slot int, name string, kind Kind, cost int, link Datalink, log *zap.Logger, onStateChange StateChangeFunc) *Circuit {
	return &Circuit{
		Slot: slot, Name: name, Kind: kind, Cost: cost, Link: link,
		State: Off, log: log, onStateChange: onStateChange,
		PacketsSent:     counter.New(),
		PacketsReceived: counter.New(),
	}
}

// IsBroadcastCircuit reports whether c is a multi-access (Ethernet)
// circuit as opposed to point-to-point.
func IsBroadcastCircuit(c *Circuit) bool {
	return c.Kind == Ethernet
}

// Up transitions the circuit to its "ready to forward" state (Running for
// point-to-point, Up for Ethernet) and logs neighbor identity for
// point-to-point circuits, mirroring CircuitUp in circuit.c.
func (c *Circuit) Up() {
	if c.Kind == Ethernet {
		c.State = Up
		c.log.Info("circuit up", zap.String("circuit", c.Name))
	} else {
		c.State = Running
		c.log.Info("circuit up", zap.String("circuit", c.Name),
			zap.Stringer("adjacent_node", c.AdjacentNode))
	}
	if c.onStateChange != nil {
		c.onStateChange(c)
	}
}

// Down transitions the circuit to Off, mirroring CircuitDown.
func (c *Circuit) Down() {
	c.log.Info("circuit down", zap.String("circuit", c.Name))
	c.State = Off
	if c.onStateChange != nil {
		c.onStateChange(c)
	}
}

// Reject routes to the datalink's Reject if it implements Rejecter, else
// falls back to Down, mirroring CircuitReject.
func (c *Circuit) Reject() {
	if r, ok := c.Link.(Rejecter); ok {
		c.log.Info("circuit rejected", zap.String("circuit", c.Name))
		r.Reject()
		return
	}
	c.Down()
}

// WritePacket re-encodes nothing; it simply forwards to the datalink,
// keeping the from/to/isHello contract uniform across Ethernet and DDCMP
// (spec.md 4.2).
func (c *Circuit) WritePacket(from, to route20.Address, packet []byte, isHello bool) bool {
	ok := c.Link.WritePacket(from, to, packet, isHello)
	if !ok {
		c.log.Warn("datalink write failed", zap.String("circuit", c.Name))
		return false
	}
	c.PacketsSent.Increment()
	return true
}

// ReadPacket polls the datalink for the next available frame.
func (c *Circuit) ReadPacket() (*Packet, bool) {
	pkt, ok := c.Link.ReadPacket()
	if ok {
		c.PacketsReceived.Increment()
	}
	return pkt, ok
}
