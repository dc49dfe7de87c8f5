package initlayer

import (
	"time"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/circuit"
	"github.com/rjarratt/Route20-sub001/wire"
	"go.uber.org/zap"
)

// p2pPhase is the point-to-point handshake's position, finer-grained than
// circuit.State: Halted before anything is sent, InitSent once this side's
// Initialization has gone out, VerificationSent once the peer's
// Initialization has been seen and this side's Verification has gone out,
// and Running once the peer's Verification arrives (spec.md 4.4's
// three-way handshake).
type p2pPhase int

const (
	phaseHalted p2pPhase = iota
	phaseInitSent
	phaseVerificationSent
	phaseRunning
)

// P2PInit drives the three-way handshake and steady-state hello/listener
// timers on one point-to-point circuit.
type P2PInit struct {
	Circuit *circuit.Circuit
	Self    route20.NodeInfo
	Log     *zap.Logger

	phase     p2pPhase
	lastHello time.Time
}

// NewP2PInit creates the handshake driver for one point-to-point circuit.
func NewP2PInit(c *circuit.Circuit, self route20.NodeInfo, log *zap.Logger) *P2PInit {
	return &P2PInit{Circuit: c, Self: self, Log: log}
}

// Start sends the initial Initialization message, entering InitSent.
func (p *P2PInit) Start(now time.Time) {
	p.phase = phaseInitSent
	p.lastHello = now
	p.sendInitialization()
}

func (p *P2PInit) sendInitialization() {
	msg := wire.InitializationMessage{
		SrcNode: p.Self.Address.Node, NodeType: nodeTypeFor(p.Self.Level),
		BlkSize: 1498, Timer: route20.T1Seconds,
	}
	p.Circuit.WritePacket(p.Self.Address, route20.Address{}, msg.Encode(), true)
}

func (p *P2PInit) sendVerification() {
	msg := wire.VerificationMessage{SrcNode: p.Self.Address.Node}
	p.Circuit.WritePacket(p.Self.Address, p.Circuit.AdjacentNode, msg.Encode(), false)
}

// sendTest emits the steady-state point-to-point hello.
func (p *P2PInit) sendTest() {
	msg := wire.TestMessage{SrcNode: p.Self.Address.Node}
	p.Circuit.WritePacket(p.Self.Address, p.Circuit.AdjacentNode, msg.Encode(), false)
}

// HandleInitialization processes a peer's Initialization message,
// recording its identity and negotiated timer, and answering with this
// side's own Initialization (if not already sent) followed by
// Verification (spec.md 4.4). Receiving Initialization in VerificationSent
// or Running is unexpected and rejects the circuit.
func (p *P2PInit) HandleInitialization(msg wire.InitializationMessage, now time.Time) {
	switch p.phase {
	case phaseHalted:
		p.phase = phaseInitSent
		p.sendInitialization()
		fallthrough
	case phaseInitSent:
		p.Circuit.AdjacentNode = route20.Address{Area: p.Self.Address.Area, Node: msg.SrcNode}
		p.Circuit.T3 = time.Duration(msg.Timer) * time.Second
		p.phase = phaseVerificationSent
		p.lastHello = now
		p.sendVerification()
	default:
		p.reject()
	}
}

// HandleVerification completes the handshake: once past InitSent, a
// Verification message brings the circuit to Running and marks it up.
// Any other phase is unexpected and rejects the circuit.
func (p *P2PInit) HandleVerification(msg wire.VerificationMessage, now time.Time) {
	if p.phase != phaseVerificationSent {
		p.reject()
		return
	}
	p.phase = phaseRunning
	p.lastHello = now
	p.Circuit.Up()
}

// HandleTest refreshes the listener timer once Running; arriving outside
// Running is unexpected and rejects the circuit.
func (p *P2PInit) HandleTest(msg wire.TestMessage, now time.Time) {
	if p.phase != phaseRunning {
		p.reject()
		return
	}
	p.lastHello = now
}

// SendHello emits the steady-state Test hello once Running; a no-op
// otherwise.
func (p *P2PInit) SendHello(now time.Time) {
	if p.phase != phaseRunning {
		return
	}
	p.sendTest()
}

// CheckListenerExpired rejects the circuit if no hello has been heard
// within BCT3MULT listener intervals of the negotiated T3, returning true
// if it did so.
func (p *P2PInit) CheckListenerExpired(now time.Time) bool {
	if p.phase != phaseRunning {
		return false
	}
	if now.Sub(p.lastHello) > p.Circuit.T3*time.Duration(route20.BCT3MULT) {
		p.reject()
		return true
	}
	return false
}

func (p *P2PInit) reject() {
	p.phase = phaseHalted
	p.Circuit.Reject()
}
