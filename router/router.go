// Package router wires every layer of the routing engine together into
// one running node and drives the single-threaded event loop (spec.md 5):
// a timer wheel for periodic work, and a bounded queue fed by one
// goroutine per circuit's blocking ReadPacket, so all state transitions
// happen on one goroutine without further locking. The queue is the
// single non-cooperative concurrency boundary: everything past Pop runs
// on the Run goroutine alone.
package router

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/adjacency"
	"github.com/rjarratt/Route20-sub001/areafwd"
	"github.com/rjarratt/Route20-sub001/circuit"
	"github.com/rjarratt/Route20-sub001/config"
	"github.com/rjarratt/Route20-sub001/decision"
	"github.com/rjarratt/Route20-sub001/forwarding"
	"github.com/rjarratt/Route20-sub001/initlayer"
	"github.com/rjarratt/Route20-sub001/l1db"
	"github.com/rjarratt/Route20-sub001/l2db"
	"github.com/rjarratt/Route20-sub001/logging"
	"github.com/rjarratt/Route20-sub001/metrics"
	"github.com/rjarratt/Route20-sub001/queue"
	"github.com/rjarratt/Route20-sub001/timer"
	"github.com/rjarratt/Route20-sub001/update"
	"github.com/rjarratt/Route20-sub001/wire"
	"go.uber.org/zap"
)

// inboundQueueCapacity bounds how many frames may wait between a
// circuit's reader goroutine and the Run loop before that circuit's
// reader starts dropping them. inboundBufSize seeds the queue's free
// pool at the Ethernet MTU; readLoop pushes its own already-allocated
// frames rather than drawing from the pool, so this only sizes buffers
// a future Get()-based producer would receive.
const (
	inboundQueueCapacity = 256
	inboundBufSize       = 1514
)

// encodeInbound and decodeInbound prefix a frame with its originating
// circuit slot so one shared queue.Queue can carry frames from every
// circuit's reader goroutine.
func encodeInbound(slot int, data []byte) []byte {
	buf := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(buf, uint16(slot))
	copy(buf[2:], data)
	return buf
}

func decodeInbound(item []byte) (slot int, data []byte) {
	return int(binary.LittleEndian.Uint16(item)), item[2:]
}

// Router is one running DECnet routing node.
type Router struct {
	Self        route20.NodeInfo
	Circuits    map[int]*circuit.Circuit
	Adjacencies *adjacency.Table
	L1          *l1db.Database
	L2          *l2db.Database
	AreaFwd     *areafwd.Table
	Update      *update.Scheduler
	Forwarding  *forwarding.Engine

	ethInit map[int]*initlayer.EthernetInit
	p2pInit map[int]*initlayer.P2PInit
	order   []int // circuit slots, in configuration order

	wheel   *timer.Wheel
	inbound *queue.Queue
	stop    chan struct{}
	logs    *logging.Factory
	log     *zap.Logger
}

func parseMAC(s string) ([6]byte, error) {
	var mac [6]byte
	raw, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil || len(raw) != 6 {
		return mac, fmt.Errorf("invalid MAC address %q", s)
	}
	copy(mac[:], raw)
	return mac, nil
}

// New builds a Router from cfg, constructing every configured circuit's
// datalink and the layers above it, but does not open or start anything
// (see Open).
func New(cfg *config.Config, logs *logging.Factory, deliver forwarding.Delivered) (*Router, error) {
	self := route20.NodeInfo{
		Address:  route20.Address{Area: cfg.Node.Area, Node: cfg.Node.Node},
		Level:    route20.Level(cfg.Node.Level),
		Priority: cfg.Node.Priority,
		Name:     cfg.Node.Name,
	}

	l1 := l1db.New(self.Address)
	l2 := l2db.New(self.Address.Area)
	af := areafwd.New(l2)
	adj := adjacency.New()

	r := &Router{
		Self:        self,
		Circuits:    make(map[int]*circuit.Circuit),
		Adjacencies: adj,
		L1:          l1,
		L2:          l2,
		AreaFwd:     af,
		Update:      update.New(l1, l2, self),
		ethInit:     make(map[int]*initlayer.EthernetInit),
		p2pInit:     make(map[int]*initlayer.P2PInit),
		wheel:       timer.NewWheel(),
		inbound:     queue.New(inboundQueueCapacity, inboundBufSize),
		stop:        make(chan struct{}),
		logs:        logs,
		log:         logs.For(logging.Circuit),
	}
	r.Forwarding = forwarding.New(l1, l2, af, self, r.Circuits, deliver)

	adj.OnChange = func() { r.recompute(time.Now()) }

	for i, cc := range cfg.Circuits {
		slot := i + 1
		var link circuit.Datalink
		var kind circuit.Kind
		switch cc.Kind {
		case "ethernet-pcap":
			mac, err := parseMAC(cc.LocalMAC)
			if err != nil {
				return nil, err
			}
			link = circuit.NewEthernetPcapLink(cc.Interface, mac, logs.For(logging.Circuit))
			kind = circuit.Ethernet
		case "ethernet-socket":
			link = circuit.NewEthernetSocketLink(cc.Receive, cc.DestHost, cc.DestPort, logs.For(logging.Circuit))
			kind = circuit.Ethernet
		case "ddcmp":
			link = circuit.NewDDCMPSocketLink(cc.DestHost, cc.DestPort, logs.For(logging.Circuit))
			kind = circuit.DDCMP
		default:
			return nil, fmt.Errorf("circuit %q: unknown kind %q", cc.Name, cc.Kind)
		}

		c := circuit.New(slot, cc.Name, kind, cc.Cost, link, logs.For(logging.Circuit), r.onCircuitStateChange)
		r.Circuits[slot] = c
		r.order = append(r.order, slot)

		if kind == circuit.Ethernet {
			r.ethInit[slot] = initlayer.NewEthernetInit(c, self, adj, logs.For(logging.EthInit))
		} else {
			r.p2pInit[slot] = initlayer.NewP2PInit(c, self, logs.For(logging.P2PInit))
		}
	}

	return r, nil
}

// recompute re-runs the decision process over the Level 1 database, and
// over the Level 2 database too when this node is a Level 2 router.
func (r *Router) recompute(now time.Time) {
	decision.RecomputeL1(r.L1, r.order)
	if r.Self.Level == route20.Level2 {
		decision.RecomputeL2(r.L2, r.order)
	}
}

// onCircuitStateChange evicts every adjacency on a circuit that just went
// down and releases its routing-database columns.
func (r *Router) onCircuitStateChange(c *circuit.Circuit) {
	if c.State != circuit.Off {
		return
	}
	removed := r.Adjacencies.RemoveAllOnCircuit(c.Slot)
	for _, a := range removed {
		metrics.AdjacencyDown.WithLabelValues(c.Name, "circuit-down").Inc()
		r.L1.ReleaseAdjacencyColumn(c.Slot, a.ID)
		r.L2.ReleaseAdjacencyColumn(c.Slot, a.ID)
	}
	r.recompute(time.Now())
}

// Open opens and starts every circuit's datalink, launching one reader
// goroutine per circuit to feed the shared inbound queue; this goroutine
// boundary is the only concurrency in the design (spec.md 5).
func (r *Router) Open() error {
	for _, slot := range r.order {
		c := r.Circuits[slot]
		if !c.Link.Open() {
			return fmt.Errorf("circuit %s: open failed", c.Name)
		}
		if !c.Link.Start() {
			return fmt.Errorf("circuit %s: start failed", c.Name)
		}
		c.Up()
		go r.readLoop(slot, c)

		if p, ok := r.p2pInit[slot]; ok {
			p.Start(time.Now())
		}
	}
	r.scheduleTimers()
	return nil
}

func (r *Router) readLoop(slot int, c *circuit.Circuit) {
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		pkt, ok := c.ReadPacket()
		if !ok {
			continue
		}
		if !r.inbound.Push(encodeInbound(slot, pkt.Data)) {
			metrics.PacketsDropped.WithLabelValues("queue-full").Inc()
		}
	}
}

func (r *Router) scheduleTimers() {
	now := time.Now()
	for _, slot := range r.order {
		slot := slot
		c := r.Circuits[slot]
		if _, ok := r.ethInit[slot]; ok {
			r.wheel.Create("hello", now.Add(time.Second), route20.BCT1Seconds*time.Second, slot, func(e *timer.Entry) {
				r.ethInit[slot].SendHello()
				r.wheel.Rearm(e)
			})
		} else if p, ok := r.p2pInit[slot]; ok {
			r.wheel.Create("p2p-hello", now.Add(time.Second), route20.T1Seconds*time.Second, slot, func(e *timer.Entry) {
				p.SendHello(time.Now())
				r.wheel.Rearm(e)
			})
		}
		r.wheel.Create("update", now.Add(2*time.Second), route20.T1Seconds*time.Second, slot, func(e *timer.Entry) {
			r.sendPeriodicUpdate(c)
			r.wheel.Rearm(e)
		})
	}
	r.wheel.Create("maintenance", now.Add(route20.T2Seconds*time.Second), route20.T2Seconds*time.Second, nil, func(e *timer.Entry) {
		r.maintenanceTick(time.Now())
		r.wheel.Rearm(e)
	})
}

// maintenanceTick sends any rate-limited Srm-triggered updates that are
// due and sweeps for expired adjacencies and point-to-point listener
// timeouts.
func (r *Router) maintenanceTick(now time.Time) {
	for _, slot := range r.order {
		if r.Update.Due(slot, now, false) {
			metrics.SrmTriggeredUpdates.WithLabelValues(r.Circuits[slot].Name).Inc()
			r.sendSrmTriggeredUpdate(r.Circuits[slot])
			r.Update.Send(slot, now)
		}
	}
	for _, a := range r.Adjacencies.Expire(now) {
		metrics.AdjacencyDown.WithLabelValues(a.Circuit.Name, "listener-timeout").Inc()
		r.L1.ReleaseAdjacencyColumn(a.Circuit.Slot, a.ID)
		r.L2.ReleaseAdjacencyColumn(a.Circuit.Slot, a.ID)
	}
	for slot, p := range r.p2pInit {
		_ = slot
		p.CheckListenerExpired(now)
	}
	r.recompute(now)
}

// sendFullLevel1Update emits every Level 1 batch for c once, unconditionally,
// and a Level 2 message too if this node participates in Level 2 routing.
// Used by the periodic T1 cycle, which always re-advertises the whole table.
func (r *Router) sendFullLevel1Update(c *circuit.Circuit) {
	r.sendLevel1Batches(c, true)
	if r.Self.Level == route20.Level2 {
		msg := r.Update.BuildLevel2Message(c)
		c.WritePacket(r.Self.Address, route20.Address{}, msg.Encode(), false)
	}
}

// sendSrmTriggeredUpdate emits only the Level 1 batches, and the Level 2
// message, that actually have a destination with a pending Srm bit for c —
// a single topology change re-advertises a small, targeted update instead
// of flooding the whole table on every circuit (spec.md 4.9).
func (r *Router) sendSrmTriggeredUpdate(c *circuit.Circuit) {
	r.sendLevel1Batches(c, false)
	if r.Self.Level == route20.Level2 && r.Update.L2SrmPending(c.Slot) {
		msg := r.Update.BuildLevel2Message(c)
		c.WritePacket(r.Self.Address, route20.Address{}, msg.Encode(), false)
	}
}

// sendLevel1Batches walks one full cycle of c's Level 1 batches, sending
// each one unconditionally when periodic is true, or only the batches
// that have a pending Srm bit otherwise.
func (r *Router) sendLevel1Batches(c *circuit.Circuit, periodic bool) {
	start := c.NextLevel1Node
	for {
		pending := periodic || r.Update.L1BatchPending(c)
		msg := r.Update.BuildLevel1Batch(c)
		if pending {
			c.WritePacket(r.Self.Address, route20.Address{}, msg.Encode(), false)
		}
		if c.NextLevel1Node == start {
			break
		}
	}
}

func (r *Router) sendPeriodicUpdate(c *circuit.Circuit) {
	r.sendFullLevel1Update(c)
	r.Update.Send(c.Slot, time.Now())
}

// Run processes inbound frames and timer expiry until stop is closed or
// ctx-equivalent Stop is called.
func (r *Router) Run() {
	for {
		for {
			item := r.inbound.Pop()
			if item == nil {
				break
			}
			slot, data := decodeInbound(item)
			r.handleFrame(slot, data)
		}

		now := time.Now()
		r.wheel.RunExpired(now)
		wait := r.wheel.SecondsUntilNextDue(time.Now())
		if wait < 0 {
			wait = 0
		}
		select {
		case <-r.stop:
			return
		case <-r.inbound.Notify():
		case <-time.After(wait):
		}
	}
}

// Stop signals Run and every reader goroutine to exit, and closes every
// circuit's datalink in reverse configuration order.
func (r *Router) Stop() {
	close(r.stop)
	for i := len(r.order) - 1; i >= 0; i-- {
		r.Circuits[r.order[i]].Link.Close()
	}
}

func (r *Router) handleFrame(slot int, data []byte) {
	c, ok := r.Circuits[slot]
	if !ok {
		return
	}
	kind := wire.Classify(data)
	switch kind {
	case wire.KindEthRouterHello:
		msg, err := wire.DecodeEthernetRouterHello(data)
		if err != nil {
			r.malformed(c)
			return
		}
		if e, ok := r.ethInit[slot]; ok {
			e.HandleRouterHello(msg, time.Now())
			r.ensureL1Column(slot, route20.Address{Area: msg.Area, Node: msg.SrcNode})
			if msg.NodeType == wire.NodeTypeL2Router {
				r.ensureL2Column(slot, route20.Address{Area: msg.Area, Node: msg.SrcNode})
			}
		}
	case wire.KindEthEndnodeHello:
		msg, err := wire.DecodeEthernetEndnodeHello(data)
		if err != nil {
			r.malformed(c)
			return
		}
		if e, ok := r.ethInit[slot]; ok {
			e.HandleEndnodeHello(msg, time.Now())
		}
	case wire.KindInitialization:
		msg, err := wire.DecodeInitialization(data)
		if err != nil {
			r.malformed(c)
			return
		}
		if p, ok := r.p2pInit[slot]; ok {
			p.HandleInitialization(msg, time.Now())
		}
	case wire.KindVerification:
		msg, err := wire.DecodeVerification(data)
		if err != nil {
			r.malformed(c)
			return
		}
		if p, ok := r.p2pInit[slot]; ok {
			p.HandleVerification(msg, time.Now())
		}
	case wire.KindTest:
		msg, err := wire.DecodeTest(data)
		if err != nil {
			r.malformed(c)
			return
		}
		if p, ok := r.p2pInit[slot]; ok {
			p.HandleTest(msg, time.Now())
		}
	case wire.KindL1Routing:
		msg, err := wire.DecodeLevel1Routing(data)
		if err != nil {
			r.malformed(c)
			return
		}
		output := r.outputFor(slot, msg.SrcNode)
		if update.ApplyLevel1Message(r.L1, output, uint16(c.Cost), msg) {
			r.recompute(time.Now())
		}
	case wire.KindL2Routing:
		msg, err := wire.DecodeLevel2Routing(data)
		if err != nil {
			r.malformed(c)
			return
		}
		output := l2db.Output(r.outputFor(slot, msg.SrcNode))
		if update.ApplyLevel2Message(r.L2, output, uint16(c.Cost), msg) {
			r.recompute(time.Now())
		}
	case wire.KindShortData, wire.KindLongData:
		if err := r.Forwarding.Forward(data); err != nil {
			metrics.PacketsDropped.WithLabelValues(err.Error()).Inc()
			return
		}
		metrics.PacketsForwarded.WithLabelValues(c.Name).Inc()
	default:
		r.malformed(c)
	}
}

// outputFor resolves the Level 1 output column a routing message arrived
// on: the circuit's own column for point-to-point circuits, or the
// sending adjacency's column for broadcast circuits.
func (r *Router) outputFor(slot int, srcNode uint16) l1db.Output {
	c := r.Circuits[slot]
	if !circuit.IsBroadcastCircuit(c) {
		return l1db.CircuitOutput(slot)
	}
	addr := route20.Address{Area: r.Self.Address.Area, Node: srcNode}
	out, ok := r.L1.AllocateAdjacencyColumn(slot, addr)
	if !ok {
		return l1db.CircuitOutput(slot)
	}
	return out
}

func (r *Router) ensureL1Column(slot int, addr route20.Address) {
	r.L1.AllocateAdjacencyColumn(slot, addr)
}

func (r *Router) ensureL2Column(slot int, addr route20.Address) {
	r.L2.AllocateAdjacencyColumn(slot, addr)
}

func (r *Router) malformed(c *circuit.Circuit) {
	metrics.MalformedMessages.WithLabelValues(c.Name).Inc()
}
