package router

import (
	"testing"
	"time"

	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/rjarratt/Route20-sub001/adjacency"
	"github.com/rjarratt/Route20-sub001/areafwd"
	"github.com/rjarratt/Route20-sub001/circuit"
	"github.com/rjarratt/Route20-sub001/forwarding"
	"github.com/rjarratt/Route20-sub001/initlayer"
	"github.com/rjarratt/Route20-sub001/l1db"
	"github.com/rjarratt/Route20-sub001/l2db"
	"github.com/rjarratt/Route20-sub001/logging"
	"github.com/rjarratt/Route20-sub001/metrics"
	"github.com/rjarratt/Route20-sub001/update"
	"github.com/rjarratt/Route20-sub001/wire"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureLink struct {
	written [][]byte
}

func (c *captureLink) Open() bool  { return true }
func (c *captureLink) Start() bool { return true }
func (c *captureLink) ReadPacket() (*circuit.Packet, bool) {
	return nil, false
}
func (c *captureLink) WritePacket(from, to route20.Address, packet []byte, isHello bool) bool {
	c.written = append(c.written, packet)
	return true
}
func (c *captureLink) Close() {}

func newTestRouter(t *testing.T) (*Router, *captureLink) {
	t.Helper()
	logs, err := logging.New(nil)
	require.NoError(t, err)

	self := route20.NodeInfo{Address: route20.Address{Area: 1, Node: 10}, Level: route20.Level1}
	l1 := l1db.New(self.Address)
	l2 := l2db.New(self.Address.Area)
	af := areafwd.New(l2)
	adj := adjacency.New()

	link := &captureLink{}
	var delivered []byte
	r := &Router{
		Self:        self,
		Circuits:    make(map[int]*circuit.Circuit),
		Adjacencies: adj,
		L1:          l1,
		L2:          l2,
		AreaFwd:     af,
		Update:      update.New(l1, l2, self),
		ethInit:     make(map[int]*initlayer.EthernetInit),
		logs:        logs,
		log:         zap.NewNop(),
		stop:        make(chan struct{}),
	}
	c := circuit.New(2, "eth0", circuit.Ethernet, 1, link, zap.NewNop(), r.onCircuitStateChange)
	r.Circuits[2] = c
	r.order = []int{2}
	r.ethInit[2] = initlayer.NewEthernetInit(c, self, adj, zap.NewNop())
	r.Forwarding = forwarding.New(l1, l2, af, self, r.Circuits, func(p []byte) { delivered = append(delivered, p...) })
	return r, link
}

func TestHandleFrameAppliesLevel1Routing(t *testing.T) {
	r, _ := newTestRouter(t)
	msg := wire.RoutingMessage{Level: 1, SrcNode: 20, StartID: 5, Entries: []wire.RoutingEntry{{Hops: 0, Cost: 0}}}
	r.handleFrame(2, msg.Encode())

	out := r.outputFor(2, 20)
	assert.Equal(t, uint16(1), r.L1.Hop[5][out])
}

func TestHandleFrameForwardsDataPacket(t *testing.T) {
	r, link := newTestRouter(t)
	r.L1.UpdateEntry(30, l1db.CircuitOutput(2), 1, 1)
	r.L1.OA[30] = l1db.CircuitOutput(2)
	r.L1.HasOA[30] = true

	short := wire.ShortDataPacket{DstNode: 30, SrcNode: 10, Payload: []byte("x")}
	r.handleFrame(2, short.Encode())
	assert.Len(t, link.written, 1)
}

func TestHandleFrameMalformedIsCounted(t *testing.T) {
	r, _ := newTestRouter(t)
	malformedCount := func() float64 {
		m := &dto.Metric{}
		require.NoError(t, metrics.MalformedMessages.WithLabelValues("eth0").Write(m))
		return m.GetCounter().GetValue()
	}
	before := malformedCount()
	r.handleFrame(2, []byte{0xFF})
	assert.Equal(t, before+1, malformedCount())
}

func TestOnCircuitStateChangeReleasesColumns(t *testing.T) {
	r, _ := newTestRouter(t)
	hello := wire.EthernetRouterHello{SrcNode: 20, NodeType: wire.NodeTypeL1Router, BlkSize: 1498, Priority: 64, Area: 1, Timer: route20.BCT1Seconds}
	r.handleFrame(2, hello.Encode())

	require.Len(t, r.Adjacencies.ForCircuit(2), 1, "expected an adjacency to have been created")
	col, ok := r.L1.AllocateAdjacencyColumn(2, route20.Address{Area: 1, Node: 20})
	require.True(t, ok)

	r.Circuits[2].Down()

	assert.Empty(t, r.Adjacencies.ForCircuit(2), "expected the adjacency to be evicted on circuit down")
	_, _, isAdj := r.L1.Lookup(col)
	assert.False(t, isAdj, "expected the adjacency's Level 1 column to be released on circuit down")
}

func TestSendSrmTriggeredUpdateSendsOnlyPendingBatches(t *testing.T) {
	r, link := newTestRouter(t)
	c := r.Circuits[2]

	r.sendSrmTriggeredUpdate(c)
	assert.Empty(t, link.written, "expected no batches sent with no pending Srm bits")

	r.L1.Srm[5][2] = true
	r.sendSrmTriggeredUpdate(c)
	assert.Len(t, link.written, 1, "expected only the one batch containing the pending destination")
}

func TestSendFullLevel1UpdateSendsEveryBatchRegardless(t *testing.T) {
	r, link := newTestRouter(t)
	c := r.Circuits[2]

	r.sendFullLevel1Update(c)
	assert.Len(t, link.written, (route20.NN+1)/route20.LevelOneBatchSize, "expected every batch to be sent unconditionally")
}

func newP2PTestRouter(t *testing.T) (*Router, *captureLink) {
	t.Helper()
	logs, err := logging.New(nil)
	require.NoError(t, err)

	self := route20.NodeInfo{Address: route20.Address{Area: 1, Node: 10}, Level: route20.Level1}
	l1 := l1db.New(self.Address)
	l2 := l2db.New(self.Address.Area)
	af := areafwd.New(l2)
	adj := adjacency.New()

	link := &captureLink{}
	r := &Router{
		Self:        self,
		Circuits:    make(map[int]*circuit.Circuit),
		Adjacencies: adj,
		L1:          l1,
		L2:          l2,
		AreaFwd:     af,
		Update:      update.New(l1, l2, self),
		p2pInit:     make(map[int]*initlayer.P2PInit),
		logs:        logs,
		log:         zap.NewNop(),
		stop:        make(chan struct{}),
	}
	c := circuit.New(3, "ddcmp0", circuit.DDCMP, 4, link, zap.NewNop(), r.onCircuitStateChange)
	r.Circuits[3] = c
	r.order = []int{3}
	r.p2pInit[3] = initlayer.NewP2PInit(c, self, zap.NewNop())
	r.Forwarding = forwarding.New(l1, l2, af, self, r.Circuits, func(p []byte) {})
	return r, link
}

func TestHandleFrameDrivesP2PHandshakeToRunning(t *testing.T) {
	r, _ := newP2PTestRouter(t)
	now := time.Now()
	r.p2pInit[3].Start(now)

	init := wire.InitializationMessage{SrcNode: 20, NodeType: wire.NodeTypeL1Router, BlkSize: 1498, Timer: route20.T1Seconds}
	r.handleFrame(3, init.Encode())

	verify := wire.VerificationMessage{SrcNode: 20}
	r.handleFrame(3, verify.Encode())

	assert.Equal(t, circuit.Running, r.Circuits[3].State)
}
