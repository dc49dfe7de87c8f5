package wire

// RouterHelloVersion is the fixed version triplet advertised in every
// Ethernet router hello (spec.md 4.1).
var RouterHelloVersion = [3]byte{2, 0, 0}

// AdjacencySummary is one entry of the MCS-format adjacency list carried
// in an Ethernet router hello: a neighbor id plus its priority and
// two/three-way state, per spec.md 4.1 and the open question in spec.md 9
// (the receiver ignores endnode entries either way, so Route20 always
// advertises the full routing-adjacency list per the DNA specification).
type AdjacencySummary struct {
	RouterID     uint16 // node number of the neighbor
	PriorityHold byte   // priority in low 7 bits, two-way flag in bit 7
}

// EthernetRouterHello is broadcast periodically (BCT1) by every router on
// an Ethernet circuit (spec.md 4.1, 4.4).
type EthernetRouterHello struct {
	SrcNode     uint16
	NodeType    NodeType
	BlkSize     uint16
	Priority    uint8
	Area        uint8
	Timer       uint16
	Adjacencies []AdjacencySummary
}

func (m EthernetRouterHello) Encode() []byte {
	w := &writer{}
	w.byte(controlFlags(subtypeEthRouterHello))
	w.bytes(RouterHelloVersion[:])
	w.uint16(m.SrcNode)
	w.byte(byte(m.NodeType))
	w.uint16(m.BlkSize)
	w.byte(m.Priority)
	w.byte(m.Area)
	w.uint16(m.Timer)
	w.byte(byte(len(m.Adjacencies)))
	for _, a := range m.Adjacencies {
		w.uint16(a.RouterID)
		w.byte(a.PriorityHold)
	}
	return w.Bytes()
}

func DecodeEthernetRouterHello(b []byte) (EthernetRouterHello, error) {
	r := newReader(b)
	flags, err := r.byte()
	if err != nil {
		return EthernetRouterHello{}, err
	}
	if !isControlMessage(flags) || controlSubtype(flags) != subtypeEthRouterHello {
		return EthernetRouterHello{}, malformed("not an ethernet router hello")
	}
	ver, err := r.bytes(3)
	if err != nil {
		return EthernetRouterHello{}, err
	}
	if ver[0] != RouterHelloVersion[0] {
		return EthernetRouterHello{}, malformed("unsupported hello version")
	}
	src, err := r.uint16()
	if err != nil {
		return EthernetRouterHello{}, err
	}
	nt, err := r.byte()
	if err != nil {
		return EthernetRouterHello{}, err
	}
	blk, err := r.uint16()
	if err != nil {
		return EthernetRouterHello{}, err
	}
	prio, err := r.byte()
	if err != nil {
		return EthernetRouterHello{}, err
	}
	area, err := r.byte()
	if err != nil {
		return EthernetRouterHello{}, err
	}
	timer, err := r.uint16()
	if err != nil {
		return EthernetRouterHello{}, err
	}
	count, err := r.byte()
	if err != nil {
		return EthernetRouterHello{}, err
	}
	adj := make([]AdjacencySummary, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := r.uint16()
		if err != nil {
			return EthernetRouterHello{}, err
		}
		ph, err := r.byte()
		if err != nil {
			return EthernetRouterHello{}, err
		}
		adj = append(adj, AdjacencySummary{RouterID: id, PriorityHold: ph})
	}
	if nt > byte(NodeTypeEndnode) {
		return EthernetRouterHello{}, malformed("invalid node type")
	}
	return EthernetRouterHello{
		SrcNode: src, NodeType: NodeType(nt), BlkSize: blk, Priority: prio,
		Area: area, Timer: timer, Adjacencies: adj,
	}, nil
}

// EthernetEndnodeHello is broadcast periodically by end nodes; it carries
// no adjacency list (spec.md 4.1).
type EthernetEndnodeHello struct {
	SrcNode  uint16
	BlkSize  uint16
	Area     uint8
	Timer    uint16
	Neighbor uint16 // designated router this end node believes is current
}

func (m EthernetEndnodeHello) Encode() []byte {
	w := &writer{}
	w.byte(controlFlags(subtypeEthEndnodeHello))
	w.bytes(RouterHelloVersion[:])
	w.uint16(m.SrcNode)
	w.byte(byte(NodeTypeEndnode))
	w.uint16(m.BlkSize)
	w.byte(m.Area)
	w.uint16(m.Timer)
	w.uint16(m.Neighbor)
	return w.Bytes()
}

func DecodeEthernetEndnodeHello(b []byte) (EthernetEndnodeHello, error) {
	r := newReader(b)
	flags, err := r.byte()
	if err != nil {
		return EthernetEndnodeHello{}, err
	}
	if !isControlMessage(flags) || controlSubtype(flags) != subtypeEthEndnodeHello {
		return EthernetEndnodeHello{}, malformed("not an ethernet endnode hello")
	}
	if _, err := r.bytes(3); err != nil {
		return EthernetEndnodeHello{}, err
	}
	src, err := r.uint16()
	if err != nil {
		return EthernetEndnodeHello{}, err
	}
	if _, err := r.byte(); err != nil { // node type, always endnode
		return EthernetEndnodeHello{}, err
	}
	blk, err := r.uint16()
	if err != nil {
		return EthernetEndnodeHello{}, err
	}
	area, err := r.byte()
	if err != nil {
		return EthernetEndnodeHello{}, err
	}
	timer, err := r.uint16()
	if err != nil {
		return EthernetEndnodeHello{}, err
	}
	neighbor, err := r.uint16()
	if err != nil {
		return EthernetEndnodeHello{}, err
	}
	return EthernetEndnodeHello{SrcNode: src, BlkSize: blk, Area: area, Timer: timer, Neighbor: neighbor}, nil
}
