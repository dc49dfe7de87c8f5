package wire

// NodeType distinguishes router levels and end nodes in the tiinfo field
// of an Initialization message (spec.md 4.1).
type NodeType byte

const (
	NodeTypeL2Router NodeType = 0
	NodeTypeL1Router NodeType = 1
	NodeTypeEndnode  NodeType = 2
)

// InitializationMessage is sent first on a point-to-point circuit during
// the three-way handshake (spec.md 4.4).
type InitializationMessage struct {
	SrcNode  uint16
	NodeType NodeType
	BlkSize  uint16
	Timer    uint16 // seconds, peer's T3
}

func (m InitializationMessage) Encode() []byte {
	w := &writer{}
	w.byte(controlFlags(subtypeInitialization))
	w.uint16(m.SrcNode)
	w.byte(byte(m.NodeType))
	w.uint16(m.BlkSize)
	w.uint16(m.Timer)
	w.byte(0) // reserved
	return w.Bytes()
}

func DecodeInitialization(b []byte) (InitializationMessage, error) {
	r := newReader(b)
	flags, err := r.byte()
	if err != nil {
		return InitializationMessage{}, err
	}
	if !isControlMessage(flags) || controlSubtype(flags) != subtypeInitialization {
		return InitializationMessage{}, malformed("not an initialization message")
	}
	src, err := r.uint16()
	if err != nil {
		return InitializationMessage{}, err
	}
	nt, err := r.byte()
	if err != nil {
		return InitializationMessage{}, err
	}
	blk, err := r.uint16()
	if err != nil {
		return InitializationMessage{}, err
	}
	timer, err := r.uint16()
	if err != nil {
		return InitializationMessage{}, err
	}
	if _, err := r.byte(); err != nil { // reserved
		return InitializationMessage{}, err
	}
	if nt > byte(NodeTypeEndnode) {
		return InitializationMessage{}, malformed("invalid node type")
	}
	return InitializationMessage{SrcNode: src, NodeType: NodeType(nt), BlkSize: blk, Timer: timer}, nil
}

// VerificationMessage optionally follows Initialization when the circuit
// requires a verification function value (spec.md 4.4).
type VerificationMessage struct {
	SrcNode uint16
	Fcnval  []byte
}

func (m VerificationMessage) Encode() []byte {
	w := &writer{}
	w.byte(controlFlags(subtypeVerification))
	w.uint16(m.SrcNode)
	w.bytes(m.Fcnval)
	return w.Bytes()
}

func DecodeVerification(b []byte) (VerificationMessage, error) {
	r := newReader(b)
	flags, err := r.byte()
	if err != nil {
		return VerificationMessage{}, err
	}
	if !isControlMessage(flags) || controlSubtype(flags) != subtypeVerification {
		return VerificationMessage{}, malformed("not a verification message")
	}
	src, err := r.uint16()
	if err != nil {
		return VerificationMessage{}, err
	}
	fcn, err := r.bytes(r.remaining())
	if err != nil {
		return VerificationMessage{}, err
	}
	return VerificationMessage{SrcNode: src, Fcnval: fcn}, nil
}

// TestMessage is the periodic point-to-point hello exchanged once Running
// (spec.md 4.1, "Hello / Test (p-p)").
type TestMessage struct {
	SrcNode uint16
}

func (m TestMessage) Encode() []byte {
	w := &writer{}
	w.byte(controlFlags(subtypeTest))
	w.uint16(m.SrcNode)
	return w.Bytes()
}

func DecodeTest(b []byte) (TestMessage, error) {
	r := newReader(b)
	flags, err := r.byte()
	if err != nil {
		return TestMessage{}, err
	}
	if !isControlMessage(flags) || controlSubtype(flags) != subtypeTest {
		return TestMessage{}, malformed("not a test message")
	}
	src, err := r.uint16()
	if err != nil {
		return TestMessage{}, err
	}
	return TestMessage{SrcNode: src}, nil
}
