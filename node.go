package route20

// NodeInfo describes the local node's identity (spec.md 4.1); no
// original_source/node.h survives in the retrieval pack, so this is
// designed from spec.md alone in the teacher's plain-struct style.
type NodeInfo struct {
	Address  Address
	Level    Level
	Priority uint8 // 0..127, router priority on broadcast circuits
	Name     string
}

// FirstLevel1Node returns the id of the first node in the batch that
// contains the local node, aligned to LevelOneBatchSize. The update
// process always emits this batch first so peers see the local node
// reachable as quickly as possible (spec.md 4.9 / original
// routing_database.c commentary).
func (n NodeInfo) FirstLevel1Node() uint16 {
	return (n.Address.Node / LevelOneBatchSize) * LevelOneBatchSize
}

// Multicast addresses used on Ethernet circuits (spec.md 6).
var (
	AllRoutersAddress   = [6]byte{0xAB, 0x00, 0x00, 0x03, 0x00, 0x00}
	AllL2RoutersAddress = [6]byte{0x09, 0x00, 0x2B, 0x02, 0x00, 0x00}
	AllEndnodesAddress  = [6]byte{0xAB, 0x00, 0x00, 0x04, 0x00, 0x00}
)

// EthernetProtocolType is the EtherType used for DECnet routing frames.
const EthernetProtocolType = 0x6003
