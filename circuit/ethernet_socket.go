package circuit

import (
	"net"

	route20 "github.com/rjarratt/Route20-sub001"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// EthernetSocketLink is the UDP-encapsulated Ethernet datalink
// collaborator: it tunnels framed DECnet traffic over a UDP socket to a
// peer's receivePort, for hosts with no raw-capture access (spec.md 6,
// the "EthernetSocket" circuit kind).
type EthernetSocketLink struct {
	receivePort   int
	destHost      string
	destPort      int
	conn          *net.UDPConn
	log           *zap.Logger
}

// NewEthernetSocketLink creates a UDP-encapsulated Ethernet datalink.
func NewEthernetSocketLink(receivePort int, destHost string, destPort int, log *zap.Logger) *EthernetSocketLink {
	return &EthernetSocketLink{receivePort: receivePort, destHost: destHost, destPort: destPort, log: log}
}

func (e *EthernetSocketLink) Open() bool {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: e.receivePort})
	if err != nil {
		e.log.Error("udp listen failed", zap.Int("port", e.receivePort), zap.Error(err))
		return false
	}
	if raw, err := conn.SyscallConn(); err == nil {
		// Allow fast rebinding across restarts, the same courtesy the
		// pcap-based link gets for free from libpcap.
		_ = raw.Control(func(fd uintptr) {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		})
	}
	e.conn = conn
	return true
}

func (e *EthernetSocketLink) Start() bool {
	return e.conn != nil
}

func (e *EthernetSocketLink) ReadPacket() (*Packet, bool) {
	if e.conn == nil {
		return nil, false
	}
	buf := make([]byte, 1600)
	n, _, err := e.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, false
	}
	return &Packet{Data: buf[:n]}, true
}

func (e *EthernetSocketLink) WritePacket(from, to route20.Address, packet []byte, isHello bool) bool {
	if e.conn == nil {
		return false
	}
	dst := &net.UDPAddr{IP: net.ParseIP(e.destHost), Port: e.destPort}
	_, err := e.conn.WriteToUDP(packet, dst)
	return err == nil
}

func (e *EthernetSocketLink) Close() {
	if e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}
}
