package circuit

import (
	"encoding/binary"
	"net"
	"strconv"

	route20 "github.com/rjarratt/Route20-sub001"
	"go.uber.org/zap"
)

// DDCMPSocketLink is the DDCMP-over-TCP point-to-point datalink
// collaborator (spec.md 6): frames are length-prefixed (2-byte
// little-endian count) over a plain TCP stream, standing in for a real
// DDCMP serial line the way the teacher's pack stands BGP up over TCP.
type DDCMPSocketLink struct {
	destHost string
	destPort int
	conn     net.Conn
	log      *zap.Logger
}

// NewDDCMPSocketLink creates a DDCMP-over-TCP datalink to the given peer.
func NewDDCMPSocketLink(destHost string, destPort int, log *zap.Logger) *DDCMPSocketLink {
	return &DDCMPSocketLink{destHost: destHost, destPort: destPort, log: log}
}

func (d *DDCMPSocketLink) Open() bool {
	return true // dial is attempted lazily by Start, mirroring p-p circuit retry behavior
}

func (d *DDCMPSocketLink) Start() bool {
	addr := net.JoinHostPort(d.destHost, strconv.Itoa(d.destPort))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		d.log.Warn("ddcmp dial failed", zap.String("addr", addr), zap.Error(err))
		return false
	}
	d.conn = conn
	return true
}

func (d *DDCMPSocketLink) ReadPacket() (*Packet, bool) {
	if d.conn == nil {
		return nil, false
	}
	var lenBuf [2]byte
	if _, err := readFull(d.conn, lenBuf[:]); err != nil {
		return nil, false
	}
	n := binary.LittleEndian.Uint16(lenBuf[:])
	buf := make([]byte, n)
	if _, err := readFull(d.conn, buf); err != nil {
		return nil, false
	}
	return &Packet{Data: buf}, true
}

func (d *DDCMPSocketLink) WritePacket(from, to route20.Address, packet []byte, isHello bool) bool {
	if d.conn == nil {
		return false
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(packet)))
	if _, err := d.conn.Write(lenBuf[:]); err != nil {
		return false
	}
	_, err := d.conn.Write(packet)
	return err == nil
}

func (d *DDCMPSocketLink) Close() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
