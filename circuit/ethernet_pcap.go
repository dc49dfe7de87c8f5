package circuit

import (
	route20 "github.com/rjarratt/Route20-sub001"
	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"go.uber.org/zap"
)

// EthernetPcapLink is the raw-Ethernet datalink collaborator: it captures
// and injects frames on a live interface via libpcap, carrying DECnet
// routing traffic under EthernetProtocolType (spec.md 6). This is the Go
// analogue of EthCircuitCreatePcap in original_source/Dev/Route20/eth_circuit.h.
type EthernetPcapLink struct {
	iface   string
	handle  *pcap.Handle
	local   [6]byte
	log     *zap.Logger
}

// NewEthernetPcapLink creates (but does not open) a pcap-backed Ethernet
// datalink on the named interface.
func NewEthernetPcapLink(iface string, localMAC [6]byte, log *zap.Logger) *EthernetPcapLink {
	return &EthernetPcapLink{iface: iface, local: localMAC, log: log}
}

func (e *EthernetPcapLink) Open() bool {
	handle, err := pcap.OpenLive(e.iface, 1600, true, pcap.BlockForever)
	if err != nil {
		e.log.Error("pcap open failed", zap.String("iface", e.iface), zap.Error(err))
		return false
	}
	filter := "ether proto 0x6003"
	if err := handle.SetBPFFilter(filter); err != nil {
		e.log.Error("pcap filter failed", zap.Error(err))
		handle.Close()
		return false
	}
	e.handle = handle
	return true
}

func (e *EthernetPcapLink) Start() bool {
	return e.handle != nil
}

func (e *EthernetPcapLink) ReadPacket() (*Packet, bool) {
	if e.handle == nil {
		return nil, false
	}
	data, _, err := e.handle.ReadPacketData()
	if err != nil {
		return nil, false
	}
	pkt := gopacket.NewPacket(data, gopacket.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	eth := pkt.LinkLayer()
	if eth == nil || len(eth.LayerPayload()) == 0 {
		return nil, false
	}
	return &Packet{Data: eth.LayerPayload()}, true
}

func (e *EthernetPcapLink) WritePacket(from, to route20.Address, packet []byte, isHello bool) bool {
	if e.handle == nil {
		return false
	}
	frame := buildEthernetFrame(e.local, destinationMAC(to, isHello), route20.EthernetProtocolType, packet)
	return e.handle.WritePacketData(frame) == nil
}

func (e *EthernetPcapLink) Close() {
	if e.handle != nil {
		e.handle.Close()
		e.handle = nil
	}
}

// destinationMAC resolves the Ethernet destination for a write: a zero
// (unaddressed) destination means a hello multicast, selected by isHello
// (all-routers for router hellos, all-endnodes for the designated
// router's end-node hellos); otherwise it is a real data packet, whose
// MAC is derived directly from the DECnet address using the Phase IV
// algorithmic mapping (AA-00-04-00-xx-yy, the 16-bit node address
// little-endian in the last two octets).
func destinationMAC(to route20.Address, isHello bool) [6]byte {
	if to == (route20.Address{}) {
		if isHello {
			return route20.AllRoutersAddress
		}
		return route20.AllEndnodesAddress
	}
	return macForAddress(to)
}

func macForAddress(a route20.Address) [6]byte {
	v := a.Encode()
	return [6]byte{0xAA, 0x00, 0x04, 0x00, byte(v), byte(v >> 8)}
}

func buildEthernetFrame(src, dst [6]byte, ethType uint16, payload []byte) []byte {
	frame := make([]byte, 14+len(payload))
	copy(frame[0:6], dst[:])
	copy(frame[6:12], src[:])
	frame[12] = byte(ethType >> 8)
	frame[13] = byte(ethType)
	copy(frame[14:], payload)
	return frame
}
