package circuit

import (
	"testing"

	route20 "github.com/rjarratt/Route20-sub001"
	"go.uber.org/zap"
)

type fakeLink struct {
	opened, started bool
	rejected        bool
	reads           []*Packet
	written         [][]byte
}

func (f *fakeLink) Open() bool  { f.opened = true; return true }
func (f *fakeLink) Start() bool { f.started = true; return true }
func (f *fakeLink) ReadPacket() (*Packet, bool) {
	if len(f.reads) == 0 {
		return nil, false
	}
	p := f.reads[0]
	f.reads = f.reads[1:]
	return p, true
}
func (f *fakeLink) WritePacket(from, to route20.Address, packet []byte, isHello bool) bool {
	f.written = append(f.written, packet)
	return true
}
func (f *fakeLink) Close() {}
func (f *fakeLink) Reject() { f.rejected = true }

func TestNewCircuitStartsOff(t *testing.T) {
	c := New(1, "eth0", Ethernet, 1, &fakeLink{}, zap.NewNop(), nil)
	if c.State != Off {
		t.Fatalf("expected Off, got %v", c.State)
	}
}

func TestUpEthernetGoesToUp(t *testing.T) {
	var changed *Circuit
	c := New(1, "eth0", Ethernet, 1, &fakeLink{}, zap.NewNop(), func(cc *Circuit) { changed = cc })
	c.Up()
	if c.State != Up {
		t.Fatalf("expected Up, got %v", c.State)
	}
	if changed != c {
		t.Fatal("expected onStateChange to fire")
	}
}

func TestUpPointToPointGoesToRunning(t *testing.T) {
	c := New(2, "ddcmp0", DDCMP, 4, &fakeLink{}, zap.NewNop(), nil)
	c.Up()
	if c.State != Running {
		t.Fatalf("expected Running, got %v", c.State)
	}
}

func TestDownReturnsToOff(t *testing.T) {
	c := New(1, "eth0", Ethernet, 1, &fakeLink{}, zap.NewNop(), nil)
	c.Up()
	c.Down()
	if c.State != Off {
		t.Fatalf("expected Off, got %v", c.State)
	}
}

func TestRejectCallsRejecterWhenSupported(t *testing.T) {
	link := &fakeLink{}
	c := New(2, "ddcmp0", DDCMP, 4, link, zap.NewNop(), nil)
	c.Reject()
	if !link.rejected {
		t.Fatal("expected Reject to route to the datalink's Reject")
	}
	if c.State != Off {
		t.Fatalf("Reject should not itself change state without a Down call; got %v", c.State)
	}
}

func TestIsBroadcastCircuit(t *testing.T) {
	eth := New(1, "eth0", Ethernet, 1, &fakeLink{}, zap.NewNop(), nil)
	ddcmp := New(2, "ddcmp0", DDCMP, 4, &fakeLink{}, zap.NewNop(), nil)
	if !IsBroadcastCircuit(eth) {
		t.Fatal("expected Ethernet circuit to be broadcast")
	}
	if IsBroadcastCircuit(ddcmp) {
		t.Fatal("expected DDCMP circuit not to be broadcast")
	}
}

func TestWritePacketIncrementsSentCounter(t *testing.T) {
	c := New(1, "eth0", Ethernet, 1, &fakeLink{}, zap.NewNop(), nil)
	c.WritePacket(route20.Address{}, route20.Address{}, []byte{0x01}, false)
	c.WritePacket(route20.Address{}, route20.Address{}, []byte{0x02}, false)
	if c.PacketsSent.Value() != 2 {
		t.Fatalf("expected 2 sent packets, got %d", c.PacketsSent.Value())
	}
}

func TestReadPacketIncrementsReceivedCounter(t *testing.T) {
	link := &fakeLink{reads: []*Packet{{Data: []byte{0x01}}}}
	c := New(1, "eth0", Ethernet, 1, link, zap.NewNop(), nil)
	if _, ok := c.ReadPacket(); !ok {
		t.Fatal("expected a packet")
	}
	if c.PacketsReceived.Value() != 1 {
		t.Fatalf("expected 1 received packet, got %d", c.PacketsReceived.Value())
	}
	if _, ok := c.ReadPacket(); ok {
		t.Fatal("expected no more packets")
	}
	if c.PacketsReceived.Value() != 1 {
		t.Fatalf("expected received count to stay at 1, got %d", c.PacketsReceived.Value())
	}
}
