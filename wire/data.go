package wire

// ShortDataPacket is the short-form data packet format used for
// intra-area (Level 1) forwarding between Phase IV nodes (spec.md 4.1).
type ShortDataPacket struct {
	DstNode uint16
	SrcNode uint16
	Visits  byte
	Payload []byte
}

func (p ShortDataPacket) Encode() []byte {
	w := &writer{}
	w.byte(0) // bit0 clear: data packet, short form
	w.uint16(p.DstNode)
	w.uint16(p.SrcNode)
	w.byte(p.Visits)
	w.bytes(p.Payload)
	return w.Bytes()
}

func DecodeShortData(b []byte) (ShortDataPacket, error) {
	r := newReader(b)
	flags, err := r.byte()
	if err != nil {
		return ShortDataPacket{}, err
	}
	if isControlMessage(flags) || flags&flagDataLongForm != 0 {
		return ShortDataPacket{}, malformed("not a short-form data packet")
	}
	dst, err := r.uint16()
	if err != nil {
		return ShortDataPacket{}, err
	}
	src, err := r.uint16()
	if err != nil {
		return ShortDataPacket{}, err
	}
	visits, err := r.byte()
	if err != nil {
		return ShortDataPacket{}, err
	}
	payload, err := r.bytes(r.remaining())
	if err != nil {
		return ShortDataPacket{}, err
	}
	return ShortDataPacket{DstNode: dst, SrcNode: src, Visits: visits, Payload: payload}, nil
}

// NSPAddress is the (area, node) address carried for source and
// destination in the long-form data packet (spec.md 4.1).
type NSPAddress struct {
	Area uint8
	Node uint16
}

// LongDataPacket is the long-form data packet format, used whenever the
// destination may be in a different area (spec.md 4.1, 4.10).
type LongDataPacket struct {
	DstArea     uint8
	DstSubnet   uint8
	SrcArea     uint8
	SrcSubnet   uint8
	Dst         NSPAddress
	Src         NSPAddress
	ServiceCls  byte
	ProtocolTy  byte
	Visits      byte
	Payload     []byte
}

func (p LongDataPacket) Encode() []byte {
	w := &writer{}
	w.byte(flagDataLongForm) // bit0 clear: data, bit1 set: long form
	w.byte(p.DstArea)
	w.byte(p.DstSubnet)
	w.byte(p.SrcArea)
	w.byte(p.SrcSubnet)
	w.uint16(encodeNSP(p.Dst))
	w.uint16(encodeNSP(p.Src))
	w.byte(p.ServiceCls)
	w.byte(p.ProtocolTy)
	w.byte(p.Visits)
	w.bytes(p.Payload)
	return w.Bytes()
}

func encodeNSP(a NSPAddress) uint16 {
	return (uint16(a.Area) << 10) | (a.Node & 0x3FF)
}

func decodeNSP(v uint16) NSPAddress {
	return NSPAddress{Area: uint8(v >> 10), Node: v & 0x3FF}
}

func DecodeLongData(b []byte) (LongDataPacket, error) {
	r := newReader(b)
	flags, err := r.byte()
	if err != nil {
		return LongDataPacket{}, err
	}
	if isControlMessage(flags) || flags&flagDataLongForm == 0 {
		return LongDataPacket{}, malformed("not a long-form data packet")
	}
	dstArea, err := r.byte()
	if err != nil {
		return LongDataPacket{}, err
	}
	dstSubnet, err := r.byte()
	if err != nil {
		return LongDataPacket{}, err
	}
	srcArea, err := r.byte()
	if err != nil {
		return LongDataPacket{}, err
	}
	srcSubnet, err := r.byte()
	if err != nil {
		return LongDataPacket{}, err
	}
	dst, err := r.uint16()
	if err != nil {
		return LongDataPacket{}, err
	}
	src, err := r.uint16()
	if err != nil {
		return LongDataPacket{}, err
	}
	svc, err := r.byte()
	if err != nil {
		return LongDataPacket{}, err
	}
	proto, err := r.byte()
	if err != nil {
		return LongDataPacket{}, err
	}
	visits, err := r.byte()
	if err != nil {
		return LongDataPacket{}, err
	}
	payload, err := r.bytes(r.remaining())
	if err != nil {
		return LongDataPacket{}, err
	}
	return LongDataPacket{
		DstArea: dstArea, DstSubnet: dstSubnet, SrcArea: srcArea, SrcSubnet: srcSubnet,
		Dst: decodeNSP(dst), Src: decodeNSP(src),
		ServiceCls: svc, ProtocolTy: proto, Visits: visits, Payload: payload,
	}, nil
}
