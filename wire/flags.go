package wire

// Control flags byte layout (first byte of every Phase IV routing-layer
// message). Bit 0 distinguishes a control message (routing-initialization
// sub-layer or update process traffic) from a data packet; for control
// messages bits 1-3 select the sub-type.
const (
	flagControl = 0x01

	subtypeShift = 1
	subtypeMask  = 0x07

	subtypeInitialization    = 0
	subtypeVerification      = 1
	subtypeTest              = 2 // point-to-point hello
	subtypeL1Routing         = 3
	subtypeL2Routing         = 4
	subtypeEthRouterHello    = 5
	subtypeEthEndnodeHello   = 6

	// Data packet flags (bit 0 clear): bit 1 selects long form.
	flagDataLongForm = 0x02
)

func controlFlags(subtype byte) byte {
	return flagControl | (subtype << subtypeShift)
}

func isControlMessage(flags byte) bool {
	return flags&flagControl != 0
}

func controlSubtype(flags byte) byte {
	return (flags >> subtypeShift) & subtypeMask
}

// MessageKind identifies what a raw frame decodes as, without fully
// decoding it, so a caller can dispatch to the right Decode function.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindInitialization
	KindVerification
	KindTest
	KindL1Routing
	KindL2Routing
	KindEthRouterHello
	KindEthEndnodeHello
	KindShortData
	KindLongData
)

// Classify inspects the leading flags byte of a frame and reports which
// kind of message it is, for the event loop to dispatch on before fully
// decoding.
func Classify(b []byte) MessageKind {
	if len(b) == 0 {
		return KindUnknown
	}
	flags := b[0]
	if !isControlMessage(flags) {
		if flags&flagDataLongForm != 0 {
			return KindLongData
		}
		return KindShortData
	}
	switch controlSubtype(flags) {
	case subtypeInitialization:
		return KindInitialization
	case subtypeVerification:
		return KindVerification
	case subtypeTest:
		return KindTest
	case subtypeL1Routing:
		return KindL1Routing
	case subtypeL2Routing:
		return KindL2Routing
	case subtypeEthRouterHello:
		return KindEthRouterHello
	case subtypeEthEndnodeHello:
		return KindEthEndnodeHello
	default:
		return KindUnknown
	}
}
