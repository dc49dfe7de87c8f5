// Package route20 provides the shared addressing and architectural
// constants used by every layer of the routing engine.
package route20

import "strconv"

// Architectural constants from the DNA Phase IV routing specification.
// Mirrors original_source/Dev/Route20/constants.h.
const (
	NA   = 63   // max areas
	NN   = 1023 // max nodes per area
	NC   = 16   // max circuits
	NBRA = 33   // broadcast routing adjacencies
	NBEA = 1024 // broadcast end-node adjacencies

	Infh = 31
	Infc = 1023
	Maxh = 30
	Maxc = 1022
	Maxv = 31

	DRDELAYSeconds = 5
	T1Seconds      = 600
	BCT1Seconds    = 180
	BCT3MULT       = 3
	T2Seconds      = 1

	LevelOneBatchSize = 32 // must be an integral factor of NN+1
)

// Level identifies whether a node or circuit participates in intra-area
// (Level 1) or inter-area (Level 2) routing.
type Level int

const (
	Level1 Level = 1
	Level2 Level = 2
)

// Address is a DECnet Phase IV address: a 1..63 area and a 1..1023 node.
type Address struct {
	Area uint8
	Node uint16
}

// Valid reports whether the address falls within the Phase IV address space.
func (a Address) Valid() bool {
	return a.Area >= 1 && a.Area <= NA && a.Node >= 1 && a.Node <= NN
}

func (a Address) String() string {
	return strconv.Itoa(int(a.Area)) + "." + strconv.Itoa(int(a.Node))
}

// Encode packs the address into the 16-bit little-endian wire form used by
// short-form data packets: 10 bits of node, 6 bits of area.
func (a Address) Encode() uint16 {
	return (uint16(a.Area) << 10) | (a.Node & 0x3FF)
}

// DecodeAddress unpacks a 16-bit wire-form address.
func DecodeAddress(v uint16) Address {
	return Address{Area: uint8(v >> 10), Node: v & 0x3FF}
}
