// Package wire implements the on-wire framing and parsing of the L2
// datagram protocol (spec §4.2 and §6): an Ethernet header followed by
// a custom 10-byte header, followed by the application payload.
//
// Ethernet encode/decode is delegated to gopacket/layers, the way
// firestige-Otus decodes captured Ethernet frames; the custom header
// that follows is not a protocol gopacket knows about, so it is
// hand-rolled as a gopacket.SerializableLayer in the same shape
// layers.Ethernet uses (a BaseLayer plus big-endian struct fields).
package wire

import "github.com/flowplane/l2rp/api"

// EtherType values (spec §4.2, §6).
const (
	EtherTypeSRP uint16 = 0x88B5
	EtherTypeURP uint16 = 0x88B6
)

// Opcodes (spec §4.2, §6).
const (
	OpcodeSRPData uint16 = 0x10
	OpcodeSRPAck  uint16 = 0x11
	OpcodeURPData uint16 = 0x20
)

// ProtocolVersion is the only version this endpoint speaks.
const ProtocolVersion uint16 = 1

const (
	// HeaderLen is the size of the custom header that follows the
	// Ethernet header: seq(4) + version(2) + opcode(2) + payload_len(2).
	HeaderLen = 10
	// EthernetHeaderLen is dst(6) + src(6) + ethertype(2).
	EthernetHeaderLen = 14
	// MinFrameLen is the smallest legal framed size: an ACK carries no
	// payload, so Ethernet header + custom header is the floor.
	MinFrameLen = EthernetHeaderLen + HeaderLen
)

// EtherTypeFor returns the EtherType for a protocol variant.
func EtherTypeFor(v api.Variant) uint16 {
	if v == api.VariantSRP {
		return EtherTypeSRP
	}
	return EtherTypeURP
}
