// File: api/types.go
//
// Shared API-level type declarations: the fixed-size Payload record,
// the MAC address type, and the protocol variant tag. Everything else
// in the module depends on this package; it depends on nothing but
// the standard library.

package api

import "fmt"

// MaxPayload is the largest application payload a single frame can
// carry (spec §3).
const MaxPayload = 1024

// Payload is a fixed-capacity application record. Size must never
// exceed MaxPayload; the zero value is a legal, empty Payload.
type Payload struct {
	Size uint16
	Data [MaxPayload]byte
}

// Bytes returns a view of the payload's valid prefix.
func (p *Payload) Bytes() []byte {
	return p.Data[:p.Size]
}

// SetBytes copies src into the payload, failing if it does not fit.
func (p *Payload) SetBytes(src []byte) error {
	if len(src) > MaxPayload {
		return NewError(ErrCodeInvalidArgument, fmt.Sprintf("payload of %d bytes exceeds MaxPayload (%d)", len(src), MaxPayload))
	}
	p.Size = uint16(len(src))
	copy(p.Data[:p.Size], src)
	return nil
}

// MAC is an Ethernet hardware address.
type MAC [6]byte

// Broadcast is the all-ones MAC used before any peer has been learned.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Variant distinguishes the unreliable (URP) and reliable (SRP)
// endpoint flavors, which share the bootstrap and framing skeleton but
// differ in EtherType, opcode set, and TX/RX engine behavior.
type Variant int

const (
	VariantURP Variant = iota
	VariantSRP
)

func (v Variant) String() string {
	switch v {
	case VariantURP:
		return "URP"
	case VariantSRP:
		return "SRP"
	default:
		return "unknown"
	}
}
