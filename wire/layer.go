package wire

import (
	"encoding/binary"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/flowplane/l2rp/api"
)

// Header is the 10-byte header this protocol carries immediately after
// the Ethernet header (spec §4.2's table, offsets 14..24). It follows
// layers.Ethernet's own shape: a BaseLayer plus fixed big-endian
// fields, encoded with SerializeTo and decoded with DecodeFromBytes so
// it composes with gopacket.SerializeLayers the same way the pack's
// gopacket-based encoders do.
type Header struct {
	layers.BaseLayer
	Seq        uint32
	Version    uint16
	Opcode     uint16
	PayloadLen uint16
}

// LayerType satisfies gopacket.SerializableLayer. The custom header
// has no place in gopacket's global layer-type registry (it dispatches
// by well-known EtherTypes only), so it reports itself as raw payload
// for the purposes of that interface; this does not affect the bytes
// SerializeTo produces.
func (h *Header) LayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// SerializeTo writes the header immediately in front of whatever has
// already been serialized (the payload, via gopacket.Payload).
func (h *Header) SerializeTo(b gopacket.SerializeBuffer, _ gopacket.SerializeOptions) error {
	buf, err := b.PrependBytes(HeaderLen)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[0:4], h.Seq)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.Opcode)
	binary.BigEndian.PutUint16(buf[8:10], h.PayloadLen)
	return nil
}

// DecodeFromBytes parses the header out of data, leaving the
// remainder addressable via Payload() without copying.
func (h *Header) DecodeFromBytes(data []byte) error {
	if len(data) < HeaderLen {
		return api.Wrap(api.ErrCodeWireFormat, api.ErrMalformedFrame, "l2 header truncated")
	}
	h.Seq = binary.BigEndian.Uint32(data[0:4])
	h.Version = binary.BigEndian.Uint16(data[4:6])
	h.Opcode = binary.BigEndian.Uint16(data[6:8])
	h.PayloadLen = binary.BigEndian.Uint16(data[8:10])
	h.BaseLayer = layers.BaseLayer{Contents: data[:HeaderLen], Payload: data[HeaderLen:]}
	return nil
}
