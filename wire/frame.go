package wire

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/flowplane/l2rp/api"
)

var serializeOpts = gopacket.SerializeOptions{FixLengths: false, ComputeChecksums: false}

// Build serializes a complete frame: Ethernet header, custom L2
// header, and payload. unitSize pads the framed total up to the
// configured minimum (spec §4.2's "minimum framed size must be ≥
// configured unit_size"); dst must be preallocated large enough for
// unitSize bytes. Returns the number of bytes written.
func Build(dst []byte, dstMAC, srcMAC api.MAC, variant api.Variant, opcode uint16, seq uint32, payload *api.Payload, unitSize int) (int, error) {
	if payload != nil && int(payload.Size) > api.MaxPayload {
		return 0, api.Wrap(api.ErrCodeWireFormat, api.ErrPayloadTooLarge, "build: payload too large")
	}

	eth := &layers.Ethernet{
		DstMAC:       net.HardwareAddr(dstMAC[:]),
		SrcMAC:       net.HardwareAddr(srcMAC[:]),
		EthernetType: layers.EthernetType(EtherTypeFor(variant)),
	}
	var payloadLen int
	var payloadBytes []byte
	if payload != nil {
		payloadLen = int(payload.Size)
		payloadBytes = payload.Bytes()
	}
	hdr := &Header{
		Seq:        seq,
		Version:    ProtocolVersion,
		Opcode:     opcode,
		PayloadLen: uint16(payloadLen),
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, eth, hdr, gopacket.Payload(payloadBytes)); err != nil {
		return 0, api.Wrap(api.ErrCodeInternal, err, "build: serialize failed")
	}
	out := buf.Bytes()
	if len(out) > len(dst) {
		return 0, api.NewError(api.ErrCodeInvalidArgument, "build: destination buffer too small")
	}
	n := copy(dst, out)
	if n < unitSize {
		if unitSize > len(dst) {
			return 0, api.NewError(api.ErrCodeBootstrap, "build: unit size larger than buffer")
		}
		for i := n; i < unitSize; i++ {
			dst[i] = 0
		}
		n = unitSize
	}
	return n, nil
}

// MinFramedSize returns the minimum framed size for the given
// payload length, before unit-size padding.
func MinFramedSize(payloadLen int) int {
	return MinFrameLen + payloadLen
}

// Frame is the result of a successful Parse: a view into the original
// buffer with no copies taken. Callers that need the payload to
// outlive the source buffer (inbound ring enqueue) must copy
// PayloadView themselves — this mirrors spec §4.2's parse contract.
type Frame struct {
	SrcMAC      api.MAC
	DstMAC      api.MAC
	Seq         uint32
	Opcode      uint16
	PayloadLen  uint16
	PayloadView []byte
}

// Parse validates and decodes a received buffer for the given
// protocol variant. Malformed frames return a wrapped ErrMalformedFrame,
// ErrWrongEtherType, ErrBadVersion, or ErrPayloadTooLarge per spec
// §4.2/§7.3; the caller is
// responsible for dropping and freeing the underlying NIC buffer.
func Parse(data []byte, variant api.Variant) (Frame, error) {
	if len(data) < MinFrameLen {
		return Frame{}, api.Wrap(api.ErrCodeWireFormat, api.ErrMalformedFrame, "frame shorter than minimum length")
	}
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.NoCopy)
	ethLayer := pkt.LinkLayer()
	eth, ok := ethLayer.(*layers.Ethernet)
	if !ok {
		return Frame{}, api.Wrap(api.ErrCodeWireFormat, api.ErrMalformedFrame, "missing ethernet layer")
	}
	if uint16(eth.EthernetType) != EtherTypeFor(variant) {
		return Frame{}, api.Wrap(api.ErrCodeWireFormat, api.ErrWrongEtherType, "unexpected ether type")
	}

	rest := eth.LayerPayload()
	var hdr Header
	if err := hdr.DecodeFromBytes(rest); err != nil {
		return Frame{}, err
	}
	if hdr.Version != ProtocolVersion {
		return Frame{}, api.Wrap(api.ErrCodeWireFormat, api.ErrBadVersion, "unsupported version")
	}
	if hdr.PayloadLen > api.MaxPayload {
		return Frame{}, api.Wrap(api.ErrCodeWireFormat, api.ErrPayloadTooLarge, "payload_len exceeds MaxPayload")
	}
	if hdr.Opcode == OpcodeSRPAck && hdr.PayloadLen != 0 {
		return Frame{}, api.Wrap(api.ErrCodeWireFormat, api.ErrMalformedFrame, "payload_len must be 0 for ACK")
	}
	if len(hdr.Payload) < int(hdr.PayloadLen) {
		return Frame{}, api.Wrap(api.ErrCodeWireFormat, api.ErrMalformedFrame, "payload truncated")
	}

	var src api.MAC
	copy(src[:], eth.SrcMAC)
	var dst api.MAC
	copy(dst[:], eth.DstMAC)

	return Frame{
		SrcMAC:      src,
		DstMAC:      dst,
		Seq:         hdr.Seq,
		Opcode:      hdr.Opcode,
		PayloadLen:  hdr.PayloadLen,
		PayloadView: hdr.Payload[:hdr.PayloadLen],
	}, nil
}

// CopyInto copies the frame's payload view into out, sized so the
// resulting Payload outlives the source NIC buffer (spec §4.2: "when
// it must outlive the NIC buffer ... a fresh Payload is allocated and
// the bytes are copied").
func (f Frame) CopyInto(out *api.Payload) {
	out.Size = f.PayloadLen
	copy(out.Data[:f.PayloadLen], f.PayloadView)
}
