package wire_test

import (
	"bytes"
	"testing"

	"github.com/flowplane/l2rp/api"
	"github.com/flowplane/l2rp/wire"
)

var dstMAC = api.MAC{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
var srcMAC = api.MAC{0x00, 0xaa, 0xbb, 0xcc, 0xdd, 0xee}

func buildAndParse(t *testing.T, variant api.Variant, opcode uint16, seq uint32, data []byte) wire.Frame {
	t.Helper()
	p := &api.Payload{}
	if err := p.SetBytes(data); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	buf := make([]byte, 2048)
	n, err := wire.Build(buf, dstMAC, srcMAC, variant, opcode, seq, p, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f, err := wire.Parse(buf[:n], variant)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte("hello endpoint")
	f := buildAndParse(t, api.VariantURP, wire.OpcodeURPData, 42, payload)
	if !bytes.Equal(f.PayloadView, payload) {
		t.Errorf("payload mismatch: got %v want %v", f.PayloadView, payload)
	}
	if f.Seq != 42 {
		t.Errorf("seq mismatch: got %d want 42", f.Seq)
	}
	if f.Opcode != wire.OpcodeURPData {
		t.Errorf("opcode mismatch: got %#x", f.Opcode)
	}
	if f.SrcMAC != srcMAC || f.DstMAC != dstMAC {
		t.Errorf("mac mismatch: src=%v dst=%v", f.SrcMAC, f.DstMAC)
	}
}

func TestFrameRoundTripZeroSizePayload(t *testing.T) {
	f := buildAndParse(t, api.VariantSRP, wire.OpcodeSRPAck, 7, nil)
	if len(f.PayloadView) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(f.PayloadView))
	}
}

func TestFrameRoundTripMaxPayload(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, api.MaxPayload)
	f := buildAndParse(t, api.VariantSRP, wire.OpcodeSRPData, 1, data)
	if !bytes.Equal(f.PayloadView, data) {
		t.Errorf("max payload round trip mismatch")
	}
}

func TestBuildRejectsOversizePayload(t *testing.T) {
	p := &api.Payload{Size: api.MaxPayload + 1}
	buf := make([]byte, 2048)
	if _, err := wire.Build(buf, dstMAC, srcMAC, api.VariantURP, wire.OpcodeURPData, 0, p, 0); err == nil {
		t.Fatal("expected error building oversize payload")
	}
}

func TestParseRejectsWrongEtherType(t *testing.T) {
	p := &api.Payload{}
	buf := make([]byte, 2048)
	n, err := wire.Build(buf, dstMAC, srcMAC, api.VariantSRP, wire.OpcodeSRPData, 0, p, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := wire.Parse(buf[:n], api.VariantURP); err == nil {
		t.Fatal("expected ether type mismatch error")
	}
}

func TestParseRejectsShortFrame(t *testing.T) {
	if _, err := wire.Parse(make([]byte, 4), api.VariantURP); err == nil {
		t.Fatal("expected error on too-short frame")
	}
}

func TestUnitSizePadding(t *testing.T) {
	p := &api.Payload{}
	buf := make([]byte, 128)
	n, err := wire.Build(buf, dstMAC, srcMAC, api.VariantURP, wire.OpcodeURPData, 0, p, 64)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n != 64 {
		t.Errorf("expected padded frame of 64 bytes, got %d", n)
	}
}
