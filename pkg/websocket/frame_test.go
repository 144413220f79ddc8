package websocket

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassifyLength(t *testing.T) {
	tests := []struct {
		n        uint64
		field    byte
		extBytes int
	}{
		{0, 0, 0},
		{125, 125, 0},
		{126, 126, 2},
		{127, 126, 2},
		{65535, 126, 2},
		{65536, 127, 8},
		{1 << 20, 127, 8},
	}
	for _, tc := range tests {
		field, ext, err := classifyLength(tc.n)
		if err != nil {
			t.Fatalf("classifyLength(%d): unexpected error: %v", tc.n, err)
		}
		if field != tc.field || ext != tc.extBytes {
			t.Errorf("classifyLength(%d) = (%d, %d), want (%d, %d)", tc.n, field, ext, tc.field, tc.extBytes)
		}
	}
}

func TestClassifyLengthRejectsOverflow(t *testing.T) {
	if _, _, err := classifyLength(1 << 63); err == nil {
		t.Error("classifyLength(1<<63) = nil error, want an error")
	}
}

func fixedKey(k [4]byte) func() ([4]byte, error) {
	return func() ([4]byte, error) { return k, nil }
}

func TestWriteFrameSetsMaskBit(t *testing.T) {
	var buf bytes.Buffer
	f := Frame{Fin: true, Opcode: OpText, Payload: []byte("hi")}
	if err := writeFrame(&buf, f, fixedKey([4]byte{1, 2, 3, 4})); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if b[0] != 0x81 {
		t.Errorf("b[0] = %#x, want 0x81", b[0])
	}
	if b[1]&0x80 == 0 {
		t.Errorf("b[1] = %#x, mask bit not set", b[1])
	}
	if b[1]&0x7f != 2 {
		t.Errorf("b[1] payload length = %d, want 2", b[1]&0x7f)
	}
	key := b[2:6]
	payload := b[6:8]
	for i, c := range []byte("hi") {
		want := c ^ key[i%4]
		if payload[i] != want {
			t.Errorf("payload[%d] = %#x, want %#x", i, payload[i], want)
		}
	}
}

func TestWriteFrameScenario4(t *testing.T) {
	// spec.md §8 scenario 4: write_text("hi") -> 0x81 0x82 <4B key>
	// <XOR('h',key0)> <XOR('i',key1)>.
	var buf bytes.Buffer
	key := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	f := Frame{Fin: true, Opcode: OpText, Payload: []byte("hi")}
	if err := writeFrame(&buf, f, fixedKey(key)); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	want := []byte{0x81, 0x82, key[0], key[1], key[2], key[3], 'h' ^ key[0], 'i' ^ key[1]}
	if !cmp.Equal(b, want) {
		t.Errorf("writeFrame() = %#v, want %#v", b, want)
	}
}

// encodeUnmaskedServerFrame builds the wire bytes of a server-to-client
// frame (mask bit clear, payload verbatim), the counterpart to writeFrame
// which only ever produces masked client frames.
func encodeUnmaskedServerFrame(f Frame) []byte {
	var b0 byte
	if f.Fin {
		b0 |= 0x80
	}
	b0 |= byte(f.Opcode)

	field, extendBytes, err := classifyLength(uint64(len(f.Payload)))
	if err != nil {
		panic(err)
	}
	out := []byte{b0, field} // mask bit clear
	for i := extendBytes - 1; i >= 0; i-- {
		out = append(out, byte(uint64(len(f.Payload))>>(uint(i)*8)))
	}
	return append(out, f.Payload...)
}

func TestReadFrameRoundTrip(t *testing.T) {
	payload := []byte("round trip payload")
	wire := encodeUnmaskedServerFrame(Frame{Fin: true, Opcode: OpBinary, Payload: payload})

	f, err := readFrame(bytes.NewReader(wire))
	if err != nil {
		t.Fatalf("readFrame(): unexpected error: %v", err)
	}
	if !cmp.Equal(f.Payload, payload) {
		t.Errorf("readFrame().Payload = %#v, want %#v", f.Payload, payload)
	}
	if f.Opcode != OpBinary || !f.Fin {
		t.Errorf("readFrame() = %+v, want Fin=true Opcode=Binary", f)
	}
}

func TestReadFrameBoundaryLengths(t *testing.T) {
	for _, n := range []int{0, 125, 126, 127, 65535, 65536} {
		payload := bytes.Repeat([]byte{0x42}, n)
		wire := encodeUnmaskedServerFrame(Frame{Fin: true, Opcode: OpBinary, Payload: payload})

		f, err := readFrame(bytes.NewReader(wire))
		if err != nil {
			t.Fatalf("n=%d: readFrame(): %v", n, err)
		}
		if !cmp.Equal(f.Payload, payload) {
			t.Errorf("n=%d: readFrame().Payload mismatch", n)
		}
	}
}

func TestDecodeHeaderRejectsReservedBits(t *testing.T) {
	_, err := decodeHeader([2]byte{0x70, 0x00})
	if err == nil {
		t.Error("decodeHeader with reserved bits set = nil error, want FrameError")
	}
}

func TestDecodeHeaderRejectsUnknownOpcode(t *testing.T) {
	_, err := decodeHeader([2]byte{0x83, 0x00})
	if err == nil {
		t.Error("decodeHeader with opcode 3 = nil error, want FrameError")
	}
}

func TestReadFrameRejectsMaskedServerFrame(t *testing.T) {
	_, err := readFrame(bytes.NewReader([]byte{0x81, 0x80, 1, 2, 3, 4}))
	if err == nil {
		t.Error("readFrame(masked) = nil error, want FrameError")
	}
}
