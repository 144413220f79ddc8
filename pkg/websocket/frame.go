package websocket

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// header is the fixed and extended-length portion of a frame, decoded
// before its payload. Based on
// https://datatracker.ietf.org/doc/html/rfc6455#section-5.2.
type header struct {
	fin    bool
	rsv    [3]bool
	opcode Opcode
	mask   bool
	// payloadLen is the 7-bit length field actually present on the wire:
	// either the real length (< 126) or 126/127 meaning "read more".
	payloadLen byte
	// extendBy is 0, 16, or 64: how many extra bits of length follow.
	extendBy int
}

// Frame is a fully decoded (or about-to-be-encoded) WebSocket frame. Payload
// is always the unmasked application data: on encode, writeFrame masks a
// copy of it and leaves Payload itself unchanged.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Payload []byte
}

// decodeHeader parses the first two bytes of a frame header, per spec.md §4.2.
func decodeHeader(b [2]byte) (header, error) {
	var h header
	h.fin = b[0]&0x80 != 0
	h.rsv[0] = b[0]&0x40 != 0
	h.rsv[1] = b[0]&0x20 != 0
	h.rsv[2] = b[0]&0x10 != 0
	h.opcode = Opcode(b[0] & 0x0f)
	if h.rsv[0] || h.rsv[1] || h.rsv[2] {
		return h, &ParseError{Kind: FrameErrorKind, Err: fmt.Errorf("non-zero reserved bits")}
	}
	if !h.opcode.valid() {
		return h, &ParseError{Kind: FrameErrorKind, Err: fmt.Errorf("unknown opcode %#x", byte(h.opcode))}
	}

	h.mask = b[1]&0x80 != 0
	h.payloadLen = b[1] & 0x7f
	if h.opcode.control() && (!h.fin || h.payloadLen > 125) {
		return h, &ParseError{Kind: FrameErrorKind, Err: fmt.Errorf("control frame must be final and <=125 bytes")}
	}

	switch h.payloadLen {
	case 126:
		h.extendBy = 16
	case 127:
		h.extendBy = 64
	default:
		h.extendBy = 0
	}
	return h, nil
}

// readFrame reads one complete frame from r: the 2-byte header, any
// extended length, an optional masking key, and the payload.
func readFrame(r io.Reader) (Frame, error) {
	var hb [2]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return Frame{}, err
	}
	h, err := decodeHeader(hb)
	if err != nil {
		return Frame{}, err
	}

	finalLength := uint64(h.payloadLen)
	switch h.extendBy {
	case 16:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Frame{}, err
		}
		finalLength = uint64(binary.BigEndian.Uint16(ext[:]))
	case 64:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Frame{}, err
		}
		finalLength = binary.BigEndian.Uint64(ext[:])
	}

	var maskKey [4]byte
	if h.mask {
		// https://datatracker.ietf.org/doc/html/rfc6455#section-5.1: a client
		// MUST close a connection if it detects a masked frame from the server.
		if _, err := io.ReadFull(r, maskKey[:]); err != nil {
			return Frame{}, err
		}
	}

	payload := make([]byte, finalLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, err
	}
	if h.mask {
		return Frame{}, &ParseError{Kind: FrameErrorKind, Err: fmt.Errorf("server sent a masked frame")}
	}

	return Frame{Fin: h.fin, Opcode: h.opcode, Payload: payload}, nil
}

// classifyLength implements spec.md §4.2's total classification function,
// returning the 7-bit length field and how many extended-length bytes follow
// it: len<126 -> (len,0); 126<=len<=0xFFFF -> (126,2); len>0xFFFF -> (127,8).
// Lengths above math.MaxInt64 are rejected with an error.
func classifyLength(n uint64) (field byte, extendBytes int, err error) {
	const maxFrameLength = uint64(math.MaxInt64)
	if n > maxFrameLength {
		return 0, 0, fmt.Errorf("payload length %d exceeds the maximum of %d", n, maxFrameLength)
	}
	switch {
	case n < 126:
		return byte(n), 0, nil
	case n <= 0xFFFF:
		return 126, 2, nil
	default:
		return 127, 8, nil
	}
}

// writeFrame masks f's payload with a fresh random key and writes the
// encoded client-to-server frame to w in a single call, per spec.md §4.2.
func writeFrame(w io.Writer, f Frame, randKey func() ([4]byte, error)) error {
	var b0 byte
	if f.Fin {
		b0 |= 0x80
	}
	b0 |= byte(f.Opcode)

	lengthField, extendBytes, err := classifyLength(uint64(len(f.Payload)))
	if err != nil {
		return err
	}

	buf := make([]byte, 0, 2+extendBytes+4+len(f.Payload))
	buf = append(buf, b0, 0x80|lengthField) // mask bit always set client-side

	for i := extendBytes - 1; i >= 0; i-- {
		buf = append(buf, byte(uint64(len(f.Payload))>>(uint(i)*8)))
	}

	key, err := randKey()
	if err != nil {
		return fmt.Errorf("failed to generate frame masking key: %w", err)
	}
	buf = append(buf, key[:]...)

	masked := make([]byte, len(f.Payload))
	for i, b := range f.Payload {
		masked[i] = b ^ key[i%4]
	}
	buf = append(buf, masked...)

	_, err = w.Write(buf)
	return err
}
