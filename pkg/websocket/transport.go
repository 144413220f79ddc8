package websocket

import (
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// Transport is the outbound capability handed to user code at OnConnect. It
// owns a shared, mutex-guarded writer and a shared, atomic view of
// connection state, per spec.md §3.
type Transport struct {
	mu    *sync.Mutex
	w     io.Writer
	flush func() error
	state *atomic.Int32
}

func randomMaskKey() ([4]byte, error) {
	var k [4]byte
	_, err := io.ReadFull(rand.Reader, k[:])
	return k, err
}

// Write encodes f and writes it to the wire, honoring the state gate of
// spec.md §4.4: OPEN and CLOSING accept writes, CLOSED is rejected, any
// other state is rejected as unexpected.
func (t *Transport) Write(f Frame) error {
	switch State(t.state.Load()) {
	case StateOpen, StateClosing:
		t.mu.Lock()
		defer t.mu.Unlock()
		if err := writeFrame(t.w, f, randomMaskKey); err != nil {
			return &ConnectionError{Kind: WriteErrorKind, Err: err}
		}
		if t.flush != nil {
			if err := t.flush(); err != nil {
				return &ConnectionError{Kind: WriteErrorKind, Err: err}
			}
		}
		return nil
	case StateClosed:
		return &ConnectionError{Kind: WriteErrorKind, Err: errors.New("Connection is Closed")}
	default:
		return &ConnectionError{Kind: WriteErrorKind, Err: errors.New("Unknown State")}
	}
}

// WriteText sends a final text frame.
func (t *Transport) WriteText(b []byte) error {
	return t.Write(Frame{Fin: true, Opcode: OpText, Payload: b})
}

// WriteBinary sends a final binary frame.
func (t *Transport) WriteBinary(b []byte) error {
	return t.Write(Frame{Fin: true, Opcode: OpBinary, Payload: b})
}

// WritePing sends a ping control frame. appData must be 0-125 bytes.
func (t *Transport) WritePing(appData []byte) error {
	if len(appData) > 125 {
		return &ConnectionError{Kind: WriteErrorKind, Err: errors.New("control frames must have a payload of 0-125 bytes")}
	}
	return t.Write(Frame{Fin: true, Opcode: OpPing, Payload: appData})
}

// WritePong sends a pong control frame. appData must be 0-125 bytes.
func (t *Transport) WritePong(appData []byte) error {
	if len(appData) > 125 {
		return &ConnectionError{Kind: WriteErrorKind, Err: errors.New("control frames must have a payload of 0-125 bytes")}
	}
	return t.Write(Frame{Fin: true, Opcode: OpPong, Payload: appData})
}

// State reports the connection's state as observed by this Transport.
func (t *Transport) State() State {
	return State(t.state.Load())
}
