package websocket

import (
	"errors"
	"strings"
	"sync/atomic"
)

// EventKind identifies which lifecycle event a Context was created for.
type EventKind int

const (
	EventConnect EventKind = iota
	EventMessage
	EventClose
)

func (e EventKind) String() string {
	switch e {
	case EventConnect:
		return "OnCONNECT"
	case EventMessage:
		return "OnMESSAGE"
	case EventClose:
		return "OnCLOSE"
	default:
		return "unknown event"
	}
}

// Context is the per-event object handed to OnMessage and OnClose. It
// shares ownership of the originating Frame (never mutated after decode)
// and a view of the connection's current state.
type Context struct {
	event EventKind
	frame *Frame
	state *atomic.Int32
}

// Event reports which lifecycle event this Context belongs to.
func (c *Context) Event() EventKind { return c.event }

// State reports the connection's state at the moment this accessor is
// called (not necessarily the state at dispatch time: dispatch is
// asynchronous, per spec.md §5).
func (c *Context) State() State { return State(c.state.Load()) }

// Frame returns the frame this Context carries, or nil for OnCONNECT events.
func (c *Context) Frame() *Frame { return c.frame }

// ReadText returns the Context's payload as UTF-8, replacing invalid byte
// sequences (lossy conversion). It fails if the Context does not belong to
// a message event, or does not carry a frame, per spec.md §3.
func (c *Context) ReadText() (string, error) {
	if c.event != EventMessage {
		return "", &ParseError{Kind: InvalidEventErrorKind, Err: errors.New("context does not belong to a message event")}
	}
	if c.frame == nil {
		return "", &ParseError{Kind: InvalidEventErrorKind, Err: errors.New("context does not carry a frame")}
	}
	return strings.ToValidUTF8(string(c.frame.Payload), "�"), nil
}
