package websocket

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/nullstream/wsclient/internal/wslog"
	"github.com/nullstream/wsclient/pkg/wstls"
	"github.com/nullstream/wsclient/pkg/wsuri"
)

// Conn is a client-side WebSocket connection: a read loop bound to one
// underlying byte stream, a Transport shared with user code, and the
// Protocol dispatched to as events arrive. The Connection exclusively owns
// the reader half; the Transport and the Connection share the writer half,
// arbitrated by a mutex, per spec.md §3.
type Conn struct {
	rc        io.ReadCloser
	r         *bufio.Reader
	writeMu   sync.Mutex
	state     atomic.Int32
	proto     Protocol
	transport *Transport
	closeEcho CloseEcho
	log       *wslog.Logger
}

// Connect negotiates a WebSocket connection to rawURI (either "ws://" or
// "wss://") and runs the Upgrade handshake, per spec.md §4.3. On success the
// returned Conn is in the OPEN state with proto's OnConnect already queued;
// call Run to start reading.
func Connect(ctx context.Context, rawURI string, proto Protocol, opts ...Option) (*Conn, error) {
	cfg := newConfig(opts...)

	u, err := wsuri.Parse(rawURI)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: cfg.dialTimeout}
	netConn, err := d.DialContext(ctx, "tcp", u.Address())
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return nil, &wsuri.Error{Kind: wsuri.DNSError, Err: err}
		}
		return nil, &ConnectionError{Kind: ConnectorErrorKind, Err: err}
	}

	var stream io.ReadWriteCloser = netConn
	if u.Secure() {
		tlsConn, err := wstls.Client(netConn, u.Host, cfg.tls)
		if err != nil {
			netConn.Close()
			return nil, &ConnectionError{Kind: ConnectorErrorKind, Err: err}
		}
		stream = tlsConn
	}

	key, err := nonce()
	if err != nil {
		stream.Close()
		return nil, &ConnectionError{Kind: ConnectorErrorKind, Err: fmt.Errorf("failed to generate a nonce: %w", err)}
	}

	r := bufio.NewReader(stream)
	if err := sendUpgradeRequest(stream, u, key); err != nil {
		stream.Close()
		return nil, &ConnectionError{Kind: WriteErrorKind, Err: err}
	}
	if err := receiveUpgradeResponse(r, key, cfg.logger); err != nil {
		stream.Close()
		return nil, err
	}
	cfg.logger.Printf("handshake complete: %s", u.Address())

	c := &Conn{
		rc:        stream,
		r:         r,
		proto:     proto,
		closeEcho: cfg.closeEcho,
		log:       cfg.logger,
	}
	c.state.Store(int32(StateOpen))
	c.transport = &Transport{
		mu:    &c.writeMu,
		w:     stream,
		state: &c.state,
	}

	// Queue OnConnect before the read loop begins its first read, so it
	// happens-before any OnMessage per spec.md §5.
	go c.proto.OnConnect(c.transport)

	return c, nil
}

// State reports the connection's current lifecycle position.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Run executes the read loop until the connection closes, returning the
// terminating error (nil for a clean close initiated by the peer).
func (c *Conn) Run() error {
	defer c.rc.Close()
	for {
		if State(c.state.Load()) != StateOpen {
			return &ConnectionError{Kind: ReadErrorKind, Err: errors.New("Connection is Closed")}
		}

		f, err := readFrame(c.r)
		if err != nil {
			c.state.Store(int32(StateClosed))
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return &ConnectionError{Kind: ReadErrorKind, Err: fmt.Errorf("Unexpected EOF: %w", err)}
			}
			return &ConnectionError{Kind: ReadErrorKind, Err: err}
		}
		c.log.Printf("received frame: opcode=%s fin=%v len=%d", f.Opcode, f.Fin, len(f.Payload))

		if f.Opcode == OpClose {
			return c.handleClose(f)
		}

		ctx := &Context{event: EventMessage, frame: &f, state: &c.state}
		go c.proto.OnMessage(ctx)
	}
}

// handleClose implements spec.md §4.5 step 6: transition to CLOSING, echo a
// Close frame, dispatch OnClose, then transition to CLOSED.
func (c *Conn) handleClose(f Frame) error {
	c.state.Store(int32(StateClosing))

	echo := Frame{Fin: true, Opcode: OpClose, Payload: c.closeEcho.payload()}
	if err := c.transport.Write(echo); err != nil {
		c.log.Printf("failed to echo close frame: %v", err)
	}

	ctx := &Context{event: EventClose, frame: &f, state: &c.state}
	go c.proto.OnClose(ctx)

	c.state.Store(int32(StateClosed))
	return nil
}
