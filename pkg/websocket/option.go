package websocket

import (
	"time"

	"github.com/nullstream/wsclient/internal/wslog"
	"github.com/nullstream/wsclient/pkg/wstls"
)

// CloseEcho selects the payload the read loop sends back when the server
// initiates a close handshake. spec.md §9 flags this as an unresolved
// question between the original implementation's behavior and RFC 6455
// §5.5.1's literal requirement; both are implemented, see DESIGN.md.
type CloseEcho int

const (
	// CloseEchoASCII1000 echoes the 4-byte ASCII string "1000", matching
	// this engine's long-observed wire behavior. Default.
	CloseEchoASCII1000 CloseEcho = iota
	// CloseEchoRFCStatus echoes the big-endian uint16 status code 1000
	// (0x03 0xE8), matching RFC 6455 §5.5.1 literally.
	CloseEchoRFCStatus
)

func (c CloseEcho) payload() []byte {
	switch c {
	case CloseEchoRFCStatus:
		return []byte{0x03, 0xE8}
	default:
		return []byte("1000")
	}
}

// config holds the options collected from Connect's variadic Option list.
// Modeled on the teacher's SessionOption pattern in pkg/devtools/session.go.
type config struct {
	dialTimeout time.Duration
	tls         *wstls.Config
	logger      *wslog.Logger
	closeEcho   CloseEcho
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		dialTimeout: 5 * time.Second,
		logger:      wslog.Discard,
		closeEcho:   CloseEchoASCII1000,
	}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// Option customizes a call to Connect.
type Option func(*config)

// WithDialTimeout overrides the default 5-second TCP dial timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *config) { c.dialTimeout = d }
}

// WithTLSConfig supplies TLS settings for "wss://" targets.
func WithTLSConfig(tlsCfg *wstls.Config) Option {
	return func(c *config) { c.tls = tlsCfg }
}

// WithLogger routes handshake and read-loop trace lines to lg.
func WithLogger(lg *wslog.Logger) Option {
	return func(c *config) { c.logger = lg }
}

// WithCloseEcho selects the payload used when echoing the server's close
// frame. Defaults to CloseEchoASCII1000.
func WithCloseEcho(mode CloseEcho) Option {
	return func(c *config) { c.closeEcho = mode }
}
