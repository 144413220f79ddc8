// Package wsuri parses and inspects "ws://" and "wss://" URIs, the way a
// WebSocket client needs them: scheme validation, host/port derivation with
// the RFC 6455 default ports, and resource-target construction for the
// Upgrade request line.
package wsuri

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// ErrorKind discriminates the ways a URI can fail to parse or resolve.
type ErrorKind string

const (
	IncompleteURI ErrorKind = "IncompleteURIError"
	MalformedURI  ErrorKind = "MalformedURIError"
	DNSError      ErrorKind = "DNSError"
	BadPort       ErrorKind = "BadPortError"
)

// Error wraps a URI failure with its taxonomy kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// URI is a parsed absolute WebSocket URI. Immutable once returned by Parse.
type URI struct {
	Scheme   string
	Host     string
	Port     string
	Path     string
	RawQuery string
}

// Parse validates raw as an absolute "ws://" or "wss://" URI and fills in
// the default port and path per RFC 6455.
func Parse(raw string) (*URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Kind: MalformedURI, Err: err}
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, &Error{Kind: MalformedURI, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &Error{Kind: IncompleteURI, Err: errors.New("missing authority")}
	}

	port := u.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return nil, &Error{Kind: BadPort, Err: fmt.Errorf("invalid port %q", port)}
		}
	} else if u.Scheme == "wss" {
		port = "443"
	} else {
		port = "80"
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return &URI{
		Scheme:   u.Scheme,
		Host:     u.Hostname(),
		Port:     port,
		Path:     path,
		RawQuery: u.RawQuery,
	}, nil
}

// Secure reports whether the URI uses the "wss" scheme.
func (u *URI) Secure() bool {
	return u.Scheme == "wss"
}

// Address returns the "host:port" authority to dial.
func (u *URI) Address() string {
	return net.JoinHostPort(u.Host, u.Port)
}

// Target returns the request-target for the Upgrade request line: the path
// followed by "?" and the query string, if any.
func (u *URI) Target() string {
	if u.RawQuery == "" {
		return u.Path
	}
	return u.Path + "?" + u.RawQuery
}
