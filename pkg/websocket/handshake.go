package websocket

import (
	"bufio"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/nullstream/wsclient/internal/wslog"
	"github.com/nullstream/wsclient/pkg/wsuri"
)

const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// nonce generates a 16-byte random value, base64-encoded, per
// spec.md §4.3 step 1.
func nonce() (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// expectedAccept computes base64(SHA1(key ++ GUID)), per spec.md §4.3 step 6.
func expectedAccept(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// sendUpgradeRequest writes the exact Upgrade request of spec.md §4.3 step 2.
func sendUpgradeRequest(w io.Writer, u *wsuri.URI, key string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", u.Target())
	fmt.Fprintf(&b, "Host: %s\r\n", u.Host)
	fmt.Fprint(&b, "Connection: Upgrade\r\n")
	fmt.Fprint(&b, "Upgrade: websocket\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Key: %s\r\n", key)
	fmt.Fprint(&b, "Sec-WebSocket-Version: 13\r\n")
	fmt.Fprint(&b, "\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// receiveUpgradeResponse reads the status line and headers, line by line
// until the terminating blank line, resolving spec.md §9's Open Question
// about the fixed 4096-byte read in favor of reading exactly as much as the
// server sends (see DESIGN.md).
func receiveUpgradeResponse(r *bufio.Reader, key string, log *wslog.Logger) error {
	statusLine, err := r.ReadString('\n')
	if err != nil {
		return &HandshakeError{Kind: HeaderErrorKind, Err: fmt.Errorf("failed to read status line: %w", err)}
	}
	statusLine = strings.TrimRight(statusLine, "\r\n")
	log.Printf("handshake: status line %q", statusLine)
	if statusLine != "HTTP/1.1 101 Switching Protocols" {
		return &HandshakeError{Kind: HeaderErrorKind, Err: fmt.Errorf("unexpected status line %q", statusLine)}
	}

	headers := make(map[string]string)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return &HandshakeError{Kind: HeaderErrorKind, Err: fmt.Errorf("failed to read header line: %w", err)}
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // End of headers.
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	accept, ok := headers["sec-websocket-accept"]
	if !ok {
		return &HandshakeError{Kind: HeaderErrorKind, Err: fmt.Errorf("missing Sec-WebSocket-Accept header")}
	}
	want := expectedAccept(key)
	if accept != want {
		return &HandshakeError{Kind: ValidationErrorKind, Err: fmt.Errorf("accept key mismatch: got %q, want %q", accept, want)}
	}
	return nil
}
