package websocket

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"testing"

	"github.com/nullstream/wsclient/internal/wslog"
)

func acceptFor(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// TestExpectedAcceptRFCVector is spec.md §8 scenario 1.
func TestExpectedAcceptRFCVector(t *testing.T) {
	got := expectedAccept("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Errorf("expectedAccept() = %q, want %q", got, want)
	}
}

func response(statusLine string, headers map[string]string) *bufio.Reader {
	var b bytes.Buffer
	b.WriteString(statusLine + "\r\n")
	for k, v := range headers {
		b.WriteString(k + ": " + v + "\r\n")
	}
	b.WriteString("\r\n")
	return bufio.NewReader(&b)
}

func TestReceiveUpgradeResponseSuccess(t *testing.T) {
	key := "dGhlIHNhbXBsZSBub25jZQ=="
	r := response("HTTP/1.1 101 Switching Protocols", map[string]string{
		"Upgrade":              "websocket",
		"Connection":           "Upgrade",
		"Sec-WebSocket-Accept": acceptFor(key),
	})
	if err := receiveUpgradeResponse(r, key, wslog.Discard); err != nil {
		t.Fatalf("receiveUpgradeResponse(): unexpected error: %v", err)
	}
}

func TestReceiveUpgradeResponseBadStatus(t *testing.T) {
	key := "dGhlIHNhbXBsZSBub25jZQ=="
	r := response("HTTP/1.1 200 OK", map[string]string{
		"Sec-WebSocket-Accept": acceptFor(key),
	})
	err := receiveUpgradeResponse(r, key, wslog.Discard)
	var herr *HandshakeError
	if err == nil || !isHandshakeError(err, &herr) || herr.Kind != HeaderErrorKind {
		t.Fatalf("receiveUpgradeResponse() = %v, want HeaderError", err)
	}
}

func TestReceiveUpgradeResponseMissingAccept(t *testing.T) {
	r := response("HTTP/1.1 101 Switching Protocols", map[string]string{
		"Upgrade": "websocket",
	})
	err := receiveUpgradeResponse(r, "key", wslog.Discard)
	var herr *HandshakeError
	if err == nil || !isHandshakeError(err, &herr) || herr.Kind != HeaderErrorKind {
		t.Fatalf("receiveUpgradeResponse() = %v, want HeaderError", err)
	}
}

// TestReceiveUpgradeResponseBadAccept covers spec.md §8's boundary case: a
// single-bit change in the accept key must fail validation.
func TestReceiveUpgradeResponseBadAccept(t *testing.T) {
	key := "dGhlIHNhbXBsZSBub25jZQ=="
	accept := acceptFor(key)
	flipped := []byte(accept)
	flipped[0] ^= 0x01
	r := response("HTTP/1.1 101 Switching Protocols", map[string]string{
		"Sec-WebSocket-Accept": string(flipped),
	})
	err := receiveUpgradeResponse(r, key, wslog.Discard)
	var herr *HandshakeError
	if err == nil || !isHandshakeError(err, &herr) || herr.Kind != ValidationErrorKind {
		t.Fatalf("receiveUpgradeResponse() = %v, want ValidationError", err)
	}
}

func isHandshakeError(err error, target **HandshakeError) bool {
	he, ok := err.(*HandshakeError)
	if ok {
		*target = he
	}
	return ok
}
