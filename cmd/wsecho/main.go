// The wsecho program is a minimal interactive client for a WebSocket echo
// server: lines typed on stdin are sent as text frames, and text frames
// received from the server are printed to stdout.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nullstream/wsclient/internal/wslog"
	"github.com/nullstream/wsclient/pkg/websocket"
)

func main() {
	addr := flag.String("addr", "ws://127.0.0.1:8080/echo", "ws:// or wss:// URI to connect to")
	timeout := flag.Duration("dial-timeout", 5*time.Second, "TCP dial timeout")
	verbose := flag.Bool("v", false, "log handshake and frame trace lines to stderr")
	flag.Parse()

	opts := []websocket.Option{websocket.WithDialTimeout(*timeout)}
	if *verbose {
		opts = append(opts, websocket.WithLogger(wslog.New(os.Stderr, "wsecho: ")))
	}

	proto := &echoProtocol{
		transport: make(chan *websocket.Transport, 1),
		done:      make(chan struct{}),
	}

	conn, err := websocket.Connect(context.Background(), *addr, proto, opts...)
	if err != nil {
		log.Fatalf("connect to %s: %v", *addr, err)
	}

	go proto.readStdin()

	if err := conn.Run(); err != nil {
		log.Printf("connection closed: %v", err)
		return
	}
	<-proto.done
}

// echoProtocol implements websocket.Protocol for the demo: it forwards
// stdin lines to the server and prints incoming text frames to stdout.
type echoProtocol struct {
	transport chan *websocket.Transport
	done      chan struct{}
}

func (p *echoProtocol) OnConnect(t *websocket.Transport) {
	fmt.Fprintln(os.Stderr, "connected; type a line and press enter to send it")
	p.transport <- t
}

func (p *echoProtocol) OnMessage(ctx *websocket.Context) {
	text, err := ctx.ReadText()
	if err != nil {
		log.Printf("read text: %v", err)
		return
	}
	fmt.Println(text)
}

func (p *echoProtocol) OnClose(ctx *websocket.Context) {
	fmt.Fprintln(os.Stderr, "server closed the connection")
	close(p.done)
}

// readStdin waits for the Transport handed to OnConnect, then forwards each
// line typed on stdin as a text frame until stdin is closed.
func (p *echoProtocol) readStdin() {
	t := <-p.transport
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := t.WriteText(scanner.Bytes()); err != nil {
			log.Printf("write failed: %v", err)
			return
		}
	}
}
