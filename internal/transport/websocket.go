// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned from Read once the WebSocket connection
// has failed or been closed, mirroring heliostat's connection wrapper.
var ErrConnectionClosed = fmt.Errorf("vedirect: websocket connection closed")

// WebSocketTransport tunnels VE.Direct bytes over a WebSocket binary
// stream, for a remote serial-to-network bridge. A background goroutine
// pumps inbound binary messages into a buffered channel so Read can honor
// vedirect.Transport's non-blocking contract (§4.2): it never waits for
// the network, only drains whatever has already arrived.
type WebSocketTransport struct {
	conn    *websocket.Conn
	inbound chan []byte
	errc    chan error
	pending []byte
	closed  bool
}

// WebSocketDialOptions configures OpenWebSocket.
type WebSocketDialOptions struct {
	URL           string
	Username      string
	Password      string
	SkipSSLVerify bool
}

// OpenWebSocket dials a ws:// or wss:// endpoint with optional HTTP basic
// auth, the way heliostat's OpenWebSocketConnection does, and starts the
// inbound-message pump.
func OpenWebSocket(ctx context.Context, opts WebSocketDialOptions) (*WebSocketTransport, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported url scheme %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.SkipSSLVerify}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+creds)
	}

	conn, resp, err := dialer.DialContext(ctx, opts.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connect failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connect failed: %w", err)
	}

	w := &WebSocketTransport{
		conn:    conn,
		inbound: make(chan []byte, 64),
		errc:    make(chan error, 1),
	}
	go w.pump()
	return w, nil
}

func (w *WebSocketTransport) pump() {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.errc <- err
			close(w.inbound)
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.inbound <- data
	}
}

// Read returns whatever bytes are already available, or (0, nil) when
// none have arrived yet. It never blocks on the network.
func (w *WebSocketTransport) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}
	if len(w.pending) == 0 {
		select {
		case data, ok := <-w.inbound:
			if !ok {
				w.closed = true
				select {
				case err := <-w.errc:
					return 0, err
				default:
					return 0, ErrConnectionClosed
				}
			}
			w.pending = data
		default:
			return 0, nil
		}
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketTransport) Flush() error {
	return nil
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}
