package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/ephemeris/internal/logging"
	"github.com/muurk/ephemeris/internal/payload"
)

const (
	// DefaultWriteTimeout bounds writing the payload frame
	DefaultWriteTimeout = 10 * time.Second

	// DefaultAckTimeout bounds waiting for the bridge's reply
	DefaultAckTimeout = 10 * time.Second

	// DefaultHandshakeTimeout bounds the WebSocket handshake
	DefaultHandshakeTimeout = 10 * time.Second

	// EncodingHeader tells the bridge how the frame is encoded
	EncodingHeader = "X-Ephemeris-Encoding"
)

// WebSocket sends each payload over a fresh connection to a bridge
type WebSocket struct {
	// URL is the bridge endpoint (ws:// or wss://)
	URL string

	// Encoding selects a binary CBOR or text JSON frame
	Encoding payload.Encoding

	// WaitForAck makes Send wait for the bridge's acknowledgement
	WaitForAck bool

	WriteTimeout time.Duration
	AckTimeout   time.Duration

	Dialer *websocket.Dialer
	Logger *zap.Logger
}

// NewWebSocket creates a transport with default timeouts that waits for
// acknowledgements
func NewWebSocket(url string, enc payload.Encoding) *WebSocket {
	return &WebSocket{
		URL:          url,
		Encoding:     enc,
		WaitForAck:   true,
		WriteTimeout: DefaultWriteTimeout,
		AckTimeout:   DefaultAckTimeout,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
	}
}

func (w *WebSocket) logger() *zap.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return logging.GetLogger()
}

// Send implements session.Transport
func (w *WebSocket) Send(ctx context.Context, p *payload.Payload) error {
	enc := w.Encoding
	if enc == "" {
		enc = payload.EncodingCBOR
	}

	data, err := p.Encode(enc)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := http.Header{}
	header.Set(EncodingHeader, string(enc))

	conn, resp, err := dialer.DialContext(ctx, w.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect to bridge %s (HTTP %d): %w", w.URL, resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect to bridge %s: %w", w.URL, err)
	}
	defer func() { _ = conn.Close() }()

	remote := conn.RemoteAddr().String()
	log := w.logger()
	log.Info("Connected to bridge", zap.String("url", w.URL), zap.String("remote_addr", remote))

	msgType := websocket.BinaryMessage
	if enc == payload.EncodingJSON {
		msgType = websocket.TextMessage
	}

	if err := conn.SetWriteDeadline(deadline(ctx, w.WriteTimeout, DefaultWriteTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteMessage(msgType, data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	logging.LogWebSocketMessage(log, remote, "sent", msgType, data)
	logging.LogPayload(log, "sent", string(enc), data)

	if w.WaitForAck {
		if err := w.readAck(ctx, conn, remote); err != nil {
			return err
		}
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
	return nil
}

func (w *WebSocket) readAck(ctx context.Context, conn *websocket.Conn, remote string) error {
	if err := conn.SetReadDeadline(deadline(ctx, w.AckTimeout, DefaultAckTimeout)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("no acknowledgement from bridge: %w", err)
	}
	logging.LogWebSocketMessage(w.logger(), remote, "received", msgType, data)

	ack, err := ParseAck(data)
	if err != nil {
		return err
	}
	return ack.Err()
}

// deadline picks the earlier of now+timeout and the context deadline
func deadline(ctx context.Context, timeout, fallback time.Duration) time.Time {
	if timeout <= 0 {
		timeout = fallback
	}
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
