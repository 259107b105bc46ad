package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/ephemeris/internal/payload"
	"github.com/muurk/ephemeris/internal/settings"
	"github.com/muurk/ephemeris/internal/transport"
)

func testPayload(t *testing.T) *payload.Payload {
	t.Helper()
	p, err := payload.Build([]settings.Entry{
		{ID: "Latitude", Kind: settings.KindNumericRange, Value: 64.84},
		{ID: "Longitude", Kind: settings.KindNumericRange, Value: -147.72},
		{ID: "ShowInfo", Kind: settings.KindToggle, Value: true},
	}, payload.DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return p
}

func TestHandleMessage(t *testing.T) {
	p := testPayload(t)
	cborData, _ := p.MarshalCBOR()
	jsonData, _ := p.MarshalJSON()

	tests := []struct {
		name    string
		msgType int
		data    []byte
		handler Handler
		wantOK  bool
	}{
		{"cbor frame", websocket.BinaryMessage, cborData, nil, true},
		{"json frame", websocket.TextMessage, jsonData, nil, true},
		{"json in binary frame", websocket.BinaryMessage, jsonData, nil, false},
		{"garbage text", websocket.TextMessage, []byte("hello"), nil, false},
		{"ping type", websocket.PingMessage, nil, nil, false},
		{
			"handler rejects",
			websocket.TextMessage,
			jsonData,
			func(string, *payload.Payload) error { return errors.New("watch not connected") },
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ack := HandleMessage(tt.handler, "test", tt.msgType, tt.data)
			if ack.OK() != tt.wantOK {
				t.Errorf("Expected ok=%v, got %+v", tt.wantOK, ack)
			}
			if tt.wantOK && ack.Entries != 3 {
				t.Errorf("Expected 3 entries, got %d", ack.Entries)
			}
			if !tt.wantOK && ack.Message == "" {
				t.Error("Expected rejection message")
			}
		})
	}
}

func TestServeRoundTrip(t *testing.T) {
	var mu sync.Mutex
	var got []*payload.Payload

	srv := New(&Config{Host: "127.0.0.1", Port: 0}, func(_ string, p *payload.Payload) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, p)
		return nil
	})
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ctx)
	}()

	if !strings.HasSuffix(srv.URL(), "/settings") {
		t.Errorf("Unexpected URL %s", srv.URL())
	}

	for _, enc := range []payload.Encoding{payload.EncodingCBOR, payload.EncodingJSON} {
		ws := transport.NewWebSocket(srv.URL(), enc)
		if err := ws.Send(context.Background(), testPayload(t)); err != nil {
			t.Fatalf("Send (%s) failed: %v", enc, err)
		}
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("Expected 2 payloads, got %d", len(got))
	}
	for _, p := range got {
		if n, _ := p.Int("Latitude"); n != 6484 {
			t.Errorf("Expected Latitude 6484, got %d", n)
		}
	}
	if srv.Received() != 2 {
		t.Errorf("Expected Received()=2, got %d", srv.Received())
	}
}

func TestServeRejectsPayload(t *testing.T) {
	srv := New(&Config{Host: "127.0.0.1", Port: 0}, func(string, *payload.Payload) error {
		return errors.New("watch not connected")
	})
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	err := transport.NewWebSocket(srv.URL(), payload.EncodingCBOR).Send(context.Background(), testPayload(t))
	if err == nil || !strings.Contains(err.Error(), "watch not connected") {
		t.Errorf("Expected rejection error, got %v", err)
	}
	if srv.Received() != 0 {
		t.Errorf("Expected no accepted payloads, got %d", srv.Received())
	}
}

func TestNewDefaults(t *testing.T) {
	cfg := &Config{}
	srv := New(cfg, nil)

	if cfg.Path != "/settings" {
		t.Errorf("Expected default path /settings, got %s", cfg.Path)
	}
	if cfg.Name != "ephemeris-bridge" {
		t.Errorf("Expected default name, got %s", cfg.Name)
	}
	if srv.URL() != "" {
		t.Errorf("Expected empty URL before Listen, got %s", srv.URL())
	}
	if srv.GetActiveConnections() != 0 {
		t.Errorf("Expected 0 connections, got %d", srv.GetActiveConnections())
	}
}
