package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Bridge represents a discovered companion bridge
type Bridge struct {
	// Name is the mDNS service instance name (e.g., "Kitchen Pebble")
	Name string

	// Host is the mDNS hostname (e.g., "phone.local.")
	Host string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the WebSocket port
	Port int

	// Path is the WebSocket endpoint path, from the "path" TXT record
	Path string

	// Metadata contains all TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable description of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("Bridge %q (%s) at %s:%d", b.Name, b.Host, b.IP, b.Port)
}

// WebSocketURL returns the URL the transport should dial
func (b *Bridge) WebSocketURL() string {
	path := b.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + net.JoinHostPort(b.IP, strconv.Itoa(b.Port)) + path
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}

// Encodings returns the payload encodings the bridge accepts.
// Bridges that do not say accept CBOR only.
func (b *Bridge) Encodings() []string {
	raw := b.GetMetadata("enc")
	if raw == "" {
		return []string{"cbor"}
	}
	var out []string
	for _, e := range strings.Split(raw, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Accepts reports whether the bridge accepts the named encoding
func (b *Bridge) Accepts(encoding string) bool {
	for _, e := range b.Encodings() {
		if e == encoding {
			return true
		}
	}
	return false
}
