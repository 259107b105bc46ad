package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type bridges advertise
	ServiceType = "_ephemeris._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for bridge discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default bridge WebSocket port
	DefaultPort = 8765

	// DefaultPath is the default bridge WebSocket path
	DefaultPath = "/settings"
)

// Scanner handles mDNS bridge discovery
type Scanner struct {
	// Timeout is the maximum time to wait for bridge discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForBridges discovers all bridges on the local network
func (s *Scanner) ScanForBridges() ([]*Bridge, error) {
	return s.ScanForBridgesWithContext(context.Background())
}

// ScanForBridgesWithContext discovers bridges with a custom context
func (s *Scanner) ScanForBridgesWithContext(ctx context.Context) ([]*Bridge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	bridges := make([]*Bridge, 0)
	collected := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// The resolver closes entries once ctx is done
	go func() {
		defer close(collected)
		seen := make(map[string]bool)
		for entry := range entries {
			bridge := s.parseServiceEntry(entry)
			if bridge == nil || seen[bridge.Name] {
				continue
			}
			seen[bridge.Name] = true
			bridges = append(bridges, bridge)
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	select {
	case <-collected:
	case <-time.After(time.Second):
	}

	return bridges, nil
}

// WaitForBridge waits for a bridge with the given instance name
func (s *Scanner) WaitForBridge(name string) (*Bridge, error) {
	return s.WaitForBridgeWithContext(context.Background(), name)
}

// WaitForBridgeWithContext waits for a named bridge with a custom context.
// An empty name matches the first bridge found.
func (s *Scanner) WaitForBridgeWithContext(ctx context.Context, name string) (*Bridge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	bridgeChan := make(chan *Bridge, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			bridge := s.parseServiceEntry(entry)
			if bridge != nil && (name == "" || bridge.Name == name) {
				select {
				case bridgeChan <- bridge:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case bridge := <-bridgeChan:
		return bridge, nil
	case <-ctx.Done():
		// The match may have cancelled ctx itself
		select {
		case bridge := <-bridgeChan:
			return bridge, nil
		default:
		}
		if name == "" {
			return nil, fmt.Errorf("no bridge found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("bridge %q not found within %s", name, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Bridge.
// Returns nil if the entry has no usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Bridge {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := parseTXT(entry.Text)
	path := metadata["path"]
	if path == "" {
		path = DefaultPath
	}

	return &Bridge{
		Name:         unescapeInstance(entry.Instance),
		Host:         entry.HostName,
		IP:           ip,
		Port:         port,
		Path:         path,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records; a bare key maps to ""
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// unescapeInstance undoes DNS-SD escaping of spaces and dots
func unescapeInstance(name string) string {
	return strings.NewReplacer(`\ `, " ", `\.`, ".", `\\`, `\`).Replace(name)
}

// Advertise registers a bridge on the local network until Shutdown is
// called on the returned server.
func Advertise(name string, port int, path string, encodings []string) (*zeroconf.Server, error) {
	if path == "" {
		path = DefaultPath
	}
	txt := []string{"path=" + path}
	if len(encodings) > 0 {
		txt = append(txt, "enc="+strings.Join(encodings, ","))
	}

	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to advertise bridge: %w", err)
	}
	return server, nil
}

// ScanForBridges is a convenience function to scan with a custom timeout
func ScanForBridges(timeout time.Duration) ([]*Bridge, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForBridges()
}

// FindBridge searches for a named bridge with the default timeout.
// An empty name returns the first bridge found.
func FindBridge(name string) (*Bridge, error) {
	return NewScanner().WaitForBridge(name)
}
