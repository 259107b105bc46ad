// Package discovery finds ephemeris companion bridges on the local network.
//
// A bridge is the process that relays settings payloads to the watch. It
// advertises itself over multicast DNS as an "_ephemeris._tcp" service
// whose TXT records carry the WebSocket path ("path=/settings") and the
// encodings it accepts ("enc=cbor,json").
//
// # Usage Example
//
//	bridges, err := discovery.ScanForBridges(5 * time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, b := range bridges {
//	    fmt.Printf("Found: %s at %s\n", b.Name, b.WebSocketURL())
//	}
//
// Advertise is the other half, used by the development bridge in
// internal/bridge.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
