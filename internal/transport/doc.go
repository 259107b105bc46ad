// Package transport delivers submitted settings payloads.
//
// WebSocket dials a companion bridge, writes the payload as a single
// frame (binary CBOR or text JSON) and optionally waits for the bridge's
// acknowledgement. Writer prints the payload as a JSON line, which is
// what --dry-run uses.
//
// Both implement session.Transport.
package transport
