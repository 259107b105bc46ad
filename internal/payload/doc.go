// Package payload builds the key-value message delivered to the watch
// when a configuration session is submitted.
//
// A payload is an ordered list of (id, value) entries. Values are one of
// three wire types, matching what the watchapp reads from its message
// dictionary:
//
//   - int32 for numeric sliders; latitude and longitude are fixed-point
//     encoded with coord.Encode, other sliders are rounded
//   - bool for toggles
//   - string for text fields
//
// Fields marked local in the schema (status messages and the like) are
// display-only and never transmitted.
//
// # Encodings
//
// Payloads go over the wire as CBOR using Core Deterministic Encoding
// (RFC 8949 §4.2), so the same settings always produce identical bytes.
// JSON is available for dry runs and for bridges that want text frames.
package payload
