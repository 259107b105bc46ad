package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/muurk/ephemeris/internal/coord"
	"github.com/muurk/ephemeris/internal/settings"
)

const (
	// DefaultLatitudeID is the latitude field of the default schema
	DefaultLatitudeID = "Latitude"

	// DefaultLongitudeID is the longitude field of the default schema
	DefaultLongitudeID = "Longitude"
)

// Encoding names a wire format
type Encoding string

const (
	EncodingCBOR Encoding = "cbor"
	EncodingJSON Encoding = "json"
)

// ParseEncoding validates an encoding name
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingCBOR, EncodingJSON:
		return Encoding(s), nil
	default:
		return "", fmt.Errorf("unknown encoding %q (expected cbor or json)", s)
	}
}

// Options controls how a snapshot is turned into a payload
type Options struct {
	LatitudeID  string
	LongitudeID string
	Scale       int
}

// DefaultOptions matches the ephemeris watchapp
func DefaultOptions() Options {
	return Options{
		LatitudeID:  DefaultLatitudeID,
		LongitudeID: DefaultLongitudeID,
		Scale:       coord.DefaultScale,
	}
}

// Entry is one transmitted key and its wire value
type Entry struct {
	ID    string
	Value any // int32, bool or string
}

// Payload is the outbound settings message
type Payload struct {
	Entries []Entry

	opts Options
}

// Build converts a store snapshot into a payload. Local entries are
// skipped. Missing option ids fall back to DefaultOptions.
func Build(snapshot []settings.Entry, opts Options) (*Payload, error) {
	defaults := DefaultOptions()
	if opts.LatitudeID == "" {
		opts.LatitudeID = defaults.LatitudeID
	}
	if opts.LongitudeID == "" {
		opts.LongitudeID = defaults.LongitudeID
	}
	if opts.Scale <= 0 {
		opts.Scale = defaults.Scale
	}

	p := &Payload{opts: opts}
	for _, e := range snapshot {
		if e.Local {
			continue
		}

		v, err := wireValue(e, opts)
		if err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, Entry{ID: e.ID, Value: v})
	}
	return p, nil
}

func wireValue(e settings.Entry, opts Options) (any, error) {
	switch e.Kind {
	case settings.KindToggle:
		b, ok := e.Value.(bool)
		if !ok {
			return nil, settings.NewInvalidValueError(e.ID, fmt.Sprintf("expected boolean, got %T", e.Value), nil)
		}
		return b, nil

	case settings.KindText:
		s, ok := e.Value.(string)
		if !ok {
			return nil, settings.NewInvalidValueError(e.ID, fmt.Sprintf("expected text, got %T", e.Value), nil)
		}
		return s, nil

	case settings.KindNumericRange:
		f, ok := e.Value.(float64)
		if !ok {
			return nil, settings.NewInvalidValueError(e.ID, fmt.Sprintf("expected number, got %T", e.Value), nil)
		}
		if e.ID == opts.LatitudeID || e.ID == opts.LongitudeID {
			return coord.Encode(f, opts.Scale), nil
		}
		return roundInt32(f), nil

	default:
		return nil, settings.NewInvalidValueError(e.ID, "unsupported field kind "+e.Kind.String(), nil)
	}
}

func roundInt32(f float64) int32 {
	r := math.Round(f)
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt32:
		return math.MaxInt32
	case r <= math.MinInt32:
		return math.MinInt32
	}
	return int32(r)
}

// Get returns the wire value for id
func (p *Payload) Get(id string) (any, bool) {
	for _, e := range p.Entries {
		if e.ID == id {
			return e.Value, true
		}
	}
	return nil, false
}

// Int returns an integer entry
func (p *Payload) Int(id string) (int32, bool) {
	v, ok := p.Get(id)
	if !ok {
		return 0, false
	}
	n, ok := v.(int32)
	return n, ok
}

// Map returns the entries as a map
func (p *Payload) Map() map[string]any {
	m := make(map[string]any, len(p.Entries))
	for _, e := range p.Entries {
		m[e.ID] = e.Value
	}
	return m
}

// Coordinate decodes the latitude and longitude entries
func (p *Payload) Coordinate() (coord.Coordinate, bool) {
	lat, okLat := p.Int(p.opts.LatitudeID)
	lon, okLon := p.Int(p.opts.LongitudeID)
	if !okLat || !okLon {
		return coord.Coordinate{}, false
	}
	return coord.Encoded{Latitude: lat, Longitude: lon}.Decode(p.opts.Scale), true
}

// Len returns the number of entries
func (p *Payload) Len() int {
	return len(p.Entries)
}

// Encode serializes the payload in the given encoding
func (p *Payload) Encode(enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingCBOR, "":
		return p.MarshalCBOR()
	case EncodingJSON:
		return p.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
}

// MarshalCBOR encodes the payload as a deterministic CBOR map
func (p *Payload) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(p.Map())
}

// UnmarshalCBOR decodes a CBOR map. Entries come back sorted by id.
func (p *Payload) UnmarshalCBOR(data []byte) error {
	var m map[string]any
	if err := decMode.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to decode CBOR payload: %w", err)
	}
	return p.fromMap(m)
}

// MarshalJSON encodes the payload as a JSON object in entry order
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object. Entries come back sorted by id.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("failed to decode JSON payload: %w", err)
	}
	return p.fromMap(m)
}

// Decode parses an encoded payload using default options
func Decode(data []byte, enc Encoding) (*Payload, error) {
	p := &Payload{opts: DefaultOptions()}
	var err error
	switch enc {
	case EncodingCBOR, "":
		err = p.UnmarshalCBOR(data)
	case EncodingJSON:
		err = p.UnmarshalJSON(data)
	default:
		err = fmt.Errorf("unknown encoding %q", enc)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Payload) fromMap(m map[string]any) error {
	if p.opts.Scale == 0 {
		p.opts = DefaultOptions()
	}

	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	p.Entries = p.Entries[:0]
	for _, id := range ids {
		v, err := decodedValue(m[id])
		if err != nil {
			return settings.NewInvalidValueError(id, err.Error(), nil)
		}
		p.Entries = append(p.Entries, Entry{ID: id, Value: v})
	}
	return nil
}

// decodedValue narrows decoder output to the three wire types
func decodedValue(v any) (any, error) {
	switch x := v.(type) {
	case bool, string:
		return x, nil
	case uint64:
		if x > math.MaxInt32 {
			return nil, fmt.Errorf("integer %d overflows int32", x)
		}
		return int32(x), nil
	case int64:
		if x > math.MaxInt32 || x < math.MinInt32 {
			return nil, fmt.Errorf("integer %d overflows int32", x)
		}
		return int32(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %s", x)
		}
		return decodedValue(n)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
