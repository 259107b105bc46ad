package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// CurrentVersion is the config file format version
	CurrentVersion = 1

	DefaultLocationTimeoutMS = 10000
	DefaultLocationMaxAgeMS  = 600000
	DefaultProvider          = "ip"
	DefaultEncoding          = "cbor"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                      `yaml:"version"`
	Preferences *Preferences             `yaml:"preferences,omitempty"`
	Bridges     map[string]*BridgeRecord `yaml:"bridges,omitempty"` // Keyed by mDNS instance name
}

// Preferences are applied to every configuration session the CLI starts.
type Preferences struct {
	AutoLocation      bool   `yaml:"auto_location"`
	LocationTimeoutMS int    `yaml:"location_timeout_ms"`
	LocationMaxAgeMS  int    `yaml:"location_max_age_ms"`
	Provider          string `yaml:"provider"`                // ip, city or none
	City              string `yaml:"city,omitempty"`          // Used by the city provider
	Encoding          string `yaml:"encoding"`                // cbor or json
	SchemaPath        string `yaml:"schema_path,omitempty"`   // Custom settings schema
	Bridge            *BridgePrefs `yaml:"bridge,omitempty"`

	// Defaults are raw field values applied to each new session's store
	Defaults map[string]string `yaml:"defaults,omitempty"`
}

// BridgePrefs selects where payloads are delivered.
type BridgePrefs struct {
	URL     string `yaml:"url,omitempty"`     // Fixed ws:// URL
	Service string `yaml:"service,omitempty"` // mDNS instance name to look for
}

// BridgeRecord remembers a bridge seen on the network.
type BridgeRecord struct {
	LastURL  string    `yaml:"last_url,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// NewPreferences returns preferences with default values.
func NewPreferences() *Preferences {
	return &Preferences{
		AutoLocation:      false,
		LocationTimeoutMS: DefaultLocationTimeoutMS,
		LocationMaxAgeMS:  DefaultLocationMaxAgeMS,
		Provider:          DefaultProvider,
		Encoding:          DefaultEncoding,
		Bridge:            &BridgePrefs{},
		Defaults:          make(map[string]string),
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Preferences: NewPreferences(),
		Bridges:     make(map[string]*BridgeRecord),
	}
}

// normalize fills in anything a hand-edited file left out.
func (r *Registry) normalize() {
	if r.Preferences == nil {
		r.Preferences = NewPreferences()
	}
	p := r.Preferences
	if p.LocationTimeoutMS <= 0 {
		p.LocationTimeoutMS = DefaultLocationTimeoutMS
	}
	if p.LocationMaxAgeMS <= 0 {
		p.LocationMaxAgeMS = DefaultLocationMaxAgeMS
	}
	if p.Provider == "" {
		p.Provider = DefaultProvider
	}
	if p.Encoding == "" {
		p.Encoding = DefaultEncoding
	}
	if p.Bridge == nil {
		p.Bridge = &BridgePrefs{}
	}
	if p.Defaults == nil {
		p.Defaults = make(map[string]string)
	}
	if r.Bridges == nil {
		r.Bridges = make(map[string]*BridgeRecord)
	}
}

// LocationTimeout returns the location timeout as a duration
func (p *Preferences) LocationTimeout() time.Duration {
	return time.Duration(p.LocationTimeoutMS) * time.Millisecond
}

// LocationMaxAge returns the maximum fix age as a duration
func (p *Preferences) LocationMaxAge() time.Duration {
	return time.Duration(p.LocationMaxAgeMS) * time.Millisecond
}

// SetDefault records a raw default for a settings field.
func (p *Preferences) SetDefault(id, raw string) {
	if p.Defaults == nil {
		p.Defaults = make(map[string]string)
	}
	p.Defaults[id] = raw
}

// ClearDefault removes a field default.
func (p *Preferences) ClearDefault(id string) {
	delete(p.Defaults, id)
}

// GetBridge retrieves a remembered bridge, or nil.
func (r *Registry) GetBridge(name string) *BridgeRecord {
	return r.Bridges[name]
}

// UpdateBridgeLastSeen records where a bridge was last found.
func (r *Registry) UpdateBridgeLastSeen(name, url string) {
	if r.Bridges == nil {
		r.Bridges = make(map[string]*BridgeRecord)
	}
	rec, ok := r.Bridges[name]
	if !ok {
		rec = &BridgeRecord{}
		r.Bridges[name] = rec
	}
	rec.LastURL = url
	rec.LastSeen = time.Now()
}

// PreferenceKeys lists the keys accepted by Set and Get, in display order.
var PreferenceKeys = []string{
	"auto_location",
	"location_timeout_ms",
	"location_max_age_ms",
	"provider",
	"city",
	"encoding",
	"schema_path",
	"bridge.url",
	"bridge.service",
}

// Get returns a preference as text. Keys of the form "defaults.<id>"
// read field defaults.
func (p *Preferences) Get(key string) (string, error) {
	if id, ok := strings.CutPrefix(key, "defaults."); ok {
		return p.Defaults[id], nil
	}

	switch key {
	case "auto_location":
		return strconv.FormatBool(p.AutoLocation), nil
	case "location_timeout_ms":
		return strconv.Itoa(p.LocationTimeoutMS), nil
	case "location_max_age_ms":
		return strconv.Itoa(p.LocationMaxAgeMS), nil
	case "provider":
		return p.Provider, nil
	case "city":
		return p.City, nil
	case "encoding":
		return p.Encoding, nil
	case "schema_path":
		return p.SchemaPath, nil
	case "bridge.url":
		return p.Bridge.URL, nil
	case "bridge.service":
		return p.Bridge.Service, nil
	default:
		return "", fmt.Errorf("unknown preference %q", key)
	}
}

// Set validates and stores a preference from text.
func (p *Preferences) Set(key, value string) error {
	if id, ok := strings.CutPrefix(key, "defaults."); ok {
		if id == "" {
			return fmt.Errorf("missing field id in %q", key)
		}
		p.SetDefault(id, value)
		return nil
	}

	switch key {
	case "auto_location":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auto_location must be true or false, got %q", value)
		}
		p.AutoLocation = b
	case "location_timeout_ms", "location_max_age_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		if key == "location_timeout_ms" {
			p.LocationTimeoutMS = n
		} else {
			p.LocationMaxAgeMS = n
		}
	case "provider":
		switch value {
		case "ip", "city", "none":
			p.Provider = value
		default:
			return fmt.Errorf("provider must be ip, city or none, got %q", value)
		}
	case "city":
		p.City = value
	case "encoding":
		switch value {
		case "cbor", "json":
			p.Encoding = value
		default:
			return fmt.Errorf("encoding must be cbor or json, got %q", value)
		}
	case "schema_path":
		p.SchemaPath = value
	case "bridge.url":
		p.Bridge.URL = value
	case "bridge.service":
		p.Bridge.Service = value
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
	return nil
}

// Lines returns "key: value" lines for display, defaults last.
func (p *Preferences) Lines() []string {
	lines := make([]string, 0, len(PreferenceKeys)+len(p.Defaults))
	for _, key := range PreferenceKeys {
		v, _ := p.Get(key)
		lines = append(lines, fmt.Sprintf("%s: %s", key, v))
	}

	ids := make([]string, 0, len(p.Defaults))
	for id := range p.Defaults {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("defaults.%s: %s", id, p.Defaults[id]))
	}
	return lines
}
