package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ephemeris/internal/config"
	"github.com/muurk/ephemeris/internal/discovery"
	"github.com/muurk/ephemeris/internal/location"
	"github.com/muurk/ephemeris/internal/logging"
	"github.com/muurk/ephemeris/internal/payload"
	"github.com/muurk/ephemeris/internal/schema"
	"github.com/muurk/ephemeris/internal/session"
	"github.com/muurk/ephemeris/internal/transport"
)

// loadRegistry returns the preferences from --config or the default path
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadRegistryFile(configPath)
	}
	return config.LoadRegistry()
}

// saveRegistry writes preferences back where they were loaded from
func saveRegistry(reg *config.Registry) error {
	if configPath != "" {
		return reg.SaveFile(configPath)
	}
	return reg.Save()
}

// loadSchema picks --schema, then the preferences, then the built-in schema
func loadSchema(prefs *config.Preferences) (*schema.Schema, error) {
	path := schemaPath
	if path == "" {
		path = prefs.SchemaPath
	}
	if path == "" {
		return schema.Default(), nil
	}
	return schema.Load(path)
}

// buildProvider maps a provider name onto a location provider.
// "none" yields nil, which makes every lookup fail as unavailable.
func buildProvider(name, city string) (location.Provider, error) {
	switch name {
	case "ip", "":
		return location.NewIPProvider(), nil
	case "city":
		if strings.TrimSpace(city) == "" {
			return nil, fmt.Errorf("the city provider needs a city (use --city or 'prefs set city <name>')")
		}
		return location.NewCityProvider(city), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown location provider %q (use ip, city or none)", name)
	}
}

// parseAssignments splits --set id=value flags
func parseAssignments(pairs []string) ([][2]string, error) {
	out := make([][2]string, 0, len(pairs))
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --set %q, expected id=value", pair)
		}
		out = append(out, [2]string{id, value})
	}
	return out, nil
}

// sessionParams collects what newSession needs from flags and preferences
type sessionParams struct {
	autoLocation bool
	provider     string
	city         string
	timeout      time.Duration
}

func newSession(reg *config.Registry, params sessionParams, tr session.Transport) (*session.Session, error) {
	prefs := reg.Preferences

	sch, err := loadSchema(prefs)
	if err != nil {
		return nil, err
	}

	providerName := params.provider
	if providerName == "" {
		providerName = prefs.Provider
	}
	city := params.city
	if city == "" {
		city = prefs.City
	}
	provider, err := buildProvider(providerName, city)
	if err != nil {
		return nil, err
	}

	var resolver *location.Resolver
	if provider != nil {
		resolver = location.NewResolver(provider, nil)
	}

	timeout := prefs.LocationTimeout()
	if params.timeout > 0 {
		timeout = params.timeout
	}

	return session.New(sch, resolver, tr, session.Options{
		AutoLocation: params.autoLocation || prefs.AutoLocation,
		Timeout:      timeout,
		MaxAge:       prefs.LocationMaxAge(),
		Defaults:     prefs.Defaults,
	})
}

// bridgeTarget resolves where payloads go: --bridge, then the preferred
// URL, then an mDNS lookup for the preferred service name.
func bridgeTarget(ctx context.Context, reg *config.Registry, flagURL string, enc payload.Encoding, scanTimeout time.Duration) (string, payload.Encoding, error) {
	if flagURL != "" {
		return flagURL, enc, nil
	}
	if url := reg.Preferences.Bridge.URL; url != "" {
		return url, enc, nil
	}

	name := reg.Preferences.Bridge.Service
	logging.Info("Looking for bridge", zap.String("name", name), zap.Duration("timeout", scanTimeout))

	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	b, err := discovery.NewScanner().WaitForBridgeWithContext(scanCtx, name)
	if err != nil {
		return "", enc, fmt.Errorf("no bridge found (use --bridge or 'prefs set bridge.url <url>'): %w", err)
	}

	if !b.Accepts(string(enc)) {
		accepted := b.Encodings()
		if len(accepted) == 0 {
			return "", enc, fmt.Errorf("bridge %s advertises no encodings", b.Name)
		}
		fallback, perr := payload.ParseEncoding(accepted[0])
		if perr != nil {
			return "", enc, fmt.Errorf("bridge %s accepts no known encoding: %v", b.Name, accepted)
		}
		logging.Warn("Bridge does not accept encoding, falling back",
			zap.String("wanted", string(enc)),
			zap.String("using", string(fallback)),
		)
		enc = fallback
	}

	url := b.WebSocketURL()
	reg.UpdateBridgeLastSeen(b.Name, url)
	if err := saveRegistry(reg); err != nil {
		logging.Warn("Failed to remember bridge", zap.Error(err))
	}
	return url, enc, nil
}

// encodingFor returns --encoding or the preferred encoding
func encodingFor(reg *config.Registry, flagValue string) (payload.Encoding, error) {
	if flagValue == "" {
		flagValue = reg.Preferences.Encoding
	}
	return payload.ParseEncoding(flagValue)
}

func newDryRun(out io.Writer) *transport.Writer {
	return transport.NewWriter(out)
}

func newWebSocket(url string, enc payload.Encoding) *transport.WebSocket {
	ws := transport.NewWebSocket(url, enc)
	ws.Logger = logging.GetLogger()
	return ws
}
