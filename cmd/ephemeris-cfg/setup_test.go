package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/ephemeris/internal/config"
	"github.com/muurk/ephemeris/internal/location"
	"github.com/muurk/ephemeris/internal/payload"
	"github.com/muurk/ephemeris/internal/session"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"Latitude=64.84", " ShowInfo =false", "Note=a=b"})
	if err != nil {
		t.Fatalf("parseAssignments failed: %v", err)
	}
	want := [][2]string{{"Latitude", "64.84"}, {"ShowInfo", "false"}, {"Note", "a=b"}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d assignments, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Assignment %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	for _, bad := range []string{"Latitude", "=5", ""} {
		if _, err := parseAssignments([]string{bad}); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestBuildProvider(t *testing.T) {
	tests := []struct {
		name    string
		city    string
		wantNil bool
		wantErr bool
	}{
		{name: "ip"},
		{name: ""},
		{name: "city", city: "Fairbanks"},
		{name: "city", wantErr: true},
		{name: "none", wantNil: true},
		{name: "gps", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.city, func(t *testing.T) {
			p, err := buildProvider(tt.name, tt.city)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if (p == nil) != tt.wantNil {
				t.Errorf("Expected nil provider %v, got %T", tt.wantNil, p)
			}
		})
	}

	p, _ := buildProvider("city", "Fairbanks")
	if cp, ok := p.(*location.CityProvider); !ok || cp.City != "Fairbanks" {
		t.Errorf("Expected a city provider for Fairbanks, got %#v", p)
	}
}

func TestNewSessionAppliesPreferences(t *testing.T) {
	reg := config.NewRegistry()
	reg.Preferences.Provider = "none"
	reg.Preferences.SetDefault("ShowInfo", "false")
	reg.Preferences.SetDefault("Latitude", "48.85")

	var out bytes.Buffer
	s, err := newSession(reg, sessionParams{}, newDryRun(&out))
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.EditString("Longitude", "2.35"); err != nil {
		t.Fatalf("EditString failed: %v", err)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	line := strings.TrimSpace(out.String())
	p, err := payload.Decode([]byte(line), payload.EncodingJSON)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n, _ := p.Int("Latitude"); n != 4885 {
		t.Errorf("Expected Latitude 4885, got %d", n)
	}
	if n, _ := p.Int("Longitude"); n != 235 {
		t.Errorf("Expected Longitude 235, got %d", n)
	}
	if v, _ := p.Get("ShowInfo"); v != false {
		t.Errorf("Expected ShowInfo false, got %v", v)
	}
}

func TestNewSessionNoneProviderFailsLocation(t *testing.T) {
	reg := config.NewRegistry()
	reg.Preferences.Provider = "none"

	s, err := newSession(reg, sessionParams{autoLocation: true}, nil)
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.Outcome().Reason != location.ReasonUnavailable {
		t.Errorf("Expected unavailable outcome, got %s", s.Outcome())
	}
	if s.State() != session.StateAwaitingSubmission {
		t.Errorf("Expected AwaitingSubmission, got %s", s.State())
	}
}

func TestLoadSchemaFromPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `
title: Minimal
sections:
  - fields:
      - id: Latitude
        kind: slider
        min: -90
        max: 90
      - id: Longitude
        kind: slider
        min: -180
        max: 180
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	prefs := config.NewPreferences()
	prefs.SchemaPath = path

	sch, err := loadSchema(prefs)
	if err != nil {
		t.Fatalf("loadSchema failed: %v", err)
	}
	if sch.Title != "Minimal" {
		t.Errorf("Expected title Minimal, got %s", sch.Title)
	}

	prefs.SchemaPath = ""
	sch, err = loadSchema(prefs)
	if err != nil {
		t.Fatalf("loadSchema failed: %v", err)
	}
	if sch.Title != "Ephemeris Configuration" {
		t.Errorf("Expected built-in schema, got %s", sch.Title)
	}
}

func TestEncodingFor(t *testing.T) {
	reg := config.NewRegistry()

	enc, err := encodingFor(reg, "")
	if err != nil || enc != payload.EncodingCBOR {
		t.Errorf("Expected preferred cbor, got %v (%v)", enc, err)
	}
	enc, err = encodingFor(reg, "json")
	if err != nil || enc != payload.EncodingJSON {
		t.Errorf("Expected json from flag, got %v (%v)", enc, err)
	}
	if _, err := encodingFor(reg, "xml"); err == nil {
		t.Error("Expected error for unknown encoding")
	}
}

func TestBridgeTargetPrefersFlagThenPreferences(t *testing.T) {
	reg := config.NewRegistry()
	reg.Preferences.Bridge.URL = "ws://10.0.0.2:8765/settings"

	url, enc, err := bridgeTarget(context.Background(), reg, "ws://127.0.0.1:9000/settings", payload.EncodingJSON, 0)
	if err != nil {
		t.Fatalf("bridgeTarget failed: %v", err)
	}
	if url != "ws://127.0.0.1:9000/settings" || enc != payload.EncodingJSON {
		t.Errorf("Expected flag URL, got %s (%s)", url, enc)
	}

	url, _, err = bridgeTarget(context.Background(), reg, "", payload.EncodingCBOR, 0)
	if err != nil {
		t.Fatalf("bridgeTarget failed: %v", err)
	}
	if url != "ws://10.0.0.2:8765/settings" {
		t.Errorf("Expected preferred URL, got %s", url)
	}
}
