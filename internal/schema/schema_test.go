package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/muurk/ephemeris/internal/settings"
)

func TestDefault(t *testing.T) {
	s := Default()

	if s.Title != "Ephemeris Configuration" {
		t.Errorf("Expected title 'Ephemeris Configuration', got '%s'", s.Title)
	}
	if len(s.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(s.Sections))
	}
	if s.Sections[0].Heading != "Location" {
		t.Errorf("Expected first heading 'Location', got '%s'", s.Sections[0].Heading)
	}

	store, err := s.NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	wantIDs := []string{"UsePhoneLocation", "LocationStatus", "Latitude", "Longitude", "ShowInfo"}
	ids := store.IDs()
	if len(ids) != len(wantIDs) {
		t.Fatalf("Expected %d fields, got %d", len(wantIDs), len(ids))
	}
	for i := range wantIDs {
		if ids[i] != wantIDs[i] {
			t.Errorf("Field %d: expected %s, got %s", i, wantIDs[i], ids[i])
		}
	}

	lat, _ := store.Get("Latitude")
	if lat.Number() != 65 {
		t.Errorf("Expected Latitude default 65, got %v", lat.Value)
	}
	if lat.Constraints == nil || lat.Constraints.Min != -90 || lat.Constraints.Max != 90 {
		t.Errorf("Unexpected Latitude constraints: %+v", lat.Constraints)
	}

	lon, _ := store.Get("Longitude")
	if lon.Number() != -147 {
		t.Errorf("Expected Longitude default -147, got %v", lon.Value)
	}

	status, _ := store.Get("LocationStatus")
	if !status.Local {
		t.Error("Expected LocationStatus to be local")
	}

	show, _ := store.Get("ShowInfo")
	if !show.Bool() {
		t.Error("Expected ShowInfo default true")
	}
}

// TestNewStoreIsolation checks that sessions built from one schema never
// see each other's edits.
func TestNewStoreIsolation(t *testing.T) {
	s := Default()

	first, err := s.NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := first.SetValue("Latitude", 12.5); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	second, err := s.NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	lat, _ := second.Get("Latitude")
	if lat.Number() != 65 {
		t.Errorf("Second store saw first store's edit: Latitude=%v", lat.Value)
	}

	d, _ := s.Lookup("Latitude")
	if d.Default != "65" {
		t.Errorf("Schema default was mutated: %v", d.Default)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		schema bool // expect a settings schema error (vs. YAML error)
	}{
		{
			name: "bad yaml",
			yaml: "sections: [",
		},
		{
			name: "unknown kind",
			yaml: `
sections:
  - fields:
      - id: Foo
        kind: heading
`,
			schema: true,
		},
		{
			name: "duplicate id",
			yaml: `
sections:
  - fields:
      - id: Foo
        kind: toggle
  - fields:
      - id: Foo
        kind: text
`,
			schema: true,
		},
		{
			name: "slider without bounds",
			yaml: `
sections:
  - fields:
      - id: Lat
        kind: slider
        min: -90
`,
			schema: true,
		},
		{
			name: "min above max",
			yaml: `
sections:
  - fields:
      - id: Lat
        kind: slider
        min: 10
        max: -10
`,
			schema: true,
		},
		{
			name: "negative step",
			yaml: `
sections:
  - fields:
      - id: Lat
        kind: slider
        min: -90
        max: 90
        step: -1
`,
			schema: true,
		},
		{
			name: "unparseable string default",
			yaml: `
sections:
  - fields:
      - id: Lat
        kind: slider
        min: -90
        max: 90
        default: north
`,
			schema: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.schema && !settings.IsSchemaError(err) {
				t.Errorf("Expected schema error, got %v", err)
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(`
title: Test
sections:
  - fields:
      - id: Dayshift
        kind: slider
        min: -24
        max: 24
        step: 1
        default: 30
      - id: Night
        kind: toggle
        default: "on"
      - id: City
        kind: text
        default: Fairbanks
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	store, err := s.NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	shift, _ := store.Get("Dayshift")
	if shift.Number() != 24 {
		t.Errorf("Expected out-of-range default clamped to 24, got %v", shift.Value)
	}
	night, _ := store.Get("Night")
	if !night.Bool() {
		t.Error("Expected string default 'on' to parse as true")
	}
	city, _ := store.Get("City")
	if city.Text() != "Fairbanks" {
		t.Errorf("Expected City=Fairbanks, got %v", city.Value)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")

	content := `
title: From File
sections:
  - heading: Only
    fields:
      - id: ShowInfo
        kind: toggle
        default: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write schema: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Title != "From File" {
		t.Errorf("Expected title 'From File', got '%s'", s.Title)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLookup(t *testing.T) {
	s := Default()

	d, ok := s.Lookup("Longitude")
	if !ok {
		t.Fatal("Expected to find Longitude")
	}
	if d.Label != "Longitude, + for East" {
		t.Errorf("Unexpected label: %s", d.Label)
	}

	if _, ok := s.Lookup("Dayshift"); ok {
		t.Error("Did not expect to find Dayshift")
	}
}
