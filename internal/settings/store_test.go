package settings

import (
	"testing"
)

// sampleFields mirrors the watchapp's settings form
func sampleFields() []SettingField {
	return []SettingField{
		{ID: "UsePhoneLocation", Kind: KindToggle, Label: "Use phone's location", Default: false},
		{ID: "LocationStatus", Kind: KindText, Label: "Status", Default: "", Local: true},
		{ID: "Latitude", Kind: KindNumericRange, Label: "Latitude", Default: 65,
			Constraints: &Constraints{Min: -90, Max: 90, Step: 1}},
		{ID: "Longitude", Kind: KindNumericRange, Label: "Longitude", Default: -147,
			Constraints: &Constraints{Min: -180, Max: 180, Step: 0.01}},
		{ID: "ShowInfo", Kind: KindToggle, Label: "Show extra information", Default: true},
	}
}

func newSampleStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(sampleFields()...)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestNewStore(t *testing.T) {
	t.Run("defaults become values", func(t *testing.T) {
		s := newSampleStore(t)

		lat, err := s.Get("Latitude")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if lat.Value != 65.0 {
			t.Errorf("Expected Latitude=65, got %v (%T)", lat.Value, lat.Value)
		}

		show, _ := s.Get("ShowInfo")
		if !show.Bool() {
			t.Error("Expected ShowInfo=true")
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		fields := append(sampleFields(), SettingField{ID: "Latitude", Kind: KindToggle})
		_, err := NewStore(fields...)
		if !IsSchemaError(err) {
			t.Errorf("Expected schema error, got %v", err)
		}
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := NewStore(SettingField{Kind: KindText})
		if !IsSchemaError(err) {
			t.Errorf("Expected schema error, got %v", err)
		}
	})

	t.Run("default of wrong kind", func(t *testing.T) {
		_, err := NewStore(SettingField{ID: "ShowInfo", Kind: KindToggle, Default: "yes"})
		if !IsInvalidValue(err) {
			t.Errorf("Expected invalid value error, got %v", err)
		}
	})

	t.Run("out of range default is clamped", func(t *testing.T) {
		s, err := NewStore(SettingField{ID: "Latitude", Kind: KindNumericRange, Default: 120,
			Constraints: &Constraints{Min: -90, Max: 90, Step: 1}})
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		f, _ := s.Get("Latitude")
		if f.Number() != 90 {
			t.Errorf("Expected 90, got %v", f.Number())
		}
	})

	t.Run("missing default uses zero value", func(t *testing.T) {
		s, err := NewStore(SettingField{ID: "Note", Kind: KindText})
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		f, _ := s.Get("Note")
		if f.Value != "" {
			t.Errorf("Expected empty string, got %v", f.Value)
		}
	})
}

func TestStoreDoesNotAliasInput(t *testing.T) {
	fields := sampleFields()
	s, err := NewStore(fields...)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := s.SetValue("Latitude", 10); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	fields[2].Constraints.Max = 5

	f, _ := s.Get("Latitude")
	if f.Constraints.Max != 90 {
		t.Errorf("Store constraints changed with caller's slice: max=%v", f.Constraints.Max)
	}
	if fields[2].Value != nil {
		t.Errorf("Caller's field value was mutated: %v", fields[2].Value)
	}
}

func TestGetUnknownField(t *testing.T) {
	s := newSampleStore(t)

	_, err := s.Get("Dayshift")
	if err == nil {
		t.Fatal("Expected error for unknown field")
	}
	if !IsUnknownField(err) {
		t.Errorf("Expected UnknownField, got %v", err)
	}
	if IsRecoverable(err) {
		t.Error("UnknownField should not be recoverable")
	}
}

func TestSetValueClampsNumeric(t *testing.T) {
	s := newSampleStore(t)

	tests := []struct {
		name  string
		id    string
		value any
		want  float64
	}{
		{"above max", "Latitude", 91, 90},
		{"below min", "Latitude", -91, -90},
		{"in range", "Latitude", 45, 45},
		{"snaps to step", "Latitude", 44.6, 45},
		{"snaps negative", "Latitude", -44.4, -44},
		{"float32 accepted", "Latitude", float32(12), 12},
		{"int64 accepted", "Latitude", int64(-3), -3},
		{"fine step keeps hundredths", "Longitude", -147.72, -147.72},
		{"fine step rounds thousandths", "Longitude", -147.726, -147.73},
		{"fine step clamps", "Longitude", 181.5, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetValue(tt.id, tt.value); err != nil {
				t.Fatalf("SetValue(%s, %v) failed: %v", tt.id, tt.value, err)
			}
			f, _ := s.Get(tt.id)
			if f.Number() != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, f.Number())
			}
		})
	}
}

func TestSetValueTypeMismatch(t *testing.T) {
	s := newSampleStore(t)

	tests := []struct {
		name  string
		id    string
		value any
	}{
		{"text into numeric", "Latitude", "north"},
		{"number into toggle", "ShowInfo", 1},
		{"bool into text", "LocationStatus", true},
		{"nil into numeric", "Latitude", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := s.Get(tt.id)

			err := s.SetValue(tt.id, tt.value)
			if !IsInvalidValue(err) {
				t.Fatalf("Expected InvalidValue, got %v", err)
			}
			if !IsRecoverable(err) {
				t.Error("InvalidValue should be recoverable")
			}

			after, _ := s.Get(tt.id)
			if after.Value != before.Value {
				t.Errorf("Rejected edit changed value from %v to %v", before.Value, after.Value)
			}
		})
	}

	// Other fields stay editable after a rejected edit
	if err := s.SetValue("ShowInfo", false); err != nil {
		t.Errorf("Expected ShowInfo edit to succeed, got %v", err)
	}
}

func TestSetValueUnknownField(t *testing.T) {
	s := newSampleStore(t)
	if err := s.SetValue("Nope", 1); !IsUnknownField(err) {
		t.Errorf("Expected UnknownField, got %v", err)
	}
	if err := s.SetString("Nope", "1"); !IsUnknownField(err) {
		t.Errorf("Expected UnknownField, got %v", err)
	}
}

func TestReadAfterWrite(t *testing.T) {
	s := newSampleStore(t)

	writes := []struct {
		id    string
		value any
		want  any
	}{
		{"Latitude", 64.84, 65.0},
		{"Longitude", -147.72, -147.72},
		{"ShowInfo", false, false},
		{"LocationStatus", "Location found", "Location found"},
		{"UsePhoneLocation", true, true},
	}

	for _, w := range writes {
		if err := s.SetValue(w.id, w.value); err != nil {
			t.Fatalf("SetValue(%s) failed: %v", w.id, err)
		}
		f, err := s.Get(w.id)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", w.id, err)
		}
		if f.Value != w.want {
			t.Errorf("%s: expected %v, got %v", w.id, w.want, f.Value)
		}
	}
}

func TestSetString(t *testing.T) {
	s := newSampleStore(t)

	tests := []struct {
		name    string
		id      string
		raw     string
		want    any
		wantErr bool
	}{
		{"numeric", "Latitude", "65", 65.0, false},
		{"numeric clamped", "Latitude", "91", 90.0, false},
		{"numeric with spaces", "Longitude", " -147.5 ", -147.5, false},
		{"toggle true", "ShowInfo", "true", true, false},
		{"toggle off", "ShowInfo", "off", false, false},
		{"toggle yes", "UsePhoneLocation", "yes", true, false},
		{"text", "LocationStatus", "hello", "hello", false},
		{"bad numeric", "Latitude", "north", nil, true},
		{"bad toggle", "ShowInfo", "maybe", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetString(tt.id, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetString(%s, %q) error = %v, wantErr %v", tt.id, tt.raw, err, tt.wantErr)
			}
			if err != nil {
				if !IsInvalidValue(err) {
					t.Errorf("Expected InvalidValue, got %v", err)
				}
				return
			}
			f, _ := s.Get(tt.id)
			if f.Value != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, f.Value)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	s := newSampleStore(t)
	_ = s.SetValue("Latitude", 12)

	snap := s.Snapshot()
	wantOrder := []string{"UsePhoneLocation", "LocationStatus", "Latitude", "Longitude", "ShowInfo"}

	if len(snap) != len(wantOrder) {
		t.Fatalf("Expected %d entries, got %d", len(wantOrder), len(snap))
	}
	for i, id := range wantOrder {
		if snap[i].ID != id {
			t.Errorf("Entry %d: expected %s, got %s", i, id, snap[i].ID)
		}
	}
	if snap[2].Value != 12.0 {
		t.Errorf("Expected Latitude=12, got %v", snap[2].Value)
	}
	if !snap[1].Local {
		t.Error("Expected LocationStatus to be local")
	}

	// Snapshot is a copy: later writes don't leak into it
	_ = s.SetValue("Latitude", 30)
	if snap[2].Value != 12.0 {
		t.Errorf("Snapshot changed after write: %v", snap[2].Value)
	}
}

func TestRequire(t *testing.T) {
	s := newSampleStore(t)

	if err := s.Require("Latitude", "Longitude", ""); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	err := s.Require("Latitude", "Altitude")
	if !IsUnknownField(err) {
		t.Fatalf("Expected UnknownField, got %v", err)
	}
	var sErr *Error
	if e, ok := err.(*Error); ok {
		sErr = e
	}
	if sErr == nil || sErr.FieldID != "Altitude" {
		t.Errorf("Expected FieldID=Altitude, got %v", err)
	}
}

func TestIDsAndLen(t *testing.T) {
	s := newSampleStore(t)

	if s.Len() != 5 {
		t.Errorf("Expected 5 fields, got %d", s.Len())
	}

	ids := s.IDs()
	ids[0] = "changed"
	if s.IDs()[0] != "UsePhoneLocation" {
		t.Error("IDs() should return a copy")
	}
}
