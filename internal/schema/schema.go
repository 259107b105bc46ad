// Package schema loads the declarative description of the watchapp
// settings form.
//
// A schema lists sections of field descriptors in display order. It is
// read-only once parsed: every configuration session builds its own
// settings.Store from it with NewStore, so edits made in one session can
// never leak into the schema or into a later session.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/muurk/ephemeris/internal/settings"
)

//go:embed default.yaml
var defaultSchemaYAML []byte

// Schema describes the settings form
type Schema struct {
	Title    string    `yaml:"title"`
	Intro    string    `yaml:"intro,omitempty"`
	Submit   string    `yaml:"submit,omitempty"`
	Sections []Section `yaml:"sections"`
}

// Section groups fields under an optional heading
type Section struct {
	Heading string       `yaml:"heading,omitempty"`
	Fields  []Descriptor `yaml:"fields"`
}

// Descriptor declares one field
type Descriptor struct {
	ID      string   `yaml:"id"`
	Kind    string   `yaml:"kind"`
	Label   string   `yaml:"label,omitempty"`
	Default any      `yaml:"default,omitempty"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Step    *float64 `yaml:"step,omitempty"`
	Local   bool     `yaml:"local,omitempty"`
}

// Default returns the built-in schema of the ephemeris watchapp.
func Default() *Schema {
	s, err := Parse(defaultSchemaYAML)
	if err != nil {
		panic("schema: embedded default schema is invalid: " + err.Error())
	}
	return s
}

// Load reads and validates a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML schema.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks ids, kinds, ranges and defaults. It builds a throwaway
// store so defaults get exactly the checks a session applies.
func (s *Schema) Validate() error {
	_, err := s.NewStore()
	return err
}

// Descriptors returns all field descriptors in display order
func (s *Schema) Descriptors() []Descriptor {
	var out []Descriptor
	for _, sec := range s.Sections {
		out = append(out, sec.Fields...)
	}
	return out
}

// Lookup returns the descriptor with the given id
func (s *Schema) Lookup(id string) (Descriptor, bool) {
	for _, d := range s.Descriptors() {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// NewStore builds a fresh store holding each field at its default value.
func (s *Schema) NewStore() (*settings.Store, error) {
	descriptors := s.Descriptors()
	fields := make([]settings.SettingField, 0, len(descriptors))

	for _, d := range descriptors {
		f, err := d.Field()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	return settings.NewStore(fields...)
}

// Field converts the descriptor into a settings field
func (d Descriptor) Field() (settings.SettingField, error) {
	kind, err := settings.ParseKind(d.Kind)
	if err != nil {
		return settings.SettingField{}, settings.NewSchemaError(d.ID, err.Error())
	}

	f := settings.SettingField{
		ID:    d.ID,
		Kind:  kind,
		Label: d.Label,
		Local: d.Local,
	}

	if kind == settings.KindNumericRange {
		c, err := d.constraints()
		if err != nil {
			return settings.SettingField{}, err
		}
		f.Constraints = c
	}

	def, err := d.defaultValue(kind)
	if err != nil {
		return settings.SettingField{}, err
	}
	f.Default = def

	return f, nil
}

func (d Descriptor) constraints() (*settings.Constraints, error) {
	if d.Min == nil || d.Max == nil {
		return nil, settings.NewSchemaError(d.ID, "slider requires min and max")
	}
	if *d.Min > *d.Max {
		return nil, settings.NewSchemaError(d.ID, fmt.Sprintf("min %v is greater than max %v", *d.Min, *d.Max))
	}

	c := &settings.Constraints{Min: *d.Min, Max: *d.Max}
	if d.Step != nil {
		if *d.Step <= 0 {
			return nil, settings.NewSchemaError(d.ID, fmt.Sprintf("step must be positive, got %v", *d.Step))
		}
		c.Step = *d.Step
	}
	return c, nil
}

// defaultValue normalises YAML scalars. Slider defaults are often written
// as strings ("65") and are accepted as long as they parse.
func (d Descriptor) defaultValue(kind settings.Kind) (any, error) {
	if d.Default == nil {
		return nil, nil
	}

	raw, isString := d.Default.(string)
	if !isString || kind == settings.KindText {
		return d.Default, nil
	}

	v, err := settings.ParseValue(kind, raw)
	if err != nil {
		return nil, settings.NewSchemaError(d.ID, "invalid default: "+strconv.Quote(raw))
	}
	return v, nil
}
