package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies how a field's value is represented and edited
type Kind int

const (
	// KindToggle holds a bool
	KindToggle Kind = iota
	// KindNumericRange holds a float64 bounded by Constraints
	KindNumericRange
	// KindText holds a string
	KindText
)

// String returns the schema name of the kind
func (k Kind) String() string {
	switch k {
	case KindToggle:
		return "toggle"
	case KindNumericRange:
		return "slider"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind maps a schema kind name to a Kind.
// "slider" and "numericRange" are synonyms.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toggle":
		return KindToggle, nil
	case "slider", "numericrange", "range":
		return KindNumericRange, nil
	case "text", "input":
		return KindText, nil
	default:
		return 0, fmt.Errorf("unknown field kind %q", s)
	}
}

// Constraints bound a numeric field. Step of 0 disables snapping.
type Constraints struct {
	Min  float64
	Max  float64
	Step float64
}

// Apply clamps v into [Min, Max] and snaps it to the nearest multiple of Step.
func (c Constraints) Apply(v float64) float64 {
	v = c.clamp(v)
	if c.Step > 0 {
		v = c.clamp(snap(v, c.Step))
	}
	return v
}

func (c Constraints) clamp(v float64) float64 {
	if v < c.Min {
		return c.Min
	}
	if v > c.Max {
		return c.Max
	}
	return v
}

// snap rounds v to the nearest multiple of step. Dividing by the
// reciprocal keeps decimal steps like 0.01 from picking up binary noise
// (6484 / 100 is exact where 6484 * 0.01 is not).
func snap(v, step float64) float64 {
	q := math.Round(v / step)
	if inv := 1 / step; inv == math.Trunc(inv) {
		return q / inv
	}
	return q * step
}

// SettingField is one entry of the settings form
type SettingField struct {
	ID          string
	Kind        Kind
	Label       string
	Value       any
	Default     any
	Constraints *Constraints

	// Local fields are shown in the form but never transmitted to the watch
	Local bool
}

// Bool returns the value of a toggle field
func (f SettingField) Bool() bool {
	b, _ := f.Value.(bool)
	return b
}

// Number returns the value of a numeric field
func (f SettingField) Number() float64 {
	n, _ := f.Value.(float64)
	return n
}

// Text returns the value of a text field
func (f SettingField) Text() string {
	s, _ := f.Value.(string)
	return s
}

// FormatValue renders the current value for display
func (f SettingField) FormatValue() string {
	switch f.Kind {
	case KindToggle:
		if f.Bool() {
			return "on"
		}
		return "off"
	case KindNumericRange:
		return strconv.FormatFloat(f.Number(), 'f', -1, 64)
	default:
		return f.Text()
	}
}

// Coerce converts v into the canonical representation for kind.
// Numeric values of any Go numeric type become float64 and are passed
// through the constraints. A value of the wrong type is rejected.
func Coerce(kind Kind, c *Constraints, v any) (any, error) {
	switch kind {
	case KindToggle:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil

	case KindNumericRange:
		n, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", v)
		}
		if math.IsNaN(n) {
			return nil, fmt.Errorf("expected number, got NaN")
		}
		if c != nil {
			n = c.Apply(n)
		}
		return n, nil

	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

// ParseValue converts raw user input into a value of the given kind.
func ParseValue(kind Kind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case KindToggle:
		switch strings.ToLower(raw) {
		case "on", "yes":
			return true, nil
		case "off", "no":
			return false, nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
		return b, nil

	case KindNumericRange:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return n, nil

	case KindText:
		return raw, nil

	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
