package settings

// Entry is one (id, value) pair of a store snapshot
type Entry struct {
	ID    string
	Kind  Kind
	Value any
	Local bool
}

// Store holds the live values of one configuration session.
// Fields keep their insertion order for rendering; lookups are by id.
//
// A Store is owned by a single session and is not safe for concurrent use.
type Store struct {
	order  []string
	fields map[string]*SettingField
}

// NewStore creates a store from field definitions. Each field's Value is
// initialised from its Default (coerced to the field kind) unless Value is
// already set. Duplicate ids and defaults of the wrong kind are rejected.
func NewStore(fields ...SettingField) (*Store, error) {
	s := &Store{
		order:  make([]string, 0, len(fields)),
		fields: make(map[string]*SettingField, len(fields)),
	}

	for _, f := range fields {
		if f.ID == "" {
			return nil, NewSchemaError("", "field id cannot be empty")
		}
		if _, exists := s.fields[f.ID]; exists {
			return nil, NewSchemaError(f.ID, "duplicate field id")
		}

		field := f
		if field.Constraints != nil {
			c := *field.Constraints
			field.Constraints = &c
		}

		initial := field.Value
		if initial == nil {
			initial = field.Default
		}
		if initial == nil {
			initial = zeroValue(field.Kind)
		}
		v, err := Coerce(field.Kind, field.Constraints, initial)
		if err != nil {
			return nil, NewInvalidValueError(field.ID, "invalid default", err)
		}
		field.Value = v

		s.order = append(s.order, field.ID)
		s.fields[field.ID] = &field
	}

	return s, nil
}

func zeroValue(kind Kind) any {
	switch kind {
	case KindToggle:
		return false
	case KindNumericRange:
		return 0.0
	default:
		return ""
	}
}

// Get returns a copy of the field with the given id
func (s *Store) Get(id string) (SettingField, error) {
	f, ok := s.fields[id]
	if !ok {
		return SettingField{}, NewUnknownFieldError(id)
	}
	return *f, nil
}

// Has reports whether the store holds a field with the given id
func (s *Store) Has(id string) bool {
	_, ok := s.fields[id]
	return ok
}

// Require returns an UnknownField error for the first id not in the store.
// Empty ids are skipped.
func (s *Store) Require(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if !s.Has(id) {
			return NewUnknownFieldError(id)
		}
	}
	return nil
}

// SetValue validates v against the field and stores it.
// Numeric values are clamped into range and snapped to the step, never
// rejected; only a value of the wrong kind yields InvalidValue.
func (s *Store) SetValue(id string, v any) error {
	f, ok := s.fields[id]
	if !ok {
		return NewUnknownFieldError(id)
	}

	coerced, err := Coerce(f.Kind, f.Constraints, v)
	if err != nil {
		return NewInvalidValueError(id, err.Error(), nil)
	}
	f.Value = coerced
	return nil
}

// SetString parses raw input according to the field kind and stores it.
func (s *Store) SetString(id string, raw string) error {
	f, ok := s.fields[id]
	if !ok {
		return NewUnknownFieldError(id)
	}

	v, err := ParseValue(f.Kind, raw)
	if err != nil {
		return NewInvalidValueError(id, err.Error(), nil)
	}
	return s.SetValue(id, v)
}

// Snapshot returns the current values in insertion order
func (s *Store) Snapshot() []Entry {
	entries := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		f := s.fields[id]
		entries = append(entries, Entry{
			ID:    f.ID,
			Kind:  f.Kind,
			Value: f.Value,
			Local: f.Local,
		})
	}
	return entries
}

// Fields returns copies of all fields in insertion order
func (s *Store) Fields() []SettingField {
	fields := make([]SettingField, 0, len(s.order))
	for _, id := range s.order {
		fields = append(fields, *s.fields[id])
	}
	return fields
}

// IDs returns the field ids in insertion order
func (s *Store) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Len returns the number of fields
func (s *Store) Len() int {
	return len(s.order)
}
