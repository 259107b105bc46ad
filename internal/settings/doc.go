// Package settings holds the live values of a watchapp settings form.
//
// A Store maps field ids to SettingFields in schema order. Values are
// validated on every write: numeric sliders are clamped into their range
// and snapped to their step, while a value of the wrong kind (text for a
// slider, a number for a toggle) is rejected with an InvalidValue error and
// leaves the field unchanged.
//
//	store, _ := settings.NewStore(fields...)
//	_ = store.SetValue("Latitude", 91)  // stored as 90
//	err := store.SetValue("ShowInfo", "yes")
//	settings.IsInvalidValue(err)        // true
//
// Looking up an id the store does not hold yields an UnknownField error.
// That indicates the schema and the code disagree and is not something a
// user can trigger.
package settings
