// Package form is the interactive terminal rendering of a configuration
// session, built on Bubble Tea.
//
// The form lists the schema's sections and fields, lets the user move
// between editable fields and change them, and shows the location
// status while a lookup runs. All state lives in the session; the model
// only forwards edits and renders what the session reports, so a
// rejected edit leaves the field unchanged and is shown as a one-line
// message.
//
// Keys: ↑/↓ select, ←/→ step a slider, space toggles, enter edits the
// value as text, l looks the location up again, s submits, q or esc
// cancels the session.
package form
