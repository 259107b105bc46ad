// Package ui renders the one-shot terminal output of ephemeris-cfg
// commands: a header banner naming the command and its parameters, and a
// result box once the command finishes. The interactive settings form
// lives in package form and shares the palette defined here.
//
// Logging is controlled separately through EPHEMERIS_LOG_LEVEL. When it
// is unset zap stays silent so that only the styled output is shown.
package ui
