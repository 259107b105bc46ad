// Package logging provides structured logging for the ephemeris tools.
//
// This package wraps a global zap logger. It is silent unless a level is
// passed to Initialize or set in EPHEMERIS_LOG_LEVEL, so CLI output stays
// clean by default.
//
// # Log Levels
//
//   - Debug: Payload hex dumps, provider requests
//   - Info: Session transitions, location outcomes, bridge connections
//   - Warn: Rejected edits, stale fixes, dropped acknowledgements
//   - Error: Transport and startup failures
//
// # Specialized Logging
//
//	logging.LogTransition(logger, sessionID, "Idle", "ResolvingLocation")
//	logging.LogLocationOutcome(logger, "resolved", "none", 64.84, -147.72)
//	logging.LogPayload(logger, "sent", "cbor", data)
//
// # Configuration
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Logs are written to stderr in console format, keeping stdout free for
// command output such as encoded payloads.
package logging
