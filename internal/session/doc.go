// Package session runs one configuration interaction from open to
// submit or abandon.
//
// A Session owns a settings.Store built fresh from the schema, the
// location resolver used to fill the latitude and longitude fields, and
// the transport that receives the final payload. Its lifecycle is:
//
//	Idle ─┬─> ResolvingLocation ─> LocationSettled ─> AwaitingSubmission ─> Submitted
//	      └──────────────────────────────────────────> AwaitingSubmission
//
// and any non-terminal state may move to Abandoned. Location failures
// never end a session: the failure text is written to the status field
// and the user can fill the coordinates in by hand.
//
// A Renderer presents the session to the user. The interactive form in
// internal/form is one; the CLI's non-interactive submit is another.
package session
