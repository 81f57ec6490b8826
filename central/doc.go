// Package central bridges a callback-driven bluetooth controller to blocking,
// context-aware calls.
//
// A Controller takes fire-and-forget commands and reports outcomes later
// through an EventSink. Manager is that sink: it tracks the radio state, owns
// the single discovery stream and parks every Connect, CancelConnection and
// WaitUntilReady caller until the matching event arrives. A second request for
// a peripheral that already has one in flight is refused before any command is
// issued. Events nobody waits for are logged and counted, never returned.
package central
