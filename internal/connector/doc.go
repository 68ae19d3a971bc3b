// Package connector owns the gateway WebSocket connection: handshake,
// request/response correlation, and the reconnection policy.
//
// # Overview
//
// A Connector is constructed once by the host and injected where needed.
// Connect dials the gateway, completes the challenge/connect/hello-ok
// handshake and starts the read loop. After that, Request and the typed
// method wrappers (SendChat, AbortRun, ListSessions, ResolveSession,
// GetHistory) correlate responses back to callers by request ID, each with
// its own timeout.
//
// # Connection lifecycle
//
// States: disconnected, connecting, handshaking, connected, reconnecting.
// A handshake rejection is fatal and never retried. Any other unexpected
// disconnection is retried with bounded exponential backoff; after the
// attempt limit the connector settles into disconnected and requires a new
// Connect call. Disconnect is safe from any state and rejects every pending
// request synchronously.
//
// # Observation
//
// States(ctx) replays the current state to new subscribers, then streams
// every transition. Events(ctx) delivers normalized message events from the
// stream adapter. RawEvents(ctx) passes through event frames the connector
// does not itself interpret.
//
// Timer-driven logic (per-request timeouts, backoff) goes through the Clock
// interface so tests can advance virtual time deterministically.
package connector
