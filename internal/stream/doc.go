// Package stream normalizes gateway agent push events into message-level
// events that a presentation layer can render idempotently.
//
// # Overview
//
// The gateway pushes low-level events tagged by stream (assistant, tool,
// lifecycle) and keyed by a server-issued run ID. The Adapter folds those
// into per-run accumulated state and emits normalized MessageEvents:
//
//   - message.start: first event for an unseen run (new bubble boundary)
//   - message.text: the entire accumulated text so far, not just the delta
//   - message.final: the run's full text, emitted once on lifecycle end
//   - tool.status: running/completed/error keyed by tool call ID
//   - turn.start / turn.end: turn boundaries
//
// Consumers subscribe through the Broadcaster and render from the latest
// event for a run; they never have to reconcile partial deltas themselves.
//
// # Ordering
//
// The adapter trusts transport ordering and does not reorder by seq. Seq is
// tracked per run to detect gaps and to drop duplicate deliveries after a
// reconnect replay.
package stream
