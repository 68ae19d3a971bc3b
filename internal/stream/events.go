// ABOUTME: Normalized message-event model emitted by the stream adapter.
// ABOUTME: One event kind per consumer-visible signal; rendered idempotently from Text.

package stream

// Kind tags a normalized message event.
type Kind string

const (
	// KindMessageStart marks a new message boundary: the first assistant
	// event for a previously unseen run.
	KindMessageStart Kind = "message.start"
	// KindMessageText carries the entire accumulated text so far.
	KindMessageText Kind = "message.text"
	// KindMessageFinal carries the run's complete text, exactly once.
	KindMessageFinal Kind = "message.final"
	// KindToolStatus updates one tool call's status in place.
	KindToolStatus Kind = "tool.status"
	// KindTurnStart signals a new turn beginning.
	KindTurnStart Kind = "turn.start"
	// KindTurnEnd signals the turn is over, after any message.final.
	KindTurnEnd Kind = "turn.end"
)

// ToolState is the consumer-visible status of one tool call.
type ToolState string

const (
	ToolRunning   ToolState = "running"
	ToolCompleted ToolState = "completed"
	ToolErrored   ToolState = "error"
)

// ToolUpdate describes a tool call status change, keyed by CallID so a
// consumer updates one card in place instead of appending duplicates.
type ToolUpdate struct {
	CallID string
	Name   string
	State  ToolState
}

// MessageEvent is one normalized event. Text is meaningful for
// message.text and message.final; Tool is set for tool.status.
type MessageEvent struct {
	Kind  Kind
	RunID string
	Seq   int64
	Text  string
	Tool  *ToolUpdate
}
