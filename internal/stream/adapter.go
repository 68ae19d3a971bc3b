// ABOUTME: Converts gateway agent push events into normalized message events.
// ABOUTME: Owns per-run accumulated text; unknown streams and phases are logged and ignored.

package stream

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/coven-connect/internal/wire"
)

const (
	// defaultRunTTL evicts runs whose terminal lifecycle event was lost.
	defaultRunTTL = 30 * time.Minute
	// defaultMaxRuns caps concurrently tracked runs.
	defaultMaxRuns = 256
)

// Adapter folds the gateway's assistant/tool/lifecycle event streams into
// normalized MessageEvents published on a Broadcaster. All state is keyed by
// run ID; multiple runs may stream concurrently.
type Adapter struct {
	mu     sync.Mutex
	runs   *runTable
	bus    *Broadcaster
	logger *slog.Logger
	now    func() time.Time
}

// NewAdapter creates an adapter with default run eviction limits.
// Pass nil logger for default.
func NewAdapter(bus *Broadcaster, logger *slog.Logger) *Adapter {
	return NewAdapterWithLimits(bus, logger, defaultRunTTL, defaultMaxRuns)
}

// NewAdapterWithLimits creates an adapter with explicit run TTL and size cap.
func NewAdapterWithLimits(bus *Broadcaster, logger *slog.Logger, runTTL time.Duration, maxRuns int) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		runs:   newRunTable(runTTL, maxRuns),
		bus:    bus,
		logger: logger.With("component", "stream-adapter"),
		now:    time.Now,
	}
}

// SetNow overrides the adapter's clock. Intended for tests.
func (a *Adapter) SetNow(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

// ActiveRuns returns the number of runs currently being accumulated.
func (a *Adapter) ActiveRuns() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runs.size()
}

// HandleAgentEvent processes one agent push event payload. It never returns
// an error: malformed or unknown input is logged and dropped so a bad event
// cannot tear down the receive path.
func (a *Adapter) HandleAgentEvent(payload json.RawMessage) {
	var ev wire.AgentEventPayload
	if err := json.Unmarshal(payload, &ev); err != nil {
		a.logger.Warn("dropping malformed agent event", "error", err)
		return
	}
	if ev.RunID == "" {
		a.logger.Warn("dropping agent event without runId", "stream", ev.Stream)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if evicted := a.runs.sweep(now); evicted > 0 {
		a.logger.Warn("evicted stale runs", "count", evicted)
	}

	switch ev.Stream {
	case wire.StreamAssistant:
		a.handleAssistant(&ev, now)
	case wire.StreamTool:
		a.handleTool(&ev, now)
	case wire.StreamLifecycle:
		a.handleLifecycle(&ev)
	default:
		a.logger.Warn("ignoring unknown stream", "stream", ev.Stream, "run_id", ev.RunID)
	}
}

// handleAssistant accumulates delta/snapshot text and emits the entire text
// so far. The first event for an unseen run emits a message boundary first.
func (a *Adapter) handleAssistant(ev *wire.AgentEventPayload, now time.Time) {
	var data wire.AssistantData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		a.logger.Warn("dropping malformed assistant data", "run_id", ev.RunID, "error", err)
		return
	}

	run := a.runs.get(ev.RunID, now)
	if run == nil {
		run = a.runs.create(ev.RunID, now)
		a.bus.Publish(MessageEvent{Kind: KindMessageStart, RunID: ev.RunID, Seq: ev.Seq})
	} else {
		if ev.Seq > 0 && ev.Seq <= run.lastSeq {
			a.logger.Debug("dropping duplicate assistant event",
				"run_id", ev.RunID, "seq", ev.Seq, "last_seq", run.lastSeq)
			return
		}
		if run.lastSeq > 0 && ev.Seq > run.lastSeq+1 {
			// Gap in the per-run sequence. Transport ordering is trusted, so
			// this is diagnostic only; the stream is not resequenced.
			a.logger.Warn("sequence gap in assistant stream",
				"run_id", ev.RunID, "seq", ev.Seq, "last_seq", run.lastSeq)
		}
	}

	if data.Text != nil {
		run.text = *data.Text
	} else {
		run.text += data.Delta
	}
	run.lastSeq = ev.Seq
	a.runs.touch(run, now)

	a.bus.Publish(MessageEvent{
		Kind:  KindMessageText,
		RunID: ev.RunID,
		Seq:   ev.Seq,
		Text:  run.text,
	})
}

// handleTool maps call/result phases onto a running/completed/error status
// keyed by tool call ID.
func (a *Adapter) handleTool(ev *wire.AgentEventPayload, now time.Time) {
	var data wire.ToolData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		a.logger.Warn("dropping malformed tool data", "run_id", ev.RunID, "error", err)
		return
	}

	var state ToolState
	switch data.Phase {
	case wire.ToolPhaseCall:
		state = ToolRunning
	case wire.ToolPhaseResult:
		if data.IsError {
			state = ToolErrored
		} else {
			state = ToolCompleted
		}
	default:
		a.logger.Warn("ignoring unknown tool phase", "phase", data.Phase, "run_id", ev.RunID)
		return
	}

	// Tool activity keeps the run's TTL fresh even without assistant text.
	if run := a.runs.get(ev.RunID, now); run != nil {
		a.runs.touch(run, now)
	}

	a.bus.Publish(MessageEvent{
		Kind:  KindToolStatus,
		RunID: ev.RunID,
		Seq:   ev.Seq,
		Tool:  &ToolUpdate{CallID: data.CallID, Name: data.Name, State: state},
	})
}

// handleLifecycle emits turn boundaries. On end, the run's accumulated text
// is emitted exactly once as a finalized message before the run is dropped;
// on abort, the partial text is discarded.
func (a *Adapter) handleLifecycle(ev *wire.AgentEventPayload) {
	var data wire.LifecycleData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		a.logger.Warn("dropping malformed lifecycle data", "run_id", ev.RunID, "error", err)
		return
	}

	switch data.Phase {
	case wire.LifecycleStart:
		a.bus.Publish(MessageEvent{Kind: KindTurnStart, RunID: ev.RunID, Seq: ev.Seq})
	case wire.LifecycleEnd:
		if run := a.runs.remove(ev.RunID); run != nil {
			a.bus.Publish(MessageEvent{
				Kind:  KindMessageFinal,
				RunID: ev.RunID,
				Seq:   ev.Seq,
				Text:  run.text,
			})
		}
		a.bus.Publish(MessageEvent{Kind: KindTurnEnd, RunID: ev.RunID, Seq: ev.Seq})
	case wire.LifecycleAbort:
		a.runs.remove(ev.RunID)
		a.bus.Publish(MessageEvent{Kind: KindTurnEnd, RunID: ev.RunID, Seq: ev.Seq})
	default:
		a.logger.Warn("ignoring unknown lifecycle phase", "phase", data.Phase, "run_id", ev.RunID)
	}
}
