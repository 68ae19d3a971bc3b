// ABOUTME: Connection state enum and replay-latest state change hub.
// ABOUTME: New subscribers immediately learn the current state, then every transition.

package connector

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// State is the connection lifecycle state. Exactly one value holds at a
// time; only the connector mutates it.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

const stateBufferSize = 16

// stateHub fans out state transitions with replay-latest semantics: a late
// observer gets the current value without waiting for the next transition.
type stateHub struct {
	mu      sync.Mutex
	current State
	subs    map[string]chan State
	logger  *slog.Logger
}

func newStateHub(logger *slog.Logger) *stateHub {
	return &stateHub{
		current: StateDisconnected,
		subs:    make(map[string]chan State),
		logger:  logger,
	}
}

// get returns the current state.
func (h *stateHub) get() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// set records a transition and fans it out. Non-blocking per subscriber.
func (h *stateHub) set(s State) {
	h.mu.Lock()
	if h.current == s {
		h.mu.Unlock()
		return
	}
	prev := h.current
	h.current = s
	targets := make([]chan State, 0, len(h.subs))
	for _, ch := range h.subs {
		targets = append(targets, ch)
	}
	h.mu.Unlock()

	h.logger.Debug("state transition", "from", prev.String(), "to", s.String())

	for _, ch := range targets {
		select {
		case ch <- s:
		default:
			h.logger.Debug("dropped state change for slow subscriber", "state", s.String())
		}
	}
}

// subscribe registers a subscriber. The current state is delivered
// immediately; the subscription is removed when ctx is cancelled.
func (h *stateHub) subscribe(ctx context.Context) <-chan State {
	subID := uuid.New().String()
	ch := make(chan State, stateBufferSize)

	h.mu.Lock()
	ch <- h.current // buffered, never blocks
	h.subs[subID] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if sub, ok := h.subs[subID]; ok {
			delete(h.subs, subID)
			close(sub)
		}
		h.mu.Unlock()
	}()

	return ch
}
