// ABOUTME: Request correlator matching asynchronous responses to requests by ID.
// ABOUTME: Each entry has its own timeout; teardown rejects every outstanding entry.

package connector

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/coven-connect/internal/wire"
)

// pendingResult settles one request: payload on success, err otherwise.
type pendingResult struct {
	payload json.RawMessage
	err     error
}

// pendingRequest is owned exclusively by the pendingTable from registration
// until it settles via matching response, timeout, or teardown.
type pendingRequest struct {
	id     string
	method string
	ch     chan pendingResult
	timer  Timer
}

// pendingTable tracks in-flight requests. At most one entry exists per ID.
type pendingTable struct {
	mu      sync.Mutex
	clock   Clock
	timeout time.Duration
	pending map[string]*pendingRequest
	logger  *slog.Logger
}

func newPendingTable(clock Clock, timeout time.Duration, logger *slog.Logger) *pendingTable {
	return &pendingTable{
		clock:   clock,
		timeout: timeout,
		pending: make(map[string]*pendingRequest),
		logger:  logger,
	}
}

// register creates a pending entry with its timeout armed and returns the
// channel that will deliver exactly one result.
func (t *pendingTable) register(id, method string) <-chan pendingResult {
	req := &pendingRequest{
		id:     id,
		method: method,
		ch:     make(chan pendingResult, 1),
	}

	// The timer is armed under the lock so every settler that finds the
	// entry also observes its timer.
	t.mu.Lock()
	req.timer = t.clock.AfterFunc(t.timeout, func() {
		t.fail(id, ErrRequestTimeout)
	})
	t.pending[id] = req
	t.mu.Unlock()

	return req.ch
}

// resolve settles the entry matching a response frame. A response whose ID
// has no entry (already timed out, or a duplicate) is silently dropped.
func (t *pendingTable) resolve(id string, ok bool, payload json.RawMessage, detail *wire.ErrorDetail) {
	t.mu.Lock()
	req, found := t.pending[id]
	if found {
		delete(t.pending, id)
	}
	t.mu.Unlock()

	if !found {
		t.logger.Debug("dropping response for unknown request", "request_id", id)
		return
	}
	if req.timer != nil {
		req.timer.Stop()
	}

	if ok {
		req.ch <- pendingResult{payload: payload}
		return
	}
	req.ch <- pendingResult{err: &RequestError{Method: req.method, Detail: detail}}
}

// fail settles a single entry with err. No-op if the entry already settled.
func (t *pendingTable) fail(id string, err error) {
	t.mu.Lock()
	req, found := t.pending[id]
	if found {
		delete(t.pending, id)
	}
	t.mu.Unlock()

	if !found {
		return
	}
	if req.timer != nil {
		req.timer.Stop()
	}
	req.ch <- pendingResult{err: err}
}

// remove drops an entry without settling it. Used when the caller already
// has an error (write failure, context cancellation).
func (t *pendingTable) remove(id string) {
	t.mu.Lock()
	req, found := t.pending[id]
	if found {
		delete(t.pending, id)
	}
	t.mu.Unlock()

	if found && req.timer != nil {
		req.timer.Stop()
	}
}

// failAll rejects every outstanding entry with err and clears the table.
// Called synchronously at connection teardown, never deferred to a later
// reconnection.
func (t *pendingTable) failAll(err error) {
	t.mu.Lock()
	outstanding := make([]*pendingRequest, 0, len(t.pending))
	for id, req := range t.pending {
		outstanding = append(outstanding, req)
		delete(t.pending, id)
	}
	t.mu.Unlock()

	for _, req := range outstanding {
		if req.timer != nil {
			req.timer.Stop()
		}
		req.ch <- pendingResult{err: err}
	}

	if len(outstanding) > 0 {
		t.logger.Debug("rejected pending requests on teardown", "count", len(outstanding))
	}
}

// size returns the number of outstanding requests.
func (t *pendingTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
