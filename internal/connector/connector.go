// ABOUTME: Gateway connection state machine: socket lifecycle, handshake, reconnection.
// ABOUTME: Routes inbound frames to the request correlator and the stream adapter.

package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/2389/coven-connect/internal/stream"
	"github.com/2389/coven-connect/internal/wire"
)

// Options configures a Connector. Zero values get defaults from
// applyDefaults; URL and Token come from config or flags.
type Options struct {
	// URL is the gateway WebSocket URL, e.g. "ws://localhost:18789/ws/gateway".
	URL string
	// Token is the externally supplied credential sent during the handshake.
	Token string
	// Client identifies this client to the gateway.
	Client wire.ConnectClient
	// Role and Scopes requested from the gateway.
	Role   string
	Scopes []string

	// RequestTimeout bounds each outstanding request.
	RequestTimeout time.Duration
	// HandshakeTimeout bounds dial plus challenge/connect/hello-ok.
	HandshakeTimeout time.Duration
	// ReconnectBase and ReconnectCap shape the backoff delay
	// min(base * 2^attempt, cap).
	ReconnectBase time.Duration
	ReconnectCap  time.Duration
	// MaxReconnects is the automatic reconnect attempt limit.
	MaxReconnects int
	// RunTTL is the defensive eviction window for run accumulators.
	RunTTL time.Duration

	Logger *slog.Logger
	Clock  Clock
}

func (o *Options) applyDefaults() {
	if o.Client.ID == "" {
		o.Client.ID = "coven-connect"
	}
	if o.Client.Version == "" {
		o.Client.Version = "dev"
	}
	if o.Client.Platform == "" {
		o.Client.Platform = runtime.GOOS
	}
	if o.Client.Mode == "" {
		o.Client.Mode = "backend"
	}
	if o.Role == "" {
		o.Role = "operator"
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.HandshakeTimeout == 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.ReconnectBase == 0 {
		o.ReconnectBase = time.Second
	}
	if o.ReconnectCap == 0 {
		o.ReconnectCap = 30 * time.Second
	}
	if o.MaxReconnects == 0 {
		o.MaxReconnects = 10
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Clock == nil {
		o.Clock = NewRealClock()
	}
}

// Connector owns the gateway socket. Construct one instance per host process
// and inject it where needed.
type Connector struct {
	opts   Options
	logger *slog.Logger
	clock  Clock

	bus     *stream.Broadcaster
	adapter *stream.Adapter
	states  *stateHub
	pending *pendingTable

	mu             sync.Mutex
	conn           *websocket.Conn
	gen            uint64 // socket generation; stale read loops must not touch newer state
	attempts       int
	reconnectTimer Timer
	userClosed     bool
	connID         string

	writeMu sync.Mutex
	ticks   atomic.Int64

	rawMu   sync.Mutex
	rawSubs map[string]chan *wire.Frame
}

// New creates a Connector. It does not dial; call Connect.
func New(opts Options) *Connector {
	opts.applyDefaults()
	logger := opts.Logger.With("component", "connector")

	bus := stream.NewBroadcaster(opts.Logger)
	var adapter *stream.Adapter
	if opts.RunTTL > 0 {
		adapter = stream.NewAdapterWithLimits(bus, opts.Logger, opts.RunTTL, 256)
	} else {
		adapter = stream.NewAdapter(bus, opts.Logger)
	}

	return &Connector{
		opts:    opts,
		logger:  logger,
		clock:   opts.Clock,
		bus:     bus,
		adapter: adapter,
		states:  newStateHub(logger),
		pending: newPendingTable(opts.Clock, opts.RequestTimeout, logger),
		rawSubs: make(map[string]chan *wire.Frame),
	}
}

// Connect dials the gateway and completes the handshake. It returns once,
// after hello-ok or on transport/handshake failure. A handshake rejection is
// permanent; the caller must not retry with the same credential.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.states.get() != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.userClosed = false
	c.attempts = 0
	c.mu.Unlock()

	if err := c.establish(ctx); err != nil {
		c.states.set(StateDisconnected)
		return err
	}
	return nil
}

// establish performs one dial + handshake cycle. On success the state is
// connected and the read loop is running. On failure the socket is cleaned
// up and the caller decides the next state.
func (c *Connector) establish(ctx context.Context) error {
	c.states.set(StateConnecting)
	c.logger.Info("connecting to gateway", "url", c.opts.URL)

	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dialing gateway: %w", err)
	}

	// Commit the socket before handshaking so Disconnect can abort it.
	c.mu.Lock()
	if c.userClosed {
		c.mu.Unlock()
		conn.Close()
		return ErrConnectionClosed
	}
	c.gen++
	gen := c.gen
	c.conn = conn
	c.mu.Unlock()

	c.states.set(StateHandshaking)
	connID, err := c.handshake(conn)
	if err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.connID = connID
	c.attempts = 0
	c.mu.Unlock()
	c.ticks.Store(0)
	c.states.set(StateConnected)
	c.logger.Info("connected to gateway", "conn_id", connID)

	go c.readLoop(conn, gen)
	return nil
}

// handshake waits for connect.challenge, sends the connect request and waits
// for its response. Events arriving mid-handshake are skipped.
func (c *Connector) handshake(conn *websocket.Conn) (string, error) {
	deadline := time.Now().Add(c.opts.HandshakeTimeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("setting handshake deadline: %w", err)
	}
	defer conn.SetReadDeadline(time.Time{})

	// Wait for the challenge.
	for {
		frame, err := c.readFrame(conn)
		if err != nil {
			return "", fmt.Errorf("reading challenge: %w", err)
		}
		if frame == nil {
			continue
		}
		if frame.Type == wire.TypeEvent && frame.Event == wire.EventConnectChallenge {
			break
		}
		c.logger.Debug("skipping pre-challenge frame", "type", frame.Type, "event", frame.Event)
	}

	params := wire.ConnectParams{
		MinProtocol: wire.MinProtocol,
		MaxProtocol: wire.MaxProtocol,
		Client:      c.opts.Client,
		Role:        c.opts.Role,
		Scopes:      c.opts.Scopes,
		Caps:        []string{},
	}
	if c.opts.Token != "" {
		params.Auth = &wire.ConnectAuth{Token: c.opts.Token}
	}

	reqID := uuid.New().String()
	req, err := wire.NewRequest(reqID, wire.MethodConnect, params)
	if err != nil {
		return "", err
	}
	if err := c.writeFrame(conn, req); err != nil {
		return "", fmt.Errorf("sending connect request: %w", err)
	}

	// Wait for the connect response.
	for {
		frame, err := c.readFrame(conn)
		if err != nil {
			return "", fmt.Errorf("reading connect response: %w", err)
		}
		if frame == nil || frame.Type == wire.TypeEvent {
			continue
		}
		if frame.Type != wire.TypeResponse || frame.ID != reqID {
			continue
		}

		if !frame.Succeeded() {
			if frame.Error != nil {
				return "", fmt.Errorf("%w: %s (%s)", ErrHandshakeRejected, frame.Error.Message, frame.Error.Code)
			}
			return "", ErrHandshakeRejected
		}

		var hello wire.HelloPayload
		if err := json.Unmarshal(frame.Payload, &hello); err != nil {
			c.logger.Warn("malformed hello payload", "error", err)
		}
		return hello.Server.ConnID, nil
	}
}

// readFrame reads and decodes one message. A decode failure returns
// (nil, nil): logged and dropped, never fatal.
func (c *Connector) readFrame(conn *websocket.Conn) (*wire.Frame, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	frame, err := wire.Decode(data)
	if err != nil {
		c.logger.Warn("dropping undecodable frame", "error", err)
		return nil, nil
	}
	return frame, nil
}

// readLoop delivers inbound frames in wire-arrival order until the socket
// dies, then hands off to socketClosed.
func (c *Connector) readLoop(conn *websocket.Conn, gen uint64) {
	var closeErr error
	for {
		frame, err := c.readFrame(conn)
		if err != nil {
			closeErr = err
			break
		}
		if frame == nil {
			continue
		}

		switch frame.Type {
		case wire.TypeResponse:
			c.pending.resolve(frame.ID, frame.Succeeded(), frame.Payload, frame.Error)
		case wire.TypeEvent:
			c.handleEvent(frame)
		default:
			c.logger.Warn("ignoring unexpected frame type", "type", frame.Type)
		}
	}
	c.socketClosed(gen, closeErr)
}

// handleEvent routes one push event.
func (c *Connector) handleEvent(frame *wire.Frame) {
	switch frame.Event {
	case wire.EventTick:
		c.ticks.Add(1)
	case wire.EventAgent, wire.EventAgentLegacy:
		c.adapter.HandleAgentEvent(frame.Payload)
	case wire.EventConnectChallenge:
		c.logger.Warn("ignoring challenge outside handshake")
	default:
		// Forward unmodified for interested collaborators.
		c.publishRaw(frame)
	}
}

// socketClosed runs after the read loop exits. A stale generation means a
// newer connection owns the state; the old socket must not deliver into it.
func (c *Connector) socketClosed(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	userClosed := c.userClosed
	c.mu.Unlock()

	// Outstanding requests are rejected synchronously at close time, never
	// deferred to a later reconnection.
	c.pending.failAll(ErrConnectionClosed)

	if userClosed {
		c.states.set(StateDisconnected)
		return
	}

	c.logger.Warn("gateway connection lost", "error", err)
	c.scheduleReconnect()
}

// scheduleReconnect arms the backoff timer for the next attempt, or settles
// into disconnected once the attempt limit is reached.
func (c *Connector) scheduleReconnect() {
	c.mu.Lock()
	if c.userClosed {
		c.mu.Unlock()
		c.states.set(StateDisconnected)
		return
	}
	if c.attempts >= c.opts.MaxReconnects {
		c.mu.Unlock()
		c.logger.Error("reconnect attempts exhausted", "attempts", c.opts.MaxReconnects)
		c.states.set(StateDisconnected)
		return
	}
	attempt := c.attempts
	c.attempts++
	delay := backoffDelay(attempt, c.opts.ReconnectBase, c.opts.ReconnectCap)
	// The state must be published before the timer can fire: tryReconnect
	// abandons the attempt unless it observes reconnecting.
	c.states.set(StateReconnecting)
	c.reconnectTimer = c.clock.AfterFunc(delay, c.tryReconnect)
	c.mu.Unlock()

	c.logger.Info("reconnect scheduled", "attempt", attempt+1, "delay", delay)
}

// tryReconnect runs one reconnect attempt when the backoff timer fires.
func (c *Connector) tryReconnect() {
	c.mu.Lock()
	if c.userClosed {
		c.mu.Unlock()
		return
	}
	c.reconnectTimer = nil
	c.mu.Unlock()

	if c.states.get() != StateReconnecting {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.HandshakeTimeout)
	defer cancel()

	err := c.establish(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, ErrHandshakeRejected) {
		// Bad credential or incompatible protocol: permanent.
		c.logger.Error("reconnect handshake rejected", "error", err)
		c.states.set(StateDisconnected)
		return
	}
	if errors.Is(err, ErrConnectionClosed) {
		// Disconnected while dialing; the user close owns the terminal state.
		c.states.set(StateDisconnected)
		return
	}
	c.logger.Warn("reconnect attempt failed", "error", err)
	c.scheduleReconnect()
}

// Request sends one request frame and waits for its response, the request
// timeout, or ctx cancellation. Fails immediately when no connection is open.
func (c *Connector) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || c.states.get() != StateConnected {
		return nil, ErrNotConnected
	}

	id := uuid.New().String()
	frame, err := wire.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	ch := c.pending.register(id, method)
	if err := c.writeFrame(conn, frame); err != nil {
		c.pending.remove(id)
		return nil, fmt.Errorf("sending %s request: %w", method, err)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.payload, nil
	case <-ctx.Done():
		c.pending.remove(id)
		return nil, ctx.Err()
	}
}

// writeFrame serializes writes; the websocket allows one concurrent writer.
func (c *Connector) writeFrame(conn *websocket.Conn, frame *wire.Frame) error {
	data, err := wire.Encode(frame)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Disconnect tears the connection down from any state. Idempotent. All
// pending requests are rejected and no timers are left behind.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	c.userClosed = true
	c.attempts = c.opts.MaxReconnects
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	if conn != nil {
		c.gen++ // orphan the read loop so it cannot touch newer state
	}
	c.mu.Unlock()

	c.pending.failAll(ErrConnectionClosed)

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
		c.logger.Info("disconnected from gateway")
	}

	c.states.set(StateDisconnected)
}

// State returns the current connection state.
func (c *Connector) State() State { return c.states.get() }

// IsConnected reports whether the handshake has completed on a live socket.
func (c *Connector) IsConnected() bool { return c.states.get() == StateConnected }

// ConnID returns the server-issued connection ID from the last handshake.
func (c *Connector) ConnID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// Heartbeats returns how many tick events this connection has seen.
func (c *Connector) Heartbeats() int64 { return c.ticks.Load() }

// States subscribes to connection state changes. The current state is
// delivered immediately, then every transition until ctx is cancelled.
func (c *Connector) States(ctx context.Context) <-chan State {
	return c.states.subscribe(ctx)
}

// Events subscribes to normalized message events from the stream adapter.
func (c *Connector) Events(ctx context.Context) (<-chan stream.MessageEvent, string) {
	return c.bus.Subscribe(ctx)
}

// ActiveRuns returns the number of runs the adapter is accumulating.
func (c *Connector) ActiveRuns() int { return c.adapter.ActiveRuns() }

// Close disconnects and releases all subscriber channels.
func (c *Connector) Close() {
	c.Disconnect()
	c.bus.Close()
	c.closeRaw()
}
