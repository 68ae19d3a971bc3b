// ABOUTME: Tests for the state hub's replay-latest subscription semantics.
// ABOUTME: A late observer learns the current state without waiting for a transition.

package connector

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvState(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state")
		return StateDisconnected
	}
}

func TestStateHub_ReplaysCurrentValueToNewSubscriber(t *testing.T) {
	hub := newStateHub(slog.Default())
	hub.set(StateConnected)

	ch := hub.subscribe(t.Context())
	assert.Equal(t, StateConnected, recvState(t, ch))
}

func TestStateHub_DeliversTransitions(t *testing.T) {
	hub := newStateHub(slog.Default())
	ch := hub.subscribe(t.Context())

	require.Equal(t, StateDisconnected, recvState(t, ch))

	hub.set(StateConnecting)
	hub.set(StateHandshaking)
	hub.set(StateConnected)

	assert.Equal(t, StateConnecting, recvState(t, ch))
	assert.Equal(t, StateHandshaking, recvState(t, ch))
	assert.Equal(t, StateConnected, recvState(t, ch))
}

func TestStateHub_NoEventForSameState(t *testing.T) {
	hub := newStateHub(slog.Default())
	ch := hub.subscribe(t.Context())
	require.Equal(t, StateDisconnected, recvState(t, ch))

	hub.set(StateDisconnected)

	select {
	case s := <-ch:
		t.Fatalf("unexpected state event %s", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStateHub_ContextCancellationClosesChannel(t *testing.T) {
	hub := newStateHub(slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	ch := hub.subscribe(ctx)
	require.Equal(t, StateDisconnected, recvState(t, ch))

	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after context cancel")
		}
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "handshaking", StateHandshaking.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
}
