// ABOUTME: Raw pass-through for event frames the connector does not interpret.
// ABOUTME: Auxiliary gateway events reach external collaborators unmodified.

package connector

import (
	"context"

	"github.com/google/uuid"

	"github.com/2389/coven-connect/internal/wire"
)

const rawBufferSize = 64

// RawEvents subscribes to event frames the connector itself does not
// interpret (anything other than tick, agent events and the handshake
// challenge). Frames are forwarded unmodified. The subscription ends when
// ctx is cancelled.
func (c *Connector) RawEvents(ctx context.Context) <-chan *wire.Frame {
	subID := uuid.New().String()
	ch := make(chan *wire.Frame, rawBufferSize)

	c.rawMu.Lock()
	if c.rawSubs == nil {
		c.rawMu.Unlock()
		close(ch)
		return ch
	}
	c.rawSubs[subID] = ch
	c.rawMu.Unlock()

	go func() {
		<-ctx.Done()
		c.rawMu.Lock()
		if sub, ok := c.rawSubs[subID]; ok {
			delete(c.rawSubs, subID)
			close(sub)
		}
		c.rawMu.Unlock()
	}()

	return ch
}

// publishRaw forwards an uninterpreted event frame. Non-blocking.
func (c *Connector) publishRaw(frame *wire.Frame) {
	c.rawMu.Lock()
	targets := make([]chan *wire.Frame, 0, len(c.rawSubs))
	for _, ch := range c.rawSubs {
		targets = append(targets, ch)
	}
	c.rawMu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- frame:
		default:
			c.logger.Debug("dropped raw event for slow subscriber", "event", frame.Event)
		}
	}
}

// closeRaw closes all raw subscriber channels.
func (c *Connector) closeRaw() {
	c.rawMu.Lock()
	defer c.rawMu.Unlock()
	for subID, ch := range c.rawSubs {
		close(ch)
		delete(c.rawSubs, subID)
	}
	c.rawSubs = nil
}
