// ABOUTME: chat.send command wrapper with per-call idempotency key.
// ABOUTME: Validates inputs before the frame ever reaches the wire.

package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/2389/coven-connect/internal/wire"
)

// SendChat sends a user message into a session. Every call carries a fresh
// idempotency key so the gateway can drop duplicate deliveries after a
// retry.
func (c *Connector) SendChat(ctx context.Context, sessionKey, message string) (*wire.ChatSendResult, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("sessionKey required")
	}
	if message == "" {
		return nil, fmt.Errorf("message required")
	}

	params := wire.ChatSendParams{
		SessionKey:     sessionKey,
		Message:        message,
		IdempotencyKey: uuid.New().String(),
	}

	payload, err := c.Request(ctx, wire.MethodChatSend, params)
	if err != nil {
		return nil, err
	}

	var result wire.ChatSendResult
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("parsing chat.send response: %w", err)
		}
	}
	return &result, nil
}
