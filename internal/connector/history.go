// ABOUTME: chat.history command wrapper retrieving a session's persisted messages.
// ABOUTME: Persistence itself lives server-side; the client only reads it back.

package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2389/coven-connect/internal/wire"
)

// GetHistory fetches the persisted message history for a session.
func (c *Connector) GetHistory(ctx context.Context, sessionKey string) ([]wire.HistoryMessage, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("sessionKey required")
	}

	payload, err := c.Request(ctx, wire.MethodChatHistory, wire.ChatHistoryParams{SessionKey: sessionKey})
	if err != nil {
		return nil, err
	}

	var result wire.ChatHistoryResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("parsing chat.history response: %w", err)
	}
	return result.Messages, nil
}
