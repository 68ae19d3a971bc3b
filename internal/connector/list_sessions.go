// ABOUTME: sessions.list command wrapper returning known sessions.

package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2389/coven-connect/internal/wire"
)

// ListSessions returns the sessions the gateway knows about for this
// principal.
func (c *Connector) ListSessions(ctx context.Context) ([]wire.SessionInfo, error) {
	payload, err := c.Request(ctx, wire.MethodSessionsList, struct{}{})
	if err != nil {
		return nil, err
	}

	var result wire.SessionsListResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("parsing sessions.list response: %w", err)
	}
	return result.Sessions, nil
}
