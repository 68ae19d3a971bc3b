// ABOUTME: sessions.resolve command wrapper mapping a client key to a session.

package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2389/coven-connect/internal/wire"
)

// ResolveSession resolves a client-chosen key (optionally scoped to an
// agent) to a canonical session, creating it server-side if needed.
func (c *Connector) ResolveSession(ctx context.Context, key, agentID string) (*wire.SessionsResolveResult, error) {
	if key == "" {
		return nil, fmt.Errorf("key required")
	}

	params := wire.SessionsResolveParams{Key: key, AgentID: agentID}
	payload, err := c.Request(ctx, wire.MethodSessionsResolve, params)
	if err != nil {
		return nil, err
	}

	var result wire.SessionsResolveResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("parsing sessions.resolve response: %w", err)
	}
	return &result, nil
}
