// ABOUTME: chat.abort command wrapper for cancelling an in-flight run.

package connector

import (
	"context"
	"fmt"

	"github.com/2389/coven-connect/internal/wire"
)

// AbortRun asks the gateway to cancel the run. The stream adapter later
// observes the lifecycle abort event and discards the partial text.
func (c *Connector) AbortRun(ctx context.Context, runID string) error {
	if runID == "" {
		return fmt.Errorf("runId required")
	}
	_, err := c.Request(ctx, wire.MethodChatAbort, wire.ChatAbortParams{RunID: runID})
	return err
}
