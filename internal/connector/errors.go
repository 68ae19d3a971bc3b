// ABOUTME: Sentinel and structured errors surfaced by the connector.
// ABOUTME: Request failures carry the gateway's structured error detail.

package connector

import (
	"errors"
	"fmt"

	"github.com/2389/coven-connect/internal/wire"
)

// Connector errors.
var (
	// ErrNotConnected is returned by Request when no connection is open.
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionClosed rejects pending requests at connection teardown.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrRequestTimeout rejects a request whose response never arrived.
	ErrRequestTimeout = errors.New("request timed out")
	// ErrHandshakeRejected marks a fatal pre-hello rejection; never retried.
	ErrHandshakeRejected = errors.New("handshake rejected")
	// ErrAlreadyConnected is returned by Connect when a session is active.
	ErrAlreadyConnected = errors.New("already connected")
)

// RequestError is a server-side rejection of one request (ok:false). It is
// local to that request; the connection stays open.
type RequestError struct {
	Method string
	Detail *wire.ErrorDetail
}

func (e *RequestError) Error() string {
	if e.Detail == nil {
		return fmt.Sprintf("%s failed", e.Method)
	}
	return fmt.Sprintf("%s failed: %s (%s)", e.Method, e.Detail.Message, e.Detail.Code)
}

// Retryable reports whether the gateway marked the failure retryable.
func (e *RequestError) Retryable() bool {
	return e.Detail != nil && e.Detail.Retryable
}
