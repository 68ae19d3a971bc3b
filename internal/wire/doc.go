// Package wire defines the gateway WebSocket frame format and the typed
// parameter and payload schemas carried inside frames.
package wire
