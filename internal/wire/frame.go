// ABOUTME: Frame codec for the gateway wire protocol (one JSON object per WebSocket message).
// ABOUTME: Encodes outbound req frames and decodes inbound text into tagged Frame values.

package wire

import (
	"encoding/json"
	"fmt"
)

// Frame type tags.
const (
	TypeRequest  = "req"
	TypeResponse = "res"
	TypeEvent    = "event"
)

// Well-known event names pushed by the gateway.
const (
	EventConnectChallenge = "connect.challenge"
	EventTick             = "tick"
	EventAgent            = "agent"
	EventAgentLegacy      = "agent.event"
)

// Gateway request methods.
const (
	MethodConnect         = "connect"
	MethodChatSend        = "chat.send"
	MethodChatAbort       = "chat.abort"
	MethodChatHistory     = "chat.history"
	MethodSessionsList    = "sessions.list"
	MethodSessionsResolve = "sessions.resolve"
)

// Frame is one wire message, tagged by Type. Requests carry ID/Method/Params,
// responses carry ID/OK plus Payload or Error, events carry Event and an
// optional Payload and Seq.
type Frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Seq     *int64          `json:"seq,omitempty"`
}

// ErrorDetail is the structured error attached to a failed response.
type ErrorDetail struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Retryable    bool   `json:"retryable,omitempty"`
	RetryAfterMs int64  `json:"retryAfterMs,omitempty"`
}

// Succeeded reports whether a response frame carries ok:true.
func (f *Frame) Succeeded() bool {
	return f.OK != nil && *f.OK
}

// NewRequest builds a request frame, marshaling params to JSON.
func NewRequest(id, method string, params any) (*Frame, error) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s params: %w", method, err)
		}
		raw = data
	}
	return &Frame{Type: TypeRequest, ID: id, Method: method, Params: raw}, nil
}

// Encode serializes a frame to its wire JSON.
func Encode(f *Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encoding %s frame: %w", f.Type, err)
	}
	return data, nil
}

// Decode parses one wire message into a Frame. Callers are expected to log
// and drop on error; a malformed frame must never tear down the connection.
func Decode(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	switch f.Type {
	case TypeRequest, TypeResponse, TypeEvent:
		return &f, nil
	default:
		return nil, fmt.Errorf("decoding frame: unknown type %q", f.Type)
	}
}
