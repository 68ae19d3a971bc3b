// ABOUTME: Typed params and payloads for gateway methods and push events.
// ABOUTME: One schema per method/event variant; shapes are validated at the boundary.

package wire

import "encoding/json"

// Protocol version range this client speaks.
const (
	MinProtocol = 3
	MaxProtocol = 3
)

// ConnectParams is the body of the "connect" handshake request, sent in
// reply to the connect.challenge event.
type ConnectParams struct {
	MinProtocol int           `json:"minProtocol"`
	MaxProtocol int           `json:"maxProtocol"`
	Client      ConnectClient `json:"client"`
	Auth        *ConnectAuth  `json:"auth,omitempty"`
	Role        string        `json:"role"`
	Scopes      []string      `json:"scopes"`
	Caps        []string      `json:"caps"`
}

// ConnectClient identifies this client to the gateway.
type ConnectClient struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Mode     string `json:"mode"`
}

// ConnectAuth carries the externally supplied credential.
type ConnectAuth struct {
	Token string `json:"token,omitempty"`
}

// HelloPayload is the payload of a successful connect response.
type HelloPayload struct {
	Type   string `json:"type"` // "hello-ok"
	Server struct {
		ConnID string `json:"connId"`
	} `json:"server"`
}

// ChatSendParams is the body of a chat.send request.
type ChatSendParams struct {
	SessionKey     string `json:"sessionKey"`
	Message        string `json:"message"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// ChatSendResult is the payload of a chat.send response.
type ChatSendResult struct {
	RunID      string `json:"runId,omitempty"`
	SessionKey string `json:"sessionKey,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ChatAbortParams is the body of a chat.abort request.
type ChatAbortParams struct {
	RunID string `json:"runId"`
}

// ChatHistoryParams is the body of a chat.history request.
type ChatHistoryParams struct {
	SessionKey string `json:"sessionKey"`
}

// ChatHistoryResult is the payload of a chat.history response.
type ChatHistoryResult struct {
	Messages []HistoryMessage `json:"messages"`
}

// HistoryMessage is one persisted message in a session's history.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	RunID     string `json:"runId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SessionsListResult is the payload of a sessions.list response.
type SessionsListResult struct {
	Sessions []SessionInfo `json:"sessions"`
}

// SessionInfo describes one known session.
type SessionInfo struct {
	Key       string `json:"key"`
	AgentID   string `json:"agentId,omitempty"`
	Title     string `json:"title,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// SessionsResolveParams is the body of a sessions.resolve request.
type SessionsResolveParams struct {
	Key     string `json:"key"`
	AgentID string `json:"agentId,omitempty"`
}

// SessionsResolveResult is the payload of a sessions.resolve response.
type SessionsResolveResult struct {
	SessionKey string `json:"sessionKey"`
	AgentID    string `json:"agentId,omitempty"`
	Created    bool   `json:"created,omitempty"`
}

// Agent event stream tags inside AgentEventPayload.Stream.
const (
	StreamAssistant = "assistant"
	StreamTool      = "tool"
	StreamLifecycle = "lifecycle"
)

// AgentEventPayload is the payload of an "agent"/"agent.event" push event.
// Data is decoded per Stream into AssistantData, ToolData or LifecycleData.
type AgentEventPayload struct {
	RunID  string          `json:"runId"`
	Stream string          `json:"stream"`
	Seq    int64           `json:"seq"`
	Data   json.RawMessage `json:"data"`
}

// AssistantData carries either an incremental delta or a full-text snapshot
// of the assistant's output so far.
type AssistantData struct {
	Delta string  `json:"delta,omitempty"`
	Text  *string `json:"text,omitempty"`
}

// Tool event phases.
const (
	ToolPhaseCall   = "call"
	ToolPhaseResult = "result"
)

// ToolData describes a tool call starting or finishing.
type ToolData struct {
	Phase   string `json:"phase"`
	CallID  string `json:"toolCallId"`
	Name    string `json:"name,omitempty"`
	IsError bool   `json:"isError,omitempty"`
}

// Lifecycle phases.
const (
	LifecycleStart = "start"
	LifecycleEnd   = "end"
	LifecycleAbort = "abort"
)

// LifecycleData marks turn boundaries for a run.
type LifecycleData struct {
	Phase string `json:"phase"`
}
