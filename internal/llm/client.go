package llm

import (
	"context"
	"encoding/json"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolChoiceAuto lets the model decide whether to call a tool.
const ToolChoiceAuto = "auto"

type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // for tool result messages
}

type ToolCall struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
	// Arguments is the argument JSON exactly as the model produced it.
	Arguments string `json:"arguments,omitempty"`
}

// RawArguments returns the model's argument JSON, re-encoding Params when the
// call was built by hand.
func (tc ToolCall) RawArguments() string {
	if tc.Arguments != "" {
		return tc.Arguments
	}
	if tc.Params == nil {
		return "{}"
	}
	b, _ := json.Marshal(tc.Params) // map[string]any from JSON; marshal cannot fail
	return string(b)
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

type Request struct {
	Model      string
	Messages   []Message
	Tools      []Tool
	ToolChoice string // empty leaves the provider default
}

type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Message returns the response as an assistant message, tool calls included.
func (r *Response) Message() Message {
	return Message{Role: RoleAssistant, Content: r.Content, ToolCalls: r.ToolCalls}
}

type Client interface {
	Chat(ctx context.Context, req Request) (*Response, error)
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func ToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}
