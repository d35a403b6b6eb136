package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentdemos/core"
)

// Finish reasons reported in Response.FinishReason.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
	FinishLength    = "length"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// NewToolDefinition builds a function tool definition.
func NewToolDefinition(name, description string, parameters map[string]any) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Request captures the normalized model input produced by the agent runner.
type Request struct {
	Instructions string           `json:"instructions"` // Instructions for the model
	Contents     []core.Content   `json:"contents"`     // Conversation so far, oldest first
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the complete reply of a model turn.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// EncodeFunctionResponse renders a tool outcome as the JSON text providers
// expect in tool result messages. Errors become {"error": "..."}.
func EncodeFunctionResponse(fr core.FunctionResponse) string {
	var payload any = fr.Response
	if fr.Error != "" {
		payload = map[string]string{"error": fr.Error}
	}

	if s, ok := payload.(string); ok {
		return s
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}

	return string(data)
}

// ErrScriptExhausted is returned by MockModel when no scripted turn is left.
var ErrScriptExhausted = errors.New("mock model: script exhausted")

// MockModel is a lightweight in-memory Model useful for tests and offline demos.
// Scripted turns are replayed in order; once the script is exhausted the
// model echoes the last user text.
type MockModel struct {
	info Info

	mu       sync.Mutex
	script   []Response
	requests []Request
	strict   bool
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
	}
}

// Strict makes Generate fail with ErrScriptExhausted instead of echoing.
func (m *MockModel) Strict() *MockModel {
	m.strict = true
	return m
}

// AddText scripts a plain text reply.
func (m *MockModel) AddText(text string) *MockModel {
	return m.add(Response{
		Content:      core.NewTextContent(core.RoleAssistant, text),
		FinishReason: FinishStop,
	})
}

// AddToolCalls scripts a reply requesting the given function calls.
func (m *MockModel) AddToolCalls(calls ...core.FunctionCall) *MockModel {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}

	return m.add(Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: FinishToolCalls,
	})
}

func (m *MockModel) add(r Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, r)
	return m
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(req.Contents) == 0 {
		return nil, fmt.Errorf("no contents provided")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return &next, nil
	}

	if m.strict {
		return nil, ErrScriptExhausted
	}

	var inputText string
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == core.RoleUser {
			inputText = req.Contents[i].Text()
			break
		}
	}

	return &Response{
		Content:      core.NewTextContent(core.RoleAssistant, fmt.Sprintf("Mock response to: %s", inputText)),
		FinishReason: FinishStop,
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
