package model

import (
	"context"
	"testing"

	"github.com/hupe1980/agentdemos/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_ScriptedTurns(t *testing.T) {
	m := NewMockModel("scripted").
		AddToolCalls(core.FunctionCall{ID: "c1", Name: "add", Arguments: `{"a":1,"b":2}`}).
		AddText("3")

	req := Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, "1+2?")}}

	resp, err := m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, FinishToolCalls, resp.FinishReason)
	require.Len(t, resp.Content.FunctionCalls(), 1)
	assert.Equal(t, "add", resp.Content.FunctionCalls()[0].Name)

	resp, err = m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "3", resp.Content.Text())
	assert.Equal(t, FinishStop, resp.FinishReason)

	resp, err = m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: 1+2?", resp.Content.Text())

	assert.Len(t, m.Requests(), 3)
	assert.Equal(t, Info{Name: "scripted", Provider: "mock", SupportsTools: true}, m.Info())
}

func TestMockModel_Strict(t *testing.T) {
	m := NewMockModel("strict").Strict()

	_, err := m.Generate(context.Background(), Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, "hi")}})
	assert.ErrorIs(t, err, ErrScriptExhausted)
}

func TestMockModel_Errors(t *testing.T) {
	m := NewMockModel("errs")

	_, err := m.Generate(context.Background(), Request{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Generate(ctx, Request{Contents: []core.Content{core.NewTextContent(core.RoleUser, "hi")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeFunctionResponse(t *testing.T) {
	assert.Equal(t, "plain", EncodeFunctionResponse(core.FunctionResponse{Response: "plain"}))
	assert.Equal(t, `{"result":5}`, EncodeFunctionResponse(core.FunctionResponse{Response: map[string]any{"result": 5}}))
	assert.Equal(t, `{"error":"boom"}`, EncodeFunctionResponse(core.FunctionResponse{Response: "ignored", Error: "boom"}))
	assert.Equal(t, "null", EncodeFunctionResponse(core.FunctionResponse{}))
}

func TestNewToolDefinition(t *testing.T) {
	params := map[string]any{"type": "object"}
	def := NewToolDefinition("ping_host", "Ping a host", params)
	assert.Equal(t, "function", def.Type)
	assert.Equal(t, "ping_host", def.Function.Name)
	assert.Equal(t, params, def.Function.Parameters)
}
