// Package model defines the provider-agnostic abstractions for driving
// language models from an agent.
//
// Core goals:
//   - A single non-streaming Generate call per model turn
//   - Normalized tool / function call representation (ToolDefinition, core.FunctionCall)
//   - Request/response shapes that stay transport independent
//   - Scriptable mocking for tests and offline demos (MockModel)
//
// Providers (OpenAI, Anthropic) implement Model in sub packages so agents
// remain decoupled from vendor SDKs.
package model
