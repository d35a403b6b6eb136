package agent

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentdemos/model"
	"github.com/hupe1980/agentdemos/tool"
)

// Agent is a named assistant: an instruction plus the tools it may call.
type Agent struct {
	Name        string
	Description string
	Instruction Instruction
	Tools       []tool.Tool
}

// New creates an agent with a static instruction.
func New(name, description, instruction string, tools ...tool.Tool) *Agent {
	return &Agent{
		Name:        name,
		Description: description,
		Instruction: NewInstructionFromText(instruction),
		Tools:       tools,
	}
}

// Validate checks that the agent is runnable: it needs a name and unique tool names.
func (a *Agent) Validate() error {
	if a == nil {
		return errors.New("invalid agent: nil")
	}
	if a.Name == "" {
		return errors.New("invalid agent: missing name")
	}
	if _, err := a.Registry(); err != nil {
		return fmt.Errorf("invalid agent %s: %w", a.Name, err)
	}
	return nil
}

// Registry builds a lookup table over the agent's tools.
func (a *Agent) Registry() (*tool.Registry, error) {
	return tool.NewRegistry(a.Tools...)
}

// ToolDefinitions exposes the agent's tools to a model, in declaration order.
func (a *Agent) ToolDefinitions() []model.ToolDefinition {
	if len(a.Tools) == 0 {
		return nil
	}

	defs := make([]model.ToolDefinition, 0, len(a.Tools))
	for _, t := range a.Tools {
		defs = append(defs, model.NewToolDefinition(t.Name(), t.Description(), t.Parameters()))
	}

	return defs
}
