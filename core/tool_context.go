package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentdemos/logging"
)

// ToolContextOptions configures a ToolContext.
type ToolContextOptions struct {
	AgentName string
	State     *State
	Logger    logging.Logger
}

// ToolContext provides a constrained surface for tool implementations invoked
// by an agent: the request context, the originating function call id, the
// run scoped state and a logger.
type ToolContext struct {
	ctx            context.Context
	functionCallID string
	agentName      string
	state          *State
	logger         logging.Logger
}

// NewToolContext constructs a tool context bound to ctx and a unique functionCallID.
// A nil State is replaced with an empty one.
func NewToolContext(ctx context.Context, functionCallID string, optFns ...func(o *ToolContextOptions)) *ToolContext {
	opts := ToolContextOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if opts.State == nil {
		opts.State = NewState()
	}

	return &ToolContext{
		ctx:            ctx,
		functionCallID: functionCallID,
		agentName:      opts.AgentName,
		state:          opts.State,
		logger:         logging.OrNoOp(opts.Logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the logger of the invocation. It is never nil.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// AgentName returns the agent name associated with the tool invocation.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// GetState retrieves the state associated with the given key.
func (tc *ToolContext) GetState(k string) (any, bool) { return tc.state.Get(k) }

// SetState records a state mutation visible to later tool calls of the run.
func (tc *ToolContext) SetState(k string, v any) {
	tc.state.Set(k, v)
	tc.logger.Debug("tool.state.set", "agent", tc.agentName, "key", k, "function_call_id", tc.functionCallID)
}

// UpdateState atomically replaces the value of k with fn(old, ok).
func (tc *ToolContext) UpdateState(k string, fn func(old any, ok bool) any) {
	tc.state.Update(k, fn)
	tc.logger.Debug("tool.state.set", "agent", tc.agentName, "key", k, "function_call_id", tc.functionCallID)
}

// State returns the run scoped state.
func (tc *ToolContext) State() *State { return tc.state }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc == nil {
		return fmt.Errorf("invalid ToolContext: nil")
	}
	if tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext: missing function call id")
	}
	return nil
}
