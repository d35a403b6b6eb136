package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentdemos/core"
	"github.com/hupe1980/agentdemos/internal/util"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a tool.
//
// Responsibilities:
//   - Holds a JSON-Schema parameter specification (parameters)
//   - Validates model supplied arguments against that schema before execution
//   - Invokes the wrapped function with a *core.ToolContext
//   - Normalizes error handling so callers receive *ToolError with consistent codes:
//     VALIDATION_ERROR  -> schema / argument mismatch
//     EXECUTION_ERROR   -> underlying function returned an error (non-ToolError)
//     (custom codes preserved if the function returns *ToolError directly)
//
// A FunctionTool has no internal mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	sumTool := NewFunctionTool(
//	  "add",
//	  "Add two numbers together",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(tc *core.ToolContext, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewTypedFunctionTool derives the parameter schema from the argument struct T
// and decodes validated arguments into T before calling fn.
//
// Example:
//
//	type helloArgs struct {
//	  Name string `json:"name" jsonschema:"The full name of the person to greet"`
//	}
//
//	helloTool, err := NewTypedFunctionTool("say_hello", "Say hello to someone by name",
//	  func(tc *core.ToolContext, args helloArgs) (any, error) {
//	    return "Hello, " + args.Name + "!", nil
//	  },
//	)
func NewTypedFunctionTool[T any](
	name, description string,
	fn func(toolCtx *core.ToolContext, args T) (any, error),
) (*FunctionTool, error) {
	schema, err := util.CreateSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	return NewFunctionTool(name, description, schema, func(tc *core.ToolContext, args map[string]any) (any, error) {
		typed, err := util.DecodeArgs[T](args)
		if err != nil {
			return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeValidation, cause: err}
		}
		return fn(tc, typed)
	}), nil
}

// MustTypedFunctionTool is like NewTypedFunctionTool but panics when the
// schema cannot be inferred. Intended for package level tool definitions.
func MustTypedFunctionTool[T any](
	name, description string,
	fn func(toolCtx *core.ToolContext, args T) (any, error),
) *FunctionTool {
	t, err := NewTypedFunctionTool(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the unique tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args against the declared schema and invokes the wrapped
// function. Schema mismatches yield CodeValidation, a *ToolError returned by
// the function is forwarded as is and any other error yields CodeExecution.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "fc_id", toolCtx.FunctionCallID(), "error", err.Error())
		return nil, &ToolError{Tool: t.name, Message: fmt.Sprintf("parameter validation failed: %v", err), Code: CodeValidation, Details: err, cause: err}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		var toolErr *ToolError
		if !errors.As(err, &toolErr) {
			toolErr = &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution, cause: err}
		}
		logger.Error("tool.call.error", "tool", t.name, "fc_id", toolCtx.FunctionCallID(), "code", toolErr.Code, "error", toolErr.Message)
		return nil, toolErr
	}

	logger.Info("tool.call.success", "tool", t.name, "fc_id", toolCtx.FunctionCallID(), "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
