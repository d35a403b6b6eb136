// Package tool implements the function / tool calling contract that lets
// agents invoke structured capabilities (computations, lookups, network
// fetches) with schema validated arguments, consistent error handling and
// metadata for model guidance.
package tool

import (
	"fmt"

	"github.com/hupe1980/agentdemos/core"
	"github.com/hupe1980/agentdemos/internal/util"
)

// Error codes carried by ToolError.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeExecution       = "EXECUTION_ERROR"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// A tool is a named operation taking a typed input and returning a typed,
// JSON serializable output. Tools are registered with agents (or directly in
// a Registry) and exposed to models through their name, description and
// parameter schema.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a JSON schema for parameters
//   - Report expected failures as data in the result where callers need them
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with structured arguments and a ToolContext.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
	cause   error
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ToolError) Unwrap() error { return e.cause }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// WrapToolError creates a ToolError that keeps err reachable via errors.Is / errors.As.
func WrapToolError(tool, code string, err error) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: err.Error(),
		Code:    code,
		cause:   err,
	}
}
