package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/agentdemos/core"
)

// ErrToolNotFound is returned when a call names an unregistered tool.
var ErrToolNotFound = errors.New("tool not found")

// Registry is a named handler table of tools. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools.
// It returns an error for empty or duplicate names.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	if err := r.Register(tools...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds one or more tools. Either all tools are added or none.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return fmt.Errorf("register tool: empty name")
		}
		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("register tool: duplicate name %q", name)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("register tool: duplicate name %q", name)
		}
		seen[name] = struct{}{}
	}

	for _, t := range tools {
		r.tools[t.Name()] = t
	}

	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Tools returns the registered tools ordered by name.
func (r *Registry) Tools() []Tool {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, r.tools[name])
	}

	return tools
}

// Call looks up name, decodes the JSON argument payload and executes the tool.
// An empty payload is treated as an empty object. A tool context without a
// function call id is rejected with CodeInvalidArgument.
func (r *Registry) Call(toolCtx *core.ToolContext, name, args string) (any, error) {
	if err := toolCtx.Validate(); err != nil {
		return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeInvalidArgument, cause: err}
	}

	impl, ok := r.Get(name)
	if !ok {
		return nil, &ToolError{Tool: name, Message: "tool is not registered", Code: CodeNotFound, cause: ErrToolNotFound}
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, &ToolError{Tool: name, Message: fmt.Sprintf("failed to unmarshal args: %v", err), Code: CodeValidation, cause: err}
		}
	}

	return impl.Call(toolCtx, argMap)
}
