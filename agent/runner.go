package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentdemos/core"
	"github.com/hupe1980/agentdemos/logging"
	"github.com/hupe1980/agentdemos/model"
	"github.com/hupe1980/agentdemos/session"
	"github.com/hupe1980/agentdemos/tool"
)

// DefaultMaxTurns bounds the number of model turns of a single run.
const DefaultMaxTurns = 10

// ErrMaxTurns is returned when the model keeps requesting tools beyond MaxTurns.
var ErrMaxTurns = errors.New("agent: maximum number of turns reached")

// Options configures a Runner.
type Options struct {
	// MaxTurns bounds the model turns of one run. Values < 1 use DefaultMaxTurns.
	MaxTurns int
	// MaxParallel limits concurrent tool calls of one turn. Values < 1 mean unlimited.
	MaxParallel int
	// State is shared by all Run calls of this runner. A fresh state is used per run when nil.
	State *core.State
	// Window selects the session history replayed by RunSession. Nil replays everything.
	Window session.Window
	Logger logging.Logger
}

// ToolCall records one executed tool call.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a run.
type Result struct {
	Agent     string           `json:"agent"`
	Output    string           `json:"output"`
	ToolCalls []ToolCall       `json:"tool_calls,omitempty"`
	Turns     int              `json:"turns"`
	Usage     model.TokenUsage `json:"usage"`
	Elapsed   time.Duration    `json:"-"`

	// Contents are the messages produced by this run, starting with the user input.
	Contents []core.Content `json:"-"`
}

// Runner drives the tool-calling loop of an agent against a model.
// A Runner is safe for concurrent use when its model and tools are.
type Runner struct {
	model model.Model
	opts  Options
}

// NewRunner creates a runner bound to m.
func NewRunner(m model.Model, optFns ...func(o *Options)) *Runner {
	opts := Options{MaxTurns: DefaultMaxTurns}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxTurns < 1 {
		opts.MaxTurns = DefaultMaxTurns
	}

	if opts.Window == nil {
		opts.Window = session.Full{}
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Runner{model: m, opts: opts}
}

// Run sends input to the agent and executes requested tools until the model
// produces a final answer. The partial result is returned alongside ErrMaxTurns.
func (r *Runner) Run(ctx context.Context, a *Agent, input string) (*Result, error) {
	state := r.opts.State
	if state == nil {
		state = core.NewState()
	}

	return r.run(ctx, a, state, nil, input)
}

// RunSession continues the conversation of sess. The windowed history is
// replayed to the model, tools share the session state, and the contents of
// this run are appended to the session history, also when the run fails
// part way.
func (r *Runner) RunSession(ctx context.Context, a *Agent, sess *session.Session, input string) (*Result, error) {
	if sess == nil {
		return nil, errors.New("agent: nil session")
	}
	if sess.State == nil {
		sess.State = core.NewState()
	}

	res, err := r.run(ctx, a, sess.State, r.opts.Window.Apply(sess.History), input)
	if res != nil {
		sess.Append(res.Contents...)
	}

	return res, err
}

func (r *Runner) run(ctx context.Context, a *Agent, state *core.State, history []core.Content, input string) (*Result, error) {
	if r.model == nil {
		return nil, errors.New("agent: runner has no model")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	registry, err := a.Registry()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := r.opts.Logger

	log.Info("agent.run.start",
		"agent", a.Name,
		"model", r.model.Info().Name,
		"tools", len(a.Tools),
		"history", len(history),
	)

	res := &Result{
		Agent:    a.Name,
		Contents: []core.Content{core.NewTextContent(core.RoleUser, input)},
	}

	defer func() {
		res.Elapsed = time.Since(start)
	}()

	tools := a.ToolDefinitions()

	for res.Turns < r.opts.MaxTurns {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		instruction, err := a.Instruction.Resolve(state)
		if err != nil {
			return res, fmt.Errorf("resolve instruction: %w", err)
		}

		contents := make([]core.Content, 0, len(history)+len(res.Contents))
		contents = append(contents, history...)
		contents = append(contents, res.Contents...)

		resp, err := r.model.Generate(ctx, model.Request{
			Instructions: instruction,
			Contents:     contents,
			Tools:        tools,
		})
		if err != nil {
			log.Error("agent.model.error", "agent", a.Name, "turn", res.Turns, "error", err.Error())
			return res, fmt.Errorf("generate: %w", err)
		}

		res.Turns++
		addUsage(&res.Usage, resp.Usage)

		content := assignCallIDs(resp.Content)
		content.Role = core.RoleAssistant
		res.Contents = append(res.Contents, content)

		calls := content.FunctionCalls()
		if len(calls) == 0 {
			res.Output = content.Text()

			log.Info("agent.run.complete",
				"agent", a.Name,
				"turns", res.Turns,
				"tool_calls", len(res.ToolCalls),
				"duration_ms", time.Since(start).Milliseconds(),
			)

			return res, nil
		}

		executed := r.executeCalls(ctx, a.Name, registry, state, calls)
		res.ToolCalls = append(res.ToolCalls, executed...)
		res.Contents = append(res.Contents, responseContent(executed))
	}

	log.Warn("agent.run.max_turns", "agent", a.Name, "max_turns", r.opts.MaxTurns)

	return res, ErrMaxTurns
}

// executeCalls runs every call of one turn concurrently. Results keep the
// call order regardless of completion order.
func (r *Runner) executeCalls(
	ctx context.Context,
	agentName string,
	registry *tool.Registry,
	state *core.State,
	calls []core.FunctionCall,
) []ToolCall {
	results := make([]ToolCall, len(calls))

	var g errgroup.Group
	if r.opts.MaxParallel > 0 {
		g.SetLimit(r.opts.MaxParallel)
	}

	batchStart := time.Now()

	for i, fc := range calls {
		g.Go(func() error {
			results[i] = r.executeCall(ctx, agentName, registry, state, fc)
			return nil
		})
	}

	_ = g.Wait()

	r.opts.Logger.Debug("agent.functions.batch.complete",
		"agent", agentName,
		"count", len(calls),
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

func (r *Runner) executeCall(
	ctx context.Context,
	agentName string,
	registry *tool.Registry,
	state *core.State,
	fc core.FunctionCall,
) (tc ToolCall) {
	log := r.opts.Logger
	tc = ToolCall{ID: fc.ID, Name: fc.Name, Arguments: fc.Arguments}

	toolCtx := core.NewToolContext(ctx, fc.ID, func(o *core.ToolContextOptions) {
		o.AgentName = agentName
		o.State = state
		o.Logger = log
	})

	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("agent.function.panic", "agent", agentName, "function", fc.Name, "recover", rec, "stack", string(debug.Stack()))
			tc.Result = nil
			tc.Error = fmt.Sprintf("panic: %v", rec)
		}

		log.Info("agent.function.executed",
			"agent", agentName,
			"function", fc.Name,
			"function_call_id", fc.ID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", tc.Error != "",
		)
	}()

	result, err := registry.Call(toolCtx, fc.Name, fc.Arguments)
	if err != nil {
		tc.Error = err.Error()
		return tc
	}

	tc.Result = result

	return tc
}

// assignCallIDs gives every function call without an id a fresh uuid.
func assignCallIDs(c core.Content) core.Content {
	parts := make([]core.Part, len(c.Parts))
	for i, p := range c.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok && fc.FunctionCall.ID == "" {
			fc.FunctionCall.ID = "call_" + uuid.NewString()
			p = fc
		}
		parts[i] = p
	}

	return core.Content{Role: c.Role, Parts: parts}
}

func responseContent(calls []ToolCall) core.Content {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID:       c.ID,
			Name:     c.Name,
			Response: c.Result,
			Error:    c.Error,
		}})
	}

	return core.Content{Role: core.RoleTool, Parts: parts}
}

func addUsage(total *model.TokenUsage, u *model.TokenUsage) {
	if u == nil {
		return
	}
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}
