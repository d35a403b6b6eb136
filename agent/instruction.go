package agent

import (
	"github.com/hupe1980/agentdemos/core"
	"github.com/hupe1980/agentdemos/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from run state, environment, etc.
type Provider interface {
	Instruction(state *core.State) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(state *core.State) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(state *core.State) (string, error) { return f(state) }

// Instruction represents either a static instruction template or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string. The
// text may reference run state with text/template markers, e.g.
// "User name: {{ .user_name | default \"unknown\" }}".
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(state *core.State) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed and
// rendering template markers against the state snapshot.
func (i Instruction) Resolve(state *core.State) (string, error) {
	if state == nil {
		state = core.NewState()
	}

	text := i.text
	if i.provider != nil {
		var err error
		if text, err = i.provider.Instruction(state); err != nil {
			return "", err
		}
	}

	return util.RenderTemplate(text, state.Snapshot())
}
