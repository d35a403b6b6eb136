package session

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/hupe1980/agentdemos/core"
)

// Default window settings.
const (
	DefaultMaxTurns         = 20
	DefaultMaxContextTokens = 131072
	DefaultGenerationBuffer = 0.25
)

// Window selects the part of a history that is replayed to the model.
// Implementations never reorder contents and never split a turn.
type Window interface {
	Apply(history []core.Content) []core.Content
}

// Full replays the entire history.
type Full struct{}

// Apply implements Window.
func (Full) Apply(history []core.Content) []core.Content { return history }

// Stateless replays nothing.
type Stateless struct{}

// Apply implements Window.
func (Stateless) Apply([]core.Content) []core.Content { return nil }

// LastNTurns keeps the last MaxTurns turns. A turn starts with a user
// message and includes the tool calls, tool results and the assistant reply
// that follow it. When IncludeTools is false tool traffic is dropped and only
// the text of each turn survives.
type LastNTurns struct {
	MaxTurns     int
	IncludeTools bool
}

// Apply implements Window.
func (w LastNTurns) Apply(history []core.Content) []core.Content {
	n := w.MaxTurns
	if n <= 0 {
		n = DefaultMaxTurns
	}

	turns := splitTurns(history)
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	var out []core.Content
	for _, turn := range turns {
		if w.IncludeTools {
			out = append(out, turn...)
			continue
		}
		out = append(out, withoutTools(turn)...)
	}

	return out
}

// TokenWindow keeps as many recent turns as fit
// MaxContextTokens * (1 - GenerationBuffer) estimated tokens.
type TokenWindow struct {
	MaxContextTokens int
	GenerationBuffer float64
}

// Apply implements Window.
func (w TokenWindow) Apply(history []core.Content) []core.Content {
	maxTokens := w.MaxContextTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}

	buffer := w.GenerationBuffer
	if buffer < 0 || buffer >= 1 {
		buffer = DefaultGenerationBuffer
	}

	budget := int(float64(maxTokens) * (1 - buffer))

	turns := splitTurns(history)

	start := len(turns)
	used := 0
	for i := len(turns) - 1; i >= 0; i-- {
		cost := 0
		for _, c := range turns[i] {
			cost += EstimateTokens(c)
		}
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}

	var out []core.Content
	for _, turn := range turns[start:] {
		out = append(out, turn...)
	}

	return out
}

// EstimateTokens approximates the token count of a content at four
// characters per token plus a small per-message overhead.
func EstimateTokens(c core.Content) int {
	chars := 0
	for _, p := range c.Parts {
		switch part := p.(type) {
		case core.TextPart:
			chars += utf8.RuneCountInString(part.Text)
		case core.FunctionCallPart:
			chars += utf8.RuneCountInString(part.FunctionCall.Name) + utf8.RuneCountInString(part.FunctionCall.Arguments)
		case core.FunctionResponsePart:
			chars += utf8.RuneCountInString(part.FunctionResponse.Name) + utf8.RuneCountInString(part.FunctionResponse.Error)
			if data, err := json.Marshal(part.FunctionResponse.Response); err == nil {
				chars += utf8.RuneCount(data)
			}
		}
	}

	return chars/4 + 4
}

// splitTurns groups contents into turns. Contents before the first user
// message form their own leading turn.
func splitTurns(history []core.Content) [][]core.Content {
	var turns [][]core.Content
	for _, c := range history {
		if c.Role == core.RoleUser || len(turns) == 0 {
			turns = append(turns, []core.Content{c})
			continue
		}
		turns[len(turns)-1] = append(turns[len(turns)-1], c)
	}
	return turns
}

// withoutTools drops tool results and function call parts of a turn.
func withoutTools(turn []core.Content) []core.Content {
	out := make([]core.Content, 0, len(turn))
	for _, c := range turn {
		if c.Role == core.RoleTool {
			continue
		}

		parts := make([]core.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			if _, ok := p.(core.TextPart); ok {
				parts = append(parts, p)
			}
		}

		if len(parts) == 0 {
			continue
		}

		out = append(out, core.Content{Role: c.Role, Parts: parts})
	}
	return out
}
