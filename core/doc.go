// Package core provides the foundational types shared by tools, models and
// agents:
//
//   - Content and Part (role based conversation turns, function calls and
//     function responses)
//   - ToolContext (the scoped surface a tool sees while executing)
//   - State (concurrency safe key/value state shared by the tools of one run)
//
// The package keeps implementation concerns (providers, the tool-calling
// loop, concrete tools) out of scope so that every other package can depend
// on it without cycles.
package core
