// Package agent defines model driven agents and the runner that executes
// their tool-calling loop.
//
// An Agent bundles a name, a description, an instruction and the tools it
// may call. A Runner drives one conversation: it sends the instruction and
// history to a model.Model, executes every requested tool call, feeds the
// results back and repeats until the model answers without tool calls.
//
// Execution Model:
//   - Tool calls of one model turn run concurrently; their responses are
//     appended in the order the model requested them
//   - Tool failures are reported to the model as function response errors
//     and never abort the run
//   - Tools share a run scoped core.State through their ToolContext
package agent
