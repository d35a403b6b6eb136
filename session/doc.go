// Package session keeps multi-turn conversations: the message history and
// the run state of one conversation, a Store to look them up by id, and
// Window strategies that decide how much history is replayed to the model.
//
// Window strategies mirror common short-term memory settings:
//   - LastNTurns keeps the most recent conversation turns
//   - TokenWindow keeps as many recent turns as fit an estimated token budget
//   - Stateless replays nothing, every request stands alone
//
// Add additional Store backends (Redis, Postgres, etc.) in sub-packages
// without changing calling code.
package session
