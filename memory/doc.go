// Package memory keeps per-session conversation history.
//
// Model:
//   - A session holds the last N (query, answer) exchanges; older ones drop off.
//   - Only text is kept. Tool blocks never leave the query that produced them.
//   - Save/LoadSessions persist the whole store as one JSON file.
package memory
