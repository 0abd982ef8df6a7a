// Package runner drives the bounded tool-calling loop for one query.
//
// States: AwaitingModel -> DispatchingTools -> AwaitingModel ... -> Done.
// After MaxRounds tool rounds the next call withdraws tools, so a run makes
// at most MaxRounds+1 model calls.
//
// Invariant:
//   - every assistant tool_use is answered by exactly one tool_result in the
//     immediately following user message before the next call.
//
// Flow:
//
//	user(text) -> assistant(tool_use) -> user(tool_result) -> assistant(text)
package runner
