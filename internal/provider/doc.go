// Package provider defines the provider-neutral message model used by the
// runner and adapts it to concrete generative-model endpoints.
//
// Adapters:
//   - Anthropic: Messages API via anthropic-sdk-go (default).
//   - OpenAI: chat completions via go-openai; works against LiteLLM/OpenRouter.
//
// Invariant:
//   - every tool_use block carries an id; the runner answers each id with
//     exactly one tool_result block in the following user message.
//
// Endpoint failures are returned as *EndpointError.
package provider
