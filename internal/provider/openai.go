package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI adapts an OpenAI-compatible chat completions endpoint (OpenAI,
// LiteLLM, OpenRouter) to Model.
type OpenAI struct {
	client     *openai.Client
	model      string
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewOpenAI creates an adapter for baseURL. maxRetries bounds extra attempts
// after a failed call; 0 disables retry.
func NewOpenAI(baseURL, apiKey, model string, maxRetries int, logger *zap.Logger) *OpenAI {
	// LiteLLM accepts any key.
	if apiKey == "" {
		apiKey = "dummy-key"
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		maxRetries: maxRetries,
		backoff:    time.Second,
		logger:     logger,
	}
}

func (o *OpenAI) Complete(ctx context.Context, req *Request) (*Response, error) {
	creq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    toOpenAIMessages(req.System, req.Messages),
		MaxTokens:   int(req.MaxTokens),
		Temperature: float32(req.Temperature),
	}
	if len(req.Tools) > 0 {
		creq.Tools = toOpenAITools(req.Tools)
		if req.ToolChoice == ToolChoiceNone {
			creq.ToolChoice = "none"
		} else {
			creq.ToolChoice = "auto"
		}
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * o.backoff
			o.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, &EndpointError{Provider: "openai", Model: o.model, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		resp, err = o.client.CreateChatCompletion(ctx, creq)
		if err == nil {
			break
		}
		o.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", o.model),
		)
	}
	if err != nil {
		return nil, &EndpointError{Provider: "openai", Model: o.model, Err: fmt.Errorf("after %d attempts: %w", o.maxRetries+1, err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &EndpointError{Provider: "openai", Model: o.model, Err: fmt.Errorf("no choices in LLM response")}
	}

	choice := resp.Choices[0]
	out := &Response{StopReason: fromFinishReason(choice.FinishReason)}
	if choice.Message.Content != "" {
		out.Content = append(out.Content, TextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		args, err := decodeInput(tc.Function.Arguments)
		if err != nil {
			o.logger.Warn("Failed to parse tool call arguments",
				zap.String("tool_id", tc.ID),
				zap.Error(err),
			)
		}
		out.Content = append(out.Content, ToolUseBlock(tc.ID, tc.Function.Name, args))
	}
	// Some gateways report "stop" alongside tool calls.
	if len(choice.Message.ToolCalls) > 0 {
		out.StopReason = StopToolUse
	}
	return out, nil
}

func fromFinishReason(r openai.FinishReason) StopReason {
	switch r {
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return StopToolUse
	case openai.FinishReasonLength:
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

// toOpenAIMessages flattens the block model: tool_use blocks become the
// assistant's tool_calls and each tool_result becomes its own "tool" message.
func toOpenAIMessages(system string, msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		var text []string
		var calls []openai.ToolCall
		var results []openai.ChatCompletionMessage
		for _, b := range m.Content {
			switch b.Type {
			case BlockText:
				text = append(text, b.Text)
			case BlockToolUse:
				args, _ := json.Marshal(b.ToolUse.Input)
				calls = append(calls, openai.ToolCall{
					ID:   b.ToolUse.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      b.ToolUse.Name,
						Arguments: string(args),
					},
				})
			case BlockToolResult:
				results = append(results, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    b.ToolResult.Content,
					ToolCallID: b.ToolResult.ToolUseID,
				})
			}
		}
		if m.Role == RoleAssistant {
			out = append(out, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   strings.Join(text, "\n"),
				ToolCalls: calls,
			})
			continue
		}
		out = append(out, results...)
		if len(text) > 0 {
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: strings.Join(text, "\n")})
		}
	}
	return out
}

func toOpenAITools(defs []ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		params := map[string]any{"type": "object", "properties": map[string]any{}}
		if d.InputSchema != nil {
			if d.InputSchema.Properties != nil {
				params["properties"] = d.InputSchema.Properties
			}
			if len(d.InputSchema.Required) > 0 {
				params["required"] = d.InputSchema.Required
			}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
