package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const DefaultModel = "claude-sonnet-4-20250514"
const APIVersion = "2023-06-01"

// NewAnthropicClient returns a client using the API key from the env unless
// one is passed in opts.
func NewAnthropicClient(opts ...option.RequestOption) *anthropic.Client {
	c := anthropic.NewClient(opts...)
	return &c
}

// Anthropic adapts the Messages API to Model.
type Anthropic struct {
	client *anthropic.Client
	model  anthropic.Model
	logger *zap.Logger
}

func NewAnthropic(client *anthropic.Client, model string, logger *zap.Logger) *Anthropic {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Anthropic{client: client, model: anthropic.Model(model), logger: logger}
}

func (a *Anthropic) Complete(ctx context.Context, req *Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   req.MaxTokens,
		Messages:    toAnthropicMessages(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
		if req.ToolChoice == ToolChoiceNone {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		} else {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
		}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &EndpointError{Provider: "anthropic", Model: string(a.model), Err: err}
	}

	resp := &Response{StopReason: StopReason(msg.StopReason)}
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, TextBlock(v.Text))
		case anthropic.ToolUseBlock:
			input, err := decodeInput(v.JSON.Input.Raw())
			if err != nil {
				// Keep the block so its id still gets a tool_result.
				a.logger.Warn("Failed to parse tool_use input",
					zap.String("tool_use_id", v.ID),
					zap.Error(err),
				)
			}
			resp.Content = append(resp.Content, ToolUseBlock(v.ID, v.Name, input))
		}
	}
	return resp, nil
}

func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case BlockToolUse:
				input := b.ToolUse.Input
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    b.ToolUse.ID,
					Name:  b.ToolUse.Name,
					Input: input,
				}})
			case BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolResult.ToolUseID, b.ToolResult.Content, b.ToolResult.IsError))
			}
		}
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func toAnthropicTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := anthropic.ToolInputSchemaParam{}
		if d.InputSchema != nil {
			schema.Properties = d.InputSchema.Properties
			schema.Required = d.InputSchema.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// decodeInput parses raw tool arguments into a map. Empty input decodes to an
// empty map.
func decodeInput(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}, fmt.Errorf("failed to parse arguments: %w", err)
	}
	return args, nil
}
