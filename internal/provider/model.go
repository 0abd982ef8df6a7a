package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// Role identifies the author of a message in the conversation buffer.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType tags the variant held by a ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// StopReason reports why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// ToolChoice controls whether the model may request tools on a call.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide whether to call an offered tool.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone withdraws tools; the model must answer in text.
	ToolChoiceNone ToolChoice = "none"
)

// ToolUse is a tool-invocation request emitted by the model.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResult answers exactly one ToolUse, matched by ToolUseID.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// ContentBlock is one element of a message body. Exactly one of Text,
// ToolUse or ToolResult is meaningful, as selected by Type.
type ContentBlock struct {
	Type       BlockType
	Text       string
	ToolUse    *ToolUse
	ToolResult *ToolResult
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

func ToolUseBlock(id, name string, input map[string]any) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ToolUse: &ToolUse{ID: id, Name: name, Input: input}}
}

func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolResult: &ToolResult{ToolUseID: toolUseID, Content: content, IsError: isError}}
}

// Message is a single entry in the conversation buffer.
type Message struct {
	Role    Role
	Content []ContentBlock
}

func NewUserMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

func NewAssistantMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleAssistant, Content: blocks}
}

// ToolDefinition advertises a tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Request is one call to the generative-model endpoint.
//
// Tools are sent only when non-empty. ToolChoiceNone withdraws them: the
// definitions may still be listed (some endpoints reject tool blocks in the
// transcript otherwise) but the model cannot select one.
type Request struct {
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	ToolChoice  ToolChoice
	MaxTokens   int64
	Temperature float64
}

// ToolsOffered reports whether the model may request a tool on this call.
func (r *Request) ToolsOffered() bool {
	return len(r.Tools) > 0 && r.ToolChoice != ToolChoiceNone
}

// Response is the model's reply to a Request.
type Response struct {
	StopReason StopReason
	Content    []ContentBlock
}

// Text joins the response's text blocks with newlines.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Content))
	for _, b := range r.Content {
		if b.Type == BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolUses returns the tool-invocation requests in the order they appear.
func (r *Response) ToolUses() []ToolUse {
	if r == nil {
		return nil
	}
	var uses []ToolUse
	for _, b := range r.Content {
		if b.Type == BlockToolUse && b.ToolUse != nil {
			uses = append(uses, *b.ToolUse)
		}
	}
	return uses
}

// Model is a generative-model endpoint.
type Model interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// EndpointError reports a failed call to the model endpoint (network, auth,
// rate limit, malformed reply). It is fatal to the current query.
type EndpointError struct {
	Provider string
	Model    string
	Err      error
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("%s endpoint (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *EndpointError) Unwrap() error { return e.Err }

// IsEndpointError reports whether err wraps an *EndpointError.
func IsEndpointError(err error) bool {
	var ee *EndpointError
	return errors.As(err, &ee)
}
