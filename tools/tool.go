package tools

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/petasbytes/course-agent/internal/provider"
)

// Tool is a capability the model may invoke by name.
type Tool interface {
	Definition() provider.ToolDefinition
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// Citation points at the lesson a passage came from. Link is empty when the
// lesson has none.
type Citation struct {
	Label string `json:"label"`
	Link  string `json:"link,omitempty"`
}

// Result is either a success carrying text and citations, or a failure
// carrying a reason. Only successes contribute citations.
type Result struct {
	text      string
	citations []Citation
	failure   string
	failed    bool
}

func OK(text string, citations ...Citation) Result {
	return Result{text: text, citations: citations}
}

func Failed(reason string) Result {
	return Result{failure: reason, failed: true}
}

func (r Result) Failed() bool { return r.failed }

// Content is the text placed in the tool_result block.
func (r Result) Content() string {
	if r.failed {
		return r.failure
	}
	return r.text
}

func (r Result) Citations() []Citation {
	if r.failed {
		return nil
	}
	return r.citations
}

// GenerateSchema reflects the JSON Schema of T inline, without $ref or
// additional properties.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// decodeArgs decodes model-supplied arguments into out using the json tags.
// Weak typing lets "3" and 3.0 both land in an int field.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
