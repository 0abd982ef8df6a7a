package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/petasbytes/course-agent/internal/provider"
	"github.com/petasbytes/course-agent/internal/telemetry"
	"github.com/petasbytes/course-agent/internal/transcript"
	"github.com/petasbytes/course-agent/tools"
)

const (
	DefaultMaxRounds       = 2
	DefaultToolConcurrency = 4
	DefaultMaxTokens       = 800
)

// Toolset is what the runner needs from a tool registry. Execute must not
// record citations; the runner calls Record once per request, in request
// order, after the whole round has finished.
type Toolset interface {
	Definitions() []provider.ToolDefinition
	Execute(ctx context.Context, name string, args map[string]any) tools.Result
	Record(name string, res tools.Result)
}

type Options struct {
	// MaxRounds bounds tool rounds per query. Zero makes a single call with
	// tools withdrawn.
	MaxRounds int
	// ToolConcurrency bounds parallel tool executions within a round; <= 0 is
	// unbounded.
	ToolConcurrency int
	MaxTokens       int64
	Temperature     float64
}

func DefaultOptions() Options {
	return Options{
		MaxRounds:       DefaultMaxRounds,
		ToolConcurrency: DefaultToolConcurrency,
		MaxTokens:       DefaultMaxTokens,
	}
}

// Runner drives the bounded tool-calling loop against a model. It holds no
// per-query state and is safe for concurrent use.
type Runner struct {
	model  provider.Model
	opts   Options
	logger *zap.Logger
}

func New(model provider.Model, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRounds < 0 {
		opts.MaxRounds = 0
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Runner{model: model, opts: opts, logger: logger}
}

type Input struct {
	Query string
	// History is prior conversation text; empty means none.
	History string
	// Tools may be nil.
	Tools Toolset
}

type Result struct {
	Text       string
	Rounds     int
	ModelCalls int
}

// Run answers one query. Tool failures are fed back to the model as error
// results; a failed model call ends the run with a *provider.EndpointError.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	start := time.Now()

	var defs []provider.ToolDefinition
	if in.Tools != nil {
		defs = in.Tools.Definitions()
	}
	system := systemPrompt(in.History)
	msgs := []provider.Message{provider.NewUserMessage(provider.TextBlock(in.Query))}

	var (
		state  = AwaitingModel
		offer  = offerFirst(len(defs), r.opts.MaxRounds)
		resp   *provider.Response
		rounds int
		calls  int
	)
	for state != Done {
		switch state {
		case AwaitingModel:
			req := r.request(system, msgs, defs, offer)
			var err error
			resp, err = r.call(ctx, turnID, calls, req)
			calls++
			if err != nil {
				r.emitRunComplete(turnID, rounds, calls, start, err)
				return nil, err
			}
			state = step(state, event{response: resp, offered: req.ToolsOffered()}, r.opts.MaxRounds).next

		case DispatchingTools:
			msgs = append(msgs, provider.NewAssistantMessage(resp.Content...))
			msgs = append(msgs, provider.NewUserMessage(r.dispatch(ctx, turnID, in.Tools, resp.ToolUses())...))
			if err := transcript.ValidatePairs(msgs); err != nil {
				r.emitRunComplete(turnID, rounds, calls, start, err)
				return nil, fmt.Errorf("runner: %w", err)
			}
			rounds++
			t := step(state, event{rounds: rounds}, r.opts.MaxRounds)
			state, offer = t.next, t.offerTools
		}
	}

	r.emitRunComplete(turnID, rounds, calls, start, nil)
	r.logger.Debug("Run complete",
		zap.String("turn_id", turnID),
		zap.Int("rounds", rounds),
		zap.Int("model_calls", calls),
	)
	return &Result{Text: resp.Text(), Rounds: rounds, ModelCalls: calls}, nil
}

// request builds one model call. Withdrawn tools stay listed with
// ToolChoiceNone so a transcript holding tool blocks remains valid.
func (r *Runner) request(system string, msgs []provider.Message, defs []provider.ToolDefinition, offer bool) *provider.Request {
	req := &provider.Request{
		System:      system,
		Messages:    append([]provider.Message(nil), msgs...),
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	}
	if len(defs) == 0 {
		return req
	}
	req.Tools = defs
	if offer {
		req.ToolChoice = provider.ToolChoiceAuto
	} else {
		req.ToolChoice = provider.ToolChoiceNone
	}
	return req
}

func (r *Runner) call(ctx context.Context, turnID string, index int, req *provider.Request) (*provider.Response, error) {
	start := time.Now()
	resp, err := r.model.Complete(ctx, req)
	fields := map[string]any{
		"turn_id":       turnID,
		"call_index":    index,
		"tools_offered": req.ToolsOffered(),
		"messages":      len(req.Messages),
		"duration_ms":   time.Since(start).Milliseconds(),
	}
	if err != nil {
		// Keep error text out of telemetry; it may echo request content.
		fields["error"] = "model error"
		telemetry.Emit("model_call", fields)
		r.logger.Warn("Model call failed",
			zap.String("turn_id", turnID),
			zap.Int("call_index", index),
			zap.Error(err),
		)
		if !provider.IsEndpointError(err) {
			err = &provider.EndpointError{Provider: "unknown", Err: err}
		}
		return nil, err
	}
	if resp == nil {
		resp = &provider.Response{}
	}
	fields["stop_reason"] = string(resp.StopReason)
	fields["tool_uses"] = len(resp.ToolUses())
	fields["error"] = nil
	telemetry.Emit("model_call", fields)
	return resp, nil
}

// dispatch runs every request of one round, concurrently up to
// ToolConcurrency, and returns one tool_result block per request in request
// order.
func (r *Runner) dispatch(ctx context.Context, turnID string, ts Toolset, uses []provider.ToolUse) []provider.ContentBlock {
	results := make([]tools.Result, len(uses))

	var g errgroup.Group
	if r.opts.ToolConcurrency > 0 {
		g.SetLimit(r.opts.ToolConcurrency)
	}
	for i, u := range uses {
		g.Go(func() error {
			results[i] = r.execTool(ctx, turnID, ts, u)
			return nil
		})
	}
	_ = g.Wait()

	blocks := make([]provider.ContentBlock, 0, len(uses))
	for i, u := range uses {
		if ts != nil {
			ts.Record(u.Name, results[i])
		}
		blocks = append(blocks, provider.ToolResultBlock(u.ID, results[i].Content(), results[i].Failed()))
	}
	return blocks
}

func (r *Runner) execTool(ctx context.Context, turnID string, ts Toolset, u provider.ToolUse) (res tools.Result) {
	start := time.Now()
	inSize := 0
	if b, err := json.Marshal(u.Input); err == nil {
		inSize = len(b)
	}

	// Helper to emit a tool_exec event
	emit := func(errStr string) {
		fields := map[string]any{
			"tool_name":   u.Name,
			"duration_ms": time.Since(start).Milliseconds(),
			"input_size":  inSize,
			"output_size": len(res.Content()),
			"turn_id":     turnID,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Tool panicked", zap.String("tool", u.Name), zap.Any("panic", p))
			res = tools.Failed(fmt.Sprintf("Tool execution error: %v", p))
		}
		// Emit a generic error string to avoid leaking raw payloads in telemetry
		if res.Failed() {
			emit("tool error")
		} else {
			emit("")
		}
	}()

	if ts == nil {
		return tools.Failed(fmt.Sprintf("Tool '%s' not found", u.Name))
	}
	res = ts.Execute(ctx, u.Name, u.Input)
	if res.Failed() {
		r.logger.Debug("Tool failed",
			zap.String("turn_id", turnID),
			zap.String("tool", u.Name),
			zap.String("result", res.Content()),
		)
	}
	return res
}

func (r *Runner) emitRunComplete(turnID string, rounds, calls int, start time.Time, err error) {
	fields := map[string]any{
		"turn_id":     turnID,
		"rounds":      rounds,
		"model_calls": calls,
		"duration_ms": time.Since(start).Milliseconds(),
		"error":       nil,
	}
	if err != nil {
		fields["error"] = "run failed"
	}
	telemetry.Emit("run_complete", fields)
}
