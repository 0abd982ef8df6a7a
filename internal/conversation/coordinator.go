package conversation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/course-agent/internal/runner"
	"github.com/petasbytes/course-agent/internal/telemetry"
	"github.com/petasbytes/course-agent/tools"
)

// PromptPrefix is prepended to every user query before it reaches the model.
const PromptPrefix = "Answer this question about course materials: "

// SessionStore supplies and records per-session history.
type SessionStore interface {
	History(id string) (string, bool)
	AddExchange(id, query, answer string)
}

type Answer struct {
	Text      string
	Citations []tools.Citation
	Rounds    int
}

// Coordinator is the query entry point: it adds session history, runs the
// tool loop against a per-query registry scope and records the exchange.
type Coordinator struct {
	runner   *runner.Runner
	tools    *tools.Registry
	sessions SessionStore
	logger   *zap.Logger
}

// New returns a Coordinator. sessions may be nil, in which case session ids
// are ignored.
func New(r *runner.Runner, registry *tools.Registry, sessions SessionStore, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{runner: r, tools: registry, sessions: sessions, logger: logger}
}

// Query answers text. With a non-empty sessionID, prior exchanges are passed
// as context and the new exchange is recorded on success.
func (c *Coordinator) Query(ctx context.Context, text, sessionID string) (*Answer, error) {
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	telemetry.EmitQueryFeatures(ctx, text)
	start := time.Now()

	history := ""
	if sessionID != "" && c.sessions != nil {
		history, _ = c.sessions.History(sessionID)
	}

	in := runner.Input{Query: PromptPrefix + text, History: history}
	var scope *tools.Registry
	if c.tools != nil {
		scope = c.tools.Scope()
		in.Tools = scope
	}

	res, err := c.runner.Run(ctx, in)

	var cites []tools.Citation
	if scope != nil {
		cites = scope.CollectCitations()
		scope.ClearCitations()
	}

	if err != nil {
		c.logger.Error("Query failed",
			zap.String("turn_id", turnID),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	if sessionID != "" && c.sessions != nil {
		c.sessions.AddExchange(sessionID, text, res.Text)
	}

	c.logger.Info("Query answered",
		zap.String("turn_id", turnID),
		zap.String("session_id", sessionID),
		zap.Int("rounds", res.Rounds),
		zap.Int("model_calls", res.ModelCalls),
		zap.Int("citations", len(cites)),
		zap.Duration("duration", time.Since(start)),
	)
	return &Answer{Text: res.Text, Citations: cites, Rounds: res.Rounds}, nil
}
