package tools

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/petasbytes/course-agent/internal/provider"
)

// toolSet is the shared, registration-ordered table behind every scope of a
// Registry.
type toolSet struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]Tool
}

// Registry maps tool names to tools and accumulates the citations of
// successful executions. Scope returns a view that shares the tools but not
// the citations.
type Registry struct {
	tools  *toolSet
	logger *zap.Logger

	citeMu sync.Mutex
	cites  map[string][]Citation
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  &toolSet{byName: make(map[string]Tool)},
		logger: logger,
		cites:  make(map[string][]Citation),
	}
}

// Register adds t under its definition name. Registering a name again
// replaces the earlier tool but keeps its position.
func (r *Registry) Register(t Tool) {
	name := t.Definition().Name
	r.tools.mu.Lock()
	defer r.tools.mu.Unlock()
	if _, exists := r.tools.byName[name]; exists {
		r.logger.Debug("Replacing registered tool", zap.String("tool", name))
	} else {
		r.tools.order = append(r.tools.order, name)
	}
	r.tools.byName[name] = t
}

// Scope returns a registry over the same tools with an empty citation
// accumulator.
func (r *Registry) Scope() *Registry {
	return &Registry{tools: r.tools, logger: r.logger, cites: make(map[string][]Citation)}
}

// Definitions lists tool schemas in registration order.
func (r *Registry) Definitions() []provider.ToolDefinition {
	r.tools.mu.RLock()
	defer r.tools.mu.RUnlock()
	out := make([]provider.ToolDefinition, 0, len(r.tools.order))
	for _, name := range r.tools.order {
		out = append(out, r.tools.byName[name].Definition())
	}
	return out
}

func (r *Registry) lookup(name string) (Tool, bool) {
	r.tools.mu.RLock()
	defer r.tools.mu.RUnlock()
	t, ok := r.tools.byName[name]
	return t, ok
}

// Execute runs the named tool without recording citations. It never returns
// an error: unknown tools, tool errors and panics all become failed results.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (res Result) {
	t, ok := r.lookup(name)
	if !ok {
		return Failed(fmt.Sprintf("Tool '%s' not found", name))
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Tool panicked", zap.String("tool", name), zap.Any("panic", p))
			res = Failed(fmt.Sprintf("Tool execution error: %v", p))
		}
	}()
	out, err := t.Execute(ctx, args)
	if err != nil {
		return Failed(fmt.Sprintf("Tool execution error: %s", err.Error()))
	}
	return out
}

// Record stores the citations of a result produced by the named tool.
// Failed results record nothing.
func (r *Registry) Record(name string, res Result) {
	cites := res.Citations()
	if len(cites) == 0 {
		return
	}
	r.citeMu.Lock()
	defer r.citeMu.Unlock()
	r.cites[name] = append(r.cites[name], cites...)
}

// Invoke is Execute followed by Record.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) Result {
	res := r.Execute(ctx, name, args)
	r.Record(name, res)
	return res
}

// CollectCitations concatenates accumulated citations in tool registration
// order. It does not clear them.
func (r *Registry) CollectCitations() []Citation {
	r.tools.mu.RLock()
	order := append([]string(nil), r.tools.order...)
	r.tools.mu.RUnlock()

	r.citeMu.Lock()
	defer r.citeMu.Unlock()
	var out []Citation
	for _, name := range order {
		out = append(out, r.cites[name]...)
	}
	return out
}

func (r *Registry) ClearCitations() {
	r.citeMu.Lock()
	defer r.citeMu.Unlock()
	r.cites = make(map[string][]Citation)
}
