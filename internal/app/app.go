// Package app assembles the agent from configuration. Both the HTTP server
// and the interactive CLI build on it.
package app

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/petasbytes/course-agent/internal/config"
	"github.com/petasbytes/course-agent/internal/conversation"
	"github.com/petasbytes/course-agent/internal/provider"
	"github.com/petasbytes/course-agent/internal/retrieval"
	"github.com/petasbytes/course-agent/internal/runner"
	"github.com/petasbytes/course-agent/memory"
	"github.com/petasbytes/course-agent/tools"
)

// Store is everything the tools and the HTTP surface need from a catalog
// backend.
type Store interface {
	retrieval.Loader
	tools.Searcher
	tools.CourseCatalog
	CourseTitles(ctx context.Context) ([]string, error)
}

type App struct {
	Coordinator *conversation.Coordinator
	Registry    *tools.Registry
	Store       Store
	Sessions    *memory.Sessions

	closers []func(context.Context) error
}

// NewModel picks the model endpoint named by cfg.Provider.
func NewModel(cfg *config.Config, log *zap.Logger) (provider.Model, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		client := provider.NewAnthropicClient(
			option.WithAPIKey(cfg.AnthropicAPIKey),
			option.WithMaxRetries(cfg.MaxRetries),
		)
		return provider.NewAnthropic(client, cfg.Model, log), nil
	case config.ProviderOpenAI:
		return provider.NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model, cfg.MaxRetries, log), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// NewStore opens the configured catalog backend and loads the catalog file
// into it.
func NewStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, func(context.Context) error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		store Store
		done  = func(context.Context) error { return nil }
	)
	switch cfg.Store {
	case config.StoreMemory:
		store = retrieval.NewMemoryStore(cfg.MaxResults)
	case config.StoreNeo4j:
		driver, err := retrieval.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, nil, err
		}
		s := retrieval.NewNeo4jStore(driver, cfg.MaxResults, log)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, nil, err
		}
		store, done = s, s.Close
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	n, err := retrieval.LoadInto(ctx, store, cfg.CatalogPath)
	if err != nil {
		_ = done(ctx)
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info("Catalog loaded",
		zap.String("store", cfg.Store),
		zap.String("path", cfg.CatalogPath),
		zap.Int("courses", n),
	)
	return store, done, nil
}

// RegisterTools registers the content search and outline tools over store.
func RegisterTools(reg *tools.Registry, store Store) {
	reg.Register(tools.NewSearchContentTool(store))
	reg.Register(tools.NewCourseOutlineTool(store))
}

// New wires a complete agent. sessions may be nil, in which case an empty
// in-memory store is used.
func New(ctx context.Context, cfg *config.Config, sessions *memory.Sessions, log *zap.Logger) (*App, error) {
	model, err := NewModel(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewWithModel(ctx, cfg, model, sessions, log)
}

func NewWithModel(ctx context.Context, cfg *config.Config, model provider.Model, sessions *memory.Sessions, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	store, closeStore, err := NewStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	reg := tools.NewRegistry(log)
	RegisterTools(reg, store)

	if sessions == nil {
		sessions = memory.NewSessions(cfg.MaxHistory)
	}
	r := runner.New(model, runner.Options{
		MaxRounds:       cfg.MaxToolRounds,
		ToolConcurrency: cfg.ToolConcurrency,
		MaxTokens:       int64(cfg.MaxTokens),
		Temperature:     cfg.Temperature,
	}, log)

	return &App{
		Coordinator: conversation.New(r, reg, sessions, log),
		Registry:    reg,
		Store:       store,
		Sessions:    sessions,
		closers:     []func(context.Context) error{closeStore},
	}, nil
}

// Close releases the store.
func (a *App) Close(ctx context.Context) error {
	var first error
	for _, c := range a.closers {
		if err := c(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
