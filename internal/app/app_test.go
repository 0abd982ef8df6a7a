package app_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/course-agent/internal/app"
	"github.com/petasbytes/course-agent/internal/config"
	"github.com/petasbytes/course-agent/internal/provider"
	"github.com/petasbytes/course-agent/tools"
)

const catalogYAML = `courses:
  - title: Introduction to MCP
    instructor: Ada Lovelace
    link: https://example.com/mcp
    lessons:
      - number: 1
        title: What is MCP
        link: https://example.com/mcp/1
        chunks:
          - "MCP is a protocol that connects models to tools and data."
      - number: 2
        title: Servers
        chunks:
          - "An MCP server exposes tools over a transport."
`

// scripted replays responses in order and records every request.
type scripted struct {
	mu        sync.Mutex
	responses []*provider.Response
	requests  []*provider.Request
}

func (s *scripted) Complete(_ context.Context, req *provider.Request) (*provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))
	return &config.Config{
		Provider:        config.ProviderAnthropic,
		AnthropicAPIKey: "test",
		Model:           "test-model",
		MaxTokens:       800,
		MaxToolRounds:   2,
		ToolConcurrency: 4,
		MaxHistory:      2,
		MaxResults:      5,
		Store:           config.StoreMemory,
		CatalogPath:     path,
	}
}

func TestNewWithModel_AnswersWithCitations(t *testing.T) {
	t.Setenv("AGT_OBSERVE_JSON", "0")
	model := &scripted{responses: []*provider.Response{
		{
			StopReason: provider.StopToolUse,
			Content: []provider.ContentBlock{
				provider.ToolUseBlock("t1", tools.SearchContentName, map[string]any{
					"query":       "protocol",
					"course_name": "MCP",
				}),
			},
		},
		{
			StopReason: provider.StopEndTurn,
			Content:    []provider.ContentBlock{provider.TextBlock("MCP is a protocol.")},
		},
	}}

	ctx := context.Background()
	a, err := app.NewWithModel(ctx, testConfig(t), model, nil, nil)
	require.NoError(t, err)
	defer a.Close(ctx)

	titles, err := a.Store.CourseTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Introduction to MCP"}, titles)

	id := a.Sessions.CreateSession()
	ans, err := a.Coordinator.Query(ctx, "What is MCP?", id)
	require.NoError(t, err)
	assert.Equal(t, "MCP is a protocol.", ans.Text)
	assert.Equal(t, []tools.Citation{{Label: "Introduction to MCP - Lesson 1", Link: "https://example.com/mcp/1"}}, ans.Citations)

	require.Len(t, model.requests, 2)
	names := []string{}
	for _, d := range model.requests[0].Tools {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{tools.SearchContentName, tools.CourseOutlineName}, names)

	hist, ok := a.Sessions.History(id)
	require.True(t, ok)
	assert.Equal(t, "User: What is MCP?\nAssistant: MCP is a protocol.", hist)
}

func TestNewStore_MissingCatalogIsEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogPath = filepath.Join(t.TempDir(), "absent.yaml")
	store, done, err := app.NewStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer done(context.Background())

	titles, err := store.CourseTitles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestNewModel_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider = "other"
	_, err := app.NewModel(cfg, nil)
	assert.Error(t, err)
}
