package provider_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/course-agent/internal/provider"
)

type chatRequest struct {
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools      []json.RawMessage `json:"tools"`
	ToolChoice any               `json:"tool_choice"`
}

func chatServer(t *testing.T, status int, reply string, seen *chatRequest, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		b, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(b, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_ToolCallsMapToToolUse(t *testing.T) {
	reply := `{"choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"","tool_calls":[{"id":"c1","type":"function","function":{"name":"get_course_outline","arguments":"{\"course_title\":\"MCP\"}"}}]}}]}`
	var seen chatRequest
	srv := chatServer(t, http.StatusOK, reply, &seen, nil)

	m := provider.NewOpenAI(srv.URL, "", "gpt-test", 0, nil)
	got, err := m.Complete(context.Background(), &provider.Request{
		System:     "sys",
		Messages:   []provider.Message{provider.NewUserMessage(provider.TextBlock("outline?"))},
		Tools:      []provider.ToolDefinition{searchDef()},
		ToolChoice: provider.ToolChoiceAuto,
		MaxTokens:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, provider.StopToolUse, got.StopReason)
	uses := got.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "c1", uses[0].ID)
	assert.Equal(t, "get_course_outline", uses[0].Name)
	assert.Equal(t, "MCP", uses[0].Input["course_title"])

	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "user", seen.Messages[1].Role)
	assert.Len(t, seen.Tools, 1)
	assert.Equal(t, "auto", seen.ToolChoice)
}

func TestOpenAI_FlattensToolResultsIntoToolMessages(t *testing.T) {
	reply := `{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"final"}}]}`
	var seen chatRequest
	srv := chatServer(t, http.StatusOK, reply, &seen, nil)

	m := provider.NewOpenAI(srv.URL, "k", "gpt-test", 0, nil)
	got, err := m.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{
			provider.NewUserMessage(provider.TextBlock("q")),
			provider.NewAssistantMessage(
				provider.ToolUseBlock("a", "search_course_content", map[string]any{"query": "x"}),
				provider.ToolUseBlock("b", "search_course_content", map[string]any{"query": "y"}),
			),
			provider.NewUserMessage(
				provider.ToolResultBlock("a", "result a", false),
				provider.ToolResultBlock("b", "result b", true),
			),
		},
		Tools:      []provider.ToolDefinition{searchDef()},
		ToolChoice: provider.ToolChoiceNone,
	})
	require.NoError(t, err)
	assert.Equal(t, provider.StopEndTurn, got.StopReason)
	assert.Equal(t, "final", got.Text())

	require.Len(t, seen.Messages, 4)
	assert.Equal(t, "assistant", seen.Messages[1].Role)
	require.Len(t, seen.Messages[1].ToolCalls, 2)
	assert.Equal(t, "tool", seen.Messages[2].Role)
	assert.Equal(t, "a", seen.Messages[2].ToolCallID)
	assert.Equal(t, "result b", seen.Messages[3].Content)
	assert.Equal(t, "none", seen.ToolChoice)
}

func TestOpenAI_RetriesThenReturnsEndpointError(t *testing.T) {
	var calls int32
	srv := chatServer(t, http.StatusBadRequest, `{"error":{"message":"bad request","type":"invalid_request_error"}}`, nil, &calls)

	m := provider.NewOpenAI(srv.URL, "k", "gpt-test", 1, nil)
	_, err := m.Complete(context.Background(), &provider.Request{
		Messages: []provider.Message{provider.NewUserMessage(provider.TextBlock("q"))},
	})
	require.Error(t, err)
	assert.True(t, provider.IsEndpointError(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
