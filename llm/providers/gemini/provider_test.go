package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := New(providers.GeminiConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  "test-key",
			BaseURL: srv.URL,
		},
	}, zap.NewNop())
	return p, srv
}

func TestProvider_Configured(t *testing.T) {
	assert.False(t, New(providers.GeminiConfig{}, nil).Configured())
	assert.True(t, New(providers.GeminiConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k"},
	}, nil).Configured())
	assert.Equal(t, "gemini", New(providers.GeminiConfig{}, nil).Name())
}

func TestProvider_CompletionTextAnswer(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{
					Role:  "model",
					Parts: []geminiPart{{Text: "Hello!"}},
				},
				FinishReason: "STOP",
			}},
			UsageMetadata: &geminiUsageMetadata{PromptTokenCount: 5, CandidatesTokenCount: 2, TotalTokenCount: 7},
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		SystemPrompt: "be brief",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash-lite:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.NotNil(t, gotBody.SystemInstruction)
	assert.Equal(t, "be brief", gotBody.SystemInstruction.Parts[0].Text)

	assert.Equal(t, "Hello!", resp.First().Content)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestProvider_CompletionFunctionCall(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{
					Role: "model",
					Parts: []geminiPart{{
						FunctionCall: &geminiFunctionCall{
							Name: "search",
							Args: map[string]any{"topic": "transformers"},
						},
					}},
				},
			}},
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "find papers"}},
	})
	require.NoError(t, err)

	calls := resp.First().ToolCalls
	require.Len(t, calls, 1)
	assert.Equal(t, "search", calls[0].Name)
	assert.JSONEq(t, `{"topic":"transformers"}`, string(calls[0].Arguments))
}

func TestProvider_CompletionRateLimited(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "Resource has been exhausted"}}`))
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, llm.ErrRateLimited, llm.Classify(err))
}

func TestProvider_ModelPriority(t *testing.T) {
	var gotPath string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(geminiResponse{})
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "gemini-1.5-flash",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
}

func TestConvertContents_ToolRoundTrip(t *testing.T) {
	system, contents := convertContents([]llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "find papers"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{
			Name:      "search",
			Arguments: json.RawMessage(`{"topic":"x"}`),
		}}},
		{Role: llm.RoleTool, Name: "search", Content: `{"count":1}`},
	})

	require.NotNil(t, system)
	assert.Equal(t, "sys", system.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "search", contents[1].Parts[0].FunctionCall.Name)

	assert.Equal(t, "function", contents[2].Role)
	fr := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, fr)
	assert.Equal(t, "search", fr.Name)
	assert.Equal(t, map[string]any{"result": `{"count":1}`}, fr.Response)
}
