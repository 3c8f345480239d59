package scholar

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	name       string
	configured bool
	text       string
	err        error
	lastReq    *llm.ChatRequest
}

func (p *stubProvider) Name() string     { return p.name }
func (p *stubProvider) Configured() bool { return p.configured }

func (p *stubProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ChatResponse{Choices: []llm.ChatChoice{{
		Message: llm.Message{Role: llm.RoleAssistant, Content: p.text},
	}}}, nil
}

func testArticle() arxiv.Article {
	return arxiv.Article{
		ID:        "2401.12345v1",
		Title:     "Sleep and Memory",
		Authors:   []string{"Ada Lovelace"},
		Published: "2024-01-15",
		Summary:   "Sleep helps the brain store memories.",
	}
}

func TestChatEngine_HappyPath(t *testing.T) {
	gemini := &stubProvider{name: "gemini", configured: true, text: "Great question! Sleep is like saving a game."}
	e := NewChatEngine([]llm.Provider{gemini}, zap.NewNop())

	reply := e.Chat(context.Background(), testArticle(), "why do we sleep?", []ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello!"},
	}, "gemini")

	assert.Equal(t, "gemini", reply.Provider)
	assert.Equal(t, "Great question! Sleep is like saving a game.", reply.Response)
	assert.Empty(t, reply.ErrorType)

	req := gemini.lastReq
	require.NotNil(t, req)
	assert.Contains(t, req.SystemPrompt, "Sleep and Memory")
	assert.Contains(t, req.SystemPrompt, "Ada Lovelace")
	require.Len(t, req.Messages, 3)
	assert.Equal(t, llm.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, "why do we sleep?", req.Messages[2].Content)
}

func TestChatEngine_EmptyPreferredUsesFirstProvider(t *testing.T) {
	gemini := &stubProvider{name: "gemini", configured: true, text: "hi"}
	claude := &stubProvider{name: "claude", configured: true, text: "hello"}
	e := NewChatEngine([]llm.Provider{gemini, claude}, zap.NewNop())

	reply := e.Chat(context.Background(), testArticle(), "q", nil, "")
	assert.Equal(t, "gemini", reply.Provider)
}

func TestChatEngine_UnknownProvider(t *testing.T) {
	e := NewChatEngine([]llm.Provider{&stubProvider{name: "gemini"}}, zap.NewNop())

	reply := e.Chat(context.Background(), testArticle(), "q", nil, "gpt4")

	assert.Equal(t, "none", reply.Provider)
	assert.Equal(t, "Unknown provider: gpt4. Use 'gemini' or 'claude'.", reply.Response)
}

func TestChatEngine_NotConfigured(t *testing.T) {
	e := NewChatEngine([]llm.Provider{&stubProvider{name: "claude"}}, zap.NewNop())

	reply := e.Chat(context.Background(), testArticle(), "q", nil, "claude")

	assert.Equal(t, "none", reply.Provider)
	assert.Equal(t, failNotConfigured, reply.ErrorType)
	assert.Equal(t, "Claude is not available. Try Gemini instead.", reply.Suggestion)
}

func TestChatEngine_FailureSuggestionsNeverLeakErrors(t *testing.T) {
	rawErr := &llm.Error{
		Code:    llm.ErrRateLimited,
		Message: "POST https://api.example.com?key=secret: 429",
	}
	gemini := &stubProvider{name: "gemini", configured: true, err: rawErr}
	e := NewChatEngine([]llm.Provider{gemini}, zap.NewNop())

	reply := e.Chat(context.Background(), testArticle(), "q", nil, "gemini")

	assert.Equal(t, "none", reply.Provider)
	assert.Equal(t, failRateLimited, reply.ErrorType)
	assert.NotContains(t, reply.Response, "secret")
	assert.NotContains(t, reply.Suggestion, "https://")
}

func TestClassifyChatError(t *testing.T) {
	coded := func(code llm.ErrorCode) error {
		return fmt.Errorf("wrap: %w", &llm.Error{Code: code, Message: "x"})
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", coded(llm.ErrRateLimited), failRateLimited},
		{"timeout", coded(llm.ErrUpstreamTimeout), failRateLimited},
		{"quota", coded(llm.ErrQuotaExceeded), failQuota},
		{"unavailable", coded(llm.ErrProviderUnavailable), failNotConfigured},
		{"unauthorized", coded(llm.ErrUnauthorized), failNotConfigured},
		{"plain error", errors.New("boom"), failUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyChatError(tt.err), tt.name)
	}
}

func TestBuildSystemPrompt_Defaults(t *testing.T) {
	prompt := buildSystemPrompt(arxiv.Article{})
	assert.Contains(t, prompt, "Unknown Title")
	assert.Contains(t, prompt, "Unknown date")
	assert.Contains(t, prompt, "No abstract available.")
}
