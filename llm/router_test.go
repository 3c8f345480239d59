package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider 可编程的 Provider，按模型名返回预设结果
type fakeProvider struct {
	name       string
	configured bool
	results    map[string]error // model → error（nil 表示成功）
	calls      []string         // 记录实际尝试的模型
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Completion(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
	f.calls = append(f.calls, req.Model)
	if err, ok := f.results[req.Model]; ok && err != nil {
		return nil, err
	}
	return &ChatResponse{
		Provider: f.name,
		Model:    req.Model,
		Choices:  []ChatChoice{{Message: Message{Role: RoleAssistant, Content: "ok from " + f.name}}},
	}, nil
}

func rateLimitErr(provider string) *Error {
	return &Error{
		Code:       ErrRateLimited,
		Message:    "rate limited",
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
		Provider:   provider,
	}
}

func TestFallbackRouter_FallsThroughRateLimits(t *testing.T) {
	a := &fakeProvider{
		name:       "gemini",
		configured: true,
		results: map[string]error{
			"g-lite": rateLimitErr("gemini"),
			"g-pro":  rateLimitErr("gemini"),
		},
	}
	b := &fakeProvider{name: "claude", configured: true}

	router := NewFallbackRouter([]Route{
		{Provider: a, Models: []string{"g-lite", "g-pro"}},
		{Provider: b, Models: []string{"c-sonnet"}},
	}, RouterOptions{})

	resp, err := router.Completion(context.Background(), &ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "claude", resp.Provider)
	assert.Equal(t, "ok from claude", resp.First().Content)
	// 每个模型在一轮内只尝试一次
	assert.Equal(t, []string{"g-lite", "g-pro"}, a.calls)
	assert.Equal(t, []string{"c-sonnet"}, b.calls)
}

func TestFallbackRouter_SkipsUnconfiguredProvider(t *testing.T) {
	a := &fakeProvider{name: "gemini", configured: false}
	b := &fakeProvider{name: "claude", configured: true}

	router := NewFallbackRouter([]Route{
		{Provider: a, Models: []string{"g-lite"}},
		{Provider: b, Models: []string{"c-sonnet"}},
	}, RouterOptions{})

	resp, err := router.Completion(context.Background(), &ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "claude", resp.Provider)
	assert.Empty(t, a.calls)
}

func TestFallbackRouter_ExhaustionReturnsSanitizedError(t *testing.T) {
	a := &fakeProvider{
		name:       "gemini",
		configured: true,
		results:    map[string]error{"g-lite": rateLimitErr("gemini")},
	}

	router := NewFallbackRouter([]Route{
		{Provider: a, Models: []string{"g-lite"}},
	}, RouterOptions{})

	_, err := router.Completion(context.Background(), &ChatRequest{})
	require.Error(t, err)

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrRoutingUnavailable, llmErr.Code)
	assert.True(t, llmErr.Retryable)
	assert.NotContains(t, llmErr.Message, "key=")
	assert.NotContains(t, llmErr.Message, "http")
}

func TestFallbackRouter_NotConfigured(t *testing.T) {
	router := NewFallbackRouter([]Route{
		{Provider: &fakeProvider{name: "gemini"}, Models: []string{"g-lite"}},
	}, RouterOptions{})

	assert.False(t, router.Configured())

	_, err := router.Completion(context.Background(), &ChatRequest{})
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrProviderUnavailable, llmErr.Code)
}

func TestFallbackRouter_MultipleRoundsRetrySameModels(t *testing.T) {
	a := &fakeProvider{
		name:       "gemini",
		configured: true,
		results:    map[string]error{"g-lite": rateLimitErr("gemini")},
	}

	router := NewFallbackRouter([]Route{
		{Provider: a, Models: []string{"g-lite"}},
	}, RouterOptions{Rounds: 2})

	_, err := router.Completion(context.Background(), &ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, []string{"g-lite", "g-lite"}, a.calls)
}

func TestFallbackRouter_OnAttemptCallback(t *testing.T) {
	b := &fakeProvider{name: "claude", configured: true}

	var outcomes []string
	router := NewFallbackRouter([]Route{
		{Provider: b, Models: []string{"c-sonnet"}},
	}, RouterOptions{
		OnAttempt: func(provider, model, outcome string) {
			outcomes = append(outcomes, provider+"/"+model+"/"+outcome)
		},
	})

	_, err := router.Completion(context.Background(), &ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"claude/c-sonnet/success"}, outcomes)
}
