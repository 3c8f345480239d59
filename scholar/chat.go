package scholar

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"go.uber.org/zap"
)

const chatSystemPrompt = `You are a friendly teacher who explains research papers to a 10-year-old kid.

Rules:
- Use simple words. No jargon. If you must use a big word, explain it right away.
- Use examples from everyday life (school, games, cooking, sports, animals).
- Keep answers short -- 2-4 sentences max, unless the user asks for more detail.
- Use analogies. For example: "A neural network is like a brain made of math."
- If the user asks a follow-up, answer it simply using the paper as context.
- Be encouraging and fun. Use phrases like "Great question!" or "Here's the cool part..."
- Never make things up. If the paper doesn't cover something, say so.

Here is the paper you are explaining:

Title: %s
Authors: %s
Published: %s

Abstract:
%s
`

// ChatMessage is one prior turn of the per-paper conversation, owned by the
// caller (the core keeps no session state).
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatReply is the engine's answer plus which provider produced it.
// Provider is "none" when every option failed; Suggestion then carries a
// user-friendly hint instead of raw provider errors.
type ChatReply struct {
	Response   string `json:"response"`
	Provider   string `json:"provider"`
	ErrorType  string `json:"error_type,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// failure kinds shown to users as suggestions, never as raw errors
const (
	failRateLimited   = "rate_limited"
	failNotConfigured = "not_configured"
	failQuota         = "credits_exhausted"
	failUnknown       = "unknown"
)

var providerSuggestions = map[string]map[string]string{
	"gemini": {
		failQuota:         "Gemini is temporarily unavailable. Try Claude instead!",
		failRateLimited:   "Gemini is busy right now. Wait a moment or try Claude.",
		failNotConfigured: "Gemini is not available. Try Claude instead.",
		failUnknown:       "Gemini had an error. Try Claude instead.",
	},
	"claude": {
		failQuota:         "Claude is temporarily unavailable. Try Gemini instead!",
		failRateLimited:   "Claude is busy right now. Wait a moment or try Gemini.",
		failNotConfigured: "Claude is not available. Try Gemini instead.",
		failUnknown:       "Claude had an error. Try Gemini instead.",
	},
}

// ChatEngine answers questions about a specific paper in kid-friendly
// language. Providers form a closed ordered set; the caller may pick a
// preferred one by name.
type ChatEngine struct {
	providers []llm.Provider
	logger    *zap.Logger
}

func NewChatEngine(providers []llm.Provider, logger *zap.Logger) *ChatEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatEngine{providers: providers, logger: logger}
}

// Chat sends one message about a paper to the preferred provider.
// A failed provider is reported through a friendly suggestion, never as a
// raw error string (which could carry endpoint URLs or key material).
func (e *ChatEngine) Chat(ctx context.Context, article arxiv.Article, message string, history []ChatMessage, preferred string) ChatReply {
	provider := e.pick(preferred)
	if provider == nil {
		return ChatReply{
			Response:   fmt.Sprintf("Unknown provider: %s. Use 'gemini' or 'claude'.", preferred),
			Provider:   "none",
			ErrorType:  failUnknown,
			Suggestion: "Try selecting Gemini or Claude.",
		}
	}

	if !provider.Configured() {
		return e.failure(provider.Name(), failNotConfigured)
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		role := llm.RoleUser
		if h.Role == "assistant" {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: h.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	resp, err := provider.Completion(ctx, &llm.ChatRequest{
		SystemPrompt: buildSystemPrompt(article),
		Messages:     messages,
		MaxTokens:    300,
		Temperature:  0.7,
	})
	if err != nil {
		e.logger.Error("chat provider failed",
			zap.String("provider", provider.Name()),
			zap.Error(err))
		return e.failure(provider.Name(), classifyChatError(err))
	}

	return ChatReply{Response: strings.TrimSpace(resp.First().Content), Provider: provider.Name()}
}

func (e *ChatEngine) pick(preferred string) llm.Provider {
	if preferred == "" && len(e.providers) > 0 {
		return e.providers[0]
	}
	for _, p := range e.providers {
		if p.Name() == preferred {
			return p
		}
	}
	return nil
}

func (e *ChatEngine) failure(provider, errorType string) ChatReply {
	suggestion := "Try a different AI."
	if byType, ok := providerSuggestions[provider]; ok {
		if s, ok := byType[errorType]; ok {
			suggestion = s
		}
	}
	return ChatReply{
		Response:   suggestion,
		Provider:   "none",
		ErrorType:  errorType,
		Suggestion: suggestion,
	}
}

func classifyChatError(err error) string {
	switch llm.Classify(err) {
	case llm.ErrRateLimited, llm.ErrUpstreamTimeout:
		return failRateLimited
	case llm.ErrQuotaExceeded:
		return failQuota
	case llm.ErrProviderUnavailable, llm.ErrUnauthorized:
		return failNotConfigured
	default:
		return failUnknown
	}
}

func buildSystemPrompt(a arxiv.Article) string {
	title := a.Title
	if title == "" {
		title = "Unknown Title"
	}
	published := a.Published
	if published == "" {
		published = "Unknown date"
	}
	abstract := a.Summary
	if abstract == "" {
		abstract = "No abstract available."
	}
	return fmt.Sprintf(chatSystemPrompt, title, strings.Join(a.Authors, ", "), published, abstract)
}
