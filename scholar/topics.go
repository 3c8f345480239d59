package scholar

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"go.uber.org/zap"
)

var topicSanitize = regexp.MustCompile(`[^\w\s\-]`)

// TopicSuggester infers a short arXiv-friendly topic from an off-topic or
// vague user query (used for "no papers found" hints). Best effort: any
// failure just yields an empty suggestion.
type TopicSuggester struct {
	caller llm.Completer
	logger *zap.Logger
}

func NewTopicSuggester(caller llm.Completer, logger *zap.Logger) *TopicSuggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicSuggester{caller: caller, logger: logger}
}

// Suggest returns a 1-4 word topic phrase, or "" when no suggestion is
// available. Safe on a nil receiver so callers can wire it optionally.
func (t *TopicSuggester) Suggest(ctx context.Context, query string) string {
	if t == nil || t.caller == nil || strings.TrimSpace(query) == "" {
		return ""
	}

	prompt := fmt.Sprintf(
		"You are helping someone search for academic papers on arXiv. "+
			"Given the user's message below, reply with ONLY a short phrase (1-4 words) "+
			"that would be a good search topic for arXiv. Use lowercase. "+
			"Examples: 'protein intake', 'transformer architecture', 'sleep and memory'. "+
			"If the message is too vague or not research-related, reply with a single general word like 'science' or 'health'.\n\n"+
			"User message: %s\n\n"+
			"Reply with only the topic phrase, nothing else:", strings.TrimSpace(query))

	resp, err := t.caller.Completion(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		t.logger.Warn("topic suggestion failed", zap.Error(err))
		return ""
	}

	text := strings.TrimSpace(resp.First().Content)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(topicSanitize.ReplaceAllString(text, ""))
	if len(text) > 50 {
		text = strings.TrimSpace(text[:50])
	}
	return text
}
