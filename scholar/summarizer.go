package scholar

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/internal/cache"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"go.uber.org/zap"
)

var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)

// keyPhrases mark sentences that usually carry the contribution of a paper.
var keyPhrases = []string{
	"we propose", "we present", "we introduce", "we develop",
	"we demonstrate", "we show", "our method", "our approach",
	"this paper", "this work", "results show", "experiments show",
	"outperforms", "achieves", "state-of-the-art", "novel",
	"significantly", "improve", "key finding", "main contribution",
}

// CacheRecorder counts summary cache hits and misses.
// *metrics.Collector satisfies it.
type CacheRecorder interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// Summarizer produces paper summaries: model-backed when a provider is
// reachable, extractive from the abstract otherwise. The model path never
// fails the call; any error falls back to extraction.
type Summarizer struct {
	caller  llm.Completer
	cache   *cache.TTLCache
	metrics CacheRecorder
	logger  *zap.Logger
}

// NewSummarizer creates a summarizer. caller may be nil, in which case
// only the extractive path is used.
func NewSummarizer(caller llm.Completer, c *cache.TTLCache, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{caller: caller, cache: c, logger: logger}
}

// WithMetrics attaches a cache recorder. Returns the summarizer for
// chaining during wiring.
func (s *Summarizer) WithMetrics(rec CacheRecorder) *Summarizer {
	s.metrics = rec
	return s
}

// Summarize returns a readable summary of the article.
func (s *Summarizer) Summarize(ctx context.Context, a arxiv.Article) string {
	if strings.TrimSpace(a.Summary) == "" {
		return "No abstract available for this article."
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get("summary:" + a.ID); ok {
			if s.metrics != nil {
				s.metrics.RecordCacheHit("summary")
			}
			return cached
		}
		if s.metrics != nil {
			s.metrics.RecordCacheMiss("summary")
		}
	}

	if out := s.modelSummary(ctx, a); out != "" {
		if s.cache != nil {
			s.cache.Set("summary:"+a.ID, out)
		}
		return out
	}

	return ExtractKeySentences(a.Summary, 5)
}

func (s *Summarizer) modelSummary(ctx context.Context, a arxiv.Article) string {
	if s.caller == nil {
		return ""
	}

	prompt := fmt.Sprintf(`Summarize this research paper in 5-8 sentences that a smart non-expert can understand.
Focus on: what problem it solves, the approach/method, key results, and why it matters.
Keep it simple and clear. No jargon.

Title: %s

Abstract:
%s

Summary:`, a.Title, a.Summary)

	resp, err := s.caller.Completion(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		s.logger.Warn("model summary failed, falling back to extraction",
			zap.String("article_id", a.ID), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(resp.First().Content)
}

// ExtractKeySentences picks the most important sentences from an abstract.
// The first sentence, the last sentence, and sentences containing key
// contribution phrases are prioritized; the selection keeps original order.
func ExtractKeySentences(abstract string, maxSentences int) string {
	sentences := splitSentences(abstract)
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " ")
	}

	type scored struct {
		score int
		idx   int
	}
	ranked := make([]scored, 0, len(sentences))
	for i, sentence := range sentences {
		score := 0
		lower := strings.ToLower(sentence)
		if i == 0 {
			score += 3
		}
		if i == len(sentences)-1 {
			score += 2
		}
		for _, phrase := range keyPhrases {
			if strings.Contains(lower, phrase) {
				score++
			}
		}
		ranked = append(ranked, scored{score: score, idx: i})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	top := ranked[:maxSentences]
	sort.Slice(top, func(i, j int) bool { return top[i].idx < top[j].idx })

	out := make([]string, 0, maxSentences)
	for _, s := range top {
		out = append(out, sentences[s.idx])
	}
	return strings.Join(out, " ")
}

func splitSentences(text string) []string {
	raw := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
			s += "."
		}
		out = append(out, s)
	}
	return out
}
