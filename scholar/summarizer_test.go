package scholar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/internal/cache"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCompleter struct {
	text  string
	err   error
	calls int
}

func (s *stubCompleter) Completion(context.Context, *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Choices: []llm.ChatChoice{{
		Message: llm.Message{Role: llm.RoleAssistant, Content: s.text},
	}}}, nil
}

const longAbstract = `Training large language models is expensive. ` +
	`Existing approaches struggle with memory limits. ` +
	`Prior work only considered small models. ` +
	`Datasets keep growing every year. ` +
	`Hardware budgets stay flat. ` +
	`We propose a new gradient compression scheme. ` +
	`Our method achieves state-of-the-art throughput on commodity GPUs.`

func TestSummarizer_EmptyAbstract(t *testing.T) {
	s := NewSummarizer(nil, nil, zap.NewNop())
	out := s.Summarize(context.Background(), arxiv.Article{ID: "1.1", Summary: "   "})
	assert.Equal(t, "No abstract available for this article.", out)
}

func TestSummarizer_ModelBacked(t *testing.T) {
	caller := &stubCompleter{text: "A clear summary."}
	s := NewSummarizer(caller, nil, zap.NewNop())

	out := s.Summarize(context.Background(), arxiv.Article{ID: "1.1", Title: "T", Summary: longAbstract})
	assert.Equal(t, "A clear summary.", out)
}

func TestSummarizer_FallsBackToExtractionOnError(t *testing.T) {
	caller := &stubCompleter{err: errors.New("all provider/model combinations failed")}
	s := NewSummarizer(caller, nil, zap.NewNop())

	out := s.Summarize(context.Background(), arxiv.Article{ID: "1.1", Summary: longAbstract})
	require.NotEmpty(t, out)
	// 抽取式退路必须包含贡献句
	assert.Contains(t, out, "We propose a new gradient compression scheme.")
}

func TestSummarizer_CacheHitSkipsModel(t *testing.T) {
	caller := &stubCompleter{text: "Cached summary."}
	s := NewSummarizer(caller, cache.New(time.Minute), zap.NewNop())
	a := arxiv.Article{ID: "1.1", Summary: longAbstract}

	first := s.Summarize(context.Background(), a)
	second := s.Summarize(context.Background(), a)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, caller.calls)
}

type fakeCacheRecorder struct {
	hits   int
	misses int
}

func (f *fakeCacheRecorder) RecordCacheHit(string)  { f.hits++ }
func (f *fakeCacheRecorder) RecordCacheMiss(string) { f.misses++ }

func TestSummarizer_RecordsCacheMetrics(t *testing.T) {
	rec := &fakeCacheRecorder{}
	s := NewSummarizer(&stubCompleter{text: "Summary."}, cache.New(time.Minute), zap.NewNop()).
		WithMetrics(rec)
	a := arxiv.Article{ID: "1.1", Summary: longAbstract}

	s.Summarize(context.Background(), a)
	s.Summarize(context.Background(), a)

	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, 1, rec.hits)
}

func TestExtractKeySentences_ShortAbstractUnchanged(t *testing.T) {
	out := ExtractKeySentences("One sentence. Two sentences.", 5)
	assert.Equal(t, "One sentence. Two sentences.", out)
}

func TestExtractKeySentences_PrefersContributionSentences(t *testing.T) {
	out := ExtractKeySentences(longAbstract, 3)

	// 首句、贡献句和末句得分最高，且保持原文顺序
	sentences := []string{
		"Training large language models is expensive.",
		"We propose a new gradient compression scheme.",
		"Our method achieves state-of-the-art throughput on commodity GPUs.",
	}
	assert.Equal(t, strings.Join(sentences, " "), out)
}

func TestSplitSentences(t *testing.T) {
	// 分隔符连同标点一起被吃掉，补回句号
	got := splitSentences("First here. Second there! Third where? Fourth")
	assert.Equal(t, []string{
		"First here.", "Second there.", "Third where.", "Fourth.",
	}, got)

	assert.Empty(t, splitSentences("   "))
}
