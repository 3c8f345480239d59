package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/scholar"
	"github.com/hirenpurabiya/arxiv-scholar-ai/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const oneEntryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<entry>
  <id>http://arxiv.org/abs/2401.12345v1</id>
  <title>Sleep and Memory</title>
  <summary>Sleep struggles are a hard problem. We propose a fix. Results show it works.</summary>
  <published>2024-01-15T12:00:00Z</published>
  <author><name>Ada Lovelace</name></author>
  <link href="http://arxiv.org/pdf/2401.12345v1" rel="related" title="pdf"/>
</entry>
</feed>`

func newToolRegistry(t *testing.T, upstream http.HandlerFunc) (*Registry, *store.Store) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client := arxiv.NewClient(zap.NewNop(), arxiv.WithBaseURL(srv.URL))
	st := store.New(t.TempDir(), zap.NewNop())

	r := NewRegistry(zap.NewNop())
	require.NoError(t, RegisterArxivTools(r, Services{
		Finder:     scholar.NewFinder(client, st, zap.NewNop()),
		Store:      st,
		Summarizer: scholar.NewSummarizer(nil, nil, zap.NewNop()),
		Chat:       scholar.NewChatEngine(nil, zap.NewNop()),
	}, zap.NewNop()))
	return r, st
}

func TestRegisterArxivTools_OrderAndNames(t *testing.T) {
	r, _ := newToolRegistry(t, func(w http.ResponseWriter, _ *http.Request) {})
	assert.Equal(t, []string{"search", "get_item", "summarize", "explain_simple", "chat"}, r.Names())
}

func TestSearchTool_ReturnsCompactJSON(t *testing.T) {
	r, st := newToolRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, oneEntryFeed)
	})

	fn, ok := r.Get("search")
	require.True(t, ok)

	out, err := fn(context.Background(), map[string]any{"topic": "sleep and memory"})
	require.NoError(t, err)

	var result struct {
		Count  int `json:"count"`
		Papers []struct {
			ID      string `json:"id"`
			Authors string `json:"authors"`
		} `json:"papers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Papers, 1)
	assert.Equal(t, "2401.12345v1", result.Papers[0].ID)
	assert.Equal(t, "Ada Lovelace", result.Papers[0].Authors)

	// 搜索副作用：结果进入元数据存储
	_, found := st.Get("2401.12345v1")
	assert.True(t, found)
}

func TestSearchTool_RateLimitSentinelText(t *testing.T) {
	r, _ := newToolRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	fn, _ := r.Get("search")
	out, err := fn(context.Background(), map[string]any{"topic": "x"})
	require.NoError(t, err)

	// 哨兵短语要能被执行器识别
	assert.Contains(t, out, "rate-limiting")
	assert.Contains(t, out, "Do NOT retry")
}

func TestSearchTool_NoResultsMessage(t *testing.T) {
	r, _ := newToolRegistry(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	})

	fn, _ := r.Get("search")
	out, err := fn(context.Background(), map[string]any{"topic": "nonexistent topic"})
	require.NoError(t, err)
	assert.Contains(t, out, "No papers found for topic 'nonexistent topic'")
}

func TestSearchTool_MissingTopic(t *testing.T) {
	r, _ := newToolRegistry(t, func(w http.ResponseWriter, _ *http.Request) {})
	fn, _ := r.Get("search")
	_, err := fn(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestGetItemTool(t *testing.T) {
	r, st := newToolRegistry(t, func(w http.ResponseWriter, _ *http.Request) {})
	require.NoError(t, st.SaveAll("t", []arxiv.Article{{ID: "1.1", Title: "T", Summary: "S"}}))

	fn, _ := r.Get("get_item")

	out, err := fn(context.Background(), map[string]any{"paper_id": "1.1"})
	require.NoError(t, err)
	var a arxiv.Article
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "T", a.Title)

	out, err = fn(context.Background(), map[string]any{"paper_id": "nope"})
	require.NoError(t, err)
	assert.Contains(t, out, "Paper nope not found. Search for it first.")
}

func TestExplainTool(t *testing.T) {
	r, st := newToolRegistry(t, func(w http.ResponseWriter, _ *http.Request) {})
	require.NoError(t, st.SaveAll("t", []arxiv.Article{{
		ID:      "1.1",
		Summary: "Robots struggle to grasp. We propose a gripper. It achieves great results.",
	}}))

	fn, _ := r.Get("explain_simple")
	out, err := fn(context.Background(), map[string]any{"paper_id": "1.1"})
	require.NoError(t, err)
	assert.Contains(t, out, "The Problem:")
	assert.Contains(t, out, "What They Built:")
}

func TestSummarizeTool_UnknownPaper(t *testing.T) {
	r, _ := newToolRegistry(t, func(w http.ResponseWriter, _ *http.Request) {})
	fn, _ := r.Get("summarize")
	out, err := fn(context.Background(), map[string]any{"paper_id": "nope"})
	require.NoError(t, err)
	assert.Equal(t, "Paper nope not found. Search for it first.", out)
}
