package handlers

import (
	"fmt"
	"net/http"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/scholar"
	"github.com/hirenpurabiya/arxiv-scholar-ai/store"
	"go.uber.org/zap"
)

// =============================================================================
// 📝 摘要 Handler
// =============================================================================

// SummaryResponse 摘要响应
type SummaryResponse struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
	AISummary string `json:"ai_summary"`
}

// SummaryHandler 摘要与简化解释处理器
type SummaryHandler struct {
	store      *store.Store
	summarizer *scholar.Summarizer
	logger     *zap.Logger
}

// NewSummaryHandler 创建摘要处理器
func NewSummaryHandler(st *store.Store, summarizer *scholar.Summarizer, logger *zap.Logger) *SummaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryHandler{store: st, summarizer: summarizer, logger: logger}
}

// HandleSummarize 处理 GET /api/summarize/{id}
// 免费路径：从摘要中抽取关键句，不调用模型。
func (h *SummaryHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	article, ok := h.lookup(w, r)
	if !ok {
		return
	}
	summary := scholar.ExtractKeySentences(article.Summary, 5)
	if summary == "" {
		summary = "No abstract available for this article."
	}
	WriteJSON(w, http.StatusOK, SummaryResponse{
		ArticleID: article.ID,
		Title:     article.Title,
		AISummary: summary,
	})
}

// HandleExplainSimple 处理 GET /api/eli10/{id}
func (h *SummaryHandler) HandleExplainSimple(w http.ResponseWriter, r *http.Request) {
	article, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, SummaryResponse{
		ArticleID: article.ID,
		Title:     article.Title,
		AISummary: scholar.ExplainLikeTen(article.Summary),
	})
}

// HandleSummarizeAI 处理 GET /api/summarize-ai/{id}
// 模型路径：走 LLM 生成摘要，失败时退回抽取式。
func (h *SummaryHandler) HandleSummarizeAI(w http.ResponseWriter, r *http.Request) {
	article, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, SummaryResponse{
		ArticleID: article.ID,
		Title:     article.Title,
		AISummary: h.summarizer.Summarize(r.Context(), article),
	})
}

func (h *SummaryHandler) lookup(w http.ResponseWriter, r *http.Request) (arxiv.Article, bool) {
	id := r.PathValue("id")
	article, ok := h.store.Get(id)
	if !ok {
		Fail(w, http.StatusNotFound,
			fmt.Sprintf("Article '%s' not found. Try searching for it first.", id), h.logger)
		return arxiv.Article{}, false
	}
	return article, true
}
