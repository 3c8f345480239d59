package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hirenpurabiya/arxiv-scholar-ai/api/security"
	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/scholar"
	"go.uber.org/zap"
)

// =============================================================================
// 🔍 搜索 Handler
// =============================================================================

// SearchResponse 搜索响应。零结果时 Suggestion 给出可检索的替代主题
type SearchResponse struct {
	Topic      string          `json:"topic"`
	Count      int             `json:"count"`
	Articles   []arxiv.Article `json:"articles"`
	Suggestion string          `json:"suggestion,omitempty"`
}

// SearchHandler 论文搜索处理器
type SearchHandler struct {
	finder    *scholar.Finder
	suggester *scholar.TopicSuggester
	logger    *zap.Logger
}

// NewSearchHandler 创建搜索处理器。suggester 可为 nil
func NewSearchHandler(finder *scholar.Finder, suggester *scholar.TopicSuggester, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{finder: finder, suggester: suggester, logger: logger}
}

// HandleSearch 处理 GET /api/search?topic=...&max_results=...
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if err := security.ValidateSearchInput(topic); err != nil {
		Fail(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	maxResults := scholar.DefaultMaxResults
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			Fail(w, http.StatusBadRequest, "max_results must be between 1 and 20.", h.logger)
			return
		}
		maxResults = n
	}

	sortBy := arxiv.ParseSortBy(r.URL.Query().Get("sort_by"))
	dateFrom := r.URL.Query().Get("date_from")
	dateTo := r.URL.Query().Get("date_to")

	articles, err := h.finder.Find(r.Context(), topic, maxResults, sortBy, dateFrom, dateTo)
	if err != nil {
		if errors.Is(err, arxiv.ErrRateLimited) {
			Fail(w, http.StatusTooManyRequests,
				"arXiv is rate-limiting requests. Please try again in a minute.", h.logger)
			return
		}
		h.logger.Error("search failed", zap.String("topic", topic), zap.Error(err))
		Fail(w, http.StatusInternalServerError, "Search failed. Please try again.", h.logger)
		return
	}

	if articles == nil {
		articles = []arxiv.Article{}
	}
	resp := SearchResponse{
		Topic:    topic,
		Count:    len(articles),
		Articles: articles,
	}
	if len(articles) == 0 {
		// 零结果时给出一个更可检索的主题提示，失败则静默省略
		resp.Suggestion = h.suggester.Suggest(r.Context(), topic)
	}
	WriteJSON(w, http.StatusOK, resp)
}
