package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/store"
	"go.uber.org/zap"
)

// =============================================================================
// 📚 文章与主题 Handler
// =============================================================================

// TopicsResponse 主题列表响应
type TopicsResponse struct {
	Topics []string `json:"topics"`
}

// TopicArticlesResponse 单个主题下的文章响应
type TopicArticlesResponse struct {
	Topic    string          `json:"topic"`
	Count    int             `json:"count"`
	Articles []arxiv.Article `json:"articles"`
}

// ArticleHandler 已保存文章的读取处理器
type ArticleHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewArticleHandler 创建文章处理器
func NewArticleHandler(st *store.Store, logger *zap.Logger) *ArticleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleHandler{store: st, logger: logger}
}

// HandleGetArticle 处理 GET /api/article/{id}
func (h *ArticleHandler) HandleGetArticle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	article, ok := h.store.Get(id)
	if !ok {
		Fail(w, http.StatusNotFound,
			fmt.Sprintf("Article '%s' not found. Try searching for it first.", id), h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

// HandleListTopics 处理 GET /api/topics
func (h *ArticleHandler) HandleListTopics(w http.ResponseWriter, r *http.Request) {
	topics := h.store.ListTopics()
	if topics == nil {
		topics = []string{}
	}
	WriteJSON(w, http.StatusOK, TopicsResponse{Topics: topics})
}

// HandleTopicArticles 处理 GET /api/topics/{slug}
func (h *ArticleHandler) HandleTopicArticles(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	byID := h.store.ByTopic(slug)
	if len(byID) == 0 {
		Fail(w, http.StatusNotFound,
			fmt.Sprintf("No articles found for topic '%s'.", slug), h.logger)
		return
	}

	articles := make([]arxiv.Article, 0, len(byID))
	for _, a := range byID {
		articles = append(articles, a)
	}
	// map 遍历无序，按 id 排序保证响应稳定
	sort.Slice(articles, func(i, j int) bool { return articles[i].ID < articles[j].ID })

	WriteJSON(w, http.StatusOK, TopicArticlesResponse{
		Topic:    slug,
		Count:    len(articles),
		Articles: articles,
	})
}
