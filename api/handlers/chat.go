package handlers

import (
	"fmt"
	"net/http"

	"github.com/hirenpurabiya/arxiv-scholar-ai/api/security"
	"github.com/hirenpurabiya/arxiv-scholar-ai/scholar"
	"github.com/hirenpurabiya/arxiv-scholar-ai/store"
	"go.uber.org/zap"
)

// =============================================================================
// 💬 聊天 Handler
// =============================================================================

// ChatRequest 聊天请求体
type ChatRequest struct {
	ArticleID string                `json:"article_id"`
	Message   string                `json:"message"`
	History   []scholar.ChatMessage `json:"history"`
	Provider  string                `json:"provider"`
}

// ChatHandler 论文聊天处理器
type ChatHandler struct {
	store  *store.Store
	engine *scholar.ChatEngine
	logger *zap.Logger
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(st *store.Store, engine *scholar.ChatEngine, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{store: st, engine: engine, logger: logger}
}

// HandleChat 处理 POST /api/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !DecodeJSONBody(w, r, &req, h.logger) {
		return
	}

	if err := security.ValidateChatInput(req.Message, len(req.History)); err != nil {
		Fail(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	if security.CheckPromptInjection(req.Message) {
		h.logger.Warn("prompt injection attempt blocked",
			zap.String("article_id", req.ArticleID))
		Fail(w, http.StatusBadRequest,
			"Your message looks like an attempt to change my instructions. Please ask about the paper instead.", h.logger)
		return
	}

	article, ok := h.store.Get(req.ArticleID)
	if !ok {
		Fail(w, http.StatusNotFound,
			fmt.Sprintf("Article '%s' not found. Try searching for it first.", req.ArticleID), h.logger)
		return
	}

	message := security.SanitizeMessage(req.Message)
	reply := h.engine.Chat(r.Context(), article, message, req.History, req.Provider)
	WriteJSON(w, http.StatusOK, reply)
}
