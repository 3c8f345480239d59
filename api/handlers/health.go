package handlers

import (
	"net/http"
	"time"
)

// =============================================================================
// 🏥 健康检查 Handler
// =============================================================================

// HealthStatus 健康状态响应
type HealthStatus struct {
	Status    string    `json:"status"`
	App       string    `json:"app"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// HandleHealth 处理 GET / 请求
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthStatus{
		Status:    "ok",
		App:       "ArXiv Scholar AI",
		Version:   h.version,
		Timestamp: time.Now(),
	})
}
