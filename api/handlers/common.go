// Package handlers implements the REST surface: search, article lookup,
// summaries, per-paper chat and the streaming agent endpoint.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// =============================================================================
// 📦 通用响应辅助
// =============================================================================

// detailResponse 错误响应体，保持 {"detail": "..."} 形状
// 以便前端对所有错误走同一条展示路径。
type detailResponse struct {
	Detail string `json:"detail"`
}

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail 写入错误响应并记录日志
func Fail(w http.ResponseWriter, status int, detail string, logger *zap.Logger) {
	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("API error", zap.Int("status", status), zap.String("detail", detail))
	}
	WriteJSON(w, status, detailResponse{Detail: detail})
}

// DecodeJSONBody 解码 JSON 请求体，失败时已写入 400 响应
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	if r.Body == nil {
		Fail(w, http.StatusBadRequest, "Request body is empty.", logger)
		return false
	}
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		Fail(w, http.StatusBadRequest, "Invalid JSON body.", logger)
		return false
	}
	return true
}
