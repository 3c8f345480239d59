package llm

import (
	"context"
	"errors"
	"net"
)

// 统一的 LLM 错误码，用于对齐 HTTP 状态、可重试性与降级策略。
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "LLM_INVALID_REQUEST"      // 参数/格式错误
	ErrUnauthorized        ErrorCode = "LLM_UNAUTHORIZED"         // 未授权或密钥失效
	ErrForbidden           ErrorCode = "LLM_FORBIDDEN"            // 权限或内容策略拒绝
	ErrRateLimited         ErrorCode = "LLM_RATE_LIMITED"         // 上游限流 (429)
	ErrQuotaExceeded       ErrorCode = "LLM_QUOTA_EXCEEDED"       // 额度/配额用尽
	ErrRoutingUnavailable  ErrorCode = "LLM_ROUTING_UNAVAILABLE"  // 所有 Provider/模型组合均失败
	ErrUpstreamTimeout     ErrorCode = "LLM_UPSTREAM_TIMEOUT"     // 上游超时
	ErrUpstreamError       ErrorCode = "LLM_UPSTREAM_ERROR"       // 上游 5xx/网络/协议错误
	ErrProviderUnavailable ErrorCode = "LLM_PROVIDER_UNAVAILABLE" // Provider 未配置或不可用
)

type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Classify 将任意错误归类为统一错误码。
// 路由器的降级策略依赖此分类：RateLimited/Timeout 换下一个模型继续，
// 其余错误同样视为非致命，直到所有组合耗尽。
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrUpstreamTimeout
	}
	return ErrUpstreamError
}

// Completer 是发起一次模型调用的最小能力。
// Provider 与 FallbackRouter 均实现此接口，上层组件据此保持 Provider 无关。
type Completer interface {
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// Provider 定义统一的 LLM 适配接口。
// 适配器只做协议翻译与错误分类，不做内部重试；重试/降级策略完全由
// FallbackRouter 负责（单一职责分离）。
type Provider interface {
	Completer

	// Name 返回 Provider 的唯一标识
	Name() string

	// Configured 返回是否已配置访问凭据
	Configured() bool
}
