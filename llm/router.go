package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Route 一个 Provider 及按优先级排列的模型变体。
// 路由器在一轮内对每个模型只尝试一次。
type Route struct {
	Provider Provider
	Models   []string
}

// RouterOptions 路由器配置。
// Rounds/RoundBackoff 属于配置而非契约：默认单轮快速失败，
// 因为同一上游配额窗口不太可能在几秒内恢复。
type RouterOptions struct {
	Rounds       int           // 完整遍历所有组合的轮数，默认 1
	RoundBackoff time.Duration // 轮与轮之间的等待，默认 0
	Logger       *zap.Logger

	// OnAttempt 每次 Provider 调用结束后的回调（用于指标埋点），可为 nil。
	OnAttempt func(provider, model, outcome string)
}

func normalizeRouterOptions(opts RouterOptions) RouterOptions {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Rounds <= 0 {
		opts.Rounds = 1
	}
	return opts
}

// FallbackRouter 按固定优先级尝试 Provider/模型组合的路由器。
// RateLimited/Timeout/Failed 一律落到下一个组合；只有所有组合
// 在所有轮次内均失败时才向调用方返回聚合错误。
// 无论哪个 Provider 应答，返回的都是统一的 ChatResponse。
type FallbackRouter struct {
	routes []Route
	opts   RouterOptions
	logger *zap.Logger
}

func NewFallbackRouter(routes []Route, opts RouterOptions) *FallbackRouter {
	opts = normalizeRouterOptions(opts)
	return &FallbackRouter{
		routes: routes,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Configured 返回是否存在至少一个已配置凭据的 Provider。
// 为 false 时调用方应在进入 Agent 循环之前直接报告未配置错误。
func (r *FallbackRouter) Configured() bool {
	for _, route := range r.routes {
		if route.Provider.Configured() {
			return true
		}
	}
	return false
}

// Completion 实现 Completer。
func (r *FallbackRouter) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if !r.Configured() {
		return nil, &Error{
			Code:    ErrProviderUnavailable,
			Message: "no provider credentials configured",
		}
	}

	var attempts []string

	for round := 0; round < r.opts.Rounds; round++ {
		if round > 0 && r.opts.RoundBackoff > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.opts.RoundBackoff):
			}
		}

		for _, route := range r.routes {
			if !route.Provider.Configured() {
				continue
			}
			for _, model := range route.Models {
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				attempt := *req
				attempt.Model = model
				resp, err := route.Provider.Completion(ctx, &attempt)
				if err == nil {
					r.record(route.Provider.Name(), model, "success")
					return resp, nil
				}

				code := Classify(err)
				r.record(route.Provider.Name(), model, string(code))
				attempts = append(attempts, fmt.Sprintf("%s/%s: %s", route.Provider.Name(), model, code))

				switch code {
				case ErrRateLimited:
					r.logger.Warn("provider rate limited, trying next model",
						zap.String("provider", route.Provider.Name()),
						zap.String("model", model))
				case ErrUpstreamTimeout:
					r.logger.Warn("provider timed out, trying next model",
						zap.String("provider", route.Provider.Name()),
						zap.String("model", model))
				default:
					// 非限流/超时错误同样非致命，记录后继续降级
					r.logger.Warn("provider call failed, trying next model",
						zap.String("provider", route.Provider.Name()),
						zap.String("model", model),
						zap.Error(err))
				}
			}
		}
	}

	return nil, &Error{
		Code:      ErrRoutingUnavailable,
		Message:   SanitizeError(fmt.Sprintf("all provider/model combinations failed: %s", strings.Join(attempts, "; "))),
		Retryable: true,
	}
}

func (r *FallbackRouter) record(provider, model, outcome string) {
	if r.opts.OnAttempt != nil {
		r.opts.OnAttempt(provider, model, outcome)
	}
}
