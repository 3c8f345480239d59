package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/hirenpurabiya/arxiv-scholar-ai/agent"
	"github.com/hirenpurabiya/arxiv-scholar-ai/api/security"
	"github.com/hirenpurabiya/arxiv-scholar-ai/internal/metrics"
	"go.uber.org/zap"
)

// =============================================================================
// 🤖 Agent 流式 Handler（SSE + WebSocket）
// =============================================================================

// AgentRunner 启动一次 agent 运行，步骤按因果序推给 sink
type AgentRunner interface {
	Run(ctx context.Context, query string, sink agent.Sink)
}

// AgentHandler 将一次 agent 运行以步骤流的形式推送给客户端
type AgentHandler struct {
	loop      AgentRunner
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewAgentHandler 创建 agent 流处理器。collector 可为 nil。
func NewAgentHandler(loop AgentRunner, collector *metrics.Collector, logger *zap.Logger) *AgentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentHandler{loop: loop, collector: collector, logger: logger}
}

// HandleSSE 处理 GET /api/agent?query=...
// 每个步骤作为一条 SSE data 帧推送，最后一帧固定是 done。
func (h *AgentHandler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if err := security.ValidateChatInput(query, 0); err != nil {
		Fail(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	if security.CheckPromptInjection(query) {
		Fail(w, http.StatusBadRequest,
			"Your query looks like an attempt to change my instructions. Please ask a research question instead.", h.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		Fail(w, http.StatusInternalServerError, "Streaming unsupported.", h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.run(r, security.SanitizeMessage(query), agent.SinkFunc(func(step agent.Step) {
		payload, err := json.Marshal(step)
		if err != nil {
			h.logger.Error("failed to marshal step", zap.Error(err))
			return
		}
		w.Write([]byte("data: "))
		w.Write(payload)
		w.Write([]byte("\n\n"))
		flusher.Flush()
	}))
}

// wsQuery WebSocket 客户端的首条消息
type wsQuery struct {
	Query string `json:"query"`
}

// HandleWS 处理 GET /api/agent/ws
// 客户端连上后发送 {"query": "..."}，服务端把每个步骤作为一条
// JSON 文本帧推送，done 之后正常关闭连接。
func (h *AgentHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected shutdown")

	ctx := r.Context()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var q wsQuery
	if err := wsjson.Read(readCtx, conn, &q); err != nil {
		conn.Close(websocket.StatusPolicyViolation, "expected a JSON query message")
		return
	}
	if err := security.ValidateChatInput(q.Query, 0); err != nil {
		_ = wsjson.Write(ctx, conn, agent.Step{Type: agent.StepError, Content: err.Error()})
		_ = wsjson.Write(ctx, conn, agent.Step{Type: agent.StepDone, Content: ""})
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	if security.CheckPromptInjection(q.Query) {
		_ = wsjson.Write(ctx, conn, agent.Step{
			Type:    agent.StepError,
			Content: "Your query looks like an attempt to change my instructions. Please ask a research question instead.",
		})
		_ = wsjson.Write(ctx, conn, agent.Step{Type: agent.StepDone, Content: ""})
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	h.run(r, security.SanitizeMessage(q.Query), agent.SinkFunc(func(step agent.Step) {
		if err := wsjson.Write(ctx, conn, step); err != nil {
			h.logger.Debug("websocket write failed, client likely gone", zap.Error(err))
		}
	}))

	conn.Close(websocket.StatusNormalClosure, "")
}

// run 执行 loop 并统计运行结果指标
func (h *AgentHandler) run(r *http.Request, query string, sink agent.Sink) {
	start := time.Now()
	outcome := "cancelled"
	iterations := 0

	observed := agent.SinkFunc(func(step agent.Step) {
		switch step.Type {
		case agent.StepToolCall:
			iterations++
		case agent.StepAnswer:
			outcome = "answered"
		case agent.StepError:
			outcome = "error"
		}
		sink.Emit(step)
	})

	h.logger.Info("agent run started",
		zap.String("query", query),
		zap.String("ip", r.RemoteAddr))

	h.loop.Run(r.Context(), query, observed)

	h.logger.Info("agent run finished",
		zap.String("outcome", outcome),
		zap.Int("tool_calls", iterations),
		zap.Duration("elapsed", time.Since(start)))
	if h.collector != nil {
		h.collector.RecordAgentRun(outcome, iterations)
	}
}
