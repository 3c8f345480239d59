package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// DefaultResultLimit caps the characters of a tool result that flow back
	// into the model conversation. The full text still reaches the UI.
	DefaultResultLimit = 3000

	truncationMarker = "\n...[truncated]"
)

// sentinel phrases a tool embeds in its result to tell the agent loop the
// backing service refused the call and retrying is pointless
var rateLimitSentinels = []string{"rate-limiting", "do not retry"}

// Result is the outcome of one tool execution. Execution never fails at the
// Go level: unknown tools and handler errors are folded into Text so the
// model always receives something to react to.
type Result struct {
	Name        string
	Text        string // full, untruncated result
	Truncated   bool
	RateLimited bool

	limit int
}

// ModelText returns the result text bounded for conversation use. Full text
// within the limit passes through unchanged. The cut never splits a
// multi-byte rune; the cap backs up to the nearest rune boundary.
func (r Result) ModelText() string {
	if !r.Truncated {
		return r.Text
	}
	limit := r.limit
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(r.Text[cut]) {
		cut--
	}
	return r.Text[:cut] + truncationMarker
}

// ExecutionRecorder receives one observation per tool call.
// *metrics.Collector satisfies it.
type ExecutionRecorder interface {
	RecordToolExecution(tool, status string, duration time.Duration)
}

// Executor dispatches tool calls against a registry and normalizes every
// outcome into a Result.
type Executor struct {
	registry *Registry
	limit    int
	recorder ExecutionRecorder
	logger   *zap.Logger
}

// NewExecutor creates an executor. limit <= 0 selects DefaultResultLimit.
func NewExecutor(registry *Registry, limit int, logger *zap.Logger) *Executor {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, limit: limit, logger: logger}
}

// WithMetrics attaches an execution recorder. Returns the executor for
// chaining during wiring.
func (e *Executor) WithMetrics(rec ExecutionRecorder) *Executor {
	e.recorder = rec
	return e
}

// Limit returns the conversation character cap in effect.
func (e *Executor) Limit() int { return e.limit }

// Execute runs one named tool call. rawArgs is the model-supplied JSON
// argument object; malformed JSON is treated as empty arguments.
func (e *Executor) Execute(ctx context.Context, name string, rawArgs json.RawMessage) Result {
	start := time.Now()

	handler, ok := e.registry.Get(name)
	if !ok {
		e.logger.Warn("unknown tool requested", zap.String("tool", name))
		e.record(name, "unknown_tool", start)
		return e.finish(Result{
			Name: name,
			Text: fmt.Sprintf("Unknown tool: %s. Available tools: %s.",
				name, strings.Join(e.registry.Names(), ", ")),
		})
	}

	args := map[string]any{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			e.logger.Warn("tool arguments are not valid JSON, ignoring",
				zap.String("tool", name), zap.Error(err))
			args = map[string]any{}
		}
	}

	text, err := handler(ctx, args)
	if err != nil {
		e.logger.Error("tool execution failed",
			zap.String("tool", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		e.record(name, "error", start)
		return e.finish(Result{
			Name: name,
			Text: fmt.Sprintf("Error executing %s: %v", name, err),
		})
	}

	e.logger.Debug("tool executed",
		zap.String("tool", name),
		zap.Int("result_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	result := e.finish(Result{Name: name, Text: text})
	status := "success"
	if result.RateLimited {
		status = "rate_limited"
	}
	e.record(name, status, start)
	return result
}

func (e *Executor) record(tool, status string, start time.Time) {
	if e.recorder != nil {
		e.recorder.RecordToolExecution(tool, status, time.Since(start))
	}
}

func (e *Executor) finish(r Result) Result {
	r.limit = e.limit
	r.Truncated = len(r.Text) > e.limit
	lower := strings.ToLower(r.Text)
	for _, s := range rateLimitSentinels {
		if strings.Contains(lower, s) {
			r.RateLimited = true
			break
		}
	}
	return r
}
