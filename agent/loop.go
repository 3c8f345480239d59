package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"github.com/hirenpurabiya/arxiv-scholar-ai/tools"
	"go.uber.org/zap"
)

// DefaultMaxIterations bounds model-then-tools round trips per run.
const DefaultMaxIterations = 10

const defaultSystemPrompt = "You are ArXiv Scholar AI, a research assistant that helps users " +
	"explore academic papers from arXiv. You MUST use the available tools " +
	"to answer every question. Always call search first to find papers. " +
	"Never answer from memory alone: search first, then summarize or explain."

// errNoAPIKey is reported verbatim when no provider has credentials.
const errNoAPIKey = "No AI API key configured."

// Model is the loop's view of the LLM layer, normally a
// *llm.FallbackRouter.
type Model interface {
	Configured() bool
	Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// ToolRunner executes one tool call, normally a *tools.Executor.
type ToolRunner interface {
	Execute(ctx context.Context, name string, args json.RawMessage) tools.Result
}

// Options tune one Loop. Zero values select the defaults.
type Options struct {
	MaxIterations int
	SystemPrompt  string
	Logger        *zap.Logger
}

// Loop drives one query to an answer. The loop itself is stateless across
// runs; each Run owns its conversation exclusively, so one Loop may serve
// concurrent runs.
type Loop struct {
	model    Model
	runner   ToolRunner
	schemas  []llm.ToolSchema
	maxIters int
	system   string
	logger   *zap.Logger
}

func NewLoop(model Model, runner ToolRunner, schemas []llm.ToolSchema, opts Options) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Loop{
		model:    model,
		runner:   runner,
		schemas:  schemas,
		maxIters: opts.MaxIterations,
		system:   opts.SystemPrompt,
		logger:   opts.Logger,
	}
}

// Run executes the loop for one user query, emitting steps to sink as they
// happen. The final step is always exactly one done, on every path.
func (l *Loop) Run(ctx context.Context, query string, sink Sink) {
	emit := func(t StepType, content any) { sink.Emit(Step{Type: t, Content: content}) }
	defer emit(StepDone, "")

	if !l.model.Configured() {
		emit(StepError, errNoAPIKey)
		return
	}

	emit(StepThinking, l.thinkingText())

	conversation := []llm.Message{{Role: llm.RoleUser, Content: query}}

	resp, err := l.complete(ctx, conversation)
	if err != nil {
		l.logger.Error("initial model call failed", zap.Error(err))
		emit(StepError, llm.SanitizeError(err.Error()))
		return
	}

	turn := resp.First()
	calls := turn.ToolCalls
	if len(calls) == 0 {
		// Ground the answer in at least one real lookup instead of
		// letting the model answer from memory on its very first turn.
		calls = []llm.ToolCall{forcedSearchCall(query)}
		l.logger.Info("model returned no tool calls, forcing search", zap.String("query", query))
	}

	resultsDelivered := false
	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			l.logger.Info("run cancelled", zap.Int("iteration", iteration))
			return
		}
		if iteration >= l.maxIters {
			emit(StepError, fmt.Sprintf(
				"Stopped after %d tool rounds without a final answer. Try asking a more specific question.",
				l.maxIters))
			return
		}

		conversation = append(conversation, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   turn.Content,
			ToolCalls: calls,
		})

		rateLimited := false
		for _, call := range calls {
			emit(StepToolCall, ToolCallContent{Name: call.Name, Args: call.Arguments})

			result := l.runner.Execute(ctx, call.Name, call.Arguments)
			resultsDelivered = true
			if result.RateLimited {
				rateLimited = true
			}

			emit(StepToolResult, ToolResultContent{Name: result.Name, Result: result.Text})

			conversation = append(conversation, llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Name,
				Content:    result.ModelText(),
				ToolCallID: call.ID,
			})
		}

		if rateLimited {
			// The paper source itself is throttling; another model round
			// would only generate more doomed tool calls.
			emit(StepAnswer, "The paper source is rate-limiting requests right now, so I stopped early. "+
				"The tool results above are what I could gather. Please try again in about a minute.")
			return
		}

		resp, err = l.complete(ctx, conversation)
		if err != nil {
			l.logger.Error("follow-up model call failed",
				zap.Int("iteration", iteration), zap.Error(err))
			if resultsDelivered {
				// The observer already has real data; a bare error would
				// contradict what was streamed.
				emit(StepAnswer, "The AI became unavailable before it could write a final summary, "+
					"but the tool results above already contain what was found. Please try again shortly.")
			} else {
				emit(StepError, llm.SanitizeError(err.Error()))
			}
			return
		}

		turn = resp.First()
		calls = turn.ToolCalls
		if len(calls) == 0 {
			if text := strings.TrimSpace(turn.Content); text != "" {
				emit(StepAnswer, text)
			} else {
				emit(StepError, "No response from AI.")
			}
			return
		}
	}
}

func (l *Loop) complete(ctx context.Context, conversation []llm.Message) (*llm.ChatResponse, error) {
	return l.model.Completion(ctx, &llm.ChatRequest{
		SystemPrompt: l.system,
		Messages:     conversation,
		Tools:        l.schemas,
	})
}

func (l *Loop) thinkingText() string {
	names := make([]string, 0, len(l.schemas))
	for _, s := range l.schemas {
		names = append(names, s.Name)
	}
	return fmt.Sprintf("Using %d tools: %s. Understanding your query...",
		len(names), strings.Join(names, ", "))
}

func forcedSearchCall(query string) llm.ToolCall {
	args, _ := json.Marshal(map[string]string{"topic": query})
	return llm.ToolCall{
		ID:        "forced-" + uuid.NewString(),
		Name:      "search",
		Arguments: args,
	}
}
