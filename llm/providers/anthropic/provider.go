package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm/providers"
	"go.uber.org/zap"
)

const (
	defaultModel   = "claude-3-5-sonnet-20241022"
	defaultVersion = "2023-06-01"
	defaultMaxTok  = 1024
)

// Provider 实现 Anthropic Claude Messages API 的 LLM 适配器。
// Claude API 特点：
// 1. 使用 x-api-key + anthropic-version 请求头认证
// 2. system 提示词是顶层字段而非消息
// 3. 工具调用/结果以 content block（tool_use / tool_result）形式出现
type Provider struct {
	cfg    providers.ClaudeConfig
	client *http.Client
	logger *zap.Logger
}

func New(cfg providers.ClaudeConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *Provider) Name() string { return "claude" }

func (p *Provider) Configured() bool { return strings.TrimSpace(p.cfg.APIKey) != "" }

// Claude Messages API 线上格式
type claudeContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type claudeMessage struct {
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
}

type claudeTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
	Tools     []claudeTool    `json:"tools,omitempty"`
	StopSeqs  []string        `json:"stop_sequences,omitempty"`
	Temp      float32         `json:"temperature,omitempty"`
	TopP      float32         `json:"top_p,omitempty"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type claudeResponse struct {
	ID         string               `json:"id"`
	Model      string               `json:"model"`
	Role       string               `json:"role"`
	Content    []claudeContentBlock `json:"content"`
	StopReason string               `json:"stop_reason,omitempty"`
	Usage      *claudeUsage         `json:"usage,omitempty"`
}

// convertMessages 将统一格式转换为 Claude 格式。
// 相邻的工具结果合并进同一个 user 消息（Claude 要求 tool_result
// 紧跟在包含对应 tool_use 的 assistant 消息之后）。
func convertMessages(msgs []llm.Message) []claudeMessage {
	var out []claudeMessage

	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			// system 由顶层字段承载，跳过
			continue
		case llm.RoleTool:
			block := claudeContentBlock{
				Type:      "tool_result",
				ToolUseID: m.ToolCallID,
				Content:   m.Content,
			}
			if n := len(out); n > 0 && out[n-1].Role == "user" && len(out[n-1].Content) > 0 && out[n-1].Content[0].Type == "tool_result" {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, claudeMessage{Role: "user", Content: []claudeContentBlock{block}})
		case llm.RoleAssistant:
			msg := claudeMessage{Role: "assistant"}
			if m.Content != "" {
				msg.Content = append(msg.Content, claudeContentBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input := tc.Arguments
				if len(input) == 0 {
					input = json.RawMessage(`{}`)
				}
				msg.Content = append(msg.Content, claudeContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			if len(msg.Content) > 0 {
				out = append(out, msg)
			}
		default:
			out = append(out, claudeMessage{
				Role:    "user",
				Content: []claudeContentBlock{{Type: "text", Text: m.Content}},
			})
		}
	}

	return out
}

func convertTools(tools []llm.ToolSchema) []claudeTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]claudeTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, claudeTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return out
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTok
	}

	body := claudeRequest{
		Model:     chooseModel(req, p.cfg.Model),
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages:  convertMessages(req.Messages),
		Tools:     convertTools(req.Tools),
		StopSeqs:  req.Stop,
		Temp:      req.Temperature,
		TopP:      req.TopP,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claude request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", p.cfg.Version)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.MapTransportError(err, p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var claudeResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&claudeResp); err != nil {
		return nil, &llm.Error{
			Code:       llm.ErrUpstreamError,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   p.Name(),
		}
	}

	return toChatResponse(claudeResp, p.Name()), nil
}

// toChatResponse 将 Claude 响应转换为统一的 llm.ChatResponse。
func toChatResponse(resp claudeResponse, provider string) *llm.ChatResponse {
	msg := llm.Message{Role: llm.RoleAssistant}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}

	out := &llm.ChatResponse{
		ID:       resp.ID,
		Provider: provider,
		Model:    resp.Model,
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: resp.StopReason,
			Message:      msg,
		}},
	}
	if resp.Usage != nil {
		out.Usage = llm.ChatUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return out
}

func chooseModel(req *llm.ChatRequest, configured string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	if configured != "" {
		return configured
	}
	return defaultModel
}
