// =============================================================================
// 📦 ArXiv Scholar AI 配置
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"time"
)

// Config 是应用的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server"`

	// LLM 大语言模型配置
	LLM LLMConfig `yaml:"llm"`

	// Agent 代理循环配置
	Agent AgentConfig `yaml:"agent"`

	// Store 元数据存储配置
	Store StoreConfig `yaml:"store"`

	// ArXiv 论文源配置
	ArXiv ArXivConfig `yaml:"arxiv"`

	// RateLimit 限流配置
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Log 日志配置
	Log LogConfig `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// 监听地址
	Addr string `yaml:"addr"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// 写入超时（要容纳整个 agent 流式响应）
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// 空闲超时
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// 允许的 CORS 来源，空表示全部允许
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ProviderConfig 单个 LLM 提供商配置
type ProviderConfig struct {
	// API Key
	APIKey string `yaml:"api_key"`
	// 基础 URL（可选，默认官方端点）
	BaseURL string `yaml:"base_url"`
	// 模型列表，按优先级排序
	Models []string `yaml:"models"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// Gemini 配置
	Gemini ProviderConfig `yaml:"gemini"`
	// Claude 配置
	Anthropic ProviderConfig `yaml:"anthropic"`
	// 每轮失败后重试轮数
	Rounds int `yaml:"rounds"`
	// 轮间退避
	RoundBackoff time.Duration `yaml:"round_backoff"`
}

// AgentConfig 代理循环配置
type AgentConfig struct {
	// 最大工具调用轮数
	MaxIterations int `yaml:"max_iterations"`
	// 进入模型对话的工具结果字符上限
	ToolResultLimit int `yaml:"tool_result_limit"`
}

// StoreConfig 元数据存储配置
type StoreConfig struct {
	// 数据目录
	Dir string `yaml:"dir"`
	// 摘要缓存 TTL
	SummaryCacheTTL time.Duration `yaml:"summary_cache_ttl"`
}

// ArXivConfig 论文源配置
type ArXivConfig struct {
	// API 基础 URL
	BaseURL string `yaml:"base_url"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimitConfig 每个客户端 IP 的限流配置（次/分钟）
type RateLimitConfig struct {
	Chat    int `yaml:"chat"`
	Search  int `yaml:"search"`
	General int `yaml:"general"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level"`
	// 输出格式: json, console
	Format string `yaml:"format"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		LLM: LLMConfig{
			Gemini: ProviderConfig{
				Models: []string{
					"gemini-2.0-flash-lite",
					"gemini-2.0-flash",
					"gemini-1.5-flash",
				},
				Timeout: 30 * time.Second,
			},
			Anthropic: ProviderConfig{
				Models:  []string{"claude-3-5-sonnet-20241022"},
				Timeout: 30 * time.Second,
			},
			Rounds: 1,
		},
		Agent: AgentConfig{
			MaxIterations:   10,
			ToolResultLimit: 3000,
		},
		Store: StoreConfig{
			Dir:             "research_data",
			SummaryCacheTTL: time.Hour,
		},
		ArXiv: ArXivConfig{
			Timeout: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Chat:    10,
			Search:  15,
			General: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
