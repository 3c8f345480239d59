package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hirenpurabiya/arxiv-scholar-ai/agent"
	"github.com/hirenpurabiya/arxiv-scholar-ai/api/handlers"
	"github.com/hirenpurabiya/arxiv-scholar-ai/api/middleware"
	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/config"
	"github.com/hirenpurabiya/arxiv-scholar-ai/internal/cache"
	"github.com/hirenpurabiya/arxiv-scholar-ai/internal/metrics"
	"github.com/hirenpurabiya/arxiv-scholar-ai/internal/server"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm/providers"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm/providers/anthropic"
	"github.com/hirenpurabiya/arxiv-scholar-ai/llm/providers/gemini"
	"github.com/hirenpurabiya/arxiv-scholar-ai/scholar"
	"github.com/hirenpurabiya/arxiv-scholar-ai/store"
	"github.com/hirenpurabiya/arxiv-scholar-ai/tools"
)

// =============================================================================
// 🏗️ 服务组装
// =============================================================================

// NewServer 根据配置组装整个服务：Provider 路由、工具、Agent 循环、
// REST 处理器、中间件链和 HTTP 服务器。
func NewServer(cfg *config.Config, logger *zap.Logger) (*server.Manager, error) {
	// 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("scholar", registry, logger)

	// LLM Provider 与路由
	geminiProvider := gemini.New(providers.GeminiConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  cfg.LLM.Gemini.APIKey,
			BaseURL: cfg.LLM.Gemini.BaseURL,
			Timeout: cfg.LLM.Gemini.Timeout,
		},
	}, logger)
	claudeProvider := anthropic.New(providers.ClaudeConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
			Timeout: cfg.LLM.Anthropic.Timeout,
		},
	}, logger)

	router := llm.NewFallbackRouter([]llm.Route{
		{Provider: geminiProvider, Models: cfg.LLM.Gemini.Models},
		{Provider: claudeProvider, Models: cfg.LLM.Anthropic.Models},
	}, llm.RouterOptions{
		Rounds:       cfg.LLM.Rounds,
		RoundBackoff: cfg.LLM.RoundBackoff,
		Logger:       logger,
		OnAttempt: func(provider, model, outcome string) {
			collector.RecordLLMAttempt(provider, model, outcome, 0)
		},
	})

	// 论文源、存储与领域服务
	var arxivOpts []arxiv.Option
	if cfg.ArXiv.BaseURL != "" {
		arxivOpts = append(arxivOpts, arxiv.WithBaseURL(cfg.ArXiv.BaseURL))
	}
	arxivClient := arxiv.NewClient(logger, arxivOpts...)

	metadataStore := store.New(cfg.Store.Dir, logger)
	summaryCache := cache.New(cfg.Store.SummaryCacheTTL)

	finder := scholar.NewFinder(arxivClient, metadataStore, logger)
	summarizer := scholar.NewSummarizer(router, summaryCache, logger).WithMetrics(collector)
	suggester := scholar.NewTopicSuggester(router, logger)
	chatEngine := scholar.NewChatEngine(
		[]llm.Provider{geminiProvider, claudeProvider}, logger)

	// 工具注册与执行器
	toolRegistry := tools.NewRegistry(logger)
	if err := tools.RegisterArxivTools(toolRegistry, tools.Services{
		Finder:     finder,
		Store:      metadataStore,
		Summarizer: summarizer,
		Chat:       chatEngine,
	}, logger); err != nil {
		return nil, err
	}
	executor := tools.NewExecutor(toolRegistry, cfg.Agent.ToolResultLimit, logger).
		WithMetrics(collector)

	// Agent 循环
	loop := agent.NewLoop(router, executor, toolRegistry.Schemas(), agent.Options{
		MaxIterations: cfg.Agent.MaxIterations,
		Logger:        logger,
	})

	// 处理器
	healthHandler := handlers.NewHealthHandler(Version)
	searchHandler := handlers.NewSearchHandler(finder, suggester, logger)
	articleHandler := handlers.NewArticleHandler(metadataStore, logger)
	summaryHandler := handlers.NewSummaryHandler(metadataStore, summarizer, logger)
	chatHandler := handlers.NewChatHandler(metadataStore, chatEngine, logger)
	agentHandler := handlers.NewAgentHandler(loop, collector, logger)

	// 限流器：chat/agent 共用聊天配额，搜索单独配额，其余走通用配额
	chatLimit := middleware.NewRateLimiter(cfg.RateLimit.Chat,
		"You're sending messages too fast! Please wait a minute and try again.", logger)
	searchLimit := middleware.NewRateLimiter(cfg.RateLimit.Search,
		"Too many searches! Please wait a minute and try again.", logger)
	generalLimit := middleware.NewRateLimiter(cfg.RateLimit.General,
		"Too many requests! Please wait a minute and try again.", logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", healthHandler.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.Handle("GET /api/search",
		searchLimit.Middleware(http.HandlerFunc(searchHandler.HandleSearch)))
	mux.Handle("GET /api/article/{id}",
		generalLimit.Middleware(http.HandlerFunc(articleHandler.HandleGetArticle)))
	mux.Handle("GET /api/topics",
		generalLimit.Middleware(http.HandlerFunc(articleHandler.HandleListTopics)))
	mux.Handle("GET /api/topics/{slug}",
		generalLimit.Middleware(http.HandlerFunc(articleHandler.HandleTopicArticles)))
	mux.Handle("GET /api/summarize/{id}",
		generalLimit.Middleware(http.HandlerFunc(summaryHandler.HandleSummarize)))
	mux.Handle("GET /api/eli10/{id}",
		generalLimit.Middleware(http.HandlerFunc(summaryHandler.HandleExplainSimple)))
	mux.Handle("GET /api/summarize-ai/{id}",
		generalLimit.Middleware(http.HandlerFunc(summaryHandler.HandleSummarizeAI)))
	mux.Handle("POST /api/chat",
		chatLimit.Middleware(http.HandlerFunc(chatHandler.HandleChat)))
	mux.Handle("GET /api/agent",
		chatLimit.Middleware(http.HandlerFunc(agentHandler.HandleSSE)))
	mux.Handle("GET /api/agent/ws",
		chatLimit.Middleware(http.HandlerFunc(agentHandler.HandleWS)))

	// 中间件链：RequestID → CORS → 访问日志/指标
	var handler http.Handler = mux
	handler = middleware.Logging(logger, collector)(handler)
	handler = middleware.CORS(cfg.Server.AllowedOrigins)(handler)
	handler = middleware.RequestID(handler)

	return server.NewManager(handler, server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger), nil
}
