// Copyright 2026 ArXiv Scholar AI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 llm 提供统一的大语言模型接入层：Provider 抽象、错误分类与
按优先级降级的 FallbackRouter。

# 概述

本包屏蔽不同模型服务商在接口、鉴权与错误语义上的差异，对上层业务
暴露一致的请求与响应模型（ChatRequest / ChatResponse / Message）。
工具调用通过 ChatRequest.Tools 传入 Provider 中立的 JSON Schema，
模型在响应中返回 ToolCalls，具体执行由独立的 tools 包负责。

# 核心结构体

  - Provider — 单次请求/响应往返的适配接口；适配器只做协议翻译与
    错误分类，不做内部重试
  - FallbackRouter — 按固定优先级遍历 Provider/模型组合；
    RateLimited/Timeout/Failed 均非致命，直到所有组合耗尽
  - Error — 统一错误码（限流、超时、配额、路由耗尽等），
    路由器的降级分支依赖 Classify 的归类结果
*/
package llm
