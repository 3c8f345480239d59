// Copyright 2026 ArXiv Scholar AI Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 providers 提供各 Provider 适配器共享的配置结构与错误映射工具。

  - BaseProviderConfig — APIKey/BaseURL/Model/Timeout 四个公共字段
  - MapHTTPError — HTTP 状态码到 llm.Error 的统一映射（429 → RateLimited）
  - MapTransportError — 网络层错误映射，区分超时与其他传输失败
  - ReadErrorMessage — 解析上游错误响应体
*/
package providers
