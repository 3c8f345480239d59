package middleware

import (
	"net/http"
	"time"

	"github.com/hirenpurabiya/arxiv-scholar-ai/internal/metrics"
	"go.uber.org/zap"
)

// statusRecorder 包装 ResponseWriter 以捕获状态码
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.written {
		rec.status = code
		rec.written = true
		rec.ResponseWriter.WriteHeader(code)
	}
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if !rec.written {
		rec.WriteHeader(http.StatusOK)
	}
	return rec.ResponseWriter.Write(b)
}

// Flush 透传给底层 writer，流式响应（SSE）依赖它
func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Logging 记录每个请求的访问日志并上报指标。collector 可为 nil。
func Logging(logger *zap.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", elapsed),
				zap.String("ip", ClientIP(r)),
				zap.String("request_id", GetRequestID(r.Context())))

			if collector != nil {
				collector.RecordHTTPRequest(r.Method, r.URL.Path, rec.status, elapsed)
			}
		})
	}
}
