package middleware

import (
	"net/http"

	"github.com/hitoshi/meshauth/internal/metrics"
)

// NewMetricsMiddleware はレスポンスのステータスコードをメトリクスに記録するミドルウェアを返す。
func NewMetricsMiddleware(m metrics.AuthMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww, status := wrapStatus(w, r)
			next.ServeHTTP(ww, r)
			m.RecordHTTPStatus(status())
		})
	}
}
