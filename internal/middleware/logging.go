package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// wrapStatus はchiのWrapResponseWriterでwをラップする。
// 書き込みのないレスポンスはnet/httpが200で返すため、statusは200として扱う。
func wrapStatus(w http.ResponseWriter, r *http.Request) (chimw.WrapResponseWriter, func() int) {
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	return ww, func() int {
		if code := ww.Status(); code != 0 {
			return code
		}
		return http.StatusOK
	}
}

// statusLevel はステータスクラスに応じたログレベルを返す。
func statusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewLoggingMiddleware はリクエストごとに1行のhttp_requestログを出力するミドルウェアを返す。
// リクエストボディ（パスワードを含む）やAuthorizationヘッダーは記録しない。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww, status := wrapStatus(w, r)

			next.ServeHTTP(ww, r)

			code := status()
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", code),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if id := chimw.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			logger.LogAttrs(r.Context(), statusLevel(code), "http_request", attrs...)
		})
	}
}
