package middleware

import (
	"net/http"
	"strings"
)

var (
	corsAllowedMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	corsAllowedHeaders = strings.Join([]string{"Content-Type", "Authorization"}, ", ")
)

// corsMaxAge はプリフライト結果をブラウザがキャッシュしてよい秒数。
const corsMaxAge = "86400"

// NewCORSMiddleware はクロスオリジンのブラウザクライアントから登録・ログインを呼べるようにするミドルウェアを返す。
// allowedOriginが空または"*"の場合は全オリジンを許可し、credentialsは許可しない。
// 特定オリジンの場合のみcredentialsを許可し、キャッシュ分離のためVary: Originを付与する。
// OPTIONSはハンドラーに渡さず204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	wildcard := allowedOrigin == "" || allowedOrigin == "*"
	if wildcard {
		allowedOrigin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			if !wildcard {
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
