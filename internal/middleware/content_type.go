package middleware

import (
	"mime"
	"net/http"

	"github.com/hitoshi/meshauth/internal/model"
)

// MaxRequestBodyBytes はリクエストボディの上限（1MiB）。
const MaxRequestBodyBytes = 1 << 20

// NewRequireJSONMiddleware はボディを持つリクエストに
// Content-Type: application/json を要求するミドルウェアを返す。
// 不一致の場合は415を返す。ボディサイズはMaxRequestBodyBytesに制限する。
func NewRequireJSONMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || mediaType != "application/json" {
					WriteErrorResponse(w, http.StatusUnsupportedMediaType, model.NewUnsupportedMediaTypeError())
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}
