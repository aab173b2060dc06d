package middleware

import "net/http"

// corsAllowedMethods はこのAPIが提供するメソッドの集合。
const corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"

// NewCORSMiddleware は単一オリジンのフロントエンド向けCORSミドルウェアを返す。
// セッションCookieを伴うリクエストを許可するため、ワイルドカード(*)ではなく
// 設定されたオリジンを明示的に返し、Vary: Originを付与する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")

			// プリフライトには許可内容だけを返してハンドラーへは渡さない
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
