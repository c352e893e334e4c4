package middleware

import "net/http"

// CrossOrigin adds permissive CORS headers so attachment bytes can be embedded
// directly by a UI served from another origin. Preflight requests are answered here.
func CrossOrigin(origin string) func(http.HandlerFunc) http.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Range, If-None-Match")
			h.Set("Access-Control-Expose-Headers", "Content-Disposition, Content-Length, Content-Range, ETag")
			h.Set("Cross-Origin-Resource-Policy", "cross-origin")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next(w, r)
		}
	}
}

// SecurityHeaders applies to every response. Stored files are served with their
// recorded type only, never a sniffed one.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
