package orders_api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// rateLimit ограничивает ручку по ip клиента. Лимитер недоступен —
// пропускаем: трекинг важнее строгого лимита.
func (a *OrdersAPI) rateLimit(scope string, limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("rl:%s:%s", scope, clientIP(r))
			res, err := a.limiter.Allow(r.Context(), key, limit, a.limits.Window)
			if err != nil {
				slog.Warn("rate limiter unavailable", "scope", scope, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !res.OK {
				retryAfter := int(time.Until(res.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respondError(w, http.StatusTooManyRequests, "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// adminAuth пускает по Bearer-токену. Пустой токен в конфиге значит,
// что админка выключена целиком.
func (a *OrdersAPI) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.adminToken == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP — адрес клиента за прокси: первый X-Forwarded-For,
// затем X-Real-IP, затем RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
