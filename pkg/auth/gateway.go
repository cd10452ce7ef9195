package auth

import (
	"net"
	"net/http"
	"strings"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
	"hoaportal/pkg/utils"
)

// SecConfig mirrors the security-related configuration used to drive
// CORS, IP whitelisting and rate limiting. Put here so limiter.go and
// gateway.go can reference the shared type.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	IPWhitelist    []string
}

// publicPath reports whether a path is reachable without a session:
// login, refresh, probes, metrics and docs.
func publicPath(path string, method string) bool {
	switch path {
	case "/v1/login", "/v1/refresh-token":
		return method == http.MethodPost
	case "/healthz", "/readyz", "/metrics":
		return method == http.MethodGet
	}
	return strings.HasPrefix(path, "/docs/")
}

// AuthenticateRequestMiddleware applies CORS, IP whitelisting, bearer
// session validation and per-caller rate limiting. Validated sessions
// are placed on the request context.
func AuthenticateRequestMiddleware(cfg SecConfig, mgr *Manager) func(http.Handler) http.Handler {
	// rate limiters keyed by session token or remote ip
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// log request (redacts sensitive headers)
			logger.LogRequest(r)

			// cors preflight
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,PATCH,OPTIONS")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			// ip whitelist
			if len(cfg.IPWhitelist) > 0 {
				ip := clientIP(r)
				logger.Debug("ip_check", "ip", ip)
				if !ipWhitelisted(ip, cfg.IPWhitelist) {
					utils.JSONError(w, http.StatusForbidden, "forbidden")
					logger.Warn("request_blocked", "reason", "ip_not_whitelisted", "ip", ip, "path", r.URL.Path)
					return
				}
			}

			if publicPath(r.URL.Path, r.Method) {
				// unauthenticated endpoints are limited per remote ip
				if !limiters.Allow(clientIP(r)) {
					utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
					logger.Warn("rate_limited", "path", r.URL.Path, "remote", r.RemoteAddr)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := BearerToken(r)
			sess, err := mgr.Validate(token)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
				logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr, "error", err)
				return
			}

			// rate limiting keyed by token
			if !limiters.Allow(token) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "owner", sess.OwnerID, "path", r.URL.Path)
				return
			}

			logger.Info("request_allowed", "method", r.Method, "path", r.URL.Path, "role", sess.Role)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireRole wraps a handler and rejects callers whose session role is
// not in the allowed set. Admin passes every check.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == models.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := allowed[role]; !ok {
				utils.JSONError(w, http.StatusForbidden, "forbidden")
				logger.Warn("request_forbidden", "role", role, "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func originAllowed(origin string, allowed []string) bool {
	// check if origin is allowed
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	// get client ip from remoteaddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ipWhitelisted(ip string, list []string) bool {
	// check if ip is in whitelist
	for _, w := range list {
		if ip == w {
			return true
		}
	}
	return false
}
