package web

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/service"
)

// gate enforces the two request-wide policies that depend on the persisted
// config: the setup redirect while the application is unconfigured, and the
// HTTPS redirect for public clients once it is. The config is loaded fresh on
// every request so finishing setup takes effect without a restart.
func (s *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.configs.Load()
		if err != nil {
			s.logger.Error("failed to load config", "error", err)
			http.Error(w, "configuration unavailable", http.StatusInternalServerError)
			return
		}

		if !cfg.Configured {
			if r.URL.Path != "/setup" && !strings.HasPrefix(r.URL.Path, "/uploads/") {
				http.Redirect(w, r, "/setup", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if !requestIsSecure(r) && !isPrivateClient(r.RemoteAddr) {
			http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusMovedPermanently)
			return
		}

		// Setup is one-shot; once configured the page no longer exists.
		if r.URL.Path == "/setup" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// isPrivateClient reports whether the request came from a loopback, RFC 1918,
// or link-local address. Those clients are exempt from the HTTPS redirect.
func isPrivateClient(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}

// requireLogin redirects anonymous requests to the login page.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.sessions.UserID(r); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// requireAdmin loads the signed-in user fresh from the database and turns
// non-admins back with a flash. The role check never trusts the cookie alone.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireLogin(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := s.sessions.UserID(r)
		s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
			user, err := svc.GetUser(r.Context(), userID)
			if err != nil {
				s.logger.Error("failed to load user", "user_id", userID, "error", err)
				http.Error(w, "failed to load user", http.StatusInternalServerError)
				return
			}
			if user == nil || !user.IsAdmin {
				s.sessions.AddFlash(w, r, "danger", "Administrator access required.")
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next(w, r)
		})
	})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
