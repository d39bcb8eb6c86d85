package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"verselearn/internal/models"
	"verselearn/internal/security"
	"verselearn/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	SessionContextKey ContextKey = "session"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	signer      *security.TokenSigner
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
	logger      *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(
	authService *service.AuthService,
	signer *security.TokenSigner,
	csrf *security.CSRFGenerator,
	limiter *security.RateLimiter,
	logger *zap.Logger,
) *Middleware {
	return &Middleware{
		authService: authService,
		signer:      signer,
		csrf:        csrf,
		limiter:     limiter,
		logger:      logger,
	}
}

// RequireAuth is middleware that requires a valid signed session cookie
// backed by a live server-side session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(security.SessionCookieName)
		if err != nil {
			respondWithError(m.logger, w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		claims, err := m.signer.Parse(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r))
			respondWithError(m.logger, w, http.StatusUnauthorized, ErrUnauthorized, "rejected session token", err)
			return
		}

		user, err := m.authService.ValidateSession(r.Context(), claims.Subject)
		if err != nil || user.ID != claims.UserID {
			http.SetCookie(w, security.CreateDeleteCookie(r))
			respondWithError(m.logger, w, http.StatusUnauthorized, ErrUnauthorized, "session validation failed", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, SessionContextKey, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is RequireAuth restricted to admin users
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			respondWithError(m.logger, w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	})
}

// CSRFProtect requires the CSRF header to match the current session. It must
// run inside RequireAuth.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.csrf.ValidateRequest(r, GetSessionIDFromContext(r.Context())) {
			respondWithError(m.logger, w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit rejects clients that exceed the limiter's budget
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			respondWithError(m.logger, w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionIDFromContext retrieves the session ID from the request context
func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}
