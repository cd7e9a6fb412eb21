package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/authz"
)

const (
	requestIDHeader = "X-Request-ID"

	requestIDKey   = "request_id"
	sessionKey     = "session"
	tokenSourceKey = "token_source"
)

// RequestID tags every request with an id, reusing a sane incoming X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog logs method, route, status and latency of every request.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestID(c)),
		}
		if session, ok := c.Get(sessionKey); ok {
			fields = append(fields, zap.String("identity_id", session.(*auth.Session).Identity.ID))
		}

		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

func (h *Handler) Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := h.metrics.RequestStarted()
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// extractToken prefers the Authorization header over the session cookie. A header that is
// present but malformed is still the request's credential and fails verification.
func (h *Handler) extractToken(c *gin.Context) (string, authz.TokenSource) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		return auth.BearerToken(header), authz.TokenHeader
	}
	if cookie, err := c.Cookie(h.cookie.Name); err == nil && cookie != "" {
		return cookie, authz.TokenCookie
	}
	return "", authz.TokenNone
}

func (h *Handler) newAuthzRequest(c *gin.Context) *authz.Request {
	token, source := h.extractToken(c)
	csrfCookie, _ := c.Cookie(h.csrf.CookieName)
	return &authz.Request{
		Method:      c.Request.Method,
		Token:       token,
		TokenSource: source,
		CSRFHeader:  c.GetHeader(h.csrf.HeaderName),
		CSRFCookie:  csrfCookie,
		Param: func(name string) string {
			if v := c.Param(name); v != "" {
				return v
			}
			return c.Query(name)
		},
	}
}

// Authorize gates the route behind chain and exposes the session to later handlers.
func (h *Handler) Authorize(chain authz.Chain) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := h.newAuthzRequest(c)
		if err := chain.Evaluate(c.Request.Context(), req); err != nil {
			if e := apperr.From(err); e.Kind != apperr.KindInternal {
				h.metrics.AuthorizationDenied(string(e.Code))
			}
			h.fail(c, err)
			return
		}
		c.Set(sessionKey, req.Session)
		c.Set(tokenSourceKey, req.TokenSource)
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), req.Session))
		c.Next()
	}
}

func currentSession(c *gin.Context) *auth.Session {
	if v, ok := c.Get(sessionKey); ok {
		if session, ok := v.(*auth.Session); ok {
			return session
		}
	}
	return nil
}

// RateLimit rejects clients that exceed limiter with 429.
func (h *Handler) RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, wait := limiter.Allow(c.ClientIP()); !ok {
			err := apperr.RateLimited("too many requests, please try again later")
			err.RetryAfter = wait
			h.fail(c, err)
			return
		}
		c.Next()
	}
}
