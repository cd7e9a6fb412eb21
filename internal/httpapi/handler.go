// Package httpapi exposes the authentication and employee administration REST API over gin.
package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/authz"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
	"github.com/Anereges/AITB-Employee-Management-System/internal/metrics"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	service    *auth.Service
	authorizer *authz.Authorizer
	metrics    *metrics.Collector
	health     HealthChecker
	cookie     config.CookieConfig
	csrf       config.CSRFConfig
	verbose    bool
	log        *zap.Logger
}

// Options carries the configuration the handler reads per request.
type Options struct {
	Cookie config.CookieConfig
	CSRF   config.CSRFConfig
	// Verbose exposes internal error detail in responses. Never set it in production.
	Verbose bool
}

func NewHandler(
	service *auth.Service,
	authorizer *authz.Authorizer,
	collector *metrics.Collector,
	health HealthChecker,
	opts Options,
	log *zap.Logger,
) *Handler {
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = "ems_session"
	}
	if opts.Cookie.Path == "" {
		opts.Cookie.Path = "/"
	}
	if opts.CSRF.CookieName == "" {
		opts.CSRF.CookieName = "ems_csrf"
	}
	if opts.CSRF.HeaderName == "" {
		opts.CSRF.HeaderName = "X-CSRF-Token"
	}
	return &Handler{
		service:    service,
		authorizer: authorizer,
		metrics:    collector,
		health:     health,
		cookie:     opts.Cookie,
		csrf:       opts.CSRF,
		verbose:    opts.Verbose,
		log:        log,
	}
}

// statusClientClosedRequest marks requests abandoned by the client before a response.
const statusClientClosedRequest = 499

// fail aborts the request with the error envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		h.log.Debug("request cancelled by client",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		h.log.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	if e.RetryAfter > 0 {
		c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(e.RetryAfter.Seconds())), 10))
	}
	c.AbortWithStatusJSON(e.HTTPStatus(), apperr.NewEnvelope(e, h.verbose))
}

func (h *Handler) recover(c *gin.Context, recovered any) {
	h.log.Error("panic recovered",
		zap.String("request_id", requestID(c)),
		zap.Any("panic", recovered))
	h.fail(c, apperr.Internal(nil))
}

func invalidBody(err error) *apperr.Error {
	e := apperr.Validation("invalid request body")
	e.Err = err
	return e
}

func success(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// Health reports the service as available when the database answers.
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
