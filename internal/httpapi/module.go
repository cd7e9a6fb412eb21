package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/authz"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
	"github.com/Anereges/AITB-Employee-Management-System/internal/database"
	"github.com/Anereges/AITB-Employee-Management-System/internal/metrics"
	"github.com/Anereges/AITB-Employee-Management-System/internal/rbac"
	"github.com/Anereges/AITB-Employee-Management-System/internal/server"
)

func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig) *rbac.Resolver {
					return rbac.NewResolver(rbac.MatrixFromConfig(config.Authz.Permissions))
				},
			),
			fx.Annotate(
				func(config *config.AppConfig) *authz.CSRFProtector {
					return authz.NewCSRFProtector(config.Auth.JWTSecret, config.CSRF.TTL)
				},
			),
			fx.Annotate(
				func(guard *auth.SessionGuard, resolver *rbac.Resolver, csrf *authz.CSRFProtector) *authz.Authorizer {
					return authz.NewAuthorizer(guard, resolver, csrf)
				},
			),
			fx.Annotate(
				func(
					config *config.AppConfig,
					service *auth.Service,
					authorizer *authz.Authorizer,
					collector *metrics.Collector,
					db *database.Manager,
					log *zap.Logger,
				) *Handler {
					return NewHandler(service, authorizer, collector, db, Options{
						Cookie:  config.Cookie,
						CSRF:    config.CSRF,
						Verbose: server.Verbose(config),
					}, log)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig, h *Handler) *gin.Engine {
					if config.Server.Environment == server.EnvProduction {
						gin.SetMode(gin.ReleaseMode)
					}
					return NewRouter(h, config.RateLimit)
				},
			),
		),
	)
}
