package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
	"github.com/Anereges/AITB-Employee-Management-System/internal/database"
	"github.com/Anereges/AITB-Employee-Management-System/internal/httpapi"
	"github.com/Anereges/AITB-Employee-Management-System/internal/metrics"
	"github.com/Anereges/AITB-Employee-Management-System/internal/migration"
	"github.com/Anereges/AITB-Employee-Management-System/internal/server"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Storage
		database.Module(),
		migration.Module(),

		// Domain
		metrics.NewModule(),
		auth.NewModule(),
		httpapi.NewModule(),

		// Servers
		fx.Provide(
			fx.Annotate(
				func(guard *auth.SessionGuard) server.ContextAuthenticator { return guard },
			),
			server.NewServer,
			func(config *config.AppConfig, engine *gin.Engine, log *zap.Logger) *server.HTTPServer {
				return server.NewHTTPServer(config, http.Handler(engine), log)
			},
		),

		// Start the servers
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	return server.NewLogger(server.Environment())
}

func registerHooks(
	lifecycle fx.Lifecycle,
	shutdowner fx.Shutdowner,
	srv *server.Server,
	httpSrv *server.HTTPServer,
	log *zap.Logger,
) {
	serve := func(name string, start func() error) {
		go func() {
			if err := start(); err != nil {
				log.Error("failed to start server", zap.String("server", name), zap.Error(err))
				_ = shutdowner.Shutdown(fx.ExitCode(1))
			}
		}()
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			serve("grpc", srv.Start)
			serve("http", httpSrv.Start)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down servers...")
			srv.Stop()
			return httpSrv.Stop(ctx)
		},
	})
}
