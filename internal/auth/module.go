package auth

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repositories
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig, db *gorm.DB) RevocationStore {
					if !config.Auth.RevocationEnabled {
						return nil
					}
					return NewRevocationRepository(db)
				},
			),
			// Provide credential store and tokens
			fx.Annotate(
				func(config *config.AppConfig, repo Repository) *Store {
					return NewStore(&config.Auth, repo)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig) (*TokenIssuer, error) {
					return NewTokenIssuer(&config.Auth)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig) (*TokenVerifier, error) {
					return NewTokenVerifier(&config.Auth)
				},
			),
			// Provide guard and service
			fx.Annotate(
				func(verifier *TokenVerifier, store *Store, revocations RevocationStore, recorder SessionRecorder, log *zap.Logger) *SessionGuard {
					return NewSessionGuard(verifier, store, revocations, recorder, log)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, store *Store, issuer *TokenIssuer, revocations RevocationStore, recorder LoginRecorder) *Service {
					return NewService(&config.Auth, log, store, issuer, revocations, recorder)
				},
			),
		),
		fx.Invoke(registerPurger),
	)
}

func registerPurger(lifecycle fx.Lifecycle, config *config.AppConfig, revocations RevocationStore, log *zap.Logger) {
	if revocations == nil {
		return
	}
	purger := NewRevocationPurger(revocations, config.Auth.RevocationPurgeInterval, log)
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			purger.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			purger.Stop()
			return nil
		},
	})
}
