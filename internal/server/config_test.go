package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("EMS_AUTH_JWT_SECRET", "from-env")

	cfg, err := loadConfig(viper.New(), EnvDevelopment, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiration)
	assert.Equal(t, 5, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockDuration)
	assert.True(t, cfg.Auth.RevocationEnabled)
	assert.Equal(t, "ems_session", cfg.Cookie.Name)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, "X-CSRF-Token", cfg.CSRF.HeaderName)
	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.True(t, Verbose(cfg))
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("EMS_AUTH_JWT_SECRET", "")

	_, err := loadConfig(viper.New(), EnvProduction, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.From(err).Kind)
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[server]
port = "8443"
environment = "production"

[auth]
jwt_secret = "from-file"
token_expiration = "2h"

[authz.permissions.hr]
leaves = ["approve"]

[grpc.production]
port = "9443"
enable_reflection = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
	t.Setenv("EMS_SERVER_PORT", "9000")

	cfg, err := loadConfig(viper.New(), EnvProduction, dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenExpiration)
	assert.Equal(t, []string{"approve"}, cfg.Authz.Permissions["hr"]["leaves"])
	assert.Equal(t, "9443", cfg.GRPC.Port)
	assert.False(t, cfg.GRPC.EnableReflection)
	assert.False(t, Verbose(cfg))
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{EnvDevelopment, EnvTesting, EnvProduction} {
		logger, err := NewLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, logger)
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "")
	assert.Equal(t, EnvDevelopment, Environment(), "unset APP_ENV defaults to development")

	t.Setenv("APP_ENV", EnvProduction)
	assert.Equal(t, EnvProduction, Environment())
}
