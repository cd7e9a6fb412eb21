package server

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

const envPrefix = "EMS"

// Environment returns APP_ENV, defaulting to development.
func Environment() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return EnvDevelopment
}

// LoadConfig reads built-in defaults, then ./config/server/config.toml if present, then EMS_*
// environment variables.
func LoadConfig() (*config.AppConfig, error) {
	return loadConfig(viper.New(), Environment(), "./config/server")
}

func loadConfig(v *viper.Viper, env string, paths ...string) (*config.AppConfig, error) {
	setDefaults(v, env)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config config.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Load environment-specific configurations
	if envSettings := v.GetStringMap(fmt.Sprintf("grpc.%s", env)); len(envSettings) > 0 {
		if err := v.UnmarshalKey(fmt.Sprintf("grpc.%s", env), &config.GRPC); err != nil {
			return nil, fmt.Errorf("error unmarshaling env config: %w", err)
		}
	}

	if strings.TrimSpace(config.Auth.JWTSecret) == "" {
		return nil, apperr.Configuration("auth.jwt_secret must be set (EMS_AUTH_JWT_SECRET)")
	}
	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file.
func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", env)

	v.SetDefault("grpc.port", "9090")
	v.SetDefault("grpc.enable_reflection", env != EnvProduction)
	v.SetDefault("grpc.max_receive_message_size", 4<<20)
	v.SetDefault("grpc.max_send_message_size", 4<<20)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "ems")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "aitb-ems")
	v.SetDefault("auth.token_expiration", "24h")
	v.SetDefault("auth.max_failed_attempts", 5)
	v.SetDefault("auth.lock_duration", "30m")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.revocation_enabled", true)
	v.SetDefault("auth.revocation_purge_interval", "1h")

	v.SetDefault("cookie.name", "ems_session")
	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.path", "/")
	v.SetDefault("cookie.secure", env == EnvProduction)
	v.SetDefault("cookie.same_site", "lax")

	v.SetDefault("csrf.cookie_name", "ems_csrf")
	v.SetDefault("csrf.header_name", "X-CSRF-Token")
	v.SetDefault("csrf.ttl", "2h")

	v.SetDefault("ratelimit.login_per_second", 1.0)
	v.SetDefault("ratelimit.login_burst", 10)
}

// Verbose reports whether internal error detail may be returned to clients.
func Verbose(cfg *config.AppConfig) bool {
	return cfg.Server.Environment != EnvProduction
}
