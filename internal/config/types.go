package config

import "time"

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

type GRPCConfig struct {
	Port                  string `mapstructure:"port"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	MaxReceiveMessageSize int    `mapstructure:"max_receive_message_size"`
	MaxSendMessageSize    int    `mapstructure:"max_send_message_size"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	Issuer                  string        `mapstructure:"issuer"`
	TokenExpiration         time.Duration `mapstructure:"token_expiration"`
	MaxFailedAttempts       int           `mapstructure:"max_failed_attempts"`
	LockDuration            time.Duration `mapstructure:"lock_duration"`
	BcryptCost              int           `mapstructure:"bcrypt_cost"`
	RevocationEnabled       bool          `mapstructure:"revocation_enabled"`
	RevocationPurgeInterval time.Duration `mapstructure:"revocation_purge_interval"`
}

type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

type CSRFConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	HeaderName string        `mapstructure:"header_name"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	LoginPerSecond float64 `mapstructure:"login_per_second"`
	LoginBurst     int     `mapstructure:"login_burst"`
}

// AuthzConfig overrides the built-in permission matrix: role -> resource -> actions.
type AuthzConfig struct {
	Permissions map[string]map[string][]string `mapstructure:"permissions"`
}

type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cookie    CookieConfig    `mapstructure:"cookie"`
	CSRF      CSRFConfig      `mapstructure:"csrf"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Authz     AuthzConfig     `mapstructure:"authz"`
}
