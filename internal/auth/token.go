package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

const (
	defaultIssuer          = "aitb-ems"
	defaultTokenExpiration = 24 * time.Hour
)

var (
	errMissingSecret = apperr.Configuration("auth: jwt secret is not configured")

	errTokenMissing = apperr.Authentication(apperr.CodeTokenMissing, "missing token")
	errTokenInvalid = apperr.Authentication(apperr.CodeTokenInvalid, "invalid token")
	errTokenExpired = apperr.Authentication(apperr.CodeTokenExpired, "expired token")
)

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// IssuedToken is a freshly signed session token.
type IssuedToken struct {
	Token     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiresIn is the lifetime in whole seconds.
func (t IssuedToken) ExpiresIn() int64 {
	return int64(t.ExpiresAt.Sub(t.IssuedAt) / time.Second)
}

type TokenIssuer struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewTokenIssuer fails when no signing secret is configured; that is fatal at startup.
func NewTokenIssuer(cfg *config.AuthConfig) (*TokenIssuer, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, errMissingSecret
	}
	expiration := cfg.TokenExpiration
	if expiration == 0 {
		expiration = defaultTokenExpiration
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		issuer:     issuerName(cfg),
		expiration: expiration,
		now:        time.Now,
	}, nil
}

func issuerName(cfg *config.AuthConfig) string {
	if cfg.Issuer != "" {
		return cfg.Issuer
	}
	return defaultIssuer
}

// Issue signs a token carrying the identity's id and a snapshot of its role.
func (i *TokenIssuer) Issue(identity *Identity) (IssuedToken, error) {
	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(i.expiration)
	claims := &Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{Token: signed, ID: claims.ID, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// TokenVerifier checks signature, issuer and expiry. It never touches storage.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenVerifier(cfg *config.AuthConfig) (*TokenVerifier, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, errMissingSecret
	}
	return &TokenVerifier{
		secret: []byte(secret),
		issuer: issuerName(cfg),
		now:    time.Now,
	}, nil
}

func (v *TokenVerifier) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errTokenExpired
		}
		return nil, errTokenInvalid
	}
	if !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, errTokenInvalid
	}
	if _, ok := ParseRole(string(claims.Role)); !ok {
		return nil, errTokenInvalid
	}
	return claims, nil
}
