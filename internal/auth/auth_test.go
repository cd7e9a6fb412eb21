package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

const testPassword = "Str0ngPassw0rd"

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:         "test-secret-key",
		Issuer:            "aitb-ems-test",
		TokenExpiration:   time.Hour,
		MaxFailedAttempts: 5,
		LockDuration:      30 * time.Minute,
		BcryptCost:        bcrypt.MinCost,
		RevocationEnabled: true,
	}
}

type recorder struct {
	logins   []string
	rejected []string
}

func (r *recorder) LoginAttempt(outcome string) {
	r.logins = append(r.logins, outcome)
}

func (r *recorder) SessionRejected(code string) {
	r.rejected = append(r.rejected, code)
}

// testEnv wires every auth component against in-memory storage.
type testEnv struct {
	repo        *MockRepository
	revocations *MockRevocationStore
	store       *Store
	issuer      *TokenIssuer
	verifier    *TokenVerifier
	guard       *SessionGuard
	service     *Service
	recorder    *recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := newTestConfig()
	log := newTestLogger(t)

	env := &testEnv{
		repo:        NewMockRepository(),
		revocations: NewMockRevocationStore(),
		recorder:    &recorder{},
	}
	env.store = NewStore(cfg, env.repo)

	var err error
	env.issuer, err = NewTokenIssuer(cfg)
	require.NoError(t, err)
	env.verifier, err = NewTokenVerifier(cfg)
	require.NoError(t, err)

	env.guard = NewSessionGuard(env.verifier, env.store, env.revocations, env.recorder, log)
	env.service = NewService(cfg, log, env.store, env.issuer, env.revocations, env.recorder)
	return env
}

// seed stores an identity with a known password and returns it.
func (e *testEnv) seed(t *testing.T, mutate func(*Identity)) *Identity {
	t.Helper()
	hash, err := e.store.HashPassword(testPassword)
	require.NoError(t, err)

	identity := &Identity{
		ID:                 "7a4c1b9e-3f55-4a43-9d5a-0a6f2b1c8e01",
		EmployeeNumber:     "EMP-0001",
		FullName:           "Abebe Kebede",
		Email:              "abebe@aitb.et",
		Username:           "abebe",
		Phone:              "0911223344",
		PasswordHash:       hash,
		Role:               RoleEmployee,
		IsActive:           true,
		RegistrationStatus: RegistrationApproved,
	}
	if mutate != nil {
		mutate(identity)
	}
	e.repo.Put(identity)
	return identity
}
