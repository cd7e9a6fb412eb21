package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

const (
	defaultMaxFailedAttempts = 5
	defaultLockDuration      = 30 * time.Minute
)

var errInvalidCredentials = apperr.Authentication(apperr.CodeInvalidCredentials, "incorrect email or password")

// LoginRecorder observes login outcomes.
type LoginRecorder interface {
	LoginAttempt(outcome string)
}

// Login outcomes reported to the LoginRecorder.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeLocked             = "locked"
	OutcomeInactive           = "inactive"
	OutcomeError              = "error"
)

type Service struct {
	config      *config.AuthConfig
	log         *zap.Logger
	store       *Store
	issuer      *TokenIssuer
	revocations RevocationStore
	recorder    LoginRecorder
	now         func() time.Time
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token              IssuedToken
	Identity           Summary
	MustChangePassword bool
}

// CreatedIdentity carries a new account and, for admin-created accounts without a password,
// the one-time temporary password.
type CreatedIdentity struct {
	Identity          Summary
	TemporaryPassword string
}

// NewService builds the auth service. A nil revocation store disables server-side logout.
func NewService(cfg *config.AuthConfig, log *zap.Logger, store *Store, issuer *TokenIssuer, revocations RevocationStore, recorder LoginRecorder) *Service {
	return &Service{
		config:      cfg,
		log:         log,
		store:       store,
		issuer:      issuer,
		revocations: revocations,
		recorder:    recorder,
		now:         time.Now,
	}
}

func (s *Service) maxFailedAttempts() int {
	if s.config.MaxFailedAttempts > 0 {
		return s.config.MaxFailedAttempts
	}
	return defaultMaxFailedAttempts
}

func (s *Service) lockDuration() time.Duration {
	if s.config.LockDuration > 0 {
		return s.config.LockDuration
	}
	return defaultLockDuration
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.LoginAttempt(outcome)
	}
}

// Login verifies credentials and issues a session token.
//
// Unknown identities and wrong passwords produce the same error. A locked account is rejected
// before its password is checked. Correct credentials on an inactive account produce a 403
// that names the account state.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	var fields []apperr.FieldError
	if identifier == "" {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "email is required"})
	}
	if password == "" {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "password is required"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("email and password are required", fields...)
	}

	identity, err := s.store.FindByCredential(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			s.store.burnPasswordCheck(password) // Prevent timing attacks
			s.record(OutcomeInvalidCredentials)
			return nil, errInvalidCredentials
		}
		s.record(OutcomeError)
		return nil, apperr.Internal(fmt.Errorf("find identity: %w", err))
	}

	now := s.now()
	if identity.IsLocked(now) {
		s.record(OutcomeLocked)
		return nil, lockedError(identity.LockRemaining(now))
	}

	ok, temporary := s.store.VerifyPassword(identity, password)

	// A request abandoned while hashing must not touch the counters.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !ok {
		attempt, err := s.store.repo.RecordFailedLogin(ctx, identity.ID, s.maxFailedAttempts(), now.Add(s.lockDuration()), now)
		if err != nil {
			s.log.Error("failed to update login attempts",
				zap.String("identity_id", identity.ID),
				zap.Error(err))
		} else if attempt.LockUntil != nil && attempt.LockUntil.After(now) {
			s.log.Warn("account locked after repeated failed logins",
				zap.String("identity_id", identity.ID),
				zap.Int("failed_attempts", attempt.FailedAttempts),
				zap.Time("lock_until", *attempt.LockUntil))
		}
		s.record(OutcomeInvalidCredentials)
		return nil, errInvalidCredentials
	}

	if err := inactiveError(identity); err != nil {
		s.record(OutcomeInactive)
		return nil, err
	}

	// Reset failed login attempts on successful login
	if err := s.store.repo.RecordSuccessfulLogin(ctx, identity.ID, now); err != nil {
		s.record(OutcomeError)
		return nil, apperr.Internal(fmt.Errorf("reset login attempts: %w", err))
	}

	token, err := s.issuer.Issue(identity)
	if err != nil {
		s.record(OutcomeError)
		return nil, apperr.Internal(err)
	}

	s.record(OutcomeSuccess)
	s.log.Info("login succeeded",
		zap.String("identity_id", identity.ID),
		zap.String("role", string(identity.Role)),
		zap.Bool("temporary_password", temporary))

	return &LoginResult{
		Token:              token,
		Identity:           identity.Summary(),
		MustChangePassword: temporary,
	}, nil
}

// Register creates a self-service account awaiting approval. No token is issued.
func (s *Service) Register(ctx context.Context, input NewIdentity) (*Summary, error) {
	input.SelfRegistered = true
	input.Role = string(RoleEmployee)
	identity, _, err := s.store.CreateIdentity(ctx, input)
	if err != nil {
		return nil, wrapInternal(err)
	}
	s.log.Info("self registration received",
		zap.String("identity_id", identity.ID),
		zap.String("username", identity.Username))
	summary := identity.Summary()
	return &summary, nil
}

// CreateByAdmin creates an active, approved account with the requested role.
func (s *Service) CreateByAdmin(ctx context.Context, input NewIdentity) (*CreatedIdentity, error) {
	input.SelfRegistered = false
	identity, temporary, err := s.store.CreateIdentity(ctx, input)
	if err != nil {
		return nil, wrapInternal(err)
	}
	s.log.Info("identity created by admin",
		zap.String("identity_id", identity.ID),
		zap.String("role", string(identity.Role)),
		zap.Bool("temporary_password", temporary != ""))
	return &CreatedIdentity{Identity: identity.Summary(), TemporaryPassword: temporary}, nil
}

// ChangePassword replaces the password of the session's identity after verifying the current
// one, and issues a fresh token since earlier tokens become stale.
func (s *Service) ChangePassword(ctx context.Context, session *Session, current, next string) (*IssuedToken, error) {
	identity, err := s.store.FindByID(ctx, session.Identity.ID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, errIdentityGone
		}
		return nil, apperr.Internal(err)
	}
	if ok, _ := s.store.VerifyPassword(identity, current); !ok {
		return nil, apperr.Validation("current password is incorrect",
			apperr.FieldError{Field: "currentPassword", Message: "current password is incorrect"})
	}
	if current == next {
		return nil, apperr.Validation("new password must differ from the current one",
			apperr.FieldError{Field: "newPassword", Message: "new password must differ from the current one"})
	}
	if err := s.store.UpdatePassword(ctx, identity.ID, next); err != nil {
		return nil, wrapInternal(err)
	}
	if err := s.Logout(ctx, session); err != nil {
		s.log.Warn("failed to revoke token after password change", zap.Error(err))
	}

	token, err := s.issuer.Issue(identity)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.log.Info("password changed", zap.String("identity_id", identity.ID))
	return &token, nil
}

// Logout revokes the session's token until its natural expiry when revocation is enabled.
func (s *Service) Logout(ctx context.Context, session *Session) error {
	if s.revocations == nil || session == nil || session.Claims == nil || session.Claims.ID == "" {
		return nil
	}
	expiresAt := s.now()
	if session.Claims.ExpiresAt != nil {
		expiresAt = session.Claims.ExpiresAt.Time
	}
	err := s.revocations.Revoke(ctx, RevokedToken{
		TokenID:    session.Claims.ID,
		IdentityID: session.Claims.Subject,
		ExpiresAt:  expiresAt,
		RevokedAt:  s.now(),
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("revoke token: %w", err))
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Identity, error) {
	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "no employee found with that id")
	}
	return identity, nil
}

func (s *Service) List(ctx context.Context, status RegistrationStatus) ([]Summary, error) {
	identities, err := s.store.List(ctx, status)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	summaries := make([]Summary, 0, len(identities))
	for i := range identities {
		summaries = append(summaries, identities[i].Summary())
	}
	return summaries, nil
}

// CountPending counts self-registrations awaiting an admin decision.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	identities, err := s.store.List(ctx, RegistrationPending)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	count := 0
	for i := range identities {
		if identities[i].IsPending() && identities[i].IsSelfRegistered {
			count++
		}
	}
	return count, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id, fullName, phone string) (*Identity, error) {
	if err := s.store.UpdateProfile(ctx, id, fullName, phone); err != nil {
		if apperr.IsKind(err, apperr.KindValidation) {
			return nil, err
		}
		return nil, notFoundOrInternal(err, "no employee found with that id")
	}
	return s.Get(ctx, id)
}

// Approve activates a pending registration. An empty role keeps the employee role.
func (s *Service) Approve(ctx context.Context, id, role string) (*Summary, error) {
	approved := RoleEmployee
	if role != "" {
		var ok bool
		if approved, ok = ParseRole(role); !ok {
			return nil, apperr.Validation("invalid role",
				apperr.FieldError{Field: "role", Message: "role must be one of: " + strings.Join(roleNames(), ", ")})
		}
	}
	if err := s.store.repo.Approve(ctx, id, approved); err != nil {
		return nil, notFoundOrInternal(err, "no pending registration found with that id")
	}
	identity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("registration approved",
		zap.String("identity_id", id),
		zap.String("role", string(approved)))
	summary := identity.Summary()
	return &summary, nil
}

// Reject removes a pending self-registration. This is the only hard delete.
func (s *Service) Reject(ctx context.Context, id, reason string) error {
	if err := s.store.repo.DeletePending(ctx, id); err != nil {
		return notFoundOrInternal(err, "no pending registration found with that id")
	}
	s.log.Info("registration rejected",
		zap.String("identity_id", id),
		zap.String("reason", reason))
	return nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*Summary, error) {
	if err := s.store.repo.SetActive(ctx, id, active); err != nil {
		return nil, notFoundOrInternal(err, "no approved employee found with that id")
	}
	identity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("account activation changed",
		zap.String("identity_id", id),
		zap.Bool("active", active))
	summary := identity.Summary()
	return &summary, nil
}

func notFoundOrInternal(err error, message string) error {
	if errors.Is(err, ErrIdentityNotFound) {
		return apperr.NotFound(message)
	}
	return apperr.Internal(err)
}

// wrapInternal keeps taxonomy errors and wraps anything else as internal.
func wrapInternal(err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(err)
}
