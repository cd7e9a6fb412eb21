package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
)

var (
	errTokenRevoked = apperr.Authentication(apperr.CodeTokenRevoked, "token has been revoked")
	errIdentityGone = apperr.Authentication(apperr.CodeIdentityGone, "identity no longer exists")
	errSessionStale = apperr.Authentication(apperr.CodeSessionStale, "password changed recently, please log in again")
)

// Session is an authenticated request identity.
type Session struct {
	Identity *Identity
	Claims   *Claims
}

// SessionRecorder observes guard rejections.
type SessionRecorder interface {
	SessionRejected(code string)
}

// SessionGuard authenticates the token presented with each protected request.
//
// Signature and expiry are checked before any storage access. Identity state (stale password,
// lock, pending or deactivated) is only checked once the identity is known to exist.
type SessionGuard struct {
	verifier    *TokenVerifier
	store       *Store
	revocations RevocationStore
	recorder    SessionRecorder
	log         *zap.Logger
	now         func() time.Time
}

// NewSessionGuard builds a guard. A nil revocation store disables the revocation check.
func NewSessionGuard(verifier *TokenVerifier, store *Store, revocations RevocationStore, recorder SessionRecorder, log *zap.Logger) *SessionGuard {
	return &SessionGuard{
		verifier:    verifier,
		store:       store,
		revocations: revocations,
		recorder:    recorder,
		log:         log,
		now:         time.Now,
	}
}

func (g *SessionGuard) Authenticate(ctx context.Context, raw string) (*Session, error) {
	session, err := g.authenticate(ctx, raw)
	if err != nil && g.recorder != nil {
		g.recorder.SessionRejected(string(apperr.From(err).Code))
	}
	return session, err
}

func (g *SessionGuard) authenticate(ctx context.Context, raw string) (*Session, error) {
	claims, err := g.verifier.Parse(raw)
	if err != nil {
		return nil, err
	}

	if g.revocations != nil && claims.ID != "" {
		revoked, err := g.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("check revocation: %w", err))
		}
		if revoked {
			return nil, errTokenRevoked
		}
	}

	identity, err := g.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, errIdentityGone
		}
		return nil, apperr.Internal(fmt.Errorf("load identity: %w", err))
	}

	if identity.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, errSessionStale
	}

	now := g.now()
	if identity.IsLocked(now) {
		return nil, lockedError(identity.LockRemaining(now))
	}
	if err := inactiveError(identity); err != nil {
		return nil, err
	}

	g.log.Debug("session authenticated",
		zap.String("identity_id", identity.ID),
		zap.String("role", string(identity.Role)))

	return &Session{Identity: identity, Claims: claims}, nil
}

func lockedError(remaining time.Duration) *apperr.Error {
	err := apperr.Locked(fmt.Sprintf("account is locked, try again in %s", remaining.Round(time.Second)))
	err.RetryAfter = remaining
	return err
}

// inactiveError distinguishes accounts awaiting approval from deactivated ones.
func inactiveError(identity *Identity) *apperr.Error {
	if identity.IsActive {
		return nil
	}
	var err *apperr.Error
	if identity.IsPending() {
		err = apperr.AccountState(apperr.CodeAccountPending, "account is pending approval")
	} else {
		err = apperr.AccountState(apperr.CodeAccountDeactivated, "account has been deactivated")
	}
	err.Inactive = true
	summary := identity.Summary()
	err.User = summary
	return err
}
