package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

// passwordChangeMargin backdates password_changed_at so a token minted in the same second as
// the change is not treated as stale.
const passwordChangeMargin = time.Second

// Store is the credential store: persisted identities with irreversible password hashes.
type Store struct {
	repo Repository
	cost int
	now  func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewStore(cfg *config.AuthConfig, repo Repository) *Store {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		repo: repo,
		cost: cost,
		now:  time.Now,
	}
}

func (s *Store) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	return string(bytes), err
}

func (s *Store) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// burnPasswordCheck spends one bcrypt comparison so unknown accounts take as long as known ones.
func (s *Store) burnPasswordCheck(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), s.cost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// VerifyPassword checks password against the permanent hash, then the temporary one.
func (s *Store) VerifyPassword(identity *Identity, password string) (ok, temporary bool) {
	if identity.PasswordHash != "" && s.CheckPasswordHash(password, identity.PasswordHash) {
		return true, false
	}
	if identity.TemporaryPasswordHash != nil && s.CheckPasswordHash(password, *identity.TemporaryPasswordHash) {
		return true, true
	}
	return false, false
}

// FindByCredential looks an identity up by email or username.
func (s *Store) FindByCredential(ctx context.Context, identifier string) (*Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrIdentityNotFound
	}
	if strings.Contains(identifier, "@") {
		return s.repo.GetByEmail(ctx, normalizeEmail(identifier))
	}
	return s.repo.GetByUsername(ctx, identifier)
}

func (s *Store) FindByID(ctx context.Context, id string) (*Identity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Store) List(ctx context.Context, status RegistrationStatus) ([]Identity, error) {
	return s.repo.List(ctx, status)
}

// CreateIdentity validates and persists a new account. For admin-created accounts without a
// password the generated temporary password is returned; it is never stored in plain text.
func (s *Store) CreateIdentity(ctx context.Context, input NewIdentity) (*Identity, string, error) {
	input.normalize()
	if fields := input.validate(); len(fields) > 0 {
		return nil, "", apperr.Validation("invalid identity data", fields...)
	}

	conflicts, err := s.repo.FindConflicts(ctx, input.Email, input.Username, input.Phone)
	if err != nil {
		return nil, "", fmt.Errorf("check uniqueness: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, "", conflictError(conflicts)
	}

	identity := &Identity{
		FullName: input.FullName,
		Email:    input.Email,
		Username: input.Username,
		Phone:    input.Phone,
	}
	if input.SelfRegistered {
		identity.Role = RoleEmployee
		identity.IsSelfRegistered = true
		identity.IsActive = false
		identity.RegistrationStatus = RegistrationPending
	} else {
		identity.Role, _ = ParseRole(input.Role)
		identity.IsActive = true
		identity.RegistrationStatus = RegistrationApproved
	}

	var temporary string
	if input.Password != "" {
		hash, err := s.HashPassword(input.Password)
		if err != nil {
			return nil, "", fmt.Errorf("hash password: %w", err)
		}
		identity.PasswordHash = hash
		changedAt := s.now().Add(-passwordChangeMargin)
		identity.PasswordChangedAt = &changedAt
	} else {
		temporary, err = generateTemporaryPassword()
		if err != nil {
			return nil, "", fmt.Errorf("generate temporary password: %w", err)
		}
		hash, err := s.HashPassword(temporary)
		if err != nil {
			return nil, "", fmt.Errorf("hash temporary password: %w", err)
		}
		identity.TemporaryPasswordHash = &hash
	}

	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, "", conflictError(conflict.Fields)
		}
		return nil, "", fmt.Errorf("create identity: %w", err)
	}
	return identity, temporary, nil
}

func conflictError(fields []string) error {
	details := make([]apperr.FieldError, 0, len(fields))
	for _, field := range fields {
		details = append(details, apperr.FieldError{Field: field, Message: field + " already in use"})
	}
	return apperr.Validation("identity already exists", details...)
}

// UpdatePassword hashes and stores a new password and clears any temporary password.
func (s *Store) UpdatePassword(ctx context.Context, id, password string) error {
	if fields := fieldErrors(&passwordChange{NewPassword: password}); len(fields) > 0 {
		return apperr.Validation("invalid password", fields...)
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, hash, s.now().Add(-passwordChangeMargin))
}

func (s *Store) UpdateProfile(ctx context.Context, id, fullName, phone string) error {
	fullName = strings.TrimSpace(fullName)
	phone = strings.TrimSpace(phone)
	if fields := fieldErrors(&profileUpdate{FullName: fullName, Phone: phone}); len(fields) > 0 {
		return apperr.Validation("invalid profile data", fields...)
	}
	err := s.repo.UpdateProfile(ctx, id, fullName, phone)
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflictError(conflict.Fields)
	}
	return err
}

func generateTemporaryPassword() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
