package auth

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockRepository is an in-memory Repository for tests and local tooling.
type MockRepository struct {
	identities map[string]*Identity
	mu         sync.RWMutex
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		identities: make(map[string]*Identity),
	}
}

func (r *MockRepository) CreateIdentity(_ context.Context, identity *Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing []Identity
	for _, u := range r.identities {
		existing = append(existing, *u)
	}
	if fields := conflictingFields(existing, identity.Email, identity.Username, identity.Phone); len(fields) > 0 {
		return &ConflictError{Fields: fields}
	}

	if err := identity.BeforeCreate(nil); err != nil {
		return err
	}
	now := time.Now()
	identity.CreatedAt = now
	identity.UpdatedAt = now

	// Clone to prevent external modifications
	clone := *identity
	r.identities[identity.ID] = &clone
	return nil
}

func (r *MockRepository) GetByID(_ context.Context, id string) (*Identity, error) {
	return r.find(func(u *Identity) bool { return u.ID == id })
}

func (r *MockRepository) GetByEmail(_ context.Context, email string) (*Identity, error) {
	return r.find(func(u *Identity) bool { return u.Email == email })
}

func (r *MockRepository) GetByUsername(_ context.Context, username string) (*Identity, error) {
	return r.find(func(u *Identity) bool { return u.Username == username })
}

func (r *MockRepository) find(match func(*Identity) bool) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.identities {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (r *MockRepository) FindConflicts(_ context.Context, email, username, phone string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var existing []Identity
	for _, u := range r.identities {
		existing = append(existing, *u)
	}
	return conflictingFields(existing, email, username, phone), nil
}

func (r *MockRepository) List(_ context.Context, status RegistrationStatus) ([]Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var identities []Identity
	for _, u := range r.identities {
		if status == "" || u.RegistrationStatus == status {
			identities = append(identities, *u)
		}
	}
	sort.Slice(identities, func(i, j int) bool {
		return identities[i].CreatedAt.After(identities[j].CreatedAt)
	})
	return identities, nil
}

func (r *MockRepository) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	return r.mutate(id, func(u *Identity) bool {
		u.PasswordHash = hash
		u.TemporaryPasswordHash = nil
		u.PasswordChangedAt = &changedAt
		return true
	})
}

func (r *MockRepository) UpdateProfile(_ context.Context, id, fullName, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.identities[id]
	if !exists {
		return ErrIdentityNotFound
	}
	if phone != "" {
		for _, other := range r.identities {
			if other.ID != id && other.Phone == phone {
				return &ConflictError{Fields: []string{"phone"}}
			}
		}
		user.Phone = phone
	}
	if fullName != "" {
		user.FullName = fullName
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (r *MockRepository) RecordFailedLogin(_ context.Context, id string, threshold int, lockUntil, now time.Time) (LoginAttempt, error) {
	var attempt LoginAttempt
	err := r.mutate(id, func(u *Identity) bool {
		expired := u.LockUntil != nil && !u.LockUntil.After(now)
		if expired {
			u.FailedLoginAttempts = 1
			u.LockUntil = nil
		} else {
			u.FailedLoginAttempts++
		}
		if u.FailedLoginAttempts >= threshold {
			until := lockUntil
			u.LockUntil = &until
		}
		attempt = LoginAttempt{FailedAttempts: u.FailedLoginAttempts, LockUntil: u.LockUntil}
		return true
	})
	return attempt, err
}

func (r *MockRepository) RecordSuccessfulLogin(_ context.Context, id string, now time.Time) error {
	return r.mutate(id, func(u *Identity) bool {
		u.FailedLoginAttempts = 0
		u.LockUntil = nil
		u.LastLoginAt = &now
		return true
	})
}

func (r *MockRepository) Approve(_ context.Context, id string, role Role) error {
	return r.mutate(id, func(u *Identity) bool {
		if u.RegistrationStatus != RegistrationPending {
			return false
		}
		u.IsActive = true
		u.IsSelfRegistered = false
		u.RegistrationStatus = RegistrationApproved
		u.Role = role
		return true
	})
}

func (r *MockRepository) SetActive(_ context.Context, id string, active bool) error {
	return r.mutate(id, func(u *Identity) bool {
		if u.RegistrationStatus != RegistrationApproved {
			return false
		}
		u.IsActive = active
		return true
	})
}

func (r *MockRepository) DeletePending(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.identities[id]
	if !exists || user.RegistrationStatus != RegistrationPending || !user.IsSelfRegistered {
		return ErrIdentityNotFound
	}
	delete(r.identities, id)
	return nil
}

// Put stores identity as-is, bypassing validation. Test fixtures use it to seed state.
func (r *MockRepository) Put(identity *Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *identity
	r.identities[identity.ID] = &clone
}

// mutate applies fn under the write lock; fn returns false when its precondition fails.
func (r *MockRepository) mutate(id string, fn func(*Identity) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.identities[id]
	if !exists || !fn(user) {
		return ErrIdentityNotFound
	}
	user.UpdatedAt = time.Now()
	return nil
}

// MockRevocationStore is an in-memory RevocationStore.
type MockRevocationStore struct {
	tokens map[string]RevokedToken
	mu     sync.RWMutex
}

func NewMockRevocationStore() *MockRevocationStore {
	return &MockRevocationStore{tokens: make(map[string]RevokedToken)}
}

func (s *MockRevocationStore) Revoke(_ context.Context, token RevokedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token.TokenID]; !exists {
		s.tokens[token.TokenID] = token
	}
	return nil
}

func (s *MockRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.tokens[tokenID]
	return exists, nil
}

func (s *MockRevocationStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for id, token := range s.tokens {
		if !token.ExpiresAt.After(now) {
			delete(s.tokens, id)
			purged++
		}
	}
	return purged, nil
}
