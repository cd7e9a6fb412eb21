package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrIdentityExists   = errors.New("identity already exists")
)

const pgUniqueViolation = "23505"

// ConflictError names the unique fields a new identity collided on.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("identity already exists: %s taken", strings.Join(e.Fields, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrIdentityExists
}

// LoginAttempt is the counter state after a failed login was recorded.
type LoginAttempt struct {
	FailedAttempts int
	LockUntil      *time.Time
}

type Repository interface {
	CreateIdentity(ctx context.Context, identity *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByUsername(ctx context.Context, username string) (*Identity, error)
	FindConflicts(ctx context.Context, email, username, phone string) ([]string, error)
	List(ctx context.Context, status RegistrationStatus) ([]Identity, error)
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error
	UpdateProfile(ctx context.Context, id, fullName, phone string) error
	// RecordFailedLogin increments the failed-attempt counter in one statement and sets the
	// lock when the counter reaches threshold. A lock that already expired restarts the count.
	RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil, now time.Time) (LoginAttempt, error)
	RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) error
	Approve(ctx context.Context, id string, role Role) error
	SetActive(ctx context.Context, id string, active bool) error
	DeletePending(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateIdentity(ctx context.Context, identity *Identity) error {
	if err := r.db.WithContext(ctx).Create(identity).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return &ConflictError{Fields: []string{constraintField(pgErr.ConstraintName)}}
		}
		return err
	}
	return nil
}

// constraintField maps a unique constraint such as employees_email_key onto its column.
func constraintField(constraint string) string {
	for _, field := range []string{"email", "username", "phone", "employee_number"} {
		if strings.Contains(constraint, field) {
			return field
		}
	}
	return "identity"
}

func (r *repository) GetByID(ctx context.Context, id string) (*Identity, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*Identity, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *repository) first(ctx context.Context, query string, arg any) (*Identity, error) {
	var identity Identity
	if err := r.db.WithContext(ctx).Where(query, arg).First(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return &identity, nil
}

func (r *repository) FindConflicts(ctx context.Context, email, username, phone string) ([]string, error) {
	var existing []Identity
	err := r.db.WithContext(ctx).
		Select("email", "username", "phone").
		Where("email = ? OR username = ? OR phone = ?", email, username, phone).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	return conflictingFields(existing, email, username, phone), nil
}

func conflictingFields(existing []Identity, email, username, phone string) []string {
	var fields []string
	seen := make(map[string]bool, 3)
	add := func(field string) {
		if !seen[field] {
			seen[field] = true
			fields = append(fields, field)
		}
	}
	for _, identity := range existing {
		if identity.Email == email {
			add("email")
		}
		if identity.Username == username {
			add("username")
		}
		if identity.Phone == phone {
			add("phone")
		}
	}
	return fields
}

func (r *repository) List(ctx context.Context, status RegistrationStatus) ([]Identity, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("registration_status = ?", status)
	}
	var identities []Identity
	if err := query.Find(&identities).Error; err != nil {
		return nil, err
	}
	return identities, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	return r.update(r.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id), map[string]any{
		"password_hash":           hash,
		"temporary_password_hash": nil,
		"password_changed_at":     changedAt,
	})
}

func (r *repository) UpdateProfile(ctx context.Context, id, fullName, phone string) error {
	fields := map[string]any{}
	if fullName != "" {
		fields["full_name"] = fullName
	}
	if phone != "" {
		fields["phone"] = phone
	}
	if len(fields) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	err := r.update(r.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id), fields)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &ConflictError{Fields: []string{constraintField(pgErr.ConstraintName)}}
	}
	return err
}

const recordFailedLoginSQL = `
UPDATE employees SET
	failed_login_attempts = CASE
		WHEN lock_until IS NOT NULL AND lock_until <= @now THEN 1
		ELSE failed_login_attempts + 1
	END,
	lock_until = CASE
		WHEN (CASE WHEN lock_until IS NOT NULL AND lock_until <= @now THEN 1 ELSE failed_login_attempts + 1 END) >= @threshold THEN @lock_until
		WHEN lock_until IS NOT NULL AND lock_until <= @now THEN NULL
		ELSE lock_until
	END,
	updated_at = @now
WHERE id = @id
RETURNING failed_login_attempts, lock_until`

func (r *repository) RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil, now time.Time) (LoginAttempt, error) {
	var row struct {
		FailedLoginAttempts int
		LockUntil           *time.Time
	}
	result := r.db.WithContext(ctx).Raw(recordFailedLoginSQL, map[string]any{
		"id":         id,
		"threshold":  threshold,
		"lock_until": lockUntil,
		"now":        now,
	}).Scan(&row)
	if result.Error != nil {
		return LoginAttempt{}, result.Error
	}
	if result.RowsAffected == 0 {
		return LoginAttempt{}, ErrIdentityNotFound
	}
	return LoginAttempt{FailedAttempts: row.FailedLoginAttempts, LockUntil: row.LockUntil}, nil
}

func (r *repository) RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) error {
	return r.update(r.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id), map[string]any{
		"failed_login_attempts": 0,
		"lock_until":            nil,
		"last_login_at":         now,
	})
}

func (r *repository) Approve(ctx context.Context, id string, role Role) error {
	return r.update(r.db.WithContext(ctx).Model(&Identity{}).
		Where("id = ? AND registration_status = ?", id, RegistrationPending), map[string]any{
		"is_active":           true,
		"is_self_registered":  false,
		"registration_status": RegistrationApproved,
		"role":                role,
	})
}

func (r *repository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(r.db.WithContext(ctx).Model(&Identity{}).
		Where("id = ? AND registration_status = ?", id, RegistrationApproved), map[string]any{
		"is_active": active,
	})
}

func (r *repository) DeletePending(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND registration_status = ? AND is_self_registered = ?", id, RegistrationPending, true).
		Delete(&Identity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

func (r *repository) update(query *gorm.DB, fields map[string]any) error {
	result := query.Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIdentityNotFound
	}
	return nil
}
