package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
	RoleAdmin    Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleEmployee, RoleHR, RoleAdmin}

// ParseRole normalizes s and reports whether it names a valid role. "manager" is accepted as
// an alias for hr.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleEmployee):
		return RoleEmployee, true
	case string(RoleHR), "manager":
		return RoleHR, true
	case string(RoleAdmin):
		return RoleAdmin, true
	}
	return "", false
}

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Identity is one employee account. Hash columns never serialize.
type Identity struct {
	ID                    string             `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeNumber        string             `gorm:"uniqueIndex;not null" json:"employeeNumber"`
	FullName              string             `gorm:"not null" json:"fullName"`
	Email                 string             `gorm:"uniqueIndex;not null" json:"email"`
	Username              string             `gorm:"uniqueIndex;not null" json:"username"`
	Phone                 string             `gorm:"uniqueIndex;not null" json:"phone"`
	PasswordHash          string             `gorm:"not null" json:"-"`
	TemporaryPasswordHash *string            `json:"-"`
	Role                  Role               `gorm:"type:varchar(16);not null" json:"role"`
	IsActive              bool               `gorm:"not null;default:false" json:"isActive"`
	IsSelfRegistered      bool               `gorm:"not null;default:false" json:"isSelfRegistered"`
	RegistrationStatus    RegistrationStatus `gorm:"type:varchar(16);not null" json:"registrationStatus"`
	PasswordChangedAt     *time.Time         `json:"-"`
	FailedLoginAttempts   int                `gorm:"not null;default:0" json:"-"`
	LockUntil             *time.Time         `json:"-"`
	LastLoginAt           *time.Time         `json:"lastLoginAt,omitempty"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

func (Identity) TableName() string {
	return "employees"
}

func (i *Identity) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.EmployeeNumber == "" {
		i.EmployeeNumber = newEmployeeNumber()
	}
	return nil
}

func newEmployeeNumber() string {
	return "EMP-" + ulid.Make().String()
}

// IsLocked reports whether the account is inside a lockout window at now.
func (i *Identity) IsLocked(now time.Time) bool {
	return i.LockUntil != nil && i.LockUntil.After(now)
}

// LockRemaining returns how long the lockout lasts past now, or zero.
func (i *Identity) LockRemaining(now time.Time) time.Duration {
	if !i.IsLocked(now) {
		return 0
	}
	return i.LockUntil.Sub(now)
}

// IsPending reports whether the account is awaiting registration approval.
func (i *Identity) IsPending() bool {
	return !i.IsActive && i.RegistrationStatus == RegistrationPending
}

// ChangedPasswordAfter reports whether the password changed after a token issued at issuedAt.
// Both sides are compared at second resolution, matching JWT timestamps.
func (i *Identity) ChangedPasswordAfter(issuedAt time.Time) bool {
	if i.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < i.PasswordChangedAt.Unix()
}

// Summary is the public view of an identity.
type Summary struct {
	ID                 string             `json:"id"`
	EmployeeNumber     string             `json:"employeeNumber"`
	FullName           string             `json:"fullName"`
	Email              string             `json:"email"`
	Username           string             `json:"username"`
	Role               Role               `json:"role"`
	IsActive           bool               `json:"isActive"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
}

func (i *Identity) Summary() Summary {
	return Summary{
		ID:                 i.ID,
		EmployeeNumber:     i.EmployeeNumber,
		FullName:           i.FullName,
		Email:              i.Email,
		Username:           i.Username,
		Role:               i.Role,
		IsActive:           i.IsActive,
		RegistrationStatus: i.RegistrationStatus,
	}
}

// RevokedToken is a logged-out token kept until its natural expiry.
type RevokedToken struct {
	TokenID    string    `gorm:"primaryKey"`
	IdentityID string    `gorm:"type:uuid;not null;index"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	RevokedAt  time.Time `gorm:"not null"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
