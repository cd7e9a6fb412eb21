package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
)

func TestService_Login(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*Identity)
		identifier string
		password   string
		wantCode   apperr.Code
		wantStatus int
	}{
		{
			name:       "valid credentials by email",
			identifier: "abebe@aitb.et",
			password:   testPassword,
		},
		{
			name:       "email lookup is case insensitive",
			identifier: "  Abebe@AITB.et ",
			password:   testPassword,
		},
		{
			name:       "valid credentials by username",
			identifier: "abebe",
			password:   testPassword,
		},
		{
			name:       "wrong password",
			identifier: "abebe@aitb.et",
			password:   "Wrong1234",
			wantCode:   apperr.CodeInvalidCredentials,
			wantStatus: 401,
		},
		{
			name:       "unknown identity",
			identifier: "nobody@aitb.et",
			password:   testPassword,
			wantCode:   apperr.CodeInvalidCredentials,
			wantStatus: 401,
		},
		{
			name:       "missing fields",
			identifier: "",
			password:   "",
			wantCode:   apperr.CodeValidation,
			wantStatus: 400,
		},
		{
			name: "pending registration",
			setup: func(i *Identity) {
				i.IsActive = false
				i.IsSelfRegistered = true
				i.RegistrationStatus = RegistrationPending
			},
			identifier: "abebe@aitb.et",
			password:   testPassword,
			wantCode:   apperr.CodeAccountPending,
			wantStatus: 403,
		},
		{
			name: "deactivated account",
			setup: func(i *Identity) {
				i.IsActive = false
			},
			identifier: "abebe@aitb.et",
			password:   testPassword,
			wantCode:   apperr.CodeAccountDeactivated,
			wantStatus: 403,
		},
		{
			name: "locked account rejects correct password",
			setup: func(i *Identity) {
				until := time.Now().Add(10 * time.Minute)
				i.LockUntil = &until
				i.FailedLoginAttempts = 5
			},
			identifier: "abebe@aitb.et",
			password:   testPassword,
			wantCode:   apperr.CodeAccountLocked,
			wantStatus: 401,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			identity := env.seed(t, tt.setup)

			result, err := env.service.Login(context.Background(), tt.identifier, tt.password)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperr.HasCode(err, tt.wantCode), "got %v", err)
				assert.Equal(t, tt.wantStatus, apperr.From(err).HTTPStatus())
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, result.Token.Token)
			assert.Equal(t, identity.ID, result.Identity.ID)
			assert.False(t, result.MustChangePassword)

			claims, err := env.verifier.Parse(result.Token.Token)
			require.NoError(t, err)
			assert.Equal(t, identity.ID, claims.Subject)
			assert.Equal(t, RoleEmployee, claims.Role)
		})
	}
}

func TestService_LoginInactiveCarriesSummary(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, func(i *Identity) {
		i.IsActive = false
		i.RegistrationStatus = RegistrationPending
	})

	_, err := env.service.Login(context.Background(), "abebe", testPassword)
	require.Error(t, err)

	e := apperr.From(err)
	assert.True(t, e.Inactive)
	summary, ok := e.User.(Summary)
	require.True(t, ok)
	assert.Equal(t, "abebe", summary.Username)
	assert.False(t, summary.IsActive)
}

func TestService_LockoutAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	identity := env.seed(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := env.service.Login(ctx, "abebe@aitb.et", "Wrong1234")
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials), "attempt %d: %v", i+1, err)
	}

	stored, err := env.repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockUntil)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *stored.LockUntil, time.Minute)

	_, err = env.service.Login(ctx, "abebe@aitb.et", testPassword)
	require.Error(t, err)
	e := apperr.From(err)
	assert.Equal(t, apperr.CodeAccountLocked, e.Code)
	assert.Equal(t, 401, e.HTTPStatus())
	assert.Greater(t, e.RetryAfter, time.Duration(0))
	assert.Contains(t, env.recorder.logins, OutcomeLocked)
}

func TestService_ExpiredLockRestartsCounter(t *testing.T) {
	env := newTestEnv(t)
	identity := env.seed(t, func(i *Identity) {
		past := time.Now().Add(-time.Minute)
		i.LockUntil = &past
		i.FailedLoginAttempts = 5
	})
	ctx := context.Background()

	_, err := env.service.Login(ctx, "abebe", "Wrong1234")
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials))

	stored, err := env.repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockUntil)
}

func TestService_SuccessfulLoginResetsCounter(t *testing.T) {
	env := newTestEnv(t)
	identity := env.seed(t, func(i *Identity) {
		i.FailedLoginAttempts = 3
	})
	ctx := context.Background()

	_, err := env.service.Login(ctx, "abebe", testPassword)
	require.NoError(t, err)

	stored, err := env.repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockUntil)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestService_CancelledLoginLeavesCounters(t *testing.T) {
	env := newTestEnv(t)
	identity := env.seed(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.service.Login(ctx, "abebe", "Wrong1234")
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := env.repo.GetByID(context.Background(), identity.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginAttempts)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name      string
		input     NewIdentity
		wantField string
	}{
		{
			name: "self registration starts pending",
			input: NewIdentity{
				FullName: "Sara Tesfaye",
				Email:    "sara@aitb.et",
				Username: "sara_t",
				Phone:    "0922334455",
				Password: "Secur3Pass",
				Role:     "admin",
			},
		},
		{
			name: "duplicate email",
			input: NewIdentity{
				FullName: "Another Abebe",
				Email:    "ABEBE@aitb.et",
				Username: "abebe2",
				Phone:    "0933445566",
				Password: "Secur3Pass",
			},
			wantField: "email",
		},
		{
			name: "weak password",
			input: NewIdentity{
				FullName: "Weak Pass",
				Email:    "weak@aitb.et",
				Username: "weak",
				Phone:    "0944556677",
				Password: "password",
			},
			wantField: "password",
		},
		{
			name: "invalid username and phone",
			input: NewIdentity{
				FullName: "Bad Input",
				Email:    "bad@aitb.et",
				Username: "a!",
				Phone:    "12",
				Password: "Secur3Pass",
			},
			wantField: "username",
		},
		{
			name: "password longer than bcrypt accepts",
			input: NewIdentity{
				FullName: "Long Pass",
				Email:    "long@aitb.et",
				Username: "longpass",
				Phone:    "0966778899",
				Password: "Aa1" + strings.Repeat("x", 80),
			},
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, nil)

			summary, err := env.service.Register(context.Background(), tt.input)
			if tt.wantField != "" {
				require.Error(t, err)
				e := apperr.From(err)
				assert.Equal(t, apperr.CodeValidation, e.Code)
				var fields []string
				for _, f := range e.Fields {
					fields = append(fields, f.Field)
				}
				assert.Contains(t, fields, tt.wantField)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, RoleEmployee, summary.Role)
			assert.False(t, summary.IsActive)
			assert.Equal(t, RegistrationPending, summary.RegistrationStatus)
			assert.Contains(t, summary.EmployeeNumber, "EMP-")

			_, err = env.service.Login(context.Background(), tt.input.Email, tt.input.Password)
			assert.True(t, apperr.HasCode(err, apperr.CodeAccountPending))
		})
	}
}

func TestService_CreateByAdminWithTemporaryPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateByAdmin(ctx, NewIdentity{
		FullName: "Hana Girma",
		Email:    "hana@aitb.et",
		Username: "hana",
		Phone:    "0955667788",
		Role:     "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleHR, created.Identity.Role)
	assert.True(t, created.Identity.IsActive)
	require.Len(t, created.TemporaryPassword, 16)

	result, err := env.service.Login(ctx, "hana", created.TemporaryPassword)
	require.NoError(t, err)
	assert.True(t, result.MustChangePassword)

	session, err := env.guard.Authenticate(ctx, result.Token.Token)
	require.NoError(t, err)

	_, err = env.service.ChangePassword(ctx, session, created.TemporaryPassword, "N3wPassword")
	require.NoError(t, err)

	result, err = env.service.Login(ctx, "hana", "N3wPassword")
	require.NoError(t, err)
	assert.False(t, result.MustChangePassword)

	_, err = env.service.Login(ctx, "hana", created.TemporaryPassword)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials))
}

func TestService_ChangePassword(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		next      string
		wantCode  apperr.Code
		wantField string
	}{
		{name: "valid change", current: testPassword, next: "An0therPass"},
		{name: "wrong current password", current: "Wrong1234", next: "An0therPass", wantCode: apperr.CodeValidation},
		{name: "same password", current: testPassword, next: testPassword, wantCode: apperr.CodeValidation},
		{name: "weak new password", current: testPassword, next: "short", wantCode: apperr.CodeValidation},
		{
			name:      "new password longer than bcrypt accepts",
			current:   testPassword,
			next:      "Aa1" + strings.Repeat("x", 80),
			wantCode:  apperr.CodeValidation,
			wantField: "newPassword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, nil)
			ctx := context.Background()

			login, err := env.service.Login(ctx, "abebe", testPassword)
			require.NoError(t, err)
			session, err := env.guard.Authenticate(ctx, login.Token.Token)
			require.NoError(t, err)

			token, err := env.service.ChangePassword(ctx, session, tt.current, tt.next)
			if tt.wantCode != "" {
				assert.True(t, apperr.HasCode(err, tt.wantCode), "got %v", err)
				if tt.wantField != "" {
					require.NotEmpty(t, apperr.From(err).Fields)
					assert.Equal(t, tt.wantField, apperr.From(err).Fields[0].Field)
				}
				return
			}
			require.NoError(t, err)

			// The old token is revoked and the new one works.
			_, err = env.guard.Authenticate(ctx, login.Token.Token)
			assert.True(t, apperr.HasCode(err, apperr.CodeTokenRevoked), "got %v", err)
			_, err = env.guard.Authenticate(ctx, token.Token)
			assert.NoError(t, err)
		})
	}
}

func TestService_Logout(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, nil)
	ctx := context.Background()

	login, err := env.service.Login(ctx, "abebe", testPassword)
	require.NoError(t, err)
	session, err := env.guard.Authenticate(ctx, login.Token.Token)
	require.NoError(t, err)

	require.NoError(t, env.service.Logout(ctx, session))
	require.NoError(t, env.service.Logout(ctx, session))

	_, err = env.guard.Authenticate(ctx, login.Token.Token)
	assert.True(t, apperr.HasCode(err, apperr.CodeTokenRevoked))
	assert.Contains(t, env.recorder.rejected, string(apperr.CodeTokenRevoked))
}

func TestService_ApproveRejectAndActivation(t *testing.T) {
	ctx := context.Background()
	pending := func(i *Identity) {
		i.IsActive = false
		i.IsSelfRegistered = true
		i.RegistrationStatus = RegistrationPending
	}

	t.Run("approve with role override", func(t *testing.T) {
		env := newTestEnv(t)
		identity := env.seed(t, pending)

		summary, err := env.service.Approve(ctx, identity.ID, "hr")
		require.NoError(t, err)
		assert.Equal(t, RoleHR, summary.Role)
		assert.True(t, summary.IsActive)
		assert.Equal(t, RegistrationApproved, summary.RegistrationStatus)

		_, err = env.service.Login(ctx, "abebe", testPassword)
		assert.NoError(t, err)
	})

	t.Run("approve with invalid role", func(t *testing.T) {
		env := newTestEnv(t)
		identity := env.seed(t, pending)

		_, err := env.service.Approve(ctx, identity.ID, "intern")
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})

	t.Run("approve an already approved account", func(t *testing.T) {
		env := newTestEnv(t)
		identity := env.seed(t, nil)

		_, err := env.service.Approve(ctx, identity.ID, "")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("reject removes the registration", func(t *testing.T) {
		env := newTestEnv(t)
		identity := env.seed(t, pending)

		require.NoError(t, env.service.Reject(ctx, identity.ID, "duplicate"))
		_, err := env.service.Get(ctx, identity.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("reject an approved account", func(t *testing.T) {
		env := newTestEnv(t)
		identity := env.seed(t, nil)

		err := env.service.Reject(ctx, identity.ID, "")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("deactivate then activate", func(t *testing.T) {
		env := newTestEnv(t)
		identity := env.seed(t, nil)

		login, err := env.service.Login(ctx, "abebe", testPassword)
		require.NoError(t, err)

		summary, err := env.service.SetActive(ctx, identity.ID, false)
		require.NoError(t, err)
		assert.False(t, summary.IsActive)

		_, err = env.guard.Authenticate(ctx, login.Token.Token)
		assert.True(t, apperr.HasCode(err, apperr.CodeAccountDeactivated))

		_, err = env.service.SetActive(ctx, identity.ID, true)
		require.NoError(t, err)
		_, err = env.guard.Authenticate(ctx, login.Token.Token)
		assert.NoError(t, err)
	})
}

func TestService_ListAndUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	identity := env.seed(t, nil)
	ctx := context.Background()

	_, err := env.service.Register(ctx, NewIdentity{
		FullName: "Sara Tesfaye",
		Email:    "sara@aitb.et",
		Username: "sara_t",
		Phone:    "0922334455",
		Password: "Secur3Pass",
	})
	require.NoError(t, err)

	all, err := env.service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := env.service.List(ctx, RegistrationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "sara_t", pending[0].Username)

	count, err := env.service.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = env.service.Approve(ctx, pending[0].ID, "")
	require.NoError(t, err)
	count, err = env.service.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	updated, err := env.service.UpdateProfile(ctx, identity.ID, "Abebe K. Bekele", "")
	require.NoError(t, err)
	assert.Equal(t, "Abebe K. Bekele", updated.FullName)
	assert.Equal(t, "0911223344", updated.Phone)

	_, err = env.service.UpdateProfile(ctx, identity.ID, "", "0922334455")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = env.service.UpdateProfile(ctx, "missing", "Name", "")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
