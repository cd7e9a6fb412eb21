package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "username", "role", "is_active", "registration_status"}).
		AddRow("7a4c1b9e-3f55-4a43-9d5a-0a6f2b1c8e01", "abebe@aitb.et", "abebe", "hr", true, "approved")
	mock.ExpectQuery(`SELECT \* FROM "employees" WHERE email = \$1`).WillReturnRows(rows)

	identity, err := repo.GetByEmail(context.Background(), "abebe@aitb.et")
	require.NoError(t, err)
	assert.Equal(t, "abebe", identity.Username)
	assert.Equal(t, RoleHR, identity.Role)
	assert.True(t, identity.IsActive)

	mock.ExpectQuery(`SELECT \* FROM "employees" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordFailedLogin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	now := time.Now()
	lockUntil := now.Add(30 * time.Minute)

	mock.ExpectQuery(`UPDATE employees SET`).
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts", "lock_until"}).AddRow(5, lockUntil))

	attempt, err := repo.RecordFailedLogin(context.Background(), "id-1", 5, lockUntil, now)
	require.NoError(t, err)
	assert.Equal(t, 5, attempt.FailedAttempts)
	require.NotNil(t, attempt.LockUntil)
	assert.WithinDuration(t, lockUntil, *attempt.LockUntil, time.Second)

	mock.ExpectQuery(`UPDATE employees SET`).
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts", "lock_until"}))
	_, err = repo.RecordFailedLogin(context.Background(), "missing", 5, lockUntil, now)
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(`INSERT INTO "employees"`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "employees_email_key"})
	err := repo.CreateIdentity(context.Background(), &Identity{Email: "abebe@aitb.et"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"email"}, conflict.Fields)
	assert.ErrorIs(t, err, ErrIdentityExists)

	mock.ExpectExec(`UPDATE "employees" SET`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "employees_phone_key"})
	err = repo.UpdateProfile(context.Background(), "id-1", "", "0911223344")
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"phone"}, conflict.Fields)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeletePending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(`DELETE FROM "employees"`).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeletePending(context.Background(), "id-1"))

	mock.ExpectExec(`DELETE FROM "employees"`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeletePending(context.Background(), "id-2"), ErrIdentityNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocationRepository(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewRevocationRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT "token_id" FROM "revoked_tokens" WHERE token_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"token_id"}).AddRow("jti-1"))
	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectQuery(`SELECT "token_id" FROM "revoked_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"token_id"}))
	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mock.ExpectExec(`DELETE FROM "revoked_tokens" WHERE expires_at <= \$1`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	removed, err := store.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}
