package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevocationStore remembers logged-out token ids until the tokens would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, token RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type revocationRepository struct {
	db *gorm.DB
}

func NewRevocationRepository(db *gorm.DB) RevocationStore {
	return &revocationRepository{db: db}
}

func (r *revocationRepository) Revoke(ctx context.Context, token RevokedToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&token).Error
}

func (r *revocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var token RevokedToken
	err := r.db.WithContext(ctx).Select("token_id").Where("token_id = ?", tokenID).Take(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *revocationRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&RevokedToken{})
	return result.RowsAffected, result.Error
}
