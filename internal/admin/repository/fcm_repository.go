package repository

import (
	"context"

	admindomain "okshouse-backend/internal/admin/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FCMTokenRepository is the registry of admin device tokens
type FCMTokenRepository interface {
	AddToken(ctx context.Context, adminID uint, token string) error
	RemoveToken(ctx context.Context, adminID uint, token string) error
	ListTokens(ctx context.Context, adminID uint) ([]string, error)
	ListAllTokens(ctx context.Context) ([]string, error)
	DeleteToken(ctx context.Context, token string) (int64, error)
}

// fcmTokenRepository implements FCMTokenRepository interface
type fcmTokenRepository struct {
	db *gorm.DB
}

// NewFCMTokenRepository creates a new instance of fcmTokenRepository
func NewFCMTokenRepository(db *gorm.DB) FCMTokenRepository {
	return &fcmTokenRepository{
		db: db,
	}
}

// AddToken registers token for adminID. A token already present for any
// admin is left untouched and no error is returned.
func (r *fcmTokenRepository) AddToken(ctx context.Context, adminID uint, token string) error {
	fcmToken := &admindomain.FCMToken{
		AdminID: adminID,
		Token:   token,
	}

	// Atomic insert: INSERT ... ON CONFLICT (fcm_token) DO NOTHING
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fcm_token"}},
		DoNothing: true,
	}).Create(fcmToken).Error
}

// RemoveToken deletes the row matching both adminID and token. No match is not an error.
func (r *fcmTokenRepository) RemoveToken(ctx context.Context, adminID uint, token string) error {
	return r.db.WithContext(ctx).
		Where("admin_id = ? AND fcm_token = ?", adminID, token).
		Delete(&admindomain.FCMToken{}).Error
}

// ListTokens returns the admin's tokens in registration order
func (r *fcmTokenRepository) ListTokens(ctx context.Context, adminID uint) ([]string, error) {
	tokens := []string{}
	err := r.db.WithContext(ctx).Model(&admindomain.FCMToken{}).
		Where("admin_id = ?", adminID).
		Order("id").
		Pluck("fcm_token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *fcmTokenRepository) ListAllTokens(ctx context.Context) ([]string, error) {
	tokens := []string{}
	if err := r.db.WithContext(ctx).Model(&admindomain.FCMToken{}).Pluck("fcm_token", &tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteToken removes a token regardless of owner and reports the rows removed
func (r *fcmTokenRepository) DeleteToken(ctx context.Context, token string) (int64, error) {
	result := r.db.WithContext(ctx).Where("fcm_token = ?", token).Delete(&admindomain.FCMToken{})
	return result.RowsAffected, result.Error
}
