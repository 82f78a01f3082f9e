package tokens

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/entities"
)

// GormStore persists tokens through the ORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates an ORM-backed token store. The auth_tokens table is
// expected to exist (bootstrap migrates it).
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, userID uint, typ entities.TokenType, value string, expiresAt *time.Time) (*entities.Token, error) {
	token := &entities.Token{
		UserID:    userID,
		Type:      typ,
		Value:     value,
		ExpiresAt: expiresAt,
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, &guard.StorageError{Op: "create token", Err: err}
	}
	return token, nil
}

func (s *GormStore) FindActive(ctx context.Context, value string, typ entities.TokenType) (*entities.Token, error) {
	var token entities.Token
	err := s.db.WithContext(ctx).
		Where("value = ? AND type = ? AND revoked = ?", value, typ, false).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.ErrTokenNotFound
		}
		return nil, &guard.StorageError{Op: "find active token", Err: err}
	}
	return &token, nil
}

func (s *GormStore) Revoke(ctx context.Context, value string) error {
	err := s.db.WithContext(ctx).Model(&entities.Token{}).
		Where("value = ?", value).
		Update("revoked", true).Error
	if err != nil {
		return &guard.StorageError{Op: "revoke token", Err: err}
	}
	return nil
}

func (s *GormStore) RevokeAllForUser(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&entities.Token{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
	if err != nil {
		return &guard.StorageError{Op: "revoke user tokens", Err: err}
	}
	return nil
}

func (s *GormStore) RevokeAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).Model(&entities.Token{}).
		Where("revoked = ?", false).
		Update("revoked", true).Error
	if err != nil {
		return &guard.StorageError{Op: "revoke all tokens", Err: err}
	}
	return nil
}

func (s *GormStore) ListForUser(ctx context.Context, userID uint, typ entities.TokenType, includeRevoked bool) ([]entities.Token, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, typ).
		Order("id ASC")
	if !includeRevoked {
		q = q.Where("revoked = ?", false)
	}

	var list []entities.Token
	if err := q.Find(&list).Error; err != nil {
		return nil, &guard.StorageError{Op: "list tokens", Err: err}
	}
	return list, nil
}
