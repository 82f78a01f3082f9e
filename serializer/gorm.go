package serializer

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/entities"
	"github.com/guardkit/guard/hashing"
)

// Gorm locates users through the ORM. The uid column (e.g. "email" or
// "username") is configurable per authenticator.
type Gorm struct {
	db     *gorm.DB
	uid    string
	hasher hashing.Hasher
}

// NewGorm creates an ORM-backed serializer. uidColumn defaults to "email".
func NewGorm(db *gorm.DB, uidColumn string, hasher hashing.Hasher) (*Gorm, error) {
	if uidColumn == "" {
		uidColumn = "email"
	}
	if !columnPattern.MatchString(uidColumn) {
		return nil, fmt.Errorf("invalid uid column %q", uidColumn)
	}
	return &Gorm{db: db, uid: uidColumn, hasher: hasher}, nil
}

func (s *Gorm) FindByUID(ctx context.Context, uid string) (*entities.User, error) {
	var user entities.User
	err := s.db.WithContext(ctx).Where(s.uid+" = ?", uid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.ErrUserNotFound
		}
		return nil, &guard.StorageError{Op: "find user by uid", Err: err}
	}
	return &user, nil
}

func (s *Gorm) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.ErrUserNotFound
		}
		return nil, &guard.StorageError{Op: "find user by id", Err: err}
	}
	return &user, nil
}

func (s *Gorm) ValidateCredentials(user *entities.User, password string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return s.hasher.Verify(password, user.PasswordHash)
}
