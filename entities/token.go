package entities

import (
	"time"
)

// TokenType distinguishes the secondary credentials the engine issues.
type TokenType string

const (
	TokenRemember TokenType = "remember" // re-establishes a session without credentials
	TokenRefresh  TokenType = "refresh"  // mints new short-lived bearer tokens
	TokenAPI      TokenType = "api"      // long-lived personal access token
)

// Token is a secondary proof of identity tied to a user. Rows are never
// deleted; revocation flips the Revoked flag so audit history survives.
type Token struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Type      TokenType  `gorm:"index;size:20;not null" json:"type"`
	Value     string     `gorm:"uniqueIndex;size:128;not null" json:"-"`
	Revoked   bool       `gorm:"not null;default:false" json:"revoked"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Token) TableName() string {
	return "auth_tokens"
}

// Expired reports whether the token is past its expiry at the given instant.
// Tokens without an expiry never expire.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
