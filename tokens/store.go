// Package tokens persists the engine's secondary credentials: remember,
// refresh and personal API tokens. Revocation is always logical (a flag),
// never a row delete, so audit history survives.
package tokens

import (
	"context"
	"time"

	"github.com/guardkit/guard/entities"
)

// Store is the token persistence contract. Implementations must make a
// revocation immediately visible to subsequent FindActive calls; no caching
// layer is allowed in front of them.
type Store interface {
	// Create persists a new token. expiresAt may be nil for tokens that
	// never expire.
	Create(ctx context.Context, userID uint, typ entities.TokenType, value string, expiresAt *time.Time) (*entities.Token, error)

	// FindActive looks up a token by value and type. Revoked and expired
	// tokens are filtered inside the query itself, not as a post-check,
	// which closes the race between a concurrent revocation and use.
	// Returns guard.ErrTokenNotFound when no active token matches.
	FindActive(ctx context.Context, value string, typ entities.TokenType) (*entities.Token, error)

	// Revoke flags a token. Revoking an already-revoked or unknown token
	// is a no-op success.
	Revoke(ctx context.Context, value string) error

	// RevokeAllForUser flags every active token belonging to the user.
	RevokeAllForUser(ctx context.Context, userID uint) error

	// RevokeAll flags every active token in the store.
	RevokeAll(ctx context.Context) error

	// ListForUser returns the user's tokens of the given type in insertion
	// order. Revoked tokens are excluded unless includeRevoked is set.
	ListForUser(ctx context.Context, userID uint, typ entities.TokenType, includeRevoked bool) ([]entities.Token, error)
}
