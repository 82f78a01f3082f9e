// Package serializer locates and validates user records. Two variants are
// provided: Gorm resolves users through the ORM, Database through plain
// database/sql queries. Both are read-only against the backend.
package serializer

import (
	"context"
	"regexp"

	"github.com/guardkit/guard/entities"
)

// Identifier columns come from configuration; restrict them to plain SQL
// identifiers so they can be interpolated into queries safely.
var columnPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Serializer resolves user records for the schemes. "No such user" is
// reported as guard.ErrUserNotFound; callers decide whether to surface it
// or collapse it into an invalid-credentials failure.
type Serializer interface {
	FindByUID(ctx context.Context, uid string) (*entities.User, error)
	FindByID(ctx context.Context, id uint) (*entities.User, error)
	// ValidateCredentials checks the plaintext password against the user's
	// stored digest.
	ValidateCredentials(user *entities.User, password string) bool
}
