package schemes

import (
	"context"
	"errors"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/entities"
	"github.com/guardkit/guard/serializer"
)

// Basic is the stateless HTTP Basic scheme. There is no login or logout;
// every request re-verifies the uid/password pair from the Authorization
// header, and nothing is persisted.
type Basic struct {
	serializer serializer.Serializer
	transport  guard.Transport

	user *entities.User
}

// NewBasic binds a Basic scheme to a request.
func NewBasic(s serializer.Serializer, t guard.Transport) *Basic {
	return &Basic{serializer: s, transport: t}
}

// Attempt verifies explicit credentials for this request only. Like every
// Attempt, unknown uid and wrong password collapse into
// ErrInvalidCredentials.
func (b *Basic) Attempt(ctx context.Context, uid, password string) (*guard.Result, error) {
	user, err := b.serializer.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, guard.ErrUserNotFound) {
			return nil, guard.ErrInvalidCredentials
		}
		return nil, err
	}
	if !b.serializer.ValidateCredentials(user, password) {
		return nil, guard.ErrInvalidCredentials
	}
	b.user = user
	return &guard.Result{Type: "basic", User: user}, nil
}

// Check parses and verifies the Authorization header. A missing or
// malformed header is ErrCredentialsMissing; a well-formed header with an
// unknown uid is ErrUserNotFound and a wrong password
// ErrInvalidCredentials, since Check is allowed to distinguish them.
func (b *Basic) Check(ctx context.Context) error {
	if b.user != nil {
		return nil
	}

	uid, password, ok := basicCredentials(b.transport)
	if !ok {
		return guard.ErrCredentialsMissing
	}

	user, err := b.serializer.FindByUID(ctx, uid)
	if err != nil {
		return err
	}
	if !b.serializer.ValidateCredentials(user, password) {
		return guard.ErrInvalidCredentials
	}

	b.user = user
	return nil
}

func (b *Basic) User(ctx context.Context) (*entities.User, error) {
	if err := b.Check(ctx); err != nil {
		return nil, err
	}
	return b.user, nil
}

// Logout has no meaning without server-side state.
func (b *Basic) Logout(ctx context.Context) error {
	return guard.ErrUnsupported
}

func (b *Basic) Generate(ctx context.Context, user *entities.User) (*guard.Result, error) {
	return nil, guard.ErrUnsupported
}

func (b *Basic) ListTokens(ctx context.Context) ([]entities.Token, error) {
	return nil, guard.ErrUnsupported
}
