package schemes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/codec"
	"github.com/guardkit/guard/entities"
	"github.com/guardkit/guard/serializer"
	"github.com/guardkit/guard/tokens"
)

// APIConfig is the static wiring for a personal API token authenticator.
type APIConfig struct {
	Serializer serializer.Serializer
	Store      tokens.Store
	Codec      codec.Codec

	// TokenTTL bounds issued tokens. Zero means tokens never expire and
	// only revocation ends them.
	TokenTTL time.Duration
}

// API is the stateless long-lived token scheme. Token values are opaque,
// persisted in the store and encrypted at the boundary.
type API struct {
	cfg       APIConfig
	transport guard.Transport

	user *entities.User
}

// NewAPI binds an API token scheme to a request.
func NewAPI(cfg APIConfig, t guard.Transport) *API {
	return &API{cfg: cfg, transport: t}
}

// Attempt verifies credentials and issues a personal API token.
func (a *API) Attempt(ctx context.Context, uid, password string) (*guard.Result, error) {
	user, err := a.cfg.Serializer.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, guard.ErrUserNotFound) {
			return nil, guard.ErrInvalidCredentials
		}
		return nil, err
	}
	if !a.cfg.Serializer.ValidateCredentials(user, password) {
		return nil, guard.ErrInvalidCredentials
	}
	return a.Generate(ctx, user)
}

// Generate creates a token for an already-trusted user, persists it in
// plaintext and returns the encrypted transmissible form.
func (a *API) Generate(ctx context.Context, user *entities.User) (*guard.Result, error) {
	value, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	var expiresAt *time.Time
	if a.cfg.TokenTTL > 0 {
		t := time.Now().Add(a.cfg.TokenTTL)
		expiresAt = &t
	}
	if _, err := a.cfg.Store.Create(ctx, user.ID, entities.TokenAPI, value, expiresAt); err != nil {
		return nil, err
	}

	encrypted, err := a.cfg.Codec.Encrypt(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt token: %w", err)
	}

	a.user = user
	return &guard.Result{Type: resultTypeBearer, Token: encrypted, User: user}, nil
}

// Check decrypts the bearer token and resolves its owner through the store.
// Absent header is ErrCredentialsMissing; everything else that fails —
// decryption, lookup of a revoked/expired/unknown value, missing owner —
// is ErrInvalidToken.
func (a *API) Check(ctx context.Context) error {
	if a.user != nil {
		return nil
	}

	token, err := a.presentedToken(ctx)
	if err != nil {
		return err
	}

	user, err := a.cfg.Serializer.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, guard.ErrUserNotFound) {
			return guard.ErrInvalidToken
		}
		return err
	}

	a.user = user
	return nil
}

func (a *API) User(ctx context.Context) (*entities.User, error) {
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	return a.user, nil
}

// Logout revokes the token presented on this request, so the credential
// the client has been using stops working immediately.
func (a *API) Logout(ctx context.Context) error {
	token, err := a.presentedToken(ctx)
	if err != nil {
		return err
	}
	if err := a.cfg.Store.Revoke(ctx, token.Value); err != nil {
		return err
	}
	a.user = nil
	return nil
}

// ListTokens lists the current user's active API tokens.
func (a *API) ListTokens(ctx context.Context) ([]entities.Token, error) {
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	return a.cfg.Store.ListForUser(ctx, a.user.ID, entities.TokenAPI, false)
}

func (a *API) presentedToken(ctx context.Context) (*entities.Token, error) {
	raw, ok := bearerToken(a.transport)
	if !ok {
		return nil, guard.ErrCredentialsMissing
	}

	value, err := a.cfg.Codec.Decrypt(raw)
	if err != nil {
		return nil, guard.ErrInvalidToken
	}

	token, err := a.cfg.Store.FindActive(ctx, value, entities.TokenAPI)
	if err != nil {
		if errors.Is(err, guard.ErrTokenNotFound) {
			return nil, guard.ErrInvalidToken
		}
		return nil, err
	}
	return token, nil
}
