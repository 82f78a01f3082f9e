// Package guard is a pluggable authentication engine. It composes two
// independent axes: how a user record is located and validated (a
// serializer) and how authentication state travels across requests (a
// scheme). Schemes cover server-side sessions, HTTP Basic, signed bearer
// tokens and long-lived personal API tokens.
//
// # Usage
//
// Build a Manager once (usually through the bootstrap package), then bind
// it to each inbound request:
//
//	auth := manager.Auth(guard.NewHTTPTransport(w, r), sessions.Bind(r.Context()))
//	user, err := auth.User(r.Context())
//
// A different configured authenticator can be selected per call:
//
//	api, _ := auth.Use("api")
//	res, err := api.Generate(r.Context(), user)
package guard

import (
	"context"

	"github.com/guardkit/guard/entities"
)

// Result is the outcome of a successful Attempt, Login or Generate.
// Stateless schemes fill Token (and RefreshToken when one was issued);
// the session scheme only carries the resolved user.
type Result struct {
	Type         string         `json:"type"`
	Token        string         `json:"token,omitempty"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	User         *entities.User `json:"-"`
}

// Scheme is the uniform operation surface every authentication scheme
// exposes. Verbs a scheme has no meaning for return ErrUnsupported.
//
// Scheme instances are bound to a single request and must not be shared
// across requests. Builder-style configuration (Remember, WithRefreshToken)
// lives on the concrete types and returns configured copies, so a flag set
// for one call can never leak into another request.
type Scheme interface {
	// Attempt verifies a uid/password pair and establishes identity.
	// "No such user" and "wrong password" are both reported as
	// ErrInvalidCredentials so callers cannot probe which uids exist.
	Attempt(ctx context.Context, uid, password string) (*Result, error)

	// Check re-establishes identity from the request transport (session,
	// header or token). It returns ErrCredentialsMissing when nothing was
	// presented and ErrInvalidToken/ErrInvalidCredentials when something
	// was presented but rejected.
	Check(ctx context.Context) error

	// User returns the authenticated user, running Check first if needed.
	User(ctx context.Context) (*entities.User, error)

	// Logout discards the request's authentication state.
	Logout(ctx context.Context) error

	// Generate issues a token for an already-trusted user without a
	// credential check.
	Generate(ctx context.Context, user *entities.User) (*Result, error)

	// ListTokens lists the current user's active secondary tokens.
	ListTokens(ctx context.Context) ([]entities.Token, error)
}
