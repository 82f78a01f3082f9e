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

// DefaultRememberCookie is the remember-me cookie name used when none is
// configured.
const DefaultRememberCookie = "remember_token"

// DefaultRememberTTL is how long remember tokens stay valid by default.
const DefaultRememberTTL = 30 * 24 * time.Hour

// SessionConfig is the static wiring for a session authenticator.
type SessionConfig struct {
	Serializer serializer.Serializer
	Store      tokens.Store
	Codec      codec.Codec

	// CookieName and RememberTTL control the remember-me side channel.
	CookieName  string
	RememberTTL time.Duration
}

// Session is the stateful scheme: identity persists in a server-side
// session, optionally backed by an encrypted remember-me cookie.
type Session struct {
	cfg       SessionConfig
	transport guard.Transport
	session   guard.Session

	remember bool
	user     *entities.User
}

// NewSession binds a session scheme to a request.
func NewSession(cfg SessionConfig, t guard.Transport, s guard.Session) *Session {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultRememberCookie
	}
	if cfg.RememberTTL == 0 {
		cfg.RememberTTL = DefaultRememberTTL
	}
	return &Session{cfg: cfg, transport: t, session: s}
}

// Remember returns a copy of the scheme that will issue a remember token on
// the next Attempt, Login or LoginViaID. The receiver is not modified, so
// the flag cannot leak into other calls.
func (s *Session) Remember(flag bool) *Session {
	clone := *s
	clone.remember = flag
	return &clone
}

// Attempt verifies credentials and logs the user in. Unknown uid and wrong
// password are indistinguishable to the caller.
func (s *Session) Attempt(ctx context.Context, uid, password string) (*guard.Result, error) {
	user, err := s.cfg.Serializer.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, guard.ErrUserNotFound) {
			return nil, guard.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.cfg.Serializer.ValidateCredentials(user, password) {
		return nil, guard.ErrInvalidCredentials
	}
	return s.Login(ctx, user)
}

// Login writes the user's primary key into the session without any
// credential check; the caller vouches for the identity. The session token
// is renewed first to prevent fixation.
func (s *Session) Login(ctx context.Context, user *entities.User) (*guard.Result, error) {
	if err := s.session.Renew(); err != nil {
		return nil, fmt.Errorf("failed to renew session: %w", err)
	}
	s.session.Put(SessionKeyUserID, user.ID)
	s.user = user

	if s.remember {
		if err := s.issueRememberToken(ctx, user); err != nil {
			return nil, err
		}
	}

	return &guard.Result{Type: resultTypeSession, User: user}, nil
}

// LoginViaID resolves the user by primary key and logs them in.
func (s *Session) LoginViaID(ctx context.Context, id uint) (*guard.Result, error) {
	user, err := s.cfg.Serializer.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Login(ctx, user)
}

// Check reads the session identity, falling back to the remember cookie
// when the session is empty. A usable remember token re-establishes the
// session. Nothing presented at all is ErrCredentialsMissing; a cookie
// that is present but undecryptable, revoked, expired or orphaned is
// ErrInvalidToken. Neither path reveals whether a given uid exists.
func (s *Session) Check(ctx context.Context) error {
	if s.user != nil {
		return nil
	}

	if v, ok := s.session.Get(SessionKeyUserID); ok {
		if id, ok := sessionUserID(v); ok {
			user, err := s.cfg.Serializer.FindByID(ctx, id)
			if err == nil {
				s.user = user
				return nil
			}
			if !errors.Is(err, guard.ErrUserNotFound) {
				return err
			}
			// Session points at a user that no longer exists; discard it
			// and fall through to the remember token.
			if err := s.session.Destroy(); err != nil {
				return fmt.Errorf("failed to destroy session: %w", err)
			}
		}
	}

	return s.checkRememberToken(ctx)
}

// User returns the authenticated user, running Check first if needed.
func (s *Session) User(ctx context.Context) (*entities.User, error) {
	if err := s.Check(ctx); err != nil {
		return nil, err
	}
	return s.user, nil
}

// Logout clears the session identity and the remember cookie. The remember
// token row is not revoked; revocation stays an explicit store operation.
func (s *Session) Logout(ctx context.Context) error {
	s.user = nil
	s.transport.ClearCookie(s.cfg.CookieName)
	return s.session.Destroy()
}

// Generate has no meaning for the session scheme.
func (s *Session) Generate(ctx context.Context, user *entities.User) (*guard.Result, error) {
	return nil, guard.ErrUnsupported
}

// ListTokens has no meaning for the session scheme.
func (s *Session) ListTokens(ctx context.Context) ([]entities.Token, error) {
	return nil, guard.ErrUnsupported
}

func (s *Session) issueRememberToken(ctx context.Context, user *entities.User) error {
	value, err := randomToken()
	if err != nil {
		return fmt.Errorf("failed to generate remember token: %w", err)
	}
	expiresAt := time.Now().Add(s.cfg.RememberTTL)
	if _, err := s.cfg.Store.Create(ctx, user.ID, entities.TokenRemember, value, &expiresAt); err != nil {
		return err
	}

	encrypted, err := s.cfg.Codec.Encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt remember token: %w", err)
	}
	s.transport.SetCookie(s.cfg.CookieName, encrypted, s.cfg.RememberTTL)
	return nil
}

func (s *Session) checkRememberToken(ctx context.Context) error {
	encrypted, err := s.transport.Cookie(s.cfg.CookieName)
	if err != nil || encrypted == "" {
		return guard.ErrCredentialsMissing
	}

	value, err := s.cfg.Codec.Decrypt(encrypted)
	if err != nil {
		return guard.ErrInvalidToken
	}

	token, err := s.cfg.Store.FindActive(ctx, value, entities.TokenRemember)
	if err != nil {
		if errors.Is(err, guard.ErrTokenNotFound) {
			return guard.ErrInvalidToken
		}
		return err
	}

	user, err := s.cfg.Serializer.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, guard.ErrUserNotFound) {
			return guard.ErrInvalidToken
		}
		return err
	}

	// Re-establish the session so subsequent requests skip the fallback.
	if _, err := s.Login(ctx, user); err != nil {
		return err
	}
	return nil
}
