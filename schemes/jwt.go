package schemes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/codec"
	"github.com/guardkit/guard/entities"
	"github.com/guardkit/guard/serializer"
	"github.com/guardkit/guard/tokens"
)

// DefaultAccessTokenTTL is the bearer token lifetime used when none is
// configured.
const DefaultAccessTokenTTL = 15 * time.Minute

// DefaultRefreshTokenTTL is the refresh token lifetime used when none is
// configured.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// JWTOptions are the signing and validation parameters supplied at
// configuration time. Expiry and not-before are evaluated against the wall
// clock at verification.
type JWTOptions struct {
	// Algorithm is the HMAC signing method: HS256 (default), HS384 or HS512.
	Algorithm string
	Secret    []byte

	ExpiresIn time.Duration
	NotBefore time.Duration
	Audience  string
	Issuer    string
	Subject   string

	RefreshTTL time.Duration
}

// JWTConfig is the static wiring for a JWT authenticator.
type JWTConfig struct {
	Serializer serializer.Serializer
	Store      tokens.Store
	Codec      codec.Codec
	Options    JWTOptions
}

// Claims is the payload encoded into issued bearer tokens: the registered
// claim set plus the user's primary key and optional caller data.
type Claims struct {
	jwt.RegisteredClaims
	UID  uint           `json:"uid"`
	Data map[string]any `json:"data,omitempty"`
}

// JWT is the stateless bearer scheme: short-lived signed tokens carrying
// the user's primary key, optionally paired with opaque refresh tokens
// persisted in the token store.
type JWT struct {
	cfg       JWTConfig
	transport guard.Transport

	withRefresh   bool
	rotateRefresh bool
	payload       map[string]any
	user          *entities.User
}

// NewJWT binds a JWT scheme to a request. HS256 is used when no algorithm
// is configured; anything outside the HMAC family is rejected.
func NewJWT(cfg JWTConfig, t guard.Transport) (*JWT, error) {
	if cfg.Options.Algorithm == "" {
		cfg.Options.Algorithm = "HS256"
	}
	switch cfg.Options.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Options.Algorithm)
	}
	if len(cfg.Options.Secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}
	if cfg.Options.ExpiresIn == 0 {
		cfg.Options.ExpiresIn = DefaultAccessTokenTTL
	}
	if cfg.Options.RefreshTTL == 0 {
		cfg.Options.RefreshTTL = DefaultRefreshTokenTTL
	}
	return &JWT{cfg: cfg, transport: t}, nil
}

// WithRefreshToken returns a copy that also issues a persisted refresh
// token on the next Attempt or Generate.
func (j *JWT) WithRefreshToken() *JWT {
	clone := *j
	clone.withRefresh = true
	return &clone
}

// NewRefreshToken returns a copy that revokes the presented refresh token
// and issues a fresh one during GenerateForRefreshToken.
func (j *JWT) NewRefreshToken() *JWT {
	clone := *j
	clone.rotateRefresh = true
	return &clone
}

// WithPayload returns a copy whose next issued token carries the given
// extra claim data.
func (j *JWT) WithPayload(data map[string]any) *JWT {
	clone := *j
	clone.payload = data
	return &clone
}

// Attempt verifies credentials and issues a bearer token, plus a refresh
// token when WithRefreshToken was set.
func (j *JWT) Attempt(ctx context.Context, uid, password string) (*guard.Result, error) {
	user, err := j.cfg.Serializer.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, guard.ErrUserNotFound) {
			return nil, guard.ErrInvalidCredentials
		}
		return nil, err
	}
	if !j.cfg.Serializer.ValidateCredentials(user, password) {
		return nil, guard.ErrInvalidCredentials
	}
	return j.Generate(ctx, user)
}

// Generate issues a bearer token for an already-trusted user.
func (j *JWT) Generate(ctx context.Context, user *entities.User) (*guard.Result, error) {
	result, err := j.issue(user)
	if err != nil {
		return nil, err
	}
	if j.withRefresh {
		encrypted, err := j.issueRefreshToken(ctx, user)
		if err != nil {
			return nil, err
		}
		result.RefreshToken = encrypted
	}
	j.user = user
	return result, nil
}

// GenerateForRefreshToken exchanges a refresh token for a new bearer token.
// By default the refresh token record is reused untouched; with
// NewRefreshToken set, the old record is revoked and a new value returned.
// A bearer token already issued from the refresh token stays valid until
// its own expiry regardless of what happens to the refresh token here.
func (j *JWT) GenerateForRefreshToken(ctx context.Context, refreshToken string) (*guard.Result, error) {
	value, err := j.cfg.Codec.Decrypt(refreshToken)
	if err != nil {
		return nil, guard.ErrInvalidRefreshToken
	}

	token, err := j.cfg.Store.FindActive(ctx, value, entities.TokenRefresh)
	if err != nil {
		if errors.Is(err, guard.ErrTokenNotFound) {
			return nil, guard.ErrInvalidRefreshToken
		}
		return nil, err
	}

	user, err := j.cfg.Serializer.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, guard.ErrUserNotFound) {
			return nil, guard.ErrInvalidRefreshToken
		}
		return nil, err
	}

	result, err := j.issue(user)
	if err != nil {
		return nil, err
	}

	if j.rotateRefresh {
		if err := j.cfg.Store.Revoke(ctx, value); err != nil {
			return nil, err
		}
		encrypted, err := j.issueRefreshToken(ctx, user)
		if err != nil {
			return nil, err
		}
		result.RefreshToken = encrypted
	} else {
		result.RefreshToken = refreshToken
	}

	j.user = user
	return result, nil
}

// Check verifies the bearer token from the Authorization header: signature,
// expiry, not-before and the configured audience/issuer/subject. Any
// mismatch is ErrInvalidToken; an absent header is ErrCredentialsMissing.
func (j *JWT) Check(ctx context.Context) error {
	if j.user != nil {
		return nil
	}

	raw, ok := bearerToken(j.transport)
	if !ok {
		return guard.ErrCredentialsMissing
	}

	claims := &Claims{}
	parser := jwt.NewParser(j.parserOptions()...)
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return j.cfg.Options.Secret, nil
	})
	if err != nil {
		return guard.ErrInvalidToken
	}

	user, err := j.cfg.Serializer.FindByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, guard.ErrUserNotFound) {
			return guard.ErrInvalidToken
		}
		return err
	}

	j.user = user
	return nil
}

func (j *JWT) User(ctx context.Context) (*entities.User, error) {
	if err := j.Check(ctx); err != nil {
		return nil, err
	}
	return j.user, nil
}

// Logout has no meaning for signed bearer tokens; they expire on their own.
func (j *JWT) Logout(ctx context.Context) error {
	return guard.ErrUnsupported
}

// ListTokens lists the current user's active refresh tokens.
func (j *JWT) ListTokens(ctx context.Context) ([]entities.Token, error) {
	if err := j.Check(ctx); err != nil {
		return nil, err
	}
	return j.cfg.Store.ListForUser(ctx, j.user.ID, entities.TokenRefresh, false)
}

func (j *JWT) issue(user *entities.User) (*guard.Result, error) {
	now := time.Now()
	opts := j.cfg.Options

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(opts.ExpiresIn)),
		},
		UID:  user.ID,
		Data: j.payload,
	}
	if opts.NotBefore > 0 {
		claims.NotBefore = jwt.NewNumericDate(now.Add(opts.NotBefore))
	}
	if opts.Audience != "" {
		claims.Audience = jwt.ClaimStrings{opts.Audience}
	}
	if opts.Issuer != "" {
		claims.Issuer = opts.Issuer
	}
	if opts.Subject != "" {
		claims.Subject = opts.Subject
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(opts.Algorithm), claims)
	signed, err := token.SignedString(opts.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &guard.Result{Type: resultTypeBearer, Token: signed, User: user}, nil
}

func (j *JWT) issueRefreshToken(ctx context.Context, user *entities.User) (string, error) {
	value, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	expiresAt := time.Now().Add(j.cfg.Options.RefreshTTL)
	if _, err := j.cfg.Store.Create(ctx, user.ID, entities.TokenRefresh, value, &expiresAt); err != nil {
		return "", err
	}

	encrypted, err := j.cfg.Codec.Encrypt(value)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	return encrypted, nil
}

func (j *JWT) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.cfg.Options.Algorithm}),
		jwt.WithExpirationRequired(),
	}
	if j.cfg.Options.Audience != "" {
		opts = append(opts, jwt.WithAudience(j.cfg.Options.Audience))
	}
	if j.cfg.Options.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.cfg.Options.Issuer))
	}
	if j.cfg.Options.Subject != "" {
		opts = append(opts, jwt.WithSubject(j.cfg.Options.Subject))
	}
	return opts
}
