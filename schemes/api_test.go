package schemes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/entities"
)

func newAPIScheme(env *testEnv, transport *fakeTransport) *API {
	return NewAPI(APIConfig{
		Serializer: env.serializer,
		Store:      env.store,
		Codec:      env.codec,
	}, transport)
}

func TestAPIAttemptAndCheck(t *testing.T) {
	env := setupEnv(t)
	scheme := newAPIScheme(env, newFakeTransport())

	res, err := scheme.Attempt(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Type)
	require.NotEmpty(t, res.Token)

	// Stored plaintext, transmitted encrypted.
	raw, err := env.codec.Decrypt(res.Token)
	require.NoError(t, err)
	stored, err := env.store.FindActive(context.Background(), raw, entities.TokenAPI)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, stored.UserID)
	assert.Nil(t, stored.ExpiresAt)

	transport := newFakeTransport()
	transport.headers["Authorization"] = "Bearer " + res.Token
	checker := newAPIScheme(env, transport)

	user, err := checker.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, user.ID)
}

func TestAPIAttemptFailuresAreUniform(t *testing.T) {
	env := setupEnv(t)
	scheme := newAPIScheme(env, newFakeTransport())

	_, err := scheme.Attempt(context.Background(), "nobody@x.com", testPassword)
	assert.ErrorIs(t, err, guard.ErrInvalidCredentials)
	_, err = scheme.Attempt(context.Background(), testEmail, "wrong")
	assert.ErrorIs(t, err, guard.ErrInvalidCredentials)
}

func TestAPICheckFailures(t *testing.T) {
	env := setupEnv(t)

	unknown, err := env.codec.Encrypt("never-issued")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing header", "", guard.ErrCredentialsMissing},
		{"not encrypted", "Bearer plain-garbage", guard.ErrInvalidToken},
		{"unknown value", "Bearer " + unknown, guard.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := newFakeTransport()
			if tt.header != "" {
				transport.headers["Authorization"] = tt.header
			}
			scheme := newAPIScheme(env, transport)
			assert.ErrorIs(t, scheme.Check(context.Background()), tt.wantErr)
		})
	}
}

func TestAPIRevocationIsImmediate(t *testing.T) {
	env := setupEnv(t)
	res, err := newAPIScheme(env, newFakeTransport()).Generate(context.Background(), env.user)
	require.NoError(t, err)

	transport := newFakeTransport()
	transport.headers["Authorization"] = "Bearer " + res.Token

	// Valid before revocation.
	require.NoError(t, newAPIScheme(env, transport).Check(context.Background()))

	raw, err := env.codec.Decrypt(res.Token)
	require.NoError(t, err)
	require.NoError(t, env.store.Revoke(context.Background(), raw))

	// Invalid immediately after, for every new check.
	err = newAPIScheme(env, transport).Check(context.Background())
	assert.ErrorIs(t, err, guard.ErrInvalidToken)
}

func TestAPITokenTTL(t *testing.T) {
	env := setupEnv(t)
	scheme := NewAPI(APIConfig{
		Serializer: env.serializer,
		Store:      env.store,
		Codec:      env.codec,
		TokenTTL:   time.Nanosecond,
	}, newFakeTransport())

	res, err := scheme.Generate(context.Background(), env.user)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	transport := newFakeTransport()
	transport.headers["Authorization"] = "Bearer " + res.Token
	err = newAPIScheme(env, transport).Check(context.Background())
	assert.ErrorIs(t, err, guard.ErrInvalidToken)
}

func TestAPILogoutRevokesPresentedToken(t *testing.T) {
	env := setupEnv(t)
	res, err := newAPIScheme(env, newFakeTransport()).Generate(context.Background(), env.user)
	require.NoError(t, err)

	transport := newFakeTransport()
	transport.headers["Authorization"] = "Bearer " + res.Token
	scheme := newAPIScheme(env, transport)

	require.NoError(t, scheme.Logout(context.Background()))

	err = newAPIScheme(env, transport).Check(context.Background())
	assert.ErrorIs(t, err, guard.ErrInvalidToken)
}

func TestAPIListTokens(t *testing.T) {
	env := setupEnv(t)

	first, err := newAPIScheme(env, newFakeTransport()).Generate(context.Background(), env.user)
	require.NoError(t, err)
	second, err := newAPIScheme(env, newFakeTransport()).Generate(context.Background(), env.user)
	require.NoError(t, err)

	firstRaw, err := env.codec.Decrypt(first.Token)
	require.NoError(t, err)
	require.NoError(t, env.store.Revoke(context.Background(), firstRaw))

	transport := newFakeTransport()
	transport.headers["Authorization"] = "Bearer " + second.Token
	list, err := newAPIScheme(env, transport).ListTokens(context.Background())
	require.NoError(t, err)

	// Revoked tokens never show up in the default listing.
	require.Len(t, list, 1)
	secondRaw, err := env.codec.Decrypt(second.Token)
	require.NoError(t, err)
	assert.Equal(t, secondRaw, list[0].Value)
}
