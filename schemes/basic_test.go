package schemes

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardkit/guard"
)

func TestBasicCheck(t *testing.T) {
	env := setupEnv(t)
	transport := newFakeTransport()
	transport.headers["Authorization"] = basicHeader(testEmail, testPassword)

	scheme := NewBasic(env.serializer, transport)
	require.NoError(t, scheme.Check(context.Background()))

	user, err := scheme.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, user.ID)
}

func TestBasicCheckFailures(t *testing.T) {
	env := setupEnv(t)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"no header", "", guard.ErrCredentialsMissing},
		{"wrong prefix", "Bearer abc", guard.ErrCredentialsMissing},
		{"not base64", "Basic !!!", guard.ErrCredentialsMissing},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("a@x.com")), guard.ErrCredentialsMissing},
		{"unknown uid", basicHeader("nobody@x.com", testPassword), guard.ErrUserNotFound},
		{"wrong password", basicHeader(testEmail, "wrong"), guard.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := newFakeTransport()
			if tt.header != "" {
				transport.headers["Authorization"] = tt.header
			}
			scheme := NewBasic(env.serializer, transport)
			err := scheme.Check(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBasicAttempt(t *testing.T) {
	env := setupEnv(t)
	scheme := NewBasic(env.serializer, newFakeTransport())

	res, err := scheme.Attempt(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, res.User.ID)

	_, err = scheme.Attempt(context.Background(), "nobody@x.com", testPassword)
	assert.ErrorIs(t, err, guard.ErrInvalidCredentials)
	_, err = scheme.Attempt(context.Background(), testEmail, "wrong")
	assert.ErrorIs(t, err, guard.ErrInvalidCredentials)
}

func TestBasicUnsupportedVerbs(t *testing.T) {
	env := setupEnv(t)
	scheme := NewBasic(env.serializer, newFakeTransport())

	assert.ErrorIs(t, scheme.Logout(context.Background()), guard.ErrUnsupported)
	_, err := scheme.Generate(context.Background(), env.user)
	assert.ErrorIs(t, err, guard.ErrUnsupported)
	_, err = scheme.ListTokens(context.Background())
	assert.ErrorIs(t, err, guard.ErrUnsupported)
}
