// Package schemes implements the authentication state machines: Session
// (stateful), Basic, JWT bearer and personal API tokens (stateless). Every
// scheme is bound to a single request and composes a serializer with,
// where tokens are involved, the token store and codec.
package schemes

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/guardkit/guard"
)

// SessionKeyUserID is the session field the session scheme keeps the
// authenticated user's primary key under.
const SessionKeyUserID = "auth_user_id"

// Result type markers.
const (
	resultTypeSession = "session"
	resultTypeBearer  = "bearer"
)

// randomToken returns a 64-character hex token value from 32 bytes of
// secure randomness.
func randomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(t guard.Transport) (string, bool) {
	header := t.Header("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// basicCredentials decodes an "Authorization: Basic ..." header into a
// uid/password pair.
func basicCredentials(t guard.Transport) (uid, password string, ok bool) {
	header := t.Header("Authorization")
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return "", "", false
	}
	uid, password, found := strings.Cut(string(decoded), ":")
	if !found || uid == "" {
		return "", "", false
	}
	return uid, password, true
}

// sessionUserID coerces a session value back into a primary key. Session
// backends differ in what they hand back: scs round-trips Go types through
// gob, redis stores strings.
func sessionUserID(v any) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint(id), true
	case int64:
		if id < 0 {
			return 0, false
		}
		return uint(id), true
	case uint64:
		return uint(id), true
	case float64:
		if id < 0 {
			return 0, false
		}
		return uint(id), true
	case string:
		parsed, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return 0, false
		}
		return uint(parsed), true
	default:
		return 0, false
	}
}
