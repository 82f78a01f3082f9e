package guard

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrCredentialsMissing   = errors.New("credentials missing")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrTokenNotFound        = errors.New("token not found")
	ErrUnsupported          = errors.New("operation not supported by scheme")
	ErrUnknownAuthenticator = errors.New("unknown authenticator")
)

// StorageError wraps a backend I/O failure. The engine never retries these;
// retry policy belongs to the storage layer or the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
