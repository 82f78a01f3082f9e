package tokens

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/entities"
)

// SQLStore persists tokens with plain database/sql, for deployments that
// run the query-builder serializer (e.g. against MySQL).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, userID uint, typ entities.TokenType, value string, expiresAt *time.Time) (*entities.Token, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (user_id, type, value, revoked, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		userID, typ, value, false, expiresAt, now)
	if err != nil {
		return nil, &guard.StorageError{Op: "create token", Err: err}
	}

	token := &entities.Token{
		UserID:    userID,
		Type:      typ,
		Value:     value,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if id, err := res.LastInsertId(); err == nil {
		token.ID = uint(id)
	}
	return token, nil
}

func (s *SQLStore) FindActive(ctx context.Context, value string, typ entities.TokenType) (*entities.Token, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, type, value, revoked, expires_at, created_at FROM auth_tokens "+
			"WHERE value = ? AND type = ? AND revoked = ? AND (expires_at IS NULL OR expires_at > ?) LIMIT 1",
		value, typ, false, time.Now())

	token, err := scanToken(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, guard.ErrTokenNotFound
		}
		return nil, &guard.StorageError{Op: "find active token", Err: err}
	}
	return token, nil
}

func (s *SQLStore) Revoke(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE auth_tokens SET revoked = ? WHERE value = ?", true, value)
	if err != nil {
		return &guard.StorageError{Op: "revoke token", Err: err}
	}
	return nil
}

func (s *SQLStore) RevokeAllForUser(ctx context.Context, userID uint) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE auth_tokens SET revoked = ? WHERE user_id = ? AND revoked = ?", true, userID, false)
	if err != nil {
		return &guard.StorageError{Op: "revoke user tokens", Err: err}
	}
	return nil
}

func (s *SQLStore) RevokeAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE auth_tokens SET revoked = ? WHERE revoked = ?", true, false)
	if err != nil {
		return &guard.StorageError{Op: "revoke all tokens", Err: err}
	}
	return nil
}

func (s *SQLStore) ListForUser(ctx context.Context, userID uint, typ entities.TokenType, includeRevoked bool) ([]entities.Token, error) {
	query := "SELECT id, user_id, type, value, revoked, expires_at, created_at FROM auth_tokens " +
		"WHERE user_id = ? AND type = ?"
	args := []any{userID, typ}
	if !includeRevoked {
		query += " AND revoked = ?"
		args = append(args, false)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &guard.StorageError{Op: "list tokens", Err: err}
	}
	defer rows.Close()

	var list []entities.Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, &guard.StorageError{Op: "list tokens", Err: err}
		}
		list = append(list, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, &guard.StorageError{Op: "list tokens", Err: err}
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(row scanner) (*entities.Token, error) {
	var (
		token     entities.Token
		expiresAt sql.NullTime
	)
	err := row.Scan(&token.ID, &token.UserID, &token.Type, &token.Value,
		&token.Revoked, &expiresAt, &token.CreatedAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		token.ExpiresAt = &expiresAt.Time
	}
	return &token, nil
}
