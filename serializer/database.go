package serializer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/entities"
	"github.com/guardkit/guard/hashing"
)

// Database locates users with plain database/sql queries. It is the
// query-builder-backed variant for deployments that do not use the ORM;
// table and column names come from configuration.
type Database struct {
	db       *sql.DB
	table    string
	uid      string
	password string
	hasher   hashing.Hasher
}

// NewDatabase creates a database/sql-backed serializer. table defaults to
// "users", uidColumn to "email" and passwordColumn to "password_hash".
func NewDatabase(db *sql.DB, table, uidColumn, passwordColumn string, hasher hashing.Hasher) (*Database, error) {
	if table == "" {
		table = "users"
	}
	if uidColumn == "" {
		uidColumn = "email"
	}
	if passwordColumn == "" {
		passwordColumn = "password_hash"
	}
	for _, ident := range []string{table, uidColumn, passwordColumn} {
		if !columnPattern.MatchString(ident) {
			return nil, fmt.Errorf("invalid identifier %q", ident)
		}
	}
	return &Database{db: db, table: table, uid: uidColumn, password: passwordColumn, hasher: hasher}, nil
}

func (s *Database) FindByUID(ctx context.Context, uid string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT id, %s, %s FROM %s WHERE %s = ? LIMIT 1",
		s.uid, s.password, s.table, s.uid)
	return s.scanUser(s.db.QueryRowContext(ctx, query, uid), "find user by uid")
}

func (s *Database) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	query := fmt.Sprintf("SELECT id, %s, %s FROM %s WHERE id = ? LIMIT 1",
		s.uid, s.password, s.table)
	return s.scanUser(s.db.QueryRowContext(ctx, query, id), "find user by id")
}

func (s *Database) ValidateCredentials(user *entities.User, password string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return s.hasher.Verify(password, user.PasswordHash)
}

func (s *Database) scanUser(row *sql.Row, op string) (*entities.User, error) {
	var (
		user     entities.User
		uidValue string
	)
	if err := row.Scan(&user.ID, &uidValue, &user.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, guard.ErrUserNotFound
		}
		return nil, &guard.StorageError{Op: op, Err: err}
	}
	// Only the configured uid column is selected, so place its value on
	// the matching struct field.
	if s.uid == "username" {
		user.Username = uidValue
	} else {
		user.Email = uidValue
	}
	return &user, nil
}
