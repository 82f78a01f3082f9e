package serializer

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/hashing"
)

func setupSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE,
		password_hash TEXT
	)`)
	require.NoError(t, err)
	return db
}

func TestDatabaseSerializer(t *testing.T) {
	db := setupSQLDB(t)
	hasher := hashing.NewBcrypt(4)

	digest, err := hasher.Hash("secret-password")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO users (email, password_hash) VALUES (?, ?)", "a@x.com", digest)
	require.NoError(t, err)

	ser, err := NewDatabase(db, "users", "email", "password_hash", hasher)
	require.NoError(t, err)

	user, err := ser.FindByUID(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.True(t, ser.ValidateCredentials(user, "secret-password"))
	assert.False(t, ser.ValidateCredentials(user, "wrong"))

	byID, err := ser.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	_, err = ser.FindByUID(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, guard.ErrUserNotFound)

	_, err = ser.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, guard.ErrUserNotFound)
}

func TestDatabaseSerializerDefaults(t *testing.T) {
	db := setupSQLDB(t)

	ser, err := NewDatabase(db, "", "", "", hashing.NewBcrypt(4))
	require.NoError(t, err)
	assert.Equal(t, "users", ser.table)
	assert.Equal(t, "email", ser.uid)
	assert.Equal(t, "password_hash", ser.password)
}

func TestDatabaseSerializerRejectsBadIdentifiers(t *testing.T) {
	db := setupSQLDB(t)

	cases := []struct {
		table, uid, password string
	}{
		{"users; DROP TABLE users", "email", "password_hash"},
		{"users", "email OR 1=1", "password_hash"},
		{"users", "email", "password_hash--"},
	}
	for _, tc := range cases {
		_, err := NewDatabase(db, tc.table, tc.uid, tc.password, hashing.NewBcrypt(4))
		assert.Error(t, err)
	}
}
