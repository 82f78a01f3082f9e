package schemes

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/guardkit/guard/codec"
	"github.com/guardkit/guard/entities"
	"github.com/guardkit/guard/hashing"
	"github.com/guardkit/guard/serializer"
	"github.com/guardkit/guard/tokens"
)

// fakeTransport stands in for the HTTP layer in scheme tests.
type fakeTransport struct {
	headers map[string]string
	cookies map[string]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		headers: make(map[string]string),
		cookies: make(map[string]string),
	}
}

func (f *fakeTransport) Header(name string) string {
	return f.headers[name]
}

func (f *fakeTransport) Cookie(name string) (string, error) {
	v, ok := f.cookies[name]
	if !ok {
		return "", http.ErrNoCookie
	}
	return v, nil
}

func (f *fakeTransport) SetCookie(name, value string, _ time.Duration) {
	f.cookies[name] = value
}

func (f *fakeTransport) ClearCookie(name string) {
	delete(f.cookies, name)
}

// fakeSession is an in-memory guard.Session.
type fakeSession struct {
	values    map[string]any
	renewals  int
	destroyed bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{values: make(map[string]any)}
}

func (f *fakeSession) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeSession) Put(key string, value any) {
	f.values[key] = value
}

func (f *fakeSession) Renew() error {
	f.renewals++
	return nil
}

func (f *fakeSession) Destroy() error {
	f.destroyed = true
	f.values = make(map[string]any)
	return nil
}

// testEnv wires a real serializer, store and codec over an in-memory
// database, with one seeded user.
type testEnv struct {
	db         *gorm.DB
	serializer *serializer.Gorm
	store      *tokens.GormStore
	codec      *codec.AESGCM
	user       *entities.User
}

const (
	testEmail    = "a@x.com"
	testPassword = "secret-password"
)

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&entities.User{}, &entities.Token{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	hasher := hashing.NewBcrypt(4)
	digest, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	user := &entities.User{Username: "someone", Email: testEmail, PasswordHash: digest}
	require.NoError(t, db.Create(user).Error)

	ser, err := serializer.NewGorm(db, "email", hasher)
	require.NoError(t, err)

	key, err := codec.GenerateKey()
	require.NoError(t, err)
	cdc, err := codec.NewAESGCMFromBase64(key)
	require.NoError(t, err)

	return &testEnv{
		db:         db,
		serializer: ser,
		store:      tokens.NewGormStore(db),
		codec:      cdc,
		user:       user,
	}
}

func basicHeader(uid, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(uid+":"+password))
}
