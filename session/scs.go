// Package session provides guard.Session implementations: an
// alexedwards/scs-backed store for SQL deployments and a redis-backed one.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/guardkit/guard"
)

// SCS wraps scs.SessionManager. The embedded manager's LoadAndSave
// middleware still owns the cookie lifecycle; Bind exposes a request's
// loaded session to the engine.
type SCS struct {
	*scs.SessionManager
}

// NewSCS creates a session manager persisted in the given SQL database.
// The sessions table is created if it does not exist.
func NewSCS(sqlDB *sql.DB, lifetime time.Duration, secureCookies bool) (*SCS, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SCS{SessionManager: sm}, nil
}

// Bind returns the request-scoped session view. ctx must already carry the
// session data, i.e. the request went through LoadAndSave (or a manual
// Load/Commit pair in tests).
func (m *SCS) Bind(ctx context.Context) guard.Session {
	return &scsSession{mgr: m.SessionManager, ctx: ctx}
}

type scsSession struct {
	mgr *scs.SessionManager
	ctx context.Context
}

func (s *scsSession) Get(key string) (any, bool) {
	if !s.mgr.Exists(s.ctx, key) {
		return nil, false
	}
	return s.mgr.Get(s.ctx, key), true
}

func (s *scsSession) Put(key string, value any) {
	s.mgr.Put(s.ctx, key, value)
}

func (s *scsSession) Renew() error {
	return s.mgr.RenewToken(s.ctx)
}

func (s *scsSession) Destroy() error {
	return s.mgr.Destroy(s.ctx)
}
