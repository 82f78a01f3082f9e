// Package bootstrap turns a config.Config into a ready Manager: it opens
// the storage backend, migrates the auth tables, builds the serializers,
// token store, codec and session store, and registers a factory for every
// configured authenticator.
package bootstrap

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// SQL drivers for the database/sql paths.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/guardkit/guard"
	"github.com/guardkit/guard/codec"
	"github.com/guardkit/guard/config"
	"github.com/guardkit/guard/entities"
	"github.com/guardkit/guard/hashing"
	"github.com/guardkit/guard/schemes"
	"github.com/guardkit/guard/serializer"
	"github.com/guardkit/guard/session"
	"github.com/guardkit/guard/tokens"
)

// SessionCookie is the cookie carrying the redis session identifier. The
// scs store manages its own cookie through LoadAndSave.
const SessionCookie = "guard_session"

// Engine bundles the wired manager with the services behind it, so
// applications can reach the store or codec directly (e.g. for revocation
// endpoints).
type Engine struct {
	Manager  *guard.Manager
	Store    tokens.Store
	Codec    codec.Codec
	Hasher   hashing.Hasher
	Sessions *session.SCS   // nil when the redis store is configured
	Redis    *session.Redis // nil when the scs store is configured
	DB       *gorm.DB       // nil for non-sqlite3 drivers
	SQL      *sql.DB

	cfg *config.Config
}

// New wires an Engine from configuration.
func New(cfg *config.Config) (*Engine, error) {
	e := &Engine{cfg: cfg}

	e.Hasher = hashing.NewBcrypt(cfg.Crypto.BcryptCost)

	cdc, err := codec.NewAESGCMFromBase64(cfg.Crypto.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to build token codec: %w", err)
	}
	e.Codec = cdc

	if err := e.openDatabase(); err != nil {
		return nil, err
	}
	if err := e.openSessions(); err != nil {
		return nil, err
	}

	factories := make(map[string]guard.SchemeFactory, len(cfg.Schemes))
	for name, sc := range cfg.Schemes {
		factory, err := e.buildFactory(sc)
		if err != nil {
			return nil, fmt.Errorf("scheme %q: %w", name, err)
		}
		factories[name] = factory
	}

	manager, err := guard.NewManager(cfg.Authenticator, factories)
	if err != nil {
		return nil, err
	}
	e.Manager = manager
	return e, nil
}

// Auth binds the engine to an inbound request. With the scs store the
// request must have passed through Sessions.LoadAndSave; with redis the
// session identifier travels in the SessionCookie cookie.
func (e *Engine) Auth(w http.ResponseWriter, r *http.Request) *guard.Auth {
	t := guard.NewHTTPTransport(w, r)
	t.Secure = e.cfg.Session.SecureCookies

	var sess guard.Session
	if e.Redis != nil {
		id, _ := t.Cookie(SessionCookie)
		rs := e.Redis.Bind(r.Context(), id)
		rs.OnChange = func(id string) {
			t.SetCookie(SessionCookie, id, e.cfg.Session.Lifetime)
		}
		if id == "" {
			t.SetCookie(SessionCookie, rs.ID(), e.cfg.Session.Lifetime)
		}
		sess = rs
	} else {
		sess = e.Sessions.Bind(r.Context())
	}

	return e.Manager.Auth(t, sess)
}

func (e *Engine) openDatabase() error {
	cfg := e.cfg.Database
	switch cfg.Driver {
	case "sqlite3":
		db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.AutoMigrate(&entities.User{}, &entities.Token{}); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to unwrap sql database: %w", err)
		}
		e.DB = db
		e.SQL = sqlDB
		e.Store = tokens.NewGormStore(db)
	case "mysql":
		// Schema is managed externally for mysql; only database/sql
		// serializers and stores run against it.
		sqlDB, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		e.SQL = sqlDB
		e.Store = tokens.NewSQLStore(sqlDB)
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return nil
}

func (e *Engine) openSessions() error {
	switch e.cfg.Session.Store {
	case "scs":
		if e.cfg.Database.Driver != "sqlite3" {
			return fmt.Errorf("scs session store requires the sqlite3 driver; use the redis store instead")
		}
		s, err := session.NewSCS(e.SQL, e.cfg.Session.Lifetime, e.cfg.Session.SecureCookies)
		if err != nil {
			return fmt.Errorf("failed to build session store: %w", err)
		}
		e.Sessions = s
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: e.cfg.Session.RedisAddr})
		e.Redis = session.NewRedis(client, e.cfg.Session.Lifetime)
	default:
		return fmt.Errorf("unsupported session store %q", e.cfg.Session.Store)
	}
	return nil
}

func (e *Engine) buildFactory(sc config.Scheme) (guard.SchemeFactory, error) {
	ser, err := e.buildSerializer(sc)
	if err != nil {
		return nil, err
	}

	switch sc.Scheme {
	case config.SchemeSession:
		scfg := schemes.SessionConfig{
			Serializer:  ser,
			Store:       e.Store,
			Codec:       e.Codec,
			CookieName:  sc.Options.RememberCookie,
			RememberTTL: sc.Options.RememberTTL,
		}
		return func(t guard.Transport, s guard.Session) guard.Scheme {
			return schemes.NewSession(scfg, t, s)
		}, nil

	case config.SchemeBasic:
		return func(t guard.Transport, s guard.Session) guard.Scheme {
			return schemes.NewBasic(ser, t)
		}, nil

	case config.SchemeJWT:
		jcfg := schemes.JWTConfig{
			Serializer: ser,
			Store:      e.Store,
			Codec:      e.Codec,
			Options: schemes.JWTOptions{
				Algorithm:  sc.Options.Algorithm,
				Secret:     []byte(sc.Options.Secret),
				ExpiresIn:  sc.Options.ExpiresIn,
				NotBefore:  sc.Options.NotBefore,
				Audience:   sc.Options.Audience,
				Issuer:     sc.Options.Issuer,
				Subject:    sc.Options.Subject,
				RefreshTTL: sc.Options.RefreshTTL,
			},
		}
		// Surface option errors now rather than on the first request.
		if _, err := schemes.NewJWT(jcfg, nil); err != nil {
			return nil, err
		}
		return func(t guard.Transport, s guard.Session) guard.Scheme {
			sch, _ := schemes.NewJWT(jcfg, t)
			return sch
		}, nil

	case config.SchemeAPI:
		acfg := schemes.APIConfig{
			Serializer: ser,
			Store:      e.Store,
			Codec:      e.Codec,
			TokenTTL:   sc.Options.TokenTTL,
		}
		return func(t guard.Transport, s guard.Session) guard.Scheme {
			return schemes.NewAPI(acfg, t)
		}, nil
	}

	return nil, fmt.Errorf("unknown scheme kind %q", sc.Scheme)
}

func (e *Engine) buildSerializer(sc config.Scheme) (serializer.Serializer, error) {
	kind := sc.Serializer
	if kind == "" {
		kind = config.SerializerGorm
	}
	switch kind {
	case config.SerializerGorm:
		if e.DB == nil {
			return nil, fmt.Errorf("gorm serializer requires the sqlite3 driver")
		}
		return serializer.NewGorm(e.DB, sc.UID, e.Hasher)
	case config.SerializerDatabase:
		return serializer.NewDatabase(e.SQL, sc.Table, sc.UID, sc.Password, e.Hasher)
	}
	return nil, fmt.Errorf("unknown serializer kind %q", sc.Serializer)
}

// Close releases the backing database connection.
func (e *Engine) Close() error {
	if e.SQL != nil {
		return e.SQL.Close()
	}
	return nil
}
