// Package config loads engine configuration: the default authenticator,
// the named scheme/serializer pairs and the backing services they need.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Scheme kinds.
const (
	SchemeSession = "session"
	SchemeBasic   = "basic"
	SchemeJWT     = "jwt"
	SchemeAPI     = "api"
)

// Serializer kinds.
const (
	SerializerGorm     = "gorm"
	SerializerDatabase = "database"
)

type (
	Config struct {
		// Authenticator names the scheme used when callers do not pick
		// one explicitly.
		Authenticator string            `mapstructure:"authenticator"`
		Database      Database          `mapstructure:"database"`
		Session       Session           `mapstructure:"session"`
		Crypto        Crypto            `mapstructure:"crypto"`
		Schemes       map[string]Scheme `mapstructure:"schemes"`
	}

	Database struct {
		Driver string `mapstructure:"driver"` // sqlite3 or mysql
		DSN    string `mapstructure:"dsn"`
	}

	Session struct {
		Lifetime      time.Duration `mapstructure:"lifetime"`
		SecureCookies bool          `mapstructure:"secure_cookies"`
		Store         string        `mapstructure:"store"` // scs or redis
		RedisAddr     string        `mapstructure:"redis_addr"`
	}

	Crypto struct {
		// Key is the base64-encoded 32-byte AES key for the token codec.
		Key        string `mapstructure:"key"`
		BcryptCost int    `mapstructure:"bcrypt_cost"`
	}

	Scheme struct {
		Scheme     string  `mapstructure:"scheme"`
		Serializer string  `mapstructure:"serializer"`
		Table      string  `mapstructure:"table"`
		UID        string  `mapstructure:"uid"`
		Password   string  `mapstructure:"password"`
		Options    Options `mapstructure:"options"`
	}

	Options struct {
		Algorithm  string        `mapstructure:"algorithm"`
		Secret     string        `mapstructure:"secret"`
		ExpiresIn  time.Duration `mapstructure:"expires_in"`
		NotBefore  time.Duration `mapstructure:"not_before"`
		Audience   string        `mapstructure:"audience"`
		Issuer     string        `mapstructure:"issuer"`
		Subject    string        `mapstructure:"subject"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`

		// Session scheme only.
		RememberCookie string        `mapstructure:"remember_cookie"`
		RememberTTL    time.Duration `mapstructure:"remember_ttl"`
	}
)

// Load reads configuration from the given file (YAML, optional) with
// GUARD_-prefixed environment variables overriding individual keys.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("authenticator", "web")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "guard.db")
	v.SetDefault("session.lifetime", "24h")
	v.SetDefault("session.secure_cookies", true)
	v.SetDefault("session.store", "scs")
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("crypto.key", "") // required, no safe default
	v.SetDefault("crypto.bcrypt_cost", 12)
	v.SetDefault("schemes", map[string]any{
		"web": map[string]any{
			"scheme":     SchemeSession,
			"serializer": SerializerGorm,
			"uid":        "email",
		},
	})

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Schemes) == 0 {
		return fmt.Errorf("no schemes configured")
	}
	if _, ok := c.Schemes[c.Authenticator]; !ok {
		return fmt.Errorf("default authenticator %q is not configured", c.Authenticator)
	}
	for name, sc := range c.Schemes {
		switch sc.Scheme {
		case SchemeSession, SchemeBasic, SchemeJWT, SchemeAPI:
		default:
			return fmt.Errorf("scheme %q: unknown kind %q", name, sc.Scheme)
		}
		switch sc.Serializer {
		case "", SerializerGorm, SerializerDatabase:
		default:
			return fmt.Errorf("scheme %q: unknown serializer %q", name, sc.Serializer)
		}
	}
	return nil
}
