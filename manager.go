package guard

import (
	"context"
	"fmt"

	"github.com/guardkit/guard/entities"
)

// SchemeFactory builds a request-scoped Scheme bound to the given
// transport and session. Factories carry the static wiring (serializer,
// token store, codec, options); everything per-request comes in through
// the arguments.
type SchemeFactory func(t Transport, s Session) Scheme

// Manager holds the configured authenticators. It is built once at startup
// and is safe for concurrent use: all mutable authentication state lives in
// the per-request Auth values it hands out.
type Manager struct {
	defaultName string
	factories   map[string]SchemeFactory
}

// NewManager creates a manager from named scheme factories. defaultName
// selects the authenticator used when callers do not ask for one explicitly.
func NewManager(defaultName string, factories map[string]SchemeFactory) (*Manager, error) {
	if len(factories) == 0 {
		return nil, fmt.Errorf("no authenticators configured")
	}
	if _, ok := factories[defaultName]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownAuthenticator, defaultName)
	}
	return &Manager{defaultName: defaultName, factories: factories}, nil
}

// Auth binds the manager to a single request. The returned value, and every
// scheme instance it creates, must be discarded when the request completes.
func (m *Manager) Auth(t Transport, s Session) *Auth {
	return &Auth{
		manager:   m,
		transport: t,
		session:   s,
		schemes:   make(map[string]Scheme),
	}
}

// Auth is the per-request view of the manager. It lazily instantiates
// schemes and delegates the uniform verbs to the default one.
type Auth struct {
	manager   *Manager
	transport Transport
	session   Session
	schemes   map[string]Scheme
}

// Use returns the named authenticator bound to this request. The same
// instance is returned for repeated calls within the request, so state
// resolved by Check is not recomputed.
func (a *Auth) Use(name string) (Scheme, error) {
	if sch, ok := a.schemes[name]; ok {
		return sch, nil
	}
	factory, ok := a.manager.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuthenticator, name)
	}
	sch := factory(a.transport, a.session)
	a.schemes[name] = sch
	return sch, nil
}

// Default returns the default authenticator bound to this request.
func (a *Auth) Default() Scheme {
	sch, err := a.Use(a.manager.defaultName)
	if err != nil {
		// The default name is validated in NewManager.
		panic(err)
	}
	return sch
}

func (a *Auth) Attempt(ctx context.Context, uid, password string) (*Result, error) {
	return a.Default().Attempt(ctx, uid, password)
}

func (a *Auth) Check(ctx context.Context) error {
	return a.Default().Check(ctx)
}

func (a *Auth) User(ctx context.Context) (*entities.User, error) {
	return a.Default().User(ctx)
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.Default().Logout(ctx)
}

func (a *Auth) Generate(ctx context.Context, user *entities.User) (*Result, error) {
	return a.Default().Generate(ctx, user)
}

func (a *Auth) ListTokens(ctx context.Context) ([]entities.Token, error) {
	return a.Default().ListTokens(ctx)
}
