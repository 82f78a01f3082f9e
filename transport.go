package guard

import (
	"net/http"
	"time"
)

// Transport gives schemes named-field access to the inbound request and
// outbound response. The HTTP layer itself stays outside the engine; this
// is the only surface schemes read headers and cookies through.
type Transport interface {
	Header(name string) string
	Cookie(name string) (string, error)
	SetCookie(name, value string, maxAge time.Duration)
	ClearCookie(name string)
}

// Session gives the session scheme named-field access to the server-side
// session backing this request. Implementations live in the session package.
type Session interface {
	Get(key string) (any, bool)
	Put(key string, value any)
	// Renew rotates the session identifier, keeping its data. Called on
	// login to prevent session fixation.
	Renew() error
	Destroy() error
}

// HTTPTransport adapts a net/http request/response pair to Transport.
type HTTPTransport struct {
	W http.ResponseWriter
	R *http.Request

	// Secure marks outbound cookies HTTPS-only. Leave false for local
	// development without TLS.
	Secure bool
}

// NewHTTPTransport wraps a response writer and request. Cookies written
// through it are HttpOnly with SameSite=Lax.
func NewHTTPTransport(w http.ResponseWriter, r *http.Request) *HTTPTransport {
	return &HTTPTransport{W: w, R: r}
}

func (t *HTTPTransport) Header(name string) string {
	return t.R.Header.Get(name)
}

func (t *HTTPTransport) Cookie(name string) (string, error) {
	c, err := t.R.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

func (t *HTTPTransport) SetCookie(name, value string, maxAge time.Duration) {
	http.SetCookie(t.W, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (t *HTTPTransport) ClearCookie(name string) {
	http.SetCookie(t.W, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
