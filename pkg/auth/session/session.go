package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultCookieName is the cookie the token is read from.
const DefaultCookieName = "dashkit_session"

// ErrUnauthorized is returned when a valid session is required but absent.
var ErrUnauthorized = errors.New("unauthorized: authentication required")

// ErrNoSecret is returned by Issue when the manager has no signing key.
var ErrNoSecret = errors.New("session: signing secret is empty")

// Identity is the authenticated user derived from a token.
type Identity struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role,omitempty"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsZero reports whether id carries no user.
func (id Identity) IsZero() bool {
	return id.UserID == ""
}

type claims struct {
	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies tokens with one secret.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	issuer     string
	cookieName string
	secure     bool
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the token lifetime.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithIssuer sets the iss claim. Tokens from other issuers are rejected.
func WithIssuer(iss string) Option {
	return func(m *Manager) {
		m.issuer = iss
	}
}

// WithCookieName sets the cookie name used to load tokens.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithSecureCookies forces the Secure attribute even on plain HTTP requests.
func WithSecureCookies(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Manager signing with secret.
func New(secret []byte, opts ...Option) *Manager {
	m := &Manager{
		secret:     secret,
		ttl:        DefaultTTL,
		cookieName: DefaultCookieName,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CookieName returns the cookie name.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Issue signs a token for id. ExpiresAt on the input is ignored.
func (m *Manager) Issue(id Identity) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrNoSecret
	}
	if id.UserID == "" {
		return "", errors.New("session: identity has no user id")
	}
	now := m.now()
	c := claims{
		Role: id.Role,
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Verify parses token. Any failure yields the zero Identity and false.
func (m *Manager) Verify(token string) (Identity, bool) {
	if token == "" || len(m.secret) == 0 {
		return Identity{}, false
	}
	var c claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || c.Subject == "" {
		return Identity{}, false
	}
	return Identity{
		UserID:    c.Subject,
		Role:      c.Role,
		Name:      c.Name,
		ExpiresAt: c.ExpiresAt.Time,
	}, true
}

// FromRequest verifies the session cookie of r, falling back to a bearer
// Authorization header when the cookie is missing or invalid.
func (m *Manager) FromRequest(r *http.Request) (Identity, bool) {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		if id, ok := m.Verify(cookie.Value); ok {
			return id, true
		}
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return m.Verify(h[len(prefix):])
	}
	return Identity{}, false
}

// SetCookie issues a token for id and writes it as a cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, r *http.Request, id Identity) (string, error) {
	token, err := m.Issue(id)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure || (r != nil && r.TLS != nil),
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure || (r != nil && r.TLS != nil),
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware verifies the session and injects the identity into the
// request context. Requests without a valid session pass through
// unauthenticated; a present but invalid cookie is cleared.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := m.FromRequest(r)
			if !ok {
				if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
					m.ClearCookie(w, r)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Require rejects requests without an identity with 401.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && !id.IsZero()
}
