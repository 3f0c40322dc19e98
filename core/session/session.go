// Package session resolves the session of the current request, whatever the active auth mode.
//
// Two strategies implement Resolver: a mock strategy backed by a self-issued HS256 token stored in a
// cookie, and an OAuth strategy backed by a Provider which owns the identity proof. NewResolver picks
// one of them once, from Options.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

type Mode string

// Modes
const (
	ModeMock  Mode = "mock"
	ModeOAuth Mode = "oauth"
)

// Defaults
const (
	DefaultCookieName = "studesq_session"
	DefaultMaxAge     = 30 * 24 * time.Hour
)

var (
	errMissingSecret   = errors.New("session secret is required")
	errMissingProvider = errors.New("oauth mode requires a provider")
	errInvalidSession  = errors.New("session requires a user id and a valid role")
)

// Session is the normalized identity of the caller, resolved per request.
type Session struct {
	UserID string    `json:"id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   user.Role `json:"role"`
}

func FromUser(usr user.User) Session {
	return Session{UserID: usr.ID, Email: usr.Email, Name: usr.Name, Role: usr.Role}
}

func (s Session) IsAdmin() bool   { return s.Role == user.RoleAdmin }
func (s Session) IsStudent() bool { return s.Role == user.RoleStudent }
func (s Session) IsParent() bool  { return s.Role == user.RoleParent }

// Options configures a Resolver.
type Options struct {
	Mode       Mode
	Secret     []byte
	MaxAge     time.Duration
	CookieName string
	Secure     bool // send the cookie over HTTPS only
}

// NewOptions maps the application config to resolver Options.
func NewOptions(conf *core.Config) Options {
	mode := ModeMock
	if conf.IsGoogleAuth() {
		mode = ModeOAuth
	}
	return Options{
		Mode:       mode,
		Secret:     []byte(conf.SecretKey),
		MaxAge:     conf.Auth.SessionMaxAge,
		CookieName: conf.Auth.CookieName,
		Secure:     conf.IsProduction(),
	}
}

// Identity is what an OAuth provider proved about the user signing in.
type Identity struct {
	Subject       string // provider user id
	Email         string
	Name          string
	EmailVerified bool
}

type (
	// Provider is the OAuth layer the OAuth strategy delegates to.
	Provider interface {
		// Email returns the email authenticated by the provider session carried by r, if any.
		Email(r *http.Request) (email string, ok bool, err error)
		// Forget drops the provider session carried by r.
		Forget(w http.ResponseWriter, r *http.Request) error
	}

	// UserStore is the data-access the resolver needs. Satisfied by user.Service.
	UserStore interface {
		GetByEmail(ctx context.Context, email string) (user.User, error)
		FindOrCreate(ctx context.Context, nu user.NewUser) (user.User, bool, error)
	}

	Resolver interface {
		Mode() Mode
		// Resolve returns the session of r, or nil when r is not authenticated.
		// Infrastructure faults are logged and resolve to nil.
		Resolve(r *http.Request) *Session
		// Create issues a mock session for s. Returns core.ErrModeMismatch outside mock mode.
		Create(w http.ResponseWriter, s Session) error
		// Destroy removes every credential carried by r.
		Destroy(w http.ResponseWriter, r *http.Request) error
		// SignIn runs the OAuth sign-in side effect: the user with id.Email is created as a STUDENT when
		// missing. Returns core.ErrModeMismatch, without touching storage, outside OAuth mode.
		SignIn(ctx context.Context, id Identity) (user.User, error)
	}
)

// NewResolver returns the Resolver matching opts.Mode. provider is only used in OAuth mode.
func NewResolver(opts Options, users UserStore, provider Provider, logger core.Logger) (Resolver, error) {
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}

	switch opts.Mode {
	case ModeMock:
		if len(opts.Secret) == 0 {
			return nil, errMissingSecret
		}
		return &mockResolver{cookies: newCookieJar(opts)}, nil
	case ModeOAuth:
		if provider == nil {
			return nil, errMissingProvider
		}
		return &oauthResolver{
			cookies:  newCookieJar(opts),
			users:    users,
			provider: provider,
			logger:   logger,
		}, nil
	default:
		return nil, errors.Errorf("unknown session mode %q", opts.Mode)
	}
}
