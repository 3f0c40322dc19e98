package session

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

var nowFunc = time.Now // mockable

// Claims is the claim set of a mock session token.
type Claims struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   user.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) session() Session {
	return Session{UserID: c.UserID, Email: c.Email, Name: c.Name, Role: c.Role}
}

// cookieJar signs, verifies and stores mock session tokens.
type cookieJar struct {
	name   string
	secret []byte
	maxAge time.Duration
	secure bool
}

func newCookieJar(opts Options) cookieJar {
	return cookieJar{
		name:   opts.CookieName,
		secret: opts.Secret,
		maxAge: opts.MaxAge,
		secure: opts.Secure,
	}
}

func (cj cookieJar) sign(s Session) (string, error) {
	now := nowFunc()
	claims := Claims{
		UserID: s.UserID,
		Email:  s.Email,
		Name:   s.Name,
		Role:   s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cj.maxAge)),
		},
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cj.secret)
	return ss, errors.Wrap(err, "signing session token")
}

// verify returns the session carried by token, or nil when the token is malformed, tampered or expired.
func (cj cookieJar) verify(token string) *Session {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (interface{}, error) { return cj.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(nowFunc),
	)
	if err != nil {
		return nil
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil
	}
	s := claims.session()
	return &s
}

func (cj cookieJar) read(r *http.Request) *Session {
	c, err := r.Cookie(cj.name)
	if err != nil || c.Value == "" {
		return nil
	}
	return cj.verify(c.Value)
}

func (cj cookieJar) write(w http.ResponseWriter, s Session) error {
	if s.UserID == "" || !s.Role.Valid() {
		return errInvalidSession
	}
	token, err := cj.sign(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cj.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cj.maxAge.Seconds()),
		Expires:  nowFunc().Add(cj.maxAge),
		HttpOnly: true,
		Secure:   cj.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (cj cookieJar) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cj.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cj.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type mockResolver struct {
	cookies cookieJar
}

var _ Resolver = (*mockResolver)(nil)

func (m *mockResolver) Mode() Mode { return ModeMock }

func (m *mockResolver) Resolve(r *http.Request) *Session {
	return m.cookies.read(r)
}

func (m *mockResolver) Create(w http.ResponseWriter, s Session) error {
	return m.cookies.write(w, s)
}

func (m *mockResolver) Destroy(w http.ResponseWriter, _ *http.Request) error {
	m.cookies.clear(w)
	return nil
}

func (m *mockResolver) SignIn(context.Context, Identity) (user.User, error) {
	return user.User{}, core.ErrModeMismatch
}
