package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type userStoreMock struct {
	users   map[string]user.User // by email
	err     error
	created []user.NewUser
}

func (m *userStoreMock) GetByEmail(_ context.Context, email string) (user.User, error) {
	if m.err != nil {
		return user.User{}, m.err
	}
	if usr, ok := m.users[email]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (m *userStoreMock) FindOrCreate(ctx context.Context, nu user.NewUser) (user.User, bool, error) {
	if usr, err := m.GetByEmail(ctx, nu.Email); err == nil {
		return usr, false, nil
	} else if errors.Cause(err) != user.ErrNotFound {
		return user.User{}, false, err
	}
	m.created = append(m.created, nu)
	usr := user.User{ID: "new_" + nu.Email, Email: nu.Email, Name: nu.Name, Role: nu.Role, GoogleID: nu.GoogleID}
	m.users[nu.Email] = usr
	return usr, true, nil
}

type providerMock struct {
	email     string
	err       error
	forgotten bool
}

func (p *providerMock) Email(r *http.Request) (string, bool, error) {
	if p.err != nil {
		return "", false, p.err
	}
	if _, err := r.Cookie("provider"); err != nil || p.email == "" {
		return "", false, nil
	}
	return p.email, true, nil
}

func (p *providerMock) Forget(http.ResponseWriter, *http.Request) error {
	p.forgotten = true
	return nil
}

var alice = Session{UserID: "student_alice", Email: "alice@demo.studesq.com", Name: "Alice Chen", Role: user.RoleStudent}

func mockOptions() Options {
	return Options{Mode: ModeMock, Secret: []byte("secret"), MaxAge: time.Hour, CookieName: "sess"}
}

func newMockResolver(t *testing.T, opts ...Options) Resolver {
	o := mockOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	r, err := NewResolver(o, &userStoreMock{users: map[string]user.User{}}, nil, nopLogger{})
	require.NoError(t, err)
	return r
}

// issue returns the cookie set by r.Create for s.
func issue(t *testing.T, r Resolver, s Session) *http.Cookie {
	rec := httptest.NewRecorder()
	require.NoError(t, r.Create(rec, s))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func requestWith(cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestNewResolver(t *testing.T) {
	users := &userStoreMock{users: map[string]user.User{}}
	tests := []struct {
		name     string
		opts     Options
		provider Provider
		wantMode Mode
		wantErr  error
	}{
		{name: "mock", opts: mockOptions(), wantMode: ModeMock},
		{name: "mock without secret", opts: Options{Mode: ModeMock}, wantErr: errMissingSecret},
		{name: "oauth", opts: Options{Mode: ModeOAuth}, provider: &providerMock{}, wantMode: ModeOAuth},
		{name: "oauth without provider", opts: Options{Mode: ModeOAuth}, wantErr: errMissingProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolver(tt.opts, users, tt.provider, nopLogger{})
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, r.Mode())
		})
	}

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewResolver(Options{Mode: "ldap"}, users, nil, nopLogger{})
		assert.Error(t, err)
	})
}

func TestNewOptions(t *testing.T) {
	conf := &core.Config{Env: "PROD", SecretKey: "s3cr3t"}
	conf.Auth.Mode = core.AuthModeGoogle
	conf.Auth.CookieName = "c"
	conf.Auth.SessionMaxAge = time.Minute

	assert.Equal(t, Options{
		Mode:       ModeOAuth,
		Secret:     []byte("s3cr3t"),
		MaxAge:     time.Minute,
		CookieName: "c",
		Secure:     true,
	}, NewOptions(conf))

	conf.Env = "DEV"
	conf.Auth.Mode = core.AuthModeMock
	opts := NewOptions(conf)
	assert.Equal(t, ModeMock, opts.Mode)
	assert.False(t, opts.Secure)
}

func Test_mockResolver_roundTrip(t *testing.T) {
	r := newMockResolver(t)
	cookie := issue(t, r, alice)

	assert.Equal(t, "sess", cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	s := r.Resolve(requestWith(cookie))
	require.NotNil(t, s)
	assert.Equal(t, alice, *s)
}

func Test_mockResolver_create(t *testing.T) {
	r := newMockResolver(t)
	for _, s := range []Session{
		{Email: "x@y.z", Role: user.RoleStudent},
		{UserID: "u1", Email: "x@y.z", Role: "TUTOR"},
	} {
		rec := httptest.NewRecorder()
		assert.Equal(t, errInvalidSession, r.Create(rec, s))
		assert.Empty(t, rec.Result().Cookies())
	}

	opts := mockOptions()
	opts.Secure = true
	assert.True(t, issue(t, newMockResolver(t, opts), alice).Secure)
}

func Test_mockResolver_resolve(t *testing.T) {
	r := newMockResolver(t)
	valid := issue(t, r, alice)

	otherOpts := mockOptions()
	otherOpts.Secret = []byte("other-secret")
	wrongSecret := issue(t, newMockResolver(t, otherOpts), alice)

	// tokens issued more than MaxAge ago
	nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired := issue(t, r, alice)
	nowFunc = time.Now // reset

	parts := strings.Split(valid.Value, ".")
	require.Len(t, parts, 3)
	tamperedPayload, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "admin_user", Role: user.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SigningString()
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1", Role: user.RoleStudent}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "u1", Role: user.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	withValue := func(v string) *http.Cookie { return &http.Cookie{Name: "sess", Value: v} }
	tests := []struct {
		name   string
		cookie *http.Cookie
		want   *Session
	}{
		{name: "no cookie"},
		{name: "empty cookie", cookie: withValue("")},
		{name: "garbage", cookie: withValue("lol")},
		{name: "other cookie name", cookie: &http.Cookie{Name: "other", Value: valid.Value}},
		{name: "wrong secret", cookie: wrongSecret},
		{name: "expired", cookie: expired},
		{name: "tampered payload", cookie: withValue(tamperedPayload + "." + parts[2])},
		{name: "no expiry", cookie: withValue(noExpiry)},
		{name: "none alg", cookie: withValue(noneAlg)},
		{name: "valid", cookie: valid, want: &alice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWith()
			if tt.cookie != nil {
				req = requestWith(tt.cookie)
			}
			assert.Equal(t, tt.want, r.Resolve(req))
		})
	}
}

func Test_mockResolver_destroy(t *testing.T) {
	r := newMockResolver(t)
	rec := httptest.NewRecorder()
	require.NoError(t, r.Destroy(rec, requestWith(issue(t, r, alice))))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sess", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)

	// a cleared cookie resolves to nothing
	assert.Nil(t, r.Resolve(requestWith(cookies[0])))
}

func Test_mockResolver_signIn(t *testing.T) {
	users := &userStoreMock{users: map[string]user.User{}}
	r, err := NewResolver(mockOptions(), users, nil, nopLogger{})
	require.NoError(t, err)

	_, err = r.SignIn(context.Background(), Identity{Email: "a@b.c", EmailVerified: true})
	assert.Equal(t, core.ErrModeMismatch, err)
	assert.Empty(t, users.created)
}

func Test_oauthResolver(t *testing.T) {
	existing := user.User{ID: "u1", Email: "alice@gmail.com", Name: "Alice", Role: user.RoleParent}
	users := &userStoreMock{users: map[string]user.User{existing.Email: existing}}
	provider := &providerMock{email: existing.Email}
	r, err := NewResolver(Options{Mode: ModeOAuth, CookieName: "sess"}, users, provider, nopLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("resolve", func(t *testing.T) {
		providerCookie := &http.Cookie{Name: "provider", Value: "1"}
		assert.Nil(t, r.Resolve(requestWith()))

		s := r.Resolve(requestWith(providerCookie))
		require.NotNil(t, s)
		assert.Equal(t, FromUser(existing), *s)

		// mock cookies are ignored
		mockCookie := issue(t, newMockResolver(t), alice)
		assert.Nil(t, r.Resolve(requestWith(mockCookie)))

		// authenticated identity without an application user
		provider.email = "ghost@gmail.com"
		assert.Nil(t, r.Resolve(requestWith(providerCookie)))
		provider.email = existing.Email

		// infrastructure faults resolve to nil
		users.err = errors.New("db down")
		assert.Nil(t, r.Resolve(requestWith(providerCookie)))
		users.err = nil
		provider.err = errors.New("redis down")
		assert.Nil(t, r.Resolve(requestWith(providerCookie)))
		provider.err = nil
	})

	t.Run("create", func(t *testing.T) {
		rec := httptest.NewRecorder()
		assert.Equal(t, core.ErrModeMismatch, r.Create(rec, alice))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("sign in", func(t *testing.T) {
		_, err := r.SignIn(ctx, Identity{Subject: "g1", Email: "bob@gmail.com", Name: "Bob"})
		assert.Equal(t, core.ErrForbidden, errors.Cause(err))
		assert.Empty(t, users.created)

		usr, err := r.SignIn(ctx, Identity{Subject: "g1", Email: "bob@gmail.com", Name: "Bob", EmailVerified: true})
		require.NoError(t, err)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.Equal(t, "g1", usr.GoogleID)
		require.Len(t, users.created, 1)

		// existing users keep their role
		usr, err = r.SignIn(ctx, Identity{Subject: "g2", Email: existing.Email, EmailVerified: true})
		require.NoError(t, err)
		assert.Equal(t, existing, usr)
		assert.Len(t, users.created, 1)

		// the email stands in for a missing name
		usr, err = r.SignIn(ctx, Identity{Subject: "g3", Email: "noname@gmail.com", EmailVerified: true})
		require.NoError(t, err)
		assert.Equal(t, "noname@gmail.com", usr.Name)
	})

	t.Run("destroy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, r.Destroy(rec, requestWith(&http.Cookie{Name: "provider", Value: "1"})))
		assert.True(t, provider.forgotten)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestFindDemoAccount(t *testing.T) {
	tests := []struct {
		email   string
		wantID  string
		wantErr error
	}{
		{email: "alice@demo.studesq.com", wantID: "student_alice"},
		{email: "  ADMIN@demo.studesq.com ", wantID: "admin_user"},
		{email: "alice-parent@demo.studesq.com", wantID: "parent_alice"},
		{email: "alice@studesq.com", wantErr: ErrDemoAccountNotFound},
		{email: "", wantErr: ErrDemoAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			a, err := FindDemoAccount(tt.email)
			if err != tt.wantErr {
				t.Fatalf("FindDemoAccount() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.wantID, a.ID)
		})
	}

	for _, a := range DemoAccounts {
		assert.True(t, a.Role.Valid(), a.Email)
		if a.Role == user.RoleParent {
			child, err := FindDemoAccount(a.ChildEmail)
			require.NoError(t, err, a.Email)
			assert.Equal(t, user.RoleStudent, child.Role)
		}
	}
}
