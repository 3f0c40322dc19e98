package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Smarcastic/studesq-mvp/apps/api/echo"
	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/session"
	"github.com/Smarcastic/studesq-mvp/core/user"
	oauthsvc "github.com/Smarcastic/studesq-mvp/services/oauth"
	"github.com/Smarcastic/studesq-mvp/tests"
)

func googleMode(conf *core.Config) {
	conf.Auth.Mode = core.AuthModeGoogle
	conf.Auth.Google.ClientID = "client-id"
	conf.Auth.Google.ClientSecret = "client-secret"
	conf.Auth.Google.RedirectURL = "http://localhost:8000/api/auth/google/callback"
}

func demoSummary(t *testing.T, email string) user.Summary {
	demo, err := session.FindDemoAccount(email)
	require.NoError(t, err)
	return user.Summary{ID: demo.ID, Email: demo.Email, Name: demo.Name, Role: demo.Role}
}

func Test_authApi_mockSignIn(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	tests := []httpTest{
		{
			name:     "invalid email",
			body:     []byte(`{"email": "not-an-email"}`),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "Invalid input", "VALIDATION_ERROR", map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name:     "missing email",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "Invalid input", "VALIDATION_ERROR", map[string]string{"email": "this field is required"}),
		},
		{
			name:     "malformed body",
			body:     []byte(`{"email": `),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown demo account",
			body:     []byte(`{"email": "nobody@example.com"}`),
			wantCode: http.StatusNotFound,
			wantData: failure(t, session.ErrDemoAccountNotFound.Error(), "NOT_FOUND"),
		},
		{
			name:     "student",
			body:     []byte(`{"email": "  Alice@Demo.Studesq.com "}`),
			wantCode: http.StatusOK,
			wantData: success(t, UserResponse{User: demoSummary(t, "alice@demo.studesq.com")}, "Signed in successfully"),
		},
		{
			name:     "student again",
			body:     []byte(`{"email": "alice@demo.studesq.com"}`),
			wantCode: http.StatusOK,
			wantData: success(t, UserResponse{User: demoSummary(t, "alice@demo.studesq.com")}, "Signed in successfully"),
		},
		{
			name:     "parent",
			body:     []byte(`{"email": "alice-parent@demo.studesq.com"}`),
			wantCode: http.StatusOK,
			wantData: success(t, UserResponse{User: demoSummary(t, "alice-parent@demo.studesq.com")}, "Signed in successfully"),
		},
		{
			name:     "parent of a child who never signed in",
			body:     []byte(`{"email": "marcus-parent@demo.studesq.com"}`),
			wantCode: http.StatusOK,
			wantData: success(t, UserResponse{User: demoSummary(t, "marcus-parent@demo.studesq.com")}, "Signed in successfully"),
		},
		{
			name:     "admin",
			body:     []byte(`{"email": "admin@demo.studesq.com"}`),
			wantCode: http.StatusOK,
			wantData: success(t, UserResponse{User: demoSummary(t, "admin@demo.studesq.com")}, "Signed in successfully"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/mock-signin", tt.body)
			env.serve(req, rec)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				cookies := rec.Result().Cookies()
				require.Len(t, cookies, 1)
				assert.Equal(t, env.conf.Auth.CookieName, cookies[0].Name)
				assert.True(t, cookies[0].HttpOnly)
				assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
				assert.NotEmpty(t, cookies[0].Value)
			} else {
				assert.Empty(t, rec.Result().Cookies())
			}
		})
	}

	t.Run("side effects", func(t *testing.T) {
		// one profile per student, however many sign-ins
		p, err := env.stdRepo.GetProfileByUserID(ctx, "student_alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice Chen", p.DisplayName)
		assert.True(t, p.EarlyFounder)

		// demo parent linked to its child
		l, err := env.stdRepo.GetParentLink(ctx, "parent_alice", p.ID)
		require.NoError(t, err)
		assert.True(t, l.Verified)

		_, err = env.usrRepo.GetUserByID(ctx, "student_marcus")
		assert.Equal(t, user.ErrNotFound, err)

		// admins and parents get no profile
		for _, id := range []string{"admin_user", "parent_alice"} {
			_, err = env.stdRepo.GetProfileByUserID(ctx, id)
			assert.Error(t, err, id)
		}
	})

	t.Run("signed in parent reads the child profile", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/mock-signin", []byte(`{"email": "alice-parent@demo.studesq.com"}`))
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		cookie := rec.Result().Cookies()[0]

		p, err := env.stdRepo.GetProfileByUserID(ctx, "student_alice")
		require.NoError(t, err)
		req, rec = newAuthRequest(http.MethodGet, "/api/students/"+p.ID, cookie)
		env.serve(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_authApi_mockSignIn_oauthMode(t *testing.T) {
	env := setup(t, googleMode)
	req, rec := newRequest(http.MethodPost, "/api/auth/mock-signin", []byte(`{"email": "alice@demo.studesq.com"}`))
	env.serve(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: failure(t, core.ErrModeMismatch.Error(), "FORBIDDEN"),
	}, rec)
}

func Test_authApi_session(t *testing.T) {
	env := setup(t)
	alice := testutil.CreateUser(t, env.usrRepo, "Alice", "alice@example.com", user.RoleStudent)
	cookie := env.sessionCookie(t, alice)
	tampered := *cookie
	tampered.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

	anonymous := marchallObj(t, SessionResponse{})
	authenticated := marchallObj(t, SessionResponse{Authenticated: true, User: &user.Summary{
		ID: alice.ID, Email: alice.Email, Name: alice.Name, Role: alice.Role,
	}})

	tests := []httpTest{
		{"session anonymous", http.MethodGet, "/api/auth/session", nil, nil, http.StatusOK, anonymous, nil},
		{"session tampered", http.MethodGet, "/api/auth/session", nil, &tampered, http.StatusOK, anonymous, nil},
		{"session authenticated", http.MethodGet, "/api/auth/session", nil, cookie, http.StatusOK, authenticated, nil},
		{"mock session anonymous", http.MethodGet, "/api/auth/mock-signin", nil, nil, http.StatusUnauthorized, anonymous, nil},
		{"mock session authenticated", http.MethodGet, "/api/auth/mock-signin", nil, cookie, http.StatusOK, authenticated, nil},
	}
	runTests(t, env, tests)
}

func Test_authApi_signOut(t *testing.T) {
	env := setup(t)
	alice := testutil.CreateUser(t, env.usrRepo, "Alice", "alice@example.com", user.RoleStudent)

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		t.Run(method, func(t *testing.T) {
			req, rec := newAuthRequest(method, "/api/auth/signout", env.sessionCookie(t, alice))
			env.serve(req, rec)
			checkCodeAndData(t, httpTest{
				wantCode: http.StatusOK,
				wantData: marchallObj(t, SuccessResponse{Success: true, Message: "Signed out successfully"}),
			}, rec)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, env.conf.Auth.CookieName, cookies[0].Name)
			assert.Empty(t, cookies[0].Value)
			assert.Equal(t, -1, cookies[0].MaxAge)
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/signout")
		env.serve(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_authApi_google_mockMode(t *testing.T) {
	env := setup(t)
	tests := []httpTest{
		{"login", http.MethodGet, "/api/auth/google", nil, nil, http.StatusForbidden, failure(t, core.ErrModeMismatch.Error(), "FORBIDDEN"), nil},
		{"callback", http.MethodGet, "/api/auth/google/callback?state=x&code=y", nil, nil, http.StatusForbidden, failure(t, core.ErrModeMismatch.Error(), "FORBIDDEN"), nil},
	}
	runTests(t, env, tests)
}

func Test_authApi_google(t *testing.T) {
	env := setup(t, googleMode)
	ctx := context.Background()

	t.Run("login redirects to the consent page", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/google")
		env.serve(req, rec)
		require.Equal(t, http.StatusFound, rec.Code)

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "accounts.google.com", loc.Host)
		assert.Equal(t, "client-id", loc.Query().Get("client_id"))
		assert.NotEmpty(t, loc.Query().Get("state"))
	})

	callbackTests := []struct {
		name  string
		query string
		want  string
	}{
		{"provider error", "error=access_denied", "http://localhost:3000/auth/signin?error=access_denied"},
		{"missing state", "code=abc", "http://localhost:3000/auth/signin?error=invalid_signin"},
		{"unknown state", "state=unknown&code=abc", "http://localhost:3000/auth/signin?error=invalid_signin"},
	}
	for _, tt := range callbackTests {
		t.Run("callback "+tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, "/api/auth/google/callback?"+tt.query)
			env.serve(req, rec)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}

	t.Run("mock endpoints are disabled", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/mock-signin", []byte(`{"email": "alice@demo.studesq.com"}`))
		env.serve(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("provider session", func(t *testing.T) {
		alice := testutil.CreateUser(t, env.usrRepo, "Alice", "alice@gmail.com", user.RoleStudent)

		w := httptest.NewRecorder()
		require.NoError(t, env.oauth.Start(ctx, w, alice.Email))
		var cookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == oauthsvc.CookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie)

		req, rec := newAuthRequest(http.MethodGet, "/api/auth/session", cookie)
		env.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SessionResponse{Authenticated: true, User: &user.Summary{
				ID: alice.ID, Email: alice.Email, Name: alice.Name, Role: alice.Role,
			}}),
		}, rec)

		// sign out forgets the provider session
		req, rec = newAuthRequest(http.MethodPost, "/api/auth/signout", cookie)
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var cleared bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == oauthsvc.CookieName && c.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared)

		req, rec = newAuthRequest(http.MethodGet, "/api/auth/session", cookie)
		env.serve(req, rec)
		assert.True(t, strings.Contains(rec.Body.String(), `"authenticated":false`))
	})

	t.Run("mock cookie is ignored", func(t *testing.T) {
		mockEnv := setup(t)
		alice := testutil.CreateUser(t, mockEnv.usrRepo, "Alice", "alice@example.com", user.RoleStudent)
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/session", mockEnv.sessionCookie(t, alice))
		env.serve(req, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, SessionResponse{})}, rec)
	})
}
