package oauthsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/session"
)

// Defaults
const (
	CookieName = "studesq_oauth"
	StateTTL   = 10 * time.Minute

	userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	statePrefix   = "state:"
	sessionPrefix = "session:"
)

var (
	// errors
	ErrInvalidState     = errors.New("invalid or expired oauth state")
	ErrEmailNotVerified = errors.New("oauth email is not verified")
)

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// Google runs the Google OAuth 2.0 authorization code flow and owns the provider session.
type Google struct {
	oauthConf   *oauth2.Config
	store       Store
	userInfoURL string
	maxAge      time.Duration
	secure      bool
}

var _ session.Provider = (*Google)(nil)

func NewGoogle(conf *core.Config, store Store) *Google {
	return &Google{
		oauthConf: &oauth2.Config{
			ClientID:     conf.Auth.Google.ClientID,
			ClientSecret: conf.Auth.Google.ClientSecret,
			RedirectURL:  conf.Auth.Google.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		store:       store,
		userInfoURL: userInfoURL,
		maxAge:      conf.Auth.SessionMaxAge,
		secure:      conf.IsProduction(),
	}
}

// LoginURL returns the consent page URL, bound to a new single use state.
func (g *Google) LoginURL(ctx context.Context) (string, error) {
	state := ksuid.New().String()
	if err := g.store.Set(ctx, statePrefix+state, "1", StateTTL); err != nil {
		return "", errors.Wrap(err, "storing oauth state")
	}
	return g.oauthConf.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Complete consumes state, exchanges code and returns the identity proven by Google.
func (g *Google) Complete(ctx context.Context, state, code string) (session.Identity, error) {
	if state == "" {
		return session.Identity{}, ErrInvalidState
	}
	_, ok, err := g.store.Take(ctx, statePrefix+state)
	if err != nil {
		return session.Identity{}, errors.Wrap(err, "consuming oauth state")
	}
	if !ok {
		return session.Identity{}, ErrInvalidState
	}

	token, err := g.oauthConf.Exchange(ctx, code)
	if err != nil {
		return session.Identity{}, errors.Wrap(err, "exchanging oauth code")
	}
	info, err := g.fetchUserInfo(ctx, token)
	if err != nil {
		return session.Identity{}, err
	}
	if !info.EmailVerified {
		return session.Identity{}, ErrEmailNotVerified
	}
	return session.Identity{
		Subject:       info.Sub,
		Email:         info.Email,
		Name:          info.Name,
		EmailVerified: info.EmailVerified,
	}, nil
}

func (g *Google) fetchUserInfo(ctx context.Context, token *oauth2.Token) (userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return userInfo{}, errors.Wrap(err, "building userinfo request")
	}
	res, err := g.oauthConf.Client(ctx, token).Do(req)
	if err != nil {
		return userInfo{}, errors.Wrap(err, "fetching userinfo")
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return userInfo{}, errors.Errorf("fetching userinfo: status %d", res.StatusCode)
	}

	var info userInfo
	if err = json.NewDecoder(res.Body).Decode(&info); err != nil {
		return userInfo{}, errors.Wrap(err, "decoding userinfo")
	}
	return info, nil
}

// Start opens a provider session for email and sets its cookie on w.
func (g *Google) Start(ctx context.Context, w http.ResponseWriter, email string) error {
	id := ksuid.New().String()
	if err := g.store.Set(ctx, sessionPrefix+id, email, g.maxAge); err != nil {
		return errors.Wrap(err, "storing provider session")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(g.maxAge.Seconds()),
		Expires:  nowFunc().Add(g.maxAge),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (g *Google) Email(r *http.Request) (string, bool, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false, nil
	}
	if _, err = ksuid.Parse(cookie.Value); err != nil {
		return "", false, nil
	}
	return g.store.Get(r.Context(), sessionPrefix+cookie.Value)
}

func (g *Google) Forget(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return g.store.Delete(r.Context(), sessionPrefix+cookie.Value)
}
