package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/session"
	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
	oauthsvc "github.com/Smarcastic/studesq-mvp/services/oauth"
)

const (
	msgSignedIn  = "Signed in successfully"
	msgSignedOut = "Signed out successfully"

	dashboardPath = "/dashboard"
	signInPath    = "/auth/signin"
)

type authApi struct {
	conf       *core.Config
	logger     core.Logger
	resolver   session.Resolver
	userSvc    user.ServiceInterface
	studentSvc student.ServiceInterface
	oauth      *oauthsvc.Google
	validate   *validator.Validate
}

func registerAuthAPI(g *echo.Group, deps ServerDeps) {
	api := authApi{
		conf:       deps.Conf,
		logger:     deps.Logger,
		resolver:   deps.Resolver,
		userSvc:    deps.UserSvc,
		studentSvc: deps.StudentSvc,
		oauth:      deps.OAuth,
		validate:   deps.Validate,
	}

	ag := g.Group("/auth")
	ag.POST("/mock-signin", api.mockSignIn)
	ag.GET("/mock-signin", api.mockSession)
	ag.GET("/session", api.session)
	ag.POST("/signout", api.signOut)
	ag.GET("/signout", api.signOut)
	ag.GET("/google", api.googleLogin)
	ag.GET("/google/callback", api.googleCallback)
}

// onSignIn provisions what a freshly signed in user needs: a STUDENT's profile, a demo PARENT's link.
func (api *authApi) onSignIn(ctx echo.Context, usr user.User, demo *session.DemoAccount) error {
	reqCtx := ctx.Request().Context()

	if usr.IsStudent() {
		if _, created, err := api.studentSvc.EnsureProfile(reqCtx, usr); err != nil {
			return errors.Wrap(err, "ensuring student profile")
		} else if created {
			api.logger.Info("student profile created: " + usr.Email)
		}
	}

	if demo != nil && usr.IsParent() && demo.ChildEmail != "" {
		child, err := api.userSvc.GetByEmail(reqCtx, demo.ChildEmail)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return nil // the child has not signed in yet
			}
			return errors.Wrap(err, "finding demo child")
		}
		if _, _, err = api.studentSvc.EnsureProfile(reqCtx, child); err != nil {
			return errors.Wrap(err, "ensuring demo child profile")
		}
		if _, err = api.studentSvc.LinkParent(reqCtx, usr, child, true); err != nil {
			return errors.Wrap(err, "linking demo parent")
		}
	}
	return nil
}

func (api *authApi) mockSignIn(ctx echo.Context) error {
	if api.resolver.Mode() != session.ModeMock {
		return core.ErrModeMismatch
	}

	var data MockSignInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MockSignInRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	demo, err := session.FindDemoAccount(data.Email)
	if err != nil {
		return err
	}
	usr, _, err := api.userSvc.FindOrCreate(ctx.Request().Context(), demo.NewUser())
	if err != nil {
		return errors.Wrap(err, "finding or creating demo user")
	}
	if err = api.onSignIn(ctx, usr, &demo); err != nil {
		return err
	}

	sess := session.FromUser(usr)
	if err = api.resolver.Create(ctx.Response(), sess); err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ok(ctx, UserResponse{User: usr.Summary()}, msgSignedIn)
}

func (api *authApi) mockSession(ctx echo.Context) error {
	s := getContextSession(ctx)
	if s == nil {
		return ctx.JSON(http.StatusUnauthorized, SessionResponse{})
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Authenticated: true, User: sessionSummary(s)})
}

func (api *authApi) session(ctx echo.Context) error {
	s := getContextSession(ctx)
	return ctx.JSON(http.StatusOK, SessionResponse{Authenticated: s != nil, User: sessionSummary(s)})
}

func (api *authApi) signOut(ctx echo.Context) error {
	if err := api.resolver.Destroy(ctx.Response(), ctx.Request()); err != nil {
		return errors.Wrap(err, "destroying session")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: msgSignedOut})
}

func (api *authApi) googleLogin(ctx echo.Context) error {
	if api.resolver.Mode() != session.ModeOAuth || api.oauth == nil {
		return core.ErrModeMismatch
	}
	url, err := api.oauth.LoginURL(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building google login url")
	}
	return ctx.Redirect(http.StatusFound, url)
}

func (api *authApi) frontendURL(path string, query ...string) string {
	u := strings.TrimSuffix(api.conf.FrontendBaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query[0]
	}
	return u
}

func (api *authApi) googleCallback(ctx echo.Context) error {
	if api.resolver.Mode() != session.ModeOAuth || api.oauth == nil {
		return core.ErrModeMismatch
	}
	reqCtx := ctx.Request().Context()

	if oauthErr := ctx.QueryParam("error"); oauthErr != "" {
		return ctx.Redirect(http.StatusFound, api.frontendURL(signInPath, "error=access_denied"))
	}

	id, err := api.oauth.Complete(reqCtx, ctx.QueryParam("state"), ctx.QueryParam("code"))
	if err != nil {
		switch errors.Cause(err) {
		case oauthsvc.ErrInvalidState, oauthsvc.ErrEmailNotVerified:
			return ctx.Redirect(http.StatusFound, api.frontendURL(signInPath, "error=invalid_signin"))
		}
		return errors.Wrap(err, "completing google sign-in")
	}

	usr, err := api.resolver.SignIn(reqCtx, id)
	if err != nil {
		return err
	}
	if err = api.onSignIn(ctx, usr, nil); err != nil {
		return err
	}
	if err = api.oauth.Start(reqCtx, ctx.Response(), usr.Email); err != nil {
		return errors.Wrap(err, "starting provider session")
	}
	return ctx.Redirect(http.StatusFound, api.frontendURL(dashboardPath))
}
