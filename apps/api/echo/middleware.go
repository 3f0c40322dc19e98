package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/access"
	"github.com/Smarcastic/studesq-mvp/core/session"
)

const contextSessionKey = "session"

// sessionMiddleware resolves the session of the request once and stores it in the context.
func sessionMiddleware(resolver session.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if s := resolver.Resolve(ctx.Request()); s != nil {
				ctx.Set(contextSessionKey, s)
			}
			return next(ctx)
		}
	}
}

// getContextSession returns the session resolved by sessionMiddleware, nil when unauthenticated.
func getContextSession(ctx echo.Context) *session.Session {
	s, _ := ctx.Get(contextSessionKey).(*session.Session)
	return s
}

func requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if getContextSession(ctx) == nil {
			return core.ErrUnauthenticated
		}
		return next(ctx)
	}
}

// studentAccessMiddleware checks read (or write) access to the profile named by the path param.
func studentAccessMiddleware(evaluator *access.Evaluator, param string, write bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s := getContextSession(ctx)
			studentID := ctx.Param(param)
			reqCtx := ctx.Request().Context()

			var err error
			if write {
				err = evaluator.AuthorizeWrite(reqCtx, s, studentID)
			} else {
				err = evaluator.AuthorizeRead(reqCtx, s, studentID)
			}
			if err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
