package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/session"
	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
	uploadsvc "github.com/Smarcastic/studesq-mvp/services/upload"
)

var (
	msgUnauthorized = "Authentication required"
	msgServerError  = "Internal server error"
)

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return codeValidationError
	case http.StatusUnauthorized:
		return codeUnauthorized
	case http.StatusForbidden:
		return codeForbidden
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusInternalServerError:
		return codeServerError
	default:
		return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func isNotFound(err error) bool {
	switch err {
	case user.ErrNotFound, student.ErrProfileNotFound, session.ErrDemoAccountNotFound, uploadsvc.ErrFileNotFound:
		return true
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var status int
		body := ErrorBody{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			status = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				body.Message = msg
			} else {
				body.Message = http.StatusText(status)
			}
			body.Code = codeForStatus(status)
		case validator.ValidationErrors:
			body.Fields = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				body.Fields[vErr.Field()] = vErr.Translate(translator)
			}
			status = http.StatusBadRequest
			body.Message = "Invalid input"
			body.Code = codeValidationError
		case *core.ValidationError:
			if origErr.Fields != nil {
				body.Fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					body.Fields[fErr.Field] = fErr.Error
				}
			}
			status = http.StatusBadRequest
			body.Message = origErr.Error()
			if body.Message == "" {
				body.Message = "Invalid input"
			}
			body.Code = codeValidationError
		case *uploadsvc.Error:
			status = http.StatusBadRequest
			body.Message = origErr.Message
			body.Code = codeValidationError
			body.Fields = map[string]string{"certificate": origErr.Code}
		default:
			switch {
			case origErr == core.ErrUnauthenticated:
				status = http.StatusUnauthorized
				body.Message = msgUnauthorized
				body.Code = codeUnauthorized
			case origErr == core.ErrForbidden || origErr == core.ErrModeMismatch || origErr == uploadsvc.ErrInvalidPath:
				status = http.StatusForbidden
				body.Message = origErr.Error()
				body.Code = codeForbidden
			case isNotFound(origErr):
				status = http.StatusNotFound
				body.Message = origErr.Error()
				body.Code = codeNotFound
			default: // any other error is a server error
				status = http.StatusInternalServerError
				body.Message = msgServerError
				body.Code = codeServerError

				args := []interface{}{errors.Wrap(err, msgServerError)}
				if s := getContextSession(ctx); s != nil {
					args = append(args, *s)
				}
				logger.Error(msgServerError, args...)

				if ctx.Echo().Debug {
					body.Message = err.Error()
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(status)
			} else {
				err = ctx.JSON(status, ErrorResponse{Error: body})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
