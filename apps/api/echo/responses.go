package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Smarcastic/studesq-mvp/core/session"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

// Error codes
const (
	codeUnauthorized    = "UNAUTHORIZED"
	codeForbidden       = "FORBIDDEN"
	codeNotFound        = "NOT_FOUND"
	codeValidationError = "VALIDATION_ERROR"
	codeServerError     = "SERVER_ERROR"
)

type (
	SuccessResponse struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data,omitempty"`
		Message string      `json:"message,omitempty"`
	}

	ErrorBody struct {
		Message string            `json:"message"`
		Code    string            `json:"code"`
		Fields  map[string]string `json:"fields,omitempty"`
	}

	ErrorResponse struct {
		Success bool      `json:"success"`
		Error   ErrorBody `json:"error"`
	}

	SessionResponse struct {
		Authenticated bool          `json:"authenticated"`
		User          *user.Summary `json:"user,omitempty"`
	}

	UserResponse struct {
		User user.Summary `json:"user"`
	}

	MockSignInRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

func respond(ctx echo.Context, code int, data interface{}, message ...string) error {
	res := SuccessResponse{Success: true, Data: data}
	if len(message) > 0 {
		res.Message = message[0]
	}
	return ctx.JSON(code, res)
}

func ok(ctx echo.Context, data interface{}, message ...string) error {
	return respond(ctx, http.StatusOK, data, message...)
}

func sessionSummary(s *session.Session) *user.Summary {
	if s == nil {
		return nil
	}
	return &user.Summary{ID: s.UserID, Email: s.Email, Name: s.Name, Role: s.Role}
}
