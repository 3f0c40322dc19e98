package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core/waitlist"
)

type waitlistApi struct {
	svc      waitlist.ServiceInterface
	validate *validator.Validate
}

func registerWaitlistAPI(g *echo.Group, svc waitlist.ServiceInterface, validate *validator.Validate) {
	api := waitlistApi{svc: svc, validate: validate}
	g.POST("/waitlist", api.join)
}

func (api *waitlistApi) join(ctx echo.Context) error {
	var data waitlist.JoinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Join(ctx.Request().Context(), data.Email)
	if err != nil {
		return errors.Wrap(err, "joining waitlist")
	}

	status := http.StatusOK
	if res.Stored && !res.AlreadyExists {
		status = http.StatusCreated
	}
	return respond(ctx, status, res, res.Message())
}
