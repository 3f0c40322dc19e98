package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core/opportunity"
)

type opportunityApi struct {
	svc opportunity.ServiceInterface
}

func registerOpportunityAPI(g *echo.Group, svc opportunity.ServiceInterface) {
	api := opportunityApi{svc: svc}
	g.GET("/opportunities", api.query)
}

func (api *opportunityApi) query(ctx echo.Context) error {
	var filter opportunity.Filter
	if err := ctx.Bind(&filter); err != nil {
		// malformed paging params fall back to the defaults
		filter = opportunity.Filter{}
	}
	page, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing opportunities")
	}
	return ok(ctx, page)
}
