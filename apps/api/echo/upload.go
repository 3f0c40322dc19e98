package echoapi

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	uploadsvc "github.com/Smarcastic/studesq-mvp/services/upload"
)

type uploadApi struct {
	svc *uploadsvc.Service
}

func registerUploadAPI(g *echo.Group, deps ServerDeps) {
	api := uploadApi{svc: deps.UploadSvc}
	g.GET("/uploads/:studentId/*", api.serve, requireSession, studentAccessMiddleware(deps.Evaluator, "studentId", false))
}

func (api *uploadApi) serve(ctx echo.Context) error {
	f, contentType, err := api.svc.Open(ctx.Param("studentId"), ctx.Param("*"))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	h := ctx.Response().Header()
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filepath.Base(f.Name())))
	h.Set("Cache-Control", "private, max-age=3600")
	return ctx.Stream(http.StatusOK, contentType, f)
}
