package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/student"
	uploadsvc "github.com/Smarcastic/studesq-mvp/services/upload"
)

const (
	certificateField = "certificate"

	msgProfileUpdated     = "Profile updated successfully"
	msgAchievementCreated = "Achievement created successfully"
)

type studentApi struct {
	logger    core.Logger
	svc       student.ServiceInterface
	uploadSvc *uploadsvc.Service
	validate  *validator.Validate
}

func registerStudentAPI(g *echo.Group, deps ServerDeps) {
	api := studentApi{
		logger:    deps.Logger,
		svc:       deps.StudentSvc,
		uploadSvc: deps.UploadSvc,
		validate:  deps.Validate,
	}
	read := studentAccessMiddleware(deps.Evaluator, "id", false)
	write := studentAccessMiddleware(deps.Evaluator, "id", true)
	bodyLimit := middleware.BodyLimit(uploadBodyLimit(deps.Conf.Uploads.MaxSize))

	sg := g.Group("/students/:id", requireSession)
	sg.GET("", api.retrieve, read)
	sg.PUT("", api.update, write)
	sg.GET("/achievements", api.listAchievements, read)
	sg.POST("/achievements", api.createAchievement, bodyLimit, write)
}

// uploadBodyLimit leaves 1 MiB of room for the other form fields.
func uploadBodyLimit(maxSize int64) string {
	return fmt.Sprintf("%dK", (maxSize+1<<20)/1024)
}

// Handlers

func (api *studentApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.GetProfile(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ok(ctx, detail)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	detail, err := api.svc.UpdateProfile(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ok(ctx, detail, msgProfileUpdated)
}

func (api *studentApi) listAchievements(ctx echo.Context) error {
	achievements, err := api.svc.ListAchievements(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing achievements")
	}
	return ok(ctx, achievements)
}

func (api *studentApi) createAchievement(ctx echo.Context) error {
	studentID := ctx.Param("id")

	var data student.NewAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAchievement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	var certificate *uploadsvc.File
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := ctx.FormFile(certificateField)
		if err != nil && err != http.ErrMissingFile {
			return errors.Wrap(err, "reading certificate")
		}
		if fh != nil {
			f, err := api.uploadSvc.Save(studentID, fh)
			if err != nil {
				return err
			}
			certificate = &f
		}
	}

	var certificatePath string
	if certificate != nil {
		certificatePath = certificate.PublicURL
	}
	a, err := api.svc.CreateAchievement(ctx.Request().Context(), studentID, data, certificatePath)
	if err != nil {
		if certificate != nil {
			if rmErr := api.uploadSvc.Remove(*certificate); rmErr != nil {
				api.logger.Error("removing orphaned certificate", rmErr)
			}
		}
		return errors.Wrap(err, "creating achievement")
	}
	return respond(ctx, http.StatusCreated, a, msgAchievementCreated)
}
