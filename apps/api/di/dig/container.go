package dig_container

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/Smarcastic/studesq-mvp/apps/api/echo"
	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/access"
	"github.com/Smarcastic/studesq-mvp/core/opportunity"
	"github.com/Smarcastic/studesq-mvp/core/session"
	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
	"github.com/Smarcastic/studesq-mvp/core/waitlist"
	emailsvc "github.com/Smarcastic/studesq-mvp/services/email"
	logsvc "github.com/Smarcastic/studesq-mvp/services/logger"
	oauthsvc "github.com/Smarcastic/studesq-mvp/services/oauth"
	uploadsvc "github.com/Smarcastic/studesq-mvp/services/upload"
	"github.com/Smarcastic/studesq-mvp/storage/database"
	inmemdb "github.com/Smarcastic/studesq-mvp/storage/database/inmem"
	boiledrepos "github.com/Smarcastic/studesq-mvp/storage/database/sqlboiler"
	sqlxrepos "github.com/Smarcastic/studesq-mvp/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger *logsvc.RollbarLogger `name:"dbLogger"`
	}

	// Repositories are provided together since they share one storage engine.
	Repositories struct {
		dig.Out
		Users         user.Repository
		Students      student.Repository
		Opportunities opportunity.Repository
		Waitlist      waitlist.Repository
	}

	// OAuthCloser releases the OAuth store. Always safe to call.
	OAuthCloser func()

	serverParams struct {
		dig.In
		Conf           *core.Config
		Logger         core.Logger
		Resolver       session.Resolver
		Evaluator      *access.Evaluator
		UserSvc        user.ServiceInterface
		StudentSvc     student.ServiceInterface
		OpportunitySvc opportunity.ServiceInterface
		WaitlistSvc    waitlist.ServiceInterface
		UploadSvc      *uploadsvc.Service
		OAuth          *oauthsvc.Google
		Validate       *validator.Validate
		Translator     ut.Translator
	}
)

func newLogger(conf *core.Config, zl *zap.Logger) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(zl.Named("api"), conf)
}

func newDBLogger(conf *core.Config, zl *zap.Logger) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(zl.Named("db"), conf)
}

// newDB returns nil with the inmem engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine != database.EnginePostgres {
		loggerParam.Logger.Info("using the in-memory database")
		return nil
	}

	setUp := func(ctx context.Context) (*sqlx.DB, error) {
		if conf.Database.AdminUser != "" {
			if err := database.CreateIfNotExist(ctx, conf); err != nil {
				return nil, err
			}
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp(context.Background())
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(conf *core.Config, db *sqlx.DB) Repositories {
	if conf.Database.Engine != database.EnginePostgres {
		mem := inmemdb.Open()
		return Repositories{
			Users:         inmemdb.NewUserRepository(mem),
			Students:      inmemdb.NewStudentRepository(mem),
			Opportunities: inmemdb.NewOpportunityRepository(mem),
			Waitlist:      inmemdb.NewWaitlistRepository(mem),
		}
	}
	return Repositories{
		Users:         boiledrepos.NewUserRepository(db),
		Students:      boiledrepos.NewStudentRepository(db),
		Opportunities: sqlxrepos.NewOpportunityRepository(db),
		Waitlist:      sqlxrepos.NewWaitlistRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newOAuth returns a nil provider outside google auth mode.
func newOAuth(conf *core.Config) (*oauthsvc.Google, OAuthCloser, error) {
	if !conf.IsGoogleAuth() {
		return nil, func() {}, nil
	}
	store, closeStore, err := oauthsvc.NewStore(context.Background(), conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "setting up oauth store")
	}
	return oauthsvc.NewGoogle(conf, store), OAuthCloser(closeStore), nil
}

func newResolver(conf *core.Config, usrSvc user.ServiceInterface, google *oauthsvc.Google, logger core.Logger) (session.Resolver, error) {
	var provider session.Provider
	if google != nil {
		provider = google
	}
	return session.NewResolver(session.NewOptions(conf), usrSvc, provider, logger)
}

func newEvaluator(repo student.Repository) *access.Evaluator {
	return access.NewEvaluator(repo, repo)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           p.Conf,
		Logger:         p.Logger,
		Resolver:       p.Resolver,
		Evaluator:      p.Evaluator,
		UserSvc:        p.UserSvc,
		StudentSvc:     p.StudentSvc,
		OpportunitySvc: p.OpportunitySvc,
		WaitlistSvc:    p.WaitlistSvc,
		UploadSvc:      p.UploadSvc,
		OAuth:          p.OAuth,
		Validate:       p.Validate,
		Translator:     p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(logsvc.NewZapLogger))
	must(c.Provide(newLogger))
	must(c.Provide(func(l *logsvc.RollbarLogger) core.Logger { return l }))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(uploadsvc.NewService))
	must(c.Provide(newOAuth))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService, dig.As(new(user.ServiceInterface))))
	must(c.Provide(student.NewService, dig.As(new(student.ServiceInterface))))
	must(c.Provide(opportunity.NewService, dig.As(new(opportunity.ServiceInterface))))
	must(c.Provide(waitlist.NewService, dig.As(new(waitlist.ServiceInterface))))
	must(c.Provide(newResolver))
	must(c.Provide(newEvaluator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
