package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/Smarcastic/studesq-mvp/core"
	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
	logsvc "github.com/Smarcastic/studesq-mvp/services/logger"
	"github.com/Smarcastic/studesq-mvp/storage/database"
	boiledrepos "github.com/Smarcastic/studesq-mvp/storage/database/sqlboiler"
)

var logger *logsvc.RollbarLogger

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		panic(err)
	}
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		panic(err)
	}
	logger = logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(false)

	// set up DB
	ctx := context.Background()
	db, err := database.Open(ctx, conf)
	errAndDie(err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	usrRepo := boiledrepos.NewUserRepository(db)
	cli := commandLine{
		db:         db.DB,
		usrSvc:     user.NewService(usrRepo),
		studentSvc: student.NewService(boiledrepos.NewStudentRepository(db), usrRepo, conf),
		validate:   validate,
		translator: translator,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err, map[string]interface{}{"command": os.Args[1]})
		}
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
