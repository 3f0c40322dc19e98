package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Smarcastic/studesq-mvp/core/student"
	"github.com/Smarcastic/studesq-mvp/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sql.DB
	usrSvc     user.ServiceInterface
	studentSvc student.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer // defaults to os.Stdout
}

func (cli *commandLine) writer() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.writer(), format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) against the database\n")
	cli.printf("  adduser -email EMAIL -name NAME -role STUDENT|PARENT|ADMIN - create a user\n")
	cli.printf("  linkparent -parent EMAIL -student EMAIL [-verified] - link a parent to a student\n")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.writer())
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", string(user.RoleStudent), "STUDENT, PARENT or ADMIN.")

	linkParentCmd := flag.NewFlagSet("linkparent", flag.ContinueOnError)
	linkParentCmd.SetOutput(cli.writer())
	linkParentParent := linkParentCmd.String("parent", "", "The parent's email.")
	linkParentStudent := linkParentCmd.String("student", "", "The student's email.")
	linkParentVerified := linkParentCmd.Bool("verified", false, "Grant the parent read access right away.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserEmail, *addUserName, *addUserRole)
	case "linkparent":
		if err := linkParentCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *linkParentParent == "" || *linkParentStudent == "" {
			linkParentCmd.Usage()
			return errHelp
		}
		return cli.linkParent(*linkParentParent, *linkParentStudent, *linkParentVerified)
	default:
		cli.printUsage()
		return errHelp
	}
}

// printValidationErrors prints the translated validation errors of err, if any.
func (cli *commandLine) printValidationErrors(err error) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, vErr := range vErrs {
			cli.printf("  %s: %s\n", vErr.Field(), vErr.Translate(cli.translator))
		}
	}
}
