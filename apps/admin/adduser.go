package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core/user"
)

// addUser creates a user.User, and the profile of a STUDENT.
func (cli *commandLine) addUser(email, name, role string) error {
	ctx := context.Background()

	nu := user.NewUser{Email: email, Name: name, Role: user.Role(role)}
	if err := nu.Validate(cli.validate); err != nil {
		cli.printValidationErrors(err)
		return err
	}

	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	if usr.IsStudent() {
		if _, _, err = cli.studentSvc.EnsureProfile(ctx, usr); err != nil {
			return errors.Wrap(err, "creating student profile")
		}
	}
	cli.printf("user %s (%s) created with id %s\n", usr.Email, usr.Role, usr.ID)
	return nil
}
