package main

import (
	"context"

	"github.com/pkg/errors"
)

func (cli *commandLine) linkParent(parentEmail, studentEmail string, verified bool) error {
	ctx := context.Background()

	parent, err := cli.usrSvc.GetByEmail(ctx, parentEmail)
	if err != nil {
		return errors.Wrap(err, "finding parent")
	}
	std, err := cli.usrSvc.GetByEmail(ctx, studentEmail)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}

	l, err := cli.studentSvc.LinkParent(ctx, parent, std, verified)
	if err != nil {
		return err
	}
	cli.printf("parent %s linked to student profile %s (verified: %t)\n", parent.Email, l.StudentID, l.Verified)
	return nil
}
