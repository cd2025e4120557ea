package main

import (
	"context"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := cli.usrSvc.ResetPassword(ctx, usr.Email, pwd); err != nil {
		return err
	}
	logger.Printf("password reset for %s", usr.Email)
	return nil
}
