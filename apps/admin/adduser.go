package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

// addUser creates a user, or resets their password if the email is taken.
func (cli *commandLine) addUser(email, name string, role user.Role, pwd string) error {
	ctx := context.Background()

	nu := user.NewUser{
		Name:     name,
		Email:    email,
		Role:     role,
		Password: pwd,
	}
	if err := nu.Validate(); err != nil {
		return err
	}

	if _, err := cli.usrSvc.GetByEmail(ctx, nu.Email); err == nil {
		logger.Printf("user %s exists; resetting password", nu.Email)
		return cli.usrSvc.ResetPassword(ctx, nu.Email, nu.Password)
	} else if errors.Cause(err) != user.ErrNotFound {
		return err
	}

	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	logger.Printf("user %s (%s) created", usr.Email, usr.Role)
	return nil
}
