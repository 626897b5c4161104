package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/user"
)

var errNoLogin = errors.New("students do not sign in")

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	acc, err := cli.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acc.Role == account.RoleStudent {
		return errNoLogin
	}

	// name and email are sent unchanged so the password is checked against them
	name, mail := acc.Name(), acc.Email()
	data := user.UpdateAccount{Name: &name, Email: &mail, Password: &pwd}
	if err := data.Validate(cli.validate, acc.Role); err != nil {
		return err
	}
	_, err = cli.users.Update(ctx, acc.Role, acc.ID(), data)
	return err
}
