package main

import (
	"context"
	"fmt"

	"github.com/uniasistencia/backend/core/administrator"
)

// addUser creates an active administrator.Administrator
func (cli *commandLine) addUser(name, email, position, pwd string) error {
	active := true
	data := administrator.NewAdministrator{
		Name:     name,
		Email:    email,
		Password: pwd,
		Position: position,
		Active:   &active,
	}
	if err := data.Validate(cli.validate); err != nil {
		return err
	}

	adm, err := cli.admins.Create(context.Background(), data)
	if err != nil {
		return err
	}
	fmt.Printf("administrator %s created (id %s)\n", adm.Email, adm.ID)
	return nil
}
