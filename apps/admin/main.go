package main

import (
	"context"
	"fmt"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	dig_container "github.com/uniasistencia/backend/apps/api/di/dig"
	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/teacher"
	"github.com/uniasistencia/backend/core/user"
)

func main() {
	c := dig_container.New()

	var code int
	err := c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		closeDB dig_container.CloseDB,
		validate *validator.Validate,
		translator ut.Translator,
		users *user.Service,
		admins *administrator.Service,
	) {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
			defer cancel()
			if err := closeDB(ctx); err != nil {
				logger.Error(fmt.Sprintf("closing database: %v", err), err)
			}
		}()

		core.InitValidators(validate, translator)
		account.InitValidators(validate, translator)
		teacher.InitValidators(validate, translator)
		administrator.InitValidators(validate, translator)

		// start CLI
		cli := commandLine{
			users:    users,
			admins:   admins,
			validate: validate,
		}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				fmt.Printf("\nerror: %s\n", describe(err, translator))
			}
			code = 1
		}
	})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		code = 1
	}
	os.Exit(code)
}

// describe renders validation errors one field per line.
func describe(err error, translator ut.Translator) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msg := "invalid input"
	for _, fe := range verrs {
		msg += "\n  " + fe.Translate(translator)
	}
	return msg
}
