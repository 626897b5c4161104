package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/user"
)

var errRoleRequired = core.NewBadRequestError("role query parameter is required")

type userApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, svc *user.Service, validate *validator.Validate) {
	api := userApi{svc: svc, validate: validate}

	g.POST("", api.create, adminOnly)
	g.GET("", api.query)
	g.GET("/search/:email", api.search)

	// detail endpoints
	dg := g.Group("/:role/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminOnly)
	dg.DELETE("", api.destroy, adminOnly)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acc, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *userApi) query(ctx echo.Context) error {
	rawRole := ctx.QueryParam("role")
	if rawRole == "" {
		return errRoleRequired
	}
	role, err := account.ParseRole(rawRole)
	if err != nil {
		return err
	}

	accounts, err := api.svc.ListByRole(ctx.Request().Context(), role)
	if err != nil {
		return errors.Wrap(err, "listing accounts")
	}
	return ctx.JSON(http.StatusOK, accounts)
}

func (api *userApi) search(ctx echo.Context) error {
	acc, err := api.svc.FindByEmail(ctx.Request().Context(), ctx.Param("email"))
	if err != nil {
		return errors.Wrap(err, "finding account by email")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	role, err := account.ParseRole(ctx.Param("role"))
	if err != nil {
		return err
	}

	acc, err := api.svc.Get(ctx.Request().Context(), role, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *userApi) update(ctx echo.Context) error {
	role, err := account.ParseRole(ctx.Param("role"))
	if err != nil {
		return err
	}

	var data user.UpdateAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAccount")
	}
	if err := data.Validate(api.validate, role); err != nil {
		return err
	}

	acc, err := api.svc.Update(ctx.Request().Context(), role, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *userApi) destroy(ctx echo.Context) error {
	role, err := account.ParseRole(ctx.Param("role"))
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), role, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return ctx.NoContent(http.StatusNoContent)
}
