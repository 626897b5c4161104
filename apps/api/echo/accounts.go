package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
)

// Teachers

type teacherApi struct {
	svc      *teacher.Service
	validate *validator.Validate
}

func registerTeacherAPI(g *echo.Group, svc *teacher.Service, validate *validator.Validate) {
	api := teacherApi{svc: svc, validate: validate}

	g.GET("", api.list)
	g.POST("", api.create, adminOnly)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, adminOnly)
	g.DELETE("/:id", api.destroy, adminOnly)
}

func (api *teacherApi) list(ctx echo.Context) error {
	teachers, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data teacher.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Students

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	g.GET("", api.list)
	g.POST("", api.create, adminOnly)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, adminOnly)
	g.DELETE("/:id", api.destroy, adminOnly)
}

func (api *studentApi) list(ctx echo.Context) error {
	students, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Administrators

type administratorApi struct {
	svc      *administrator.Service
	validate *validator.Validate
}

func registerAdministratorAPI(g *echo.Group, svc *administrator.Service, validate *validator.Validate) {
	api := administratorApi{svc: svc, validate: validate}

	g.GET("", api.list)
	g.POST("", api.create, adminOnly)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, adminOnly)
	g.DELETE("/:id", api.destroy, adminOnly)
}

func (api *administratorApi) list(ctx echo.Context) error {
	admins, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing administrators")
	}
	return ctx.JSON(http.StatusOK, admins)
}

func (api *administratorApi) create(ctx echo.Context) error {
	var data administrator.NewAdministrator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdministrator")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating administrator")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *administratorApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting administrator")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *administratorApi) update(ctx echo.Context) error {
	var data administrator.UpdateAdministrator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAdministrator")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating administrator")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *administratorApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting administrator")
	}
	return ctx.NoContent(http.StatusNoContent)
}
