package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	g.GET("", api.list)
	g.POST("", api.create, adminOrTeacher)
	g.GET("/teacher/:id", api.listByTeacher)
	g.GET("/course/:id", api.listByCourse)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, adminOrTeacher)
	g.PUT("/:id/finalize", api.finalize, adminOrTeacher)
	g.DELETE("/:id", api.destroy, adminOrTeacher)
}

func (api *attendanceApi) list(ctx echo.Context) error {
	records, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing records")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) listByTeacher(ctx echo.Context) error {
	records, err := api.svc.ListByTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing teacher records")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) listByCourse(ctx echo.Context) error {
	records, err := api.svc.ListByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing course records")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) create(ctx echo.Context) error {
	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating record")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	r, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting record")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	var data attendance.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating record")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *attendanceApi) finalize(ctx echo.Context) error {
	var data attendance.Finalize
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Finalize")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	r, err := api.svc.Finalize(ctx.Request().Context(), ctx.Param("id"), data.PresentStudents)
	if err != nil {
		return errors.Wrap(err, "finalizing record")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting record")
	}
	return ctx.NoContent(http.StatusNoContent)
}
